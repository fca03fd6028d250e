package dicta

import "strings"

// token is one element of the service response: either a separator
// (whitespace, punctuation) or a word with candidate vocalizations ordered
// by likelihood.
type token struct {
	Word    string   `json:"word"`
	Sep     bool     `json:"sep"`
	Options []string `json:"options"`
}

// join concatenates the response, taking the first option for each word and
// the word itself for separators or words without options.
func join(tokens []token) string {
	var b strings.Builder
	for _, t := range tokens {
		if !t.Sep && len(t.Options) > 0 {
			b.WriteString(t.Options[0])
			continue
		}
		b.WriteString(t.Word)
	}
	return b.String()
}
