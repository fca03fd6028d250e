package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hebrew-tools/nakdan"
	"github.com/hebrew-tools/nakdan/internal/client/dicta"
	"github.com/hebrew-tools/nakdan/internal/config"
)

var annotateCmd = &cobra.Command{
	Use:   "annotate [TEXT]",
	Short: "Add nikud to a piece of text",
	Long: `Send text to the Nakdan service and print it with vowel pointing.

Examples:
  nakdan annotate "שלום עולם"
  nakdan annotate --genre rabbinic --json "אמר רבי"`,
	Args: cobra.ExactArgs(1),
	RunE: runAnnotate,
}

var (
	genreName  string
	outputJSON bool
	showTiming bool
)

func init() {
	annotateCmd.Flags().StringVarP(&genreName, "genre", "g", string(nakdan.DefaultGenre), "text genre: modern, rabbinic, modernpoetry or medievalpoetry")
	annotateCmd.Flags().BoolVar(&outputJSON, "json", false, "output result as JSON")
	annotateCmd.Flags().BoolVar(&showTiming, "timing", false, "show request timing")
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	defer logger.Sync()

	coord, err := newCoordinator(cfg, logger)
	if err != nil {
		return err
	}
	defer coord.Close()

	res, err := coord.GetNikud(cmd.Context(), args[0], genreName)
	if err != nil {
		return fmt.Errorf("annotation failed: %w", err)
	}

	if outputJSON {
		return printResultJSON(res)
	}
	fmt.Println(res.NikudText)
	if showTiming {
		fmt.Fprintf(os.Stderr, "Time: %s\n", res.ResponseTime.Round(time.Millisecond))
	}
	return nil
}

// newCoordinator builds a coordinator backed by the Dicta client.
func newCoordinator(cfg *config.Config, logger *zap.Logger) (*nakdan.Coordinator, error) {
	client := dicta.New(append(cfg.ClientOptions(), dicta.WithLogger(logger.Named("nakdan.client")))...)

	coord, err := nakdan.New(append(cfg.CoordinatorOptions(),
		nakdan.WithClient(client),
		nakdan.WithLogger(logger.Named("nakdan")),
	)...)
	if err != nil {
		return nil, fmt.Errorf("creating coordinator: %w", err)
	}
	return coord, nil
}

func printResultJSON(res *nakdan.Result) error {
	out := struct {
		OriginalText string  `json:"original_text"`
		NikudText    string  `json:"nikud_text"`
		Genre        string  `json:"genre"`
		ElapsedMS    float64 `json:"elapsed_ms,omitempty"`
	}{
		OriginalText: res.OriginalText,
		NikudText:    res.NikudText,
		Genre:        string(res.Genre),
	}
	if showTiming {
		out.ElapsedMS = float64(res.ResponseTime.Microseconds()) / 1000
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetEscapeHTML(false)
	return enc.Encode(out)
}
