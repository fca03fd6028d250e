// Package cachekey derives cache keys for annotation requests.
package cachekey

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Derive returns a stable key for a (text, genre) pair.
//
// The genre is length-prefixed and followed by a NUL separator so that no two
// distinct pairs share an encoding before hashing.
func Derive(text, genre string) string {
	var prefix [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(prefix[:], uint64(len(genre)))

	h := sha256.New()
	h.Write(prefix[:n])
	h.Write([]byte(genre))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
