// Package keygen produces the secrets this service hands out: receipts,
// key strings, and password hashes. It has no side effects beyond
// consuming randomness.
package keygen

import (
	"crypto/rand"
	"fmt"

	"github.com/google/uuid"
)

// KeyAlphabet is the fixed character set for issued key strings. It
// excludes visually ambiguous characters (0/O, 1/l) so keys survive
// being read out loud or retyped.
const KeyAlphabet = "abcdefghijkmnpqrstuvwxyz23456789"

// KeyLength is the number of characters in an issued key string.
const KeyLength = 64

// NewReceipt returns a fresh receipt: a random UUID in canonical textual
// form. 128 bits of randomness, unguessable, never reused.
func NewReceipt() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate receipt: %w", err)
	}
	return id.String(), nil
}

// NewKeyString returns a string of length characters drawn uniformly from
// KeyAlphabet. Bytes outside the largest multiple of the alphabet size are
// rejected and redrawn, so no character is more likely than another.
func NewKeyString(length int) (string, error) {
	if length <= 0 {
		return "", fmt.Errorf("key length must be positive, got %d", length)
	}

	// Largest byte value usable without modulo bias.
	limit := 256 - (256 % len(KeyAlphabet))

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("read random bytes: %w", err)
		}
		for _, b := range buf {
			if limit != 0 && int(b) >= limit {
				continue
			}
			out = append(out, KeyAlphabet[int(b)%len(KeyAlphabet)])
			if len(out) == length {
				break
			}
		}
	}
	return string(out), nil
}
