// Package otp generates the short one-time codes that gate pickup and
// delivery transitions.
package otp

import "math/rand/v2"

const (
	// Length of every generated code.
	Length = 4
	// Alphabet the code characters are drawn from, uniformly.
	Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Generate returns a new 4-character code. Codes are not checked for
// cross-order collisions; uniqueness only matters between the two codes of a
// single order, and Generate is called twice per order against a 36^4 space.
func Generate() string {
	b := make([]byte, Length)
	for i := range b {
		b[i] = Alphabet[rand.IntN(len(Alphabet))]
	}
	return string(b)
}
