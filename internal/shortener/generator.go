package shortener

import (
	"crypto/rand"
	"fmt"
)

// DefaultCodeLength is the length of generated short codes.
const DefaultCodeLength = 6

// Alphabet is the URL-safe set short codes are drawn from.
// Its 64 symbols let one random byte map onto one symbol without bias.
const Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789_-"

// Generator creates random, URL-safe short codes from crypto/rand.
// It does not check for collisions; that is the Allocator's job.
type Generator struct {
	length int
}

// NewGenerator returns a generator for codes of the given length.
// Non-positive lengths fall back to DefaultCodeLength.
func NewGenerator(length int) *Generator {
	if length <= 0 {
		length = DefaultCodeLength
	}
	return &Generator{length: length}
}

// Generate returns a new random code. An error means the system entropy
// source failed.
func (g *Generator) Generate() (string, error) {
	buf := make([]byte, g.length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("read random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[b&63]
	}
	return string(buf), nil
}
