// Package shortcode generates the random tokens used both as short URL
// codes and as user identifiers.
package shortcode

import (
	"crypto/rand"
	"math/big"
	"strings"
)

// Alphabet is the set of symbols a generated code is drawn from.
const Alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeLength is the fixed length of every generated code.
const CodeLength = 6

// Generator produces fixed-length random codes drawn uniformly from Alphabet.
//
// A Generator gives no global uniqueness guarantee: the storage layer must
// verify the code is free before committing it and ask for a fresh one on
// collision.
type Generator struct {
	length int
}

// New returns a Generator producing codes of the default length.
func New() *Generator {
	return &Generator{length: CodeLength}
}

// Generate returns a fresh random code.
func (g *Generator) Generate() (string, error) {
	var result strings.Builder
	result.Grow(g.length)

	for i := 0; i < g.length; i++ {
		randomIndex, err := rand.Int(rand.Reader, big.NewInt(int64(len(Alphabet))))
		if err != nil {
			return "", err
		}
		result.WriteByte(Alphabet[randomIndex.Int64()])
	}

	return result.String(), nil
}
