package otp

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerate(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := Generate()
		assert.Len(t, code, Length)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(Alphabet, c), "unexpected character %q in %q", c, code)
		}
	}
}

func TestGenerate_Uppercase(t *testing.T) {
	for i := 0; i < 20; i++ {
		code := Generate()
		assert.Equal(t, strings.ToUpper(code), code)
	}
}
