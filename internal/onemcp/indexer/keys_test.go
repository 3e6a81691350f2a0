package indexer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitizeIsIdempotent(t *testing.T) {
	inputs := []string{
		"op|acme|querySales",
		"123abc",
		"weird chars!@# here",
		"",
		"already_clean-name",
	}
	for _, in := range inputs {
		once := Sanitize(in)
		twice := Sanitize(once)
		assert.Equal(t, once, twice, "input=%q", in)
	}
}

func TestSanitizeNeverStartsWithDigit(t *testing.T) {
	out := Sanitize("123abc")
	assert.NotRegexp(t, `^[0-9]`, out)
}

func TestSanitizeBoundsLength(t *testing.T) {
	long := make([]byte, 500)
	for i := range long {
		long[i] = 'a'
	}
	out := Sanitize(string(long))
	assert.LessOrEqual(t, len(out), 200)
}

func TestSanitizeReplacesDisallowedCharacters(t *testing.T) {
	out := Sanitize("op|acme|querySales")
	assert.Regexp(t, `^[A-Za-z0-9_-]+$`, out)
}
