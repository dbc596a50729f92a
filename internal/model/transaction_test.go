package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewCodeUnique(t *testing.T) {
	const n = 100000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		code := NewCode()
		if _, dup := seen[code]; dup {
			t.Fatalf("duplicate code after %d generations: %s", i, code)
		}
		seen[code] = struct{}{}
	}
}

func TestNewCodeFormat(t *testing.T) {
	code := NewCode()
	assert.True(t, strings.HasPrefix(code, "TRX-"))
	assert.Equal(t, code, strings.ToUpper(code))
}

func TestTerminal(t *testing.T) {
	assert.False(t, (&Transaction{Status: StatusPending}).Terminal())
	assert.False(t, (&Transaction{Status: StatusProcessing}).Terminal())
	assert.True(t, (&Transaction{Status: StatusCompleted}).Terminal())
	assert.True(t, (&Transaction{Status: StatusCancelled}).Terminal())
}
