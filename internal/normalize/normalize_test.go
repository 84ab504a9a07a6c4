package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnswer(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"cat", "cat"},
		{"C A T", "cat"},
		{"c-a-t.", "cat"},
		{"  Necessary ", "necessary"},
		{"ｃａｔ", "cat"}, // full-width
		{"", ""},
		{"123 !", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Answer(tt.raw), "raw=%q", tt.raw)
	}
}

func TestMatches(t *testing.T) {
	assert.True(t, Matches("R H Y T H M", "rhythm"))
	assert.True(t, Matches("rhythm", "Rhythm"))
	assert.False(t, Matches("rythm", "rhythm"))
	assert.False(t, Matches("", ""), "empty answers never match")
	assert.False(t, Matches("   ", "a"))
}

func TestUsernameKey(t *testing.T) {
	assert.Equal(t, "speller_01", UsernameKey("  Speller_01 "))
	assert.Equal(t, UsernameKey("ZOE"), UsernameKey("zoe"))
	assert.Equal(t, "Speller_01", Username("  Speller_01 "))
}

func TestSearchTerm(t *testing.T) {
	assert.Equal(t, "bee", SearchTerm(" BEE "))
	assert.Equal(t, "", SearchTerm("   "))
}
