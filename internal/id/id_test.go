package id

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate_Uniqueness(t *testing.T) {
	seen := make(map[string]bool)
	for range 1000 {
		v, err := Generate(PrefixGame)
		require.NoError(t, err)
		assert.False(t, seen[v], "ID should be unique: %s", v)
		seen[v] = true
	}
}

func TestGenerate_Format(t *testing.T) {
	for _, prefix := range []string{PrefixAccount, PrefixGame, PrefixGamePlayer, PrefixWord, PrefixToken} {
		t.Run(prefix, func(t *testing.T) {
			v := MustGenerate(prefix)
			assert.True(t, strings.HasPrefix(v, prefix+"-"))
			assert.Len(t, v, len(prefix)+1+nanoidLength)
			assert.True(t, HasPrefix(v, prefix))
		})
	}
}

func TestHasPrefix(t *testing.T) {
	assert.True(t, HasPrefix("game-abc", PrefixGame))
	assert.False(t, HasPrefix("game-", PrefixGame))
	assert.False(t, HasPrefix("gp-abc", PrefixGame))
	assert.False(t, HasPrefix("", PrefixGame))
	assert.False(t, HasPrefix("game-"+strings.Repeat("x", 100), PrefixGame))
}
