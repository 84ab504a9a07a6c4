// Package id generates prefixed NanoID identifiers.
package id

import (
	"fmt"
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Prefixes for every entity that gets a generated identifier.
const (
	PrefixAccount    = "acct"
	PrefixGame       = "game"
	PrefixGamePlayer = "gp"
	PrefixWord       = "word"
	PrefixToken      = "tok"
)

// nanoidLength is the default NanoID size used by gonanoid.New.
const nanoidLength = 21

// Generate creates a prefixed unique ID, e.g. "game-V1StGXR8_Z5jdHi6B-myT".
// Returns an error if the system has insufficient entropy.
func Generate(prefix string) (string, error) {
	raw, err := gonanoid.New()
	if err != nil {
		return "", fmt.Errorf("generate nanoid: %w", err)
	}
	return prefix + "-" + raw, nil
}

// MustGenerate is like Generate but panics if ID generation fails.
func MustGenerate(prefix string) string {
	v, err := Generate(prefix)
	if err != nil {
		panic(fmt.Sprintf("failed to generate ID: %v", err))
	}
	return v
}

// HasPrefix reports whether v looks like an ID produced by Generate(prefix).
// Seeded fixtures may use shorter suffixes, so only a non-empty suffix is required.
func HasPrefix(v, prefix string) bool {
	suffix, ok := strings.CutPrefix(v, prefix+"-")
	return ok && suffix != "" && len(suffix) <= nanoidLength*2
}
