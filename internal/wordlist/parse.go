// Package wordlist reads word bank files and keeps the store in step with a
// directory of them.
//
// Two layouts are understood. YAML files group words by tier:
//
//	tiers:
//	  1: [cat, sun]
//	  2: [apple, river]
//
// Text files hold one "<tier> <word>" pair per line; blank lines and lines
// starting with '#' are skipped.
package wordlist

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/spellbee/spellbee-server/internal/service"
)

// ErrUnsupported is returned for files whose extension names no known layout.
var ErrUnsupported = errors.New("unsupported word list format")

type yamlFile struct {
	Tiers map[int][]string `yaml:"tiers"`
}

// Supported reports whether path has a word list extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".txt":
		return true
	}
	return false
}

// LoadFile parses the word list at path, picking the layout by extension.
func LoadFile(path string) ([]service.WordInput, error) {
	if !Supported(path) {
		return nil, fmt.Errorf("%s: %w", path, ErrUnsupported)
	}

	f, err := os.Open(path) //#nosec G304 -- word list paths come from the operator's words directory
	if err != nil {
		return nil, fmt.Errorf("open word list: %w", err)
	}
	defer f.Close()

	var words []service.WordInput
	if strings.EqualFold(filepath.Ext(path), ".txt") {
		words, err = ParseText(f)
	} else {
		words, err = ParseYAML(f)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return words, nil
}

// ParseYAML reads the tier-grouped layout. Words come back ordered by tier so
// a word listed under two tiers keeps the lower one on import.
func ParseYAML(r io.Reader) ([]service.WordInput, error) {
	var file yamlFile
	if err := yaml.NewDecoder(r).Decode(&file); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	var out []service.WordInput
	for _, tier := range slices.Sorted(maps.Keys(file.Tiers)) {
		for _, text := range file.Tiers[tier] {
			if text = strings.TrimSpace(text); text != "" {
				out = append(out, service.WordInput{Text: text, Tier: tier})
			}
		}
	}
	return out, nil
}

// ParseText reads "<tier> <word>" lines.
func ParseText(r io.Reader) ([]service.WordInput, error) {
	var out []service.WordInput

	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, fmt.Errorf("line %d: want \"<tier> <word>\", got %q", lineNum, line)
		}
		tier, err := strconv.Atoi(fields[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid tier %q", lineNum, fields[0])
		}
		out = append(out, service.WordInput{Text: fields[1], Tier: tier})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read word list: %w", err)
	}
	return out, nil
}
