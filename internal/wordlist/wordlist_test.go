package wordlist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spellbee/spellbee-server/internal/logger"
	"github.com/spellbee/spellbee-server/internal/service"
)

type recordingImporter struct {
	mu    sync.Mutex
	words []service.WordInput
	fail  bool
}

func (r *recordingImporter) ImportWords(_ context.Context, inputs []service.WordInput) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return 0, errors.New("store unavailable")
	}
	r.words = append(r.words, inputs...)
	return len(inputs), nil
}

func (r *recordingImporter) texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.words))
	for _, w := range r.words {
		out = append(out, w.Text)
	}
	return out
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestParseYAML(t *testing.T) {
	words, err := ParseYAML(strings.NewReader(`
tiers:
  2: [apple, " river "]
  1: [cat, ""]
`))
	require.NoError(t, err)
	assert.Equal(t, []service.WordInput{
		{Text: "cat", Tier: 1},
		{Text: "apple", Tier: 2},
		{Text: "river", Tier: 2},
	}, words)
}

func TestParseYAML_Empty(t *testing.T) {
	words, err := ParseYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, words)
}

func TestParseYAML_Malformed(t *testing.T) {
	_, err := ParseYAML(strings.NewReader("tiers: [not, a, map]"))
	assert.Error(t, err)
}

func TestParseText(t *testing.T) {
	words, err := ParseText(strings.NewReader("# starter words\n1 cat\n\n  3   banana  \n"))
	require.NoError(t, err)
	assert.Equal(t, []service.WordInput{
		{Text: "cat", Tier: 1},
		{Text: "banana", Tier: 3},
	}, words)
}

func TestParseText_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"missing tier", "cat\n", "line 1"},
		{"bad tier", "1 cat\nhard dog\n", "invalid tier"},
		{"extra field", "1 ice cream\n", "line 1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseText(strings.NewReader(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	words, err := LoadFile(writeFile(t, dir, "starter.YML", "tiers:\n  1: [sun]\n"))
	require.NoError(t, err)
	assert.Equal(t, []service.WordInput{{Text: "sun", Tier: 1}}, words)

	_, err = LoadFile(writeFile(t, dir, "notes.md", "# nothing"))
	assert.ErrorIs(t, err, ErrUnsupported)

	_, err = LoadFile(filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestWanted(t *testing.T) {
	assert.True(t, wanted("tier1.txt"))
	assert.True(t, wanted("bank.yaml"))
	assert.False(t, wanted(".bank.yaml"))
	assert.False(t, wanted("bank.yaml~"))
	assert.False(t, wanted("bank.json"))
}

func newTestWatcher(t *testing.T, dir string, importer Importer) *Watcher {
	t.Helper()
	w, err := NewWatcher(dir, importer, nil, logger.Discard().Logger, 20*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestNewWatcher_RequiresDirectory(t *testing.T) {
	dir := t.TempDir()

	_, err := NewWatcher(filepath.Join(dir, "missing"), &recordingImporter{}, nil, logger.Discard().Logger, 0)
	assert.Error(t, err)

	_, err = NewWatcher(writeFile(t, dir, "file.txt", "1 cat\n"), &recordingImporter{}, nil, logger.Discard().Logger, 0)
	assert.Error(t, err)
}

func TestWatcher_LoadAll(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "1 cat\n")
	writeFile(t, dir, "b.yaml", "tiers:\n  2: [apple]\n")
	writeFile(t, dir, "broken.txt", "not a tier line\n")
	writeFile(t, dir, ".hidden.txt", "1 ghost\n")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.txt"), 0o755))

	importer := &recordingImporter{}
	w := newTestWatcher(t, dir, importer)

	n, err := w.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"cat", "apple"}, importer.texts())
}

func TestWatcher_LoadAll_ImportFailureIsSkipped(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "1 cat\n")

	w := newTestWatcher(t, dir, &recordingImporter{fail: true})

	n, err := w.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWatcher_ImportsChangedFiles(t *testing.T) {
	dir := t.TempDir()
	importer := &recordingImporter{}
	w := newTestWatcher(t, dir, importer)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	writeFile(t, dir, "notes.md", "ignored")
	writeFile(t, dir, "fresh.txt", "2 river\n")

	require.Eventually(t, func() bool {
		return len(importer.texts()) == 1
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"river"}, importer.texts())

	writeFile(t, dir, "fresh.txt", "2 river\n3 banana\n")

	require.Eventually(t, func() bool {
		return len(importer.texts()) == 3
	}, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"river", "river", "banana"}, importer.texts())
}

func TestWatcher_RunStopsOnCancel(t *testing.T) {
	w := newTestWatcher(t, t.TempDir(), &recordingImporter{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
