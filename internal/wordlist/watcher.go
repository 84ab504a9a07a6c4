package wordlist

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/spellbee/spellbee-server/internal/metrics"
	"github.com/spellbee/spellbee-server/internal/service"
)

// DefaultSettleDelay is how long a file must stay quiet before it is imported.
const DefaultSettleDelay = 250 * time.Millisecond

// Importer stores parsed words.
type Importer interface {
	ImportWords(ctx context.Context, inputs []service.WordInput) (int, error)
}

// Watcher imports the word lists in a directory and re-imports each file once
// writes to it settle. Removing a file leaves its words in the bank, since
// finished games still reference them.
type Watcher struct {
	dir      string
	importer Importer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	settle   time.Duration

	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer
	wg      sync.WaitGroup
}

// NewWatcher starts watching dir. A non-positive settle uses DefaultSettleDelay.
func NewWatcher(dir string, importer Importer, m *metrics.Metrics, logger *slog.Logger, settle time.Duration) (*Watcher, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat words dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("words dir %s is not a directory", dir)
	}
	if settle <= 0 {
		settle = DefaultSettleDelay
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &Watcher{
		dir:      dir,
		importer: importer,
		metrics:  m,
		logger:   logger,
		settle:   settle,
		fsw:      fsw,
		pending:  make(map[string]*time.Timer),
	}, nil
}

// LoadAll imports every word list in the directory in name order. Files that
// fail to parse or import are logged and skipped.
func (w *Watcher) LoadAll(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("read words dir: %w", err)
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() || !wanted(e.Name()) {
			continue
		}
		n, err := w.importFile(ctx, filepath.Join(w.dir, e.Name()))
		if ctxErr := ctx.Err(); ctxErr != nil {
			return total, ctxErr
		}
		if err == nil {
			total += n
		}
	}
	return total, nil
}

// Run handles file events until ctx is done. Imports still settling are
// dropped on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.stopPending()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ctx, ev)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("word list watcher error", "error", err)
		}
	}
}

// Close releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) handle(ctx context.Context, ev fsnotify.Event) {
	if !wanted(filepath.Base(ev.Name)) {
		return
	}

	switch {
	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.cancel(ev.Name)
		w.logger.Info("word list removed, its words stay in the bank", "file", filepath.Base(ev.Name))
	case ev.Has(fsnotify.Write), ev.Has(fsnotify.Create):
		w.schedule(ctx, ev.Name)
	}
}

// schedule (re)starts the settle timer for path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok && t.Stop() {
		w.wg.Done()
	}

	w.wg.Add(1)
	var timer *time.Timer
	timer = time.AfterFunc(w.settle, func() {
		defer w.wg.Done()

		w.mu.Lock()
		if w.pending[path] == timer {
			delete(w.pending, path)
		}
		w.mu.Unlock()

		_, _ = w.importFile(ctx, path)
	})
	w.pending[path] = timer
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if t, ok := w.pending[path]; ok {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
}

func (w *Watcher) stopPending() {
	w.mu.Lock()
	for path, t := range w.pending {
		if t.Stop() {
			w.wg.Done()
		}
		delete(w.pending, path)
	}
	w.mu.Unlock()

	w.wg.Wait()
}

func (w *Watcher) importFile(ctx context.Context, path string) (int, error) {
	name := filepath.Base(path)

	words, err := LoadFile(path)
	if err != nil {
		w.metrics.WordListImported(metrics.ImportFailed)
		w.logger.Warn("word list rejected", "file", name, "error", err)
		return 0, err
	}

	n, err := w.importer.ImportWords(ctx, words)
	if err != nil {
		w.metrics.WordListImported(metrics.ImportFailed)
		w.logger.Warn("word list import failed", "file", name, "error", err)
		return 0, err
	}

	w.metrics.WordListImported(metrics.ImportSucceeded)
	w.logger.Info("word list imported", "file", name, "words", n)
	return n, nil
}

// wanted skips hidden and editor temp files along with unknown extensions.
func wanted(name string) bool {
	return !strings.HasPrefix(name, ".") && !strings.HasSuffix(name, "~") && Supported(name)
}
