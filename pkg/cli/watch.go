package cli

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/observability"
)

// defaultDebounce is how long the watcher waits for more changes before
// re-linting
const defaultDebounce = 100 * time.Millisecond

// fileWatcher reports lintable files that were written or created under
// the watched paths
type fileWatcher struct {
	engine   *linter.LintEngine
	watcher  *fsnotify.Watcher
	logger   *observability.Logger
	debounce time.Duration

	roots   []string
	named   map[string]bool
	pending map[string]string
}

func newFileWatcher(engine *linter.LintEngine, logger *observability.Logger, paths []string) (*fileWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &fileWatcher{
		engine:   engine,
		watcher:  fsw,
		logger:   logger,
		debounce: defaultDebounce,
		named:    make(map[string]bool),
		pending:  make(map[string]string),
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			_ = fsw.Close()
			return nil, fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if !info.IsDir() {
			// watch the parent so editors that replace the file are seen
			w.named[filepath.Clean(path)] = true
			err = fsw.Add(filepath.Dir(path))
		} else {
			w.roots = append(w.roots, path)
			err = w.addRecursive(path, path)
		}
		if err != nil {
			_ = fsw.Close()
			return nil, err
		}
	}

	return w, nil
}

// addRecursive watches dir and every directory below it that is not hidden
// or ignored
func (w *fileWatcher) addRecursive(root, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && w.skipDir(root, path) {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

func (w *fileWatcher) skipDir(root, path string) bool {
	if strings.HasPrefix(filepath.Base(path), ".") {
		return true
	}
	rel, err := filepath.Rel(root, path)
	return err != nil || w.engine.Config().IsIgnored(rel)
}

// rootOf returns the watched root containing path
func (w *fileWatcher) rootOf(path string) (string, string, bool) {
	for _, root := range w.roots {
		rel, err := filepath.Rel(root, path)
		if err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return root, rel, true
		}
	}
	return "", "", false
}

// selected reports whether a changed file should be re-linted, and the
// path that config globs are matched against
func (w *fileWatcher) selected(path string) (string, bool) {
	if clean := filepath.Clean(path); w.named[clean] {
		return filepath.ToSlash(clean), true
	}
	_, rel, ok := w.rootOf(path)
	if !ok || !w.engine.ShouldLint(rel) {
		return "", false
	}
	return filepath.ToSlash(rel), true
}

func (w *fileWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return
	}

	path := event.Name
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			if root, _, ok := w.rootOf(path); ok && !w.skipDir(root, path) {
				if err := w.addRecursive(root, path); err != nil {
					w.logger.WithError(err).Warn("Failed to watch new directory")
				}
			}
			return
		}
	}

	rel, ok := w.selected(path)
	if !ok {
		return
	}
	w.pending[path] = rel
	w.logger.WithField("path", path).Debug("File change detected")
}

// flush returns the pending files that still exist, sorted by path
func (w *fileWatcher) flush() []linter.SourceFile {
	if len(w.pending) == 0 {
		return nil
	}
	files := make([]linter.SourceFile, 0, len(w.pending))
	for path, rel := range w.pending {
		if _, err := os.Stat(path); err == nil {
			files = append(files, linter.SourceFile{Path: path, Rel: rel})
		}
	}
	w.pending = make(map[string]string)
	sort.Slice(files, func(i, j int) bool {
		return files[i].Path < files[j].Path
	})
	return files
}

// Run delivers batches of changed files to onChange until ctx is done
func (w *fileWatcher) Run(ctx context.Context, onChange func([]linter.SourceFile)) error {
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.WithError(err).Error("Watcher error")

		case <-ticker.C:
			if files := w.flush(); len(files) > 0 {
				onChange(files)
			}
		}
	}
}

// Close stops watching
func (w *fileWatcher) Close() error {
	return w.watcher.Close()
}

func watchAndLint(ctx context.Context, out io.Writer, logger *observability.Logger, engine *linter.LintEngine, format string, paths []string) error {
	w, err := newFileWatcher(engine, logger, paths)
	if err != nil {
		return err
	}
	defer w.Close()

	logger.Info("Watching for changes")
	return w.Run(ctx, func(changed []linter.SourceFile) {
		if _, err := lintAndReport(ctx, out, engine, format, changed); err != nil {
			logger.WithError(err).Error("Re-lint failed")
		}
	})
}
