package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platinummonkey/phpsniff/pkg/linter"
	"github.com/platinummonkey/phpsniff/pkg/observability"
)

func newTestWatcher(t *testing.T, paths ...string) *fileWatcher {
	t.Helper()
	engine, err := newEngine(linter.DefaultConfig(), nil)
	require.NoError(t, err)

	w, err := newFileWatcher(engine, observability.NewNopLogger(), paths)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestFileWatcher_Selected(t *testing.T) {
	dir := writeTree(t, map[string]string{
		"src/a.php":   "<?php",
		"tool.inc":    "<?php",
		"vendor/x.md": "",
	})
	named := filepath.Join(dir, "tool.inc")
	w := newTestWatcher(t, dir, named)

	tests := []struct {
		name    string
		path    string
		wantRel string
		wantOK  bool
	}{
		{name: "file under root", path: filepath.Join(dir, "src", "a.php"), wantRel: "src/a.php", wantOK: true},
		{name: "named file", path: named, wantRel: filepath.ToSlash(named), wantOK: true},
		{name: "wrong extension", path: filepath.Join(dir, "README.md")},
		{name: "ignored dir", path: filepath.Join(dir, "vendor", "lib.php")},
		{name: "outside roots", path: filepath.Join(os.TempDir(), "elsewhere.php")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rel, ok := w.selected(tt.path)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantRel, rel)
		})
	}
}

func TestFileWatcher_SkipDir(t *testing.T) {
	dir := writeTree(t, map[string]string{"src/a.php": "<?php"})
	w := newTestWatcher(t, dir)

	assert.True(t, w.skipDir(dir, filepath.Join(dir, ".git")))
	assert.True(t, w.skipDir(dir, filepath.Join(dir, "vendor")))
	assert.False(t, w.skipDir(dir, filepath.Join(dir, "src")))
}

func TestFileWatcher_Run(t *testing.T) {
	dir := writeTree(t, map[string]string{"src/a.php": "<?php"})
	w := newTestWatcher(t, dir)
	w.debounce = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed := make(chan []linter.SourceFile, 10)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(files []linter.SourceFile) { changed <- files })
	}()

	target := filepath.Join(dir, "src", "a.php")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(target, []byte("<?php const bad = 1;"), 0o644))

	select {
	case files := <-changed:
		assert.Equal(t, []linter.SourceFile{{Path: target, Rel: "src/a.php"}}, files)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for change")
	}

	cancel()
	require.NoError(t, <-done)
}

func TestFileWatcher_FlushDropsRemovedFiles(t *testing.T) {
	dir := writeTree(t, map[string]string{"a.php": "<?php"})
	w := newTestWatcher(t, dir)

	kept := filepath.Join(dir, "a.php")
	w.pending[kept] = "a.php"
	w.pending[filepath.Join(dir, "gone.php")] = "gone.php"

	assert.Equal(t, []linter.SourceFile{{Path: kept, Rel: "a.php"}}, w.flush())
	assert.Empty(t, w.pending)
	assert.Nil(t, w.flush())
}

func TestNewFileWatcher_MissingPath(t *testing.T) {
	engine, err := newEngine(linter.DefaultConfig(), nil)
	require.NoError(t, err)

	_, err = newFileWatcher(engine, observability.NewNopLogger(), []string{filepath.Join(t.TempDir(), "missing")})
	assert.Error(t, err)
}
