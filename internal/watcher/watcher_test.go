package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
)

// recorder collects callback paths.
type recorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *recorder) add(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *recorder) countSuffix(suffix string) int {
	n := 0
	for _, p := range r.snapshot() {
		if strings.HasSuffix(p, suffix) {
			n++
		}
	}
	return n
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func startWatcher(t *testing.T, cfg Config, onChange, onRemove func(string), opts ...Option) *Watcher {
	t.Helper()
	w := New(cfg, onChange, onRemove, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	if err := w.Start(ctx); err != nil {
		cancel()
		t.Fatal(err)
	}
	t.Cleanup(func() {
		w.Stop()
		cancel()
	})
	return w
}

func TestWatcher_AddRemoveDirectories(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, Config{Extensions: []string{".txt"}, Recursive: true}, nil, nil)

	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	if err := w.AddDirectory(dir, false); err != nil {
		t.Fatal(err)
	}
	dirs := w.Directories()
	if len(dirs) != 1 || dirs[0] != filepath.Clean(dir) {
		t.Errorf("Directories() = %v", dirs)
	}

	if err := w.RemoveDirectory(dir); err != nil {
		t.Fatal(err)
	}
	if len(w.Directories()) != 0 {
		t.Errorf("after remove: %v", w.Directories())
	}
	if err := w.RemoveDirectory(dir); err != nil {
		t.Errorf("removing an unknown root: %v", err)
	}
}

func TestWatcher_debouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	var changed recorder
	startWatcher(t, Config{Roots: []string{dir}, Extensions: []string{".txt"}, Recursive: true},
		changed.add, nil, WithDebounce(150*time.Millisecond))

	fPath := filepath.Join(dir, "f.txt")
	for i := 0; i < 5; i++ {
		if err := writeFile(fPath, strings.Repeat("x", i+1)); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err := writeFile(filepath.Join(dir, "skip.xyz"), "x"); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return changed.countSuffix("f.txt") >= 1 })
	time.Sleep(300 * time.Millisecond)
	if n := changed.countSuffix("f.txt"); n != 1 {
		t.Errorf("f.txt reported %d times, want 1", n)
	}
	if changed.countSuffix("skip.xyz") != 0 {
		t.Error("skip.xyz should be filtered by extension")
	}
}

func TestWatcher_reportsRemovedFiles(t *testing.T) {
	dir := t.TempDir()
	fPath := filepath.Join(dir, "gone.md")
	if err := writeFile(fPath, "bye"); err != nil {
		t.Fatal(err)
	}
	var removed recorder
	startWatcher(t, Config{Roots: []string{dir}, Extensions: []string{".md"}, Recursive: true}, nil, removed.add)

	if err := os.Remove(fPath); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return removed.countSuffix("gone.md") == 1 })
}

func TestMatchExtension(t *testing.T) {
	tests := []struct {
		path       string
		extensions []string
		want       bool
	}{
		{"/a/b.txt", []string{".txt"}, true},
		{"/a/b.TXT", []string{".txt"}, true},
		{"/a/b.md", []string{"md"}, true},
		{"/a/b.md", []string{".txt"}, false},
		{"/a/b", nil, true},
		{"/a/b", []string{}, true},
	}
	for _, tt := range tests {
		got := matchExtension(tt.path, tt.extensions)
		if got != tt.want {
			t.Errorf("matchExtension(%q, %v) = %v, want %v", tt.path, tt.extensions, got, tt.want)
		}
	}
}

func TestInDir(t *testing.T) {
	tests := []struct {
		dir  string
		path string
		want bool
	}{
		{"/tmp/a", "/tmp/a", true},
		{"/tmp/a", "/tmp/a/b.txt", true},
		{"/tmp/a", "/tmp/b", false},
		{"/tmp/a", "/tmp/a/../b", false},
		{"/tmp/a", "/tmp/ab", false},
	}
	for _, tt := range tests {
		got := inDir(tt.dir, tt.path)
		if got != tt.want {
			t.Errorf("inDir(%q, %q) = %v, want %v", tt.dir, tt.path, got, tt.want)
		}
	}
}

func TestWatcher_SyncExistingFiles(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "a.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(dir, "ignore.xyz"), "x"); err != nil {
		t.Fatal(err)
	}

	var changed recorder
	w := startWatcher(t, Config{Roots: []string{dir}, Extensions: []string{".txt"}, Recursive: true}, changed.add, nil)
	w.SyncExistingFiles()

	got := changed.snapshot()
	if len(got) != 1 || !strings.HasSuffix(got[0], "a.txt") {
		t.Errorf("expected one reported file a.txt, got %v", got)
	}
}

func TestWatcher_AddDirectory_syncsExisting(t *testing.T) {
	dir := t.TempDir()
	if err := writeFile(filepath.Join(dir, "b.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	var changed recorder
	w := startWatcher(t, Config{Extensions: []string{".txt"}, Recursive: true}, changed.add, nil)
	if err := w.AddDirectory(dir, true); err != nil {
		t.Fatal(err)
	}
	waitFor(t, func() bool { return changed.countSuffix("b.txt") == 1 })
}

func TestWatcher_Start_createsMissingRootDirectory(t *testing.T) {
	root := filepath.Join(t.TempDir(), "watch", "me")
	startWatcher(t, Config{Roots: []string{root}, Recursive: true}, nil, nil)
	if _, err := os.Stat(root); err != nil {
		t.Errorf("root directory should exist after Start: %v", err)
	}
}

func TestWatcher_Start_afterStop(t *testing.T) {
	w := New(Config{Roots: []string{t.TempDir()}}, nil, nil)
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
	if err := w.Start(context.Background()); err == nil {
		t.Error("expected error when restarting a stopped watcher")
	}
}

func TestWatcher_newDirectoryFilesAreReported(t *testing.T) {
	dir := t.TempDir()
	var changed recorder
	startWatcher(t, Config{Roots: []string{dir}, Extensions: []string{".txt", ".md"}, Recursive: true}, changed.add, nil)

	// a folder copied in with files already inside, nested two levels deep
	staging := t.TempDir()
	nested := filepath.Join(staging, "new-folder", "level2")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(staging, "new-folder", "doc1.txt"), "hello"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "deep.md"), "world"); err != nil {
		t.Fatal(err)
	}
	if err := writeFile(filepath.Join(nested, "ignore.xyz"), "skip"); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(filepath.Join(staging, "new-folder"), filepath.Join(dir, "new-folder")); err != nil {
		t.Skipf("cannot move directories between temp dirs: %v", err)
	}

	waitFor(t, func() bool {
		return changed.countSuffix("doc1.txt") >= 1 && changed.countSuffix("deep.md") >= 1
	})
	if changed.countSuffix("ignore.xyz") != 0 {
		t.Error("ignore.xyz should not be reported")
	}
}

func writeFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
