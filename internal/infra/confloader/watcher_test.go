package confloader

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/tokgate/internal/telemetry/logger"
)

func newTestWatcher(t *testing.T) *Watcher {
	t.Helper()
	w, err := NewWatcher(WithWatcherLogger(logger.Nop()))
	if err != nil {
		t.Fatalf("NewWatcher() error = %v", err)
	}
	t.Cleanup(func() { _ = w.Stop() })
	return w
}

func waitChange(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if filepath.Clean(got) != filepath.Clean(want) {
			t.Errorf("changed path = %q, want %q", got, want)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("change was not reported within timeout")
	}
}

func TestWatcher_Watch_NonexistentDir(t *testing.T) {
	w := newTestWatcher(t)
	if err := w.Watch("/nonexistent/path/config.yaml"); err == nil {
		t.Error("Watch() expected error for nonexistent directory")
	}
}

func TestWatcher_OnChange(t *testing.T) {
	w := newTestWatcher(t)

	var mu sync.Mutex
	count := 0
	for i := 0; i < 3; i++ {
		w.OnChange(func(string) {
			mu.Lock()
			count++
			mu.Unlock()
		})
	}

	w.notifyCallbacks("/test/path")

	mu.Lock()
	defer mu.Unlock()
	if count != 3 {
		t.Errorf("callbacks run = %d, want 3", count)
	}
}

func TestWatcher_StopTwice(t *testing.T) {
	w, err := NewWatcher()
	if err != nil {
		t.Fatal(err)
	}
	w.StartAsync()
	if err := w.Stop(); err != nil {
		t.Errorf("Stop() error = %v", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v", err)
	}
}

func TestWatcher_FileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: info\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitChange(t, changed, path)
}

func TestWatcher_FileCreate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatalf("Watch() error = %v", err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) {
		select {
		case changed <- p:
		default:
		}
	})
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(path, []byte("output: json\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	waitChange(t, changed, path)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")

	w := newTestWatcher(t)
	if err := w.Watch(path); err != nil {
		t.Fatal(err)
	}

	changed := make(chan string, 10)
	w.OnChange(func(p string) { changed <- p })
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)

	if err := os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case p := <-changed:
		t.Errorf("unexpected change reported for %q", p)
	case <-time.After(200 * time.Millisecond):
	}
}
