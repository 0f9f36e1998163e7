package infra

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"
)

func TestEnsureDir(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	dir, err := EnsureDir(root, "a", "b")
	if err != nil {
		t.Fatalf("ensure dir: %v", err)
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("directory not created: %v", err)
	}

	file, err := EnsureParent(filepath.Join(root, "c", "journal.db"))
	if err != nil {
		t.Fatalf("ensure parent: %v", err)
	}
	if _, err := os.Stat(filepath.Dir(file)); err != nil {
		t.Fatalf("parent not created: %v", err)
	}
}

func TestGoRecoverableRestartsWithinBudget(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	exhausted := make(chan struct{})
	GoRecoverable(2, "test", func() {
		runs.Add(1)
		panic("boom")
	}, func() { close(exhausted) })

	select {
	case <-exhausted:
	case <-time.After(5 * time.Second):
		t.Fatalf("budget never exhausted")
	}
	if got := runs.Load(); got != 3 {
		t.Fatalf("expected 3 runs, got %d", got)
	}
}

func TestWatchExecutableStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	changed := WatchExecutable(ctx)
	cancel()
	select {
	case <-changed:
		t.Fatalf("binary did not change")
	case <-time.After(50 * time.Millisecond):
	}
}
