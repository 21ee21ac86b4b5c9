package services

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

type countingReloader struct {
	calls atomic.Int32
	ch    chan struct{}
}

func (r *countingReloader) Reload(context.Context) (bool, error) {
	r.calls.Add(1)
	select {
	case r.ch <- struct{}{}:
	default:
	}
	return true, nil
}

func TestArtifactWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trained_model.json")
	reloader := &countingReloader{ch: make(chan struct{}, 1)}

	w, err := NewArtifactWatcher(path, reloader, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewArtifactWatcher failed: %v", err)
	}
	w.debounce = 20 * time.Millisecond
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	model := &Regressor{Features: []string{"month"}, Coefficients: []float64{1}}
	if err := SaveArtifact(path, model); err != nil {
		t.Fatalf("SaveArtifact failed: %v", err)
	}

	select {
	case <-reloader.ch:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not reload after the artifact was replaced")
	}
}

func TestArtifactWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	reloader := &countingReloader{ch: make(chan struct{}, 1)}

	w, err := NewArtifactWatcher(filepath.Join(dir, "trained_model.json"), reloader, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewArtifactWatcher failed: %v", err)
	}
	w.debounce = 10 * time.Millisecond
	defer w.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(200 * time.Millisecond)
	if n := reloader.calls.Load(); n != 0 {
		t.Errorf("Reload called %d times for an unrelated file", n)
	}
}

func TestArtifactWatcherCreatesDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "models", "trained_model.json")
	w, err := NewArtifactWatcher(path, &countingReloader{}, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewArtifactWatcher failed: %v", err)
	}
	defer w.Close()

	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("model dir not created: %v", err)
	}
}
