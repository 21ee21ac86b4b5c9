package services

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

type ModelReloader interface {
	Reload(ctx context.Context) (bool, error)
}

// ArtifactWatcher reloads the model when the artifact file is replaced on
// disk, e.g. by a notebook export. It watches the parent directory because
// atomic writers rename a new file over the old one.
type ArtifactWatcher struct {
	path     string
	reloader ModelReloader
	log      zerolog.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

func NewArtifactWatcher(path string, reloader ModelReloader, logger zerolog.Logger) (*ArtifactWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve artifact path: %w", err)
	}
	dir := filepath.Dir(abs)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create model dir: %w", err)
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	return &ArtifactWatcher{
		path:     abs,
		reloader: reloader,
		log:      logger.With().Str("component", "artifact_watcher").Logger(),
		watcher:  w,
		debounce: 250 * time.Millisecond,
	}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *ArtifactWatcher) Run(ctx context.Context) {
	w.log.Info().Str("path", w.path).Msg("watching model artifact")

	timer := time.NewTimer(time.Hour)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path {
				continue
			}
			if ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) {
				timer.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn().Err(err).Msg("watcher error")
		case <-timer.C:
			changed, err := w.reloader.Reload(ctx)
			if err != nil {
				w.log.Error().Err(err).Msg("model reload failed, keeping current model")
				continue
			}
			if changed {
				w.log.Info().Msg("model artifact reloaded")
			}
		}
	}
}

func (w *ArtifactWatcher) Close() error {
	return w.watcher.Close()
}
