// Package watcher keeps the session log directory alive. If the
// directory is removed while the service runs, it is recreated so the
// next append succeeds instead of failing until restart.
package watcher

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// debounce coalesces the burst of events a recursive delete produces.
const debounce = 100 * time.Millisecond

// Watcher monitors the parent of dir so it can notice dir itself being
// deleted; fsnotify cannot watch a path that no longer exists.
type Watcher struct {
	dir      string
	parent   string
	recreate func() error
	fsw      *fsnotify.Watcher
}

// New creates a watcher for dir. recreate is called after dir
// disappears; it should rebuild the directory.
func New(dir string, recreate func() error) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		dir:      filepath.Clean(dir),
		parent:   filepath.Dir(filepath.Clean(dir)),
		recreate: recreate,
		fsw:      fsw,
	}, nil
}

// Run watches until ctx is cancelled. Watch setup failures are
// downgraded to warnings; the service works without the watcher, it
// just loses self-healing.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	if err := w.addWatch(); err != nil {
		log.Warn().Err(err).Str("path", w.parent).Msg("Failed to watch session log directory")
	}

	var timer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.dir || event.Op&(fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			log.Info().Str("path", w.dir).Msg("Session log directory removed")
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounce, w.handleDeletion)

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			log.Error().Err(err).Msg("Watcher error")
		}
	}
}

func (w *Watcher) addWatch() error {
	if _, err := os.Stat(w.parent); err != nil {
		return err
	}
	return w.fsw.Add(w.parent)
}

func (w *Watcher) handleDeletion() {
	if err := w.recreate(); err != nil {
		log.Warn().Err(err).Str("path", w.dir).Msg("Failed to recreate session log directory")
		return
	}
	log.Info().Str("path", w.dir).Msg("Recreated session log directory")
	if err := w.addWatch(); err != nil {
		log.Warn().Err(err).Str("path", w.parent).Msg("Failed to re-establish watch")
	}
}
