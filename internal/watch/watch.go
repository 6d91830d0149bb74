// Package watch reports changes to the on-disk index while the server runs.
// The loaded pipeline is never rebuilt; a change only raises a notice telling
// the operator to restart.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/liao/lyric-bot/internal/notice"
)

const (
	NoticeKey     = "index-changed"
	ChangedNotice = "Index changed on disk; restart to load it."
)

type Watcher struct {
	watcher *fsnotify.Watcher
	dir     string
	notices *notice.Board
}

// New watches dir and its immediate subdirectories (one per collection).
func New(dir string, notices *notice.Board) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if err := w.Add(filepath.Join(dir, e.Name())); err != nil {
			slog.Warn("watch collection dir failed", "dir", e.Name(), "error", err)
		}
	}

	return &Watcher{watcher: w, dir: dir, notices: notices}, nil
}

// Run blocks until ctx is done or the watcher is closed.
func (w *Watcher) Run(ctx context.Context) {
	slog.Info("watching index", "dir", w.dir)
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !changes(event.Op) {
				continue
			}
			slog.Warn("index changed on disk", "path", event.Name, "op", event.Op.String())
			w.notices.Set(NoticeKey, notice.LevelWarning, ChangedNotice)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("index watcher error", "error", err)
		}
	}
}

func (w *Watcher) Close() error {
	return w.watcher.Close()
}

func changes(op fsnotify.Op) bool {
	return op.Has(fsnotify.Create) || op.Has(fsnotify.Write) ||
		op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename)
}
