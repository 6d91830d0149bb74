// Package notice holds the side-panel status messages shown next to the chat:
// setup progress, credential warnings, configuration errors. Notices are
// process-wide and persist until replaced or cleared.
package notice

import (
	"log/slog"
	"sync"
	"time"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

type Notice struct {
	Key   string    `json:"key"`
	Level Level     `json:"level"`
	Text  string    `json:"text"`
	At    time.Time `json:"at"`
}

// Board is safe for concurrent use. A nil *Board discards everything.
type Board struct {
	mu      sync.Mutex
	notices []Notice
	max     int
}

func NewBoard(max int) *Board {
	if max <= 0 {
		max = 20
	}
	return &Board{max: max}
}

// Set posts a notice under key, replacing any notice already under that key.
func (b *Board) Set(key string, level Level, text string) {
	if b == nil {
		return
	}
	logNotice(key, level, text)

	b.mu.Lock()
	defer b.mu.Unlock()

	n := Notice{Key: key, Level: level, Text: text, At: time.Now()}
	for i := range b.notices {
		if b.notices[i].Key == key {
			b.notices[i] = n
			return
		}
	}
	b.notices = append(b.notices, n)
	b.trim()
}

// Clear removes the notice under key, if any.
func (b *Board) Clear(key string) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	kept := b.notices[:0]
	for _, n := range b.notices {
		if n.Key != key {
			kept = append(kept, n)
		}
	}
	b.notices = kept
}

// List returns a copy in posting order.
func (b *Board) List() []Notice {
	if b == nil {
		return nil
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]Notice, len(b.notices))
	copy(out, b.notices)
	return out
}

func (b *Board) trim() {
	// 保留最近 max 条
	if len(b.notices) > b.max {
		b.notices = b.notices[len(b.notices)-b.max:]
	}
}

func logNotice(key string, level Level, text string) {
	switch level {
	case LevelError:
		slog.Error(text, "notice", key)
	case LevelWarning:
		slog.Warn(text, "notice", key)
	default:
		slog.Info(text, "notice", key)
	}
}
