package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"
)

// SlogLevel maps log.level onto a slog level. Unknown values fall back to info.
func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
