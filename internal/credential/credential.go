// Package credential resolves the Gemini API key from managed secret stores.
// When every store comes up empty the caller is expected to collect the key
// interactively (masked input) and pass it through Normalize.
package credential

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// ErrNotFound is returned when no store holds a usable credential.
var ErrNotFound = errors.New("credential not found")

// SecretStore is one managed source of the credential.
type SecretStore interface {
	Name() string
	Lookup(ctx context.Context, key string) (string, error)
}

// Resolver walks its stores in order and returns the first non-blank value.
type Resolver struct {
	key    string
	stores []SecretStore
}

func NewResolver(key string, stores ...SecretStore) *Resolver {
	return &Resolver{key: key, stores: stores}
}

// Resolve never returns a blank credential. Store failures are logged and
// skipped; only the final miss is reported, as ErrNotFound.
func (r *Resolver) Resolve(ctx context.Context) (string, error) {
	for _, s := range r.stores {
		val, err := s.Lookup(ctx, r.key)
		if err != nil {
			slog.Debug("secret store miss", "store", s.Name(), "key", r.key, "error", err)
			continue
		}
		if val, err = Normalize(val); err == nil {
			slog.Info("credential resolved", "store", s.Name())
			return val, nil
		}
	}
	return "", fmt.Errorf("resolve %s: %w", r.key, ErrNotFound)
}

// Normalize trims interactive input and rejects blanks.
func Normalize(raw string) (string, error) {
	v := strings.TrimSpace(raw)
	if v == "" {
		return "", ErrNotFound
	}
	return v, nil
}

// EnvStore reads the process environment. Aliases are consulted after the
// primary key, so GEMINI_API_KEY can stand in for GOOGLE_API_KEY.
type EnvStore struct {
	Aliases []string
}

func (EnvStore) Name() string { return "env" }

func (s EnvStore) Lookup(_ context.Context, key string) (string, error) {
	for _, k := range append([]string{key}, s.Aliases...) {
		if v := os.Getenv(k); strings.TrimSpace(v) != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("env %s: %w", key, ErrNotFound)
}

// FileStore reads a TOML/YAML secrets file, the way hosted deployments mount
// their secrets next to the app.
type FileStore struct {
	Path string
}

func (FileStore) Name() string { return "secrets-file" }

func (s FileStore) Lookup(_ context.Context, key string) (string, error) {
	if s.Path == "" {
		return "", fmt.Errorf("secrets file not configured: %w", ErrNotFound)
	}
	v := viper.New()
	v.SetConfigFile(s.Path)
	if err := v.ReadInConfig(); err != nil {
		return "", fmt.Errorf("read secrets file: %w", err)
	}
	// viper lower-cases keys
	val := v.GetString(strings.ToLower(key))
	if val == "" {
		return "", fmt.Errorf("secrets file %s has no %s: %w", s.Path, key, ErrNotFound)
	}
	return val, nil
}

// Stores returns the lookup chain. Managed deployments only trust the mounted
// secrets file; local runs also accept the environment (including .env).
func Stores(managed bool, secretsFile string) []SecretStore {
	if managed {
		return []SecretStore{FileStore{Path: secretsFile}}
	}
	return []SecretStore{
		FileStore{Path: secretsFile},
		EnvStore{Aliases: []string{"GEMINI_API_KEY"}},
	}
}
