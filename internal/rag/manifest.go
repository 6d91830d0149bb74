package rag

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/liao/lyric-bot/internal/embedding"
)

// ManifestFile sits in the index directory next to the chromem-go collections.
const ManifestFile = "lyricbot-manifest.yaml"

var ErrEmbeddingMismatch = errors.New("embedding function does not match index")

// Manifest records how an index was built, so a server can refuse to query it
// with a different embedding function.
type Manifest struct {
	Provider   string    `yaml:"provider"`
	Model      string    `yaml:"model"`
	Dimensions int       `yaml:"dimensions"`
	Collection string    `yaml:"collection"`
	Documents  int       `yaml:"documents"`
	BuiltAt    time.Time `yaml:"built_at"`
}

// ReadManifest returns an error wrapping os.ErrNotExist when the index has no
// manifest.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	return &m, nil
}

func WriteManifest(dir string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFile), data, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// Check compares the manifest with the embedding function and collection the
// server is configured for.
func (m *Manifest) Check(spec embedding.Spec, collection string) error {
	if m.Provider != spec.Provider || m.Model != spec.Model {
		return fmt.Errorf("index built with %s/%s, configured %s: %w",
			m.Provider, m.Model, spec, ErrEmbeddingMismatch)
	}
	if m.Collection != "" && m.Collection != collection {
		return fmt.Errorf("index built into collection %q, configured %q: %w",
			m.Collection, collection, ErrCollectionMissing)
	}
	return nil
}
