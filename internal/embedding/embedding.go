// Package embedding builds the chromem-go embedding function that matches the
// one used when the lyrics index was built. A mismatch is not detectable from
// the vectors alone; the index manifest carries the provider and model so the
// assembler can refuse to serve with the wrong one.
package embedding

import (
	"context"
	"fmt"

	"github.com/philippgille/chromem-go"

	"github.com/liao/lyric-bot/internal/ai"
)

// Spec identifies an embedding function.
type Spec struct {
	Provider string
	Model    string
	BaseURL  string
	// APIKey is used by the openai provider.
	APIKey string
}

func (s Spec) String() string { return s.Provider + "/" + s.Model }

// New returns the embedding function for spec. geminiKey is the resolved
// Gemini credential; attempts is the per-call retry budget for remote providers
// that support it.
func New(ctx context.Context, spec Spec, geminiKey string, attempts, rpmLimit int) (chromem.EmbeddingFunc, error) {
	switch spec.Provider {
	case "gemini":
		c, err := ai.NewClient(ctx, ai.Options{
			APIKey:        geminiKey,
			EmbedModel:    spec.Model,
			EmbedAttempts: attempts,
			RPMLimit:      rpmLimit,
		})
		if err != nil {
			return nil, fmt.Errorf("gemini embedder: %w", err)
		}
		return chromem.EmbeddingFunc(c.EmbedFunc()), nil
	case "ollama":
		// all-minilm is sentence-transformers/all-MiniLM-L6-v2 served by Ollama
		return chromem.NewEmbeddingFuncOllama(spec.Model, spec.BaseURL), nil
	case "openai":
		e, err := NewOpenAI(OpenAIConfig{
			APIKey:  spec.APIKey,
			BaseURL: spec.BaseURL,
			Model:   spec.Model,
		})
		if err != nil {
			return nil, err
		}
		return e.Embed, nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", spec.Provider)
	}
}
