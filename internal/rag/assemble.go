package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/philippgille/chromem-go"

	"github.com/liao/lyric-bot/internal/ai"
	"github.com/liao/lyric-bot/internal/embedding"
	"github.com/liao/lyric-bot/internal/notice"
)

// NoticeKey is the side-panel key assembly progress is posted under.
const NoticeKey = "pipeline"

type Options struct {
	IndexDir    string
	Collection  string
	Embedding   embedding.Spec
	ChatModel   string
	Temperature float32
	RPMLimit    int

	Notices *notice.Board

	// NewEmbedder and NewGenerator default to the remote implementations.
	NewEmbedder  func(ctx context.Context, spec embedding.Spec, credential string) (chromem.EmbeddingFunc, error)
	NewGenerator func(ctx context.Context, opts ai.Options) (Generator, error)
}

func defaultEmbedder(ctx context.Context, spec embedding.Spec, credential string) (chromem.EmbeddingFunc, error) {
	// 服务路径不重试
	return embedding.New(ctx, spec, credential, 1, 0)
}

func defaultGenerator(ctx context.Context, opts ai.Options) (Generator, error) {
	c, err := ai.NewClient(ctx, opts)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Assemble builds the retrieve-then-generate pipeline over the on-disk index
// using credential for every remote collaborator. Nothing is cached here; the
// caller owns memoization.
func Assemble(ctx context.Context, opts Options, credential string) (*Pipeline, error) {
	if opts.NewEmbedder == nil {
		opts.NewEmbedder = defaultEmbedder
	}
	if opts.NewGenerator == nil {
		opts.NewGenerator = defaultGenerator
	}

	opts.Notices.Set(NoticeKey, notice.LevelInfo, "Loading RAG pipeline and model...")

	p, err := assemble(ctx, opts, credential)
	if err != nil {
		opts.Notices.Set(NoticeKey, notice.LevelError, "Pipeline could not be loaded.")
		return nil, err
	}

	opts.Notices.Set(NoticeKey, notice.LevelSuccess, "RAG pipeline and model loaded!")
	return p, nil
}

func assemble(ctx context.Context, opts Options, credential string) (*Pipeline, error) {
	if _, err := os.Stat(opts.IndexDir); errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("open index %s: %w", opts.IndexDir, ErrIndexMissing)
	}
	if err := checkManifest(opts); err != nil {
		return nil, err
	}

	embedFunc, err := opts.NewEmbedder(ctx, opts.Embedding, credential)
	if err != nil {
		return nil, fmt.Errorf("build embedder: %w", err)
	}

	store, err := OpenStore(opts.IndexDir, opts.Collection, embedFunc)
	if err != nil {
		return nil, err
	}

	gen, err := opts.NewGenerator(ctx, ai.Options{
		APIKey:      credential,
		ChatModel:   opts.ChatModel,
		Temperature: opts.Temperature,
		RPMLimit:    opts.RPMLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	slog.Info("pipeline assembled",
		"index", opts.IndexDir,
		"documents", store.Count(),
		"embedding", opts.Embedding.String(),
		"model", opts.ChatModel,
	)
	return NewPipeline(NewTopOne(store), NewPrompt(), gen), nil
}

func checkManifest(opts Options) error {
	m, err := ReadManifest(opts.IndexDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			slog.Warn("index has no manifest, embedding match not verified", "dir", opts.IndexDir)
			return nil
		}
		return err
	}
	return m.Check(opts.Embedding, opts.Collection)
}
