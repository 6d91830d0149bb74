package commands

import (
	"context"
	"log/slog"

	"github.com/liao/lyric-bot/internal/chatbot"
	"github.com/liao/lyric-bot/internal/config"
	"github.com/liao/lyric-bot/internal/credential"
	"github.com/liao/lyric-bot/internal/embedding"
	"github.com/liao/lyric-bot/internal/notice"
	"github.com/liao/lyric-bot/internal/rag"
)

// newService is swapped out in tests.
var newService = buildService

// buildService creates the chat service and configures it from the managed
// secret stores when they hold a credential. Otherwise the service starts
// unconfigured and the front end collects the key.
func buildService(ctx context.Context, cfg *config.Config, board *notice.Board) *chatbot.Service {
	svc := chatbot.NewService(chatbot.RAGBuilder(ragOptions(cfg, board)), board)

	resolver := credential.NewResolver(cfg.Credential.SecretKey,
		credential.Stores(cfg.Credential.Managed, cfg.Credential.SecretsFile)...)
	key, err := resolver.Resolve(ctx)
	if err != nil {
		slog.Info("no stored credential, waiting for input", "error", err)
		return svc
	}
	if err := svc.Configure(key); err != nil {
		slog.Warn("stored credential rejected", "error", err)
	}
	return svc
}

func ragOptions(cfg *config.Config, board *notice.Board) rag.Options {
	return rag.Options{
		IndexDir:   cfg.Index.Dir,
		Collection: cfg.Index.Collection,
		Embedding: embedding.Spec{
			Provider: cfg.Embedding.Provider,
			Model:    cfg.Embedding.Model,
			BaseURL:  cfg.Embedding.BaseURL,
			APIKey:   cfg.Embedding.APIKey,
		},
		ChatModel:   cfg.Gemini.ChatModel,
		Temperature: cfg.Gemini.Temperature,
		RPMLimit:    cfg.Gemini.RPMLimit,
		Notices:     board,
	}
}
