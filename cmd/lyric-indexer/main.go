package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/liao/lyric-bot/internal/config"
	"github.com/liao/lyric-bot/internal/credential"
	"github.com/liao/lyric-bot/internal/embedding"
	"github.com/liao/lyric-bot/internal/importer"
	"github.com/liao/lyric-bot/internal/rag"
)

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "configs/config.yaml", "config file path (index and embedding defaults)")
	inputFile := flag.String("input", "", "lyrics dataset (.csv, .jsonl, .html, optionally .enc)")
	format := flag.String("format", "auto", "input format: csv, jsonl, html, auto")
	decryptKey := flag.String("decrypt-key", "", "decryption password for .enc files (from env DECRYPT_KEY if not set)")
	indexDir := flag.String("index-dir", "", "index directory (default from config)")
	collection := flag.String("collection", "", "collection name (default from config)")
	provider := flag.String("provider", "", "embedding provider: gemini, ollama, openai (default from config)")
	model := flag.String("model", "", "embedding model (default from config)")
	apiKey := flag.String("api-key", "", "Gemini API key for the gemini provider (or GOOGLE_API_KEY / GEMINI_API_KEY env)")
	batch := flag.Int("batch", 20, "documents per batch")
	pause := flag.Duration("pause", 500*time.Millisecond, "pause between batches")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Log.SlogLevel()})))

	if *inputFile == "" {
		fmt.Fprintf(os.Stderr, "Usage: lyric-indexer -input <file> [-index-dir <dir>] [-provider <name> -model <name>] [-decrypt-key <key>]\n")
		os.Exit(1)
	}

	override(&cfg.Index.Dir, *indexDir)
	override(&cfg.Index.Collection, *collection)
	override(&cfg.Embedding.Provider, *provider)
	override(&cfg.Embedding.Model, *model)

	dk := *decryptKey
	if dk == "" {
		dk = os.Getenv("DECRYPT_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1. 解析歌词数据
	tracks, err := importer.Load(*inputFile, *format, dk)
	if err != nil {
		slog.Error("load dataset failed", "error", err)
		os.Exit(1)
	}
	if len(tracks) == 0 {
		slog.Error("dataset has no tracks with lyrics", "file", *inputFile)
		os.Exit(1)
	}

	// 2. 嵌入函数，离线索引允许重试
	spec := embedding.Spec{
		Provider: cfg.Embedding.Provider,
		Model:    cfg.Embedding.Model,
		BaseURL:  cfg.Embedding.BaseURL,
		APIKey:   cfg.Embedding.APIKey,
	}
	key := *apiKey
	if key == "" && spec.Provider == "gemini" {
		key, err = credential.NewResolver(cfg.Credential.SecretKey,
			credential.Stores(false, cfg.Credential.SecretsFile)...).Resolve(ctx)
		if err != nil {
			slog.Error("Gemini API key required (-api-key or GOOGLE_API_KEY env)", "error", err)
			os.Exit(1)
		}
	}
	embedFunc, err := embedding.New(ctx, spec, key, 5, cfg.Gemini.RPMLimit)
	if err != nil {
		slog.Error("create embedder failed", "error", err)
		os.Exit(1)
	}

	// 3. 向量化
	store, err := rag.CreateStore(cfg.Index.Dir, cfg.Index.Collection, embedFunc)
	if err != nil {
		slog.Error("open index failed", "error", err)
		os.Exit(1)
	}
	if _, err := importer.Index(ctx, store, tracks, importer.IndexOptions{BatchSize: *batch, Pause: *pause}); err != nil {
		slog.Error("vectorize failed, rerun to resume from checkpoint", "error", err)
		os.Exit(1)
	}

	dims := 0
	if v, err := embedFunc(ctx, tracks[0].Lyrics); err == nil {
		dims = len(v)
	}

	// 4. 写入 manifest
	m := &rag.Manifest{
		Provider:   spec.Provider,
		Model:      spec.Model,
		Dimensions: dims,
		Collection: cfg.Index.Collection,
		Documents:  store.Count(),
		BuiltAt:    time.Now().UTC(),
	}
	if err := rag.WriteManifest(cfg.Index.Dir, m); err != nil {
		slog.Error("write manifest failed", "error", err)
		os.Exit(1)
	}
	slog.Info("index ready", "dir", cfg.Index.Dir, "documents", m.Documents, "embedding", spec.String())
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
