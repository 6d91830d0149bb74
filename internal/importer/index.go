package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/philippgille/chromem-go"
)

// ProgressFile is the checkpoint written into the index directory between
// batches and removed when indexing completes.
const ProgressFile = ".progress"

// Writer is the write side of the index. *rag.Store satisfies it.
type Writer interface {
	AddDocuments(ctx context.Context, docs []chromem.Document) error
	Count() int
	Dir() string
}

type IndexOptions struct {
	BatchSize int
	// Pause between batches, to stay under remote embedding quotas.
	Pause time.Duration
}

// Index writes tracks into w in batches, resuming from the checkpoint if one is
// present. It returns the number of documents added in this run.
func Index(ctx context.Context, w Writer, tracks []Track, opts IndexOptions) (int, error) {
	if opts.BatchSize <= 0 {
		opts.BatchSize = 20
	}

	// 断点续传：读取进度文件，跳过已完成的
	progressPath := filepath.Join(w.Dir(), ProgressFile)
	startFrom, err := readProgress(progressPath)
	if err != nil {
		return 0, err
	}
	if startFrom > 0 {
		slog.Info("resuming from checkpoint", "start", startFrom)
	}

	added := 0
	docs := make([]chromem.Document, 0, opts.BatchSize)
	flush := func(next int) error {
		if len(docs) == 0 {
			return nil
		}
		slog.Info("vectorizing", "progress", fmt.Sprintf("%d/%d", next, len(tracks)))
		if err := w.AddDocuments(ctx, docs); err != nil {
			return fmt.Errorf("add documents batch ending at %d: %w", next, err)
		}
		added += len(docs)
		docs = docs[:0]
		if err := os.WriteFile(progressPath, []byte(strconv.Itoa(next)), 0o644); err != nil {
			return fmt.Errorf("write checkpoint: %w", err)
		}
		return nil
	}

	for i := startFrom; i < len(tracks); i++ {
		docs = append(docs, tracks[i].Document(i))
		if len(docs) < opts.BatchSize {
			continue
		}
		if err := flush(i + 1); err != nil {
			return added, err
		}
		if opts.Pause > 0 && i+1 < len(tracks) {
			select {
			case <-ctx.Done():
				return added, ctx.Err()
			case <-time.After(opts.Pause):
			}
		}
	}
	if err := flush(len(tracks)); err != nil {
		return added, err
	}

	// 完成后删除进度文件
	if err := os.Remove(progressPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		slog.Warn("remove checkpoint failed", "error", err)
	}
	slog.Info("vectorization complete", "added", added, "total_vectors", w.Count())
	return added, nil
}

func readProgress(path string) (int, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read checkpoint: %w", err)
	}
	n, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, fmt.Errorf("parse checkpoint %q: %w", data, err)
	}
	return n, nil
}
