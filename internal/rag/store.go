package rag

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/philippgille/chromem-go"
)

var (
	ErrIndexMissing      = errors.New("index directory not found")
	ErrCollectionMissing = errors.New("index collection not found")
	ErrEmptyIndex        = errors.New("index has no documents")
)

type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
	dir        string
}

// OpenStore loads an existing index. The directory is never created: a missing
// directory or collection is a provisioning problem, not something to repair
// at serve time.
func OpenStore(dir, collection string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("open index %s: %w", dir, ErrIndexMissing)
		}
		return nil, fmt.Errorf("open index %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open index %s: not a directory: %w", dir, ErrIndexMissing)
	}

	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	col := db.GetCollection(collection, embedFunc)
	if col == nil {
		return nil, fmt.Errorf("open collection %q: %w", collection, ErrCollectionMissing)
	}
	if col.Count() == 0 {
		return nil, fmt.Errorf("open collection %q: %w", collection, ErrEmptyIndex)
	}

	slog.Info("vector store loaded", "dir", dir, "collection", collection, "count", col.Count())
	return &Store{db: db, collection: col, dir: dir}, nil
}

// CreateStore 创建或加载可写的向量存储，供离线索引使用
func CreateStore(dir, collection string, embedFunc chromem.EmbeddingFunc) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}
	db, err := chromem.NewPersistentDB(dir, false)
	if err != nil {
		return nil, fmt.Errorf("open vector db: %w", err)
	}
	col, err := db.GetOrCreateCollection(collection, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("get/create collection: %w", err)
	}
	slog.Info("vector store opened for writing", "dir", dir, "collection", collection, "count", col.Count())
	return &Store{db: db, collection: col, dir: dir}, nil
}

// Query returns up to topK nearest documents, best first.
func (s *Store) Query(ctx context.Context, text string, topK int) ([]Document, error) {
	n := s.collection.Count()
	if n == 0 || topK <= 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	res, err := s.collection.Query(ctx, text, topK, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}

	docs := make([]Document, 0, len(res))
	for _, r := range res {
		docs = append(docs, Document{
			ID:         r.ID,
			Content:    r.Content,
			Metadata:   r.Metadata,
			Similarity: r.Similarity,
		})
	}
	return docs, nil
}

// AddDocuments 批量写入文档
func (s *Store) AddDocuments(ctx context.Context, docs []chromem.Document) error {
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	return nil
}

func (s *Store) Count() int { return s.collection.Count() }

func (s *Store) Dir() string { return s.dir }

// Document is one song as stored in the index.
type Document struct {
	ID         string
	Content    string
	Metadata   map[string]string
	Similarity float32
}
