package rag

import (
	"context"
	"log/slog"
)

// Retriever returns the single best-matching document for a query, or nil when
// the index yields nothing.
type Retriever interface {
	Retrieve(ctx context.Context, query string) (*Document, error)
}

// TopOne is a Retriever with the fan-out fixed at one document.
type TopOne struct {
	store *Store
}

func NewTopOne(store *Store) *TopOne {
	return &TopOne{store: store}
}

func (r *TopOne) Retrieve(ctx context.Context, query string) (*Document, error) {
	docs, err := r.store.Query(ctx, query, 1)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		slog.Debug("no document retrieved", "query", query)
		return nil, nil
	}
	d := docs[0]
	slog.Debug("retrieved document", "id", d.ID, "track", d.Metadata["track"], "similarity", d.Similarity)
	return &d, nil
}
