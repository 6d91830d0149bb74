package chatbot

import (
	"errors"
	"fmt"

	"github.com/liao/lyric-bot/internal/credential"
	"github.com/liao/lyric-bot/internal/rag"
)

// ErrNoCredential is returned for queries that arrive before a credential has
// been configured.
var ErrNoCredential = errors.New("no API key configured")

// Kind is the closed set of ways a query can fail to produce an answer.
type Kind int

const (
	// KindConfigMissing covers a missing credential, index or embedding match.
	KindConfigMissing Kind = iota + 1
	// KindRemoteCall covers embedding, search and generation failures.
	KindRemoteCall
	// KindNoAnswer means the model said the context did not contain the answer.
	KindNoAnswer
)

func (k Kind) String() string {
	switch k {
	case KindConfigMissing:
		return "config_missing"
	case KindRemoteCall:
		return "remote_call"
	case KindNoAnswer:
		return "no_answer"
	default:
		return "unknown"
	}
}

type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf classifies err. A *Error keeps its kind; known configuration
// sentinels map to KindConfigMissing; everything else is a remote failure.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrNoCredential),
		errors.Is(err, credential.ErrNotFound),
		errors.Is(err, rag.ErrIndexMissing),
		errors.Is(err, rag.ErrCollectionMissing),
		errors.Is(err, rag.ErrEmptyIndex),
		errors.Is(err, rag.ErrEmbeddingMismatch):
		return KindConfigMissing
	default:
		return KindRemoteCall
	}
}
