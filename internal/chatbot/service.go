// Package chatbot owns the per-process state: the resolved credential and the
// memoized pipeline. Front ends call Configure once a key is known and Handle
// for every submitted query.
package chatbot

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/liao/lyric-bot/internal/credential"
	"github.com/liao/lyric-bot/internal/metrics"
	"github.com/liao/lyric-bot/internal/notice"
	"github.com/liao/lyric-bot/internal/rag"
)

// NoAnswerSentinel is matched by substring against every answer.
const NoAnswerSentinel = rag.NoAnswerSentinel

// CredentialNoticeKey is the side-panel key for the missing-key warning.
const CredentialNoticeKey = "credential"

type State int

const (
	StateUnconfigured State = iota
	StatePipelineUnbuilt
	StatePipelineReady
)

func (s State) String() string {
	switch s {
	case StateUnconfigured:
		return "unconfigured"
	case StatePipelineUnbuilt:
		return "pipeline_unbuilt"
	case StatePipelineReady:
		return "pipeline_ready"
	default:
		return "unknown"
	}
}

// Invoker answers one question. *rag.Pipeline satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, question string) (string, error)
}

// BuildFunc assembles a pipeline for a credential.
type BuildFunc func(ctx context.Context, credential string) (Invoker, error)

// RAGBuilder adapts rag.Assemble to a BuildFunc.
func RAGBuilder(opts rag.Options) BuildFunc {
	return func(ctx context.Context, credential string) (Invoker, error) {
		p, err := rag.Assemble(ctx, opts, credential)
		if err != nil {
			return nil, err
		}
		return p, nil
	}
}

type Service struct {
	build   BuildFunc
	notices *notice.Board

	mu         sync.RWMutex
	credential string
	pipeline   Invoker

	// buildMu serializes assembly so concurrent first queries build once.
	buildMu sync.Mutex
}

func NewService(build BuildFunc, notices *notice.Board) *Service {
	s := &Service{build: build, notices: notices}
	notices.Set(CredentialNoticeKey, notice.LevelWarning, "Please enter your Google API key to continue.")
	return s
}

// Configure stores the credential. Only the first non-blank credential is
// kept; the pipeline is not built until the first query.
func (s *Service) Configure(raw string) error {
	key, err := credential.Normalize(raw)
	if err != nil {
		return &Error{Kind: KindConfigMissing, Err: ErrNoCredential}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.credential != "" {
		slog.Debug("credential already configured, ignoring")
		return nil
	}
	s.credential = key
	s.notices.Clear(CredentialNoticeKey)
	slog.Info("credential configured")
	return nil
}

func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case s.credential == "":
		return StateUnconfigured
	case s.pipeline == nil:
		return StatePipelineUnbuilt
	default:
		return StatePipelineReady
	}
}

// Handle runs one query to completion. Blank queries are idle and touch
// nothing. Every other query makes exactly one pipeline call, building the
// pipeline first if this is the first query.
func (s *Service) Handle(ctx context.Context, query string) Outcome {
	if strings.TrimSpace(query) == "" {
		return Outcome{Status: StatusIdle}
	}

	out := s.handle(ctx, query)
	metrics.QueriesTotal.WithLabelValues(out.Status.String()).Inc()
	return out
}

func (s *Service) handle(ctx context.Context, query string) Outcome {
	slog.Info("received query", "query", query)

	p, err := s.pipelineFor(ctx)
	if err != nil {
		slog.Error("pipeline unavailable", "error", err)
		return failed(query, KindConfigMissing, err)
	}

	answer, err := p.Invoke(ctx, query)
	if err != nil {
		slog.Error("query failed", "query", query, "error", err)
		return failed(query, KindRemoteCall, err)
	}

	if IsNoAnswer(answer) {
		slog.Info("no answer in context", "query", query)
		return Outcome{Status: StatusNoAnswer, Query: query, Answer: answer}
	}
	return Outcome{Status: StatusAnswered, Query: query, Answer: answer}
}

// pipelineFor returns the memoized pipeline, building it on first use. A
// failed build is not memoized.
func (s *Service) pipelineFor(ctx context.Context) (Invoker, error) {
	s.mu.RLock()
	cred, p := s.credential, s.pipeline
	s.mu.RUnlock()
	if cred == "" {
		return nil, ErrNoCredential
	}
	if p != nil {
		return p, nil
	}

	s.buildMu.Lock()
	defer s.buildMu.Unlock()

	s.mu.RLock()
	p = s.pipeline
	s.mu.RUnlock()
	if p != nil {
		return p, nil
	}

	p, err := s.build(ctx, cred)
	if err != nil {
		metrics.PipelineBuildsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PipelineBuildsTotal.WithLabelValues("success").Inc()

	s.mu.Lock()
	s.pipeline = p
	s.mu.Unlock()
	return p, nil
}

func failed(query string, kind Kind, err error) Outcome {
	return Outcome{Status: StatusFailed, Query: query, Err: &Error{Kind: kind, Err: err}}
}
