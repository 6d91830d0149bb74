package chatbot

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/philippgille/chromem-go"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/liao/lyric-bot/internal/ai"
	"github.com/liao/lyric-bot/internal/embedding"
	"github.com/liao/lyric-bot/internal/metrics"
	"github.com/liao/lyric-bot/internal/notice"
	"github.com/liao/lyric-bot/internal/rag"
	"github.com/liao/lyric-bot/internal/rag/ragtest"
)

type fakePipeline struct {
	mu     sync.Mutex
	calls  int
	answer string
	err    error
}

func (p *fakePipeline) Invoke(context.Context, string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	return p.answer, p.err
}

type fakeBuilder struct {
	mu       sync.Mutex
	builds   int
	creds    []string
	pipeline *fakePipeline
	err      error
}

func (b *fakeBuilder) build(_ context.Context, cred string) (Invoker, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.builds++
	b.creds = append(b.creds, cred)
	if b.err != nil {
		return nil, b.err
	}
	return b.pipeline, nil
}

func newTestService(answer string) (*Service, *fakeBuilder) {
	b := &fakeBuilder{pipeline: &fakePipeline{answer: answer}}
	return NewService(b.build, notice.NewBoard(10)), b
}

func TestHandle_BlankQueryIsIdle(t *testing.T) {
	s, b := newTestService("x")
	if err := s.Configure("key"); err != nil {
		t.Fatal(err)
	}

	for _, q := range []string{"", "   ", "\t\n"} {
		out := s.Handle(context.Background(), q)
		if out.Status != StatusIdle {
			t.Errorf("Handle(%q).Status = %v, want idle", q, out.Status)
		}
		if out.Message() != "" {
			t.Errorf("idle outcome should render nothing, got %q", out.Message())
		}
	}
	if b.builds != 0 || b.pipeline.calls != 0 {
		t.Errorf("blank queries touched the pipeline: builds=%d calls=%d", b.builds, b.pipeline.calls)
	}
}

func TestHandle_BlankQueryUnconfiguredIsIdle(t *testing.T) {
	s, _ := newTestService("x")
	if out := s.Handle(context.Background(), " "); out.Status != StatusIdle {
		t.Fatalf("Status = %v, want idle", out.Status)
	}
}

func TestHandle_Answered(t *testing.T) {
	s, b := newTestService("The Beatles - Yellow Submarine")
	if err := s.Configure("  key  "); err != nil {
		t.Fatal(err)
	}
	before := testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("answered"))

	out := s.Handle(context.Background(), "yellow submarine")
	if out.Status != StatusAnswered {
		t.Fatalf("Status = %v, want answered (err %v)", out.Status, out.Err)
	}
	if out.Answer != "The Beatles - Yellow Submarine" {
		t.Errorf("Answer = %q, want verbatim", out.Answer)
	}
	if out.Message() != SuccessNotice {
		t.Errorf("Message() = %q", out.Message())
	}
	if b.pipeline.calls != 1 {
		t.Errorf("invocations = %d, want 1", b.pipeline.calls)
	}
	if len(b.creds) != 1 || b.creds[0] != "key" {
		t.Errorf("builder got credentials %q, want trimmed key", b.creds)
	}
	if got := testutil.ToFloat64(metrics.QueriesTotal.WithLabelValues("answered")); got != before+1 {
		t.Errorf("queries_total{answered} = %v, want %v", got, before+1)
	}
}

func TestHandle_SentinelIsNoAnswer(t *testing.T) {
	tests := []string{
		NoAnswerSentinel,
		NoAnswerSentinel + ".",
		"Well... " + NoAnswerSentinel + ", sorry.",
	}
	for _, answer := range tests {
		s, _ := newTestService(answer)
		_ = s.Configure("key")

		out := s.Handle(context.Background(), "la la la")
		if out.Status != StatusNoAnswer {
			t.Errorf("answer %q: Status = %v, want no_answer", answer, out.Status)
		}
		if out.Message() != FailureNotice {
			t.Errorf("Message() = %q", out.Message())
		}
		if out.Kind() != KindNoAnswer {
			t.Errorf("Kind() = %v", out.Kind())
		}
	}
}

func TestHandle_NoCredentialStopsBeforeAssembly(t *testing.T) {
	s, b := newTestService("x")

	out := s.Handle(context.Background(), "yellow submarine")
	if out.Status != StatusFailed || out.Kind() != KindConfigMissing {
		t.Fatalf("outcome = %+v, want failed config_missing", out)
	}
	if !errors.Is(out.Err, ErrNoCredential) {
		t.Errorf("err = %v", out.Err)
	}
	if b.builds != 0 {
		t.Errorf("builds = %d, want 0", b.builds)
	}
	if s.State() != StateUnconfigured {
		t.Errorf("State() = %v", s.State())
	}
}

func TestConfigure_BlankRejected(t *testing.T) {
	s, _ := newTestService("x")
	err := s.Configure("   ")
	if KindOf(err) != KindConfigMissing {
		t.Fatalf("Configure blank: %v", err)
	}
	if s.State() != StateUnconfigured {
		t.Errorf("State() = %v", s.State())
	}
}

func TestConfigure_ClearsWarningAndKeepsFirstKey(t *testing.T) {
	board := notice.NewBoard(10)
	b := &fakeBuilder{pipeline: &fakePipeline{answer: "a"}}
	s := NewService(b.build, board)

	if ns := board.List(); len(ns) != 1 || ns[0].Key != CredentialNoticeKey {
		t.Fatalf("expected credential warning, got %+v", ns)
	}
	_ = s.Configure("first")
	_ = s.Configure("second")
	if len(board.List()) != 0 {
		t.Errorf("warning not cleared: %+v", board.List())
	}

	s.Handle(context.Background(), "q")
	if b.creds[0] != "first" {
		t.Errorf("credential = %q, want first", b.creds[0])
	}
}

func TestHandle_MemoizesPipeline(t *testing.T) {
	s, b := newTestService("answer")
	_ = s.Configure("key")
	if s.State() != StatePipelineUnbuilt {
		t.Fatalf("State() = %v", s.State())
	}

	s.Handle(context.Background(), "same query")
	s.Handle(context.Background(), "same query")

	if b.builds != 1 {
		t.Errorf("builds = %d, want 1", b.builds)
	}
	if b.pipeline.calls != 2 {
		t.Errorf("invocations = %d, want 2 (no answer cache)", b.pipeline.calls)
	}
	if s.State() != StatePipelineReady {
		t.Errorf("State() = %v", s.State())
	}
}

func TestHandle_ConcurrentFirstQueriesBuildOnce(t *testing.T) {
	s, b := newTestService("answer")
	_ = s.Configure("key")

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.Handle(context.Background(), fmt.Sprintf("q%d", i))
		}(i)
	}
	wg.Wait()

	if b.builds != 1 {
		t.Errorf("builds = %d, want 1", b.builds)
	}
	if b.pipeline.calls != 8 {
		t.Errorf("invocations = %d, want 8", b.pipeline.calls)
	}
}

func TestHandle_FailedBuildIsRetried(t *testing.T) {
	s, b := newTestService("answer")
	_ = s.Configure("key")
	b.err = fmt.Errorf("open index: %w", rag.ErrIndexMissing)

	out := s.Handle(context.Background(), "q")
	if out.Status != StatusFailed || out.Kind() != KindConfigMissing {
		t.Fatalf("outcome = %+v", out)
	}
	if s.State() != StatePipelineUnbuilt {
		t.Errorf("State() = %v after failed build", s.State())
	}

	b.err = nil
	if out := s.Handle(context.Background(), "q"); out.Status != StatusAnswered {
		t.Fatalf("retry outcome = %+v", out)
	}
	if b.builds != 2 {
		t.Errorf("builds = %d, want 2", b.builds)
	}
}

func TestHandle_RemoteFailure(t *testing.T) {
	s, b := newTestService("")
	_ = s.Configure("key")
	b.pipeline.err = errors.New("503 service unavailable")

	out := s.Handle(context.Background(), "q")
	if out.Status != StatusFailed || out.Kind() != KindRemoteCall {
		t.Fatalf("outcome = %+v", out)
	}
	if out.Message() != ErrorMessage+": 503 service unavailable" {
		t.Errorf("Message() = %q", out.Message())
	}
	if b.pipeline.calls != 1 {
		t.Errorf("invocations = %d, want 1 (no retry)", b.pipeline.calls)
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{ErrNoCredential, KindConfigMissing},
		{fmt.Errorf("x: %w", rag.ErrIndexMissing), KindConfigMissing},
		{fmt.Errorf("x: %w", rag.ErrEmbeddingMismatch), KindConfigMissing},
		{fmt.Errorf("x: %w", rag.ErrCollectionMissing), KindConfigMissing},
		{&Error{Kind: KindNoAnswer}, KindNoAnswer},
		{fmt.Errorf("wrapped: %w", &Error{Kind: KindRemoteCall, Err: errors.New("x")}), KindRemoteCall},
		{errors.New("connection reset"), KindRemoteCall},
	}
	for _, tc := range tests {
		if got := KindOf(tc.err); got != tc.want {
			t.Errorf("KindOf(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}

type recordingGenerator struct {
	calls int
}

func (g *recordingGenerator) Generate(context.Context, string) (string, error) {
	g.calls++
	return "Queen - Bohemian Rhapsody", nil
}

func TestService_WithRealIndex(t *testing.T) {
	dir := t.TempDir()
	ragtest.BuildIndex(t, dir, "lyrics", ragtest.Songs)
	emb := &ragtest.CountingEmbed{}
	gen := &recordingGenerator{}

	s := NewService(RAGBuilder(rag.Options{
		IndexDir:   dir,
		Collection: "lyrics",
		Embedding:  embedding.Spec{Provider: "ollama", Model: "all-minilm"},
		NewEmbedder: func(context.Context, embedding.Spec, string) (chromem.EmbeddingFunc, error) {
			return emb.Embed, nil
		},
		NewGenerator: func(context.Context, ai.Options) (rag.Generator, error) {
			return gen, nil
		},
	}), nil)
	_ = s.Configure("key")

	out := s.Handle(context.Background(), "caught in a landslide")
	if out.Status != StatusAnswered {
		t.Fatalf("outcome = %+v", out)
	}
	if gen.calls != 1 || emb.Calls != 1 {
		t.Errorf("generate=%d embed=%d, want one each", gen.calls, emb.Calls)
	}
}

func TestService_MissingIndexIsConfigMissing(t *testing.T) {
	s := NewService(RAGBuilder(rag.Options{
		IndexDir:   filepath.Join(t.TempDir(), "chroma_db"),
		Collection: "lyrics",
		Embedding:  embedding.Spec{Provider: "ollama", Model: "all-minilm"},
		NewEmbedder: func(context.Context, embedding.Spec, string) (chromem.EmbeddingFunc, error) {
			return ragtest.Embed, nil
		},
	}), nil)
	_ = s.Configure("key")

	out := s.Handle(context.Background(), "anything")
	if out.Kind() != KindConfigMissing {
		t.Fatalf("Kind() = %v, want config_missing", out.Kind())
	}
	if !errors.Is(out.Err, rag.ErrIndexMissing) {
		t.Errorf("err = %v", out.Err)
	}
}
