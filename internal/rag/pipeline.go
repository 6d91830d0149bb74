package rag

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/liao/lyric-bot/internal/metrics"
)

// Generator produces text for a rendered prompt. *ai.Client satisfies it.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Pipeline is retrieve, render, generate. It holds no per-query state and is
// safe to share once built.
type Pipeline struct {
	retriever Retriever
	prompt    *Prompt
	generator Generator
}

func NewPipeline(retriever Retriever, prompt *Prompt, generator Generator) *Pipeline {
	return &Pipeline{
		retriever: retriever,
		prompt:    prompt,
		generator: generator,
	}
}

// Invoke runs one retrieval and one generation call and returns the model's
// text unchanged.
func (p *Pipeline) Invoke(ctx context.Context, question string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.GenerationDuration.Observe(time.Since(start).Seconds())
	}()

	doc, err := p.retriever.Retrieve(ctx, question)
	if err != nil {
		return "", fmt.Errorf("retrieve context: %w", err)
	}
	prompt, err := p.prompt.Render(doc, question)
	if err != nil {
		return "", err
	}
	answer, err := p.generator.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("generate answer: %w", err)
	}

	slog.Debug("pipeline invoked", "question", question, "answer_chars", len(answer), "duration", time.Since(start))
	return answer, nil
}
