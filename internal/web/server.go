// Package web serves the single-page chat front end and a small JSON API.
package web

import (
	"context"
	"embed"
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/liao/lyric-bot/internal/chatbot"
	"github.com/liao/lyric-bot/internal/metrics"
	"github.com/liao/lyric-bot/internal/notice"
)

//go:embed templates/*.html
var templateFS embed.FS

// ChatService is the subset of chatbot.Service the handlers need.
type ChatService interface {
	State() chatbot.State
	Configure(credential string) error
	Handle(ctx context.Context, query string) chatbot.Outcome
}

type Server struct {
	svc     ChatService
	notices *notice.Board
	page    *template.Template
}

func NewServer(svc ChatService, notices *notice.Board) *Server {
	page := template.Must(template.ParseFS(templateFS, "templates/index.html"))
	return &Server{svc: svc, notices: notices, page: page}
}

// Routes returns the router with middleware applied.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	r.Use(requestLogger)
	r.Use(metrics.Middleware())

	r.Get("/", s.handleIndex)
	r.Post("/credential", s.handleCredential)
	r.Post("/api/ask", s.handleAsk)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", chiMiddleware.GetReqID(r.Context()),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
