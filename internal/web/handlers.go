package web

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/liao/lyric-bot/internal/chatbot"
	"github.com/liao/lyric-bot/internal/notice"
)

type pageData struct {
	Title           string
	Caption         string
	NeedsCredential bool
	Notices         []notice.Notice
	Query           string
	Outcome         *chatbot.Outcome
	AnswerLabel     string
	ErrorHint       string
}

// handleIndex renders the page. A non-blank q is handled synchronously before
// rendering; nothing is handled while no credential is configured.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := pageData{
		Title:       "🎵 Lyric Finder Chatbot 🎵",
		Caption:     "Hello, how can I help?",
		AnswerLabel: chatbot.AnswerLabel,
		ErrorHint:   chatbot.ErrorHint,
	}

	if s.svc.State() == chatbot.StateUnconfigured {
		data.NeedsCredential = true
	} else {
		data.Query = r.URL.Query().Get("q")
		if out := s.svc.Handle(r.Context(), data.Query); out.Status != chatbot.StatusIdle {
			data.Outcome = &out
		}
	}
	// 先处理查询再读通知，保证本次装配的进度可见
	data.Notices = s.notices.List()

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.page.Execute(w, data); err != nil {
		slog.Error("render page failed", "error", err)
	}
}

func (s *Server) handleCredential(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if err := s.svc.Configure(r.PostForm.Get("api_key")); err != nil {
		slog.Warn("credential rejected", "error", err)
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

type askRequest struct {
	Query string `json:"query"`
}

type askResponse struct {
	Status    string `json:"status"`
	Answer    string `json:"answer,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Message   string `json:"message,omitempty"`
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, askResponse{Status: "failed", Message: "invalid request body"})
		return
	}

	out := s.svc.Handle(r.Context(), req.Query)
	resp := askResponse{
		Status:  out.Status.String(),
		Answer:  out.Answer,
		Message: out.Message(),
	}
	if k := out.Kind(); k != 0 {
		resp.ErrorKind = k.String()
	}

	status := http.StatusOK
	switch {
	case out.Status == chatbot.StatusIdle:
		status = http.StatusBadRequest
		resp.Message = "query is required"
	case out.Kind() == chatbot.KindConfigMissing:
		status = http.StatusServiceUnavailable
	case out.Kind() == chatbot.KindRemoteCall:
		status = http.StatusBadGateway
	}
	if out.Status == chatbot.StatusFailed {
		resp.Message += ". " + chatbot.ErrorHint
	}
	writeJSON(w, status, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"state":  s.svc.State().String(),
	})
}
