// Package api provides the HTTP front end of the engine.
// GET endpoints are read-only observation. POST /chat drives one tick
// per message; slash-prefixed messages hit the command surface without
// advancing time.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mkotake/kaede/internal/engine"
	"github.com/mkotake/kaede/internal/journal"
	"github.com/mkotake/kaede/internal/llm"
)

// Server serves the engine state and the chat surface over HTTP.
type Server struct {
	Brain  *engine.Brain
	Router *llm.Router
	Store  *journal.Store
	Addr   string
}

// Start begins serving in a goroutine.
func (s *Server) Start() {
	chatLimiter := NewRateLimiter(30, time.Minute)

	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/state", s.handleState)
	mux.HandleFunc("/journal", s.handleJournal)
	mux.HandleFunc("/refusals", s.handleRefusals)
	mux.HandleFunc("/model", s.handleModel)
	mux.HandleFunc("/chat", RateLimitMiddleware(chatLimiter, s.handleChat))
	mux.HandleFunc("/eval", RateLimitMiddleware(chatLimiter, s.handleEval))

	handler := corsMiddleware(mux)

	slog.Info("HTTP server starting", "addr", s.Addr)
	go func() {
		if err := http.ListenAndServe(s.Addr, handler); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()
}

// corsMiddleware allows browser dashboards served from another origin.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json failed", "error", err)
	}
}

// writeJSONStatus sets the content type before the status line goes
// out; headers written after WriteHeader are dropped.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("write json failed", "error", err)
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]any{
		"name":      "kaede",
		"tick":      s.Brain.Tick(),
		"paused":    s.Brain.Paused(),
		"endpoints": []string{"/state", "/journal", "/refusals", "/model", "/chat", "/eval"},
	})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Brain.BuildDashboard())
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	if s.Store == nil {
		http.Error(w, "journal indisponible", http.StatusServiceUnavailable)
		return
	}
	limit := 50
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}
	rows, err := s.Store.RecentEntries(limit)
	if err != nil {
		slog.Error("journal query failed", "error", err)
		writeJSON(w, []journal.EntryRow{})
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleRefusals(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.Brain.Refusals())
}

func (s *Server) handleModel(w http.ResponseWriter, r *http.Request) {
	if s.Router == nil {
		http.Error(w, "routeur indisponible", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.Router.Snapshot())
}

type chatRequest struct {
	Message string `json:"message"`
	Mode    string `json:"mode,omitempty"`
}

type chatResponse struct {
	Reply      string                   `json:"reply"`
	Tick       uint64                   `json:"tick"`
	Journal    string                   `json:"journal,omitempty"`
	Model      string                   `json:"model,omitempty"`
	Meta       map[string]string        `json:"meta,omitempty"`
	Directives []engine.DirectiveResult `json:"directives,omitempty"`
	Error      string                   `json:"error,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message requis", http.StatusBadRequest)
		return
	}

	// Slash commands go straight to the command surface, no tick.
	if req.Message[0] == '/' {
		out, err := s.Brain.HandleCommand(req.Message[1:])
		resp := chatResponse{Tick: s.Brain.Tick()}
		if err != nil {
			resp.Error = err.Error()
			status := http.StatusInternalServerError
			if errors.Is(err, engine.ErrInvalidCommand) {
				status = http.StatusBadRequest
			}
			writeJSONStatus(w, status, resp)
			return
		}
		resp.Reply = out
		writeJSON(w, resp)
		return
	}

	if s.Router == nil {
		http.Error(w, "routeur indisponible", http.StatusServiceUnavailable)
		return
	}
	if req.Mode != "" {
		if err := s.Router.SetMode(req.Mode); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	// A conversational message costs one tick of lived time.
	entry := s.Brain.AdvanceTick()
	packet := s.Brain.BuildContextPacket()

	reply, err := s.Router.Ask(r.Context(), packet, req.Message)
	if err != nil {
		writeJSON(w, chatResponse{
			Tick:    entry.Tick,
			Journal: entry.Summary,
			Error:   err.Error(),
		})
		return
	}

	resp := chatResponse{
		Reply:   reply.Text,
		Tick:    entry.Tick,
		Journal: entry.Summary,
		Model:   reply.Model,
		Meta:    reply.Meta,
	}
	if directives := llm.ExtractDirectives(reply.Text); len(directives) > 0 {
		resp.Directives = s.Brain.ApplyDirectives(directives)
	}
	writeJSON(w, resp)
}

func (s *Server) handleEval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.Router == nil {
		http.Error(w, "routeur indisponible", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, s.Router.QuickEval(r.Context(), s.Brain.BuildContextPacket()))
}
