// Package server exposes dialog sessions over HTTP and websockets.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/f3rmion/dlgview/internal/metrics"
	"github.com/f3rmion/dlgview/internal/session"
	"github.com/f3rmion/dlgview/internal/text"
)

var errUnknownSession = errors.New("unknown session")

// Config holds the handler's dependencies.
type Config struct {
	Cache  *session.Cache
	Lookup text.Lookup
	Radius float64
	// Root, when set, confines conversation paths to a directory; relative
	// paths are resolved against it.
	Root string
}

// Handler holds all HTTP handler dependencies.
type Handler struct {
	cache *session.Cache
	root  string
	mux   *http.ServeMux
	next  http.Handler

	mu       sync.RWMutex
	lookup   text.Lookup
	radius   float64
	sessions map[string]*session.Session
}

// New creates an HTTP handler and registers all routes.
func New(cfg Config) *Handler {
	h := &Handler{
		cache:    cfg.Cache,
		root:     cfg.Root,
		mux:      http.NewServeMux(),
		lookup:   cfg.Lookup,
		radius:   cfg.Radius,
		sessions: make(map[string]*session.Session),
	}

	h.mux.HandleFunc("POST /v1/sessions", h.createSession)
	h.mux.HandleFunc("GET /v1/sessions/{id}", h.getSession)
	h.mux.HandleFunc("DELETE /v1/sessions/{id}", h.deleteSession)
	h.mux.HandleFunc("GET /v1/sessions/{id}/tree", h.getTree)
	h.mux.HandleFunc("GET /v1/sessions/{id}/options", h.getOptions)
	h.mux.HandleFunc("POST /v1/sessions/{id}/choose", h.choose)
	h.mux.HandleFunc("POST /v1/sessions/{id}/reset", h.reset)
	h.mux.HandleFunc("GET /v1/sessions/{id}/ws", h.serveWS)
	h.mux.HandleFunc("GET /healthz", h.healthz)
	h.mux.Handle("GET /metrics", promhttp.Handler())

	h.next = loggingMiddleware(h.mux)
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.next.ServeHTTP(w, r)
}

// SetLookup swaps the string table for new and existing sessions.
func (h *Handler) SetLookup(lookup text.Lookup) {
	h.mu.Lock()
	h.lookup = lookup
	open := h.openSessions()
	h.mu.Unlock()

	for _, s := range open {
		s.SetLookup(lookup)
	}
}

// SetRadius changes the wheel radius for new and existing sessions.
func (h *Handler) SetRadius(r float64) {
	h.mu.Lock()
	h.radius = r
	open := h.openSessions()
	h.mu.Unlock()

	for _, s := range open {
		s.SetRadius(r)
	}
}

func (h *Handler) openSessions() []*session.Session {
	out := make([]*session.Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Sessions returns the number of open sessions.
func (h *Handler) Sessions() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

func (h *Handler) session(r *http.Request) (*session.Session, error) {
	id := r.PathValue("id")
	h.mu.RLock()
	s, ok := h.sessions[id]
	h.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, errUnknownSession)
	}
	return s, nil
}

func (h *Handler) resolvePath(p string) (string, error) {
	if p == "" {
		return "", fmt.Errorf("path is required")
	}
	if h.root == "" {
		return p, nil
	}
	root, err := filepath.Abs(h.root)
	if err != nil {
		return "", err
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %s is outside %s", p, h.root)
	}
	return full, nil
}

type createRequest struct {
	Path string `json:"path"`
}

// POST /v1/sessions: parse a conversation and open a session on it.
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	path, err := h.resolvePath(req.Path)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	conv, err := h.cache.Load(path)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.mu.Lock()
	s := session.New(h.lookup, h.radius)
	s.ID = uuid.New().String()
	h.sessions[s.ID] = s
	h.mu.Unlock()

	s.Load(conv)
	metrics.ActiveSessions.Inc()
	slog.Info("session opened", "id", s.ID, "conversation", conv.Name)
	h.writeSnapshot(w, http.StatusCreated, s)
}

// GET /v1/sessions/{id}: current selection, options and plot flags.
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.writeSnapshot(w, http.StatusOK, s)
}

// DELETE /v1/sessions/{id}
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	h.mu.Lock()
	_, ok := h.sessions[id]
	delete(h.sessions, id)
	h.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("session %s: %s", id, errUnknownSession))
		return
	}
	metrics.ActiveSessions.Dec()
	w.WriteHeader(http.StatusNoContent)
}

// GET /v1/sessions/{id}/tree: the display tree.
func (h *Handler) getTree(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	tree := s.Tree()
	if tree == nil {
		writeError(w, statusFor(session.ErrNoConversation), session.ErrNoConversation.Error())
		return
	}
	writeJSON(w, http.StatusOK, tree)
}

// GET /v1/sessions/{id}/options?node=N: the wheel and plot checks at N, or
// at the selection when node is omitted.
func (h *Handler) getOptions(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	raw := r.URL.Query().Get("node")
	if raw == "" {
		h.writeSnapshot(w, http.StatusOK, s)
		return
	}
	node, err := strconv.ParseInt(raw, 10, 32)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid node %q", raw))
		return
	}
	opts, err := s.OptionsAt(int32(node))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	np, err := s.PlotAt(int32(node))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"node":    node,
		"plot":    np,
		"options": nonNil(opts),
	})
}

type chooseRequest struct {
	Node   *int32 `json:"node,omitempty"`
	Option int    `json:"option"`
}

// POST /v1/sessions/{id}/choose: pick an option, optionally after
// selecting a node.
func (h *Handler) choose(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	var req chooseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %s", err))
		return
	}
	if err := applyChoice(s, req.Node, req.Option); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	h.writeSnapshot(w, http.StatusOK, s)
}

func applyChoice(s *session.Session, node *int32, option int) error {
	if node != nil {
		if err := s.Select(*node); err != nil {
			return err
		}
	}
	_, err := s.Choose(option)
	return err
}

// POST /v1/sessions/{id}/reset: clear plot state and return to the start.
func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	s, err := h.session(r)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	s.Reset()
	h.writeSnapshot(w, http.StatusOK, s)
}

// GET /healthz: always 200 (liveness probe).
func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": h.Sessions(),
	})
}

func (h *Handler) writeSnapshot(w http.ResponseWriter, status int, s *session.Session) {
	snap, err := s.Snapshot()
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, status, snap)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
