// Package server serves the board over HTTP: the host document with the
// board mounted, per-ticket detail fragments and a JSON view of the columns.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"ficboard/internal/kanban"
	"ficboard/internal/source"
	"ficboard/internal/surface"
)

// Loader supplies the ticket records for a reload.
type Loader interface {
	Load(ctx context.Context) (*source.Result, error)
}

// view is one rendered board and the store its card indices resolve
// against. It is replaced wholesale, never mutated.
type view struct {
	board    *kanban.Board
	store    *kanban.Store
	markup   template.HTML
	origin   source.Origin
	loadedAt time.Time
}

// Server handles board requests.
type Server struct {
	policy    kanban.Policy
	host      *surface.Host
	loader    Loader
	mux       *http.ServeMux
	startedAt time.Time

	mu   sync.RWMutex
	view *view
}

// New returns a Server with an empty board. Call Reload to load data.
func New(policy kanban.Policy, host *surface.Host, loader Loader) *Server {
	s := &Server{
		policy:    policy,
		host:      host,
		loader:    loader,
		startedAt: time.Now(),
		view:      &view{board: &kanban.Board{}, store: kanban.NewStore(), origin: source.OriginNone},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleBoard)
	mux.HandleFunc("GET /tickets/{index}", s.handleTicket)
	mux.HandleFunc("GET /board.json", s.handleBoardJSON)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("POST /reload", s.handleReload)
	s.mux = mux
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Reload loads the records and swaps in a freshly rendered board and store.
// When no data is available the board is emptied and the error (wrapping
// source.ErrNoData) is returned after the swap.
func (s *Server) Reload(ctx context.Context) error {
	res, loadErr := s.loader.Load(ctx)
	if loadErr != nil && !errors.Is(loadErr, source.ErrNoData) {
		return loadErr
	}
	if loadErr != nil {
		slog.Warn("server: no ticket data, rendering empty board", "err", loadErr)
		if res == nil {
			res = &source.Result{Origin: source.OriginNone}
		}
	}

	board, store := kanban.RenderBoard(s.policy.Pipeline(res.Tickets))
	markup, err := board.HTML()
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.view = &view{board: board, store: store, markup: markup, origin: res.Origin, loadedAt: res.LoadedAt}
	s.mu.Unlock()

	slog.Info("server: board reloaded", "tickets", board.Len(), "columns", len(board.Columns), "origin", res.Origin)
	return loadErr
}

// RunReloadLoop reloads at the given interval until ctx is done.
func (s *Server) RunReloadLoop(ctx context.Context, interval time.Duration) {
	slog.Info("server: reload loop starting", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Debug("server: reload loop stopping")
			return
		case <-ticker.C:
			if err := s.Reload(ctx); err != nil && !errors.Is(err, source.ErrNoData) {
				slog.Error("server: reload failed", "err", err)
			}
		}
	}
}

func (s *Server) current() *view {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.view
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	v := s.current()

	doc, err := s.host.Document()
	if err != nil {
		slog.Error("server: parse host document", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	if err := doc.MountBoard(v.markup); err != nil {
		slog.Error("server: mount board", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	if raw := strings.TrimSpace(r.URL.Query().Get("ticket")); raw != "" {
		if i, err := strconv.Atoi(raw); err == nil {
			router := kanban.NewRouter(s.policy, v.store, doc)
			router.Dispatch(kanban.Activate(kanban.CardTarget(i)))
		}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := doc.Render(w); err != nil {
		slog.Error("server: render document", "err", err)
	}
}

func (s *Server) handleTicket(w http.ResponseWriter, r *http.Request) {
	v := s.current()

	i, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}
	t, ok := v.store.Get(i)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "ticket not found"})
		return
	}

	markup, err := s.policy.RenderDetail(t).HTML()
	if err != nil {
		slog.Error("server: render detail", "index", i, "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write([]byte(markup))
}

func (s *Server) handleBoardJSON(w http.ResponseWriter, r *http.Request) {
	v := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"columns":   v.board.Columns,
		"origin":    v.origin,
		"loaded_at": v.loadedAt,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	v := s.current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":         "running",
		"uptime_seconds": max(int(time.Since(s.startedAt).Seconds()), 0),
		"tickets":        v.store.Len(),
		"columns":        len(v.board.Columns),
		"origin":         v.origin,
		"loaded_at":      v.loadedAt,
	})
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	err := s.Reload(r.Context())
	if err != nil && !errors.Is(err, source.ErrNoData) {
		slog.Error("server: reload", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "reload failed"})
		return
	}

	v := s.current()
	payload := map[string]any{
		"status":  "reloaded",
		"tickets": v.store.Len(),
		"origin":  v.origin,
	}
	if err != nil {
		payload["warning"] = "no ticket data available"
	}
	writeJSON(w, http.StatusOK, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
