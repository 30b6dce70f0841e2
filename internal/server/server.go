// Package server exposes the stored articles and the rolling cache as a small
// read-only JSON API.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/TobiSchelling/ingestor/internal/cache"
	"github.com/TobiSchelling/ingestor/internal/database"
)

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Server is the HTTP server for the read API.
type Server struct {
	db    *database.DB
	cache *cache.Reader
	ping  func(context.Context) error
	log   *slog.Logger
	mux   *http.ServeMux
}

// New creates a new Server over db and the cache backend.
func New(db *database.DB, backend cache.Backend, log *slog.Logger) *Server {
	s := &Server{
		db:    db,
		cache: cache.NewReader(backend),
		ping:  backend.Ping,
		log:   log,
		mux:   http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.HandleFunc("GET /api/news/{provider}", s.handleNews)
	s.mux.HandleFunc("GET /api/articles", s.handleArticles)
	s.mux.HandleFunc("GET /api/categories", s.handleCategories)
}

type articleJSON struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	Summary     *string `json:"summary"`
	ImageURL    *string `json:"image_url"`
	URL         string  `json:"url"`
	Slug        string  `json:"slug"`
	PublishedAt string  `json:"published_at"`
	Imported    bool    `json:"imported"`
	SourceID    *int64  `json:"source_id"`
	CategoryID  *int64  `json:"category_id"`
}

type categoryJSON struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Slug  string  `json:"slug"`
	Order int     `json:"order"`
	Icon  *string `json:"icon"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"database": "ok", "cache": "ok"}
	code := http.StatusOK
	if err := s.db.Ping(); err != nil {
		status["database"] = err.Error()
		code = http.StatusServiceUnavailable
	}
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.ping(ctx); err != nil {
		// a cache outage is reported without failing the check
		status["cache"] = err.Error()
	}
	s.writeJSON(w, code, status)
}

func (s *Server) handleNews(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	entries, err := s.cache.Latest(r.Context(), r.PathValue("provider"), limit)
	if err != nil {
		s.log.Error("reading cache failed", "provider", r.PathValue("provider"), "error", err)
		s.writeError(w, http.StatusBadGateway, errors.New("cache unavailable"))
		return
	}
	s.writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleArticles(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	articles, err := s.db.ListArticles(r.URL.Query().Get("category"), limit)
	if err != nil {
		s.log.Error("listing articles failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}

	out := make([]articleJSON, 0, len(articles))
	for _, a := range articles {
		out = append(out, articleJSON{
			ID:          a.ID,
			Title:       a.Title,
			Summary:     a.Summary,
			ImageURL:    a.ImageURL,
			URL:         a.URL,
			Slug:        a.Slug,
			PublishedAt: a.PublishedAt.UTC().Format(time.RFC3339),
			Imported:    a.Imported,
			SourceID:    a.SourceID,
			CategoryID:  a.CategoryID,
		})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.db.GetAllCategories()
	if err != nil {
		s.log.Error("listing categories failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
		return
	}
	out := make([]categoryJSON, 0, len(cats))
	for _, c := range cats {
		out = append(out, categoryJSON{ID: c.ID, Name: c.Name, Slug: c.Slug, Order: c.Order, Icon: c.Icon})
	}
	s.writeJSON(w, http.StatusOK, out)
}

func parseLimit(r *http.Request) (int, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return defaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("limit must be a positive integer")
	}
	if n > maxLimit {
		n = maxLimit
	}
	return n, nil
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("writing response failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, code int, err error) {
	s.writeJSON(w, code, map[string]string{"error": err.Error()})
}

// Serve listens on 127.0.0.1:port until ctx is cancelled.
func Serve(ctx context.Context, srv *Server, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	hs := &http.Server{
		Addr:              addr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		srv.log.Info("server listening", "addr", "http://"+addr)
		errc <- hs.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
