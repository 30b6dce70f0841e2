package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/TobiSchelling/ingestor/internal/cache"
	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/logger"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func get(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("GET", path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestHealthRoute(t *testing.T) {
	srv := New(openTestDB(t), cache.NewMemoryBackend(), logger.Discard())

	rec := get(t, srv, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["database"] != "ok" || body["cache"] != "ok" {
		t.Errorf("unexpected health %v", body)
	}
}

type downBackend struct{ *cache.MemoryBackend }

func (downBackend) Ping(context.Context) error { return errors.New("connection refused") }

func (downBackend) LRange(context.Context, string, int64, int64) ([]string, error) {
	return nil, errors.New("connection refused")
}

func TestHealthCacheDown(t *testing.T) {
	srv := New(openTestDB(t), downBackend{cache.NewMemoryBackend()}, logger.Discard())

	rec := get(t, srv, "/healthz")
	if rec.Code != http.StatusOK {
		t.Errorf("cache outage should not fail health, got %d", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["cache"] == "ok" {
		t.Error("expected cache error to be reported")
	}

	if rec := get(t, srv, "/api/news/newsapi"); rec.Code != http.StatusBadGateway {
		t.Errorf("expected 502 when cache is down, got %d", rec.Code)
	}
}

func TestNewsRoute(t *testing.T) {
	mem := cache.NewMemoryBackend()
	w := cache.NewWriter(mem, 100, time.Hour, logger.Discard())
	w.Cache(context.Background(), "newsapi", []cache.Entry{
		{Title: "Older", URL: "https://x/1"},
		{Title: "Newer", URL: "https://x/2", ImageURL: ptr("https://x/2.jpg")},
	})
	srv := New(openTestDB(t), mem, logger.Discard())

	rec := get(t, srv, "/api/news/NewsAPI?limit=1")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []cache.Entry
	decode(t, rec, &entries)
	if len(entries) != 1 || entries[0].Title != "Newer" {
		t.Errorf("expected newest entry, got %+v", entries)
	}

	rec = get(t, srv, "/api/news/unknown")
	decode(t, rec, &entries)
	if rec.Code != http.StatusOK || len(entries) != 0 {
		t.Errorf("expected empty list for unknown provider, got %d %+v", rec.Code, entries)
	}
}

func TestArticlesRoute(t *testing.T) {
	db := openTestDB(t)
	tech, _ := db.GetCategoryByName("Technology")
	base := time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)
	for i, a := range []database.Article{
		{Title: "Tech one", URL: "https://x/t1", Slug: "tech-one", CategoryID: &tech.ID},
		{Title: "Other", URL: "https://x/o", Slug: "other"},
		{Title: "Tech two", URL: "https://x/t2", Slug: "tech-two", CategoryID: &tech.ID, Summary: ptr("s")},
	} {
		a.PublishedAt = base.Add(time.Duration(i) * time.Hour)
		a.Imported = true
		if err := db.InsertArticle(&a); err != nil {
			t.Fatalf("InsertArticle: %v", err)
		}
	}
	srv := New(db, cache.NewMemoryBackend(), logger.Discard())

	rec := get(t, srv, "/api/articles?category=technology")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var got []articleJSON
	decode(t, rec, &got)
	if len(got) != 2 || got[0].Title != "Tech two" || got[1].Title != "Tech one" {
		t.Errorf("unexpected articles %+v", got)
	}
	if got[0].PublishedAt != "2025-03-05T14:00:00Z" {
		t.Errorf("unexpected published_at %q", got[0].PublishedAt)
	}

	decode(t, get(t, srv, "/api/articles?limit=1"), &got)
	if len(got) != 1 {
		t.Errorf("expected limit to apply, got %d", len(got))
	}

	if rec := get(t, srv, "/api/articles?limit=abc"); rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad limit, got %d", rec.Code)
	}
}

func TestCategoriesRoute(t *testing.T) {
	srv := New(openTestDB(t), cache.NewMemoryBackend(), logger.Discard())

	var got []categoryJSON
	decode(t, get(t, srv, "/api/categories"), &got)
	if len(got) != 7 {
		t.Fatalf("expected 7 seeded categories, got %d", len(got))
	}
	if got[0].Name != "World News" || got[6].Name != "General" {
		t.Errorf("unexpected order: first %s, last %s", got[0].Name, got[6].Name)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	srv := New(openTestDB(t), cache.NewMemoryBackend(), logger.Discard())

	req := httptest.NewRequest("POST", "/api/categories", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}
