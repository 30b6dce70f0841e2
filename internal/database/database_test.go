package database

import (
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func ptr(s string) *string { return &s }

func newArticle(url, slug string, published time.Time, imported bool) *Article {
	return &Article{
		Title:       "Title for " + slug,
		Content:     "body",
		URL:         url,
		Slug:        slug,
		PublishedAt: published,
		Imported:    imported,
	}
}

func TestInsertArticle(t *testing.T) {
	db := openTestDB(t)
	published := time.Date(2026, 3, 5, 12, 0, 0, 0, time.UTC)
	a := newArticle("https://example.com/test", "test", published, true)
	a.Summary = ptr("summary")

	if err := db.InsertArticle(a); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.ID == 0 {
		t.Fatal("expected non-zero article ID")
	}

	got, err := db.GetArticleByURL("https://example.com/test")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got == nil {
		t.Fatal("expected article by URL")
	}
	if !got.PublishedAt.Equal(published) {
		t.Errorf("expected published %v, got %v", published, got.PublishedAt)
	}
	if !got.Imported {
		t.Error("expected imported flag")
	}
	if got.Summary == nil || *got.Summary != "summary" {
		t.Error("expected summary to round-trip")
	}
	if got.SourceID != nil || got.CategoryID != nil {
		t.Error("expected nil source and category")
	}
}

func TestInsertDuplicateURL(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	if err := db.InsertArticle(newArticle("https://example.com/dup", "first", now, true)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	err := db.InsertArticle(newArticle("https://example.com/dup", "second", now, true))
	if !errors.Is(err, ErrURLTaken) {
		t.Errorf("expected ErrURLTaken, got %v", err)
	}
	n, _ := db.CountArticlesWithURL("https://example.com/dup")
	if n != 1 {
		t.Errorf("expected 1 row, got %d", n)
	}
}

func TestInsertDuplicateSlug(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	db.InsertArticle(newArticle("https://a.com", "same", now, true))
	err := db.InsertArticle(newArticle("https://b.com", "same", now, true))
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	exists, err := db.ArticleSlugExists("same")
	if err != nil || !exists {
		t.Errorf("expected slug to exist, got %v %v", exists, err)
	}
	exists, _ = db.ArticleSlugExists("other")
	if exists {
		t.Error("expected slug 'other' to be free")
	}
}

func TestGetArticleByURLMissing(t *testing.T) {
	db := openTestDB(t)
	a, err := db.GetArticleByURL("https://nowhere.example")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a != nil {
		t.Error("expected nil for unknown URL")
	}
}

func TestDeleteExpiredImported(t *testing.T) {
	db := openTestDB(t)
	now := time.Now()
	db.InsertArticle(newArticle("https://old-imported", "old-imported", now.AddDate(0, 0, -29), true))
	db.InsertArticle(newArticle("https://old-curated", "old-curated", now.AddDate(0, 0, -29), false))
	db.InsertArticle(newArticle("https://fresh", "fresh", now.AddDate(0, 0, -1), true))

	deleted, err := db.DeleteExpiredImported(now.AddDate(0, 0, -28))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}
	if a, _ := db.GetArticleByURL("https://old-curated"); a == nil {
		t.Error("curated article should survive")
	}
	if a, _ := db.GetArticleByURL("https://fresh"); a == nil {
		t.Error("fresh article should survive")
	}

	deleted, _ = db.DeleteExpiredImported(now.AddDate(0, 0, -28))
	if deleted != 0 {
		t.Errorf("expected second sweep to delete nothing, got %d", deleted)
	}
}

func TestSourceLifecycle(t *testing.T) {
	db := openTestDB(t)

	s, err := db.GetSourceByName("BBC News")
	if err != nil || s != nil {
		t.Fatalf("expected no source yet, got %v %v", s, err)
	}

	created, err := db.InsertSource("BBC News", "bbc-news")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created.ID == 0 || created.Website == nil || *created.Website != "" {
		t.Errorf("unexpected source %+v", created)
	}

	_, err = db.InsertSource("BBC News", "bbc-news-1")
	if !errors.Is(err, ErrNameTaken) {
		t.Errorf("expected ErrNameTaken, got %v", err)
	}
	_, err = db.InsertSource("BBC-News", "bbc-news")
	if !errors.Is(err, ErrSlugTaken) {
		t.Errorf("expected ErrSlugTaken, got %v", err)
	}

	// lookups are case-sensitive
	s, _ = db.GetSourceByName("bbc news")
	if s != nil {
		t.Error("expected case-sensitive name lookup")
	}
	s, _ = db.GetSourceByID(created.ID)
	if s == nil || s.Name != "BBC News" {
		t.Errorf("expected source by ID, got %+v", s)
	}
}

func TestSeededCategories(t *testing.T) {
	db := openTestDB(t)
	cats, err := db.GetAllCategories()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cats) != 7 {
		t.Fatalf("expected 7 seeded categories, got %d", len(cats))
	}
	if cats[0].Name != "World News" || cats[6].Name != "General" {
		t.Errorf("unexpected ordering: first %q last %q", cats[0].Name, cats[6].Name)
	}

	tech, _ := db.GetCategoryByName("Technology")
	if tech == nil || tech.Slug != "technology" {
		t.Errorf("expected Technology category, got %+v", tech)
	}
	missing, _ := db.GetCategoryByName("Weather")
	if missing != nil {
		t.Error("expected nil for unknown category")
	}
}

func TestDeleteCategoryNullsArticles(t *testing.T) {
	db := openTestDB(t)
	tech, _ := db.GetCategoryByName("Technology")
	a := newArticle("https://a.com", "a", time.Now(), true)
	a.CategoryID = &tech.ID
	if err := db.InsertArticle(a); err != nil {
		t.Fatalf("insert: %v", err)
	}

	if err := db.DeleteCategory("Technology"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ := db.GetArticleByID(a.ID)
	if got == nil {
		t.Fatal("article should survive category deletion")
	}
	if got.CategoryID != nil {
		t.Error("expected category to be nulled")
	}
}

func TestListArticles(t *testing.T) {
	db := openTestDB(t)
	tech, _ := db.GetCategoryByName("Technology")
	now := time.Now()

	older := newArticle("https://older", "older", now.Add(-2*time.Hour), true)
	older.CategoryID = &tech.ID
	newer := newArticle("https://newer", "newer", now.Add(-1*time.Hour), true)
	newer.CategoryID = &tech.ID
	other := newArticle("https://other", "other", now, false)
	db.InsertArticle(older)
	db.InsertArticle(newer)
	db.InsertArticle(other)

	all, err := db.ListArticles("", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all) != 3 || all[0].URL != "https://other" {
		t.Errorf("expected newest first, got %+v", all)
	}

	techOnly, _ := db.ListArticles("technology", 10)
	if len(techOnly) != 2 || techOnly[0].URL != "https://newer" {
		t.Errorf("expected 2 technology articles newest first, got %+v", techOnly)
	}

	limited, _ := db.ListArticles("", 1)
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited))
	}
}

func TestGetStats(t *testing.T) {
	db := openTestDB(t)
	stats, err := db.GetStats()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.TotalArticles != 0 || stats.Categories != 7 {
		t.Errorf("unexpected empty stats %+v", stats)
	}

	db.InsertArticle(newArticle("https://a.com", "a", time.Now(), true))
	db.InsertArticle(newArticle("https://b.com", "b", time.Now(), false))
	db.InsertSource("Reuters", "reuters")

	stats, _ = db.GetStats()
	if stats.TotalArticles != 2 || stats.ImportedArticles != 1 || stats.CuratedArticles != 1 {
		t.Errorf("unexpected article stats %+v", stats)
	}
	if stats.Uncategorized != 2 {
		t.Errorf("expected 2 uncategorized, got %d", stats.Uncategorized)
	}
	if stats.Sources != 1 {
		t.Errorf("expected 1 source, got %d", stats.Sources)
	}
}
