package housekeeping

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/logger"
)

func TestSweeperScope(t *testing.T) {
	db, err := database.Open(filepath.Join(t.TempDir(), "sweep.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	now := time.Date(2025, 3, 30, 12, 0, 0, 0, time.UTC)
	add := func(url string, age time.Duration, imported bool) {
		t.Helper()
		a := &database.Article{
			Title:       url,
			URL:         "https://x/" + url,
			Slug:        url,
			PublishedAt: now.Add(-age),
			Imported:    imported,
		}
		if err := db.InsertArticle(a); err != nil {
			t.Fatalf("InsertArticle: %v", err)
		}
	}
	day := 24 * time.Hour
	add("old-imported", 29*day, true)
	add("old-curated", 29*day, false)
	add("fresh-imported", day, true)

	s := NewSweeper(db, 28*day, logger.Discard())
	s.now = func() time.Time { return now }

	if got := s.Run(); got != "1 expired articles deleted." {
		t.Errorf("unexpected summary %q", got)
	}
	for url, want := range map[string]bool{"old-imported": false, "old-curated": true, "fresh-imported": true} {
		a, _ := db.GetArticleByURL("https://x/" + url)
		if (a != nil) != want {
			t.Errorf("%s present=%v, want %v", url, a != nil, want)
		}
	}

	if got := s.Run(); got != "0 expired articles deleted." {
		t.Errorf("expected idempotent second sweep, got %q", got)
	}
}

type failingStore struct{}

func (failingStore) DeleteExpiredImported(time.Time) (int64, error) {
	return 0, errors.New("database is locked")
}

func TestSweeperError(t *testing.T) {
	s := NewSweeper(failingStore{}, 0, logger.Discard())
	if s.retention != DefaultRetention {
		t.Errorf("expected default retention, got %s", s.retention)
	}
	if got := s.Run(); !strings.Contains(got, "database is locked") {
		t.Errorf("unexpected summary %q", got)
	}
}

type fakePing struct{ err error }

func (f fakePing) Ping(context.Context) error { return f.err }

func TestPinger(t *testing.T) {
	ok := NewPinger(fakePing{}, time.Second, logger.Discard()).Run(context.Background())
	if ok != "Cache heartbeat ok." {
		t.Errorf("unexpected %q", ok)
	}
	failed := NewPinger(fakePing{err: errors.New("dial tcp: refused")}, 0, logger.Discard()).Run(context.Background())
	if !strings.Contains(failed, "refused") {
		t.Errorf("expected failure summary, got %q", failed)
	}
}
