package ingest

import (
	"testing"

	"github.com/TobiSchelling/ingestor/internal/database"
)

func TestResolveCreatesOnce(t *testing.T) {
	db := openTestDB(t)
	reg := NewSourceRegistry(db)

	first, err := reg.Resolve("BBC News")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if first.Slug != "bbc-news" || *first.Website != "" || *first.Description != "" {
		t.Errorf("unexpected source %+v", first)
	}
	again, err := reg.Resolve("BBC News")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("expected same source, got %d and %d", first.ID, again.ID)
	}
}

func TestResolveCaseSensitive(t *testing.T) {
	db := openTestDB(t)
	reg := NewSourceRegistry(db)

	a, _ := reg.Resolve("Reuters")
	b, err := reg.Resolve("reuters")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if a.ID == b.ID {
		t.Error("expected distinct sources for different case")
	}
	if b.Slug != "reuters-1" {
		t.Errorf("expected suffixed slug, got %q", b.Slug)
	}
}

func TestResolveEmptyName(t *testing.T) {
	src, err := NewSourceRegistry(openTestDB(t)).Resolve("  ")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src.Name != DefaultSourceName {
		t.Errorf("expected %s, got %s", DefaultSourceName, src.Name)
	}
}

func TestResolveUnsluggableName(t *testing.T) {
	src, err := NewSourceRegistry(openTestDB(t)).Resolve("新闻")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src.Slug != "source" {
		t.Errorf("expected fallback slug, got %q", src.Slug)
	}
}

// racySources reports the name taken on insert, as if another run won.
type racySources struct {
	winner  *database.Source
	lookups int
}

func (r *racySources) GetSourceByName(string) (*database.Source, error) {
	r.lookups++
	if r.lookups == 1 {
		return nil, nil
	}
	return r.winner, nil
}

func (r *racySources) InsertSource(string, string) (*database.Source, error) {
	return nil, database.ErrNameTaken
}

func (r *racySources) SourceSlugExists(string) (bool, error) { return false, nil }

func TestResolveNameRace(t *testing.T) {
	store := &racySources{winner: &database.Source{ID: 3, Name: "AP"}}
	src, err := NewSourceRegistry(store).Resolve("AP")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if src.ID != 3 {
		t.Errorf("expected the concurrently created row, got %+v", src)
	}
}
