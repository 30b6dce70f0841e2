package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/slug"
)

// DefaultSourceName is used for records that do not name their publisher.
const DefaultSourceName = "Unknown"

const maxInsertAttempts = 5

// SourceStore is the storage the registry needs. *database.DB satisfies it.
type SourceStore interface {
	GetSourceByName(name string) (*database.Source, error)
	InsertSource(name, slug string) (*database.Source, error)
	SourceSlugExists(slug string) (bool, error)
}

// SourceRegistry resolves publisher names to Source rows, creating them on
// first sight. Get-else-create is not atomic; the unique name constraint
// decides concurrent creations and the loser re-reads the winner's row.
type SourceRegistry struct {
	store SourceStore
}

// NewSourceRegistry creates a registry over store.
func NewSourceRegistry(store SourceStore) *SourceRegistry {
	return &SourceRegistry{store: store}
}

// Resolve returns the Source with exactly this name.
func (r *SourceRegistry) Resolve(name string) (*database.Source, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultSourceName
	}

	src, err := r.store.GetSourceByName(name)
	if err != nil {
		return nil, fmt.Errorf("looking up source %q: %w", name, err)
	}
	if src != nil {
		return src, nil
	}

	base := slug.Make(name)
	if base == "" {
		base = "source"
	}
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		s, err := slug.Unique(base, r.store.SourceSlugExists)
		if err != nil {
			return nil, err
		}
		src, err := r.store.InsertSource(name, s)
		switch {
		case err == nil:
			return src, nil
		case errors.Is(err, database.ErrNameTaken):
			winner, gerr := r.store.GetSourceByName(name)
			if gerr != nil {
				return nil, fmt.Errorf("re-reading source %q: %w", name, gerr)
			}
			if winner != nil {
				return winner, nil
			}
			return nil, fmt.Errorf("source %q reported taken but not found: %w", name, err)
		case errors.Is(err, database.ErrSlugTaken):
			continue
		default:
			return nil, fmt.Errorf("creating source %q: %w", name, err)
		}
	}
	return nil, fmt.Errorf("creating source %q: %w", name, database.ErrSlugTaken)
}
