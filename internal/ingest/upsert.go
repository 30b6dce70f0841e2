package ingest

import (
	"errors"
	"fmt"
	"strings"

	"github.com/TobiSchelling/ingestor/internal/database"
	"github.com/TobiSchelling/ingestor/internal/slug"
)

// ErrInvalidArticle is returned for records missing a title or URL.
var ErrInvalidArticle = errors.New("article is missing title or url")

// ArticleStore is the storage the upserter needs. *database.DB satisfies it.
type ArticleStore interface {
	GetArticleByURL(url string) (*database.Article, error)
	ArticleSlugExists(slug string) (bool, error)
	InsertArticle(a *database.Article) error
}

// Normalize trims the identifying fields, marks the article as imported and
// sets its base slug from the title. It touches no storage.
func Normalize(a database.Article) database.Article {
	a.Title = strings.TrimSpace(a.Title)
	a.URL = strings.TrimSpace(a.URL)
	a.Imported = true
	a.Slug = slug.Normalize(a.Title)
	return a
}

// Upserter persists each canonical URL at most once.
type Upserter struct {
	store ArticleStore
}

// NewUpserter creates an upserter over store.
func NewUpserter(store ArticleStore) *Upserter {
	return &Upserter{store: store}
}

// Find returns the stored article for url, or nil.
func (u *Upserter) Find(url string) (*database.Article, error) {
	return u.store.GetArticleByURL(strings.TrimSpace(url))
}

// Upsert inserts a as a new imported article unless its URL is already
// stored, in which case the stored row is returned unchanged and created is
// false. Slug collisions are resolved with -1, -2, ... suffixes.
func (u *Upserter) Upsert(a database.Article) (rec *database.Article, created bool, err error) {
	a = Normalize(a)
	if a.Title == "" || a.URL == "" {
		return nil, false, ErrInvalidArticle
	}

	existing, err := u.store.GetArticleByURL(a.URL)
	if err != nil {
		return nil, false, fmt.Errorf("looking up %s: %w", a.URL, err)
	}
	if existing != nil {
		return existing, false, nil
	}

	base := a.Slug
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		a.Slug, err = slug.Unique(base, u.store.ArticleSlugExists)
		if err != nil {
			return nil, false, err
		}

		err = u.store.InsertArticle(&a)
		switch {
		case err == nil:
			return &a, true, nil
		case errors.Is(err, database.ErrURLTaken):
			// lost a race with a concurrent run
			existing, gerr := u.store.GetArticleByURL(a.URL)
			if gerr != nil {
				return nil, false, fmt.Errorf("re-reading %s: %w", a.URL, gerr)
			}
			if existing != nil {
				return existing, false, nil
			}
			return nil, false, err
		case errors.Is(err, database.ErrSlugTaken):
			continue
		default:
			return nil, false, fmt.Errorf("inserting %s: %w", a.URL, err)
		}
	}
	return nil, false, fmt.Errorf("inserting %s: %w", a.URL, database.ErrSlugTaken)
}
