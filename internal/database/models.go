package database

import "time"

// Article is a persisted news article. URL is the dedup key.
type Article struct {
	ID          int64
	Title       string
	Content     string
	Summary     *string
	ImageURL    *string
	URL         string
	Slug        string
	PublishedAt time.Time
	Views       int
	Imported    bool
	SourceID    *int64
	CategoryID  *int64
}

// Source is a news outlet, identified by name.
type Source struct {
	ID          int64
	Name        string
	Slug        string
	Website     *string
	Description *string
}

// Category is a topical bucket. Categories are seeded, never created by ingestion.
type Category struct {
	ID    int64
	Name  string
	Slug  string
	Order int
	Icon  *string
}

// Stats contains aggregate database statistics.
type Stats struct {
	TotalArticles    int
	ImportedArticles int
	CuratedArticles  int
	Uncategorized    int
	Sources          int
	Categories       int
}
