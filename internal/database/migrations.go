package database

import "database/sql"

// Migration represents a single schema migration step.
type Migration struct {
	Version     int
	Description string
	Up          func(tx *sql.Tx) error
}

// defaultCategories is the taxonomy the classifier maps into. "General" is
// the fallback target.
var defaultCategories = []struct {
	Name  string
	Slug  string
	Order int
}{
	{"World News", "world-news", 1},
	{"Politics", "politics", 2},
	{"Business", "business", 3},
	{"Technology", "technology", 4},
	{"Sports", "sports", 5},
	{"Entertainment", "entertainment", 6},
	{"General", "general", 7},
}

// migrations is the ordered list of all schema migrations.
// Append new migrations to the end with incrementing Version numbers.
var migrations = []Migration{
	{
		Version:     1,
		Description: "initial schema",
		Up: func(tx *sql.Tx) error {
			_, err := tx.Exec(`
CREATE TABLE IF NOT EXISTS categories (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    slug TEXT UNIQUE NOT NULL,
    "order" INTEGER NOT NULL DEFAULT 0,
    icon TEXT
);

CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT UNIQUE NOT NULL,
    slug TEXT UNIQUE NOT NULL,
    website TEXT,
    description TEXT
);

CREATE TABLE IF NOT EXISTS articles (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    title TEXT NOT NULL,
    content TEXT NOT NULL DEFAULT '',
    summary TEXT,
    image_url TEXT,
    url TEXT UNIQUE NOT NULL,
    slug TEXT UNIQUE NOT NULL,
    published_at TEXT NOT NULL,
    views INTEGER NOT NULL DEFAULT 0,
    imported INTEGER NOT NULL DEFAULT 0,
    source_id INTEGER REFERENCES sources(id) ON DELETE SET NULL,
    category_id INTEGER REFERENCES categories(id) ON DELETE SET NULL
);

CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at);
CREATE INDEX IF NOT EXISTS idx_articles_imported ON articles(imported, published_at);
CREATE INDEX IF NOT EXISTS idx_articles_category ON articles(category_id);
`)
			return err
		},
	},
	{
		Version:     2,
		Description: "seed categories",
		Up: func(tx *sql.Tx) error {
			for _, c := range defaultCategories {
				if _, err := tx.Exec(
					`INSERT OR IGNORE INTO categories (name, slug, "order") VALUES (?, ?, ?)`,
					c.Name, c.Slug, c.Order,
				); err != nil {
					return err
				}
			}
			return nil
		},
	},
}

// latestVersion returns the highest migration version number.
func latestVersion() int {
	if len(migrations) == 0 {
		return 0
	}
	return migrations[len(migrations)-1].Version
}
