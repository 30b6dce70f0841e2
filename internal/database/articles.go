package database

import (
	"database/sql"
	"time"
)

const articleColumns = `a.id, a.title, a.content, a.summary, a.image_url, a.url, a.slug,
	a.published_at, a.views, a.imported, a.source_id, a.category_id`

// InsertArticle inserts a new article and sets its ID. Returns ErrURLTaken or
// ErrSlugTaken when a uniqueness constraint rejects the row.
func (db *DB) InsertArticle(a *Article) error {
	result, err := db.conn.Exec(
		`INSERT INTO articles (title, content, summary, image_url, url, slug, published_at,
			views, imported, source_id, category_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.Title, a.Content, a.Summary, a.ImageURL, a.URL, a.Slug, formatTime(a.PublishedAt),
		a.Views, boolToInt(a.Imported), a.SourceID, a.CategoryID,
	)
	if err != nil {
		return uniqueViolation(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// GetArticleByURL returns the article with the given canonical URL, or nil.
func (db *DB) GetArticleByURL(url string) (*Article, error) {
	row := db.conn.QueryRow(`SELECT `+articleColumns+` FROM articles a WHERE a.url = ?`, url)
	return scanOptionalArticle(row)
}

// GetArticleByID returns a single article by ID, or nil.
func (db *DB) GetArticleByID(articleID int64) (*Article, error) {
	row := db.conn.QueryRow(`SELECT `+articleColumns+` FROM articles a WHERE a.id = ?`, articleID)
	return scanOptionalArticle(row)
}

// ArticleSlugExists reports whether an article already uses slug.
func (db *DB) ArticleSlugExists(slug string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM articles WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

// CountArticlesWithURL returns how many rows carry url. Always 0 or 1.
func (db *DB) CountArticlesWithURL(url string) (int, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM articles WHERE url = ?`, url).Scan(&n)
	return n, err
}

// DeleteExpiredImported removes imported articles published before cutoff.
// Curated articles are never touched.
func (db *DB) DeleteExpiredImported(cutoff time.Time) (int64, error) {
	result, err := db.conn.Exec(
		`DELETE FROM articles WHERE imported = 1 AND published_at < ?`,
		formatTime(cutoff),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// ListArticles returns the newest articles, optionally restricted to a
// category slug.
func (db *DB) ListArticles(categorySlug string, limit int) ([]Article, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + articleColumns + ` FROM articles a`
	var args []any
	if categorySlug != "" {
		query += ` JOIN categories c ON c.id = a.category_id WHERE c.slug = ?`
		args = append(args, categorySlug)
	}
	query += ` ORDER BY a.published_at DESC, a.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanArticles(rows)
}

// GetStats returns aggregate counts.
func (db *DB) GetStats() (*Stats, error) {
	s := &Stats{}
	queries := []struct {
		dest  *int
		query string
	}{
		{&s.TotalArticles, "SELECT COUNT(*) FROM articles"},
		{&s.ImportedArticles, "SELECT COUNT(*) FROM articles WHERE imported = 1"},
		{&s.Uncategorized, "SELECT COUNT(*) FROM articles WHERE category_id IS NULL"},
		{&s.Sources, "SELECT COUNT(*) FROM sources"},
		{&s.Categories, "SELECT COUNT(*) FROM categories"},
	}
	for _, q := range queries {
		if err := db.conn.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, err
		}
	}
	s.CuratedArticles = s.TotalArticles - s.ImportedArticles
	return s, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (*Article, error) {
	var a Article
	var published string
	var imported int
	if err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Summary, &a.ImageURL, &a.URL, &a.Slug,
		&published, &a.Views, &imported, &a.SourceID, &a.CategoryID); err != nil {
		return nil, err
	}
	a.PublishedAt = parseTime(published)
	a.Imported = imported != 0
	return &a, nil
}

func scanOptionalArticle(row *sql.Row) (*Article, error) {
	a, err := scanArticle(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func scanArticles(rows *sql.Rows) ([]Article, error) {
	var articles []Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, err
		}
		articles = append(articles, *a)
	}
	return articles, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
