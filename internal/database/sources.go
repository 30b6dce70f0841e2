package database

import "database/sql"

// GetSourceByName returns the source with exactly this name, or nil.
func (db *DB) GetSourceByName(name string) (*Source, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, slug, website, description FROM sources WHERE name = ?`, name,
	)
	var s Source
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Website, &s.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// InsertSource creates a source with empty website and description. Returns
// ErrNameTaken or ErrSlugTaken on a uniqueness violation.
func (db *DB) InsertSource(name, slug string) (*Source, error) {
	empty := ""
	result, err := db.conn.Exec(
		`INSERT INTO sources (name, slug, website, description) VALUES (?, ?, ?, ?)`,
		name, slug, empty, empty,
	)
	if err != nil {
		return nil, uniqueViolation(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}
	return &Source{ID: id, Name: name, Slug: slug, Website: &empty, Description: &empty}, nil
}

// SourceSlugExists reports whether a source already uses slug.
func (db *DB) SourceSlugExists(slug string) (bool, error) {
	var n int
	err := db.conn.QueryRow(`SELECT COUNT(*) FROM sources WHERE slug = ?`, slug).Scan(&n)
	return n > 0, err
}

// GetSourceByID returns a source by ID, or nil.
func (db *DB) GetSourceByID(id int64) (*Source, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, slug, website, description FROM sources WHERE id = ?`, id,
	)
	var s Source
	err := row.Scan(&s.ID, &s.Name, &s.Slug, &s.Website, &s.Description)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
