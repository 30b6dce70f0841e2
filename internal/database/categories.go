package database

import "database/sql"

// GetCategoryByName returns the category with exactly this name, or nil.
func (db *DB) GetCategoryByName(name string) (*Category, error) {
	row := db.conn.QueryRow(
		`SELECT id, name, slug, "order", icon FROM categories WHERE name = ?`, name,
	)
	var c Category
	err := row.Scan(&c.ID, &c.Name, &c.Slug, &c.Order, &c.Icon)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAllCategories returns categories ordered by weight, then name.
func (db *DB) GetAllCategories() ([]Category, error) {
	rows, err := db.conn.Query(`SELECT id, name, slug, "order", icon FROM categories ORDER BY "order", name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Order, &c.Icon); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// DeleteCategory removes a category by name. Articles keep existing with a
// NULL category.
func (db *DB) DeleteCategory(name string) error {
	_, err := db.conn.Exec(`DELETE FROM categories WHERE name = ?`, name)
	return err
}
