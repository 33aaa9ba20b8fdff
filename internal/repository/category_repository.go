package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/iliyamo/cinema-booking/internal/model"
)

const categorySelect = `SELECT id, name, description, color, created_at FROM categories`

// CategoryRepo manages movie categories.
type CategoryRepo struct {
	db *sqlx.DB
}

// NewCategoryRepo returns a CategoryRepo bound to db.
func NewCategoryRepo(db *sqlx.DB) *CategoryRepo { return &CategoryRepo{db: db} }

// List returns categories ordered by name.  A non-empty query filters
// on name and description.
func (r *CategoryRepo) List(ctx context.Context, query string) ([]model.Category, error) {
	q := categorySelect
	var args []any
	if query = strings.TrimSpace(query); query != "" {
		q += ` WHERE name LIKE ? OR description LIKE ?`
		like := "%" + query + "%"
		args = append(args, like, like)
	}
	q += ` ORDER BY name`
	out := []model.Category{}
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID returns one category or ErrNotFound.
func (r *CategoryRepo) GetByID(ctx context.Context, id uint64) (model.Category, error) {
	var c model.Category
	if err := r.db.GetContext(ctx, &c, categorySelect+` WHERE id = ?`, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Category{}, ErrNotFound
		}
		return model.Category{}, err
	}
	return c, nil
}

// Create inserts a category.  A duplicate name yields ErrConflict.
func (r *CategoryRepo) Create(ctx context.Context, c *model.Category) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (name, description, color) VALUES (?, ?, ?)`, c.Name, c.Description, c.Color)
	if err != nil {
		if mysqlErrorIs(err, mysqlDuplicateEntry) {
			return ErrConflict
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := r.GetByID(ctx, uint64(id))
	if err != nil {
		return err
	}
	*c = created
	return nil
}

// Update overwrites name, description and color.
func (r *CategoryRepo) Update(ctx context.Context, c *model.Category) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = ?, description = ?, color = ? WHERE id = ?`,
		c.Name, c.Description, c.Color, c.ID); err != nil {
		if mysqlErrorIs(err, mysqlDuplicateEntry) {
			return ErrConflict
		}
		return err
	}
	updated, err := r.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	*c = updated
	return nil
}

// Delete removes a category; its movie links go with it.
func (r *CategoryRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
