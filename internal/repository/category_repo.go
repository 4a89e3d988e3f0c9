package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"finance_tracker/internal/models"
)

type CategoryRepository struct {
	db DBTX
}

func NewCategoryRepository(db DBTX) *CategoryRepository {
	return &CategoryRepository{db: db}
}

var _ Categories = (*CategoryRepository)(nil)

const (
	insertCategorySQL = `INSERT INTO categories (name, description, icon, user_id, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`

	selectCategoryColumns = `SELECT id, user_id, name, description, icon, created_at, updated_at FROM categories`
	listCategoriesSQL     = selectCategoryColumns + ` WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`
	selectCategorySQL     = selectCategoryColumns + ` WHERE user_id = ? AND id = ?`

	updateCategorySQL = `UPDATE categories SET name = ?, description = ?, icon = ?, updated_at = ? WHERE user_id = ? AND id = ?`
	deleteCategorySQL = `DELETE FROM categories WHERE user_id = ? AND id = ?`
)

func (r *CategoryRepository) Create(ctx context.Context, c models.Category) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertCategorySQL,
		c.Name, nullString(c.Description), c.Icon, c.UserID, dbTime(c.CreatedAt), dbTime(c.UpdatedAt))
	if err != nil {
		if isForeignKeyViolation(err) {
			return 0, ErrNoOwner
		}
		return 0, fmt.Errorf("insert category %q: %w", c.Name, err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("get last insert id for category %q: %w", c.Name, err)
	}
	return id, nil
}

// List returns the user's categories ordered by id. A negative limit means no limit.
func (r *CategoryRepository) List(ctx context.Context, userID int64, offset, limit int) ([]models.Category, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := r.db.QueryContext(ctx, listCategoriesSQL, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list categories of user %d: %w", userID, err)
	}
	defer rows.Close()

	out := make([]models.Category, 0)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list categories of user %d: %w", userID, err)
	}
	return out, nil
}

// Get returns the category only if it belongs to userID; otherwise (nil, nil).
func (r *CategoryRepository) Get(ctx context.Context, userID, id int64) (*models.Category, error) {
	c, err := scanCategory(r.db.QueryRowContext(ctx, selectCategorySQL, userID, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select category %d: %w", id, err)
	}
	return c, nil
}

func (r *CategoryRepository) Update(ctx context.Context, c models.Category) error {
	res, err := r.db.ExecContext(ctx, updateCategorySQL,
		c.Name, nullString(c.Description), c.Icon, dbTime(c.UpdatedAt), c.UserID, c.ID)
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update category %d: %w", c.ID, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the category. Transactions referencing it keep existing
// with category_id set to NULL.
func (r *CategoryRepository) Delete(ctx context.Context, userID, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx, deleteCategorySQL, userID, id)
	if err != nil {
		return false, fmt.Errorf("delete category %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete category %d: %w", id, err)
	}
	return n > 0, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCategory(row rowScanner) (*models.Category, error) {
	var (
		c    models.Category
		desc sql.NullString
	)
	if err := row.Scan(&c.ID, &c.UserID, &c.Name, &desc, &c.Icon, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Description = stringPtr(desc)
	c.CreatedAt = c.CreatedAt.UTC()
	c.UpdatedAt = c.UpdatedAt.UTC()
	return &c, nil
}
