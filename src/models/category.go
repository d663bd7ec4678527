package models

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          string       `json:"id"`
	UserID      int64        `json:"userId"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	Type        CategoryType `json:"type"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
}

var ErrCategoryNotFound = errors.New("category not found")

func CreateCategory(db Querier, category *Category) error {
	if category.ID == "" {
		category.ID = uuid.NewString()
	}
	_, err := db.Exec(`
	INSERT INTO categories (id, user_id, name, description, type)
	VALUES (?, ?, ?, ?, ?)`,
		category.ID, category.UserID, category.Name, category.Description, string(category.Type))
	return err
}

func GetCategoryByID(db Querier, id string, userID int64) (*Category, error) {
	row := db.QueryRow(`
	SELECT id, user_id, name, description, type, is_active, created_at, updated_at
	FROM categories
	WHERE id = ? AND user_id = ? AND is_active = TRUE`, id, userID)

	var c Category
	err := row.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Type,
		&c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrCategoryNotFound
		}
		return nil, err
	}
	return &c, nil
}

// GetCategoriesByUser lists active categories, optionally filtered by type
// (empty filter returns all).
func GetCategoriesByUser(db Querier, userID int64, typeFilter CategoryType) ([]Category, error) {
	query := `
	SELECT id, user_id, name, description, type, is_active, created_at, updated_at
	FROM categories
	WHERE user_id = ? AND is_active = TRUE`
	args := []any{userID}
	if typeFilter != "" {
		query += ` AND type = ?`
		args = append(args, string(typeFilter))
	}
	query += ` ORDER BY name ASC`

	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []Category{}
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.UserID, &c.Name, &c.Description, &c.Type,
			&c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

// GetCategoryNames maps category IDs to names for the user, including
// deactivated categories so that old transactions still resolve.
func GetCategoryNames(db Querier, userID int64) (map[string]string, error) {
	rows, err := db.Query(`SELECT id, name FROM categories WHERE user_id = ?`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := map[string]string{}
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, err
		}
		names[id] = name
	}
	return names, rows.Err()
}

func DeactivateCategory(db Querier, id string, userID int64) error {
	res, err := db.Exec(`
	UPDATE categories
	SET is_active = FALSE, updated_at = CURRENT_TIMESTAMP
	WHERE id = ? AND user_id = ? AND is_active = TRUE`, id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrCategoryNotFound
	}
	return nil
}
