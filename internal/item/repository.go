// Package item manages catalog items and their privately stored images.
package item

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Item represents a catalog item owned by a profile. ImgURL is the signed
// URL issued at creation time; it is stored verbatim and never refreshed.
type Item struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	Category   string    `json:"category"`
	Style      string    `json:"style"`
	Season     string    `json:"season"`
	Color      string    `json:"color"`
	Visibility string    `json:"visibility"`
	ImgURL     string    `json:"img_url"`
	CreatedAt  time.Time `json:"created_at"`
}

// ErrNotFound is returned when an item does not exist.
var ErrNotFound = errors.New("not found")

// ErrCreateFailed is returned when the insert reports no created row.
var ErrCreateFailed = errors.New("failed to create item")

// Repository handles all item database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const itemColumns = `id, user_id, name, category, style, season, color, visibility, img_url, created_at`

// Insert stores a new item and fills in its generated id and timestamp.
func (r *Repository) Insert(ctx context.Context, it *Item) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO items (user_id, name, category, style, season, color, visibility, img_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		it.UserID, it.Name, it.Category, it.Style, it.Season, it.Color, it.Visibility, it.ImgURL,
	).Scan(&it.ID, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrCreateFailed
	}
	if err != nil {
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID fetches an item by its generated id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Item, error) {
	it := &Item{}
	err := r.db.QueryRow(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = $1`,
		id,
	).Scan(&it.ID, &it.UserID, &it.Name, &it.Category, &it.Style, &it.Season, &it.Color, &it.Visibility, &it.ImgURL, &it.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("item %s %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get item by id: %w", err)
	}
	return it, nil
}

// ListByUser returns one page of a user's items, newest first.
func (r *Repository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Item, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	items := []Item{}
	for rows.Next() {
		var it Item
		if err := rows.Scan(&it.ID, &it.UserID, &it.Name, &it.Category, &it.Style, &it.Season, &it.Color, &it.Visibility, &it.ImgURL, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	return items, nil
}

// CountByUser returns the exact number of items owned by userID.
func (r *Repository) CountByUser(ctx context.Context, userID string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx, `SELECT count(*) FROM items WHERE user_id = $1`, userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return total, nil
}
