// Package profile manages user profiles and the lifecycle of their pictures.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Profile represents a catalog user profile. The id is issued by the external
// auth provider; the core never generates one.
type Profile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	DisplayName *string   `json:"display_name,omitempty"`
	PfpURL      string    `json:"pfp_url"`
	Visibility  string    `json:"visibility"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ErrNotFound is returned when a profile does not exist. It is wrapped with
// the offending id, so errors read "profile u1 not found".
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned when an id or username is already taken.
var ErrAlreadyExists = errors.New("already exists")

// UpdateParams carries a partial update. A nil field means "leave untouched";
// a non-nil pointer to an empty string means "clear the field".
type UpdateParams struct {
	Username    *string
	DisplayName *string
	Visibility  *string
	PfpURL      *string
}

// IsZero reports whether the update carries no fields at all.
func (p UpdateParams) IsZero() bool {
	return p.Username == nil && p.DisplayName == nil && p.Visibility == nil && p.PfpURL == nil
}

// Repository handles all profile database operations.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository with the given connection pool.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const profileColumns = `id, username, display_name, pfp_url, visibility, created_at, updated_at`

// GetByID fetches a profile by its id.
func (r *Repository) GetByID(ctx context.Context, id string) (*Profile, error) {
	p := &Profile{}
	err := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE id = $1`,
		id,
	).Scan(&p.ID, &p.Username, &p.DisplayName, &p.PfpURL, &p.Visibility, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile %s %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by id: %w", err)
	}
	return p, nil
}

// GetByUsername fetches a profile by exact username match.
func (r *Repository) GetByUsername(ctx context.Context, username string) (*Profile, error) {
	p := &Profile{}
	err := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM profiles WHERE username = $1`,
		username,
	).Scan(&p.ID, &p.Username, &p.DisplayName, &p.PfpURL, &p.Visibility, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("profile with username %s %w", username, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile by username: %w", err)
	}
	return p, nil
}

// Insert stores a new profile. The database unique constraints are the
// backstop for races that slip past the service-level checks.
func (r *Repository) Insert(ctx context.Context, p *Profile) error {
	err := r.db.QueryRow(ctx,
		`INSERT INTO profiles (id, username, display_name, pfp_url, visibility)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING created_at, updated_at`,
		p.ID, p.Username, p.DisplayName, p.PfpURL, p.Visibility,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("profile %s %w", p.ID, ErrAlreadyExists)
		}
		return fmt.Errorf("insert profile: %w", err)
	}
	return nil
}

// Update applies only the fields present in params. Calling it with a zero
// params value is a caller bug; the service short-circuits no-ops before
// reaching the repository.
func (r *Repository) Update(ctx context.Context, id string, params UpdateParams) error {
	set := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	add := func(column string, value interface{}) {
		args = append(args, value)
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if params.Username != nil {
		add("username", *params.Username)
	}
	if params.DisplayName != nil {
		add("display_name", *params.DisplayName)
	}
	if params.Visibility != nil {
		add("visibility", *params.Visibility)
	}
	if params.PfpURL != nil {
		add("pfp_url", *params.PfpURL)
	}
	set = append(set, "updated_at = now()")

	args = append(args, id)
	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d`, strings.Join(set, ", "), len(args))

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("username %w", ErrAlreadyExists)
		}
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a profile record.
func (r *Repository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("profile %s %w", id, ErrNotFound)
	}
	return nil
}

// List returns one page of profiles whose username starts with prefix
// (case-insensitive), ordered by username. An empty prefix matches all.
func (r *Repository) List(ctx context.Context, prefix string, limit, offset int) ([]Profile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM profiles
		 WHERE username ILIKE $1
		 ORDER BY username
		 LIMIT $2 OFFSET $3`,
		prefixPattern(prefix), limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	profiles := []Profile{}
	for rows.Next() {
		var p Profile
		if err := rows.Scan(&p.ID, &p.Username, &p.DisplayName, &p.PfpURL, &p.Visibility, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	return profiles, nil
}

// Count returns the exact number of profiles matching the username prefix.
func (r *Repository) Count(ctx context.Context, prefix string) (int, error) {
	var total int
	err := r.db.QueryRow(ctx,
		`SELECT count(*) FROM profiles WHERE username ILIKE $1`,
		prefixPattern(prefix),
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return total, nil
}

// prefixPattern turns a raw prefix into an ILIKE pattern, escaping the LIKE
// metacharacters so user input cannot widen the match.
func prefixPattern(prefix string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(prefix)
	return escaped + "%"
}

// isUniqueViolation checks whether an error is a PostgreSQL unique_violation (code 23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
