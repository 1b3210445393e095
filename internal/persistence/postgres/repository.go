// Package postgres provides the pgx-backed catalog repository for emission
// factors and user accounts.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"example.com/carbonlog/internal/domain"
)

// Repository provides Postgres-backed persistence for the factor catalog and
// user accounts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// AllKeys returns every known factor key, used by the fuzzy classifier.
func (r *Repository) AllKeys(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT key FROM emission_factors`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// Find returns factors matching key case-insensitively. Empty status or
// owner arguments act as wildcards. Verified rows sort first so callers can
// take the head of the slice.
func (r *Repository) Find(ctx context.Context, key string, status domain.FactorStatus, owner string) ([]domain.EmissionFactor, error) {
	query := `SELECT key, activity_type, co2e_per_unit, unit, COALESCE(status, ''), COALESCE(added_by, ''), COALESCE(source_reference, ''), created_at
        FROM emission_factors WHERE lower(key) = lower($1)`
	args := []interface{}{key}

	if status != "" {
		args = append(args, string(status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if owner != "" {
		args = append(args, owner)
		query += fmt.Sprintf(` AND added_by = $%d`, len(args))
	}
	query += ` ORDER BY CASE COALESCE(status, '') WHEN 'verified' THEN 0 WHEN '' THEN 1 ELSE 2 END, created_at`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var factors []domain.EmissionFactor
	for rows.Next() {
		var f domain.EmissionFactor
		var statusText string
		if err := rows.Scan(&f.Key, &f.ActivityType, &f.CO2ePerUnit, &f.Unit, &statusText, &f.AddedBy, &f.SourceReference, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Status = domain.FactorStatus(statusText)
		factors = append(factors, f)
	}
	return factors, rows.Err()
}

// Insert stores a new factor row. Pending submissions keep their owner; the
// partial unique index on verified rows enforces one verified factor per key.
func (r *Repository) Insert(ctx context.Context, factor domain.EmissionFactor) error {
	const stmt = `INSERT INTO emission_factors (key, activity_type, co2e_per_unit, unit, status, added_by, source_reference)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`

	_, err := r.pool.Exec(ctx, stmt,
		factor.Key,
		string(factor.ActivityType),
		factor.CO2ePerUnit,
		factor.Unit,
		nullIfEmpty(string(factor.Status)),
		nullIfEmpty(factor.AddedBy),
		nullIfEmpty(factor.SourceReference),
	)
	return err
}

// UpsertVerified seeds or refreshes a curated verified factor.
func (r *Repository) UpsertVerified(ctx context.Context, factor domain.EmissionFactor) error {
	const stmt = `INSERT INTO emission_factors (key, activity_type, co2e_per_unit, unit, status, source_reference)
        VALUES ($1,$2,$3,$4,'verified',$5)
        ON CONFLICT (lower(key)) WHERE status = 'verified'
        DO UPDATE SET activity_type = EXCLUDED.activity_type,
                      co2e_per_unit = EXCLUDED.co2e_per_unit,
                      unit = EXCLUDED.unit,
                      source_reference = EXCLUDED.source_reference`

	_, err := r.pool.Exec(ctx, stmt,
		factor.Key,
		string(factor.ActivityType),
		factor.CO2ePerUnit,
		factor.Unit,
		nullIfEmpty(factor.SourceReference),
	)
	return err
}

// CreateUser inserts an account, translating duplicate keys into
// domain.ErrUsernameTaken.
func (r *Repository) CreateUser(ctx context.Context, user domain.User) error {
	const stmt = `INSERT INTO users (username, password_hash, created_at) VALUES ($1,$2,$3)`
	_, err := r.pool.Exec(ctx, stmt, user.Username, user.PasswordHash, user.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.ErrUsernameTaken
		}
		return err
	}
	return nil
}

// FindUser loads an account by username.
func (r *Repository) FindUser(ctx context.Context, username string) (*domain.User, error) {
	const query = `SELECT username, password_hash, created_at FROM users WHERE username = $1`

	var user domain.User
	err := r.pool.QueryRow(ctx, query, username).Scan(&user.Username, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, err
	}
	return &user, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
