package profile

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"portal/authgate/internal/model"
)

// Postgres is the production Store backed by pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) GetByUserID(ctx context.Context, userID string) (model.Profile, error) {
	var p model.Profile
	row := s.pool.QueryRow(ctx, `
		SELECT user_id, role, is_verified, first_name, last_name, created_at, updated_at
		FROM profiles
		WHERE user_id = $1
	`, userID)
	err := row.Scan(
		&p.UserID,
		&p.Role,
		&p.IsVerified,
		&p.FirstName,
		&p.LastName,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	return p, err
}

func (s *Postgres) Insert(ctx context.Context, p model.Profile) error {
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.UpdatedAt.IsZero() {
		p.UpdatedAt = now
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO profiles (user_id, role, is_verified, first_name, last_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO NOTHING
	`, p.UserID, p.Role, p.IsVerified, p.FirstName, p.LastName, p.CreatedAt, p.UpdatedAt)
	return err
}

// NewPool opens a pgx pool against url.
func NewPool(ctx context.Context, url string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
