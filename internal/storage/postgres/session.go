package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/soni-790/storefront-api/internal/domain/auth"
)

const getSessionByHashSQL = `SELECT token_hash, user_id, role
		FROM sessions WHERE token_hash = $1`

var _ auth.Repository = (*SessionRepository)(nil)

// SessionRepository implements auth.Repository backed by PostgreSQL.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// FindByTokenHash looks up a session by its HMAC-SHA256 token hash.
func (r *SessionRepository) FindByTokenHash(ctx context.Context, hash string) (*auth.Session, error) {
	var s auth.Session
	err := r.pool.QueryRow(ctx, getSessionByHashSQL, hash).Scan(&s.TokenHash, &s.UserID, &s.Role)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, auth.ErrSessionNotFound
		}
		return nil, fmt.Errorf("finding session: %w", err)
	}
	return &s, nil
}
