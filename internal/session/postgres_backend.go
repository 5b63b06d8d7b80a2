package session

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Querier is the subset of pgxpool.Pool used by the Postgres backend.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresBackend stores sessions in the dashboard_sessions table.
type PostgresBackend struct {
	db  Querier
	now func() time.Time
}

// NewPostgresBackend returns a backend over an open pool.
func NewPostgresBackend(db Querier) *PostgresBackend {
	return &PostgresBackend{db: db, now: time.Now}
}

func (p *PostgresBackend) Get(ctx context.Context, key string) (string, error) {
	const query = `
        SELECT token FROM dashboard_sessions
        WHERE key=$1 AND expires_at > NOW()`

	var token string
	if err := p.db.QueryRow(ctx, query, key).Scan(&token); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrNotFound
		}
		return "", err
	}
	return token, nil
}

func (p *PostgresBackend) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	const query = `
        INSERT INTO dashboard_sessions (key, token, expires_at)
        VALUES ($1, $2, $3)
        ON CONFLICT (key) DO UPDATE
        SET token=EXCLUDED.token, expires_at=EXCLUDED.expires_at, updated_at=NOW()`

	_, err := p.db.Exec(ctx, query, key, value, p.now().Add(ttl).UTC())
	return err
}

func (p *PostgresBackend) Delete(ctx context.Context, key string) error {
	_, err := p.db.Exec(ctx, `DELETE FROM dashboard_sessions WHERE key=$1`, key)
	return err
}

// PurgeExpired removes rows past their expiry.
func (p *PostgresBackend) PurgeExpired(ctx context.Context) (int, error) {
	cmd, err := p.db.Exec(ctx, `DELETE FROM dashboard_sessions WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, err
	}
	return int(cmd.RowsAffected()), nil
}
