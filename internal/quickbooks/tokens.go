package quickbooks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Token is one stored OAuth grant for a QuickBooks company (realm).
type Token struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	RealmID      string
}

func (t Token) expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }

type TokenStore interface {
	// Latest returns ErrNotConnected when nothing is stored.
	Latest(ctx context.Context) (Token, error)
	Save(ctx context.Context, t Token) error
	DeleteAll(ctx context.Context) error
}

type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PostgresTokenStore struct {
	pool DBPool
}

func NewPostgresTokenStore(pool DBPool) *PostgresTokenStore {
	return &PostgresTokenStore{pool: pool}
}

func (s *PostgresTokenStore) Latest(ctx context.Context) (Token, error) {
	var t Token
	err := s.pool.QueryRow(ctx, `
		SELECT access_token, refresh_token, expires_at, realm_id
		FROM quickbooks_tokens
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&t.AccessToken, &t.RefreshToken, &t.ExpiresAt, &t.RealmID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Token{}, ErrNotConnected
		}
		return Token{}, fmt.Errorf("load quickbooks token: %w", err)
	}
	return t, nil
}

func (s *PostgresTokenStore) Save(ctx context.Context, t Token) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO quickbooks_tokens (access_token, refresh_token, expires_at, realm_id)
		VALUES ($1, $2, $3, $4)
	`, t.AccessToken, t.RefreshToken, t.ExpiresAt, t.RealmID)
	if err != nil {
		return fmt.Errorf("store quickbooks token: %w", err)
	}
	return nil
}

func (s *PostgresTokenStore) DeleteAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM quickbooks_tokens`); err != nil {
		return fmt.Errorf("delete quickbooks tokens: %w", err)
	}
	return nil
}
