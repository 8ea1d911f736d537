// Package auth implements multi-principal authenticated HTTP access to the
// external systems. Each principal owns an OAuth access/refresh token pair;
// the client transparently refreshes on authorization failure and retries
// the original request exactly once.
package auth

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/atlaspest/salesbridge/pkg/repository"
)

// Credential is one principal's token material. The refresh token is
// provisioned externally and never rotated here; only the access token is
// overwritten on refresh.
type Credential struct {
	Principal    string    `json:"principal"`
	AccessToken  string    `json:"-"`
	RefreshToken string    `json:"-"`
	TokenURL     string    `json:"token_url"`
	ClientID     string    `json:"-"`
	ClientSecret string    `json:"-"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store defines the public contract for credential persistence.
type Store interface {
	Find(ctx context.Context, principal string) (*Credential, error)
	Exists(ctx context.Context, principal string) (bool, error)
	SaveAccessToken(ctx context.Context, principal, token string) error
}

type store struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewStore creates a Postgres-backed credential store.
func NewStore(db *sql.DB, logger *slog.Logger) Store {
	return &store{
		db:     db,
		logger: logger.With("system", "auth"),
	}
}

func (s *store) Find(ctx context.Context, principal string) (*Credential, error) {
	q := `
		SELECT key, access_token, refresh_token, token_url, client_id, client_secret, updated_at
		FROM principals WHERE key = $1`

	c, err := repository.QueryOne(ctx, s.db, q, []any{principal}, scanCredential)
	if err != nil {
		return nil, repository.MapError(err, ErrUnknownPrincipal, ErrUnknownPrincipal)
	}
	return &c, nil
}

func (s *store) Exists(ctx context.Context, principal string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(
		ctx,
		"SELECT EXISTS (SELECT 1 FROM principals WHERE key = $1)",
		principal,
	).Scan(&exists)
	return exists, err
}

func (s *store) SaveAccessToken(ctx context.Context, principal, token string) error {
	err := repository.ExecExpectOne(
		ctx, s.db,
		"UPDATE principals SET access_token = $2, updated_at = now() WHERE key = $1",
		principal, token,
	)
	if err != nil {
		return repository.MapError(err, ErrUnknownPrincipal, ErrUnknownPrincipal)
	}

	s.logger.Info("access token refreshed", "principal", principal)
	return nil
}

func scanCredential(sc repository.Scanner) (Credential, error) {
	var c Credential
	err := sc.Scan(
		&c.Principal,
		&c.AccessToken,
		&c.RefreshToken,
		&c.TokenURL,
		&c.ClientID,
		&c.ClientSecret,
		&c.UpdatedAt,
	)
	return c, err
}
