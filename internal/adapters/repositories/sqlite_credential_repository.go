package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"route-history-service/internal/ports"
)

// SQLite-backed implementation of the CredentialStore port. Tokens are read
// at call time so operators can rotate them without a restart.
type SqliteCredentialRepository struct{ DB *sql.DB }

func NewSqliteCredentialRepository(db *sql.DB) *SqliteCredentialRepository {
	return &SqliteCredentialRepository{DB: db}
}

// Get returns the stored credentials for a provider; a provider with no row
// yields zero-value credentials, not an error.
func (s *SqliteCredentialRepository) Get(ctx context.Context, providerName string) (ports.Credentials, error) {
	if s.DB == nil {
		return ports.Credentials{}, errors.New("sqlite credential repository: DB is nil")
	}

	query := `
	SELECT authorization, token
	FROM provider_credentials
	WHERE provider = ?;
	`
	var creds ports.Credentials
	err := s.DB.QueryRowContext(ctx, query, providerName).Scan(&creds.Authorization, &creds.Token)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Credentials{}, nil
	}
	if err != nil {
		return ports.Credentials{}, fmt.Errorf("credentials for %q: %w", providerName, err)
	}

	return creds, nil
}

// Put stores or replaces a provider's credentials.
func (s *SqliteCredentialRepository) Put(ctx context.Context, providerName string, creds ports.Credentials) error {
	if s.DB == nil {
		return errors.New("sqlite credential repository: DB is nil")
	}

	query := `
	INSERT OR REPLACE INTO provider_credentials (provider, authorization, token)
	VALUES (?, ?, ?);
	`
	if _, err := s.DB.ExecContext(ctx, query, providerName, creds.Authorization, creds.Token); err != nil {
		return fmt.Errorf("store credentials for %q: %w", providerName, err)
	}

	return nil
}
