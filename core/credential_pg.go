package core

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const credentialSchema = `
CREATE TABLE IF NOT EXISTS client_credentials (
	slot       TEXT PRIMARY KEY,
	token      TEXT NOT NULL,
	user_id    TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PgCredentialStore keeps one credential row per slot.
type PgCredentialStore struct {
	db   *pgxpool.Pool
	slot string
}

func NewPgCredentialStore(db *pgxpool.Pool, slot string) *PgCredentialStore {
	if slot == "" {
		slot = "default"
	}
	return &PgCredentialStore{db: db, slot: slot}
}

// EnsureSchema creates the credentials table when missing.
func (s *PgCredentialStore) EnsureSchema(ctx context.Context) error {
	_, err := s.db.Exec(ctx, credentialSchema)
	return err
}

func (s *PgCredentialStore) Get(ctx context.Context) (Credential, bool) {
	const q = `SELECT token, user_id FROM client_credentials WHERE slot=$1`
	var c Credential
	err := s.db.QueryRow(ctx, q, s.slot).Scan(&c.Token, &c.UserID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return Credential{}, false
	case err != nil:
		// unreachable database reads as logged out
		return Credential{}, false
	}
	return c, c.Valid()
}

func (s *PgCredentialStore) Set(ctx context.Context, token, userID string) error {
	const q = `
INSERT INTO client_credentials (slot, token, user_id) VALUES ($1,$2,$3)
ON CONFLICT (slot) DO UPDATE SET token=EXCLUDED.token, user_id=EXCLUDED.user_id, updated_at=now()`
	_, err := s.db.Exec(ctx, q, s.slot, token, userID)
	return err
}

func (s *PgCredentialStore) Clear(ctx context.Context) error {
	const q = `DELETE FROM client_credentials WHERE slot=$1`
	_, err := s.db.Exec(ctx, q, s.slot)
	return err
}
