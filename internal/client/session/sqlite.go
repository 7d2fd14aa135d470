package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/protopass/internal/dbx"
)

const (
	keyToken = "token"
	keyEmail = "email"
)

// stateRepo reads and writes session_state rows through db, which may be
// a transaction.
type stateRepo struct {
	db dbx.DBTX
}

func (r stateRepo) get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM session_state WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get session_state[%s]: %w", key, err)
	}
	return value, nil
}

func (r stateRepo) set(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO session_state (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set session_state[%s]: %w", key, err)
	}
	return nil
}

func (r stateRepo) clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM session_state`); err != nil {
		return fmt.Errorf("failed to clear session_state: %w", err)
	}
	return nil
}

// SQLiteStore persists the session across process restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an already migrated database, see OpenDatabase.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

func (s *SQLiteStore) Load(ctx context.Context) (State, error) {
	r := stateRepo{db: s.db}

	token, err := r.get(ctx, keyToken)
	if err != nil {
		return State{}, err
	}
	email, err := r.get(ctx, keyEmail)
	if err != nil {
		return State{}, err
	}
	return State{Token: token, Email: email}, nil
}

func (s *SQLiteStore) Save(ctx context.Context, st State) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		r := stateRepo{db: tx}
		if err := r.set(ctx, keyToken, st.Token); err != nil {
			return err
		}
		return r.set(ctx, keyEmail, st.Email)
	})
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return stateRepo{db: tx}.clear(ctx)
	})
}
