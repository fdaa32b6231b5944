// Package sqlitestore is a database-backed credentials.Store. Every write is
// durable on return, so it needs no explicit Persist.
package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/ISMendys/alexa-gemini/credentials"
	apperrors "github.com/ISMendys/alexa-gemini/internal/errors"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS user_credentials (
	user_id       TEXT PRIMARY KEY,
	access_token  TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	token_uri     TEXT NOT NULL,
	client_id     TEXT NOT NULL,
	client_secret TEXT NOT NULL,
	scopes        TEXT NOT NULL,
	email         TEXT NOT NULL DEFAULT '',
	expires_at    INTEGER,
	updated_at    INTEGER NOT NULL
)`

const selectColumns = `user_id, access_token, refresh_token, token_uri, client_id, client_secret, scopes, email, expires_at`

// Store persists credentials in a SQLite database.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

var _ credentials.Store = (*Store)(nil)

// Open opens (creating if needed) a SQLite store at path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Get(userID string) (*credentials.UserCredential, error) {
	row := s.sqlDB.QueryRow(`SELECT `+selectColumns+` FROM user_credentials WHERE user_id = ?`, userID)
	cred, err := scanCredential(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("get credential: %w", err)
	}
	return &cred, nil
}

func (s *Store) Put(cred credentials.UserCredential) error {
	if strings.TrimSpace(cred.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	scopes, err := encodeScopes(cred.Scopes)
	if err != nil {
		return err
	}
	var expiresAt sql.NullInt64
	if !cred.Expiry.IsZero() {
		expiresAt = sql.NullInt64{Int64: toMillis(cred.Expiry), Valid: true}
	}

	_, err = s.sqlDB.Exec(`
INSERT INTO user_credentials (
	user_id, access_token, refresh_token, token_uri, client_id, client_secret, scopes, email, expires_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(user_id) DO UPDATE SET
	access_token = excluded.access_token,
	refresh_token = excluded.refresh_token,
	token_uri = excluded.token_uri,
	client_id = excluded.client_id,
	client_secret = excluded.client_secret,
	scopes = excluded.scopes,
	email = excluded.email,
	expires_at = excluded.expires_at,
	updated_at = excluded.updated_at
`,
		cred.UserID,
		cred.AccessToken,
		cred.RefreshToken,
		cred.TokenURI,
		cred.ClientID,
		cred.ClientSecret,
		scopes,
		cred.Email,
		expiresAt,
		toMillis(s.now()),
	)
	if err != nil {
		return fmt.Errorf("put credential: %w", err)
	}
	return nil
}

func (s *Store) Delete(userID string) (bool, error) {
	res, err := s.sqlDB.Exec(`DELETE FROM user_credentials WHERE user_id = ?`, userID)
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete credential: %w", err)
	}
	return n > 0, nil
}

func (s *Store) List() ([]credentials.UserCredential, error) {
	return s.query(`SELECT ` + selectColumns + ` FROM user_credentials ORDER BY user_id`)
}

// ListExpired filters in Go so the expiry rule stays in one place
// (credentials.UserCredential.Expired).
func (s *Store) ListExpired(now time.Time) ([]credentials.UserCredential, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	out := all[:0]
	for _, c := range all {
		if c.Expired(now) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *Store) query(q string, args ...any) ([]credentials.UserCredential, error) {
	rows, err := s.sqlDB.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list credentials: %w", err)
	}
	defer rows.Close()

	var out []credentials.UserCredential
	for rows.Next() {
		cred, err := scanCredential(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, cred)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCredential(row scanner) (credentials.UserCredential, error) {
	var (
		cred      credentials.UserCredential
		scopesRaw string
		expiresAt sql.NullInt64
	)
	if err := row.Scan(
		&cred.UserID,
		&cred.AccessToken,
		&cred.RefreshToken,
		&cred.TokenURI,
		&cred.ClientID,
		&cred.ClientSecret,
		&scopesRaw,
		&cred.Email,
		&expiresAt,
	); err != nil {
		return credentials.UserCredential{}, err
	}
	scopes, err := decodeScopes(scopesRaw)
	if err != nil {
		return credentials.UserCredential{}, err
	}
	cred.Scopes = scopes
	if expiresAt.Valid {
		cred.Expiry = fromMillis(expiresAt.Int64)
	}
	return cred, nil
}

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func encodeScopes(scopes []string) (string, error) {
	if len(scopes) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(scopes)
	if err != nil {
		return "", fmt.Errorf("marshal scopes: %w", err)
	}
	return string(encoded), nil
}

func decodeScopes(value string) ([]string, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == "[]" {
		return nil, nil
	}
	var scopes []string
	if err := json.Unmarshal([]byte(value), &scopes); err != nil {
		return nil, fmt.Errorf("unmarshal scopes: %w", err)
	}
	return scopes, nil
}
