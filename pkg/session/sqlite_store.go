package session

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists credentials in a single-row SQLite table. Suited
// to deployments that already carry a local database for message history.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS credentials (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		client_id TEXT NOT NULL,
		client_token TEXT NOT NULL,
		server_token TEXT NOT NULL,
		enc_key BLOB NOT NULL,
		mac_key BLOB NOT NULL,
		updated_at INTEGER NOT NULL DEFAULT (strftime('%s','now'))
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Load returns the stored credentials, or (nil, nil) when the row is absent.
func (s *SQLiteStore) Load() (*Credentials, error) {
	row := s.db.QueryRow(
		`SELECT client_id, client_token, server_token, enc_key, mac_key FROM credentials WHERE id = 1`)

	var creds Credentials
	err := row.Scan(&creds.ClientID, &creds.ClientToken, &creds.ServerToken, &creds.EncKey, &creds.MacKey)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	return &creds, nil
}

// Save upserts the single credentials row.
func (s *SQLiteStore) Save(creds *Credentials) error {
	_, err := s.db.Exec(
		`INSERT INTO credentials (id, client_id, client_token, server_token, enc_key, mac_key, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, strftime('%s','now'))
		 ON CONFLICT(id) DO UPDATE SET
			client_id = excluded.client_id,
			client_token = excluded.client_token,
			server_token = excluded.server_token,
			enc_key = excluded.enc_key,
			mac_key = excluded.mac_key,
			updated_at = excluded.updated_at`,
		creds.ClientID, creds.ClientToken, creds.ServerToken, creds.EncKey, creds.MacKey)
	if err != nil {
		return fmt.Errorf("save credentials: %w", err)
	}
	return nil
}

// Clear deletes the credentials row.
func (s *SQLiteStore) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM credentials WHERE id = 1`); err != nil {
		return fmt.Errorf("clear credentials: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
