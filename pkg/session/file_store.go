package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const credentialsFile = "credentials.json"

// FileStore persists credentials as a JSON file in a private directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the storage directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Load returns the stored credentials, or (nil, nil) if no file exists.
func (s *FileStore) Load() (*Credentials, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, credentialsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("unmarshal credentials: %w", err)
	}
	return &creds, nil
}

// Save writes the credentials with owner-only permissions.
func (s *FileStore) Save(creds *Credentials) error {
	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.dir, credentialsFile), data, 0600); err != nil {
		return fmt.Errorf("write credentials: %w", err)
	}
	return nil
}

// Clear removes the credentials file.
func (s *FileStore) Clear() error {
	err := os.Remove(filepath.Join(s.dir, credentialsFile))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove credentials: %w", err)
	}
	return nil
}
