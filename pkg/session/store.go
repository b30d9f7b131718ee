package session

// Store persists session credentials between runs. Implementations are
// external collaborators to the connection core: the core only ever
// calls Load on startup, Save after a successful handshake, and Clear
// on logout.
type Store interface {
	// Load returns the persisted credentials, or (nil, nil) when none
	// are stored.
	Load() (*Credentials, error)

	// Save replaces the persisted credentials.
	Save(creds *Credentials) error

	// Clear removes any persisted credentials.
	Clear() error
}
