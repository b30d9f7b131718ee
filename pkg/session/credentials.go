// Package session holds the credentials established by a successful
// handshake and the storage interface used to persist them between runs.
package session

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// Credentials is everything needed to restore an authenticated session
// without repeating the QR pairing flow.
type Credentials struct {
	ClientID    string `json:"client_id"`
	ClientToken string `json:"client_token"`
	ServerToken string `json:"server_token"`
	EncKey      []byte `json:"enc_key"`
	MacKey      []byte `json:"mac_key"`
}

// NewClientID returns a fresh random client identifier: 16 random bytes,
// base64 encoded.
func NewClientID() string {
	id := uuid.New()
	return base64.StdEncoding.EncodeToString(id[:])
}

// Complete reports whether the credentials are sufficient for the
// login/takeover restore path.
func (c *Credentials) Complete() bool {
	return c != nil &&
		c.ClientID != "" &&
		c.ClientToken != "" &&
		c.ServerToken != "" &&
		len(c.EncKey) == 32 &&
		len(c.MacKey) == 32
}

// Wipe zeroes the key material and clears the tokens.
func (c *Credentials) Wipe() {
	if c == nil {
		return
	}
	for i := range c.EncKey {
		c.EncKey[i] = 0
	}
	for i := range c.MacKey {
		c.MacKey[i] = 0
	}
	c.ClientToken = ""
	c.ServerToken = ""
}
