package network

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/VeltaLabs/veltalk-client/pkg/crypto"
	"github.com/VeltaLabs/veltalk-client/pkg/session"
)

// secretBlobSize is the length of the server-provided secret in the
// connection-info payload: peer public key (32), HMAC (32), encrypted
// key bundle (80).
const secretBlobSize = 144

// ConnInfo is the connection-info control payload delivered by the
// server after the QR code is scanned.
type ConnInfo struct {
	Secret      []byte
	ClientToken string
	ServerToken string
}

// HandshakeEngine drives the key agreement that produces the session
// enc/mac keys. One engine instance serves one handshake attempt; Abort
// discards all intermediate material.
type HandshakeEngine struct {
	log      zerolog.Logger
	clientID string

	keys      *crypto.KeyPair
	serverRef string
}

func NewHandshakeEngine(log zerolog.Logger, clientID string) *HandshakeEngine {
	return &HandshakeEngine{log: log, clientID: clientID}
}

// Begin generates a fresh ephemeral key pair for this attempt.
func (h *HandshakeEngine) Begin() error {
	keys, err := crypto.GenerateKeyPair()
	if err != nil {
		return &HandshakeError{Stage: "keygen", Err: err}
	}
	h.keys = keys
	h.log.Debug().Msg("generated ephemeral keypair")
	return nil
}

// SetServerRef records the server reference token from the init reply.
func (h *HandshakeEngine) SetServerRef(ref string) {
	h.serverRef = ref
}

// ServerRef returns the recorded reference token.
func (h *HandshakeEngine) ServerRef() string {
	return h.serverRef
}

// QRPayload assembles the pairing artifact for external display:
// serverRef "," base64(publicKey) "," clientId.
func (h *HandshakeEngine) QRPayload() (string, error) {
	if h.keys == nil {
		return "", &HandshakeError{Stage: "qr", Err: errors.New("no ephemeral keypair")}
	}
	if h.serverRef == "" {
		return "", &HandshakeError{Stage: "qr", Err: errors.New("no server ref")}
	}
	pub := base64.StdEncoding.EncodeToString(h.keys.Public[:])
	return h.serverRef + "," + pub + "," + h.clientID, nil
}

// ProcessConnInfo performs the key agreement against the server secret
// blob and, when every check passes, returns the derived credentials
// and a ready cipher channel.
//
// Layout of the 80-byte HKDF expansion: [0:32] wraps the encrypted key
// bundle, [32:64] validates the blob HMAC, [64:80] is the bundle IV.
// The bundle ciphertext is secret[64:], so the decryption input is
// expanded[64:80] || secret[64:].
func (h *HandshakeEngine) ProcessConnInfo(info ConnInfo) (*session.Credentials, *crypto.CipherChannel, error) {
	if h.keys == nil {
		return nil, nil, &HandshakeError{Stage: "agreement", Err: errors.New("no ephemeral keypair")}
	}
	if len(info.Secret) != secretBlobSize {
		return nil, nil, &HandshakeError{
			Stage: "agreement",
			Err:   fmt.Errorf("secret blob is %d bytes, want %d", len(info.Secret), secretBlobSize),
		}
	}

	shared, err := h.keys.SharedSecret(info.Secret[:32])
	if err != nil {
		return nil, nil, &HandshakeError{Stage: "agreement", Err: err}
	}

	expanded, err := crypto.ExpandSecret(shared, crypto.ExpandedSecretSize)
	if err != nil {
		return nil, nil, &HandshakeError{Stage: "expand", Err: err}
	}

	// Validate before decrypting anything.
	mac := hmac.New(sha256.New, expanded[32:64])
	mac.Write(info.Secret[:32])
	mac.Write(info.Secret[64:])
	if !hmac.Equal(mac.Sum(nil), info.Secret[32:64]) {
		return nil, nil, &HandshakeError{Stage: "validate", Err: errors.New("secret blob HMAC mismatch")}
	}

	bundle := make([]byte, 0, 16+len(info.Secret)-64)
	bundle = append(bundle, expanded[64:80]...)
	bundle = append(bundle, info.Secret[64:]...)

	keys, err := crypto.CBCDecrypt(expanded[:32], bundle)
	if err != nil {
		return nil, nil, &HandshakeError{Stage: "unwrap", Err: err}
	}
	if len(keys) != 64 {
		return nil, nil, &HandshakeError{
			Stage: "unwrap",
			Err:   fmt.Errorf("key bundle is %d bytes, want 64", len(keys)),
		}
	}

	creds := &session.Credentials{
		ClientID:    h.clientID,
		ClientToken: info.ClientToken,
		ServerToken: info.ServerToken,
		EncKey:      keys[:32],
		MacKey:      keys[32:64],
	}

	cipher, err := crypto.NewCipherChannel(creds.EncKey, creds.MacKey)
	if err != nil {
		return nil, nil, &HandshakeError{Stage: "promote", Err: err}
	}

	h.log.Info().Msg("session keys derived")
	return creds, cipher, nil
}

// Restore builds a cipher channel from previously persisted credentials
// for the login/takeover path.
func (h *HandshakeEngine) Restore(creds *session.Credentials) (*crypto.CipherChannel, error) {
	if !creds.Complete() {
		return nil, &HandshakeError{Stage: "restore", Err: errors.New("incomplete credentials")}
	}
	cipher, err := crypto.NewCipherChannel(creds.EncKey, creds.MacKey)
	if err != nil {
		return nil, &HandshakeError{Stage: "restore", Err: err}
	}
	return cipher, nil
}

// Abort discards all intermediate key material from this attempt.
func (h *HandshakeEngine) Abort() {
	if h.keys != nil {
		h.keys.Wipe()
		h.keys = nil
	}
	h.serverRef = ""
}
