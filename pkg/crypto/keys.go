package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/curve25519"
	"golang.org/x/crypto/hkdf"
)

var (
	ErrInvalidKeySize = errors.New("invalid key size")
)

const (
	// KeySize is the size of X25519 keys and derived symmetric keys.
	KeySize = 32

	// ExpandedSecretSize is the HKDF output length used by the handshake.
	ExpandedSecretSize = 80

	// KeyExpansionInfo is the fixed HKDF info label for session key expansion.
	KeyExpansionInfo = "Veltalk Key Expansion"
)

// KeyPair is an ephemeral X25519 key-agreement key pair.
type KeyPair struct {
	Private [KeySize]byte
	Public  [KeySize]byte
}

// GenerateKeyPair generates a clamped X25519 key pair.
func GenerateKeyPair() (*KeyPair, error) {
	kp := &KeyPair{}
	if _, err := rand.Read(kp.Private[:]); err != nil {
		return nil, fmt.Errorf("generate private scalar: %w", err)
	}

	// X25519 scalar clamping
	kp.Private[0] &= 248
	kp.Private[31] &= 127
	kp.Private[31] |= 64

	pub, err := curve25519.X25519(kp.Private[:], curve25519.Basepoint)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	copy(kp.Public[:], pub)

	return kp, nil
}

// SharedSecret computes the X25519 shared secret between the local private
// key and a peer public key.
func (kp *KeyPair) SharedSecret(peerPublic []byte) ([]byte, error) {
	if len(peerPublic) != KeySize {
		return nil, ErrInvalidKeySize
	}
	shared, err := curve25519.X25519(kp.Private[:], peerPublic)
	if err != nil {
		return nil, fmt.Errorf("key agreement: %w", err)
	}
	return shared, nil
}

// Wipe zeroes the private scalar.
func (kp *KeyPair) Wipe() {
	for i := range kp.Private {
		kp.Private[i] = 0
	}
}

// ExpandSecret stretches a raw shared secret to length bytes using
// HKDF-SHA256 with a zero salt and the protocol expansion label.
func ExpandSecret(shared []byte, length int) ([]byte, error) {
	out := make([]byte, length)
	r := hkdf.New(sha256.New, shared, nil, []byte(KeyExpansionInfo))
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf expand: %w", err)
	}
	return out, nil
}
