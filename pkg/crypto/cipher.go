// Package crypto provides the key agreement and symmetric framing
// primitives of the Veltalk session layer: X25519 key pairs, HKDF secret
// expansion, and the encrypt-then-MAC cipher channel every application
// frame passes through.
package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
)

var (
	ErrAuthFailed   = errors.New("message authentication failed")
	ErrShortMessage = errors.New("message too short")
	ErrBadPadding   = errors.New("invalid padding")
)

const (
	// MacSize is the length of the HMAC-SHA256 tag prefixing each blob.
	MacSize = sha256.Size

	// IVSize is the AES block size used for CBC IVs.
	IVSize = aes.BlockSize
)

// CipherChannel authenticates and encrypts opaque payloads with the
// session keys established by the handshake. Output layout is
// tag(32) || iv(16) || ciphertext, with the HMAC computed over iv || ciphertext.
type CipherChannel struct {
	encKey []byte
	macKey []byte
}

// NewCipherChannel builds a channel from 32-byte encryption and MAC keys.
func NewCipherChannel(encKey, macKey []byte) (*CipherChannel, error) {
	if len(encKey) != KeySize || len(macKey) != KeySize {
		return nil, ErrInvalidKeySize
	}
	c := &CipherChannel{
		encKey: make([]byte, KeySize),
		macKey: make([]byte, KeySize),
	}
	copy(c.encKey, encKey)
	copy(c.macKey, macKey)
	return c, nil
}

// Encrypt seals plaintext under a fresh random IV and prepends the
// authentication tag.
func (c *CipherChannel) Encrypt(plaintext []byte) ([]byte, error) {
	iv := make([]byte, IVSize)
	if _, err := rand.Read(iv); err != nil {
		return nil, fmt.Errorf("generate iv: %w", err)
	}

	ct, err := CBCEncrypt(c.encKey, iv, plaintext)
	if err != nil {
		return nil, err
	}

	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(ct)
	return append(mac.Sum(nil), ct...), nil
}

// Decrypt verifies the tag before touching the ciphertext. On any
// mismatch it fails closed and returns no plaintext.
func (c *CipherChannel) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < MacSize+IVSize+aes.BlockSize {
		return nil, ErrShortMessage
	}

	received := blob[:MacSize]
	ct := blob[MacSize:]

	mac := hmac.New(sha256.New, c.macKey)
	mac.Write(ct)
	if !hmac.Equal(received, mac.Sum(nil)) {
		return nil, ErrAuthFailed
	}

	return CBCDecrypt(c.encKey, ct)
}

// Wipe zeroes the session keys.
func (c *CipherChannel) Wipe() {
	for i := range c.encKey {
		c.encKey[i] = 0
	}
	for i := range c.macKey {
		c.macKey[i] = 0
	}
}

// CBCEncrypt encrypts plaintext with AES-CBC under key, prepending the iv
// to the returned ciphertext. The plaintext is PKCS#7 padded.
func CBCEncrypt(key, iv, plaintext []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}
	if len(iv) != block.BlockSize() {
		return nil, fmt.Errorf("iv size %d, want %d", len(iv), block.BlockSize())
	}

	padded := pkcs7Pad(plaintext, block.BlockSize())
	out := make([]byte, len(iv)+len(padded))
	copy(out, iv)

	cipher.NewCBCEncrypter(block, iv).CryptBlocks(out[len(iv):], padded)
	return out, nil
}

// CBCDecrypt decrypts an iv-prefixed AES-CBC ciphertext and strips the
// PKCS#7 padding.
func CBCDecrypt(key, data []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("create cipher: %w", err)
	}

	bs := block.BlockSize()
	if len(data) < 2*bs || len(data)%bs != 0 {
		return nil, ErrShortMessage
	}

	iv, ct := data[:bs], data[bs:]
	plain := make([]byte, len(ct))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, ct)

	return pkcs7Unpad(plain, bs)
}

func pkcs7Pad(data []byte, blockSize int) []byte {
	pad := blockSize - len(data)%blockSize
	out := make([]byte, len(data)+pad)
	copy(out, data)
	for i := len(data); i < len(out); i++ {
		out[i] = byte(pad)
	}
	return out
}

func pkcs7Unpad(data []byte, blockSize int) ([]byte, error) {
	if len(data) == 0 || len(data)%blockSize != 0 {
		return nil, ErrBadPadding
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > blockSize || pad > len(data) {
		return nil, ErrBadPadding
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, ErrBadPadding
		}
	}
	return data[:len(data)-pad], nil
}
