// Package vault contains the encryption and blob-storage primitives for
// uploaded tenancy contracts. The cipher is injected into the vault
// service so key management stays a deployment concern.
package vault

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/chacha20poly1305"
)

// Cipher is the encrypt/decrypt capability injected into the vault service.
// Decrypt failures must be reported as errors, never panic; callers treat
// them as "contract unavailable".
type Cipher interface {
	Encrypt(plaintext []byte) ([]byte, error)
	Decrypt(blob []byte) ([]byte, error)
}

// KeyLen is the required symmetric key length.
const KeyLen = chacha20poly1305.KeySize

// Keychain is an XChaCha20-Poly1305 Cipher with a one-byte key-version
// envelope: blob = version || nonce || ciphertext. New blobs are sealed
// with the active version; any known version can still be opened, which
// allows key rotation without re-encrypting stored contracts.
type Keychain struct {
	active byte
	keys   map[byte][]byte
}

// NewKeychain constructs a Keychain. keys maps version -> 32-byte key;
// active selects the version used for new encryptions.
func NewKeychain(active byte, keys map[byte][]byte) (*Keychain, error) {
	if len(keys) == 0 {
		return nil, errors.New("keychain: no keys")
	}
	if _, ok := keys[active]; !ok {
		return nil, fmt.Errorf("keychain: active version %d missing", active)
	}
	for v, k := range keys {
		if len(k) != KeyLen {
			return nil, fmt.Errorf("keychain: version %d: key must be %d bytes", v, KeyLen)
		}
	}
	cp := make(map[byte][]byte, len(keys))
	for v, k := range keys {
		cp[v] = append([]byte(nil), k...)
	}
	return &Keychain{active: active, keys: cp}, nil
}

// Encrypt seals plaintext with the active key under a random nonce.
func (c *Keychain) Encrypt(plaintext []byte) ([]byte, error) {
	aead, err := chacha20poly1305.NewX(c.keys[c.active])
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, chacha20poly1305.NonceSizeX)
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	out := make([]byte, 0, 1+len(nonce)+len(plaintext)+aead.Overhead())
	out = append(out, c.active)
	out = append(out, nonce...)
	out = append(out, aead.Seal(nil, nonce, plaintext, nil)...)
	return out, nil
}

// Decrypt opens a blob produced by Encrypt with any known key version.
func (c *Keychain) Decrypt(blob []byte) ([]byte, error) {
	if len(blob) < 1+chacha20poly1305.NonceSizeX {
		return nil, errors.New("keychain: blob too short")
	}
	key, ok := c.keys[blob[0]]
	if !ok {
		return nil, fmt.Errorf("keychain: unknown key version %d", blob[0])
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := blob[1 : 1+chacha20poly1305.NonceSizeX]
	ct := blob[1+chacha20poly1305.NonceSizeX:]
	return aead.Open(nil, nonce, ct, nil)
}

// DigestHex returns the hex SHA-256 of b. Recorded for plaintext
// integrity/auditing before encryption.
func DigestHex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
