// Package cryptox seals persisted session records at rest.
//
// A storage key is derived from the configured storage secret and a random
// per-database salt with Argon2id; records are then serialized to JSON and
// encrypted with AES-256-GCM under a fresh 12-byte nonce.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the length of derived storage keys (AES-256).
const KeySize = 32

// ErrEmptySecret is returned when a sealer is requested without a secret.
var ErrEmptySecret = errors.New("empty storage secret")

// DeriveStorageKey stretches secret with salt into a KeySize-byte key.
func DeriveStorageKey(secret []byte, salt []byte) []byte {
	return argon2.IDKey(secret, salt, 1, 64*1024, 4, KeySize)
}

// Sealer encrypts and decrypts JSON-serializable values with one AES-GCM key.
// It is safe for concurrent use.
type Sealer struct {
	aead cipher.AEAD
}

// NewSealer derives a key from secret and salt and prepares an AES-GCM AEAD.
func NewSealer(secret, salt []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	key := DeriveStorageKey(secret, salt)
	defer common.WipeByteArray(key)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("new gcm: %w", err)
	}
	return &Sealer{aead: aead}, nil
}

// Seal serializes v to JSON and encrypts it. The ciphertext and the random
// nonce are returned separately; both are needed by Open.
func (s *Sealer) Seal(v any) (ciphertext, nonce []byte, err error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, nil, err
	}
	defer common.WipeByteArray(plaintext)

	nonce = common.GenerateRandByteArray(s.aead.NonceSize())
	ciphertext = s.aead.Seal(nil, nonce, plaintext, nil)
	return ciphertext, nonce, nil
}

// Open decrypts ciphertext with nonce and unmarshals the JSON into v.
// Tampered data or a different key yields an error.
func (s *Sealer) Open(ciphertext, nonce []byte, v any) error {
	if len(nonce) != s.aead.NonceSize() {
		return fmt.Errorf("invalid nonce size %d", len(nonce))
	}
	plaintext, err := s.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(plaintext)

	return json.Unmarshal(plaintext, v)
}
