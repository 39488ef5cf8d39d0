package cryptox

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
)

// NonceSize is the AES-GCM standard nonce length.
const NonceSize = 12

// headerSize is the key id byte preceding the nonce.
const headerSize = 1

var (
	// ErrEncryption wraps every failure to produce a blob.
	ErrEncryption = errors.New("encryption failed")
	// ErrDecryption wraps every failure to open a blob: bad encoding, short
	// input, unknown key id or failed authentication.
	ErrDecryption = errors.New("decryption failed")
)

// Codec turns plaintext strings into self-contained envelope blobs and back.
//
// Blob layout before base64 (standard alphabet, padded):
//
//	| key id (1) | nonce (12) | ciphertext + GCM tag (len(plaintext)+16) |
type Codec struct {
	keys *Keyring
	rand io.Reader
}

// NewCodec returns a codec encrypting under the keyring's primary key.
func NewCodec(keys *Keyring) *Codec {
	return &Codec{keys: keys, rand: rand.Reader}
}

// Encrypt seals plaintext under the primary key with a freshly drawn nonce.
func (c *Codec) Encrypt(plaintext string) (string, error) {
	id := c.keys.Primary()
	gcm, ok := c.keys.aead(id)
	if !ok {
		return "", fmt.Errorf("%w: primary key %d not loaded", ErrEncryption, id)
	}

	buf := make([]byte, headerSize+NonceSize, headerSize+NonceSize+len(plaintext)+gcm.Overhead())
	buf[0] = byte(id)
	nonce := buf[headerSize : headerSize+NonceSize]
	if _, err := io.ReadFull(c.rand, nonce); err != nil {
		return "", fmt.Errorf("%w: nonce: %v", ErrEncryption, err)
	}

	sealed := gcm.Seal(buf, nonce, []byte(plaintext), buf[:headerSize])
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a blob produced by Encrypt. It never returns partial or
// unauthenticated plaintext.
func (c *Codec) Decrypt(blob string) (string, error) {
	raw, err := base64.StdEncoding.Strict().DecodeString(blob)
	if err != nil {
		return "", fmt.Errorf("%w: invalid encoding: %v", ErrDecryption, err)
	}
	if len(raw) < headerSize+NonceSize {
		return "", fmt.Errorf("%w: blob too short", ErrDecryption)
	}

	id := KeyID(raw[0])
	gcm, ok := c.keys.aead(id)
	if !ok {
		return "", fmt.Errorf("%w: unknown key id %d", ErrDecryption, id)
	}

	nonce := raw[headerSize : headerSize+NonceSize]
	plaintext, err := gcm.Open(nil, nonce, raw[headerSize+NonceSize:], raw[:headerSize])
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecryption, err)
	}
	return string(plaintext), nil
}
