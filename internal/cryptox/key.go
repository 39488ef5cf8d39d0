// Package cryptox implements the envelope codec used to protect sensitive
// record fields at rest: AES-256-GCM with a fresh random nonce per call and a
// key id embedded in every blob so that retired keys stay usable for reads.
package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"github.com/dmitrijs2005/triagekeeper/internal/common"
	"golang.org/x/crypto/argon2"
)

// KeySize is the AES-256 key length in bytes.
const KeySize = 32

// keyPadByte fills short secrets up to KeySize.
const keyPadByte = '0'

// Key is a raw AES-256 key.
type Key [KeySize]byte

// KeyID identifies a key inside a Keyring. Zero is reserved as "no key".
type KeyID uint8

// DeriveKey normalizes a configured secret to KeySize bytes by right-padding
// it with '0' and truncating the result. Blobs written by the browser client
// used the same derivation.
//
// TODO: this is not a KDF; switch deployments to DeriveKeyArgon2 and
// re-encrypt existing rows under a new key id.
func DeriveKey(secret string) Key {
	var k Key
	n := copy(k[:], secret)
	for i := n; i < KeySize; i++ {
		k[i] = keyPadByte
	}
	return k
}

// DeriveKeyArgon2 stretches secret with Argon2id using the given salt.
func DeriveKeyArgon2(secret string, salt []byte) Key {
	var k Key
	raw := argon2.IDKey([]byte(secret), salt, 1, 64*1024, 4, KeySize)
	copy(k[:], raw)
	common.WipeByteArray(raw)
	return k
}

// Keyring is the immutable set of keys known to the process: one primary key
// used for encryption and any number of retired keys kept for decryption.
// It is safe for concurrent use.
type Keyring struct {
	primary KeyID
	aeads   map[KeyID]cipher.AEAD
}

// NewKeyring builds a keyring with primary as the encryption key. retired may
// be nil; it must not contain primaryID.
func NewKeyring(primaryID KeyID, primary Key, retired map[KeyID]Key) (*Keyring, error) {
	if primaryID == 0 {
		return nil, fmt.Errorf("key id 0 is reserved")
	}
	if _, dup := retired[primaryID]; dup {
		return nil, fmt.Errorf("key id %d is both primary and retired", primaryID)
	}

	kr := &Keyring{primary: primaryID, aeads: make(map[KeyID]cipher.AEAD, len(retired)+1)}

	add := func(id KeyID, k Key) error {
		if id == 0 {
			return fmt.Errorf("key id 0 is reserved")
		}
		block, err := aes.NewCipher(k[:])
		if err != nil {
			return fmt.Errorf("key %d: %w", id, err)
		}
		gcm, err := cipher.NewGCM(block)
		if err != nil {
			return fmt.Errorf("key %d: %w", id, err)
		}
		kr.aeads[id] = gcm
		return nil
	}

	if err := add(primaryID, primary); err != nil {
		return nil, err
	}
	for id, k := range retired {
		if err := add(id, k); err != nil {
			return nil, err
		}
	}
	return kr, nil
}

// Primary returns the id used for new blobs.
func (kr *Keyring) Primary() KeyID {
	return kr.primary
}

func (kr *Keyring) aead(id KeyID) (cipher.AEAD, bool) {
	a, ok := kr.aeads[id]
	return a, ok
}
