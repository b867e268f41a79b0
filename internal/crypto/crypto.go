// Package crypto provides NaCl secretbox encryption for the history file.
//
// Clipboard history routinely contains passwords and tokens, so the on-disk
// file can optionally be encrypted. A 32-byte symmetric key is derived from a
// user-supplied passphrase using HKDF-SHA256. Every sealed blob carries a
// random 24-byte nonce prepended to the ciphertext:
//
//	[ 24-byte nonce ][ ciphertext ]
//
// With an empty passphrase callers pass a nil key to the persistence layer
// and the file is written as plain JSON.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keySize   = 32
	nonceSize = 24
)

var hkdfInfo = []byte("klippy-history-v1")

// DeriveKey derives a 32-byte secretbox key from a passphrase using
// HKDF-SHA256. The same passphrase always derives the same key, so a history
// file written on one run can be opened on the next.
func DeriveKey(passphrase string) (*[keySize]byte, error) {
	h := hkdf.New(sha256.New, []byte(passphrase), nil, hkdfInfo)
	var key [keySize]byte
	if _, err := io.ReadFull(h, key[:]); err != nil {
		return nil, fmt.Errorf("key derivation: %w", err)
	}
	return &key, nil
}

// Seal encrypts plaintext with key, prepending a random nonce.
// Returns nonce+ciphertext.
func Seal(plaintext []byte, key *[keySize]byte) ([]byte, error) {
	var nonce [nonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, fmt.Errorf("nonce generation: %w", err)
	}
	return secretbox.Seal(nonce[:], plaintext, &nonce, key), nil
}

// Open decrypts a sealed blob (nonce+ciphertext) with key.
func Open(ciphertext []byte, key *[keySize]byte) ([]byte, error) {
	if len(ciphertext) < nonceSize {
		return nil, fmt.Errorf("ciphertext too short")
	}
	var nonce [nonceSize]byte
	copy(nonce[:], ciphertext[:nonceSize])
	plain, ok := secretbox.Open(nil, ciphertext[nonceSize:], &nonce, key)
	if !ok {
		return nil, fmt.Errorf("decryption failed (wrong passphrase?)")
	}
	return plain, nil
}
