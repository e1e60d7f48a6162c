package crypt

import (
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/crypto/pbkdf2"
)

var ErrKeySize = errors.New("invalid cipher key size")

// Cipher is the stream encryption stage of a transport. Both directions keep
// their own state, so bytes must pass through in the order they are sent or
// received. dst and src may overlap entirely.
type Cipher interface {
	// Name returns the cipher identifier used in config.
	Name() string

	// Encrypt transforms outbound bytes; len(dst) must be at least len(src).
	Encrypt(dst, src []byte)

	// Decrypt transforms inbound bytes; len(dst) must be at least len(src).
	Decrypt(dst, src []byte)
}

// NewFunc is a constructor function for creating ciphers
type NewFunc func(key []byte) (Cipher, error)

// Registry maps cipher names to constructor functions
var Registry = map[string]NewFunc{
	"none":     NewNone,
	"chacha20": NewChaCha20,
}

// New creates a cipher by name with the given key
func New(name string, key []byte) (Cipher, error) {
	fn, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown cipher: %s", name)
	}
	return fn(key)
}

// Names lists the registered ciphers in sorted order.
func Names() []string {
	names := make([]string, 0, len(Registry))
	for name := range Registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

const (
	KeySize       = 32
	kdfIterations = 100_000
	kdfLabel      = "shardlink-crypt"
)

// DeriveKey stretches the shared secret into key material for one connection;
// seed is the value sent in the login handshake.
func DeriveKey(secret string, seed uint32) []byte {
	salt := make([]byte, 4, 4+len(kdfLabel))
	binary.BigEndian.PutUint32(salt, seed)
	salt = append(salt, kdfLabel...)
	return pbkdf2.Key([]byte(secret), salt, kdfIterations, KeySize, sha256.New)
}
