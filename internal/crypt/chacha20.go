package crypt

import (
	"fmt"

	"golang.org/x/crypto/chacha20"
)

// ChaCha20 runs one keystream per direction. Both sides share the key; the
// nonce's first byte tells the directions apart.
type ChaCha20 struct {
	send *chacha20.Cipher
	recv *chacha20.Cipher
}

const (
	nonceClient = 0x01
	nonceServer = 0x02
)

func NewChaCha20(key []byte) (Cipher, error) {
	c, err := newChaCha20(key, nonceClient, nonceServer)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// NewChaCha20Server builds the peer side, whose send stream is the client's
// receive stream. Loopback servers in tests use it.
func NewChaCha20Server(key []byte) (Cipher, error) {
	c, err := newChaCha20(key, nonceServer, nonceClient)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newChaCha20(key []byte, sendTag, recvTag byte) (*ChaCha20, error) {
	if len(key) != chacha20.KeySize {
		return nil, fmt.Errorf("chacha20 needs %d bytes, got %d: %w", chacha20.KeySize, len(key), ErrKeySize)
	}
	send, err := stream(key, sendTag)
	if err != nil {
		return nil, err
	}
	recv, err := stream(key, recvTag)
	if err != nil {
		return nil, err
	}
	return &ChaCha20{send: send, recv: recv}, nil
}

func stream(key []byte, tag byte) (*chacha20.Cipher, error) {
	nonce := make([]byte, chacha20.NonceSize)
	nonce[0] = tag
	c, err := chacha20.NewUnauthenticatedCipher(key, nonce)
	if err != nil {
		return nil, fmt.Errorf("failed to create chacha20 stream: %w", err)
	}
	return c, nil
}

func (c *ChaCha20) Name() string { return "chacha20" }

func (c *ChaCha20) Encrypt(dst, src []byte) { c.send.XORKeyStream(dst[:len(src)], src) }

func (c *ChaCha20) Decrypt(dst, src []byte) { c.recv.XORKeyStream(dst[:len(src)], src) }
