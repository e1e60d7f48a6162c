package crypt

// None is a passthrough cipher, used when the server does not encrypt.
type None struct{}

func NewNone(key []byte) (Cipher, error) {
	return None{}, nil
}

func (None) Name() string { return "none" }

func (None) Encrypt(dst, src []byte) { copy(dst, src) }

func (None) Decrypt(dst, src []byte) { copy(dst, src) }
