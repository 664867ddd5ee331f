package crypto

import "errors"

var (
	// ErrInvalidKey indicates that the supplied key material cannot
	// produce a 256-bit AES key.
	ErrInvalidKey = errors.New("invalid cipher key")

	// ErrDecryptFailed is returned for any malformed ciphertext input:
	// bad hex, truncated data, or corrupt padding. The cause is deliberately
	// not detailed further to the caller.
	ErrDecryptFailed = errors.New("decryption failed")
)
