// Package crypto implements the deterministic per-cell cipher of the
// lambda-search index.
//
// The cipher is AES-256 in CBC mode with a FIXED initialization vector
// derived from the first 16 bytes of the key. This is a deliberate design
// trade-off, not an oversight: a fixed IV makes encryption deterministic,
// which is what allows a re-encrypted search query to be equality-matched
// against the stored corpus without ever decrypting it. The price is that
// identical plaintexts produce identical ciphertexts across the whole
// corpus, leaking equality and frequency information. Callers must not
// assume IND-CPA security for this cipher.
package crypto

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/hex"
	"fmt"
)

// CellCipher encrypts and decrypts individual text values with AES-256-CBC
// under a process-wide immutable key. Safe for concurrent use; all state is
// read-only after construction.
type CellCipher struct {
	key []byte
	iv  []byte
}

// NewCellCipher constructs a [CellCipher] from a 32-byte key. The IV is the
// first aes.BlockSize bytes of the key itself, which fixes it for the
// lifetime of the key and makes encryption deterministic.
func NewCellCipher(key []byte) (*CellCipher, error) {
	if len(key) != 32 {
		return nil, fmt.Errorf("%w: key must be 32 bytes, got %d", ErrInvalidKey, len(key))
	}

	return &CellCipher{
		key: append([]byte(nil), key...),
		iv:  append([]byte(nil), key[:aes.BlockSize]...),
	}, nil
}

// Encrypt implements [Cipher]. The plaintext is padded to the AES block
// size with PKCS#7 padding, encrypted in CBC mode with the fixed IV, and
// rendered as a lowercase hex string.
func (c *CellCipher) Encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("error creating AES cipher: %w", err)
	}

	padded := pad([]byte(plaintext), aes.BlockSize)

	encrypted := make([]byte, len(padded))
	cipher.NewCBCEncrypter(block, c.iv).CryptBlocks(encrypted, padded)

	return hex.EncodeToString(encrypted), nil
}

// Decrypt implements [Cipher]. It decodes the hex input, decrypts it in CBC
// mode with the fixed IV, and strips the PKCS#7 padding. Any malformation —
// bad hex, empty or non-block-multiple ciphertext, corrupt padding —
// surfaces as [ErrDecryptFailed].
func (c *CellCipher) Decrypt(ciphertextHex string) (string, error) {
	encrypted, err := hex.DecodeString(ciphertextHex)
	if err != nil {
		return "", fmt.Errorf("%w: invalid hex input", ErrDecryptFailed)
	}

	if len(encrypted) == 0 || len(encrypted)%aes.BlockSize != 0 {
		return "", fmt.Errorf("%w: ciphertext length is not a multiple of the block size", ErrDecryptFailed)
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", fmt.Errorf("error creating AES cipher: %w", err)
	}

	decrypted := make([]byte, len(encrypted))
	cipher.NewCBCDecrypter(block, c.iv).CryptBlocks(decrypted, encrypted)

	plaintext, err := unpad(decrypted, aes.BlockSize)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// pad appends PKCS#7 padding: n bytes of value n, where n is the distance
// to the next block boundary (a full block when already aligned).
func pad(data []byte, blockSize int) []byte {
	padLen := blockSize - len(data)%blockSize
	return append(data, bytes.Repeat([]byte{byte(padLen)}, padLen)...)
}

// unpad strips PKCS#7 padding, validating every padding byte so corruption
// is detected rather than producing truncated garbage.
func unpad(data []byte, blockSize int) ([]byte, error) {
	padLen := int(data[len(data)-1])
	if padLen == 0 || padLen > blockSize || padLen > len(data) {
		return nil, fmt.Errorf("%w: corrupt padding", ErrDecryptFailed)
	}

	for _, b := range data[len(data)-padLen:] {
		if int(b) != padLen {
			return nil, fmt.Errorf("%w: corrupt padding", ErrDecryptFailed)
		}
	}

	return data[:len(data)-padLen], nil
}
