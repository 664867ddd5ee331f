package crypto

// Cipher is the deterministic cell cipher used on both sides of the search
// equation: every textual cell is encrypted through it at ingestion time,
// and every user query is encrypted through it at search time. Determinism
// (same plaintext, same key, same ciphertext) is the property that makes
// equality search over the encrypted corpus possible.
type Cipher interface {
	// Encrypt encrypts plaintext and returns the ciphertext as a lowercase
	// hex string. It never fails on well-formed input.
	Encrypt(plaintext string) (string, error)

	// Decrypt reverses Encrypt. It returns ErrDecryptFailed on malformed
	// hex, truncated ciphertext, or corrupt padding — never silent garbage.
	Decrypt(ciphertextHex string) (string, error)
}
