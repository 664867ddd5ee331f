package crypto

import (
	"encoding/hex"
	"fmt"

	"golang.org/x/crypto/argon2"

	"github.com/MKhiriev/lambda-search/internal/config"
)

// Argon2id parameters for passphrase-based key derivation, following the
// OWASP (2024) recommendation. Unlike a login KDF, this derivation must be
// deterministic across restarts — the salt comes from configuration, never
// from a CSPRNG — or the stored index would stop matching re-encrypted
// queries.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024 // 64 MiB
	argonThreads = 4
	argonKeyLen  = 32 // 256 bits
)

// KeyFromConfig resolves the 32-byte cell-cipher key from configuration:
// a direct 64-hex-character key when present, otherwise Argon2id over the
// passphrase and the fixed configured salt.
func KeyFromConfig(cfg config.App) ([]byte, error) {
	if cfg.EncryptionKey != "" {
		key, err := hex.DecodeString(cfg.EncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("%w: encryption key is not valid hex", ErrInvalidKey)
		}
		if len(key) != argonKeyLen {
			return nil, fmt.Errorf("%w: encryption key must be %d bytes, got %d", ErrInvalidKey, argonKeyLen, len(key))
		}
		return key, nil
	}

	if cfg.EncryptionPassphrase == "" || cfg.EncryptionSalt == "" {
		return nil, fmt.Errorf("%w: neither key nor passphrase+salt configured", ErrInvalidKey)
	}

	return DeriveKey(cfg.EncryptionPassphrase, []byte(cfg.EncryptionSalt)), nil
}

// DeriveKey derives a 256-bit key from passphrase and salt with Argon2id.
// Same passphrase and salt always produce the same key.
func DeriveKey(passphrase string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(passphrase),
		salt,
		argonTime,
		argonMemory,
		argonThreads,
		argonKeyLen,
	)
}
