package config

import "errors"

// Validation errors returned by [StructuredConfig.validate] when required
// configuration groups are incomplete or invalid.
var (
	// ErrInvalidStorageConfigs indicates invalid storage settings
	// (for example, empty DSN or missing dump directory).
	ErrInvalidStorageConfigs = errors.New("invalid storage configuration")

	// ErrInvalidEncryptionKey indicates that the cell-cipher key material
	// is missing or malformed: neither a 64-hex-character key nor a
	// passphrase+salt pair was provided.
	ErrInvalidEncryptionKey = errors.New("invalid encryption key configuration")
)
