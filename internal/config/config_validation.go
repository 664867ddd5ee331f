// SPDX-License-Identifier: Apache-2.0

package config

import "encoding/hex"

// validate checks that the final merged [StructuredConfig] satisfies all
// application invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or a descriptive error otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.Storage.Files.DumpDir == "" {
		return ErrInvalidStorageConfigs
	}

	if err := cfg.validateKeyMaterial(); err != nil {
		return err
	}

	return nil
}

// validateKeyMaterial checks that exactly one usable source of the
// cell-cipher key is configured: either a 64-hex-character key or a
// passphrase with a fixed salt. The index outlives the process, so key
// material must be reconstructible on every start.
func (cfg *StructuredConfig) validateKeyMaterial() error {
	if cfg.App.EncryptionKey != "" {
		raw, err := hex.DecodeString(cfg.App.EncryptionKey)
		if err != nil || len(raw) != 32 {
			return ErrInvalidEncryptionKey
		}
		return nil
	}

	if cfg.App.EncryptionPassphrase == "" || cfg.App.EncryptionSalt == "" {
		return ErrInvalidEncryptionKey
	}

	return nil
}
