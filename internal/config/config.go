package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// lambda-search server. It aggregates all sub-configurations and is
// populated by merging values from environment variables, command-line
// flags, and an optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// App holds application-level settings: the cell-cipher key material
	// and JWT token parameters.
	App App `envPrefix:"APP_"`

	// Storage holds configuration for the relational index store and the
	// on-disk dump directory.
	Storage Storage `envPrefix:"STORAGE_"`

	// Server holds network address settings for the HTTP server.
	Server Server `envPrefix:"SERVER_"`

	// Ingest holds tuning knobs for the ingestion pipeline.
	Ingest Ingest `envPrefix:"INGEST_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// App holds application-level configuration values that control the cell
// cipher and token lifecycle.
type App struct {
	// EncryptionKey is the 256-bit cell-cipher key as 64 hex characters.
	// When set it takes precedence over the passphrase pair below.
	// Changing the key makes every previously built index unsearchable.
	// Env: APP_ENCRYPTION_KEY
	EncryptionKey string `env:"ENCRYPTION_KEY"`

	// EncryptionPassphrase, together with EncryptionSalt, derives the
	// cell-cipher key via Argon2id when EncryptionKey is empty. The salt
	// must stay fixed across restarts — derivation has to be deterministic
	// or the stored ciphertexts stop matching.
	// Env: APP_ENCRYPTION_PASSPHRASE
	EncryptionPassphrase string `env:"ENCRYPTION_PASSPHRASE"`

	// EncryptionSalt is the fixed Argon2id salt used with the passphrase.
	// Env: APP_ENCRYPTION_SALT
	EncryptionSalt string `env:"ENCRYPTION_SALT"`

	// PasswordHashKey is the secret key used when hashing user passwords
	// with HMAC-SHA256. Must be kept confidential.
	// Env: APP_PASSWORD_HASH_KEY
	PasswordHashKey string `env:"PASSWORD_HASH_KEY"`

	// TokenSignKey is the secret key used to sign and verify JWT tokens.
	// Env: APP_TOKEN_SIGN_KEY
	TokenSignKey string `env:"TOKEN_SIGN_KEY"`

	// TokenIssuer is the "iss" claim embedded in every issued JWT token.
	// Env: APP_TOKEN_ISSUER
	TokenIssuer string `env:"TOKEN_ISSUER"`

	// TokenDuration specifies how long a JWT token remains valid after
	// issuance (e.g. "1h", "30m").
	// Env: APP_TOKEN_DURATION
	TokenDuration time.Duration `env:"TOKEN_DURATION"`
}

// Storage groups the configuration for all persistence backends.
type Storage struct {
	// DB holds the relational database connection settings.
	DB DB `envPrefix:"DB_"`

	// Files holds the file-system settings for uploaded dump files.
	Files Files `envPrefix:"FILES_"`
}

// DB holds the relational database connection settings.
type DB struct {
	// DSN is the PostgreSQL connection string.
	// Env: STORAGE_DB_DATABASE_URI
	DSN string `env:"DATABASE_URI"`
}

// Files holds the file-system storage settings for uploaded dumps.
type Files struct {
	// DumpDir is the directory where uploaded source files are stored and
	// encrypted in place.
	// Env: STORAGE_FILES_DUMP_DIR
	DumpDir string `env:"DUMP_DIR"`
}

// Server holds network settings for the inbound HTTP transport.
type Server struct {
	// HTTPAddress is the TCP address on which the HTTP server listens,
	// in "host:port" format (e.g. "0.0.0.0:8080").
	// Env: SERVER_ADDRESS
	HTTPAddress string `env:"ADDRESS"`
}

// Ingest holds tuning knobs for the ingestion pipeline.
type Ingest struct {
	// BatchSize is the number of buffered index records flushed to the
	// store per bulk insert. Defaults to 5000 when zero.
	// Env: INGEST_BATCH_SIZE
	BatchSize int `env:"BATCH_SIZE"`

	// Workers is the number of concurrent ingestion workers. Independent
	// datasets may be processed in parallel; each dataset is always
	// processed by a single worker. Defaults to 1 when zero.
	// Env: INGEST_WORKERS
	Workers int `env:"WORKERS"`

	// PreviewRows caps the number of rows returned by the preview
	// endpoint. Defaults to 10 when zero.
	// Env: INGEST_PREVIEW_ROWS
	PreviewRows int `env:"PREVIEW_ROWS"`
}

// Default fallbacks applied by normalizeDefaults.
const (
	DefaultBatchSize   = 5000
	DefaultWorkers     = 1
	DefaultPreviewRows = 10
)

func (cfg *StructuredConfig) normalizeDefaults() {
	if cfg.Ingest.BatchSize <= 0 {
		cfg.Ingest.BatchSize = DefaultBatchSize
	}

	if cfg.Ingest.Workers <= 0 {
		cfg.Ingest.Workers = DefaultWorkers
	}

	if cfg.Ingest.PreviewRows <= 0 {
		cfg.Ingest.PreviewRows = DefaultPreviewRows
	}
}
