package config

import (
	"errors"
	"flag"
	"net"
	"strconv"
	"strings"
	"time"
)

// NetAddress holds structured network address data for host and port.
// It implements the flag.Value interface.
type NetAddress struct {
	Host string
	Port int
}

// ParseFlags parses all configuration flags.
//
// Flags:
//
//	-a server address in format [host]:[port]
//	-d database DSN
//	-dump-dir directory for uploaded dump files
//	-encryption-key cell-cipher key as 64 hex characters
//	-encryption-passphrase passphrase to derive the cell-cipher key from
//	-encryption-salt fixed salt for passphrase key derivation
//	-batch-size index records per bulk insert
//	-ingest-workers concurrent ingestion workers
//	-preview-rows rows returned by the preview endpoint
//	-c/-config json file path with configs
//	-password-hash-key password hash key
//	-token-sign-key token signing key
//	-token-issuer token issuer name
//	-token-duration token duration (e.g., "1h", "30m")
func ParseFlags() *StructuredConfig {
	var serverAddress NetAddress
	var databaseDSN string
	var dumpDir string
	var encryptionKey string
	var encryptionPassphrase string
	var encryptionSalt string
	var batchSize int
	var ingestWorkers int
	var previewRows int
	var jsonConfigPath string
	var passwordHashKey string
	var tokenSignKey string
	var tokenIssuer string
	var tokenDuration time.Duration

	flag.Var(&serverAddress, "a", "Net address host:port")
	flag.StringVar(&databaseDSN, "d", "", "Database DSN")
	flag.StringVar(&dumpDir, "dump-dir", "", "Directory for uploaded dump files")
	flag.StringVar(&encryptionKey, "encryption-key", "", "Cell-cipher key (64 hex characters)")
	flag.StringVar(&encryptionPassphrase, "encryption-passphrase", "", "Passphrase to derive the cell-cipher key")
	flag.StringVar(&encryptionSalt, "encryption-salt", "", "Fixed salt for passphrase key derivation")
	flag.IntVar(&batchSize, "batch-size", 0, "Index records per bulk insert")
	flag.IntVar(&ingestWorkers, "ingest-workers", 0, "Concurrent ingestion workers")
	flag.IntVar(&previewRows, "preview-rows", 0, "Rows returned by the preview endpoint")
	flag.StringVar(&jsonConfigPath, "c", "", "JSON config file path")
	flag.StringVar(&jsonConfigPath, "config", "", "JSON config file path (alias)")
	flag.StringVar(&passwordHashKey, "password-hash-key", "", "Password hash key")
	flag.StringVar(&tokenSignKey, "token-sign-key", "", "Token signing key")
	flag.StringVar(&tokenIssuer, "token-issuer", "", "Token issuer")
	flag.DurationVar(&tokenDuration, "token-duration", 0, "Token duration (e.g., 1h, 30m)")

	flag.Parse()

	return &StructuredConfig{
		App: App{
			EncryptionKey:        encryptionKey,
			EncryptionPassphrase: encryptionPassphrase,
			EncryptionSalt:       encryptionSalt,
			PasswordHashKey:      passwordHashKey,
			TokenSignKey:         tokenSignKey,
			TokenIssuer:          tokenIssuer,
			TokenDuration:        tokenDuration,
		},
		Storage: Storage{
			DB: DB{
				DSN: databaseDSN,
			},
			Files: Files{
				DumpDir: dumpDir,
			},
		},
		Server: Server{
			HTTPAddress: serverAddress.String(),
		},
		Ingest: Ingest{
			BatchSize:   batchSize,
			Workers:     ingestWorkers,
			PreviewRows: previewRows,
		},
		JSONFilePath: jsonConfigPath,
	}
}

// String returns a canonical host:port string for a NetAddress.
func (a *NetAddress) String() string {
	if a.Host == "" && a.Port == 0 {
		return ""
	}

	return a.Host + ":" + strconv.Itoa(a.Port)
}

// Set parses the input string of form host:port and populates the NetAddress.
// It validates the port range, checks IP correctness unless host is "localhost",
// and returns an error if the format or values are invalid.
func (a *NetAddress) Set(s string) error {
	hostAndPort := strings.Split(s, ":")
	if len(hostAndPort) != 2 {
		return errors.New("need address in a form `host:port`")
	}

	host := hostAndPort[0]
	port, err := strconv.Atoi(hostAndPort[1])
	if err != nil {
		return err
	}

	if port < 1 {
		return errors.New("port number is a positive integer")
	}

	if host != "localhost" {
		ip := net.ParseIP(hostAndPort[0])
		if ip == nil {
			return errors.New("incorrect IP-address provided")
		}
	}

	a.Host = host
	a.Port = port
	return nil
}
