package service

import (
	"github.com/MKhiriev/lambda-search/internal/config"
	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/store"
)

type Services struct {
	AuthService     AuthService
	SearchService   SearchService
	DatabaseService DatabaseService
	IngestService   IngestService
}

// NewServices wires every service onto the repositories, the shared cell
// cipher and the job queue.
func NewServices(repos *store.Repositories, queue JobQueue, cipher crypto.Cipher, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	ingest := NewIngestService(repos.Databases, repos.Data, cipher, cfg.Ingest, logger)

	return &Services{
		AuthService:     NewAuthService(repos.Users, cfg.App, logger),
		SearchService:   NewSearchService(repos.Data, repos.History, cipher, logger),
		DatabaseService: NewDatabaseService(repos.Databases, repos.Files, ingest, queue, cipher, cfg.Ingest, logger),
		IngestService:   ingest,
	}
}
