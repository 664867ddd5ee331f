package main

import (
	"context"
	"fmt"

	"github.com/MKhiriev/lambda-search/internal/config"
	"github.com/MKhiriev/lambda-search/internal/crypto"
	"github.com/MKhiriev/lambda-search/internal/handler"
	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/internal/server"
	"github.com/MKhiriev/lambda-search/internal/service"
	"github.com/MKhiriev/lambda-search/internal/store"
	"github.com/MKhiriev/lambda-search/internal/workers"
	"github.com/MKhiriev/lambda-search/migrations"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewLogger("lambda-search-server")
	cfg, err := config.GetStructuredConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("error getting configs")
	}

	log.Debug().Any("config", cfg).Msg("received configs")

	ctx := context.Background()

	db, err := store.NewConnectPostgres(ctx, cfg.Storage.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error connecting to database")
	}
	defer db.Close()

	if err := migrations.Migrate(db.DB); err != nil {
		log.Fatal().Err(err).Msg("error applying migrations")
	}

	files, err := store.NewLocalFileStorage(cfg.Storage.Files.DumpDir, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating dump file storage")
	}

	repos := store.NewRepositories(db, files, log)

	key, err := crypto.KeyFromConfig(cfg.App)
	if err != nil {
		log.Fatal().Err(err).Msg("error deriving encryption key")
	}

	cipher, err := crypto.NewCellCipher(key)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating cell cipher")
	}

	pool := workers.NewPool(cfg.Ingest.Workers, workers.DefaultQueueSize, log)
	pool.Run()
	defer pool.Shutdown()

	services := service.NewServices(repos, pool, cipher, *cfg, log)

	handlers, err := handler.NewHandlers(services, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating handlers")
	}

	srv, err := server.NewServer(handlers, cfg.Server, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating server")
	}

	srv.RunServer()
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}

	if buildDate == "" {
		buildDate = "N/A"
	}

	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
