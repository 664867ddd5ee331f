package store

import "github.com/MKhiriev/lambda-search/internal/logger"

// Repositories bundles every persistence-layer dependency of the service
// layer behind one constructor.
type Repositories struct {
	Databases DatabaseRepository
	Data      DataRepository
	History   HistoryRepository
	Users     UserRepository
	Files     FileStorage
}

// NewRepositories wires all PostgreSQL repositories onto the shared
// connection and pairs them with the given file storage.
func NewRepositories(db *DB, files FileStorage, logger *logger.Logger) *Repositories {
	return &Repositories{
		Databases: NewDatabaseRepository(db, logger),
		Data:      NewDataRepository(db, logger),
		History:   NewHistoryRepository(db, logger),
		Users:     NewUserRepository(db, logger),
		Files:     files,
	}
}
