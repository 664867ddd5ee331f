// Package workers runs the background ingestion jobs of the application.
// It provides a fixed-size worker pool with an in-memory progress tracker
// that the progress polling endpoint reads from.
package workers

import (
	"context"

	"github.com/MKhiriev/lambda-search/models"
)

// Worker is the interface that must be implemented by any background worker.
// It defines a single Run method that starts the worker's execution.
//
// Implementations are expected to block for the duration of their work
// or spawn goroutines internally.
type Worker interface {
	Run()
}

// JobFunc is one unit of background work. report publishes progress to the
// tracker; implementations call it as often as they like.
type JobFunc func(ctx context.Context, report func(models.JobProgress)) error
