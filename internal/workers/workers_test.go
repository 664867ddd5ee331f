package workers

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/MKhiriev/lambda-search/internal/logger"
	"github.com/MKhiriev/lambda-search/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForState(t *testing.T, pool *Pool, jobID string, want models.JobState) models.JobProgress {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		progress := pool.Progress(jobID)
		if progress.State == want {
			return progress
		}
		time.Sleep(5 * time.Millisecond)
	}

	t.Fatalf("job %s never reached state %s, last: %+v", jobID, want, pool.Progress(jobID))
	return models.JobProgress{}
}

func TestPool_RunsJobAndTracksProgress(t *testing.T) {
	pool := NewPool(1, 4, logger.Nop())
	pool.Run()
	defer pool.Shutdown()

	err := pool.Enqueue("job-1", func(ctx context.Context, report func(models.JobProgress)) error {
		report(models.JobProgress{State: models.JobStateEncrypting, Current: 2, Total: 4, Percent: 50})
		return nil
	})
	require.NoError(t, err)

	progress := waitForState(t, pool, "job-1", models.JobStateDone)
	assert.Equal(t, "job-1", progress.JobID)
}

func TestPool_FailedJob(t *testing.T) {
	pool := NewPool(1, 4, logger.Nop())
	pool.Run()
	defer pool.Shutdown()

	err := pool.Enqueue("job-2", func(ctx context.Context, report func(models.JobProgress)) error {
		return errors.New("source file vanished")
	})
	require.NoError(t, err)

	progress := waitForState(t, pool, "job-2", models.JobStateFailed)
	assert.Equal(t, "source file vanished", progress.Description)
}

func TestPool_UnknownJobIsPending(t *testing.T) {
	pool := NewPool(1, 4, logger.Nop())

	progress := pool.Progress("never-enqueued")
	assert.Equal(t, models.JobStatePending, progress.State)
	assert.Equal(t, "never-enqueued", progress.JobID)
}

func TestPool_QueueFull(t *testing.T) {
	// pool never started: nothing drains the queue
	pool := NewPool(1, 1, logger.Nop())

	noop := func(ctx context.Context, report func(models.JobProgress)) error { return nil }

	require.NoError(t, pool.Enqueue("job-a", noop))
	err := pool.Enqueue("job-b", noop)
	require.ErrorIs(t, err, ErrQueueFull)
}

func TestPool_EnqueueAfterShutdown(t *testing.T) {
	pool := NewPool(1, 4, logger.Nop())
	pool.Run()
	pool.Shutdown()

	err := pool.Enqueue("job-late", func(ctx context.Context, report func(models.JobProgress)) error { return nil })
	require.ErrorIs(t, err, ErrPoolStopped)
}

func TestPool_ShutdownTwice(t *testing.T) {
	pool := NewPool(1, 4, logger.Nop())
	pool.Run()

	pool.Shutdown()
	require.NotPanics(t, func() { pool.Shutdown() })
}

func TestPool_ConcurrentJobs(t *testing.T) {
	pool := NewPool(4, 16, logger.Nop())
	pool.Run()
	defer pool.Shutdown()

	var mu sync.Mutex
	ran := make(map[string]struct{})

	ids := []string{"a", "b", "c", "d", "e", "f"}
	for _, id := range ids {
		jobID := id
		require.NoError(t, pool.Enqueue(jobID, func(ctx context.Context, report func(models.JobProgress)) error {
			mu.Lock()
			ran[jobID] = struct{}{}
			mu.Unlock()
			return nil
		}))
	}

	for _, id := range ids {
		waitForState(t, pool, id, models.JobStateDone)
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, ran, len(ids))
}
