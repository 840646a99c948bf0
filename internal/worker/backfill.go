// Package worker runs background jobs off the Redis job queue.
package worker

import (
	"context"
	"errors"
	"time"

	"github.com/voyagen/upnext/internal/cache"
	"github.com/voyagen/upnext/internal/logging"
	"github.com/voyagen/upnext/internal/service"
)

// Jobs is the metadata job queue.
type Jobs interface {
	Next(ctx context.Context, timeout time.Duration) (*cache.MetadataJob, error)
	Requeue(ctx context.Context, job cache.MetadataJob) error
}

// Backfiller resolves the job's metadata and stores it.
type Backfiller interface {
	Backfill(ctx context.Context, entryID, videoID string) error
}

// Metadata retries metadata lookups for entries admitted with placeholders.
type Metadata struct {
	jobs        Jobs
	backfill    Backfiller
	log         logging.Logger
	maxAttempts int
	poll        time.Duration
	retryDelay  time.Duration
}

func NewMetadata(jobs Jobs, b Backfiller, log logging.Logger) *Metadata {
	return &Metadata{
		jobs:        jobs,
		backfill:    b,
		log:         log,
		maxAttempts: 5,
		poll:        5 * time.Second,
		retryDelay:  2 * time.Second,
	}
}

// Run processes jobs until ctx is cancelled.
func (m *Metadata) Run(ctx context.Context) {
	m.log.Info(ctx, "metadata worker started")
	for {
		select {
		case <-ctx.Done():
			m.log.Info(context.Background(), "metadata worker stopping")
			return
		default:
		}

		job, err := m.jobs.Next(ctx, m.poll)
		if err != nil {
			m.log.Error(ctx, "metadata worker: dequeue", "error", err)
			sleep(ctx, m.retryDelay)
			continue
		}
		if job == nil {
			continue // timeout, loop back to check ctx
		}
		m.Process(ctx, *job)
	}
}

// Process handles one job. Incomplete lookups are requeued until maxAttempts.
func (m *Metadata) Process(ctx context.Context, job cache.MetadataJob) {
	err := m.backfill.Backfill(ctx, job.EntryID, job.VideoID)
	if err == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}
	if job.Attempts+1 >= m.maxAttempts {
		m.log.Warn(ctx, "metadata worker: giving up", "entry_id", job.EntryID, "attempts", job.Attempts+1, "error", err)
		return
	}
	if !errors.Is(err, service.ErrMetadataIncomplete) {
		m.log.Error(ctx, "metadata worker: backfill", "entry_id", job.EntryID, "error", err)
	}
	sleep(ctx, m.retryDelay)
	if err := m.jobs.Requeue(ctx, job); err != nil {
		m.log.Error(ctx, "metadata worker: requeue", "entry_id", job.EntryID, "error", err)
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
