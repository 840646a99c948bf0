package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/upnext/internal/cache"
	"github.com/voyagen/upnext/internal/logging"
	"github.com/voyagen/upnext/internal/service"
)

type fakeJobs struct {
	mu       sync.Mutex
	pending  []cache.MetadataJob
	requeued []cache.MetadataJob
}

func (f *fakeJobs) Next(ctx context.Context, timeout time.Duration) (*cache.MetadataJob, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.pending) == 0 {
		select {
		case <-ctx.Done():
		case <-time.After(timeout):
		}
		return nil, nil
	}
	job := f.pending[0]
	f.pending = f.pending[1:]
	return &job, nil
}

func (f *fakeJobs) Requeue(_ context.Context, job cache.MetadataJob) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	job.Attempts++
	f.requeued = append(f.requeued, job)
	return nil
}

type fakeBackfiller struct {
	mu    sync.Mutex
	err   error
	calls []string
}

func (f *fakeBackfiller) Backfill(_ context.Context, entryID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, entryID)
	return f.err
}

func newTestWorker(jobs Jobs, b Backfiller) *Metadata {
	m := NewMetadata(jobs, b, logging.Nop())
	m.poll = time.Millisecond
	m.retryDelay = time.Millisecond
	return m
}

func TestProcess_Success(t *testing.T) {
	jobs := &fakeJobs{}
	b := &fakeBackfiller{}
	newTestWorker(jobs, b).Process(context.Background(), cache.MetadataJob{EntryID: "e1", VideoID: "v"})

	assert.Equal(t, []string{"e1"}, b.calls)
	assert.Empty(t, jobs.requeued)
}

func TestProcess_RequeuesIncomplete(t *testing.T) {
	jobs := &fakeJobs{}
	b := &fakeBackfiller{err: service.ErrMetadataIncomplete}
	newTestWorker(jobs, b).Process(context.Background(), cache.MetadataJob{EntryID: "e1", Attempts: 1})

	require.Len(t, jobs.requeued, 1)
	assert.Equal(t, 2, jobs.requeued[0].Attempts)
}

func TestProcess_GivesUpAfterMaxAttempts(t *testing.T) {
	jobs := &fakeJobs{}
	b := &fakeBackfiller{err: errors.New("db down")}
	newTestWorker(jobs, b).Process(context.Background(), cache.MetadataJob{EntryID: "e1", Attempts: 4})

	assert.Empty(t, jobs.requeued)
}

func TestRun_DrainsQueueUntilCancelled(t *testing.T) {
	jobs := &fakeJobs{pending: []cache.MetadataJob{{EntryID: "e1"}, {EntryID: "e2"}}}
	b := &fakeBackfiller{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		newTestWorker(jobs, b).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.calls) == 2
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}
