package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// MetadataJob asks the backfill worker to resolve metadata for an entry that was
// admitted with placeholders.
type MetadataJob struct {
	EntryID  string `json:"entry_id"`
	VideoID  string `json:"video_id"`
	Attempts int    `json:"attempts"`
}

// DefaultQueue is the Redis list key used for the metadata job queue.
const DefaultQueue = keyPrefix + "jobs:metadata"

// Enqueue pushes a job onto the left side of a Redis list.
func Enqueue(ctx context.Context, r *Redis, queue string, job MetadataJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	return r.client.LPush(ctx, queue, data).Err()
}

// Dequeue blocks until a job is available on the right side of the list
// or the timeout expires. When the timeout elapses without a job,
// (nil, nil) is returned so the caller can loop and check for shutdown.
func Dequeue(ctx context.Context, r *Redis, queue string, timeout time.Duration) (*MetadataJob, error) {
	result, err := r.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		// Context cancelled (shutdown) is not an error.
		if ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue dequeue: %w", err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var job MetadataJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &job, nil
}

// JobQueue binds Enqueue to one Redis list.
type JobQueue struct {
	r     *Redis
	queue string
}

// NewJobQueue returns a JobQueue on DefaultQueue.
func NewJobQueue(r *Redis) *JobQueue {
	return &JobQueue{r: r, queue: DefaultQueue}
}

// EnqueueMetadata schedules a metadata backfill for an entry.
func (q *JobQueue) EnqueueMetadata(ctx context.Context, entryID, videoID string) error {
	return Enqueue(ctx, q.r, q.queue, MetadataJob{EntryID: entryID, VideoID: videoID})
}

// Requeue pushes a job back with its attempt counter incremented.
func (q *JobQueue) Requeue(ctx context.Context, job MetadataJob) error {
	job.Attempts++
	return Enqueue(ctx, q.r, q.queue, job)
}

// Next waits up to timeout for the next job.
func (q *JobQueue) Next(ctx context.Context, timeout time.Duration) (*MetadataJob, error) {
	return Dequeue(ctx, q.r, q.queue, timeout)
}
