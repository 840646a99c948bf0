package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJobQueue_RoundTripInOrder(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	q := NewJobQueue(r)

	require.NoError(t, q.EnqueueMetadata(ctx, "e1", "vid00000001"))
	require.NoError(t, q.EnqueueMetadata(ctx, "e2", "vid00000002"))

	job, err := q.Next(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, MetadataJob{EntryID: "e1", VideoID: "vid00000001"}, *job)

	job, err = q.Next(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, "e2", job.EntryID)
}

func TestJobQueue_RequeueIncrementsAttempts(t *testing.T) {
	r, _ := newTestRedis(t)
	ctx := context.Background()
	q := NewJobQueue(r)

	require.NoError(t, q.Requeue(ctx, MetadataJob{EntryID: "e1", VideoID: "vid00000001", Attempts: 2}))

	job, err := q.Next(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, job)
	assert.Equal(t, 3, job.Attempts)
}

func TestDequeue_TimeoutReturnsNil(t *testing.T) {
	r, _ := newTestRedis(t)

	job, err := Dequeue(context.Background(), r, DefaultQueue, time.Second)
	assert.NoError(t, err)
	assert.Nil(t, job)
}

func TestDequeue_BadPayload(t *testing.T) {
	r, mr := newTestRedis(t)
	_, err := mr.Lpush(DefaultQueue, "{not json")
	require.NoError(t, err)

	_, err = Dequeue(context.Background(), r, DefaultQueue, time.Second)
	assert.ErrorContains(t, err, "queue unmarshal")
}
