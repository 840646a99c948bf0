package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/voyagen/upnext/internal/metadata"
	"github.com/voyagen/upnext/internal/store"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fakeBackfill struct {
	mu   sync.Mutex
	jobs []string
	err  error
}

func (f *fakeBackfill) EnqueueMetadata(_ context.Context, entryID, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.jobs = append(f.jobs, entryID)
	return f.err
}

type fakeLocker struct {
	advanceErr error
	submitErr  error
	advances   int
	releases   int
}

func (f *fakeLocker) LockAdvance(context.Context, string) (func(), error) {
	if f.advanceErr != nil {
		return nil, f.advanceErr
	}
	f.advances++
	return func() { f.releases++ }, nil
}

func (f *fakeLocker) LockSubmit(context.Context, string, string) (func(), error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	return func() { f.releases++ }, nil
}

var knownVideo = metadata.ResolverFunc(func(_ context.Context, id string) (*metadata.Metadata, error) {
	return &metadata.Metadata{
		Title: "Video " + id,
		Thumbnails: []metadata.Thumbnail{
			{URL: "https://i.ytimg.com/vi/" + id + "/hqdefault.jpg", Width: 480},
			{URL: "https://i.ytimg.com/vi/" + id + "/default.jpg", Width: 120},
			{URL: "https://i.ytimg.com/vi/" + id + "/mqdefault.jpg", Width: 320},
		},
	}, nil
})

var failingResolver = metadata.ResolverFunc(func(context.Context, string) (*metadata.Metadata, error) {
	return nil, errors.New("quota exceeded")
})

type testQueue struct {
	*Queue
	store *store.Memory
	clock *fakeClock
}

func newTestQueue(t *testing.T, r metadata.Resolver, opts ...Option) *testQueue {
	t.Helper()
	st := store.NewMemory()
	clock := newFakeClock()
	var (
		mu sync.Mutex
		n  int
	)
	base := []Option{
		WithClock(clock.Now),
		WithIDGenerator(func() string {
			mu.Lock()
			defer mu.Unlock()
			n++
			return fmt.Sprintf("entry-%03d", n)
		}),
	}
	q := New(st, r, DefaultLimits(), append(base, opts...)...)
	return &testQueue{Queue: q, store: st, clock: clock}
}

// videoURL returns a watch link for the n-th distinct test video.
func videoURL(n int) string {
	return "https://www.youtube.com/watch?v=" + videoID(n)
}

func videoID(n int) string {
	return fmt.Sprintf("vid%08d", n)
}

func requireKind(t *testing.T, err error, kind Kind, reason string) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "error: %v", err)
	require.Equal(t, reason, ReasonOf(err), "error: %v", err)
}
