package metadata

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/upnext/internal/cache"
	"github.com/voyagen/upnext/internal/logging"
)

func newTestCached(t *testing.T, inner Resolver) (*Cached, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := cache.NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = c.Close() })
	return NewCached(inner, c, logging.Nop()), mr
}

func countingResolver(calls *atomic.Int32, md *Metadata, err error) Resolver {
	return ResolverFunc(func(context.Context, string) (*Metadata, error) {
		calls.Add(1)
		return md, err
	})
}

func TestCached_ServesCompleteResultFromCache(t *testing.T) {
	var calls atomic.Int32
	full := &Metadata{Title: "t", Thumbnails: []Thumbnail{{URL: "https://img/1", Width: 120}}}
	c, mr := newTestCached(t, countingResolver(&calls, full, nil))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		md, err := c.Resolve(ctx, "vid00000001")
		require.NoError(t, err)
		assert.Equal(t, full, md)
	}
	assert.EqualValues(t, 1, calls.Load())
	assert.Equal(t, ttlVideo, mr.TTL(cache.VideoKey("vid00000001")))
}

func TestCached_SkipsPartialResults(t *testing.T) {
	var calls atomic.Int32
	partial := &Metadata{Title: "", Thumbnails: []Thumbnail{{URL: "https://img/1", Width: 120}}}
	c, mr := newTestCached(t, countingResolver(&calls, partial, nil))
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		md, err := c.Resolve(ctx, "vid00000001")
		require.NoError(t, err)
		assert.Equal(t, partial, md)
	}
	assert.EqualValues(t, 2, calls.Load())
	assert.False(t, mr.Exists(cache.VideoKey("vid00000001")))
}

func TestCached_SkipsFailures(t *testing.T) {
	var calls atomic.Int32
	c, mr := newTestCached(t, countingResolver(&calls, nil, errors.New("quota exceeded")))

	_, err := c.Resolve(context.Background(), "vid00000001")
	assert.Error(t, err)
	assert.False(t, mr.Exists(cache.VideoKey("vid00000001")))
}

func TestMetadata_Complete(t *testing.T) {
	tests := []struct {
		name string
		md   *Metadata
		want bool
	}{
		{"nil", nil, false},
		{"no title", &Metadata{Thumbnails: []Thumbnail{{URL: "a", Width: 1}}}, false},
		{"no thumbnails", &Metadata{Title: "t"}, false},
		{"single thumbnail", &Metadata{Title: "t", Thumbnails: []Thumbnail{{URL: "a", Width: 1}}}, true},
		{"widest missing url", &Metadata{Title: "t", Thumbnails: []Thumbnail{{URL: "a", Width: 1}, {Width: 9}}}, false},
		{"narrowest missing url ignored", &Metadata{Title: "t", Thumbnails: []Thumbnail{{Width: 1}, {URL: "b", Width: 5}, {URL: "c", Width: 9}}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.md.Complete())
		})
	}
}
