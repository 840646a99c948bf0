package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/upnext/internal/cache"
)

func TestPlayNext_EmptyQueue(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()

	_, err := q.PlayNext(ctx, "owner", "owner")
	requireKind(t, err, KindNotFound, ReasonNoEntries)
	assert.ErrorIs(t, err, ErrNoEntries)

	cur, err := q.store.GetCurrentStream(ctx, "owner")
	require.NoError(t, err)
	assert.Nil(t, cur)
}

func TestPlayNext_EmptyQueueKeepsCurrentStream(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()
	item, err := q.Submit(ctx, "owner", "owner", videoURL(1))
	require.NoError(t, err)
	_, err = q.PlayNext(ctx, "owner", "owner")
	require.NoError(t, err)

	_, err = q.PlayNext(ctx, "owner", "owner")
	requireKind(t, err, KindNotFound, ReasonNoEntries)

	cur, err := q.store.GetCurrentStream(ctx, "owner")
	require.NoError(t, err)
	require.NotNil(t, cur)
	assert.Equal(t, item.ID, cur.ID)
}

func TestPlayNext_OldestWinsOnTie(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()

	first, err := q.Submit(ctx, "owner", "owner", videoURL(1))
	require.NoError(t, err)
	q.clock.Advance(time.Second)
	second, err := q.Submit(ctx, "owner", "owner", videoURL(2))
	require.NoError(t, err)

	_, err = q.Upvote(ctx, first.ID, "alice")
	require.NoError(t, err)
	_, err = q.Upvote(ctx, second.ID, "alice")
	require.NoError(t, err)

	played, err := q.PlayNext(ctx, "owner", "owner")
	require.NoError(t, err)
	assert.Equal(t, first.ID, played.ID)
}

func TestPlayNext_OnlyOwner(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()
	_, err := q.Submit(ctx, "owner", "owner", videoURL(1))
	require.NoError(t, err)

	_, err = q.PlayNext(ctx, "owner", "alice")
	requireKind(t, err, KindForbidden, "")
	_, err = q.PlayNext(ctx, "owner", "")
	requireKind(t, err, KindUnauthorized, "")
}

func TestPlayNext_UsesAdvanceLock(t *testing.T) {
	locker := &fakeLocker{}
	q := newTestQueue(t, knownVideo, WithLocker(locker))
	ctx := context.Background()
	_, err := q.Submit(ctx, "owner", "owner", videoURL(1))
	require.NoError(t, err)

	_, err = q.PlayNext(ctx, "owner", "owner")
	require.NoError(t, err)
	assert.Equal(t, 1, locker.advances)
	assert.Equal(t, 1, locker.releases)

	locker.advanceErr = cache.ErrLocked
	_, err = q.PlayNext(ctx, "owner", "owner")
	requireKind(t, err, KindConflict, "")

	locker.advanceErr = errors.New("i/o timeout")
	_, err = q.PlayNext(ctx, "owner", "owner")
	requireKind(t, err, KindStoreFailure, "")
}

func TestPlayNext_RoomsAreIndependent(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()
	a, err := q.Submit(ctx, "owner-a", "owner-a", videoURL(1))
	require.NoError(t, err)
	b, err := q.Submit(ctx, "owner-b", "owner-b", videoURL(1))
	require.NoError(t, err)

	played, err := q.PlayNext(ctx, "owner-a", "owner-a")
	require.NoError(t, err)
	assert.Equal(t, a.ID, played.ID)

	view, err := q.List(ctx, "owner-b", "owner-b")
	require.NoError(t, err)
	require.Len(t, view.Entries, 1)
	assert.Equal(t, b.ID, view.Entries[0].ID)
	assert.Nil(t, view.NowPlaying)
}

func TestPlayNext_ConcurrentAdvancesNeverRepeatAnEntry(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()

	const entries, callers = 5, 16
	for i := 1; i <= entries; i++ {
		_, err := q.Submit(ctx, "owner", "owner", videoURL(i))
		require.NoError(t, err)
		q.clock.Advance(time.Second)
	}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		played = map[string]int{}
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry, err := q.PlayNext(ctx, "owner", "owner")
			if err != nil {
				kind := KindOf(err)
				if kind != KindConflict && kind != KindNotFound {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			mu.Lock()
			played[entry.ID]++
			mu.Unlock()
		}()
	}
	wg.Wait()

	require.NotEmpty(t, played)
	for id, n := range played {
		assert.Equal(t, 1, n, "entry %s played more than once", id)
	}

	n, err := q.store.CountActiveEntries(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, entries-len(played), n)
}
