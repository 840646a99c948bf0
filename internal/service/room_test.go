package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/upnext/internal/models"
)

func TestList_EmptyRoom(t *testing.T) {
	q := newTestQueue(t, knownVideo)

	view, err := q.List(context.Background(), "owner", "alice")
	require.NoError(t, err)
	assert.Equal(t, "owner", view.OwnerID)
	assert.False(t, view.IsOwner)
	assert.NotNil(t, view.Entries)
	assert.Empty(t, view.Entries)
	assert.Nil(t, view.NowPlaying)

	_, err = q.List(context.Background(), "owner", "")
	requireKind(t, err, KindUnauthorized, "")
}

func TestList_RanksByVotes(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()

	var ids []string
	for i := 1; i <= 3; i++ {
		item, err := q.Submit(ctx, "owner", "owner", videoURL(i))
		require.NoError(t, err)
		ids = append(ids, item.ID)
	}
	_, err := q.Upvote(ctx, ids[2], "alice")
	require.NoError(t, err)

	view, err := q.List(ctx, "owner", "owner")
	require.NoError(t, err)
	assert.True(t, view.IsOwner)
	got := make([]string, 0, len(view.Entries))
	for _, e := range view.Entries {
		got = append(got, e.ID)
	}
	assert.Equal(t, []string{ids[2], ids[0], ids[1]}, got)
}

func TestRemove(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()
	item, err := q.Submit(ctx, "owner", "alice", videoURL(1))
	require.NoError(t, err)

	err = q.Remove(ctx, "owner", "alice", item.ID)
	requireKind(t, err, KindForbidden, "")

	require.NoError(t, q.Remove(ctx, "owner", "owner", item.ID))
	_, err = q.store.GetEntry(ctx, item.ID)
	require.Error(t, err)

	err = q.Remove(ctx, "owner", "owner", item.ID)
	requireKind(t, err, KindNotFound, "")
}

func TestEmpty_KeepsNowPlaying(t *testing.T) {
	q := newTestQueue(t, knownVideo)
	ctx := context.Background()
	for i := 1; i <= 4; i++ {
		_, err := q.Submit(ctx, "owner", "owner", videoURL(i))
		require.NoError(t, err)
	}
	playing, err := q.PlayNext(ctx, "owner", "owner")
	require.NoError(t, err)

	_, err = q.Empty(ctx, "owner", "alice")
	requireKind(t, err, KindForbidden, "")

	n, err := q.Empty(ctx, "owner", "owner")
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	view, err := q.List(ctx, "owner", "owner")
	require.NoError(t, err)
	assert.Empty(t, view.Entries)
	require.NotNil(t, view.NowPlaying)
	assert.Equal(t, playing.ID, view.NowPlaying.ID)
}

func TestBackfill(t *testing.T) {
	q := newTestQueue(t, failingResolver)
	ctx := context.Background()
	item, err := q.Submit(ctx, "owner", "owner", videoURL(1))
	require.NoError(t, err)

	err = q.Backfill(ctx, item.ID, item.VideoID)
	assert.ErrorIs(t, err, ErrMetadataIncomplete)

	q.resolver = knownVideo
	require.NoError(t, q.Backfill(ctx, item.ID, item.VideoID))
	stored, err := q.store.GetEntry(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Video "+videoID(1), stored.Title)
	assert.NotEqual(t, models.PlaceholderThumbnailLarge, stored.ThumbnailLarge)

	require.NoError(t, q.Remove(ctx, "owner", "owner", item.ID))
	assert.NoError(t, q.Backfill(ctx, item.ID, item.VideoID), "removed entries are skipped")
}
