package service

import (
	"context"
	"errors"

	"golang.org/x/sync/errgroup"

	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/store"
)

// QueueView is a room's queue as seen by one viewer.
type QueueView struct {
	OwnerID    string             `json:"owner_id"`
	IsOwner    bool               `json:"is_owner"`
	Entries    []models.QueueItem `json:"entries"`
	NowPlaying *models.QueueEntry `json:"now_playing"`
}

// List returns the room's unplayed entries in playback order together with the
// now-playing entry.
func (q *Queue) List(ctx context.Context, ownerID, viewerID string) (*QueueView, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}

	var (
		items   []models.QueueItem
		current *models.QueueEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		items, err = q.store.ListActiveEntries(gctx, ownerID, viewerID)
		return err
	})
	g.Go(func() error {
		var err error
		current, err = q.store.GetCurrentStream(gctx, ownerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, q.fail(ctx, "list queue", err)
	}

	entries := Rank(items)
	if entries == nil {
		entries = []models.QueueItem{}
	}
	return &QueueView{
		OwnerID:    ownerID,
		IsOwner:    viewerID == ownerID,
		Entries:    entries,
		NowPlaying: current,
	}, nil
}

// Remove deletes one entry from the owner's room.
func (q *Queue) Remove(ctx context.Context, ownerID, actorID, entryID string) error {
	if err := q.authorizeOwner(ownerID, actorID); err != nil {
		return err
	}
	if err := q.store.DeleteEntry(ctx, ownerID, entryID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return newError(KindNotFound, "", "entry %s not found", entryID)
		}
		return q.fail(ctx, "delete entry", err)
	}
	q.log.Info(ctx, "entry removed", "owner_id", ownerID, "entry_id", entryID)
	return nil
}

// Empty removes every unplayed entry from the owner's room. Played history and the
// now-playing entry are kept.
func (q *Queue) Empty(ctx context.Context, ownerID, actorID string) (int64, error) {
	if err := q.authorizeOwner(ownerID, actorID); err != nil {
		return 0, err
	}
	n, err := q.store.DeleteActiveEntries(ctx, ownerID)
	if err != nil {
		return 0, q.fail(ctx, "empty queue", err)
	}
	q.log.Info(ctx, "queue emptied", "owner_id", ownerID, "removed", n)
	return n, nil
}
