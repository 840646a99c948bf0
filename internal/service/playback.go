package service

import (
	"context"
	"errors"

	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/store"
)

// PlayNext advances ownerID's room to its top-ranked unplayed entry and returns it.
//
// The chosen entry is marked played and becomes the now-playing entry in one store
// transaction. If a concurrent advance already consumed it, the store rejects the
// write and KindConflict is returned; the caller may retry.
func (q *Queue) PlayNext(ctx context.Context, ownerID, actorID string) (*models.QueueEntry, error) {
	if err := q.authorizeOwner(ownerID, actorID); err != nil {
		return nil, err
	}
	if q.locker != nil {
		unlock, err := q.locker.LockAdvance(ctx, ownerID)
		if err != nil {
			return nil, q.lockErr(ctx, "lock advance", "another advance is in progress", err)
		}
		defer unlock()
	}

	items, err := q.store.ListActiveEntries(ctx, ownerID, actorID)
	if err != nil {
		return nil, q.fail(ctx, "list active entries", err)
	}
	if len(items) == 0 {
		return nil, newError(KindNotFound, ReasonNoEntries, "No streams found")
	}
	next := Rank(items)[0].QueueEntry

	if err := q.store.ApplyAdvance(ctx, ownerID, next.ID); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, &Error{Kind: KindConflict, Message: "entry was advanced concurrently", Err: err}
		}
		return nil, q.fail(ctx, "apply advance", err)
	}
	next.Played = true

	q.log.Info(ctx, "playback advanced", "owner_id", ownerID, "entry_id", next.ID, "video_id", next.VideoID)
	return &next, nil
}
