package service

import (
	"context"
	"errors"

	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/store"
)

// Submit validates rawURL and adds it to ownerID's queue on behalf of submitterID.
//
// Checks run in a fixed order: URL shape, then (for everyone but the owner) the
// duplicate, burst and sustained windows, then room capacity. The capacity check is
// repeated inside the store write, so concurrent submissions cannot overfill a room.
// The rate windows are checked before the write and may admit one extra entry under a
// race unless a Locker is configured.
func (q *Queue) Submit(ctx context.Context, ownerID, submitterID, rawURL string) (*models.QueueItem, error) {
	if err := requireUser(submitterID); err != nil {
		return nil, err
	}
	if ownerID == "" {
		return nil, invalidInput("room owner is required")
	}
	videoID, err := ParseVideoURL(rawURL)
	if err != nil {
		return nil, err
	}

	md, complete := q.resolveMetadata(ctx, videoID)

	if submitterID != ownerID {
		if q.locker != nil {
			unlock, err := q.locker.LockSubmit(ctx, ownerID, submitterID)
			if err != nil {
				return nil, q.lockErr(ctx, "lock submit", "another submission is in progress", err)
			}
			defer unlock()
		}
		if err := q.checkRate(ctx, ownerID, submitterID, videoID); err != nil {
			return nil, err
		}
	}

	active, err := q.store.CountActiveEntries(ctx, ownerID)
	if err != nil {
		return nil, q.fail(ctx, "count active entries", err)
	}
	if active >= q.limits.MaxQueueLen {
		return nil, newError(KindQueueFull, "", "Queue is full. Maximum limit reached.")
	}

	entry := &models.QueueEntry{
		ID:             q.newID(),
		OwnerID:        ownerID,
		SubmitterID:    submitterID,
		SourceURL:      rawURL,
		VideoID:        videoID,
		Title:          md.Title,
		ThumbnailSmall: md.ThumbnailSmall,
		ThumbnailLarge: md.ThumbnailLarge,
		CreatedAt:      q.now().UTC(),
	}
	if err := q.store.CreateEntry(ctx, entry, q.limits.MaxQueueLen); err != nil {
		if errors.Is(err, store.ErrQueueFull) {
			return nil, newError(KindQueueFull, "", "Queue is full. Maximum limit reached.")
		}
		return nil, q.fail(ctx, "create entry", err)
	}

	if !complete && q.backfill != nil {
		if err := q.backfill.EnqueueMetadata(ctx, entry.ID, videoID); err != nil {
			q.log.Warn(ctx, "enqueue metadata backfill", "entry_id", entry.ID, "error", err)
		}
	}

	q.log.Info(ctx, "entry admitted",
		"owner_id", ownerID, "submitter_id", submitterID,
		"entry_id", entry.ID, "video_id", videoID, "placeholder", !complete)
	return &models.QueueItem{QueueEntry: *entry}, nil
}

// checkRate applies the duplicate, burst and sustained windows for a non-owner.
func (q *Queue) checkRate(ctx context.Context, ownerID, submitterID, videoID string) error {
	now := q.now()

	dup, err := q.store.FindDuplicate(ctx, ownerID, submitterID, videoID, now.Add(-q.limits.DuplicateWindow))
	if err != nil {
		return q.fail(ctx, "find duplicate", err)
	}
	if dup != nil {
		return newError(KindRateLimited, ReasonDuplicate,
			"This song was already added in the last %s", formatWindow(q.limits.DuplicateWindow))
	}

	recent, err := q.store.CountEntries(ctx, ownerID, submitterID, now.Add(-q.limits.BurstWindow))
	if err != nil {
		return q.fail(ctx, "count recent entries", err)
	}
	if recent >= q.limits.BurstLimit {
		return newError(KindRateLimited, ReasonBurst,
			"Rate limit exceeded: you can add at most %d songs per %s",
			q.limits.BurstLimit, formatWindow(q.limits.BurstWindow))
	}

	sustained, err := q.store.CountEntries(ctx, ownerID, submitterID, now.Add(-q.limits.SustainedWindow))
	if err != nil {
		return q.fail(ctx, "count entries", err)
	}
	if sustained >= q.limits.SustainedLimit {
		return newError(KindRateLimited, ReasonSustained,
			"Rate limit exceeded: you can add at most %d songs per %s",
			q.limits.SustainedLimit, formatWindow(q.limits.SustainedWindow))
	}
	return nil
}
