package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/store"
)

// ErrMetadataIncomplete is returned by Backfill when the provider still cannot supply
// full metadata; the job may be retried later.
var ErrMetadataIncomplete = errors.New("metadata still incomplete")

func (q *Queue) resolveMetadata(ctx context.Context, videoID string) (models.EntryMetadata, bool) {
	rctx, cancel := context.WithTimeout(ctx, q.resolverTimeout)
	defer cancel()

	md, err := q.resolver.Resolve(rctx, videoID)
	if err != nil {
		q.log.Warn(ctx, "metadata lookup failed, using placeholders", "video_id", videoID, "error", err)
		md = nil
	}
	return entryMetadata(md)
}

// Backfill retries the lookup for an entry admitted with placeholders and stores the
// result. Entries that were removed in the meantime are skipped.
func (q *Queue) Backfill(ctx context.Context, entryID, videoID string) error {
	md, complete := q.resolveMetadata(ctx, videoID)
	if !complete {
		return ErrMetadataIncomplete
	}
	if err := q.store.UpdateEntryMetadata(ctx, entryID, md); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			q.log.Debug(ctx, "backfill skipped, entry gone", "entry_id", entryID)
			return nil
		}
		return fmt.Errorf("update metadata for %s: %w", entryID, err)
	}
	q.log.Info(ctx, "metadata backfilled", "entry_id", entryID, "title", md.Title)
	return nil
}
