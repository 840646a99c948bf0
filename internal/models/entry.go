package models

import "time"

// QueueEntry is one submitted video in a room's queue.
type QueueEntry struct {
	ID             string    `json:"id" db:"id"`
	OwnerID        string    `json:"owner_id" db:"owner_id"`
	SubmitterID    string    `json:"submitter_id" db:"submitter_id"`
	SourceURL      string    `json:"url" db:"source_url"`
	VideoID        string    `json:"video_id" db:"video_id"`
	Title          string    `json:"title" db:"title"`
	ThumbnailSmall string    `json:"thumbnail_small" db:"thumbnail_small"`
	ThumbnailLarge string    `json:"thumbnail_large" db:"thumbnail_large"`
	Played         bool      `json:"played" db:"played"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// QueueItem is a queue entry as seen by one viewer: the total number of
// distinct upvoters and whether the viewer is one of them.
type QueueItem struct {
	QueueEntry
	VoteCount   int  `json:"vote_count" db:"vote_count"`
	HaveUpvoted bool `json:"have_upvoted" db:"have_upvoted"`
}

// EntryMetadata holds the resolved, display-only fields of an entry.
type EntryMetadata struct {
	Title          string `json:"title"`
	ThumbnailSmall string `json:"thumbnail_small"`
	ThumbnailLarge string `json:"thumbnail_large"`
}
