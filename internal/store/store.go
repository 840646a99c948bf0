package store

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/voyagen/upnext/internal/models"
)

var (
	// ErrNotFound is returned when a referenced entry does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned by ApplyAdvance when the entry is no longer queued.
	ErrConflict = errors.New("conflict")
	// ErrQueueFull is returned by CreateEntry when the room is at capacity at write time.
	ErrQueueFull = errors.New("queue is full")
)

// Store defines persistence for queue entries, votes and the now-playing pointer.
// Implementations are the single source of truth; callers never cache what they read.
type Store interface {
	// CountEntries counts entries added by submitterID to the room since the given time.
	CountEntries(ctx context.Context, ownerID, submitterID string, since time.Time) (int, error)
	// FindDuplicate returns the most recent entry with videoID added by submitterID to the
	// room since the given time, or nil when there is none.
	FindDuplicate(ctx context.Context, ownerID, submitterID, videoID string, since time.Time) (*models.QueueEntry, error)
	// CountActiveEntries counts entries of the room that have not been played.
	CountActiveEntries(ctx context.Context, ownerID string) (int, error)
	// CreateEntry persists e. The capacity check is repeated inside the write and
	// ErrQueueFull is returned when the room already holds maxActive unplayed entries.
	CreateEntry(ctx context.Context, e *models.QueueEntry, maxActive int) error
	// GetEntry returns a single entry by id.
	GetEntry(ctx context.Context, entryID string) (*models.QueueEntry, error)
	// ListActiveEntries returns the unplayed entries of the room with vote totals and the
	// viewer's own vote state.
	ListActiveEntries(ctx context.Context, ownerID, viewerID string) ([]models.QueueItem, error)
	// GetCurrentStream returns the entry the room is playing, or nil.
	GetCurrentStream(ctx context.Context, ownerID string) (*models.QueueEntry, error)
	// ApplyAdvance marks the entry played and points the room's current stream at it in
	// one transaction. ErrConflict is returned when the entry is not a queued entry of the room.
	ApplyAdvance(ctx context.Context, ownerID, entryID string) error
	// ToggleVote records (Upvote) or removes (Downvote) the voter's vote. changed is false
	// when the call was a no-op.
	ToggleVote(ctx context.Context, entryID, voterID string, dir models.VoteDirection) (changed bool, err error)
	// CountVotes returns the number of distinct upvoters of an entry.
	CountVotes(ctx context.Context, entryID string) (int, error)
	// HasVoted reports whether voterID currently upvotes the entry.
	HasVoted(ctx context.Context, entryID, voterID string) (bool, error)
	// DeleteEntry removes an entry of the room together with its votes.
	DeleteEntry(ctx context.Context, ownerID, entryID string) error
	// DeleteActiveEntries removes every unplayed entry of the room and returns how many were removed.
	DeleteActiveEntries(ctx context.Context, ownerID string) (int64, error)
	// UpdateEntryMetadata replaces the display metadata of an entry.
	UpdateEntryMetadata(ctx context.Context, entryID string, md models.EntryMetadata) error
	// Ping checks the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases the backend's resources.
	Close() error
}

// Open picks a backend from the DSN scheme: postgres/postgresql, sqlite3 or memory.
func Open(ctx context.Context, dsn string) (Store, error) {
	u, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	switch u.Scheme {
	case "postgres", "postgresql":
		return NewPostgres(ctx, dsn)
	case "sqlite3":
		return NewSQLite(ctx, sqlitePath(dsn))
	case "memory":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported database scheme %q", u.Scheme)
	}
}

// sqlitePath strips the scheme from a sqlite3:// DSN, keeping any query string.
func sqlitePath(dsn string) string {
	return strings.TrimPrefix(dsn, "sqlite3://")
}
