// Package service implements the room queue: admission of submitted links, voting,
// ranking and advancing playback. All state lives in the store; the service holds no
// per-room data between calls.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/voyagen/upnext/internal/cache"
	"github.com/voyagen/upnext/internal/logging"
	"github.com/voyagen/upnext/internal/metadata"
	"github.com/voyagen/upnext/internal/store"
)

// Limits configures admission.
type Limits struct {
	MaxQueueLen     int
	DuplicateWindow time.Duration
	BurstWindow     time.Duration
	BurstLimit      int
	SustainedWindow time.Duration
	SustainedLimit  int
}

// DefaultLimits returns the production admission limits.
func DefaultLimits() Limits {
	return Limits{
		MaxQueueLen:     20,
		DuplicateWindow: 10 * time.Minute,
		BurstWindow:     2 * time.Minute,
		BurstLimit:      2,
		SustainedWindow: 10 * time.Minute,
		SustainedLimit:  5,
	}
}

// Locker serializes work per room across service instances. Implementations report
// contention with cache.ErrLocked; any other error means the lock backend failed.
type Locker interface {
	LockAdvance(ctx context.Context, ownerID string) (func(), error)
	LockSubmit(ctx context.Context, ownerID, submitterID string) (func(), error)
}

// MetadataQueue receives entries that were admitted with placeholder metadata.
type MetadataQueue interface {
	EnqueueMetadata(ctx context.Context, entryID, videoID string) error
}

// Queue is the entry point for every queue operation.
type Queue struct {
	store           store.Store
	resolver        metadata.Resolver
	limits          Limits
	resolverTimeout time.Duration
	locker          Locker
	backfill        MetadataQueue
	log             logging.Logger
	now             func() time.Time
	newID           func() string
}

// Option customizes a Queue.
type Option func(*Queue)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(q *Queue) { q.now = now }
}

// WithIDGenerator replaces the uuid generator used for new entries.
func WithIDGenerator(newID func() string) Option {
	return func(q *Queue) { q.newID = newID }
}

func WithLocker(l Locker) Option {
	return func(q *Queue) { q.locker = l }
}

func WithBackfill(m MetadataQueue) Option {
	return func(q *Queue) { q.backfill = m }
}

func WithLogger(l logging.Logger) Option {
	return func(q *Queue) { q.log = l }
}

// WithResolverTimeout bounds each metadata lookup.
func WithResolverTimeout(d time.Duration) Option {
	return func(q *Queue) { q.resolverTimeout = d }
}

// New builds a Queue. A nil resolver behaves like metadata.Unavailable.
func New(s store.Store, r metadata.Resolver, limits Limits, opts ...Option) *Queue {
	if r == nil {
		r = metadata.Unavailable
	}
	q := &Queue{
		store:           s,
		resolver:        r,
		limits:          limits,
		resolverTimeout: 5 * time.Second,
		log:             logging.Nop(),
		now:             time.Now,
		newID:           uuid.NewString,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Limits returns the admission limits in effect.
func (q *Queue) Limits() Limits { return q.limits }

func (q *Queue) authorizeOwner(ownerID, actorID string) error {
	if actorID == "" {
		return newError(KindUnauthorized, "", "authentication required")
	}
	if actorID != ownerID {
		return newError(KindForbidden, "", "only the room owner can do this")
	}
	return nil
}

func requireUser(userID string) error {
	if userID == "" {
		return newError(KindUnauthorized, "", "authentication required")
	}
	return nil
}

func (q *Queue) fail(ctx context.Context, op string, err error) error {
	q.log.Error(ctx, "store operation failed", "op", op, "error", err)
	return storeFailure(op, err)
}

// lockErr maps a Locker failure: contention becomes KindConflict, anything else is a
// backend failure.
func (q *Queue) lockErr(ctx context.Context, op, msg string, err error) error {
	if errors.Is(err, cache.ErrLocked) {
		return &Error{Kind: KindConflict, Message: msg, Err: err}
	}
	return q.fail(ctx, op, err)
}

// formatWindow renders a window for user-facing messages, e.g. "10 minutes".
func formatWindow(d time.Duration) string {
	switch {
	case d == time.Minute:
		return "1 minute"
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", int(d/time.Minute))
	case d%time.Second == 0:
		return fmt.Sprintf("%d seconds", int(d/time.Second))
	default:
		return d.String()
	}
}
