package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/voyagen/upnext/internal/models"
)

type voteKey struct {
	entryID string
	voterID string
}

// Memory is a process-local Store for development and tests. Every method holds one
// mutex, which gives CreateEntry and ApplyAdvance the same atomicity the SQL backends get
// from transactions.
type Memory struct {
	mu      sync.Mutex
	entries map[string]models.QueueEntry
	votes   map[voteKey]struct{}
	current map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]models.QueueEntry),
		votes:   make(map[voteKey]struct{}),
		current: make(map[string]string),
	}
}

func (m *Memory) Close() error                   { return nil }
func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) CountEntries(_ context.Context, ownerID, submitterID string, since time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.OwnerID == ownerID && e.SubmitterID == submitterID && !e.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *Memory) FindDuplicate(_ context.Context, ownerID, submitterID, videoID string, since time.Time) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var found *models.QueueEntry
	for _, e := range m.entries {
		if e.OwnerID != ownerID || e.SubmitterID != submitterID || e.VideoID != videoID || e.CreatedAt.Before(since) {
			continue
		}
		if found == nil || e.CreatedAt.After(found.CreatedAt) {
			e := e
			found = &e
		}
	}
	return found, nil
}

func (m *Memory) CountActiveEntries(_ context.Context, ownerID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countActive(ownerID), nil
}

func (m *Memory) countActive(ownerID string) int {
	n := 0
	for _, e := range m.entries {
		if e.OwnerID == ownerID && !e.Played {
			n++
		}
	}
	return n
}

func (m *Memory) CreateEntry(_ context.Context, e *models.QueueEntry, maxActive int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if maxActive > 0 && m.countActive(e.OwnerID) >= maxActive {
		return ErrQueueFull
	}
	if _, ok := m.entries[e.ID]; ok {
		return fmt.Errorf("CreateEntry: duplicate id %s", e.ID)
	}
	m.entries[e.ID] = *e
	return nil
}

func (m *Memory) GetEntry(_ context.Context, entryID string) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return nil, ErrNotFound
	}
	return &e, nil
}

func (m *Memory) ListActiveEntries(_ context.Context, ownerID, viewerID string) ([]models.QueueItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items := []models.QueueItem{}
	for _, e := range m.entries {
		if e.OwnerID != ownerID || e.Played {
			continue
		}
		_, mine := m.votes[voteKey{e.ID, viewerID}]
		items = append(items, models.QueueItem{
			QueueEntry:  e,
			VoteCount:   m.countVotes(e.ID),
			HaveUpvoted: mine,
		})
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, nil
}

func (m *Memory) GetCurrentStream(_ context.Context, ownerID string) (*models.QueueEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.current[ownerID]
	if !ok {
		return nil, nil
	}
	e, ok := m.entries[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *Memory) ApplyAdvance(_ context.Context, ownerID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok || e.OwnerID != ownerID || e.Played {
		return ErrConflict
	}
	e.Played = true
	m.entries[entryID] = e
	m.current[ownerID] = entryID
	return nil
}

func (m *Memory) ToggleVote(_ context.Context, entryID, voterID string, dir models.VoteDirection) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entryID]; !ok {
		return false, ErrNotFound
	}
	k := voteKey{entryID, voterID}
	_, exists := m.votes[k]
	switch dir {
	case models.Upvote:
		if exists {
			return false, nil
		}
		m.votes[k] = struct{}{}
		return true, nil
	case models.Downvote:
		if !exists {
			return false, nil
		}
		delete(m.votes, k)
		return true, nil
	default:
		return false, fmt.Errorf("ToggleVote: unknown direction %d", dir)
	}
}

func (m *Memory) CountVotes(_ context.Context, entryID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countVotes(entryID), nil
}

func (m *Memory) countVotes(entryID string) int {
	n := 0
	for k := range m.votes {
		if k.entryID == entryID {
			n++
		}
	}
	return n
}

func (m *Memory) HasVoted(_ context.Context, entryID, voterID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.votes[voteKey{entryID, voterID}]
	return ok, nil
}

func (m *Memory) DeleteEntry(_ context.Context, ownerID, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok || e.OwnerID != ownerID {
		return ErrNotFound
	}
	m.deleteLocked(entryID)
	return nil
}

func (m *Memory) DeleteActiveEntries(_ context.Context, ownerID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for id, e := range m.entries {
		if e.OwnerID == ownerID && !e.Played {
			m.deleteLocked(id)
			n++
		}
	}
	return n, nil
}

func (m *Memory) deleteLocked(entryID string) {
	delete(m.entries, entryID)
	for k := range m.votes {
		if k.entryID == entryID {
			delete(m.votes, k)
		}
	}
	for owner, id := range m.current {
		if id == entryID {
			delete(m.current, owner)
		}
	}
}

func (m *Memory) UpdateEntryMetadata(_ context.Context, entryID string, md models.EntryMetadata) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[entryID]
	if !ok {
		return ErrNotFound
	}
	e.Title = md.Title
	e.ThumbnailSmall = md.ThumbnailSmall
	e.ThumbnailLarge = md.ThumbnailLarge
	m.entries[entryID] = e
	return nil
}
