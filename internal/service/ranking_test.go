package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/voyagen/upnext/internal/models"
)

func item(id string, votes int, created time.Time) models.QueueItem {
	return models.QueueItem{
		QueueEntry: models.QueueEntry{ID: id, CreatedAt: created},
		VoteCount:  votes,
	}
}

func ids(items []models.QueueItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestRank(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	in := []models.QueueItem{
		item("a", 1, t0),
		item("b", 3, t0.Add(time.Minute)),
		item("c", 1, t0.Add(-time.Minute)),
		item("e", 0, t0),
		item("d", 0, t0),
	}

	got := Rank(in)
	assert.Equal(t, []string{"b", "c", "a", "d", "e"}, ids(got))
	assert.Equal(t, "a", in[0].ID, "input is not reordered")

	assert.Equal(t, ids(got), ids(Rank(got)), "ranking is idempotent")
}

func TestRank_MoreVotesNeverRanksLower(t *testing.T) {
	t0 := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	items := []models.QueueItem{
		item("a", 2, t0),
		item("b", 1, t0.Add(time.Second)),
		item("c", 1, t0.Add(2*time.Second)),
	}
	before := Rank(items)
	assert.Equal(t, "c", before[2].ID)

	items[2].VoteCount = 2
	after := Rank(items)
	assert.Equal(t, []string{"a", "c", "b"}, ids(after))
}

func TestRank_Empty(t *testing.T) {
	assert.Empty(t, Rank(nil))
}
