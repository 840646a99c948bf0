package service

import (
	"cmp"
	"slices"
	"strings"

	"github.com/voyagen/upnext/internal/models"
)

// Rank orders queue items for playback: most upvotes first, then oldest first, then by
// id. It returns a new slice and leaves items untouched.
func Rank(items []models.QueueItem) []models.QueueItem {
	out := slices.Clone(items)
	slices.SortStableFunc(out, compareItems)
	return out
}

func compareItems(a, b models.QueueItem) int {
	if c := cmp.Compare(b.VoteCount, a.VoteCount); c != 0 {
		return c
	}
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}
