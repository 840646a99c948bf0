package service

import (
	"context"
	"errors"

	"github.com/voyagen/upnext/internal/models"
	"github.com/voyagen/upnext/internal/store"
)

// VoteResult reports an entry's vote state after a vote.
type VoteResult struct {
	EntryID     string `json:"entry_id"`
	VoteCount   int    `json:"vote_count"`
	HaveUpvoted bool   `json:"have_upvoted"`
	Changed     bool   `json:"changed"`
}

// Vote records or withdraws voterID's upvote on an entry. Each voter counts at most
// once per entry; repeating a vote is a no-op reported with Changed false.
func (q *Queue) Vote(ctx context.Context, entryID, voterID string, dir models.VoteDirection) (*VoteResult, error) {
	if err := requireUser(voterID); err != nil {
		return nil, err
	}
	if dir != models.Upvote && dir != models.Downvote {
		return nil, invalidInput("unknown vote direction %d", dir)
	}

	entry, err := q.store.GetEntry(ctx, entryID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "", "entry %s not found", entryID)
		}
		return nil, q.fail(ctx, "get entry", err)
	}
	if entry.Played {
		return nil, newError(KindNotFound, ReasonPlayed, "entry %s has already been played", entryID)
	}

	changed, err := q.store.ToggleVote(ctx, entryID, voterID, dir)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, newError(KindNotFound, "", "entry %s not found", entryID)
		}
		return nil, q.fail(ctx, "toggle vote", err)
	}
	count, err := q.store.CountVotes(ctx, entryID)
	if err != nil {
		return nil, q.fail(ctx, "count votes", err)
	}

	if changed {
		q.log.Debug(ctx, "vote recorded", "entry_id", entryID, "voter_id", voterID, "direction", dir.String())
	}
	return &VoteResult{
		EntryID:     entryID,
		VoteCount:   count,
		HaveUpvoted: dir == models.Upvote,
		Changed:     changed,
	}, nil
}

func (q *Queue) Upvote(ctx context.Context, entryID, voterID string) (*VoteResult, error) {
	return q.Vote(ctx, entryID, voterID, models.Upvote)
}

func (q *Queue) Downvote(ctx context.Context, entryID, voterID string) (*VoteResult, error) {
	return q.Vote(ctx, entryID, voterID, models.Downvote)
}
