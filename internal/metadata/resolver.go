// Package metadata looks up display metadata (title, thumbnails) for a video id.
// Lookups are best effort: callers fall back to placeholders on any error.
package metadata

import (
	"context"
	"errors"
	"slices"
)

// ErrNotFound is returned when the provider knows no video with the given id.
var ErrNotFound = errors.New("video not found")

// Thumbnail is one rendition of a video's preview image.
type Thumbnail struct {
	URL   string `json:"url"`
	Width int    `json:"width"`
}

// Metadata is what a provider knows about a video.
type Metadata struct {
	Title      string      `json:"title"`
	Thumbnails []Thumbnail `json:"thumbnails"`
}

// Complete reports whether md has a title and the two widest thumbnails (or the only
// one) have URLs. Incomplete results are stored with placeholders and backfilled later.
func (md *Metadata) Complete() bool {
	if md == nil || md.Title == "" || len(md.Thumbnails) == 0 {
		return false
	}
	thumbs := slices.Clone(md.Thumbnails)
	slices.SortStableFunc(thumbs, func(a, b Thumbnail) int { return a.Width - b.Width })
	for _, th := range thumbs[max(0, len(thumbs)-2):] {
		if th.URL == "" {
			return false
		}
	}
	return true
}

// Resolver resolves a video id to its metadata.
type Resolver interface {
	Resolve(ctx context.Context, videoID string) (*Metadata, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, videoID string) (*Metadata, error)

func (f ResolverFunc) Resolve(ctx context.Context, videoID string) (*Metadata, error) {
	return f(ctx, videoID)
}

// Unavailable is a Resolver that always fails; admission then uses placeholders.
var Unavailable Resolver = ResolverFunc(func(context.Context, string) (*Metadata, error) {
	return nil, errors.New("metadata resolver not configured")
})
