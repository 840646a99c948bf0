package service

import (
	"slices"

	"github.com/voyagen/upnext/internal/metadata"
	"github.com/voyagen/upnext/internal/models"
)

// entryMetadata turns a (possibly nil or partial) lookup result into the fields stored
// on an entry. complete is false when any placeholder had to be used.
//
// Thumbnails are ordered by width ascending: the widest is the large image and the
// second widest is the small one; with a single thumbnail both use it.
func entryMetadata(md *metadata.Metadata) (out models.EntryMetadata, complete bool) {
	out = models.EntryMetadata{
		Title:          models.PlaceholderTitle,
		ThumbnailSmall: models.PlaceholderThumbnailSmall,
		ThumbnailLarge: models.PlaceholderThumbnailLarge,
	}
	if md == nil {
		return out, false
	}
	complete = true
	if md.Title != "" {
		out.Title = md.Title
	} else {
		complete = false
	}

	thumbs := slices.Clone(md.Thumbnails)
	slices.SortStableFunc(thumbs, func(a, b metadata.Thumbnail) int {
		return a.Width - b.Width
	})
	n := len(thumbs)
	if n == 0 {
		return out, false
	}

	large := thumbs[n-1].URL
	small := large
	if n > 1 {
		small = thumbs[n-2].URL
	}
	if large != "" {
		out.ThumbnailLarge = large
	} else {
		complete = false
	}
	if small != "" {
		out.ThumbnailSmall = small
	} else {
		complete = false
	}
	return out, complete
}
