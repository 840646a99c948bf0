package metadata

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"
)

// YouTube resolves metadata with the YouTube Data API v3 (videos.list, part=snippet).
type YouTube struct {
	svc *youtube.Service
}

// NewYouTube creates a client authenticated with an API key.
func NewYouTube(ctx context.Context, apiKey, userAgent string, opts ...option.ClientOption) (*YouTube, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey), option.WithUserAgent(userAgent)}, opts...)
	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("youtube.NewService: %w", err)
	}
	return &YouTube{svc: svc}, nil
}

func (y *YouTube) Resolve(ctx context.Context, videoID string) (*Metadata, error) {
	resp, err := y.svc.Videos.List([]string{"snippet"}).Id(videoID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("videos.list %s: %w", videoID, err)
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, ErrNotFound
	}
	return fromSnippet(resp.Items[0].Snippet), nil
}

func fromSnippet(s *youtube.VideoSnippet) *Metadata {
	md := &Metadata{Title: s.Title}
	if s.Thumbnails == nil {
		return md
	}
	for _, t := range []*youtube.Thumbnail{
		s.Thumbnails.Default,
		s.Thumbnails.Medium,
		s.Thumbnails.High,
		s.Thumbnails.Standard,
		s.Thumbnails.Maxres,
	} {
		if t == nil || t.Url == "" {
			continue
		}
		md.Thumbnails = append(md.Thumbnails, Thumbnail{URL: t.Url, Width: int(t.Width)})
	}
	return md
}
