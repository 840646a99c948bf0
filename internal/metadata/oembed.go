package metadata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultOEmbedEndpoint = "https://www.youtube.com/oembed"

// OEmbed resolves metadata through YouTube's public oEmbed endpoint. It needs no API
// key but only reports a single thumbnail.
type OEmbed struct {
	endpoint   string
	userAgent  string
	httpClient *http.Client
}

// NewOEmbed creates an oEmbed resolver. endpoint may be empty for the public endpoint.
func NewOEmbed(endpoint, userAgent string, timeout time.Duration) *OEmbed {
	if endpoint == "" {
		endpoint = defaultOEmbedEndpoint
	}
	return &OEmbed{
		endpoint:   endpoint,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type oembedResponse struct {
	Title          string `json:"title"`
	ThumbnailURL   string `json:"thumbnail_url"`
	ThumbnailWidth int    `json:"thumbnail_width"`
}

func (o *OEmbed) Resolve(ctx context.Context, videoID string) (*Metadata, error) {
	q := url.Values{}
	q.Set("url", "https://www.youtube.com/watch?v="+videoID)
	q.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	if o.userAgent != "" {
		req.Header.Set("User-Agent", o.userAgent)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http do: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("oembed HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var r oembedResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	md := &Metadata{Title: r.Title}
	if r.ThumbnailURL != "" {
		md.Thumbnails = []Thumbnail{{URL: r.ThumbnailURL, Width: r.ThumbnailWidth}}
	}
	return md, nil
}
