package service

import (
	"regexp"
	"strings"
)

// videoURLPattern accepts youtube.com watch/embed/v links and youtu.be short links,
// with or without scheme, www. or m. prefixes, and captures the 11-character id.
var videoURLPattern = regexp.MustCompile(
	`^(?:(?:https?:)?//)?(?:www\.)?(?:m\.)?(?:youtu(?:be)?\.com/(?:v/|embed/|watch(?:/|\?v=))|youtu\.be/)([\w-]{11})(?:\S+)?$`,
)

// ParseVideoURL validates rawURL and returns the canonical video id.
func ParseVideoURL(rawURL string) (string, error) {
	u := strings.TrimSpace(rawURL)
	if u == "" {
		return "", invalidInput("YouTube link cannot be empty")
	}
	m := videoURLPattern.FindStringSubmatch(u)
	if m == nil {
		return "", invalidInput("Invalid YouTube URL format")
	}
	if m[1] == "" {
		return "", invalidInput("Could not extract a video id from the link")
	}
	return m[1], nil
}
