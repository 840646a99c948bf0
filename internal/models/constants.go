package models

// Vote directions.
type VoteDirection int8

const (
	Downvote VoteDirection = -1
	Upvote   VoteDirection = 1
)

func (d VoteDirection) String() string {
	switch d {
	case Upvote:
		return "upvote"
	case Downvote:
		return "downvote"
	default:
		return "unknown"
	}
}

// Placeholders used when the metadata lookup fails or comes back incomplete.
const (
	PlaceholderTitle          = "Can't find video"
	PlaceholderThumbnailSmall = "https://cdn.pixabay.com/photo/2024/02/28/07/42/european-shorthair-8601492_640.jpg"
	PlaceholderThumbnailLarge = "https://cdn.pixabay.com/photo/2024/02/28/07/42/european-shorthair-8601492_1280.jpg"
)
