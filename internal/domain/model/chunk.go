package model

import "time"

// Chunk holds the leading bytes of an origin resource so the first
// playback request can be answered without a round trip to the origin.
type Chunk struct {
	Key  string
	Data []byte
	// ContentType is the media type the origin reported for the resource.
	ContentType string
	// TotalSize is the full resource size when the origin disclosed it,
	// 0 otherwise. It is never fabricated.
	TotalSize int64
	CreatedAt time.Time
}

// Expired reports whether the chunk's age exceeds ttl at the given instant.
func (c *Chunk) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(c.CreatedAt) > ttl
}
