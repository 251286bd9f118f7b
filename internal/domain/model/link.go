package model

import (
	"errors"
	"net/url"
	"strings"
	"time"
)

// Link is a short-lived public handle for a single video hosted on the
// origin. Entries are immutable once the registry has stored them.
type Link struct {
	ID           string
	OriginURL    string
	AccessToken  string
	DisplayName  string
	ThumbnailURL string
	Width        int
	Height       int
	CreatedAt    time.Time
}

// VideoSource is a resolved description of an origin video: the gateway
// produces it, NewLink consumes it.
type VideoSource struct {
	OriginURL    string
	AccessToken  string
	DisplayName  string
	ThumbnailURL string
	Width        int
	Height       int
}

var (
	ErrInvalidOriginURL   = errors.New("origin URL must be an absolute http(s) URL")
	ErrEmptyDisplayName   = errors.New("display name cannot be empty")
	ErrDisplayNameTooLong = errors.New("display name exceeds maximum length of 255 characters")
	ErrInvalidDimensions  = errors.New("width and height must be positive")
)

const maxDisplayNameLength = 255

// NewLink validates a resolved video source and returns a Link without ID
// and CreatedAt. The registry assigns both at insertion.
func NewLink(src VideoSource) (*Link, error) {
	u, err := url.Parse(src.OriginURL)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return nil, ErrInvalidOriginURL
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrInvalidOriginURL
	}

	name := strings.TrimSpace(src.DisplayName)
	if name == "" {
		return nil, ErrEmptyDisplayName
	}
	if len(name) > maxDisplayNameLength {
		return nil, ErrDisplayNameTooLong
	}

	if src.Width <= 0 || src.Height <= 0 {
		return nil, ErrInvalidDimensions
	}

	return &Link{
		OriginURL:    src.OriginURL,
		AccessToken:  src.AccessToken,
		DisplayName:  name,
		ThumbnailURL: src.ThumbnailURL,
		Width:        src.Width,
		Height:       src.Height,
	}, nil
}

// Expired reports whether the link's age exceeds ttl at the given instant.
func (l *Link) Expired(ttl time.Duration, now time.Time) bool {
	return now.Sub(l.CreatedAt) > ttl
}
