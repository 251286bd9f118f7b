package origin

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/vidlink/vidlink/internal/domain/repository"
)

// ParseContentRef extracts the origin content ID from a user-supplied
// reference: a bare UUID, or a share URL whose path carries a UUID
// segment. Anything else is repository.ErrBadReference.
func ParseContentRef(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", repository.ErrBadReference
	}

	if id, err := uuid.Parse(ref); err == nil {
		return id.String(), nil
	}

	u, err := url.Parse(ref)
	if err != nil || u.Host == "" {
		return "", repository.ErrBadReference
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		if id, err := uuid.Parse(seg); err == nil {
			return id.String(), nil
		}
	}

	return "", repository.ErrBadReference
}
