// Package memstore provides the process-owned stores behind the link
// registry and the prefetch cache. Both bound entry count and age with the
// same write-time sweep: expired entries go first, then the oldest-inserted
// entries until the incoming one fits. Reads never evict and never refresh
// an entry's position; eviction order is pure insertion order.
package memstore

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// DeriveKey maps an origin URL to the stable identity of the resource it
// serves. Origin URLs name their content with a UUID path segment while
// other parts (edge host, query credentials) vary between resolutions of
// the same video; the first UUID segment therefore wins. URLs without one
// key on the full raw string.
//
// DeriveKey is pure and total: equal inputs always yield equal keys, and
// every input yields a key.
func DeriveKey(originURL string) string {
	u, err := url.Parse(originURL)
	if err != nil {
		return originURL
	}
	for _, seg := range strings.Split(u.Path, "/") {
		if seg == "" {
			continue
		}
		if id, err := uuid.Parse(seg); err == nil {
			return id.String()
		}
	}
	return originURL
}
