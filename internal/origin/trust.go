package origin

import (
	"net/url"
	"strings"
)

// Trust decides whether a stored origin URL belongs to the host family
// this proxy is willing to forward credentials to. The registry only holds
// URLs the origin API handed back, so this is defense in depth rather than
// the primary gate.
type Trust struct {
	suffixes      []string
	allowInsecure bool
}

// NewTrust builds a Trust from allowed host suffixes. A suffix matches the
// host itself and any subdomain: "cdn.example.com" allows both
// "cdn.example.com" and "edge-3.cdn.example.com".
func NewTrust(suffixes []string, allowInsecure bool) *Trust {
	t := &Trust{allowInsecure: allowInsecure}
	for _, s := range suffixes {
		s = strings.ToLower(strings.TrimSpace(s))
		s = strings.TrimPrefix(s, ".")
		if s != "" {
			t.suffixes = append(t.suffixes, s)
		}
	}
	return t
}

// Allows reports whether rawURL is a well-formed https URL on a trusted
// host. Plain http passes only when allowInsecure is set, which exists for
// local test origins.
func (t *Trust) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	switch u.Scheme {
	case "https":
	case "http":
		if !t.allowInsecure {
			return false
		}
	default:
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}
	for _, s := range t.suffixes {
		if host == s || strings.HasSuffix(host, "."+s) {
			return true
		}
	}
	return false
}
