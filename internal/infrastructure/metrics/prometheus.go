// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "vidlink"

var (
	// LinksCreatedTotal counts successfully registered short links.
	LinksCreatedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "links_created_total",
			Help:      "Total number of short links created",
		},
	)

	// LinkLookupsTotal tracks registry lookups.
	// Labels:
	//   - result: hit, miss
	LinkLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "link_lookups_total",
			Help:      "Total number of link registry lookups",
		},
		[]string{"result"},
	)

	// StoreEvictionsTotal tracks entries removed by the write-time sweep.
	// Labels:
	//   - store: registry, prefetch
	//   - reason: expired, capacity
	StoreEvictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_evictions_total",
			Help:      "Total number of entries evicted from the in-memory stores",
		},
		[]string{"store", "reason"},
	)

	// PrefetchWarmsTotal tracks warm-up outcomes.
	// Labels:
	//   - status: stored, skipped, error
	PrefetchWarmsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "prefetch_warms_total",
			Help:      "Total number of prefetch warm-up attempts",
		},
		[]string{"status"},
	)

	// PlaybackRequestsTotal tracks proxied playback responses.
	// Labels:
	//   - source: cache, live
	//   - status: HTTP status code
	PlaybackRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_requests_total",
			Help:      "Total number of playback requests served",
		},
		[]string{"source", "status"},
	)

	// PlaybackBytesTotal tracks body bytes written to playback clients.
	// Labels:
	//   - source: cache, live
	PlaybackBytesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "playback_bytes_total",
			Help:      "Total number of body bytes sent to playback clients",
		},
		[]string{"source"},
	)

	// TokenRequestsTotal tracks origin token issuance behavior.
	// Labels:
	//   - result: issued (fresh request), shared (singleflight reuse),
	//     cached (served from the in-process token cache)
	TokenRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "origin_token_requests_total",
			Help:      "Total number of origin token requests",
		},
		[]string{"result"},
	)
)

// Store name constants.
const (
	StoreRegistry = "registry"
	StorePrefetch = "prefetch"
)

// Eviction reason constants.
const (
	EvictExpired  = "expired"
	EvictCapacity = "capacity"
)

// Lookup result constants.
const (
	ResultHit  = "hit"
	ResultMiss = "miss"
)

// Warm status constants.
const (
	WarmStored  = "stored"
	WarmSkipped = "skipped"
	WarmError   = "error"
)

// Playback source constants.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// Token issuance result constants.
const (
	TokenIssued = "issued"
	TokenShared = "shared"
	TokenCached = "cached"
)
