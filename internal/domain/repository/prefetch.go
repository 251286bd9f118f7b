package repository

import (
	"context"

	"github.com/vidlink/vidlink/internal/domain/model"
)

// PrefetchCache buffers the leading bytes of origin resources, keyed by a
// stable identity derived from the origin URL. Distinct links to the same
// resource share one entry.
type PrefetchCache interface {
	// Warm ensures the leading bytes for originURL are cached. If a live
	// entry already exists it does nothing. Otherwise the fetch runs
	// asynchronously and any failure is swallowed; Warm never blocks on
	// network I/O and never reports an error.
	Warm(originURL, credential string)

	// Lookup returns the cached chunk for originURL's derived key. Like
	// registry lookups it never evicts.
	Lookup(originURL string) (*model.Chunk, bool)
}

// ChunkFetcher retrieves the leading bytes of an origin resource. The
// origin gateway provides the implementation used for warm-ups.
type ChunkFetcher interface {
	// FetchChunk requests bytes [0, size) with a ranged read, accepting a
	// full-body response when the origin ignores Range. The returned
	// chunk carries data, content type, and total size when disclosed;
	// Key and CreatedAt are left for the cache to assign.
	FetchChunk(ctx context.Context, originURL, credential string, size int64) (*model.Chunk, error)
}
