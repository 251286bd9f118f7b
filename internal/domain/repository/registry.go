package repository

import "github.com/vidlink/vidlink/internal/domain/model"

// LinkRegistry owns the mapping from opaque link identifiers to video
// metadata. Implementations bound both entry count and entry age.
type LinkRegistry interface {
	// Create sweeps expired and over-capacity entries, assigns the link a
	// fresh identifier and creation time, and stores it. The identifier of
	// a live entry is never reused. Returns the assigned identifier.
	Create(link *model.Link) string

	// Lookup returns the link stored under id. Lookups never evict: an
	// entry past its TTL may still be returned until the next write
	// sweeps it.
	Lookup(id string) (*model.Link, bool)

	// Len reports the number of stored entries, including any not yet
	// swept.
	Len() int
}
