package repository

import (
	"context"
	"io"
	"net/http"

	"github.com/vidlink/vidlink/internal/domain/model"
)

// Stream is an open origin response ready to be mirrored to a client.
// Callers must close Body.
type Stream struct {
	Status int
	Header http.Header
	Body   io.ReadCloser
}

// OriginGateway is the origin's contract: reference resolution plus ranged
// byte access to resolved resources.
type OriginGateway interface {
	// Resolve turns a user-supplied content reference into a playable
	// video source. Returns ErrBadReference for unrecognized references,
	// ErrContentNotFound when the origin has no such content, and wraps
	// ErrOriginUnavailable on transport failures.
	Resolve(ctx context.Context, ref string) (*model.VideoSource, error)

	// OpenStream opens a live fetch of originURL with the given method
	// (GET or HEAD), forwarding rangeHeader verbatim; empty means the
	// client sent no Range header. Any origin response, success or not,
	// is returned for mirroring. An error means no response was obtained.
	OpenStream(ctx context.Context, method, originURL, credential, rangeHeader string) (*Stream, error)
}
