package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/infrastructure/metrics"
	"github.com/vidlink/vidlink/internal/origin"
	"github.com/vidlink/vidlink/internal/usecase"
)

// streamBufferSize is the copy granularity on the live path. Each buffer
// is flushed as soon as it is written so playback starts before the body
// completes.
const streamBufferSize = 256 * 1024

// mirroredHeaders are the origin response headers passed through to
// playback clients unmodified on the live path.
var mirroredHeaders = []string{
	"Content-Type",
	"Content-Length",
	"Content-Range",
	"Accept-Ranges",
}

// PlaybackHandler proxies ranged video requests: warmed leading bytes come
// straight from the prefetch cache, everything else streams live from the
// origin.
type PlaybackHandler struct {
	svc     usecase.LinkService
	cache   repository.PrefetchCache
	gateway repository.OriginGateway
	trust   *origin.Trust
	logger  *slog.Logger
}

// NewPlaybackHandler creates a new PlaybackHandler.
func NewPlaybackHandler(
	svc usecase.LinkService,
	cache repository.PrefetchCache,
	gateway repository.OriginGateway,
	trust *origin.Trust,
	logger *slog.Logger,
) *PlaybackHandler {
	return &PlaybackHandler{
		svc:     svc,
		cache:   cache,
		gateway: gateway,
		trust:   trust,
		logger:  logger,
	}
}

// Stream handles GET/HEAD /play/{id} and /play/{id}/{filename}. The
// filename segment is cosmetic, present only so embedding clients can
// infer the media type from the path; resolution uses the id alone.
func (h *PlaybackHandler) Stream(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.GetLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			http.Error(w, "link not found or expired", http.StatusNotFound)
		} else {
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	if !h.trust.Allows(link.OriginURL) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	rangeHeader := r.Header.Get("Range")
	if rangeHeader != "" {
		if start, end, ok := parseByteRange(rangeHeader); ok {
			if chunk, cached := h.cache.Lookup(link.OriginURL); cached {
				if h.serveFromChunk(w, r, chunk, start, end) {
					return
				}
			}
		}
	}

	h.serveLive(w, r, link, rangeHeader)
}

// serveFromChunk answers from the warmed buffer when the whole window
// [start, end] lies inside it, without any network I/O. Reports false when
// the window reaches past the buffered bytes; the caller then goes live.
func (h *PlaybackHandler) serveFromChunk(w http.ResponseWriter, r *http.Request, chunk *model.Chunk, start, end int64) bool {
	buffered := int64(len(chunk.Data))
	if end < 0 {
		end = buffered - 1
	}
	if start >= buffered || end >= buffered {
		return false
	}

	body := chunk.Data[start : end+1]

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.Header().Set("Content-Disposition", "inline")
	if chunk.ContentType != "" {
		w.Header().Set("Content-Type", chunk.ContentType)
	}
	if chunk.TotalSize > 0 {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, chunk.TotalSize))
	}
	w.WriteHeader(http.StatusPartialContent)

	if r.Method != http.MethodHead {
		if n, err := w.Write(body); err == nil {
			metrics.PlaybackBytesTotal.WithLabelValues(metrics.SourceCache).Add(float64(n))
		}
	}

	metrics.PlaybackRequestsTotal.WithLabelValues(metrics.SourceCache, strconv.Itoa(http.StatusPartialContent)).Inc()
	return true
}

// serveLive proxies the request to the origin, forwarding the client's
// Range header verbatim and mirroring whatever the origin answers. The
// fetch rides the request context, so a client disconnect cancels it.
func (h *PlaybackHandler) serveLive(w http.ResponseWriter, r *http.Request, link *model.Link, rangeHeader string) {
	stream, err := h.gateway.OpenStream(r.Context(), r.Method, link.OriginURL, link.AccessToken, rangeHeader)
	if err != nil {
		h.logger.Warn("open origin stream",
			slog.String("link_id", link.ID),
			slog.String("error", err.Error()),
		)
		http.Error(w, "upstream error", http.StatusBadGateway)
		metrics.PlaybackRequestsTotal.WithLabelValues(metrics.SourceLive, strconv.Itoa(http.StatusBadGateway)).Inc()
		return
	}
	defer stream.Body.Close()

	for _, name := range mirroredHeaders {
		if v := stream.Header.Get(name); v != "" {
			w.Header().Set(name, v)
		}
	}
	if stream.Status == http.StatusOK || stream.Status == http.StatusPartialContent {
		w.Header().Set("Content-Disposition", "inline")
	}
	w.WriteHeader(stream.Status)
	metrics.PlaybackRequestsTotal.WithLabelValues(metrics.SourceLive, strconv.Itoa(stream.Status)).Inc()

	if r.Method == http.MethodHead {
		return
	}

	h.pipe(w, r, stream.Body)
}

// pipe copies the origin body to the client, flushing every buffer so
// playback starts immediately. A client disconnect just stops the copy; an
// origin failure after the header went out aborts the connection so the
// client never mistakes a truncated body for a complete one.
func (h *PlaybackHandler) pipe(w http.ResponseWriter, r *http.Request, body io.Reader) {
	rc := http.NewResponseController(w)
	buf := make([]byte, streamBufferSize)

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			written, writeErr := w.Write(buf[:n])
			metrics.PlaybackBytesTotal.WithLabelValues(metrics.SourceLive).Add(float64(written))
			if writeErr != nil {
				return
			}
			_ = rc.Flush()
		}

		if readErr == io.EOF {
			return
		}
		if readErr != nil {
			if r.Context().Err() != nil {
				return
			}
			h.logger.Warn("origin stream interrupted", slog.String("error", readErr.Error()))
			panic(http.ErrAbortHandler)
		}
	}
}
