package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/origin"
)

// readCloserFunc adapts a function into the stream body interface.
type readCloserFunc struct {
	readFn func(p []byte) (int, error)
}

func (r *readCloserFunc) Read(p []byte) (int, error) { return r.readFn(p) }
func (r *readCloserFunc) Close() error               { return nil }

func testChunk() *model.Chunk {
	return &model.Chunk{
		Key:         "b3c55de2-91f0-4a64-8f11-33bb10a2a2ad",
		Data:        []byte("0123456789abcdef"),
		ContentType: "video/mp4",
		TotalSize:   4096,
	}
}

func registeredLinkService() *mockLinkService {
	return &mockLinkService{
		getLinkFn: func(ctx context.Context, id string) (*model.Link, error) {
			if id == "test-link-id" {
				return testLink(), nil
			}
			return nil, repository.ErrLinkNotFound
		},
	}
}

func newPlaybackRouter(svc *mockLinkService, cache *mockPrefetchCache, gateway *mockOriginGateway) *chi.Mux {
	trust := origin.NewTrust([]string{"origin.example"}, false)
	h := NewPlaybackHandler(svc, cache, gateway, trust, slog.New(slog.NewTextHandler(io.Discard, nil)))

	r := chi.NewRouter()
	r.Get("/play/{id}", h.Stream)
	r.Head("/play/{id}", h.Stream)
	r.Get("/play/{id}/{filename}", h.Stream)
	r.Head("/play/{id}/{filename}", h.Stream)
	return r
}

// liveStream builds a healthy origin 206 response for live-path tests.
func liveStream(body string) *repository.Stream {
	header := http.Header{}
	header.Set("Content-Type", "video/mp4")
	header.Set("Content-Length", "9")
	header.Set("Content-Range", "bytes 16-24/4096")
	header.Set("Accept-Ranges", "bytes")
	return &repository.Stream{
		Status: http.StatusPartialContent,
		Header: header,
		Body:   io.NopCloser(strings.NewReader(body)),
	}
}

func TestPlaybackHandler_Stream_CachedWindow(t *testing.T) {
	tests := []struct {
		name             string
		rangeHeader      string
		wantBody         string
		wantContentRange string
	}{
		{
			name:             "bounded window",
			rangeHeader:      "bytes=0-7",
			wantBody:         "01234567",
			wantContentRange: "bytes 0-7/4096",
		},
		{
			name:             "open-ended window clamps to buffer",
			rangeHeader:      "bytes=4-",
			wantBody:         "456789abcdef",
			wantContentRange: "bytes 4-15/4096",
		},
		{
			name:             "single byte at buffer edge",
			rangeHeader:      "bytes=15-15",
			wantBody:         "f",
			wantContentRange: "bytes 15-15/4096",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &mockPrefetchCache{
				lookupFn: func(originURL string) (*model.Chunk, bool) {
					return testChunk(), true
				},
			}
			gateway := &mockOriginGateway{
				openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
					t.Error("cache-served requests must not touch the origin")
					return nil, repository.ErrOriginUnavailable
				},
			}
			router := newPlaybackRouter(registeredLinkService(), cache, gateway)

			req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
			req.Header.Set("Range", tt.rangeHeader)
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusPartialContent {
				t.Fatalf("expected status 206, got %d", rec.Code)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}
			if got := rec.Header().Get("Content-Range"); got != tt.wantContentRange {
				t.Errorf("Content-Range = %q, want %q", got, tt.wantContentRange)
			}
			if got := rec.Header().Get("Content-Length"); got != strconv.Itoa(len(tt.wantBody)) {
				t.Errorf("Content-Length = %q, want %d", got, len(tt.wantBody))
			}
			if got := rec.Header().Get("Accept-Ranges"); got != "bytes" {
				t.Errorf("Accept-Ranges = %q, want %q", got, "bytes")
			}
			if got := rec.Header().Get("Content-Disposition"); got != "inline" {
				t.Errorf("Content-Disposition = %q, want %q", got, "inline")
			}
			if got := rec.Header().Get("Content-Type"); got != "video/mp4" {
				t.Errorf("Content-Type = %q, want %q", got, "video/mp4")
			}
		})
	}
}

func TestPlaybackHandler_Stream_FallsThroughToLive(t *testing.T) {
	tests := []struct {
		name          string
		rangeHeader   string
		cacheHit      bool
		wantForwarded string
	}{
		{
			name:          "window reaches past buffered bytes",
			rangeHeader:   "bytes=0-99999",
			cacheHit:      true,
			wantForwarded: "bytes=0-99999",
		},
		{
			name:          "start beyond buffered bytes",
			rangeHeader:   "bytes=20-",
			cacheHit:      true,
			wantForwarded: "bytes=20-",
		},
		{
			name:          "suffix range bypasses the cache",
			rangeHeader:   "bytes=-500",
			cacheHit:      true,
			wantForwarded: "bytes=-500",
		},
		{
			name:          "no range header",
			rangeHeader:   "",
			cacheHit:      true,
			wantForwarded: "",
		},
		{
			name:          "cache miss",
			rangeHeader:   "bytes=0-7",
			cacheHit:      false,
			wantForwarded: "bytes=0-7",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := &mockPrefetchCache{
				lookupFn: func(originURL string) (*model.Chunk, bool) {
					if tt.cacheHit {
						return testChunk(), true
					}
					return nil, false
				},
			}

			var gotMethod, gotURL, gotCredential, gotRange string
			calls := 0
			gateway := &mockOriginGateway{
				openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
					calls++
					gotMethod = method
					gotURL = originURL
					gotCredential = credential
					gotRange = rangeHeader
					return liveStream("live data"), nil
				},
			}
			router := newPlaybackRouter(registeredLinkService(), cache, gateway)

			req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
			if tt.rangeHeader != "" {
				req.Header.Set("Range", tt.rangeHeader)
			}
			rec := httptest.NewRecorder()

			router.ServeHTTP(rec, req)

			if calls != 1 {
				t.Fatalf("origin calls = %d, want 1", calls)
			}
			if gotMethod != http.MethodGet {
				t.Errorf("forwarded method = %q, want GET", gotMethod)
			}
			if gotURL != testLink().OriginURL {
				t.Errorf("forwarded URL = %q, want the link's origin URL", gotURL)
			}
			if gotCredential != "guest-token-1" {
				t.Errorf("forwarded credential = %q, want the link's token", gotCredential)
			}
			if gotRange != tt.wantForwarded {
				t.Errorf("forwarded Range = %q, want %q", gotRange, tt.wantForwarded)
			}
			if rec.Code != http.StatusPartialContent {
				t.Errorf("status = %d, want origin's 206", rec.Code)
			}
			if got := rec.Body.String(); got != "live data" {
				t.Errorf("body = %q, want piped origin body", got)
			}
		})
	}
}

func TestPlaybackHandler_Stream_UnknownLink(t *testing.T) {
	cache := &mockPrefetchCache{
		lookupFn: func(originURL string) (*model.Chunk, bool) {
			t.Error("cache must not be consulted for unknown links")
			return nil, false
		},
	}
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			t.Error("origin must not be contacted for unknown links")
			return nil, repository.ErrOriginUnavailable
		},
	}
	router := newPlaybackRouter(registeredLinkService(), cache, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/unknown-id", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "link not found or expired\n" {
		t.Errorf("body = %q, want plain-text not-found line", got)
	}
	if got := rec.Header().Get("Content-Type"); !strings.HasPrefix(got, "text/plain") {
		t.Errorf("Content-Type = %q, want text/plain", got)
	}
}

func TestPlaybackHandler_Stream_UntrustedOrigin(t *testing.T) {
	svc := &mockLinkService{
		getLinkFn: func(ctx context.Context, id string) (*model.Link, error) {
			link := testLink()
			link.OriginURL = "https://attacker.example.org/video.mp4"
			return link, nil
		},
	}
	cache := &mockPrefetchCache{
		lookupFn: func(originURL string) (*model.Chunk, bool) {
			t.Error("cache must not be consulted for untrusted origins")
			return nil, false
		},
	}
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			t.Error("credentials must not be sent to untrusted origins")
			return nil, repository.ErrOriginUnavailable
		},
	}
	router := newPlaybackRouter(svc, cache, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "origin not allowed\n" {
		t.Errorf("body = %q, want plain-text forbidden line", got)
	}
}

func TestPlaybackHandler_Stream_OriginUnreachable(t *testing.T) {
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			return nil, repository.ErrOriginUnavailable
		},
	}
	router := newPlaybackRouter(registeredLinkService(), &mockPrefetchCache{}, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected status 502, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "upstream error\n" {
		t.Errorf("body = %q, want plain-text upstream error", got)
	}
}

func TestPlaybackHandler_Stream_MirrorsOriginHeaders(t *testing.T) {
	stream := liveStream("live data")
	stream.Header.Set("X-Origin-Auth", "internal-secret")

	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			return stream, nil
		},
	}
	router := newPlaybackRouter(registeredLinkService(), &mockPrefetchCache{}, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
	req.Header.Set("Range", "bytes=16-24")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected status 206, got %d", rec.Code)
	}
	for name, want := range map[string]string{
		"Content-Type":        "video/mp4",
		"Content-Length":      "9",
		"Content-Range":       "bytes 16-24/4096",
		"Accept-Ranges":       "bytes",
		"Content-Disposition": "inline",
	} {
		if got := rec.Header().Get(name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	if got := rec.Header().Get("X-Origin-Auth"); got != "" {
		t.Errorf("X-Origin-Auth leaked to the client: %q", got)
	}
}

func TestPlaybackHandler_Stream_MirrorsOriginErrorStatus(t *testing.T) {
	header := http.Header{}
	header.Set("Content-Range", "bytes */4096")
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			return &repository.Stream{
				Status: http.StatusRequestedRangeNotSatisfiable,
				Header: header,
				Body:   io.NopCloser(strings.NewReader("")),
			}, nil
		},
	}
	router := newPlaybackRouter(registeredLinkService(), &mockPrefetchCache{}, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
	req.Header.Set("Range", "bytes=9999999-")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("expected status 416, got %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */4096" {
		t.Errorf("Content-Range = %q, want origin's value", got)
	}
	if got := rec.Header().Get("Content-Disposition"); got != "" {
		t.Errorf("Content-Disposition = %q, want none on error statuses", got)
	}
}

func TestPlaybackHandler_Stream_OmitsUnknownTotal(t *testing.T) {
	chunk := testChunk()
	chunk.TotalSize = 0

	cache := &mockPrefetchCache{
		lookupFn: func(originURL string) (*model.Chunk, bool) {
			return chunk, true
		},
	}
	router := newPlaybackRouter(registeredLinkService(), cache, &mockOriginGateway{})

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
	req.Header.Set("Range", "bytes=0-7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected status 206, got %d", rec.Code)
	}
	if _, present := rec.Header()["Content-Range"]; present {
		t.Error("Content-Range must be omitted when the total size is unknown")
	}
	if got := rec.Header().Get("Content-Length"); got != "8" {
		t.Errorf("Content-Length = %q, want %q", got, "8")
	}
}

func TestPlaybackHandler_Stream_HeadFromCache(t *testing.T) {
	cache := &mockPrefetchCache{
		lookupFn: func(originURL string) (*model.Chunk, bool) {
			return testChunk(), true
		},
	}
	router := newPlaybackRouter(registeredLinkService(), cache, &mockOriginGateway{})

	req := httptest.NewRequest(http.MethodHead, "/play/test-link-id", nil)
	req.Header.Set("Range", "bytes=0-7")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected status 206, got %d", rec.Code)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response carried %d body bytes", rec.Body.Len())
	}
	if got := rec.Header().Get("Content-Length"); got != "8" {
		t.Errorf("Content-Length = %q, want %q", got, "8")
	}
}

func TestPlaybackHandler_Stream_HeadLive(t *testing.T) {
	var gotMethod string
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			gotMethod = method
			return liveStream("must not appear"), nil
		},
	}
	router := newPlaybackRouter(registeredLinkService(), &mockPrefetchCache{}, gateway)

	req := httptest.NewRequest(http.MethodHead, "/play/test-link-id", nil)
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if gotMethod != http.MethodHead {
		t.Errorf("forwarded method = %q, want HEAD", gotMethod)
	}
	if rec.Body.Len() != 0 {
		t.Errorf("HEAD response carried %d body bytes", rec.Body.Len())
	}
}

func TestPlaybackHandler_Stream_FilenameSegmentIgnored(t *testing.T) {
	cache := &mockPrefetchCache{
		lookupFn: func(originURL string) (*model.Chunk, bool) {
			return testChunk(), true
		},
	}
	router := newPlaybackRouter(registeredLinkService(), cache, &mockOriginGateway{})

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id/anything_at_all.mp4", nil)
	req.Header.Set("Range", "bytes=0-3")
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusPartialContent {
		t.Fatalf("expected status 206, got %d", rec.Code)
	}
	if got := rec.Body.String(); got != "0123" {
		t.Errorf("body = %q, want %q", got, "0123")
	}
}

func TestPlaybackHandler_Stream_AbortsOnUpstreamFailure(t *testing.T) {
	served := false
	body := &readCloserFunc{
		readFn: func(p []byte) (int, error) {
			if !served {
				served = true
				return copy(p, "first bytes"), nil
			}
			return 0, errors.New("origin reset")
		},
	}
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			return &repository.Stream{
				Status: http.StatusOK,
				Header: http.Header{},
				Body:   body,
			}, nil
		},
	}
	router := newPlaybackRouter(registeredLinkService(), &mockPrefetchCache{}, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil)
	rec := httptest.NewRecorder()

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected a panic when the origin dies mid-stream")
		}
		err, ok := r.(error)
		if !ok || !errors.Is(err, http.ErrAbortHandler) {
			t.Fatalf("panic = %v, want http.ErrAbortHandler", r)
		}
	}()

	router.ServeHTTP(rec, req)
}

func TestPlaybackHandler_Stream_ClientDisconnectStopsQuietly(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	served := false
	body := &readCloserFunc{
		readFn: func(p []byte) (int, error) {
			if !served {
				served = true
				return copy(p, "first bytes"), nil
			}
			cancel()
			return 0, errors.New("connection reset")
		},
	}
	gateway := &mockOriginGateway{
		openStreamFn: func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
			return &repository.Stream{
				Status: http.StatusOK,
				Header: http.Header{},
				Body:   body,
			}, nil
		},
	}
	router := newPlaybackRouter(registeredLinkService(), &mockPrefetchCache{}, gateway)

	req := httptest.NewRequest(http.MethodGet, "/play/test-link-id", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	// A disconnect is ordinary teardown: the handler returns without
	// panicking.
	router.ServeHTTP(rec, req)

	if got := rec.Body.String(); got != "first bytes" {
		t.Errorf("body = %q, want the bytes sent before the disconnect", got)
	}
}
