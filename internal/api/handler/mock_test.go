package handler

import (
	"context"
	"time"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
)

// mockLinkService provides a configurable mock for usecase.LinkService.
type mockLinkService struct {
	createLinkFn func(ctx context.Context, ref string) (*model.Link, error)
	getLinkFn    func(ctx context.Context, id string) (*model.Link, error)
	warmLinkFn   func(link *model.Link)
}

func (m *mockLinkService) CreateLink(ctx context.Context, ref string) (*model.Link, error) {
	if m.createLinkFn != nil {
		return m.createLinkFn(ctx, ref)
	}
	return nil, nil
}

func (m *mockLinkService) GetLink(ctx context.Context, id string) (*model.Link, error) {
	if m.getLinkFn != nil {
		return m.getLinkFn(ctx, id)
	}
	return nil, repository.ErrLinkNotFound
}

func (m *mockLinkService) WarmLink(link *model.Link) {
	if m.warmLinkFn != nil {
		m.warmLinkFn(link)
	}
}

// mockPrefetchCache provides a configurable mock for PrefetchCache.
type mockPrefetchCache struct {
	warmFn   func(originURL, credential string)
	lookupFn func(originURL string) (*model.Chunk, bool)
}

func (m *mockPrefetchCache) Warm(originURL, credential string) {
	if m.warmFn != nil {
		m.warmFn(originURL, credential)
	}
}

func (m *mockPrefetchCache) Lookup(originURL string) (*model.Chunk, bool) {
	if m.lookupFn != nil {
		return m.lookupFn(originURL)
	}
	return nil, false
}

// mockOriginGateway provides a configurable mock for OriginGateway.
type mockOriginGateway struct {
	resolveFn    func(ctx context.Context, ref string) (*model.VideoSource, error)
	openStreamFn func(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error)
}

func (m *mockOriginGateway) Resolve(ctx context.Context, ref string) (*model.VideoSource, error) {
	if m.resolveFn != nil {
		return m.resolveFn(ctx, ref)
	}
	return nil, nil
}

func (m *mockOriginGateway) OpenStream(ctx context.Context, method, originURL, credential, rangeHeader string) (*repository.Stream, error) {
	if m.openStreamFn != nil {
		return m.openStreamFn(ctx, method, originURL, credential, rangeHeader)
	}
	return nil, repository.ErrOriginUnavailable
}

// testLink returns a registered link the way GetLink would hand it out.
func testLink() *model.Link {
	return &model.Link{
		ID:           "test-link-id",
		OriginURL:    "https://edge-1.origin.example/contents/b3c55de2-91f0-4a64-8f11-33bb10a2a2ad/trip.mp4",
		AccessToken:  "guest-token-1",
		DisplayName:  "trip.mp4",
		ThumbnailURL: "https://edge-1.origin.example/thumb.jpg",
		Width:        1920,
		Height:       1080,
		CreatedAt:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}
