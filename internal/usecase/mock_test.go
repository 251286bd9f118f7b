package usecase

import (
	"context"
	"time"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
)

// mockLinkRegistry provides a configurable mock for LinkRegistry.
type mockLinkRegistry struct {
	createFn func(link *model.Link) string
	lookupFn func(id string) (*model.Link, bool)
	lenFn    func() int
}

func (m *mockLinkRegistry) Create(link *model.Link) string {
	if m.createFn != nil {
		return m.createFn(link)
	}
	link.ID = "test-link-id"
	link.CreatedAt = time.Now()
	return link.ID
}

func (m *mockLinkRegistry) Lookup(id string) (*model.Link, bool) {
	if m.lookupFn != nil {
		return m.lookupFn(id)
	}
	return nil, false
}

func (m *mockLinkRegistry) Len() int {
	if m.lenFn != nil {
		return m.lenFn()
	}
	return 0
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
	return nil, nil
}
