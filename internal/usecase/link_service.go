package usecase

import (
	"context"
	"fmt"

	"github.com/vidlink/vidlink/internal/domain/model"
	"github.com/vidlink/vidlink/internal/domain/repository"
)

// LinkService defines the business operations around short video links.
type LinkService interface {
	// CreateLink resolves a content reference against the origin,
	// registers a short link for the resolved video, and kicks off a
	// prefetch warm-up for its leading bytes.
	CreateLink(ctx context.Context, ref string) (*model.Link, error)

	// GetLink retrieves a link by its identifier.
	// Returns repository.ErrLinkNotFound when no entry exists.
	GetLink(ctx context.Context, id string) (*model.Link, error)

	// WarmLink triggers a prefetch warm-up for the link's resource.
	// Fire-and-forget: a no-op for already-warm resources, silent on
	// failure.
	WarmLink(link *model.Link)
}

// LinkServiceConfig holds policy knobs for link creation.
type LinkServiceConfig struct {
	// DefaultWidth and DefaultHeight fill in display dimensions when the
	// origin reports none for a video.
	DefaultWidth  int
	DefaultHeight int
}

// DefaultLinkServiceConfig returns the default configuration.
func DefaultLinkServiceConfig() LinkServiceConfig {
	return LinkServiceConfig{
		DefaultWidth:  1280,
		DefaultHeight: 720,
	}
}

type linkService struct {
	registry repository.LinkRegistry
	cache    repository.PrefetchCache
	origin   repository.OriginGateway

	defaultWidth  int
	defaultHeight int
}

// NewLinkService creates a new LinkService instance.
func NewLinkService(
	registry repository.LinkRegistry,
	cache repository.PrefetchCache,
	origin repository.OriginGateway,
	cfg LinkServiceConfig,
) LinkService {
	return &linkService{
		registry:      registry,
		cache:         cache,
		origin:        origin,
		defaultWidth:  cfg.DefaultWidth,
		defaultHeight: cfg.DefaultHeight,
	}
}

// CreateLink resolves, registers, and warms in that order. Registration
// cannot fail once the source validates; the warm-up is detached and its
// outcome never surfaces here.
func (s *linkService) CreateLink(ctx context.Context, ref string) (*model.Link, error) {
	src, err := s.origin.Resolve(ctx, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve reference: %w", err)
	}

	if src.Width <= 0 || src.Height <= 0 {
		src.Width = s.defaultWidth
		src.Height = s.defaultHeight
	}

	link, err := model.NewLink(*src)
	if err != nil {
		return nil, err
	}

	s.registry.Create(link)
	s.cache.Warm(link.OriginURL, link.AccessToken)

	return link, nil
}

// GetLink retrieves a link by its identifier.
func (s *linkService) GetLink(_ context.Context, id string) (*model.Link, error) {
	link, ok := s.registry.Lookup(id)
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return link, nil
}

// WarmLink triggers a prefetch warm-up for the link's resource.
func (s *linkService) WarmLink(link *model.Link) {
	s.cache.Warm(link.OriginURL, link.AccessToken)
}
