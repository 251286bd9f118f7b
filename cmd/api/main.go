package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vidlink/vidlink/internal/api/handler"
	"github.com/vidlink/vidlink/internal/api/middleware"
	"github.com/vidlink/vidlink/internal/config"
	"github.com/vidlink/vidlink/internal/domain/repository"
	"github.com/vidlink/vidlink/internal/infrastructure/memstore"
	"github.com/vidlink/vidlink/internal/origin"
	"github.com/vidlink/vidlink/internal/usecase"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// A missing .env is fine; deployed environments inject real env vars.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	originClient := origin.NewClient(origin.ClientConfig{
		APIBaseURL:          cfg.Origin.APIBaseURL,
		RequestTimeout:      cfg.Origin.RequestTimeout,
		StreamHeaderTimeout: cfg.Origin.StreamHeaderTimeout,
		MaxRedirects:        cfg.Origin.MaxRedirects,
		TokenTTL:            cfg.Origin.TokenTTL,
	})

	registry := memstore.NewLinkRegistry(cfg.Registry.TTL, cfg.Registry.MaxEntries)
	cache := memstore.NewPrefetchCache(originClient, logger, memstore.PrefetchCacheConfig{
		TTL:         cfg.Prefetch.TTL,
		MaxEntries:  cfg.Prefetch.MaxEntries,
		ChunkSize:   cfg.Prefetch.ChunkSize,
		WarmTimeout: cfg.Prefetch.WarmTimeout,
	})

	svc := usecase.NewLinkService(registry, cache, originClient, usecase.LinkServiceConfig{
		DefaultWidth:  cfg.Origin.DefaultVideoWidth,
		DefaultHeight: cfg.Origin.DefaultVideoHeight,
	})

	trust := origin.NewTrust(cfg.Origin.TrustedSuffixes, cfg.Origin.AllowInsecure)

	r := setupRouter(logger, cfg, svc, cache, originClient, trust)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down server", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	logger.Info("server stopped")
	return nil
}

func setupRouter(
	logger *slog.Logger,
	cfg *config.Config,
	svc usecase.LinkService,
	cache repository.PrefetchCache,
	gateway repository.OriginGateway,
	trust *origin.Trust,
) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))

	linkHandler := handler.NewLinkHandler(svc, cfg.Server.PublicBaseURL)
	embedHandler := handler.NewEmbedHandler(svc, logger, cfg.Server.PublicBaseURL)
	playbackHandler := handler.NewPlaybackHandler(svc, cache, gateway, trust, logger)

	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/links", linkHandler.Create)
		r.Get("/links/{id}", linkHandler.Get)
	})

	// Embed pages and playback are fetched cross-origin by unfurlers and
	// media players, so CORS applies to every response on these routes,
	// preflights included.
	corsmw := cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "Range"},
		ExposedHeaders: []string{"Accept-Ranges", "Content-Length", "Content-Range", "Content-Type"},
		MaxAge:         86400,
	})

	r.Route("/v", func(r chi.Router) {
		r.Use(corsmw)
		r.Get("/{id}", embedHandler.Get)
	})

	r.Route("/play", func(r chi.Router) {
		r.Use(corsmw)
		r.Get("/{id}", playbackHandler.Stream)
		r.Head("/{id}", playbackHandler.Stream)
		r.Get("/{id}/{filename}", playbackHandler.Stream)
		r.Head("/{id}/{filename}", playbackHandler.Stream)
	})

	return r
}
