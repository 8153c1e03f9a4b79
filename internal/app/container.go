package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/kapu/superhero-cards-go/internal/config"
	"github.com/kapu/superhero-cards-go/internal/constants"
	"github.com/kapu/superhero-cards-go/internal/render"
	"github.com/kapu/superhero-cards-go/internal/server"
	"github.com/kapu/superhero-cards-go/internal/service/cache"
	"github.com/kapu/superhero-cards-go/internal/service/session"
	"github.com/kapu/superhero-cards-go/internal/service/superhero"
	"go.uber.org/zap"
)

// Container bundles assembled services for constructing the HTTP server.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Fetcher  superhero.HeroFetcher
	Renderer *render.Renderer

	closers []func()
}

// NewServer instantiates the HTTP server using the pre-built dependency graph.
func (c *Container) NewServer() (*server.Server, error) {
	if c == nil || c.Fetcher == nil {
		return nil, fmt.Errorf("server dependencies not initialized")
	}

	return server.New(server.Config{
		Addr:            c.Config.Server.Addr,
		BootstrapIDs:    c.Config.Bootstrap.HeroIDs,
		LiveUpdates:     c.Config.Server.LiveUpdatesEnabled,
		SnapshotTimeout: c.Config.Server.SnapshotWaitTimeout,
		Session:         session.Options{},
	}, c.Fetcher, c.Renderer, c.Logger), nil
}

// Close releases infrastructure clients in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles the hero fetcher and its optional Redis response cache.
// When Redis is enabled but unreachable the service starts without a cache;
// the cache only saves upstream requests.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	var responseCache superhero.ResponseCache
	if cfg.Redis.Enabled {
		cacheSvc, cacheErr := cache.NewCacheService(cache.CacheConfig{
			Host:     cfg.Redis.Host,
			Port:     cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if cacheErr != nil {
			logger.Warn("Redis unavailable, hero responses will not be cached", zap.Error(cacheErr))
		} else {
			closers = append(closers, func() {
				_ = cacheSvc.Close()
			})
			if readyErr := cacheSvc.WaitUntilReady(ctx, constants.RedisConfig.ReadyTimeout); readyErr != nil {
				return nil, fmt.Errorf("redis not ready: %w", readyErr)
			}
			responseCache = cache.NewHeroResponseCache(cacheSvc, cfg.Redis.TTL, logger)
			logger.Info("Hero response cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
		}
	}

	httpClient := &http.Client{Timeout: cfg.Superhero.Timeout}
	fetcher := superhero.NewClient(httpClient, cfg.Superhero.Endpoint(), responseCache, logger)

	return &Container{
		Config:   cfg,
		Logger:   logger,
		Fetcher:  fetcher,
		Renderer: render.NewRenderer(""),
		closers:  closers,
	}, nil
}
