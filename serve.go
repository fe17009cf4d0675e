package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"distress-score/config"
	httpLayer "distress-score/http"
	"distress-score/logging"
	"distress-score/metrics"
	"distress-score/repository"
	"distress-score/service"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP scoring API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logging.Setup(cfg.Log.Level, cfg.Log.Format)
			return runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML config file")
	return cmd
}

// newCache returns the configured cache and a close func. A redis instance
// that does not answer at startup is only a warning; the breaker takes over.
func newCache(ctx context.Context, cfg config.CacheConfig) (repository.CacheRepository, func()) {
	switch cfg.Backend {
	case config.CacheRedis:
		cache := repository.NewRedisCache(cfg.RedisAddr)
		if err := cache.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.RedisAddr).Msg("redis not reachable, scores will be computed uncached until it is")
		}
		return cache, func() {
			if err := cache.Close(); err != nil {
				log.Warn().Err(err).Msg("closing redis")
			}
		}
	case config.CacheNone:
		return repository.NewNoopCache(), func() {}
	default:
		cache := repository.NewMemoryCache()
		return cache, cache.Stop
	}
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if ctx == nil {
		ctx = context.Background()
	}

	m := metrics.New()

	cache, closeCache := newCache(ctx, cfg.Cache)
	defer closeCache()

	distressService := service.NewDistressService(cache, cfg.Cache.TTL, m)
	batchService := service.NewBatchService(distressService)
	narrativeService := service.NewNarrativeService(service.NarrativeOptions{
		APIKey:  cfg.Narrative.APIKey,
		APIURL:  cfg.Narrative.APIURL,
		Model:   cfg.Narrative.Model,
		Timeout: cfg.Narrative.Timeout,
	}, m)
	if !narrativeService.Enabled() {
		log.Info().Msg("narrative LLM disabled, /distress/explain uses the template narrative")
	}

	rateLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.RequestsPerMinute, cfg.RateLimit.Burst)
	defer rateLimiter.Stop()

	router := httpLayer.NewRouter(httpLayer.RouterConfig{
		Distress:    httpLayer.NewDistressHandler(distressService, narrativeService),
		Batch:       httpLayer.NewBatchHandler(batchService),
		RateLimiter: rateLimiter,
		Metrics:     m,
	})

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Str("cache", cfg.Cache.Backend).Msg("distress API listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serverErr:
		return fmt.Errorf("starting server: %w", err)
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info().Msg("server exited")
	return nil
}
