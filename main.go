package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"magit/config"
	httpLayer "magit/http"
	"magit/logger"
	"magit/repository"
	"magit/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid configuration")
	}
	logger.Init(cfg)

	db, err := repository.Open(cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("database unavailable")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("database handle unavailable")
	}
	defer sqlDB.Close()

	propertyRepo := repository.NewPropertyRepository(db)
	financingRepo := repository.NewFinancingRequestRepository(db)
	visitRepo := repository.NewVisitRepository(db)

	healthChecks := map[string]httpLayer.HealthCheck{"database": sqlDB.PingContext}

	var cache repository.CacheRepository = repository.NewMemoryCache(cfg.Cache.Capacity, cfg.Cache.FilterTTL, repository.SystemClock{})
	if cfg.Cache.RedisAddr != "" {
		redisCache := repository.NewRedisCache(cfg.Cache.RedisAddr, cfg.Cache.FilterTTL)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisCache.Ping(ctx)
		cancel()
		if err != nil {
			logger.Warn().Err(err).Str("addr", cfg.Cache.RedisAddr).Msg("redis unavailable, using in-memory cache")
			redisCache.Close()
		} else {
			defer redisCache.Close()
			cache = redisCache
			healthChecks["cache"] = redisCache.Ping
			logger.Info().Str("addr", cfg.Cache.RedisAddr).Msg("using redis cache")
		}
	}

	aiService := service.NewAIService(cfg.LLM)

	var parser service.FilterParser = service.NewRuleFilterParser()
	if aiService.Enabled() {
		parser = service.NewLLMFilterParser(aiService)
	} else {
		logger.Warn().Msg("LLM_API_KEY not set, using rule-based search parser")
	}

	var geocoder service.Geocoder
	if cfg.Geocoder.APIKey != "" {
		geocoder = service.NewYandexGeocoder(cfg.Geocoder)
	}

	searchService := service.NewSearchService(parser, propertyRepo, cache, aiService, cfg.Cache)
	financingService := service.NewFinancingService(financingRepo, propertyRepo)
	visitService := service.NewVisitService(visitRepo, propertyRepo, repository.SystemClock{})
	moderationService := service.NewModerationService(propertyRepo)
	backfillService := service.NewDistrictBackfillService(propertyRepo, geocoder, cfg.Geocoder.Delay)

	searchLimiter := httpLayer.NewRateLimiter(cfg.RateLimit.SearchPerMinute, time.Minute, repository.SystemClock{})
	defer searchLimiter.Stop()

	router := httpLayer.NewRouter(httpLayer.Handlers{
		Financing:      httpLayer.NewFinancingHandler(financingService),
		Search:         httpLayer.NewSearchHandler(searchService),
		Visits:         httpLayer.NewVisitHandler(visitService),
		Admin:          httpLayer.NewAdminHandler(moderationService, backfillService),
		OG:             httpLayer.NewOGHandler(propertyRepo, cfg.Server.PublicSiteURL),
		Health:         httpLayer.NewHealthHandler(healthChecks),
		Auth:           httpLayer.NewAuthenticator(cfg.Auth.JWTSecret),
		SearchLimiter:  searchLimiter,
		RequestTimeout: cfg.Server.WriteTimeout,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", server.Addr).Str("env", cfg.App.Environment).Msg("magit api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		logger.Error().Err(err).Msg("error starting server")
		return
	case sig := <-quit:
		logger.Info().Str("signal", sig.String()).Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("error during server shutdown")
	}

	logger.Info().Msg("server exited")
}
