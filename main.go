package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/config"
	"github.com/teamdash/team-dashboard/internal/events"
	"github.com/teamdash/team-dashboard/internal/handlers"
	"github.com/teamdash/team-dashboard/internal/metrics"
	"github.com/teamdash/team-dashboard/internal/services"
	"github.com/teamdash/team-dashboard/internal/session"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(slogLogger)
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize Redis. Sessions need it; page caches degrade without it.
	redisClient, err := newRedisClient(cfg.Redis.URL)
	if err != nil {
		if cfg.Session.AuthMode == config.AuthModeSession {
			log.Fatalf("Failed to initialize Redis: %v", err)
		}
		logger.Warn("Redis unavailable, page caching disabled", "error", err)
	}
	caches := cache.NewCacheManager(redisClient)

	// Metrics registry
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(registry)

	// Session events
	bus, err := events.NewBus(events.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.Topic}, slogLogger)
	if err != nil {
		log.Fatalf("Failed to initialize event bus: %v", err)
	}

	api := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout)
	validator := validator.New()

	serviceManager := services.NewServiceManager(api, caches, validator, slogLogger, services.ServiceManagerConfig{
		DefaultPageSize: cfg.Lists.DefaultPageSize,
		ListIdleTTL:     cfg.Lists.IdleTTL,
	})

	// Token resolution: stored sessions or Casdoor-issued JWTs
	var (
		resolver session.Resolver
		sessions handlers.SessionManager
	)
	switch cfg.Session.AuthMode {
	case config.AuthModeCasdoor:
		resolver = session.NewCasdoorResolver(cfg.Casdoor)
	default:
		manager := session.NewManager(caches.Session, api, bus, cfg.Session.TTL, logger)
		resolver, sessions = manager, manager
	}

	ctx, stop := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	// Drop list state of sessions that ended on any instance
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := bus.Listen(ctx, events.ForgetOnSessionEnd(serviceManager.Lists().Group())); err != nil {
			logger.Error("Session event listener stopped", "error", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		sweepLists(ctx, serviceManager.Lists(), cfg.Lists.IdleTTL, m, logger)
	}()

	handlerManager := handlers.NewHandlerManager(serviceManager, resolver, sessions, validator, m, logger)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	handlers.SetupMiddleware(router, logger, m)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			"port", cfg.Port,
			"environment", cfg.Environment,
			"auth_mode", cfg.Session.AuthMode,
			"kafka", cfg.KafkaEnabled())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	if err := serviceManager.Shutdown(shutdownCtx); err != nil {
		log.Printf("Failed to shutdown services: %v", err)
	}

	// Stop background workers, then the bus they read from
	stop()
	if err := bus.Close(); err != nil {
		log.Printf("Failed to close event bus: %v", err)
	}
	wg.Wait()

	if redisClient != nil {
		redisClient.Close()
	}

	logger.Info("Server exited")
}

func newRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// sweepLists drops list controllers of pages nobody has touched within ttl.
func sweepLists(ctx context.Context, lists *services.ListPages, ttl time.Duration, m *metrics.Metrics, logger utils.Logger) {
	interval := max(ttl/2, time.Minute)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, live := lists.Sweep()
			m.ListSweptTotal.Add(float64(removed))
			m.ListControllers.Set(float64(live))
			if removed > 0 {
				logger.Debug("Swept idle list controllers", "removed", removed, "live", live)
			}
		}
	}
}
