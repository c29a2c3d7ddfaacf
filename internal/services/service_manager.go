package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

// ServiceManagerConfig holds the list settings shared by every page
type ServiceManagerConfig struct {
	DefaultPageSize int
	ListIdleTTL     time.Duration
}

type serviceManager struct {
	api    *apiclient.Client
	caches *cache.CacheManager
	logger *slog.Logger

	dashboardService    DashboardService
	organizationService OrganizationService
	workService         WorkService
	exportService       ExportService
	lists               *ListPages

	shutdown bool
	mu       sync.RWMutex
}

// NewServiceManager wires every service against the upstream client
func NewServiceManager(api *apiclient.Client, caches *cache.CacheManager, v *validator.Validator, logger *slog.Logger, config ServiceManagerConfig) ServiceManager {
	sm := &serviceManager{
		api:    api,
		caches: caches,
		logger: logger,
	}

	sm.dashboardService = NewDashboardService(api, caches.Pages, logger)
	sm.organizationService = NewOrganizationService(api, caches.Pages, v, logger)
	sm.workService = NewWorkService(api, caches, v, logger)
	sm.exportService = NewExportService(api, logger)
	sm.lists = NewListPages(api, config.ListIdleTTL, config.DefaultPageSize, logger)

	logger.Info("Service manager initialized",
		"default_page_size", config.DefaultPageSize,
		"list_idle_ttl", config.ListIdleTTL.String())
	return sm
}

// requestLogger prefers the request scoped logger so service logs carry the
// request and session ids.
func requestLogger(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	return utils.LoggerFromContext(ctx, utils.NewSlogLogger(fallback)).Slog()
}

func (sm *serviceManager) Dashboard() DashboardService       { return sm.dashboardService }
func (sm *serviceManager) Organization() OrganizationService { return sm.organizationService }
func (sm *serviceManager) Work() WorkService                 { return sm.workService }
func (sm *serviceManager) Export() ExportService             { return sm.exportService }
func (sm *serviceManager) Lists() *ListPages                 { return sm.lists }

// HealthCheck reports the service unhealthy once shut down. A missing cache
// is tolerated since every cache use degrades to a direct upstream call.
func (sm *serviceManager) HealthCheck(ctx context.Context) error {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.shutdown {
		return fmt.Errorf("service manager is shut down")
	}

	if err := sm.caches.HealthCheck(ctx); err != nil && !errors.Is(err, cache.ErrCacheNotAvailable) {
		return err
	}
	return nil
}

func (sm *serviceManager) Shutdown(ctx context.Context) error {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.shutdown {
		return nil
	}

	sm.logger.InfoContext(ctx, "Shutting down service manager")
	sm.shutdown = true
	return nil
}
