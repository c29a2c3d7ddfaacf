package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/models"
)

// ===== RESPONSE DTOs =====

type DashboardResponse struct {
	Greeting string                   `json:"greeting"`
	Summary  *models.DashboardSummary `json:"summary"`
}

type AnalyticsResponse struct {
	Analytics *models.TeamAnalytics `json:"analytics"`
	RiskShare map[string]float64    `json:"risk_share"`
}

// ===== SERVICE IMPLEMENTATION =====

type dashboardService struct {
	api    *apiclient.Client
	cache  *cache.CacheHelper
	logger *slog.Logger
}

func NewDashboardService(api *apiclient.Client, pages *cache.CacheHelper, logger *slog.Logger) DashboardService {
	return &dashboardService{
		api:    api,
		cache:  pages,
		logger: logger,
	}
}

func (s *dashboardService) GetDashboard(ctx context.Context, user *models.User) (*DashboardResponse, error) {
	if user == nil {
		return nil, ErrUnauthorized
	}
	requestLogger(ctx, s.logger).InfoContext(ctx, "Getting dashboard", "user_id", user.ID)

	var summary models.DashboardSummary
	key := strconv.FormatInt(user.ID, 10)
	err := s.cache.CacheOrExecuteWithConfig(ctx, key, &summary, cache.DashboardCacheConfig, func() (interface{}, error) {
		return s.api.DashboardSummary(ctx)
	})
	if err != nil {
		return nil, translateUpstream("dashboard", "load", err)
	}
	summary.Normalize()

	return &DashboardResponse{
		Greeting: fmt.Sprintf("Welcome back, %s", user.DisplayName()),
		Summary:  &summary,
	}, nil
}

func (s *dashboardService) GetAnalytics(ctx context.Context) (*AnalyticsResponse, error) {
	requestLogger(ctx, s.logger).InfoContext(ctx, "Getting team analytics")

	analytics, err := s.api.TeamAnalytics(ctx)
	if err != nil {
		return nil, translateUpstream("analytics", "load", err)
	}

	return &AnalyticsResponse{
		Analytics: analytics,
		RiskShare: riskShare(analytics.RiskDistribution),
	}, nil
}

// riskShare converts counts into percentages rounded to one decimal.
func riskShare(dist map[string]int) map[string]float64 {
	total := 0
	for _, n := range dist {
		total += n
	}

	share := make(map[string]float64, len(dist))
	for level, n := range dist {
		if total == 0 {
			share[level] = 0
			continue
		}
		share[level] = roundFloat(float64(n)*100/float64(total), 1)
	}
	return share
}

func roundFloat(val float64, precision uint) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
