package services

import (
	"context"
	"log/slog"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/validator"
)

type OrgChartResponse struct {
	Roots     []models.OrgNode `json:"roots"`
	Headcount int              `json:"headcount"`
}

type organizationService struct {
	api       *apiclient.Client
	cache     *cache.CacheHelper
	validator *validator.Validator
	logger    *slog.Logger
}

func NewOrganizationService(api *apiclient.Client, pages *cache.CacheHelper, v *validator.Validator, logger *slog.Logger) OrganizationService {
	return &organizationService{api: api, cache: pages, validator: v, logger: logger}
}

func (s *organizationService) GetOrgChart(ctx context.Context) (*OrgChartResponse, error) {
	var roots []models.OrgNode
	err := s.cache.CacheOrExecuteWithConfig(ctx, "all", &roots, cache.OrgChartCacheConfig, func() (interface{}, error) {
		return s.api.OrgChart(ctx)
	})
	if err != nil {
		return nil, translateUpstream("org chart", "load", err)
	}
	if roots == nil {
		roots = []models.OrgNode{}
	}

	return &OrgChartResponse{Roots: roots, Headcount: countNodes(roots)}, nil
}

func countNodes(nodes []models.OrgNode) int {
	n := len(nodes)
	for _, node := range nodes {
		n += countNodes(node.Children)
	}
	return n
}

func (s *organizationService) SendMessage(ctx context.Context, sender *models.User, req *validator.ChatMessageRequest) (*models.ChatMessage, error) {
	if sender == nil {
		return nil, ErrUnauthorized
	}
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	msg, err := s.api.ChatMessages.Create(ctx, req)
	if err != nil {
		return nil, translateUpstream("chat message", "send", err)
	}
	if msg.SenderName == "" || msg.SenderName == models.UnknownUserName {
		msg.SenderName = sender.DisplayName()
	}

	requestLogger(ctx, s.logger).InfoContext(ctx, "Chat message sent", "user_id", sender.ID, "message_id", msg.ID)
	return msg, nil
}
