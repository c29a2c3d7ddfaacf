package services

import (
	"context"

	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/validator"
)

// ===== DASHBOARD =====

type DashboardService interface {
	GetDashboard(ctx context.Context, user *models.User) (*DashboardResponse, error)
	GetAnalytics(ctx context.Context) (*AnalyticsResponse, error)
}

// ===== ORGANIZATION & CHAT =====

type OrganizationService interface {
	GetOrgChart(ctx context.Context) (*OrgChartResponse, error)
	SendMessage(ctx context.Context, sender *models.User, req *validator.ChatMessageRequest) (*models.ChatMessage, error)
}

// ===== MUTATIONS =====

type WorkService interface {
	GetSurvey(ctx context.Context, id int64) (*models.Survey, error)

	CreateProject(ctx context.Context, req *validator.ProjectRequest) (*models.Project, error)
	UpdateProject(ctx context.Context, id int64, req *validator.ProjectRequest) (*models.Project, error)
	DeleteProject(ctx context.Context, id int64) error

	CreateSurvey(ctx context.Context, req *validator.SurveyRequest) (*models.Survey, error)
	DeleteSurvey(ctx context.Context, id int64) error

	CreateActionItem(ctx context.Context, req *validator.ActionItemRequest) (*models.ActionItem, error)
	UpdateActionItemStatus(ctx context.Context, id int64, req *validator.ActionItemStatusRequest) (*models.ActionItem, error)

	AssignCourse(ctx context.Context, courseID int64, req *validator.CourseAssignmentRequest) error
}

// ===== EXPORT =====

type ExportService interface {
	ExportTeamRoster(ctx context.Context, search string) ([]byte, error)
}

// ===== SERVICE MANAGER =====

type ServiceManager interface {
	Dashboard() DashboardService
	Organization() OrganizationService
	Work() WorkService
	Export() ExportService
	Lists() *ListPages

	// Health and lifecycle
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
