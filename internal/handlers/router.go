package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamdash/team-dashboard/internal/metrics"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/rbac"
	"github.com/teamdash/team-dashboard/internal/services"
	"github.com/teamdash/team-dashboard/internal/session"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

type HandlerManager struct {
	authHandler    *AuthHandler
	pageHandler    *PageHandler
	workHandler    *WorkHandler
	authMiddleware *AuthMiddleware
	services       services.ServiceManager
	metrics        *metrics.Metrics
}

// NewHandlerManager wires every handler. sessions may be nil when tokens come
// from the identity provider; resolver is always required.
func NewHandlerManager(
	serviceManager services.ServiceManager,
	resolver session.Resolver,
	sessions SessionManager,
	validator *validator.Validator,
	m *metrics.Metrics,
	logger utils.Logger,
) *HandlerManager {
	return &HandlerManager{
		authHandler:    NewAuthHandler(sessions, validator, m, logger),
		pageHandler:    NewPageHandler(serviceManager, validator, m, logger),
		workHandler:    NewWorkHandler(serviceManager.Work(), serviceManager.Organization(), logger),
		authMiddleware: NewAuthMiddleware(resolver, m, logger),
		services:       serviceManager,
		metrics:        m,
	}
}

var managerOnly = []models.Role{models.RoleManager}

// SetupRoutes sets up all API routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	am := hm.authMiddleware

	v1 := router.Group("/api/v1")

	// Login is the only unauthenticated API route
	v1.POST("/auth/login", hm.authHandler.Login)

	authed := v1.Group("")
	authed.Use(am.Authenticate())
	{
		authed.POST("/auth/logout", hm.authHandler.Logout)
		authed.GET("/me", hm.authHandler.Me)
		authed.GET("/routes/check", hm.authHandler.CheckRoute)

		// Page view models, each behind the guard of its page route
		pages := authed.Group("/pages")
		{
			pages.GET("/dashboard", am.RouteGuard("/dashboard"),
				am.GatePage(rbac.Gate{Roles: managerOnly, ShowAccessDenied: true}), hm.pageHandler.Dashboard)
			pages.GET("/my-team", am.RouteGuard("/my-team"), hm.pageHandler.MyTeam)
			pages.GET("/team", am.RouteGuard("/team"), hm.pageHandler.Team)
			pages.GET("/team/export", am.RouteGuard("/team"), hm.pageHandler.ExportTeam)
			pages.GET("/projects", am.RouteGuard("/projects"), hm.pageHandler.Projects)
			pages.GET("/team-projects", am.RouteGuard("/team-projects"), hm.pageHandler.TeamProjects)
			pages.GET("/surveys", am.RouteGuard("/surveys"), hm.pageHandler.Surveys)
			pages.GET("/surveys/:id", am.RouteGuard("/surveys"), hm.pageHandler.Survey)
			pages.GET("/action-items", am.RouteGuard("/action-items"), hm.pageHandler.ActionItems)
			pages.GET("/courses", am.RouteGuard("/courses"), hm.pageHandler.Courses)
			pages.GET("/analytics", am.RouteGuard("/analytics"),
				am.GatePage(rbac.Gate{Permission: models.PermViewTeamAnalytics, ShowAccessDenied: true}), hm.pageHandler.Analytics)
			pages.GET("/organization", am.RouteGuard("/organization"), hm.pageHandler.Organization)
			pages.GET("/chat", am.RouteGuard("/chat"), hm.pageHandler.Chat)
		}

		projects := authed.Group("/projects")
		{
			projects.POST("", am.RequirePermission(models.PermCreateProjects), hm.workHandler.CreateProject)
			projects.PUT("/:id", am.RequirePermission(models.PermEditProjects), hm.workHandler.UpdateProject)
			projects.DELETE("/:id", am.RequirePermission(models.PermEditProjects), hm.workHandler.DeleteProject)
		}

		surveys := authed.Group("/surveys")
		{
			surveys.POST("", am.RequirePermission(models.PermCreateSurveys), hm.workHandler.CreateSurvey)
			surveys.DELETE("/:id", am.RequirePermission(models.PermDeleteSurveys), hm.workHandler.DeleteSurvey)
		}

		actionItems := authed.Group("/action-items")
		{
			actionItems.POST("", am.RequirePermission(models.PermAssignActionItems), hm.workHandler.CreateActionItem)
			actionItems.PATCH("/:id/status", am.RequirePermission(models.PermViewActionItems), hm.workHandler.UpdateActionItemStatus)
		}

		authed.POST("/courses/:id/assign", am.RequirePermission(models.PermAssignCourses), hm.workHandler.AssignCourse)
		authed.POST("/chat/messages", hm.workHandler.SendMessage)
	}

	router.GET("/health", hm.health)

	if hm.metrics != nil {
		router.GET("/metrics", hm.metrics.Handler())
	}
}

func (hm *HandlerManager) health(c *gin.Context) {
	status, code := "healthy", http.StatusOK
	body := gin.H{
		"service":   "team-dashboard",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	if err := hm.services.HealthCheck(c.Request.Context()); err != nil {
		status, code = "unhealthy", http.StatusServiceUnavailable
		body["error"] = err.Error()
	}
	body["status"] = status
	c.JSON(code, body)
}
