package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/teamdash/team-dashboard/internal/listquery"
	"github.com/teamdash/team-dashboard/internal/metrics"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/rbac"
	"github.com/teamdash/team-dashboard/internal/services"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Action describes a control the page may show. Gated actions are left out
// of the response when the user lacks the capability.
type Action struct {
	Label  string `json:"label"`
	Method string `json:"method"`
	Href   string `json:"href"`
}

type gatedAction struct {
	gate   rbac.Gate
	action Action
}

// ListPage is a list view plus the actions available on it
type ListPage[T any] struct {
	listquery.View[T]
	Actions []Action `json:"actions"`
}

type DashboardPage struct {
	*services.DashboardResponse
	QuickActions []Action `json:"quick_actions"`
}

type SurveyPage struct {
	Survey  *models.Survey `json:"survey"`
	Actions []Action       `json:"actions"`
}

var (
	projectActions = []gatedAction{
		{rbac.Gate{Permission: models.PermCreateProjects}, Action{Label: "Create Project", Method: http.MethodPost, Href: "/api/v1/projects"}},
	}
	surveyActions = []gatedAction{
		{rbac.Gate{Permission: models.PermCreateSurveys}, Action{Label: "Create Survey", Method: http.MethodPost, Href: "/api/v1/surveys"}},
	}
	actionItemActions = []gatedAction{
		{rbac.Gate{Permission: models.PermAssignActionItems}, Action{Label: "Assign Action Item", Method: http.MethodPost, Href: "/api/v1/action-items"}},
	}
	teamActions = []gatedAction{
		{rbac.Gate{Permission: models.PermManageTeam}, Action{Label: "Export Roster", Method: http.MethodGet, Href: "/api/v1/pages/team/export"}},
	}
	chatActions = []gatedAction{
		{rbac.Gate{}, Action{Label: "Send Message", Method: http.MethodPost, Href: "/api/v1/chat/messages"}},
	}
	dashboardActions = []gatedAction{
		{rbac.Gate{Permission: models.PermCreateProjects}, Action{Label: "New Project", Method: http.MethodGet, Href: "/projects/create"}},
		{rbac.Gate{Permission: models.PermCreateSurveys}, Action{Label: "New Survey", Method: http.MethodGet, Href: "/surveys/create"}},
		{rbac.Gate{Roles: []models.Role{models.RoleManager}, Permission: models.PermViewTeamAnalytics}, Action{Label: "Team Analytics", Method: http.MethodGet, Href: "/analytics"}},
	}
)

// resolveActions keeps the actions whose gate allows access, in order.
func resolveActions(access rbac.Access, actions []gatedAction) []Action {
	out := make([]Action, 0, len(actions))
	for _, ga := range actions {
		action := ga.action
		if r := rbac.Render(access, ga.gate, func() Action { return action }, nil); r != nil && r.Content != nil {
			out = append(out, *r.Content)
		}
	}
	return out
}

type PageHandler struct {
	BaseHandler
	services  services.ServiceManager
	validator *validator.Validator
	metrics   *metrics.Metrics
}

func NewPageHandler(sm services.ServiceManager, v *validator.Validator, m *metrics.Metrics, logger utils.Logger) *PageHandler {
	return &PageHandler{
		BaseHandler: NewBaseHandler(logger),
		services:    sm,
		validator:   v,
		metrics:     m,
	}
}

// pageRequest turns query parameters into a controller request. A request
// without parameters, or with retry=true, always fetches; parameters sent
// alongside retry=true are applied before the fetch.
func (h *PageHandler) pageRequest(c *gin.Context, s string) (services.PageRequest, bool) {
	var params validator.ListParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid query parameters",
			Details: err.Error(),
		})
		return services.PageRequest{}, false
	}
	if err := h.validator.Validate(&params); err != nil {
		h.handleServiceError(c, err)
		return services.PageRequest{}, false
	}

	change := listquery.Change{Search: params.Search, Page: params.Page, PageSize: params.PageSize}
	reload := c.Query("retry") == "true" || (change.Search == nil && change.Page == nil && change.PageSize == nil)
	return services.PageRequest{SessionID: s, Change: change, Reload: reload}, true
}

// servePage is shared by every list page. Fetch failures stay inside the view
// so the page can show its own error banner with a retry action; an expired
// upstream session goes through handleServiceError like the dashboard.
func servePage[T any](h *PageHandler, c *gin.Context, page string, reg *listquery.Registry[T], actions []gatedAction) {
	s, err := GetSessionFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	req, ok := h.pageRequest(c, s.ID())
	if !ok {
		return
	}

	h.LogRequest(c, "Loading list page", "page", page, "reload", req.Reload)

	view, err := services.LoadPage(c.Request.Context(), reg, req, h.logger.Slog())
	if h.metrics != nil {
		h.metrics.ObserveListFetch(page, view.Error != "", view.Stale)
	}
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	access, _ := GetAccessFromContext(c)
	c.JSON(http.StatusOK, ListPage[T]{View: view, Actions: resolveActions(access, actions)})
}

// Projects godoc
// @Summary Projects page
// @Tags pages
// @Produce json
// @Param search query string false "Search text"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size (5, 10, 20, 50)"
// @Param retry query bool false "Reissue the current query"
// @Success 200 {object} ListPage[models.Project]
// @Failure 403 {object} ErrorResponse
// @Router /pages/projects [get]
func (h *PageHandler) Projects(c *gin.Context) {
	servePage(h, c, "projects", h.services.Lists().Projects, projectActions)
}

func (h *PageHandler) TeamProjects(c *gin.Context) {
	servePage(h, c, "team-projects", h.services.Lists().TeamProjects, nil)
}

func (h *PageHandler) MyTeam(c *gin.Context) {
	servePage(h, c, "my-team", h.services.Lists().MyTeam, nil)
}

func (h *PageHandler) Team(c *gin.Context) {
	servePage(h, c, "team", h.services.Lists().Team, teamActions)
}

func (h *PageHandler) Surveys(c *gin.Context) {
	servePage(h, c, "surveys", h.services.Lists().Surveys, surveyActions)
}

func (h *PageHandler) ActionItems(c *gin.Context) {
	servePage(h, c, "action-items", h.services.Lists().ActionItems, actionItemActions)
}

func (h *PageHandler) Courses(c *gin.Context) {
	servePage(h, c, "courses", h.services.Lists().Courses, nil)
}

func (h *PageHandler) Chat(c *gin.Context) {
	servePage(h, c, "chat", h.services.Lists().Chat, chatActions)
}

// Dashboard returns the manager dashboard
// @Summary Dashboard page
// @Tags pages
// @Produce json
// @Success 200 {object} DashboardPage
// @Failure 403 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /pages/dashboard [get]
func (h *PageHandler) Dashboard(c *gin.Context) {
	s, err := GetSessionFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Loading dashboard")

	resp, err := h.services.Dashboard().GetDashboard(c.Request.Context(), s.User)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, DashboardPage{
		DashboardResponse: resp,
		QuickActions:      resolveActions(s.Access(), dashboardActions),
	})
}

func (h *PageHandler) Analytics(c *gin.Context) {
	h.LogRequest(c, "Loading team analytics")

	resp, err := h.services.Dashboard().GetAnalytics(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *PageHandler) Organization(c *gin.Context) {
	h.LogRequest(c, "Loading org chart")

	resp, err := h.services.Organization().GetOrgChart(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Survey returns one survey with its questions
// @Summary Survey detail page
// @Tags pages
// @Produce json
// @Param id path int true "Survey ID"
// @Success 200 {object} SurveyPage
// @Failure 404 {object} ErrorResponse
// @Router /pages/surveys/{id} [get]
func (h *PageHandler) Survey(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Loading survey", "survey_id", id)

	survey, err := h.services.Work().GetSurvey(c.Request.Context(), id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	access, _ := GetAccessFromContext(c)
	actions := resolveActions(access, []gatedAction{
		{rbac.Gate{Permission: models.PermDeleteSurveys}, Action{Label: "Delete Survey", Method: http.MethodDelete, Href: fmt.Sprintf("/api/v1/surveys/%d", id)}},
	})
	c.JSON(http.StatusOK, SurveyPage{Survey: survey, Actions: actions})
}

// ExportTeam streams the team roster as an XLSX workbook
// @Summary Export team roster
// @Tags pages
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param search query string false "Search text"
// @Success 200 {file} file
// @Failure 403 {object} ErrorResponse
// @Router /pages/team/export [get]
func (h *PageHandler) ExportTeam(c *gin.Context) {
	search := c.Query("search")
	h.LogRequest(c, "Exporting team roster", "search", search)

	data, err := h.services.Export().ExportTeamRoster(c.Request.Context(), search)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ExportBytes.Observe(float64(len(data)))
	}

	filename := fmt.Sprintf("team-roster-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
