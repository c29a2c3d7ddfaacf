package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamdash/team-dashboard/internal/services"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

// WorkHandler serves the mutations behind the gated page actions
type WorkHandler struct {
	BaseHandler
	work         services.WorkService
	organization services.OrganizationService
}

func NewWorkHandler(work services.WorkService, organization services.OrganizationService, logger utils.Logger) *WorkHandler {
	return &WorkHandler{
		BaseHandler:  NewBaseHandler(logger),
		work:         work,
		organization: organization,
	}
}

// CreateProject creates a new project
// @Summary Create project
// @Tags projects
// @Accept json
// @Produce json
// @Param project body validator.ProjectRequest true "Project data"
// @Success 201 {object} models.Project
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /projects [post]
func (h *WorkHandler) CreateProject(c *gin.Context) {
	var req validator.ProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating project", "name", req.Name)

	project, err := h.work.CreateProject(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

// UpdateProject replaces a project
// @Summary Update project
// @Tags projects
// @Accept json
// @Produce json
// @Param id path int true "Project ID"
// @Param project body validator.ProjectRequest true "Project data"
// @Success 200 {object} models.Project
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /projects/{id} [put]
func (h *WorkHandler) UpdateProject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req validator.ProjectRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating project", "project_id", id)

	project, err := h.work.UpdateProject(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *WorkHandler) DeleteProject(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting project", "project_id", id)

	if err := h.work.DeleteProject(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateSurvey creates a survey with its questions
// @Summary Create survey
// @Tags surveys
// @Accept json
// @Produce json
// @Param survey body validator.SurveyRequest true "Survey data"
// @Success 201 {object} models.Survey
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /surveys [post]
func (h *WorkHandler) CreateSurvey(c *gin.Context) {
	var req validator.SurveyRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating survey", "title", req.Title, "questions", len(req.Questions))

	survey, err := h.work.CreateSurvey(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, survey)
}

func (h *WorkHandler) DeleteSurvey(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}

	h.LogRequest(c, "Deleting survey", "survey_id", id)

	if err := h.work.DeleteSurvey(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *WorkHandler) CreateActionItem(c *gin.Context) {
	var req validator.ActionItemRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Creating action item", "title", req.Title)

	item, err := h.work.CreateActionItem(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

// UpdateActionItemStatus moves an action item to a new status
// @Summary Update action item status
// @Tags action-items
// @Accept json
// @Produce json
// @Param id path int true "Action item ID"
// @Param status body validator.ActionItemStatusRequest true "New status"
// @Success 200 {object} models.ActionItem
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /action-items/{id}/status [patch]
func (h *WorkHandler) UpdateActionItemStatus(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req validator.ActionItemStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Updating action item status", "action_item_id", id, "status", req.Status)

	item, err := h.work.UpdateActionItemStatus(c.Request.Context(), id, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

func (h *WorkHandler) AssignCourse(c *gin.Context) {
	id := h.parseIDParam(c, "id")
	if id == 0 {
		return
	}
	var req validator.CourseAssignmentRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Assigning course", "course_id", id, "users", len(req.UserIDs))

	if err := h.work.AssignCourse(c.Request.Context(), id, &req); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SendMessage posts a chat message as the current user
// @Summary Send chat message
// @Tags chat
// @Accept json
// @Produce json
// @Param message body validator.ChatMessageRequest true "Message"
// @Success 201 {object} models.ChatMessage
// @Failure 400 {object} ErrorResponse
// @Router /chat/messages [post]
func (h *WorkHandler) SendMessage(c *gin.Context) {
	s, err := GetSessionFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	var req validator.ChatMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}

	h.LogRequest(c, "Sending chat message")

	msg, err := h.organization.SendMessage(c.Request.Context(), s.User, &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}
