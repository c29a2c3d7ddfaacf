package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/teamdash/team-dashboard/internal/metrics"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/rbac"
	"github.com/teamdash/team-dashboard/internal/session"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

// SessionManager is the login/logout side of the session store
type SessionManager interface {
	Login(ctx context.Context, email, password string) (*session.Session, error)
	Logout(ctx context.Context, token string) error
}

// MeResponse is everything the shell needs to render for the current user
type MeResponse struct {
	User        *models.User         `json:"user"`
	Role        models.Role          `json:"role"`
	Permissions models.PermissionSet `json:"permissions"`
	Navigation  []models.NavItem     `json:"navigation"`
}

// LoginResponse carries the token to send as bearer on later requests
type LoginResponse struct {
	Token string `json:"token"`
	MeResponse
}

type RouteCheckResponse struct {
	Path     string `json:"path"`
	Allowed  bool   `json:"allowed"`
	Redirect string `json:"redirect,omitempty"`
}

type AuthHandler struct {
	BaseHandler
	sessions  SessionManager
	validator *validator.Validator
	metrics   *metrics.Metrics
}

// NewAuthHandler creates the auth handler. sessions is nil when an external
// identity provider issues tokens, which disables login and logout here.
func NewAuthHandler(sessions SessionManager, v *validator.Validator, m *metrics.Metrics, logger utils.Logger) *AuthHandler {
	return &AuthHandler{
		BaseHandler: NewBaseHandler(logger),
		sessions:    sessions,
		validator:   v,
		metrics:     m,
	}
}

// Login exchanges credentials for a session
// @Summary Log in
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body validator.LoginRequest true "Credentials"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	if h.sessions == nil {
		h.handleServiceError(c, session.ErrLoginUnsupported)
		return
	}

	var req validator.LoginRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Logging in", "email", req.Email)

	s, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.countSession("login")

	c.JSON(http.StatusOK, LoginResponse{
		Token:      s.Token,
		MeResponse: meFor(s),
	})
}

// Logout ends the current session
// @Summary Log out
// @Tags auth
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *gin.Context) {
	s, err := GetSessionFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	if h.sessions == nil {
		h.handleServiceError(c, session.ErrLoginUnsupported)
		return
	}

	h.LogRequest(c, "Logging out")

	if err := h.sessions.Logout(c.Request.Context(), s.Token); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.countSession("logout")

	c.Status(http.StatusNoContent)
}

// Me returns the current user with role, permissions and navigation
// @Summary Current user
// @Tags auth
// @Produce json
// @Success 200 {object} MeResponse
// @Failure 401 {object} ErrorResponse
// @Router /me [get]
func (h *AuthHandler) Me(c *gin.Context) {
	s, err := GetSessionFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, meFor(s))
}

// CheckRoute answers whether the current user may open a page path
// @Summary Check route access
// @Tags auth
// @Produce json
// @Param path query string true "Page path"
// @Success 200 {object} RouteCheckResponse
// @Failure 400 {object} ErrorResponse
// @Router /routes/check [get]
func (h *AuthHandler) CheckRoute(c *gin.Context) {
	path := c.Query("path")
	if path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing path",
		})
		return
	}

	s, err := GetSessionFromContext(c)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	resp := RouteCheckResponse{Path: path, Allowed: rbac.CanAccessRoute(s.User, path)}
	if !resp.Allowed {
		resp.Redirect = homePath
	}
	c.JSON(http.StatusOK, resp)
}

func (h *AuthHandler) countSession(event string) {
	if h.metrics != nil {
		h.metrics.SessionsTotal.WithLabelValues(event).Inc()
	}
}

func meFor(s *session.Session) MeResponse {
	access := s.Access()
	return MeResponse{
		User:        s.User,
		Role:        access.Role,
		Permissions: access.Permissions,
		Navigation:  access.Navigation(),
	}
}
