package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/metrics"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/rbac"
	"github.com/teamdash/team-dashboard/internal/session"
	"github.com/teamdash/team-dashboard/internal/utils"
)

const (
	contextKeySession = "session"
	contextKeyUser    = "user"
	contextKeyUserID  = "user_id"
	contextKeyAccess  = "access"

	loginPath = "/login"
	homePath  = "/"
)

// AuthMiddleware resolves the bearer token into a session and applies the
// route guard and capability gates.
type AuthMiddleware struct {
	resolver session.Resolver
	metrics  *metrics.Metrics
	logger   utils.Logger
}

func NewAuthMiddleware(resolver session.Resolver, m *metrics.Metrics, logger utils.Logger) *AuthMiddleware {
	return &AuthMiddleware{resolver: resolver, metrics: m, logger: logger}
}

// Authenticate requires a live session. The upstream token and the session
// scoped logger are attached to the request context so service calls forward
// the one and log through the other.
func (am *AuthMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			abortUnauthenticated(c, err.Error())
			return
		}

		s, err := am.resolver.Resolve(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, session.ErrNoSession) {
				utils.GetLogger(c, am.logger).Error("Failed to resolve session", "error", err)
			}
			abortUnauthenticated(c, "session expired or logged out")
			return
		}

		access := s.Access()
		c.Set(contextKeySession, s)
		c.Set(contextKeyUser, s.User)
		c.Set(contextKeyUserID, s.User.ID)
		c.Set(contextKeyAccess, access)
		scoped := utils.GetLogger(c, am.logger).With("session_id", s.ID(), "role", access.Role)
		c.Set(utils.ContextKeyLogger, scoped)
		ctx := apiclient.WithToken(c.Request.Context(), s.Token)
		c.Request = c.Request.WithContext(utils.ContextWithLogger(ctx, scoped))

		c.Next()
	}
}

// RouteGuard denies the request when the session user may not open path.
// Denied users are pointed back to the home route.
func (am *AuthMiddleware) RouteGuard(path string) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, ok := GetAccessFromContext(c)
		allowed := ok && access.CanAccessRoute(path)
		am.observe("route", path, access.Role, allowed)

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access denied",
				Details: map[string]string{"route": path, "redirect": homePath},
			})
			return
		}
		c.Next()
	}
}

// GatePage applies a capability gate to a whole page. A denied gate that asks
// for the notice answers 403 with it; otherwise nothing is rendered (204).
func (am *AuthMiddleware) GatePage(gate rbac.Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, _ := GetAccessFromContext(c)
		allowed := gate.Allows(access)
		am.observe("gate", gateLabel(gate), access.Role, allowed)

		if allowed {
			c.Next()
			return
		}
		if gate.ShowAccessDenied {
			c.AbortWithStatusJSON(http.StatusForbidden, rbac.AccessDenied)
			return
		}
		c.AbortWithStatus(http.StatusNoContent)
	}
}

// RequirePermission protects a mutation with a single capability.
func (am *AuthMiddleware) RequirePermission(perm models.Permission) gin.HandlerFunc {
	return func(c *gin.Context) {
		access, _ := GetAccessFromContext(c)
		allowed := access.Can(perm)
		am.observe("permission", string(perm), access.Role, allowed)

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, ErrorResponse{
				Message: "Access denied",
				Details: map[string]string{"permission": string(perm)},
			})
			return
		}
		c.Next()
	}
}

func (am *AuthMiddleware) observe(kind, target string, role models.Role, allowed bool) {
	if am.metrics != nil {
		am.metrics.ObserveAccess(kind, target, string(role), allowed)
	}
}

func gateLabel(g rbac.Gate) string {
	if g.Permission != "" {
		return string(g.Permission)
	}
	roles := make([]string, 0, len(g.Roles))
	for _, r := range g.Roles {
		roles = append(roles, string(r))
	}
	return "roles:" + strings.Join(roles, ",")
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", fmt.Errorf("authorization header missing")
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(token) == "" {
		return "", fmt.Errorf("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}

func abortUnauthenticated(c *gin.Context, reason string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
		Message: "User not authenticated",
		Details: map[string]string{"reason": reason, "redirect": loginPath},
	})
}

// GetSessionFromContext returns the session set by Authenticate
func GetSessionFromContext(c *gin.Context) (*session.Session, error) {
	v, exists := c.Get(contextKeySession)
	if !exists {
		return nil, session.ErrNoSession
	}
	s, ok := v.(*session.Session)
	if !ok || s == nil {
		return nil, fmt.Errorf("invalid session type in context")
	}
	return s, nil
}

// GetAccessFromContext returns the resolved role and permissions. The zero
// Access denies everything.
func GetAccessFromContext(c *gin.Context) (rbac.Access, bool) {
	v, exists := c.Get(contextKeyAccess)
	if !exists {
		return rbac.Access{}, false
	}
	access, ok := v.(rbac.Access)
	return access, ok
}
