package rbac

import (
	"strings"

	"github.com/teamdash/team-dashboard/internal/models"
)

// Always marks a route every authenticated user may open.
const Always models.Permission = "always"

// routePermissions maps page paths to the capability they require.
var routePermissions = map[string]models.Permission{
	"/":                Always,
	"/profile":         Always,
	"/organization":    Always,
	"/chat":            Always,
	"/dashboard":       models.PermViewDashboard,
	"/my-team":         models.PermViewMyTeam,
	"/team":            models.PermManageTeam,
	"/projects":        models.PermViewProjects,
	"/projects/create": models.PermCreateProjects,
	"/team-projects":   models.PermViewTeamProjects,
	"/surveys":         models.PermViewSurveys,
	"/surveys/create":  models.PermCreateSurveys,
	"/action-items":    models.PermViewActionItems,
	"/courses":         models.PermViewCourses,
	"/analytics":       models.PermViewTeamAnalytics,
}

// RoutePermission returns the capability a path requires and whether the
// path is mapped at all.
func RoutePermission(path string) (models.Permission, bool) {
	p, ok := routePermissions[normalizePath(path)]
	return p, ok
}

// CanAccessRoute decides whether u may open path. Unauthenticated users are
// always denied. Paths missing from the route map are allowed.
// TODO: decide with product whether unmapped routes should fail closed once
// every page route is registered in routePermissions.
func CanAccessRoute(u *models.User, path string) bool {
	access, ok := AccessFor(u)
	if !ok {
		return false
	}
	return access.CanAccessRoute(path)
}

// CanAccessRoute applies the route map to already resolved access.
func (a Access) CanAccessRoute(path string) bool {
	perm, mapped := RoutePermission(path)
	if !mapped || perm == Always {
		return true
	}
	return a.Can(perm)
}

func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
		if path == "" {
			path = "/"
		}
	}
	return path
}
