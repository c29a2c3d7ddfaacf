package rbac

import (
	"slices"

	"github.com/teamdash/team-dashboard/internal/models"
)

var managerOnly = []models.Role{models.RoleManager}

var associateNavigation = []models.NavItem{
	{Name: "Projects", Path: "/projects", Icon: "folder", RequiresPermission: models.PermViewProjects},
	{Name: "Surveys", Path: "/surveys", Icon: "clipboard", RequiresPermission: models.PermViewSurveys},
	{Name: "Action Items", Path: "/action-items", Icon: "check-square", RequiresPermission: models.PermViewActionItems},
	{Name: "Courses", Path: "/courses", Icon: "book", RequiresPermission: models.PermViewCourses},
	{Name: "Organization", Path: "/organization", Icon: "sitemap"},
	{Name: "Chat", Path: "/chat", Icon: "message-circle"},
}

var managerExtras = []models.NavItem{
	{Name: "Dashboard", Path: "/dashboard", Icon: "home", RequiresRole: managerOnly, RequiresPermission: models.PermViewDashboard},
	{Name: "My Team", Path: "/my-team", Icon: "users", RequiresRole: managerOnly, RequiresPermission: models.PermViewMyTeam},
	{Name: "Team Projects", Path: "/team-projects", Icon: "briefcase", RequiresRole: managerOnly, RequiresPermission: models.PermViewTeamProjects},
	{Name: "Analytics", Path: "/analytics", Icon: "bar-chart", RequiresRole: managerOnly, RequiresPermission: models.PermViewTeamAnalytics},
}

func baseNavigation(role models.Role) []models.NavItem {
	if role == models.RoleManager {
		return slices.Concat(associateNavigation, managerExtras)
	}
	return slices.Clone(associateNavigation)
}

// NavigationFor returns the navigation entries visible to u in authoring
// order. A nil user gets no entries.
func NavigationFor(u *models.User) []models.NavItem {
	access, ok := AccessFor(u)
	if !ok {
		return []models.NavItem{}
	}
	return access.Navigation()
}

// Navigation filters the role's base list by required role, then by required
// permission.
func (a Access) Navigation() []models.NavItem {
	items := make([]models.NavItem, 0, len(associateNavigation)+len(managerExtras))
	for _, item := range baseNavigation(a.Role) {
		if len(item.RequiresRole) > 0 && !slices.Contains(item.RequiresRole, a.Role) {
			continue
		}
		if item.RequiresPermission != "" && !a.Can(item.RequiresPermission) {
			continue
		}
		items = append(items, item)
	}
	return items
}
