package rbac

import "github.com/teamdash/team-dashboard/internal/models"

// associateGrants are the capabilities an Associate holds on top of the
// all-false defaults.
var associateGrants = []models.Permission{
	models.PermViewProjects,
	models.PermViewSurveys,
	models.PermViewActionItems,
	models.PermViewCourses,
}

// managerGrants are added on top of the Associate row.
var managerGrants = []models.Permission{
	models.PermViewDashboard,
	models.PermManageTeam,
	models.PermCreateProjects,
	models.PermEditProjects,
	models.PermCreateSurveys,
	models.PermDeleteSurveys,
	models.PermAssignActionItems,
	models.PermAssignCourses,
	models.PermViewMyTeam,
	models.PermViewTeamProjects,
	models.PermViewTeamAnalytics,
}

var permissionTable = buildPermissionTable()

func buildPermissionTable() map[models.Role]models.PermissionSet {
	associate := withGrants(defaultPermissions(), associateGrants)
	manager := withGrants(associate, managerGrants)
	return map[models.Role]models.PermissionSet{
		models.RoleAssociate: associate,
		models.RoleManager:   manager,
	}
}

func defaultPermissions() models.PermissionSet {
	set := make(models.PermissionSet, len(models.AllPermissions))
	for _, p := range models.AllPermissions {
		set[p] = false
	}
	return set
}

// withGrants returns a copy of base with every listed capability set. It only
// ever turns capabilities on, so a derived row is a superset of its base.
func withGrants(base models.PermissionSet, grants []models.Permission) models.PermissionSet {
	set := base.Clone()
	for _, p := range grants {
		set[p] = true
	}
	return set
}

// PermissionsFor returns the complete capability set for a role. Unknown roles
// get every capability denied. The returned set is a copy and may be modified.
func PermissionsFor(role models.Role) models.PermissionSet {
	if set, ok := permissionTable[role]; ok {
		return set.Clone()
	}
	return defaultPermissions()
}

// Access is the resolved role and capability set of one user.
type Access struct {
	Role        models.Role          `json:"role"`
	Permissions models.PermissionSet `json:"permissions"`
}

// AccessFor resolves role and permissions for u. The boolean is false when
// there is no user, in which case the caller must treat the request as
// unauthenticated.
func AccessFor(u *models.User) (Access, bool) {
	if u == nil {
		return Access{}, false
	}
	role := ResolveRole(u)
	return Access{Role: role, Permissions: PermissionsFor(role)}, true
}

// Can reports whether the access grants p.
func (a Access) Can(p models.Permission) bool {
	return a.Permissions.Has(p)
}
