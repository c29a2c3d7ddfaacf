package models

// Permission names a single boolean capability.
type Permission string

const (
	PermViewDashboard     Permission = "canViewDashboard"
	PermManageTeam        Permission = "canManageTeam"
	PermCreateProjects    Permission = "canCreateProjects"
	PermViewProjects      Permission = "canViewProjects"
	PermEditProjects      Permission = "canEditProjects"
	PermViewSurveys       Permission = "canViewSurveys"
	PermCreateSurveys     Permission = "canCreateSurveys"
	PermDeleteSurveys     Permission = "canDeleteSurveys"
	PermViewActionItems   Permission = "canViewActionItems"
	PermAssignActionItems Permission = "canAssignActionItems"
	PermViewCourses       Permission = "canViewCourses"
	PermAssignCourses     Permission = "canAssignCourses"
	PermViewMyTeam        Permission = "canViewMyTeam"
	PermViewTeamProjects  Permission = "canViewTeamProjects"
	PermViewTeamAnalytics Permission = "canViewTeamAnalytics"
)

// AllPermissions lists every capability key in display order.
var AllPermissions = []Permission{
	PermViewDashboard,
	PermManageTeam,
	PermCreateProjects,
	PermViewProjects,
	PermEditProjects,
	PermViewSurveys,
	PermCreateSurveys,
	PermDeleteSurveys,
	PermViewActionItems,
	PermAssignActionItems,
	PermViewCourses,
	PermAssignCourses,
	PermViewMyTeam,
	PermViewTeamProjects,
	PermViewTeamAnalytics,
}

// PermissionSet maps every capability key to its value.
type PermissionSet map[Permission]bool

// Has reports whether the capability is granted. Missing keys are denied.
func (s PermissionSet) Has(p Permission) bool {
	return s[p]
}

// Clone returns an independent copy of the set.
func (s PermissionSet) Clone() PermissionSet {
	out := make(PermissionSet, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}
