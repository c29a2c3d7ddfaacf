package rbac

import "github.com/teamdash/team-dashboard/internal/models"

// ResolveRole maps a user to Manager or Associate using only the IsManager
// flag. User.Role is ignored even when set; upstream keeps both fields and
// only the flag has ever been authoritative.
func ResolveRole(u *models.User) models.Role {
	if u != nil && u.IsManager {
		return models.RoleManager
	}
	return models.RoleAssociate
}
