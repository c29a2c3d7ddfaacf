package models

import "strings"

type Role string

const (
	RoleAssociate Role = "Associate"
	RoleManager   Role = "Manager"
)

// User is the account record issued by the upstream API at login. It is
// read-only for the lifetime of a session.
type User struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	IsManager bool   `json:"is_manager"`

	// Role mirrors an upstream field that role resolution does not read.
	// See rbac.ResolveRole.
	Role string `json:"role,omitempty"`
}

// DisplayName returns the best human-readable name available for the user.
func (u *User) DisplayName() string {
	if u == nil {
		return UnknownUserName
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	switch {
	case name != "":
		return name
	case u.Username != "":
		return u.Username
	case u.Email != "":
		return u.Email
	default:
		return UnknownUserName
	}
}

const UnknownUserName = "Unknown User"
