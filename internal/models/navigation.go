package models

// NavItem is one entry of the primary navigation.
type NavItem struct {
	Name               string     `json:"name"`
	Path               string     `json:"path"`
	Icon               string     `json:"icon,omitempty"`
	RequiresRole       []Role     `json:"requires_role,omitempty"`
	RequiresPermission Permission `json:"requires_permission,omitempty"`
}
