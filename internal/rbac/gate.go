package rbac

import (
	"slices"

	"github.com/teamdash/team-dashboard/internal/models"
)

// Gate describes the conditions under which gated content is shown.
// The zero Gate allows everything.
type Gate struct {
	Roles            []models.Role
	Permission       models.Permission
	ShowAccessDenied bool
}

// Allows reports whether access satisfies both the role list and the
// permission, when given.
func (g Gate) Allows(a Access) bool {
	if len(g.Roles) > 0 && !slices.Contains(g.Roles, a.Role) {
		return false
	}
	if g.Permission != "" && !a.Can(g.Permission) {
		return false
	}
	return true
}

// DeniedNotice is the standard content shown in place of gated content.
type DeniedNotice struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

var AccessDenied = DeniedNotice{
	Title:   "Access Denied",
	Message: "You don't have permission to access this content.",
}

// Rendered is the outcome of a gate: exactly one of Content or Denied is set.
type Rendered[T any] struct {
	Content *T            `json:"content,omitempty"`
	Denied  *DeniedNotice `json:"access_denied,omitempty"`
}

// Render evaluates g and returns the child content when allowed. Otherwise it
// returns the fallback if one is given, the standard notice if the gate asks
// for one, or nil. child and fallback are only called when their result is
// used.
func Render[T any](a Access, g Gate, child func() T, fallback func() T) *Rendered[T] {
	switch {
	case g.Allows(a):
		v := child()
		return &Rendered[T]{Content: &v}
	case fallback != nil:
		v := fallback()
		return &Rendered[T]{Content: &v}
	case g.ShowAccessDenied:
		notice := AccessDenied
		return &Rendered[T]{Denied: &notice}
	default:
		return nil
	}
}
