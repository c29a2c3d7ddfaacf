package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/listquery"
	"github.com/teamdash/team-dashboard/internal/models"
)

// ListPages holds one controller registry per paginated page
type ListPages struct {
	Projects     *listquery.Registry[models.Project]
	TeamProjects *listquery.Registry[models.Project]
	MyTeam       *listquery.Registry[models.TeamMember]
	Team         *listquery.Registry[models.TeamMember]
	Surveys      *listquery.Registry[models.Survey]
	ActionItems  *listquery.Registry[models.ActionItem]
	Courses      *listquery.Registry[models.Course]
	Chat         *listquery.Registry[models.ChatMessage]
}

// NewListPages binds every list page to its upstream collection
func NewListPages(api *apiclient.Client, idleTTL time.Duration, pageSize int, logger *slog.Logger) *ListPages {
	opts := []listquery.Option{listquery.WithPageSize(pageSize), listquery.WithLogger(logger)}

	return &ListPages{
		Projects:     listquery.NewRegistry(fetcher(api.Projects.List), idleTTL, opts...),
		TeamProjects: listquery.NewRegistry(fetcher(api.TeamProjects.List), idleTTL, opts...),
		MyTeam:       listquery.NewRegistry(fetcher(api.TeamMembers.List), idleTTL, opts...),
		Team:         listquery.NewRegistry(fetcher(api.TeamMembers.List), idleTTL, opts...),
		Surveys:      listquery.NewRegistry(fetcher(api.Surveys.List), idleTTL, opts...),
		ActionItems:  listquery.NewRegistry(fetcher(api.ActionItems.List), idleTTL, opts...),
		Courses:      listquery.NewRegistry(fetcher(api.Courses.List), idleTTL, opts...),
		Chat:         listquery.NewRegistry(fetcher(api.ChatMessages.List), idleTTL, opts...),
	}
}

// The upstream token travels in ctx, so every session shares the same fetch.
func fetcher[T any](fetch listquery.FetchFunc[T]) func(string) listquery.FetchFunc[T] {
	return func(string) listquery.FetchFunc[T] { return fetch }
}

// Group returns all registries for logout and idle sweeps
func (p *ListPages) Group() listquery.Group {
	return listquery.Group{
		p.Projects, p.TeamProjects, p.MyTeam, p.Team,
		p.Surveys, p.ActionItems, p.Courses, p.Chat,
	}
}

// Sweep drops controllers idle past the TTL and reports how many were
// removed and how many remain.
func (p *ListPages) Sweep() (removed, live int) {
	g := p.Group()
	removed = g.Sweep()
	return removed, g.Len()
}

// PageRequest is what a list page asks of its controller. Reload always
// fetches: it reissues the current query with Change applied on top, which
// serves both the retry action and opening a page without parameters.
type PageRequest struct {
	SessionID string
	Change    listquery.Change
	Reload    bool
}

// LoadPage drives the session's controller for one page. Fetch failures are
// returned inside the view as page-local error state. Only an expired
// upstream session is returned as an error, since no retry can recover it.
func LoadPage[T any](ctx context.Context, reg *listquery.Registry[T], req PageRequest, logger *slog.Logger) (listquery.View[T], error) {
	ctrl := reg.Get(req.SessionID)

	var (
		view listquery.View[T]
		err  error
	)
	if req.Reload {
		view, err = ctrl.Retry(ctx, req.Change)
	} else {
		view, err = ctrl.Apply(ctx, req.Change)
	}

	if err != nil {
		requestLogger(ctx, logger).WarnContext(ctx, "List fetch failed",
			"session_id", req.SessionID,
			"page", view.Query.Page,
			"error", err)
		if errors.Is(err, apiclient.ErrUnauthorized) {
			return view, translateUpstream("list", "load", err)
		}
	}
	return view, nil
}
