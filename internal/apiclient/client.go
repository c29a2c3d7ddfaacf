package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/teamdash/team-dashboard/internal/models"
)

var (
	ErrUnauthorized       = errors.New("upstream rejected credentials")
	ErrForbidden          = errors.New("upstream denied access")
	ErrNotFound           = errors.New("upstream resource not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUpstream           = errors.New("upstream request failed")
)

// StatusError carries a non-2xx upstream response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.StatusCode, e.Body)
}

func (e *StatusError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	default:
		return ErrUpstream
	}
}

type tokenKey struct{}

// WithToken attaches the session's upstream token to ctx
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func tokenFrom(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}

// Client talks to the team REST API. There is no retry; failures surface
// to the caller immediately.
type Client struct {
	client  *http.Client
	baseURL string

	Projects     Resource[models.Project]
	TeamProjects Resource[models.Project]
	TeamMembers  Resource[models.TeamMember]
	Surveys      Resource[models.Survey]
	ActionItems  Resource[models.ActionItem]
	Courses      Resource[models.Course]
	ChatMessages Resource[models.ChatMessage]
}

// New creates a client. A zero timeout keeps the http.Client default.
func New(baseURL string, timeout time.Duration) *Client {
	c := &Client{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}

	c.Projects = Resource[models.Project]{c: c, path: "/projects/", key: "projects"}
	c.TeamProjects = Resource[models.Project]{c: c, path: "/projects/team/", key: "projects"}
	c.TeamMembers = Resource[models.TeamMember]{c: c, path: "/team-members/", key: "team_members"}
	c.Surveys = Resource[models.Survey]{c: c, path: "/surveys/", key: "surveys"}
	c.ActionItems = Resource[models.ActionItem]{c: c, path: "/action-items/", key: "action_items"}
	c.Courses = Resource[models.Course]{c: c, path: "/courses/", key: "courses"}
	c.ChatMessages = Resource[models.ChatMessage]{c: c, path: "/chat/messages/", key: "messages"}

	return c
}

type loginResponse struct {
	Token  string       `json:"token"`
	Access string       `json:"access"`
	User   *models.User `json:"user"`
}

// Login exchanges credentials for a token and the user record
func (c *Client) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	body := map[string]string{"email": email, "password": password}

	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login/", nil, body, &resp); err != nil {
		var se *StatusError
		if errors.As(err, &se) && (se.StatusCode == http.StatusBadRequest || se.StatusCode == http.StatusUnauthorized) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, err
	}

	token := resp.Token
	if token == "" {
		token = resp.Access
	}
	if token == "" || resp.User == nil {
		return "", nil, fmt.Errorf("%w: login response missing token or user", ErrUpstream)
	}
	return token, resp.User, nil
}

// DashboardSummary loads the manager dashboard figures
func (c *Client) DashboardSummary(ctx context.Context) (*models.DashboardSummary, error) {
	var summary models.DashboardSummary
	if err := c.do(ctx, http.MethodGet, "/dashboard/summary/", nil, nil, &summary); err != nil {
		return nil, err
	}
	summary.Normalize()
	return &summary, nil
}

// TeamAnalytics loads aggregate team figures
func (c *Client) TeamAnalytics(ctx context.Context) (*models.TeamAnalytics, error) {
	var analytics models.TeamAnalytics
	if err := c.do(ctx, http.MethodGet, "/analytics/team/", nil, nil, &analytics); err != nil {
		return nil, err
	}
	analytics.Normalize()
	return &analytics, nil
}

// OrgChart loads the organisation tree. Both a single root and a list of
// roots are accepted.
func (c *Client) OrgChart(ctx context.Context) ([]models.OrgNode, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/org-chart/", nil, nil, &raw); err != nil {
		return nil, err
	}

	var roots []models.OrgNode
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		roots = []models.OrgNode{}
	case trimmed[0] == '[':
		if err := json.Unmarshal(trimmed, &roots); err != nil {
			return nil, fmt.Errorf("failed to decode org chart: %w", err)
		}
	default:
		var root models.OrgNode
		if err := json.Unmarshal(trimmed, &root); err != nil {
			return nil, fmt.Errorf("failed to decode org chart: %w", err)
		}
		roots = []models.OrgNode{root}
	}

	for i := range roots {
		roots[i].Normalize()
	}
	if roots == nil {
		roots = []models.OrgNode{}
	}
	return roots, nil
}

// AssignCourse assigns a course to users
func (c *Client) AssignCourse(ctx context.Context, courseID int64, body any) error {
	return c.do(ctx, http.MethodPost, fmt.Sprintf("/courses/%d/assign/", courseID), nil, body, nil)
}

// UpdateActionItemStatus changes only the status of an action item
func (c *Client) UpdateActionItemStatus(ctx context.Context, id int64, status string) (*models.ActionItem, error) {
	var item models.ActionItem
	body := map[string]string{"status": status}
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/action-items/%d/", id), nil, body, &item); err != nil {
		return nil, err
	}
	item.Normalize()
	return &item, nil
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, dest any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request in JSON: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := tokenFrom(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUpstream, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: read response: %w", ErrUpstream, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &StatusError{StatusCode: resp.StatusCode, Body: truncate(string(data), 512)}
	}

	if dest == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("%w: decode response: %w", ErrUpstream, err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
