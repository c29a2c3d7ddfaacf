package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamdash/team-dashboard/internal/apiclient"
	"github.com/teamdash/team-dashboard/internal/cache"
	"github.com/teamdash/team-dashboard/internal/metrics"
	"github.com/teamdash/team-dashboard/internal/models"
	"github.com/teamdash/team-dashboard/internal/rbac"
	"github.com/teamdash/team-dashboard/internal/services"
	"github.com/teamdash/team-dashboard/internal/session"
	"github.com/teamdash/team-dashboard/internal/utils"
	"github.com/teamdash/team-dashboard/internal/validator"
)

const (
	managerToken   = "manager-token"
	associateToken = "associate-token"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeResolver map[string]*session.Session

func (f fakeResolver) Resolve(_ context.Context, token string) (*session.Session, error) {
	if s, ok := f[token]; ok {
		return s, nil
	}
	return nil, session.ErrNoSession
}

type fakeSessions struct {
	mu        sync.Mutex
	loggedOut []string
	loginErr  error
}

func (f *fakeSessions) Login(_ context.Context, email, _ string) (*session.Session, error) {
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &session.Session{Token: "fresh-token", User: &models.User{ID: 9, Email: email}}, nil
}

func (f *fakeSessions) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loggedOut = append(f.loggedOut, token)
	return nil
}

type testServer struct {
	router   *gin.Engine
	metrics  *metrics.Metrics
	sessions *fakeSessions

	mu       sync.Mutex
	upstream []*http.Request
}

// newTestServer wires the full router against an upstream mux. Passing a nil
// sessions value runs the server in identity provider mode.
func newTestServer(t *testing.T, mux *http.ServeMux, sessions *fakeSessions) *testServer {
	t.Helper()

	ts := &testServer{sessions: sessions}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ts.mu.Lock()
		ts.upstream = append(ts.upstream, r.Clone(context.Background()))
		ts.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	v := validator.New()
	sm := services.NewServiceManager(apiclient.New(srv.URL, 0), cache.NewCacheManager(nil), v, slogger,
		services.ServiceManagerConfig{DefaultPageSize: 10, ListIdleTTL: time.Minute})

	resolver := fakeResolver{
		managerToken:   {Token: managerToken, User: &models.User{ID: 1, FirstName: "Mia", LastName: "Lead", IsManager: true}},
		associateToken: {Token: associateToken, User: &models.User{ID: 2, FirstName: "Ari", Role: "Manager"}},
	}

	ts.metrics = metrics.NewMetrics(prometheus.NewRegistry())
	ts.router = gin.New()
	SetupMiddleware(ts.router, logger, ts.metrics)

	var sm2 SessionManager
	if sessions != nil {
		sm2 = sessions
	}
	NewHandlerManager(sm, resolver, sm2, v, ts.metrics, logger).SetupRoutes(ts.router)
	return ts
}

func (ts *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func (ts *testServer) lastUpstream() *http.Request {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	if len(ts.upstream) == 0 {
		return nil
	}
	return ts.upstream[len(ts.upstream)-1]
}

func (ts *testServer) upstreamCount() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.upstream)
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func writeJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}
}

func projectsMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/", writeJSON(http.StatusOK,
		`{"count": 12, "results": {"projects": [{"id": 1, "name": "Apollo"}], "filtered_count": 12}}`))
	return mux
}

func TestAuthenticate_MissingToken(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/me", "", "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "User not authenticated", resp.Message)
	assert.Equal(t, "/login", resp.Details.(map[string]interface{})["redirect"])
}

func TestAuthenticate_UnknownToken(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/me", "expired", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe_AssociateIgnoresRoleField(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/me", associateToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[MeResponse](t, w)
	assert.Equal(t, models.RoleAssociate, resp.Role)
	assert.Len(t, resp.Permissions, len(models.AllPermissions))
	assert.True(t, resp.Permissions[models.PermViewProjects])
	assert.False(t, resp.Permissions[models.PermViewDashboard])

	var paths []string
	for _, item := range resp.Navigation {
		paths = append(paths, item.Path)
	}
	assert.Equal(t, []string{"/projects", "/surveys", "/action-items", "/courses", "/organization", "/chat"}, paths)
}

func TestMe_ManagerNavigation(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	resp := decode[MeResponse](t, ts.do(http.MethodGet, "/api/v1/me", managerToken, ""))

	assert.Equal(t, models.RoleManager, resp.Role)
	assert.Len(t, resp.Navigation, 10)
	assert.Equal(t, "/analytics", resp.Navigation[9].Path)
}

func TestCheckRoute(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	tests := []struct {
		name    string
		token   string
		path    string
		allowed bool
	}{
		{name: "associate projects", token: associateToken, path: "/projects", allowed: true},
		{name: "associate dashboard", token: associateToken, path: "/dashboard", allowed: false},
		{name: "associate trailing slash", token: associateToken, path: "/analytics/", allowed: false},
		{name: "associate unmapped", token: associateToken, path: "/settings", allowed: true},
		{name: "manager create survey", token: managerToken, path: "/surveys/create", allowed: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(http.MethodGet, "/api/v1/routes/check?path="+tt.path, tt.token, "")
			require.Equal(t, http.StatusOK, w.Code)
			resp := decode[RouteCheckResponse](t, w)
			assert.Equal(t, tt.allowed, resp.Allowed)
			if !tt.allowed {
				assert.Equal(t, "/", resp.Redirect)
			}
		})
	}
}

func TestCheckRoute_MissingPath(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/routes/check", associateToken, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouteGuard_DeniesAssociateDashboard(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/dashboard", associateToken, "")

	require.Equal(t, http.StatusForbidden, w.Code)
	resp := decode[ErrorResponse](t, w)
	details := resp.Details.(map[string]interface{})
	assert.Equal(t, "/dashboard", details["route"])
	assert.Equal(t, "/", details["redirect"])
	assert.Nil(t, ts.lastUpstream(), "no upstream call for a denied page")
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.AccessDecisionsTotal.WithLabelValues("route", "/dashboard", "Associate", "denied")))
}

func TestDashboard_Manager(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/dashboard/summary/", writeJSON(http.StatusOK, `{"team_size": 4}`))
	ts := newTestServer(t, mux, nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/dashboard", managerToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Greeting     string                  `json:"greeting"`
		Summary      models.DashboardSummary `json:"summary"`
		QuickActions []Action                `json:"quick_actions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Welcome back, Mia Lead", resp.Greeting)
	assert.Equal(t, 4, resp.Summary.TeamSize)
	assert.NotNil(t, resp.Summary.AtRiskMembers)
	assert.Len(t, resp.QuickActions, 3)
	assert.Equal(t, "Bearer "+managerToken, ts.lastUpstream().Header.Get("Authorization"))
}

func TestProjectsPage_GatedCreateAction(t *testing.T) {
	ts := newTestServer(t, projectsMux(), nil)

	assoc := decode[ListPage[models.Project]](t, ts.do(http.MethodGet, "/api/v1/pages/projects", associateToken, ""))
	assert.Empty(t, assoc.Actions)
	require.Len(t, assoc.Items, 1)
	assert.Equal(t, "Apollo", assoc.Items[0].Name)
	assert.Equal(t, 2, assoc.TotalPages)

	mgr := decode[ListPage[models.Project]](t, ts.do(http.MethodGet, "/api/v1/pages/projects", managerToken, ""))
	require.Len(t, mgr.Actions, 1)
	assert.Equal(t, "Create Project", mgr.Actions[0].Label)
}

func TestProjectsPage_QueryParams(t *testing.T) {
	ts := newTestServer(t, projectsMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/projects?page=2", associateToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "2", ts.lastUpstream().URL.Query().Get("page"))

	w = ts.do(http.MethodGet, "/api/v1/pages/projects?search=apo", associateToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[ListPage[models.Project]](t, w)
	assert.Equal(t, 1, view.Query.Page, "search resets the page")
	q := ts.lastUpstream().URL.Query()
	assert.Equal(t, "apo", q.Get("search"))
	assert.Equal(t, "1", q.Get("page"))

	// A bare reload keeps the session's query.
	w = ts.do(http.MethodGet, "/api/v1/pages/projects", associateToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "apo", ts.lastUpstream().URL.Query().Get("search"))
}

func TestProjectsPage_InvalidPageSize(t *testing.T) {
	ts := newTestServer(t, projectsMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/projects?page_size=7", associateToken, "")

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decode[ErrorResponse](t, w).Message)
}

func TestListPage_FetchFailureIsPageLocal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/courses/", writeJSON(http.StatusInternalServerError, `{"detail": "boom"}`))
	ts := newTestServer(t, mux, nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/courses?search=go", associateToken, "")

	require.Equal(t, http.StatusOK, w.Code)
	view := decode[ListPage[models.Course]](t, w)
	assert.NotEmpty(t, view.Error)
	assert.True(t, view.Retryable)
	assert.Empty(t, view.Items)
	assert.Equal(t, "go", view.Query.Search, "query survives the failure")
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.ListFetchesTotal.WithLabelValues("courses", "error")))
}

func TestListPage_ExpiredUpstreamSessionRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/", writeJSON(http.StatusUnauthorized, `{"detail": "token expired"}`))
	ts := newTestServer(t, mux, nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/projects", associateToken, "")

	require.Equal(t, http.StatusUnauthorized, w.Code)
	resp := decode[ErrorResponse](t, w)
	assert.Equal(t, "User not authenticated", resp.Message)
	assert.Equal(t, "/login", resp.Details.(map[string]interface{})["redirect"])
}

func TestProjectsPage_RetryAppliesParams(t *testing.T) {
	ts := newTestServer(t, projectsMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/projects?page=2", associateToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, 1, ts.upstreamCount())

	w = ts.do(http.MethodGet, "/api/v1/pages/projects?retry=true&search=apo&page_size=20", associateToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	view := decode[ListPage[models.Project]](t, w)
	assert.Equal(t, "apo", view.Query.Search)
	assert.Equal(t, 20, view.Query.PageSize)
	assert.Equal(t, 1, view.Query.Page)
	q := ts.lastUpstream().URL.Query()
	assert.Equal(t, "apo", q.Get("search"))
	assert.Equal(t, "20", q.Get("page_size"))

	// retry with the current params still refetches
	w = ts.do(http.MethodGet, "/api/v1/pages/projects?retry=true&search=apo", associateToken, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, ts.upstreamCount())
}

func TestCreateProject_Permission(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/projects/", writeJSON(http.StatusCreated, `{"id": 5, "name": "Zeus"}`))
	ts := newTestServer(t, mux, nil)

	w := ts.do(http.MethodPost, "/api/v1/projects", associateToken, `{"name": "Zeus"}`)
	require.Equal(t, http.StatusForbidden, w.Code)
	assert.Nil(t, ts.lastUpstream())

	w = ts.do(http.MethodPost, "/api/v1/projects", managerToken, `{"name": "Zeus"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	project := decode[models.Project](t, w)
	assert.Equal(t, int64(5), project.ID)
	assert.Equal(t, http.MethodPost, ts.lastUpstream().Method)
}

func TestCreateProject_ValidationFailure(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodPost, "/api/v1/projects", managerToken, `{"name": "  "}`)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Validation failed", decode[ErrorResponse](t, w).Message)
}

func TestSurveyPage_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/surveys/", writeJSON(http.StatusNotFound, `{}`))
	ts := newTestServer(t, mux, nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/surveys/3", associateToken, "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSurveyPage_InvalidID(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/surveys/abc", associateToken, "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpstreamUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/org-chart/", writeJSON(http.StatusBadGateway, `oops`))
	ts := newTestServer(t, mux, nil)

	w := ts.do(http.MethodGet, "/api/v1/pages/organization", associateToken, "")

	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestLogin(t *testing.T) {
	sessions := &fakeSessions{}
	ts := newTestServer(t, http.NewServeMux(), sessions)

	w := ts.do(http.MethodPost, "/api/v1/auth/login", "", `{"email": "ari@example.com", "password": "pw"}`)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[LoginResponse](t, w)
	assert.Equal(t, "fresh-token", resp.Token)
	assert.Equal(t, models.RoleAssociate, resp.Role)
	assert.Equal(t, 1.0, testutil.ToFloat64(ts.metrics.SessionsTotal.WithLabelValues("login")))
}

func TestLogin_Errors(t *testing.T) {
	tests := []struct {
		name     string
		sessions *fakeSessions
		body     string
		want     int
	}{
		{name: "provider mode", sessions: nil, body: `{"email": "a@b.co", "password": "pw"}`, want: http.StatusBadRequest},
		{name: "malformed body", sessions: &fakeSessions{}, body: `{`, want: http.StatusBadRequest},
		{name: "invalid email", sessions: &fakeSessions{}, body: `{"email": "nope", "password": "pw"}`, want: http.StatusBadRequest},
		{name: "bad credentials", sessions: &fakeSessions{loginErr: apiclient.ErrInvalidCredentials}, body: `{"email": "a@b.co", "password": "pw"}`, want: http.StatusUnauthorized},
		{name: "upstream down", sessions: &fakeSessions{loginErr: apiclient.ErrUpstream}, body: `{"email": "a@b.co", "password": "pw"}`, want: http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, http.NewServeMux(), tt.sessions)
			w := ts.do(http.MethodPost, "/api/v1/auth/login", "", tt.body)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestLogout(t *testing.T) {
	sessions := &fakeSessions{}
	ts := newTestServer(t, http.NewServeMux(), sessions)

	w := ts.do(http.MethodPost, "/api/v1/auth/logout", associateToken, "")

	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []string{associateToken}, sessions.loggedOut)
}

func TestGatePage_SilentDenial(t *testing.T) {
	am := NewAuthMiddleware(fakeResolver{
		associateToken: {Token: associateToken, User: &models.User{ID: 2}},
	}, nil, utils.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	router := gin.New()
	router.GET("/widget", am.Authenticate(),
		am.GatePage(rbac.Gate{Roles: managerOnly}),
		func(c *gin.Context) { c.String(http.StatusOK, "secret") })

	req := httptest.NewRequest(http.MethodGet, "/widget", nil)
	req.Header.Set("Authorization", "Bearer "+associateToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, http.NewServeMux(), nil)

	w := ts.do(http.MethodGet, "/health", "", "")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "healthy", decode[map[string]interface{}](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header  string
		want    string
		wantErr bool
	}{
		{header: "Bearer abc", want: "abc"},
		{header: "bearer abc", want: "abc"},
		{header: "", wantErr: true},
		{header: "Basic abc", wantErr: true},
		{header: "Bearer ", wantErr: true},
		{header: "abc", wantErr: true},
	}
	for _, tt := range tests {
		got, err := bearerToken(tt.header)
		if tt.wantErr {
			assert.Error(t, err, tt.header)
			continue
		}
		assert.NoError(t, err)
		assert.Equal(t, tt.want, got)
	}
}
