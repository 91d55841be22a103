package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AminArria/sponsorly/internal/dto"
	"github.com/AminArria/sponsorly/internal/events"
	"github.com/AminArria/sponsorly/internal/repository"
	"github.com/AminArria/sponsorly/internal/repository/migrations"
	"github.com/AminArria/sponsorly/internal/schedule"
	"github.com/AminArria/sponsorly/internal/service"
	"github.com/AminArria/sponsorly/pkg/database"
	"github.com/AminArria/sponsorly/pkg/logger"
	"github.com/AminArria/sponsorly/pkg/middleware"
	"github.com/AminArria/sponsorly/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const testSecret = "handler-test-secret"

var baseTime = time.Date(2026, time.October, 18, 12, 0, 0, 0, time.UTC)

type testServer struct {
	router    *gin.Engine
	audit     *middleware.AuditLogger
	users     service.UserService
	publisher *events.MemoryPublisher
}

type testUser struct {
	id    string
	token string
}

// envelope mirrors response.Response with raw data for decoding per test
type envelope struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

func newTestServer(t *testing.T, mutate ...func(*RouterConfig)) *testServer {
	t.Helper()
	logger.SetGlobal(logger.NewNop())
	ctx := context.Background()

	db, err := database.OpenSQLite(ctx, &database.SQLiteConfig{Path: filepath.Join(t.TempDir(), "sponsorly.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	_, err = database.ApplySQLiteMigrations(ctx, db, migrations.SQLite, "sqlite")
	require.NoError(t, err)

	store := repository.NewSQLiteStore(db)
	publisher := events.NewMemoryPublisher()
	opts := []service.Option{
		service.WithClock(func() time.Time { return baseTime }),
		service.WithHorizon(schedule.Horizon{Span: 21 * 24 * time.Hour, MaxIssues: 10}),
		service.WithPublisher(publisher),
	}

	audit := middleware.NewAuditLogger(middleware.DefaultAuditConfig(middleware.NewLogAuditWriter(logger.NewNop())))
	audit.SetTestMode(true)
	t.Cleanup(func() { _ = audit.Close() })

	cfg := &RouterConfig{
		Health:       NewHealthHandler(map[string]HealthCheck{"database": db.PingContext}),
		Newsletters:  NewNewsletterHandler(service.NewNewsletterService(store, opts...)),
		Issues:       NewIssueHandler(service.NewIssueService(store, opts...)),
		Sponsorships: NewSponsorshipHandler(service.NewSponsorshipService(store, opts...)),
		JWT:          &middleware.JWTConfig{Secret: testSecret},
		Audit:        audit,
	}
	for _, m := range mutate {
		m(cfg)
	}

	return &testServer{
		router:    NewRouter(cfg),
		audit:     audit,
		users:     service.NewUserService(store, opts...),
		publisher: publisher,
	}
}

func (s *testServer) user(t *testing.T, slug string) testUser {
	t.Helper()
	u, err := s.users.Create(context.Background(), &dto.CreateUserRequest{
		Slug:  slug,
		Email: slug + "@example.com",
		Name:  slug,
	})
	require.NoError(t, err)
	token, err := middleware.GenerateToken(testSecret, "", u.ID, u.Slug, time.Hour)
	require.NoError(t, err)
	return testUser{id: u.ID, token: token}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var req *http.Request
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

func decode[T any](t *testing.T, env envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func newsletterBody(slug string) gin.H {
	return gin.H{
		"name":                "Go Weekly",
		"slug":                slug,
		"interval_days":       7,
		"sponsor_in_days":     14,
		"sponsor_before_days": 2,
		"next_issue_at":       baseTime.Add(24 * time.Hour).Format(time.RFC3339),
	}
}

// createNewsletter returns a newsletter with issues due in 1, 8 and 15 days.
// Their sponsor windows are closed, open and upcoming at baseTime.
func (s *testServer) createNewsletter(t *testing.T, owner testUser, slug string) dto.CreateNewsletterResponse {
	t.Helper()
	w, env := s.do(t, http.MethodPost, "/api/v1/newsletters", owner.token, newsletterBody(slug))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	nl := decode[dto.CreateNewsletterResponse](t, env)
	require.Len(t, nl.Issues, 3)
	return nl
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Contains(t, string(env.Data), `"database":"up"`)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestHealth_Failing(t *testing.T) {
	h := NewHealthHandler(map[string]HealthCheck{
		"redis": func(context.Context) error { return assert.AnError },
	})
	router := gin.New()
	router.GET("/health", h.Health)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "SERVICE_UNAVAILABLE")
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)

	w, env := s.do(t, http.MethodGet, "/api/v1/newsletters", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "MISSING_TOKEN", env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/sponsorships/x/confirm", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "INVALID_TOKEN", env.Error.Code)
}

func TestNewsletterRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.user(t, "alice")
	bob := s.user(t, "bob")

	nl := s.createNewsletter(t, alice, "weekly")
	assert.Equal(t, "weekly", nl.Newsletter.Slug)

	t.Run("validation errors carry field details", func(t *testing.T) {
		body := newsletterBody("Not A Slug")
		body["interval_days"] = 0
		w, env := s.do(t, http.MethodPost, "/api/v1/newsletters", alice.token, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, response.ErrCodeValidationFailed, env.Error.Code)
		assert.Equal(t, []string{"must contain only lowercase letters, numbers and hyphens"}, env.Error.Details["slug"])
		assert.Equal(t, []string{"must be greater than 0"}, env.Error.Details["interval_days"])
	})

	t.Run("blank name on update", func(t *testing.T) {
		w, env := s.do(t, http.MethodPut, "/api/v1/newsletters/"+nl.Newsletter.ID, alice.token, gin.H{"name": "   "})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"can't be blank"}, env.Error.Details["name"])
	})

	t.Run("slug taken", func(t *testing.T) {
		w, env := s.do(t, http.MethodPost, "/api/v1/newsletters", alice.token, newsletterBody("weekly"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"has already been taken"}, env.Error.Details["slug"])
	})

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/newsletters", bytes.NewBufferString("{"))
		req.Header.Set("Authorization", "Bearer "+alice.token)
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	})

	t.Run("owner scope", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/api/v1/newsletters", alice.token, nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, env.Meta.Count)

		w, _ = s.do(t, http.MethodGet, "/api/v1/newsletters/"+nl.Newsletter.ID, alice.token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, env = s.do(t, http.MethodGet, "/api/v1/newsletters/"+nl.Newsletter.ID, bob.token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, response.ErrCodeNotFound, env.Error.Code)

		w, _ = s.do(t, http.MethodPut, "/api/v1/newsletters/"+nl.Newsletter.ID, bob.token, gin.H{"name": "Mine"})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("update", func(t *testing.T) {
		w, env := s.do(t, http.MethodPut, "/api/v1/newsletters/"+nl.Newsletter.ID, alice.token, gin.H{"name": "Go Weekly Digest"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, "Go Weekly Digest", decode[dto.NewsletterResponse](t, env).Name)
	})

	t.Run("public routes", func(t *testing.T) {
		w, env := s.do(t, http.MethodGet, "/api/v1/u/alice/newsletters", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1, env.Meta.Count)

		w, env = s.do(t, http.MethodGet, "/api/v1/u/alice/newsletters/weekly", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, nl.Newsletter.ID, decode[dto.NewsletterResponse](t, env).ID)

		w, env = s.do(t, http.MethodGet, "/api/v1/u/alice/newsletters/weekly/issues", "", nil)
		assert.Equal(t, http.StatusOK, w.Code)
		issues := decode[[]dto.IssueResponse](t, env)
		require.Len(t, issues, 3)
		require.NotNil(t, issues[1].Window)
		assert.False(t, issues[0].Window.IsOpen)
		assert.True(t, issues[1].Window.IsOpen)
		assert.False(t, issues[2].Window.IsOpen)

		w, _ = s.do(t, http.MethodGet, "/api/v1/u/bob/newsletters/weekly", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("delete", func(t *testing.T) {
		w, _ := s.do(t, http.MethodDelete, "/api/v1/newsletters/"+nl.Newsletter.ID, alice.token, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		w, _ = s.do(t, http.MethodGet, "/api/v1/newsletters/"+nl.Newsletter.ID, alice.token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w, _ = s.do(t, http.MethodGet, "/api/v1/u/alice/newsletters/weekly/issues", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestIssueRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.user(t, "alice")
	bob := s.user(t, "bob")
	nl := s.createNewsletter(t, alice, "weekly")
	base := "/api/v1/newsletters/" + nl.Newsletter.ID + "/issues"

	w, env := s.do(t, http.MethodGet, base, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, env.Meta.Count)

	w, env = s.do(t, http.MethodPost, base, alice.token, gin.H{"name": "Special"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "due_at")

	due := baseTime.Add(4 * 24 * time.Hour).Format(time.RFC3339)
	w, env = s.do(t, http.MethodPost, base, alice.token, gin.H{"name": "Special", "due_at": due})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.IssueResponse](t, env)

	w, env = s.do(t, http.MethodGet, base+"/"+created.ID, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	got := decode[dto.IssueResponse](t, env)
	require.NotNil(t, got.Window)
	assert.True(t, got.Window.IsOpen)

	w, _ = s.do(t, http.MethodGet, base+"/"+created.ID, bob.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodPut, base+"/"+created.ID, alice.token, gin.H{"name": "Renamed"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Renamed", decode[dto.IssueResponse](t, env).Name)

	w, _ = s.do(t, http.MethodDelete, base+"/"+created.ID, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.do(t, http.MethodGet, base+"/"+created.ID, alice.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSponsorshipRoutes(t *testing.T) {
	s := newTestServer(t)
	alice := s.user(t, "alice")
	acme := s.user(t, "acme")
	globex := s.user(t, "globex")
	nl := s.createNewsletter(t, alice, "weekly")
	closed, open := nl.Issues[0].ID, nl.Issues[1].ID

	w, env := s.do(t, http.MethodPost, "/api/v1/issues/"+closed+"/sponsorships", acme.token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrCodeSlotClosed, env.Error.Code)

	w, env = s.do(t, http.MethodPost, "/api/v1/issues/"+open+"/sponsorships", acme.token, gin.H{"message": "Hi!"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	first := decode[dto.SponsorshipResponse](t, env)
	assert.Equal(t, "pending", first.Status)

	w, env = s.do(t, http.MethodPost, "/api/v1/issues/"+open+"/sponsorships", globex.token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	second := decode[dto.SponsorshipResponse](t, env)

	offersPath := "/api/v1/newsletters/" + nl.Newsletter.ID + "/issues/" + open + "/sponsorships"
	w, env = s.do(t, http.MethodGet, offersPath, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	offers := decode[dto.IssueOffersResponse](t, env)
	assert.Equal(t, "pending", offers.SlotState)
	assert.Len(t, offers.Offers, 2)

	w, _ = s.do(t, http.MethodGet, offersPath, acme.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.do(t, http.MethodPost, "/api/v1/sponsorships/"+first.ID+"/confirm", acme.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "only the owner confirms")

	w, env = s.do(t, http.MethodPost, "/api/v1/sponsorships/"+first.ID+"/confirm", alice.token, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	confirmed := decode[dto.ConfirmedSponsorshipResponse](t, env)
	assert.Equal(t, first.ID, confirmed.SponsorshipID)

	w, env = s.do(t, http.MethodPost, "/api/v1/sponsorships/"+second.ID+"/confirm", alice.token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrCodeAlreadyConfirmed, env.Error.Code)

	editPath := "/api/v1/confirmed-sponsorships/" + confirmed.ID
	w, _ = s.do(t, http.MethodGet, editPath+"/edit", acme.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.do(t, http.MethodGet, editPath+"/edit", globex.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, env = s.do(t, http.MethodPut, editPath, acme.token, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, env.Error.Details, "ad_copy")

	w, env = s.do(t, http.MethodPut, editPath, acme.token, gin.H{"ad_copy": "Try Acme"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Try Acme", decode[dto.ConfirmedSponsorshipResponse](t, env).AdCopy)

	w, _ = s.do(t, http.MethodDelete, editPath, acme.token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "only the owner releases the slot")

	w, _ = s.do(t, http.MethodDelete, editPath, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.do(t, http.MethodGet, offersPath, alice.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[dto.IssueOffersResponse](t, env).Confirmed)

	w, env = s.do(t, http.MethodDelete, "/api/v1/sponsorships/"+second.ID, globex.token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "withdrawn", decode[dto.SponsorshipResponse](t, env).Status)

	w, env = s.do(t, http.MethodDelete, "/api/v1/sponsorships/"+second.ID, globex.token, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, response.ErrCodeInvalidTransition, env.Error.Code)

	assert.Len(t, s.publisher.ByTopic(events.TopicSponsorshipConfirmed), 1)
	assert.Len(t, s.publisher.ByTopic(events.TopicSponsorshipReopened), 1)

	require.NoError(t, s.audit.Close())
	var actions []middleware.AuditAction
	for _, e := range s.audit.GetTestEntries() {
		actions = append(actions, e.Action)
	}
	assert.Contains(t, actions, middleware.AuditActionConfirm)
	assert.Contains(t, actions, middleware.AuditActionWithdraw)
}

func TestPublicRateLimit(t *testing.T) {
	limit := middleware.RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1}
	limiter := middleware.NewLocalRateLimiter(limit)
	defer limiter.Stop()

	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.RateLimit = limit
		cfg.RateLimiter = limiter
	})

	w, _ := s.do(t, http.MethodGet, "/api/v1/u/alice/newsletters", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.do(t, http.MethodGet, "/api/v1/u/alice/newsletters", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, response.ErrCodeTooManyRequests, env.Error.Code)
}
