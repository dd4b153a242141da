package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/bus-tracking/internal/api/http/handlers"
	"github.com/spec-kit/bus-tracking/internal/auth"
	"github.com/spec-kit/bus-tracking/internal/config"
	"github.com/spec-kit/bus-tracking/internal/domain"
	"github.com/spec-kit/bus-tracking/internal/observability"
	"github.com/spec-kit/bus-tracking/internal/persistence"
	"github.com/spec-kit/bus-tracking/internal/repository"
	"github.com/spec-kit/bus-tracking/internal/service"
)

type testServer struct {
	app   *fiber.App
	svc   *service.AuthService
	repo  repository.UserRepository
	clock *time.Time
}

func newTestServer(t *testing.T, rate string) *testServer {
	t.Helper()
	now := time.Now()
	clock := &now
	repo := repository.NewMemoryUserRepository()
	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	svc, err := service.NewAuthService(config.AuthConfig{
		JWTSecret:             "router-test-secret-router-test-secret",
		AccessTokenTTLMinutes: 60,
		BcryptCost:            bcrypt.MinCost,
	}, service.AuthDependencies{
		UserRepo:     repo,
		Logger:       logger,
		TokenOptions: []auth.TokenOption{auth.WithClock(func() time.Time { return *clock })},
	})
	require.NoError(t, err)

	limiter, err := NewAuthLimiter(&persistence.Redis{}, rate)
	require.NoError(t, err)

	app := NewApp("test", MiddlewareConfig{
		Logger:       logger,
		Metrics:      metrics,
		Timeout:      5 * time.Second,
		AllowOrigins: "*",
	}, RouteConfig{
		Health:          handlers.NewHealthHandler("test", "v0", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:            handlers.NewAuthHandler(svc),
		AuthMiddleware:  auth.NewAuthMiddleware(svc.TokenManager()),
		CredentialLimit: RateLimit(limiter, logger),
		Metrics:         metrics,
	})
	return &testServer{app: app, svc: svc, repo: repo, clock: clock}
}

func (s *testServer) do(t *testing.T, method, path string, body any, token string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	out := map[string]any{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &out))
	}
	return resp.StatusCode, out
}

func (s *testServer) register(t *testing.T, name, email, password string) (string, map[string]any) {
	t.Helper()
	status, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": name, "email": email, "password": password, "confirmPassword": password,
	}, "")
	require.Equal(t, http.StatusCreated, status, "body: %v", body)
	return body["token"].(string), body["user"].(map[string]any)
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, "")
	status, body := s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]any{"status": "Server is running"}, body)

	status, body = s.do(t, http.MethodGet, "/api/health/ready", nil, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestUnknownRoute(t *testing.T) {
	s := newTestServer(t, "")
	status, body := s.do(t, http.MethodGet, "/api/buses", nil, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Route not found", body["message"])
}

func TestUnknownRouteUnderRolePrefix(t *testing.T) {
	s := newTestServer(t, "")
	token, _ := s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")

	paths := []string{"/api/students", "/api/driverx/home", "/api/student/buses", "/api/driver/nonexistent"}
	for _, path := range paths {
		for _, tok := range []string{"", token} {
			status, body := s.do(t, http.MethodGet, path, nil, tok)
			assert.Equal(t, http.StatusNotFound, status, "%s with token %q", path, tok)
			assert.Equal(t, "Route not found", body["message"], path)
		}
	}
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t, "")
	token, user := s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")
	assert.NotEmpty(t, token)
	assert.Equal(t, "student", user["role"])
	assert.Equal(t, "asha@geu.ac.in", user["email"])
	assert.NotContains(t, user, "passwordHash")

	status, body := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, user, body["user"])
}

func TestRegisterShortPassword(t *testing.T) {
	s := newTestServer(t, "")
	status, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Asha", "email": "asha@geu.ac.in", "password": "abc", "confirmPassword": "abc",
	}, "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, map[string]any{"password": "Password must be at least 6 characters"}, body["errors"])
	assert.NotContains(t, body, "token")

	_, err := s.repo.GetByEmail(context.Background(), "asha@geu.ac.in")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestServer(t, "")
	s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")

	status, body := s.do(t, http.MethodPost, "/api/auth/register", map[string]string{
		"name": "Asha Two", "email": "ASHA@geu.ac.in", "password": "secret2", "confirmPassword": "secret2",
	}, "")
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "User already exists with this email", body["message"])
}

func TestRegisterMalformedBody(t *testing.T) {
	s := newTestServer(t, "")
	req := httptest.NewRequest(http.MethodPost, "/api/auth/register", strings.NewReader("{not json"))
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestLogin(t *testing.T) {
	s := newTestServer(t, "")
	_, user := s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")

	status, body := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@geu.ac.in", "password": "secret1"}, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, body["token"])
	assert.Equal(t, user, body["user"])
}

func TestLoginWrongPasswordIsGeneric(t *testing.T) {
	s := newTestServer(t, "")
	s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")

	wrongStatus, wrongBody := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "asha@geu.ac.in", "password": "secret2"}, "")
	unknownStatus, unknownBody := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "nobody@geu.ac.in", "password": "secret2"}, "")

	assert.Equal(t, http.StatusUnauthorized, wrongStatus)
	assert.Equal(t, wrongStatus, unknownStatus)
	assert.Equal(t, wrongBody, unknownBody)
	assert.Equal(t, false, wrongBody["success"])
	assert.NotContains(t, wrongBody, "token")
}

func TestMeRequiresToken(t *testing.T) {
	s := newTestServer(t, "")
	status, body := s.do(t, http.MethodGet, "/api/auth/me", nil, "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "No token provided. Please login.", body["message"])

	status, body = s.do(t, http.MethodGet, "/api/auth/me", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

func TestMeWithExpiredToken(t *testing.T) {
	s := newTestServer(t, "")
	token, _ := s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")

	*s.clock = s.clock.Add(2 * time.Hour)
	status, body := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", body["message"])
}

func TestMeForDeletedSubject(t *testing.T) {
	s := newTestServer(t, "")
	token, _, err := s.svc.TokenManager().Issue(auth.Claims{SubjectID: "ghost", Role: domain.RoleStudent})
	require.NoError(t, err)

	status, body := s.do(t, http.MethodGet, "/api/auth/me", nil, token)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["message"])
}

func TestRoleHomes(t *testing.T) {
	s := newTestServer(t, "")
	ctx := context.Background()

	studentToken, _ := s.register(t, "Asha Rawat", "asha@geu.ac.in", "secret1")

	_, err := s.svc.Provision(ctx, service.ProvisionInput{Name: "Ravi Negi", Email: "ravi@geu.ac.in", Password: "driver1", Role: domain.RoleDriver})
	require.NoError(t, err)
	status, body := s.do(t, http.MethodPost, "/api/auth/login", map[string]string{"email": "ravi@geu.ac.in", "password": "driver1"}, "")
	require.Equal(t, http.StatusOK, status)
	driverToken := body["token"].(string)

	tests := []struct {
		name       string
		path       string
		token      string
		wantStatus int
	}{
		{"student at student home", "/api/student/home", studentToken, http.StatusOK},
		{"student at driver home", "/api/driver/home", studentToken, http.StatusForbidden},
		{"driver at driver home", "/api/driver/home", driverToken, http.StatusOK},
		{"driver at student home", "/api/student/home", driverToken, http.StatusForbidden},
		{"anonymous at driver home", "/api/driver/home", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := s.do(t, http.MethodGet, tt.path, nil, tt.token)
			assert.Equal(t, tt.wantStatus, status)
			if tt.wantStatus == http.StatusForbidden {
				assert.Equal(t, "Access denied. Insufficient permissions.", body["message"])
			}
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, true, body["success"])
			}
		})
	}
}

func TestCredentialRateLimit(t *testing.T) {
	s := newTestServer(t, "2-M")
	creds := map[string]string{"email": "asha@geu.ac.in", "password": "secret1"}

	first, _ := s.do(t, http.MethodPost, "/api/auth/login", creds, "")
	second, _ := s.do(t, http.MethodPost, "/api/auth/login", creds, "")
	third, body := s.do(t, http.MethodPost, "/api/auth/login", creds, "")

	assert.Equal(t, http.StatusUnauthorized, first)
	assert.Equal(t, http.StatusUnauthorized, second)
	assert.Equal(t, http.StatusTooManyRequests, third)
	assert.Equal(t, false, body["success"])

	health, _ := s.do(t, http.MethodGet, "/api/health", nil, "")
	assert.Equal(t, http.StatusOK, health)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, "")
	s.do(t, http.MethodGet, "/api/health", nil, "")

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(raw), "bus_tracking_http_requests_total")
}

func TestNewAuthLimiterRejectsBadRate(t *testing.T) {
	_, err := NewAuthLimiter(&persistence.Redis{}, "lots-per-minute")
	assert.Error(t, err)
}
