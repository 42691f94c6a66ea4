package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cookie-auth/internal/config"
	"cookie-auth/internal/handler"
	"cookie-auth/internal/middleware"
	"cookie-auth/internal/model"
	"cookie-auth/internal/repository"
	"cookie-auth/internal/service"
)

type testServer struct {
	*httptest.Server
	store *repository.MemoryUserRepository
	auth  *service.AuthService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	cfg := &config.Config{
		CORSOrigins:    []string{"http://localhost:3000"},
		RequestTimeout: 5 * time.Second,
		CookieName:     "token",
	}

	store := repository.NewMemoryUserRepository()
	tokens, err := service.NewTokenService("test-secret", service.DefaultTokenTTL)
	require.NoError(t, err)
	authService, err := service.NewAuthService(store, service.NewPasswordHasher(bcrypt.MinCost), tokens)
	require.NoError(t, err)

	authMiddleware := middleware.NewAuthMiddleware(middleware.NewCookieStrategy(cfg.CookieName, authService, authService))
	srv := httptest.NewServer(New(cfg, authMiddleware, Handlers{
		Auth:   handler.NewAuthHandler(authService, handler.CookieSettings{Name: cfg.CookieName}),
		Health: handler.NewHealthHandler(store),
		Docs:   handler.NewDocsHandler("../../docs/openapi.yaml"),
	}))
	t.Cleanup(srv.Close)

	return &testServer{Server: srv, store: store, auth: authService}
}

func (s *testServer) post(t *testing.T, path string, body string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, s.URL+path, bytes.NewBufferString(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) get(t *testing.T, path string, cookie *http.Cookie) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, s.URL+path, nil)
	require.NoError(t, err)
	if cookie != nil {
		req.AddCookie(cookie)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func (s *testServer) login(t *testing.T, email string, password string) *http.Cookie {
	t.Helper()

	resp := s.post(t, "/api/auth/login", `{"email":"`+email+`","password":"`+password+`"}`, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatal("login response carried no token cookie")
	return nil
}

func decodeMessage(t *testing.T, resp *http.Response) string {
	t.Helper()

	var body model.MessageResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body.Message
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.get(t, "/health", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "hello world", decodeMessage(t, resp))
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

	resp = srv.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAdminFlow_PromotionInStore(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.post(t, "/api/auth/register", `{"email":"a@x.io","password":"pw1"}`, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))

	cookie := srv.login(t, "a@x.io", "pw1")

	resp = srv.get(t, "/api/auth/admin", cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "Forbidden", decodeMessage(t, resp))

	_, err := srv.auth.SetRole(context.Background(), "a@x.io", model.RoleAdmin)
	require.NoError(t, err)

	// Role is read from the store on each request, so the same token now passes.
	resp = srv.get(t, "/api/auth/admin", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body model.AdminResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "Welcome Admin", body.Message)
	assert.Equal(t, "a@x.io", body.User.Email)
	assert.Equal(t, model.RoleAdmin, body.User.Role)
}

func TestAdmin_RequiresCookie(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.get(t, "/api/auth/admin", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Unauthorized", decodeMessage(t, resp))

	resp = srv.get(t, "/api/auth/admin", &http.Cookie{Name: "token", Value: "not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	require.Equal(t, http.StatusCreated, srv.post(t, "/api/auth/register", `{"email":"a@x.io","password":"pw1"}`, nil).StatusCode)
	cookie := srv.login(t, "a@x.io", "pw1")

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/auth/admin", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+cookie.Value)
	bearerResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = bearerResp.Body.Close() })
	assert.Equal(t, http.StatusUnauthorized, bearerResp.StatusCode, "only the cookie is a credential source")
}

func TestAdmin_DeletedUserIsUnauthorized(t *testing.T) {
	srv := newTestServer(t)

	tokens, err := service.NewTokenService("test-secret", service.DefaultTokenTTL)
	require.NoError(t, err)
	token, _, err := tokens.Issue("no-such-user")
	require.NoError(t, err)

	resp := srv.get(t, "/api/auth/admin", &http.Cookie{Name: "token", Value: token})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLogout_IsStateless(t *testing.T) {
	srv := newTestServer(t)

	require.Equal(t, http.StatusCreated, srv.post(t, "/api/auth/register", `{"email":"a@x.io","password":"pw1"}`, nil).StatusCode)
	user, err := srv.store.FindByEmail(context.Background(), "a@x.io")
	require.NoError(t, err)
	require.NoError(t, srv.store.UpdateRole(context.Background(), user.ID, model.RoleAdmin))

	cookie := srv.login(t, "a@x.io", "pw1")

	resp := srv.post(t, "/api/auth/logout", "", cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Logged out successfully", decodeMessage(t, resp))

	var cleared *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "token" {
			cleared = c
		}
	}
	require.NotNil(t, cleared)
	assert.Empty(t, cleared.Value)

	// The server keeps no session, so a retained copy of the token still works.
	resp = srv.get(t, "/api/auth/admin", cookie)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestLogin_RejectsWithoutCookie(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.post(t, "/api/auth/login", `{"email":"ghost@x.io","password":"pw1"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "Invalid credentials", decodeMessage(t, resp))
	assert.Empty(t, resp.Cookies())
}

func TestDocs(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.get(t, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err := buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "/api/auth/admin")
}

func TestUnknownMethod(t *testing.T) {
	srv := newTestServer(t)

	resp := srv.get(t, "/api/auth/login", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
