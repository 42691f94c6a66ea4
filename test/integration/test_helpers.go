//go:build integration

package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"cookie-auth/internal/app"
	"cookie-auth/internal/config"
	"cookie-auth/internal/handler"
	"cookie-auth/internal/middleware"
	"cookie-auth/internal/model"
	"cookie-auth/internal/repository"
	"cookie-auth/internal/router"
	"cookie-auth/internal/service"
)

const cookieName = "token"

// storeDrivers lists the backends reachable from the environment. The memory
// store is always included.
func storeDrivers() []*config.Config {
	base := func(driver string) *config.Config {
		return &config.Config{
			StoreDriver:    driver,
			DBMaxConns:     4,
			DBMinConns:     0,
			MongoDatabase:  "auth_it_" + uuid.NewString()[:8],
			CORSOrigins:    []string{"http://localhost:3000"},
			RequestTimeout: 10 * time.Second,
			CookieName:     cookieName,
			JWTSecret:      "integration-secret",
			JWTTTL:         time.Hour,
			BcryptCost:     bcrypt.MinCost,
		}
	}

	drivers := []*config.Config{base(config.DriverMemory)}
	if url := os.Getenv("DATABASE_URL"); url != "" {
		cfg := base(config.DriverPostgres)
		cfg.DatabaseURL = url
		drivers = append(drivers, cfg)
	}
	if uri := os.Getenv("MONGO_URI"); uri != "" {
		cfg := base(config.DriverMongo)
		cfg.MongoURI = uri
		drivers = append(drivers, cfg)
	}
	return drivers
}

type testEnv struct {
	server *httptest.Server
	store  repository.UserStore
}

func newTestEnv(t *testing.T, cfg *config.Config) *testEnv {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, closeStore, err := app.OpenStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	tokens, err := service.NewTokenService(cfg.JWTSecret, cfg.JWTTTL)
	require.NoError(t, err)
	authService, err := service.NewAuthService(store, service.NewPasswordHasher(cfg.BcryptCost), tokens)
	require.NoError(t, err)

	authMiddleware := middleware.NewAuthMiddleware(middleware.NewCookieStrategy(cfg.CookieName, authService, authService))
	server := httptest.NewServer(router.New(cfg, authMiddleware, router.Handlers{
		Auth:   handler.NewAuthHandler(authService, handler.CookieSettings{Name: cfg.CookieName, Secure: cfg.IsProduction()}),
		Health: handler.NewHealthHandler(store),
		Docs:   handler.NewDocsHandler("../../docs/openapi.yaml"),
	}))
	t.Cleanup(server.Close)

	return &testEnv{server: server, store: store}
}

// uniqueEmail keeps runs against a shared database from colliding.
func uniqueEmail(prefix string) string {
	return prefix + "+" + uuid.NewString()[:8] + "@example.com"
}

func credentials(t *testing.T, email string, password string) []byte {
	t.Helper()

	body, err := json.Marshal(model.CredentialsRequest{Email: email, Password: password})
	require.NoError(t, err)
	return body
}

func mustNewRequest(t *testing.T, method string, url string, body []byte, cookie *http.Cookie) *http.Request {
	t.Helper()

	req, err := http.NewRequest(method, url, bytes.NewReader(body))
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	return req
}

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func tokenCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}
