package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"cookie-auth/internal/model"
)

// Strategy turns an inbound request into an authenticated user in three
// steps. Alternate credential sources only need a new Strategy; handlers read
// the result through UserFromContext either way.
type Strategy interface {
	// Extract returns the raw credential, or false when the request carries none.
	Extract(r *http.Request) (string, bool)
	Verify(raw string) (*model.TokenClaims, error)
	Resolve(ctx context.Context, claims *model.TokenClaims) (model.User, error)
}

type tokenValidator interface {
	ValidateToken(tokenString string) (*model.TokenClaims, error)
}

type userResolver interface {
	GetUserByID(ctx context.Context, id string) (model.User, error)
}

// tokenIdentity holds the verify and resolve steps shared by token-based strategies.
type tokenIdentity struct {
	validator tokenValidator
	users     userResolver
}

func (t tokenIdentity) Verify(raw string) (*model.TokenClaims, error) {
	return t.validator.ValidateToken(raw)
}

func (t tokenIdentity) Resolve(ctx context.Context, claims *model.TokenClaims) (model.User, error) {
	return t.users.GetUserByID(ctx, claims.UserID)
}

// CookieStrategy reads the token from a single named cookie and nowhere else.
type CookieStrategy struct {
	tokenIdentity
	cookieName string
}

func NewCookieStrategy(cookieName string, validator tokenValidator, users userResolver) *CookieStrategy {
	return &CookieStrategy{
		tokenIdentity: tokenIdentity{validator: validator, users: users},
		cookieName:    cookieName,
	}
}

func (s *CookieStrategy) Extract(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(s.cookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		return "", false
	}
	return cookie.Value, true
}

// BearerStrategy reads "Authorization: Bearer <token>".
type BearerStrategy struct {
	tokenIdentity
}

func NewBearerStrategy(validator tokenValidator, users userResolver) *BearerStrategy {
	return &BearerStrategy{tokenIdentity: tokenIdentity{validator: validator, users: users}}
}

func (s *BearerStrategy) Extract(r *http.Request) (string, bool) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(header[7:])
	return token, token != ""
}

type contextKey string

const authUserContextKey contextKey = "auth_user"

type AuthMiddleware struct {
	strategy Strategy
}

func NewAuthMiddleware(strategy Strategy) *AuthMiddleware {
	return &AuthMiddleware{strategy: strategy}
}

// Authenticate attaches the resolved user to the request context when the
// strategy succeeds. It never rejects a request; that is left to RequireAuth
// and RequireRoles.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := m.identify(r)
		if ok {
			r = r.WithContext(WithUser(r.Context(), user))
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) identify(r *http.Request) (model.User, bool) {
	raw, ok := m.strategy.Extract(r)
	if !ok {
		return model.User{}, false
	}

	claims, err := m.strategy.Verify(raw)
	if err != nil {
		slog.Debug("token rejected", "path", r.URL.Path, "expired", errors.Is(err, model.ErrExpiredToken))
		return model.User{}, false
	}

	user, err := m.strategy.Resolve(r.Context(), claims)
	if err != nil {
		if !errors.Is(err, model.ErrUserNotFound) {
			slog.Warn("resolve token subject failed", "user_id", claims.UserID, "error", err)
		}
		return model.User{}, false
	}

	return user, true
}

func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := UserFromContext(r.Context()); !ok {
			writeMessage(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRoles admits identities whose role is in allowedRoles. There is no
// role hierarchy.
func (m *AuthMiddleware) RequireRoles(allowedRoles ...model.Role) func(http.Handler) http.Handler {
	roleSet := make(map[model.Role]struct{}, len(allowedRoles))
	for _, role := range allowedRoles {
		roleSet[role] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if _, allowed := roleSet[user.Role]; !allowed {
				writeMessage(w, http.StatusForbidden, "Forbidden")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, authUserContextKey, user)
}

func UserFromContext(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(authUserContextKey).(model.User)
	return user, ok
}
