package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"cookie-auth/internal/middleware"
	"cookie-auth/internal/model"
	"cookie-auth/internal/service"
	"cookie-auth/pkg/apierror"
)

const maxCredentialsBodyBytes = 1 << 20

type CookieSettings struct {
	Name string
	// Secure is enabled only in production so the cookie still works over plain HTTP locally.
	Secure bool
}

type AuthHandler struct {
	service *service.AuthService
	cookie  CookieSettings
}

func NewAuthHandler(service *service.AuthService, cookie CookieSettings) *AuthHandler {
	return &AuthHandler{service: service, cookie: cookie}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	if _, err := h.service.Register(r.Context(), payload.Email, payload.Password); err != nil {
		writeError(w, err)
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	payload, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	result, err := h.service.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    result.Token,
		Path:     "/",
		Expires:  result.ExpiresAt,
		MaxAge:   int(time.Until(result.ExpiresAt).Seconds()),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	writeMessage(w, http.StatusOK, "Logged in successfully")
}

// Logout only expires the cookie. A token the client kept elsewhere stays
// valid until its own expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookie.Name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteStrictMode,
	})

	writeMessage(w, http.StatusOK, "Logged out successfully")
}

func (h *AuthHandler) Admin(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, model.ErrUnauthorized)
		return
	}

	writeJSON(w, http.StatusOK, model.AdminResponse{
		Message: "Welcome Admin",
		User:    user.Public(),
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (model.CredentialsRequest, bool) {
	defer r.Body.Close()

	var payload model.CredentialsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxCredentialsBodyBytes)).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "Invalid request body", http.StatusBadRequest))
		return model.CredentialsRequest{}, false
	}

	return payload, true
}
