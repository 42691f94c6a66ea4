package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"cookie-auth/internal/model"
	"cookie-auth/pkg/apierror"
)

const serverErrorMessage = "Server error"

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.MessageResponse{Message: message})
}

// writeError maps err to a status and a generic {"message"} body. Internal
// detail only goes to the log.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := serverErrorMessage

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		status = apiErr.HTTPStatus
		message = apiErr.Message
	} else if errors.Is(err, model.ErrUserAlreadyExists) {
		status = http.StatusBadRequest
		message = "User already exists"
	} else if errors.Is(err, model.ErrInvalidCredentials) {
		status = http.StatusUnauthorized
		message = "Invalid credentials"
	} else if errors.Is(err, model.ErrUnauthorized) || errors.Is(err, model.ErrInvalidToken) || errors.Is(err, model.ErrExpiredToken) {
		status = http.StatusUnauthorized
		message = "Unauthorized"
	} else if errors.Is(err, model.ErrForbidden) {
		status = http.StatusForbidden
		message = "Forbidden"
	} else if errors.Is(err, model.ErrInvalidInput) {
		status = http.StatusBadRequest
		message = "Invalid input"
	} else if errors.Is(err, model.ErrUserNotFound) {
		status = http.StatusNotFound
		message = "User not found"
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "error", err.Error())
	}

	writeMessage(w, status, message)
}
