package middleware

import (
	"encoding/json"
	"net/http"

	"cookie-auth/internal/model"
)

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(model.MessageResponse{Message: message})
}
