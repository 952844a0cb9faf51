package middleware

import (
	"encoding/json"
	"net/http"
)

// Messages returned by middleware-level refusals.
const (
	MsgUnauthorized    = "Unauthorized"
	MsgInvalidCSRF     = "The CSRF token is missing or invalid."
	MsgTooManyRequests = "Too many requests. Please try again later."
	MsgPayloadTooLarge = "Request body too large."
	MsgInternalError   = "An internal error occurred."
)

type envelope struct {
	Status  string `json:"status"`
	Data    any    `json:"data"`
	Message string `json:"message"`
}

// writeError writes the standard error envelope.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Status: "error", Message: message})
}
