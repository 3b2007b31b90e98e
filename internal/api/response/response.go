// Package response writes the JSON envelope shared by every endpoint:
// {ok:true, data} on success and {ok:false, error:{code, message, details?}}
// on failure.
package response

import (
	"encoding/json"
	"net/http"
)

// Error codes
const (
	CodeInvalidRequest       = "INVALID_REQUEST"
	CodeValidation           = "VALIDATION_ERROR"
	CodeInvalidCredentials   = "INVALID_CREDENTIALS"
	CodeUserInactive         = "USER_INACTIVE"
	CodeUserNotFound         = "USER_NOT_FOUND"
	CodeInvalidRefresh       = "INVALID_REFRESH"
	CodeRefreshExpired       = "REFRESH_EXPIRED"
	CodeRefreshRevoked       = "REFRESH_REVOKED"
	CodeMissingToken         = "MISSING_TOKEN"
	CodeInvalidToken         = "INVALID_TOKEN"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeMethodNotAllowed     = "METHOD_NOT_ALLOWED"
	CodeUnsupportedMediaType = "UNSUPPORTED_MEDIA_TYPE"
	CodeTooManyRequests      = "TOO_MANY_REQUESTS"
	CodeServerError          = "SERVER_ERROR"
)

type Envelope struct {
	OK    bool        `json:"ok"`
	Data  interface{} `json:"data,omitempty"`
	Error *Error      `json:"error,omitempty"`
}

type Error struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func Success(w http.ResponseWriter, data interface{}) {
	JSON(w, http.StatusOK, Envelope{OK: true, Data: data})
}

func Fail(w http.ResponseWriter, status int, code, message string) {
	FailWithDetails(w, status, code, message, nil)
}

func FailWithDetails(w http.ResponseWriter, status int, code, message string, details interface{}) {
	JSON(w, status, Envelope{
		OK:    false,
		Error: &Error{Code: code, Message: message, Details: details},
	})
}

// ServerError hides the cause from the caller; log it before calling.
func ServerError(w http.ResponseWriter) {
	Fail(w, http.StatusInternalServerError, CodeServerError, "Internal server error")
}
