package portalsdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared with the server.
const (
	CodeInvalidCredentials = "invalid_credentials"
	CodeOTPRequired        = "otp_required"
	CodeUnauthorized       = "unauthorized"
	CodeSessionExpired     = "session_expired"
	CodeForbidden          = "forbidden"
	CodeConflict           = "conflict"
	CodeNotFound           = "not_found"
	CodeValidation         = "validation_error"
	CodeBadRequest         = "invalid_request"
	CodeRateLimited        = "rate_limit_exceeded"
	CodeServerError        = "server_error"
	CodeNetwork            = "network_error"
)

// Kinds to match with errors.Is against an *APIError.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrOTPRequired        = errors.New("one-time code required")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrSessionExpired     = errors.New("session expired")
	ErrForbidden          = errors.New("forbidden")
	ErrConflict           = errors.New("conflict")
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrTooManyRequests    = errors.New("too many requests")
	ErrServer             = errors.New("server error")
	ErrNetwork            = errors.New("network error")
)

var kinds = map[string]error{
	CodeInvalidCredentials: ErrInvalidCredentials,
	CodeOTPRequired:        ErrOTPRequired,
	CodeUnauthorized:       ErrUnauthorized,
	CodeSessionExpired:     ErrSessionExpired,
	CodeForbidden:          ErrForbidden,
	CodeConflict:           ErrConflict,
	CodeNotFound:           ErrNotFound,
	CodeValidation:         ErrValidation,
	CodeRateLimited:        ErrTooManyRequests,
	CodeServerError:        ErrServer,
	CodeNetwork:            ErrNetwork,
}

// APIError is every failure the client returns. StatusCode is zero when the
// request never got a response.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
	Details     map[string]string
	RetryAfter  string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Description)
}

// Is matches the kind sentinels.
func (e *APIError) Is(target error) bool {
	k, ok := kinds[e.Code]
	return ok && k == target
}

func networkError(err error) *APIError {
	return &APIError{Code: CodeNetwork, Description: err.Error()}
}

func sessionExpired() *APIError {
	return &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        CodeSessionExpired,
		Description: "Your session has expired. Please sign in again.",
	}
}

// parseError classifies a non-2xx response. Unrecognised bodies are
// classified by status alone.
func parseError(resp *http.Response, body []byte) *APIError {
	e := &APIError{StatusCode: resp.StatusCode, RetryAfter: resp.Header.Get("Retry-After")}

	var er ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && er.Error != "" {
		e.Code = er.Error
		e.Description = er.ErrorDescription
		e.Details = er.Details
		return e
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		e.Code = CodeUnauthorized
	case resp.StatusCode == http.StatusForbidden:
		e.Code = CodeForbidden
	case resp.StatusCode == http.StatusNotFound:
		e.Code = CodeNotFound
	case resp.StatusCode == http.StatusConflict:
		e.Code = CodeConflict
	case resp.StatusCode == http.StatusUnprocessableEntity:
		e.Code = CodeValidation
	case resp.StatusCode == http.StatusTooManyRequests:
		e.Code = CodeRateLimited
	case resp.StatusCode >= 500:
		e.Code = CodeServerError
	default:
		e.Code = CodeBadRequest
	}
	e.Description = http.StatusText(resp.StatusCode)
	return e
}
