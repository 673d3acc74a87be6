package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/internal/portal/uploads"
	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

// writeError maps a service error onto the response. Anything unrecognised
// is logged and reported as a bare server_error.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *service.ValidationError
	var le *service.LockedError

	switch {
	case errors.As(err, &ve):
		httpx.WriteJSON(w, http.StatusUnprocessableEntity, portalsdk.ErrorResponse{
			Error:            portalsdk.CodeValidation,
			ErrorDescription: "The request contains invalid fields.",
			Details:          ve.Fields,
		})
	case errors.As(err, &le):
		httpx.WriteTooManyRequests(w, max(int(le.RetryAfter.Round(time.Second)/time.Second), 1))
	case errors.Is(err, service.ErrInvalidCredentials):
		httpx.WriteError(w, http.StatusUnauthorized, portalsdk.CodeInvalidCredentials, "Invalid email or password.")
	case errors.Is(err, service.ErrOTPRequired):
		httpx.WriteError(w, http.StatusUnauthorized, portalsdk.CodeOTPRequired, "A one-time code is required.")
	case errors.Is(err, service.ErrSessionExpired):
		httpx.WriteError(w, http.StatusUnauthorized, portalsdk.CodeSessionExpired, "Session expired. Please sign in again.")
	case errors.Is(err, service.ErrUnauthorized):
		httpx.WriteError(w, http.StatusUnauthorized, portalsdk.CodeUnauthorized, "Authentication required.")
	case errors.Is(err, service.ErrForbidden):
		httpx.WriteError(w, http.StatusForbidden, portalsdk.CodeForbidden, "Insufficient role for this resource.")
	case errors.Is(err, service.ErrConflict):
		httpx.WriteError(w, http.StatusConflict, portalsdk.CodeConflict, "An account with this email already exists.")
	case errors.Is(err, service.ErrNotFound):
		httpx.WriteError(w, http.StatusNotFound, portalsdk.CodeNotFound, "Resource not found.")
	case errors.Is(err, service.ErrInvalidTOTPCode):
		writeFieldError(w, "code", "is not a valid one-time code")
	case errors.Is(err, service.ErrMFANotEnrolled),
		errors.Is(err, service.ErrMFANotEnabled),
		errors.Is(err, service.ErrMFAAlreadyEnabled):
		httpx.WriteError(w, http.StatusConflict, portalsdk.CodeConflict, err.Error())
	case errors.Is(err, uploads.ErrTooLarge), errors.Is(err, uploads.ErrUnsupportedType):
		writeFieldError(w, "profilePicture", err.Error())
	case errors.Is(err, service.ErrDelivery):
		slogx.FromContext(r.Context()).Error("email delivery failed", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, portalsdk.CodeServerError, "Failed to send email. Please try again.")
	default:
		slogx.FromContext(r.Context()).Error("unhandled error", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, portalsdk.CodeServerError, "An unexpected error occurred.")
	}
}

func writeFieldError(w http.ResponseWriter, field, msg string) {
	httpx.WriteJSON(w, http.StatusUnprocessableEntity, portalsdk.ErrorResponse{
		Error:            portalsdk.CodeValidation,
		ErrorDescription: "The request contains invalid fields.",
		Details:          map[string]string{field: msg},
	})
}

func writeBadRequest(w http.ResponseWriter, desc string) {
	httpx.WriteError(w, http.StatusBadRequest, portalsdk.CodeBadRequest, desc)
}
