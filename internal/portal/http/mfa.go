package http

import (
	"context"
	"net/http"

	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

func subject(req *http.Request) string {
	c, _ := httpx.ClaimsFromContext(req.Context())
	return c.Subject
}

// handleMFAEnroll godoc
//
//	@Summary		Start TOTP enrollment
//	@Description	Returns a new secret and otpauth URL. TOTP stays off until verified.
//	@Tags			MFA
//	@Produce		json
//	@Success		200	{object}	portalsdk.MFAEnrollResponse
//	@Failure		409	{object}	portalsdk.ErrorResponse	"already enabled"
//	@Security		BearerAuth
//	@Router			/auth/admin/mfa/enroll [post]
func (r *Router) handleMFAEnroll(w http.ResponseWriter, req *http.Request) {
	enr, err := r.MFA.Enroll(req.Context(), subject(req))
	if err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MFAEnrollResponse{Secret: enr.Secret, OTPAuthURL: enr.OTPAuthURL})
}

// handleMFAVerify godoc
//
//	@Summary		Confirm TOTP enrollment
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.MFACodeRequest	true	"Current code"
//	@Success		200		{object}	portalsdk.MessageResponse
//	@Failure		409		{object}	portalsdk.ErrorResponse
//	@Failure		422		{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/auth/admin/mfa/verify [post]
func (r *Router) handleMFAVerify(w http.ResponseWriter, req *http.Request) {
	r.withCode(w, req, r.MFA.Verify, "Two-factor authentication enabled")
}

// handleMFADisable godoc
//
//	@Summary		Turn TOTP off
//	@Tags			MFA
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.MFACodeRequest	true	"Current code"
//	@Success		200		{object}	portalsdk.MessageResponse
//	@Failure		409		{object}	portalsdk.ErrorResponse
//	@Failure		422		{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/auth/admin/mfa [delete]
func (r *Router) handleMFADisable(w http.ResponseWriter, req *http.Request) {
	r.withCode(w, req, r.MFA.Disable, "Two-factor authentication disabled")
}

func (r *Router) withCode(w http.ResponseWriter, req *http.Request, fn func(ctx context.Context, userID, code string) error, msg string) {
	var body portalsdk.MFACodeRequest
	if err := httpx.DecodeJSON(w, req, maxJSONBody, &body); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}
	if err := fn(req.Context(), subject(req), body.Code); err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MessageResponse{Message: msg})
}
