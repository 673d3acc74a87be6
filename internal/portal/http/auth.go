package http

import (
	"errors"
	"net/http"

	"github.com/Raymond-engr/DRID-Research/internal/portal/domain"
	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

const maxJSONBody = 64 << 10

// LoginHandler signs in accounts of a single role.
type LoginHandler struct {
	router *Router
	Role   domain.Role
}

// ServeHTTP godoc
//
//	@Summary		Sign in
//	@Description	Administrators and researchers sign in on separate endpoints. An administrator with TOTP enabled must send otp.
//	@Description	The refresh credential is set as an HttpOnly cookie scoped to /auth and is never part of the body.
//	@Tags			Auth
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.LoginRequest	true	"Credentials"
//	@Success		200		{object}	portalsdk.LoginResponse
//	@Failure		400		{object}	portalsdk.ErrorResponse
//	@Failure		401		{object}	portalsdk.ErrorResponse	"invalid_credentials or otp_required"
//	@Failure		422		{object}	portalsdk.ErrorResponse
//	@Failure		429		{object}	portalsdk.ErrorResponse
//	@Router			/auth/admin/login [post]
//	@Router			/auth/researcher/login [post]
func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req portalsdk.LoginRequest
	if err := httpx.DecodeJSON(w, r, maxJSONBody, &req); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	sess, err := h.router.Credentials.Login(r.Context(), service.LoginRequest{
		Role:     h.Role,
		Email:    req.Email,
		Password: req.Password,
		OTP:      req.OTP,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	h.router.setRefreshCookie(w, sess.RefreshToken, sess.RefreshExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.LoginResponse{
		AccessToken: sess.AccessToken,
		User:        toUser(sess.User),
	})
}

// handleRefresh godoc
//
//	@Summary		Refresh the access token
//	@Description	Exchanges the refresh_token cookie for a new access token and rotates the cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	portalsdk.AccessTokenResponse
//	@Failure		401	{object}	portalsdk.ErrorResponse	"session_expired"
//	@Router			/auth/refresh-token [post]
func (r *Router) handleRefresh(w http.ResponseWriter, req *http.Request) {
	sess, err := r.Credentials.Refresh(req.Context(), refreshCookie(req))
	if err != nil {
		// The cookie may already hold the winner's credential.
		if !errors.Is(err, service.ErrSuperseded) {
			r.clearRefreshCookie(w)
		}
		writeError(w, req, err)
		return
	}

	r.setRefreshCookie(w, sess.RefreshToken, sess.RefreshExpiresAt)
	httpx.WriteJSON(w, http.StatusOK, portalsdk.AccessTokenResponse{AccessToken: sess.AccessToken})
}

// handleVerify godoc
//
//	@Summary		Resolve the current account
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	portalsdk.UserResponse
//	@Failure		401	{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/auth/verify-token [get]
func (r *Router) handleVerify(w http.ResponseWriter, req *http.Request) {
	token, _ := httpx.BearerToken(req)
	u, err := r.Credentials.VerifyToken(req.Context(), token)
	if err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.UserResponse{User: toUser(u)})
}

// handleLogout godoc
//
//	@Summary		Sign out
//	@Description	Revokes the refresh credential and clears its cookie.
//	@Tags			Auth
//	@Produce		json
//	@Success		200	{object}	portalsdk.MessageResponse
//	@Failure		401	{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/auth/logout [post]
func (r *Router) handleLogout(w http.ResponseWriter, req *http.Request) {
	err := r.Credentials.Logout(req.Context(), refreshCookie(req))
	r.clearRefreshCookie(w)
	if err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MessageResponse{Message: "Logged out successfully"})
}
