package http

import (
	"net/http"

	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

// handleListInvitations godoc
//
//	@Summary		List outstanding invitations
//	@Description	Status is pending until the expiry instant and expired from then on. Dates are YYYY-MM-DD.
//	@Tags			Invitations
//	@Produce		json
//	@Success		200	{object}	portalsdk.InvitationsResponse
//	@Failure		401	{object}	portalsdk.ErrorResponse
//	@Failure		403	{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/invitations [get]
func (r *Router) handleListInvitations(w http.ResponseWriter, req *http.Request) {
	invs, err := r.Invites.List(req.Context())
	if err != nil {
		writeError(w, req, err)
		return
	}

	out := make([]portalsdk.Invitation, 0, len(invs))
	for _, inv := range invs {
		out = append(out, toInvitation(inv))
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.InvitationsResponse{Data: out})
}

// handleResendInvitation godoc
//
//	@Summary		Resend an invitation
//	@Description	Issues a new token and a fresh 30 day expiry. The previous link stops working.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Invitation id"
//	@Success		200	{object}	portalsdk.MessageResponse
//	@Failure		404	{object}	portalsdk.ErrorResponse
//	@Failure		500	{object}	portalsdk.ErrorResponse	"email delivery failed"
//	@Security		BearerAuth
//	@Router			/admin/invitations/{id}/resend [post]
func (r *Router) handleResendInvitation(w http.ResponseWriter, req *http.Request) {
	if _, err := r.Invites.Resend(req.Context(), req.PathValue("id")); err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MessageResponse{Message: "Invitation resent successfully"})
}

// handleRevokeInvitation godoc
//
//	@Summary		Revoke an invitation
//	@Description	Deletes the pending account. Active accounts cannot be removed here.
//	@Tags			Invitations
//	@Produce		json
//	@Param			id	path		string	true	"Invitation id"
//	@Success		200	{object}	portalsdk.MessageResponse
//	@Failure		404	{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/invitations/{id} [delete]
func (r *Router) handleRevokeInvitation(w http.ResponseWriter, req *http.Request) {
	if err := r.Invites.Revoke(req.Context(), req.PathValue("id")); err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MessageResponse{Message: "Invitation deleted successfully"})
}
