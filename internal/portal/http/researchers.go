package http

import (
	"net/http"

	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
)

// handleInvite godoc
//
//	@Summary		Invite a researcher
//	@Description	Creates a pending researcher account and emails a registration link valid for 30 days.
//	@Tags			Researchers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.InviteRequest	true	"Email to invite"
//	@Success		200		{object}	portalsdk.MessageResponse
//	@Failure		401		{object}	portalsdk.ErrorResponse
//	@Failure		403		{object}	portalsdk.ErrorResponse
//	@Failure		409		{object}	portalsdk.ErrorResponse
//	@Failure		422		{object}	portalsdk.ErrorResponse
//	@Failure		500		{object}	portalsdk.ErrorResponse	"email delivery failed"
//	@Security		BearerAuth
//	@Router			/admin/researchers/invite [post]
func (r *Router) handleInvite(w http.ResponseWriter, req *http.Request) {
	var body portalsdk.InviteRequest
	if err := httpx.DecodeJSON(w, req, maxJSONBody, &body); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	if _, err := r.Invites.Invite(req.Context(), body.Email); err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.MessageResponse{Message: "Invitation sent successfully"})
}

// handleAddResearcher godoc
//
//	@Summary		Add a researcher directly
//	@Description	Creates an active researcher and emails a generated password.
//	@Tags			Researchers
//	@Accept			json
//	@Produce		json
//	@Param			request	body		portalsdk.AddResearcherRequest	true	"Researcher"
//	@Success		201		{object}	portalsdk.ResearcherResponse
//	@Failure		401		{object}	portalsdk.ErrorResponse
//	@Failure		403		{object}	portalsdk.ErrorResponse
//	@Failure		409		{object}	portalsdk.ErrorResponse
//	@Failure		422		{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/researchers/add [post]
func (r *Router) handleAddResearcher(w http.ResponseWriter, req *http.Request) {
	var body portalsdk.AddResearcherRequest
	if err := httpx.DecodeJSON(w, req, maxJSONBody, &body); err != nil {
		writeBadRequest(w, "Invalid JSON body")
		return
	}

	u, err := r.Accounts.AddResearcher(req.Context(), service.ResearcherInput{
		Email:   body.Email,
		Name:    body.Name,
		Faculty: body.Faculty,
		Bio:     body.Bio,
		Title:   body.Title,
	})
	if err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, portalsdk.ResearcherResponse{Researcher: toUser(u)})
}

// handleListResearchers godoc
//
//	@Summary		List active researchers
//	@Tags			Researchers
//	@Produce		json
//	@Success		200	{object}	portalsdk.ResearchersResponse
//	@Failure		401	{object}	portalsdk.ErrorResponse
//	@Failure		403	{object}	portalsdk.ErrorResponse
//	@Security		BearerAuth
//	@Router			/admin/researchers [get]
func (r *Router) handleListResearchers(w http.ResponseWriter, req *http.Request) {
	us, err := r.Accounts.ListResearchers(req.Context())
	if err != nil {
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.ResearchersResponse{Data: toUsers(us)})
}
