package http

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/Raymond-engr/DRID-Research/internal/portal/service"
	"github.com/Raymond-engr/DRID-Research/internal/portal/uploads"
	"github.com/Raymond-engr/DRID-Research/pkg/httpx"
	"github.com/Raymond-engr/DRID-Research/pkg/portalsdk"
	"github.com/Raymond-engr/DRID-Research/pkg/slogx"
)

const maxProfileForm = uploads.MaxPictureSize + 1<<20

// handleCompleteProfile godoc
//
//	@Summary		Complete an invited profile
//	@Description	Redeems an invitation token and activates the researcher account. profilePicture accepts jpeg, png or webp up to 5MB.
//	@Tags			Auth
//	@Accept			mpfd
//	@Produce		json
//	@Param			token			path		string	true	"Invitation token"
//	@Param			name			formData	string	true	"Full name"
//	@Param			password		formData	string	true	"At least 8 characters"
//	@Param			faculty			formData	string	false	"Faculty"
//	@Param			bio				formData	string	false	"Short biography"
//	@Param			title			formData	string	false	"Academic title"
//	@Param			profilePicture	formData	file	false	"Profile picture"
//	@Success		200				{object}	portalsdk.UserResponse
//	@Failure		400				{object}	portalsdk.ErrorResponse
//	@Failure		404				{object}	portalsdk.ErrorResponse	"unknown or expired token"
//	@Failure		422				{object}	portalsdk.ErrorResponse
//	@Router			/auth/complete-profile/{token} [post]
func (r *Router) handleCompleteProfile(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	token := req.PathValue("token")

	if _, err := r.Invites.Lookup(ctx, token); err != nil {
		writeError(w, req, err)
		return
	}

	req.Body = http.MaxBytesReader(w, req.Body, maxProfileForm)
	if err := req.ParseMultipartForm(maxProfileForm); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, req, uploads.ErrTooLarge)
			return
		}
		writeBadRequest(w, "Expected multipart/form-data")
		return
	}
	defer req.MultipartForm.RemoveAll()

	in := service.ProfileInput{
		Name:     req.FormValue("name"),
		Password: req.FormValue("password"),
		Faculty:  req.FormValue("faculty"),
		Bio:      req.FormValue("bio"),
		Title:    req.FormValue("title"),
	}

	if err := in.Validate(); err != nil {
		writeError(w, req, err)
		return
	}

	var picture *uploads.Object
	if file, _, err := req.FormFile("profilePicture"); err == nil {
		defer file.Close()
		obj, err := uploads.Save(ctx, r.Uploads, file, time.Now())
		if err != nil {
			writeError(w, req, err)
			return
		}
		picture = &obj
		in.ProfilePicture = obj.URL
	} else if !errors.Is(err, http.ErrMissingFile) {
		writeBadRequest(w, "Invalid profilePicture")
		return
	}

	u, err := r.Invites.CompleteProfile(ctx, token, in)
	if err != nil {
		if picture != nil {
			if derr := r.Uploads.Delete(context.WithoutCancel(ctx), picture.Key); derr != nil {
				slogx.FromContext(ctx).Warn("failed to remove unused profile picture",
					slog.String("key", picture.Key), slog.Any("error", derr))
			}
		}
		writeError(w, req, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, portalsdk.UserResponse{User: toUser(u)})
}
