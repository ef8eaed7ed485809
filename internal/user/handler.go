// Package user exposes read-only owner profile endpoints. Accounts are managed
// elsewhere; the catalog only shows the public projection.
package user

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/middleware"
	"github.com/mediahub/catalog/internal/response"
)

// ProfileReader loads owner projections.
type ProfileReader interface {
	GetOwnerProfile(ctx context.Context, ownerID string) (*catalog.OwnerProjection, error)
}

// Handler holds HTTP handlers for user-related endpoints.
type Handler struct {
	profiles ProfileReader
}

// NewHandler creates a new user Handler.
func NewHandler(profiles ProfileReader) *Handler {
	return &Handler{profiles: profiles}
}

// Register mounts the user routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me", h.GetMe)
	r.Get("/{userId}", h.GetByID)
}

// GetMe godoc
//
//	@Summary		Get current user
//	@Description	Returns the public profile of the currently authenticated user.
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	response.Envelope{data=catalog.OwnerProjection}
//	@Failure		401	{object}	response.ErrorEnvelope
//	@Failure		404	{object}	response.ErrorEnvelope
//	@Failure		500	{object}	response.ErrorEnvelope
//	@Router			/users/me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r, "unauthorized")
		return
	}
	h.profile(w, r, p.ID)
}

// GetByID godoc
//
//	@Summary		Get a user profile
//	@Tags			users
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string	true	"Owner id"
//	@Success		200		{object}	response.Envelope{data=catalog.OwnerProjection}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		404		{object}	response.ErrorEnvelope
//	@Router			/users/{userId} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.PrincipalFrom(r.Context()); !ok {
		response.Unauthorized(w, r, "unauthorized")
		return
	}
	h.profile(w, r, chi.URLParam(r, "userId"))
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request, ownerID string) {
	u, err := h.profiles.GetOwnerProfile(r.Context(), ownerID)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, u, "User fetched successfully")
}
