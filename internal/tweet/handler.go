// Package tweet exposes the tweet endpoints.
package tweet

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/middleware"
	"github.com/mediahub/catalog/internal/response"
)

// Publisher is the write side used by the handler.
type Publisher interface {
	CreatePost(ctx context.Context, ownerID, content string) (*catalog.Post, error)
	UpdatePost(ctx context.Context, ownerID, postID, content string) (*catalog.Post, error)
	DeletePost(ctx context.Context, ownerID, postID string) (*catalog.Post, error)
}

// Reader is the read side used by the handler.
type Reader interface {
	ListPostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error)
}

// Handler holds HTTP handlers for tweet endpoints.
type Handler struct {
	pub    Publisher
	reader Reader
}

// NewHandler creates a new tweet Handler.
func NewHandler(pub Publisher, reader Reader) *Handler {
	return &Handler{pub: pub, reader: reader}
}

// Register mounts the tweet routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.Create)
	r.Get("/user/{userId}", h.ListByUser)
	r.Patch("/{tweetId}", h.Update)
	r.Delete("/{tweetId}", h.Delete)
}

// ContentRequest is the body of tweet create and update.
type ContentRequest struct {
	Content string `json:"content"`
}

// Create godoc
//
//	@Summary		Create a tweet
//	@Tags			tweets
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			body	body		ContentRequest	true	"Tweet content"
//	@Success		201		{object}	response.Envelope{data=catalog.Post}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		500		{object}	response.ErrorEnvelope
//	@Router			/tweets [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r, "unauthorized")
		return
	}
	var req ContentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	post, err := h.pub.CreatePost(r.Context(), p.ID, req.Content)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Created(w, r, post, "Tweet created successfully")
}

// ListByUser godoc
//
//	@Summary		List a user's tweets
//	@Tags			tweets
//	@Produce		json
//	@Security		BearerAuth
//	@Param			userId	path		string	true	"Owner id"
//	@Success		200		{object}	response.Envelope{data=[]catalog.Post}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Router			/tweets/user/{userId} [get]
func (h *Handler) ListByUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := middleware.PrincipalFrom(r.Context()); !ok {
		response.Unauthorized(w, r, "unauthorized")
		return
	}
	posts, err := h.reader.ListPostsByOwner(r.Context(), chi.URLParam(r, "userId"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, posts, "Tweets fetched successfully")
}

// Update godoc
//
//	@Summary		Update a tweet
//	@Tags			tweets
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			tweetId	path		string			true	"Tweet id"
//	@Param			body	body		ContentRequest	true	"New content"
//	@Success		200		{object}	response.Envelope{data=catalog.Post}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		403		{object}	response.ErrorEnvelope
//	@Failure		404		{object}	response.ErrorEnvelope
//	@Router			/tweets/{tweetId} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r, "unauthorized")
		return
	}
	var req ContentRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	post, err := h.pub.UpdatePost(r.Context(), p.ID, chi.URLParam(r, "tweetId"), req.Content)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, post, "Tweet updated successfully")
}

// Delete godoc
//
//	@Summary		Delete a tweet
//	@Description	Deletes a tweet. Deleting a missing tweet succeeds with null data.
//	@Tags			tweets
//	@Produce		json
//	@Security		BearerAuth
//	@Param			tweetId	path		string	true	"Tweet id"
//	@Success		200		{object}	response.Envelope{data=catalog.Post}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		403		{object}	response.ErrorEnvelope
//	@Router			/tweets/{tweetId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r, "unauthorized")
		return
	}
	post, err := h.pub.DeletePost(r.Context(), p.ID, chi.URLParam(r, "tweetId"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if post == nil {
		response.OK(w, r, nil, "Tweet already deleted")
		return
	}
	response.OK(w, r, post, "Tweet deleted successfully")
}
