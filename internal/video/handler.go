// Package video exposes the video endpoints.
package video

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/middleware"
	"github.com/mediahub/catalog/internal/publication"
	"github.com/mediahub/catalog/internal/response"
	"github.com/mediahub/catalog/internal/upload"
)

// Publisher is the write side used by the handler.
type Publisher interface {
	CreateContent(ctx context.Context, in publication.NewContent) (*catalog.Content, error)
	UpdateContentMetadata(ctx context.Context, ownerID, contentID, title, description string) (*catalog.Content, error)
	UpdateThumbnail(ctx context.Context, ownerID, contentID, thumbnailPath string) (*catalog.Content, error)
	DeleteContent(ctx context.Context, ownerID, contentID string) (*catalog.Content, error)
	TogglePublishStatus(ctx context.Context, ownerID, contentID string) (*catalog.Content, error)
}

// Reader is the read side used by the handler.
type Reader interface {
	ListVideos(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error)
	GetContentWithOwnerProjection(ctx context.Context, contentID string) (*catalog.ContentView, error)
}

// Handler holds HTTP handlers for video endpoints.
type Handler struct {
	pub    Publisher
	reader Reader
	stager *upload.Stager
	logger *slog.Logger
}

// NewHandler creates a new video Handler.
func NewHandler(pub Publisher, reader Reader, stager *upload.Stager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{pub: pub, reader: reader, stager: stager, logger: logger}
}

// Register mounts the video routes on r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Publish)
	r.Get("/{videoId}", h.Get)
	r.Patch("/{videoId}", h.UpdateDetails)
	r.Delete("/{videoId}", h.Delete)
	r.Patch("/{videoId}/thumbnail", h.UpdateThumbnail)
	r.Patch("/{videoId}/toggle-publish", h.TogglePublish)
}

// UpdateDetailsRequest is the body of PATCH /videos/{videoId}.
type UpdateDetailsRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List godoc
//
//	@Summary		List videos
//	@Description	Lists published videos, optionally scoped to one owner. Owners also see their unpublished videos.
//	@Tags			videos
//	@Produce		json
//	@Security		BearerAuth
//	@Param			page		query		int		false	"Page number (default 1)"
//	@Param			limit		query		int		false	"Page size (1-100, default 10)"
//	@Param			query		query		string	false	"Case-insensitive title/description filter"
//	@Param			sortBy		query		string	false	"createdAt, updatedAt, title or duration"
//	@Param			sortType	query		string	false	"asc or desc"
//	@Param			userId		query		string	false	"Owner id"
//	@Success		200			{object}	response.Envelope{data=[]catalog.Content}
//	@Failure		400			{object}	response.ErrorEnvelope
//	@Failure		401			{object}	response.ErrorEnvelope
//	@Failure		404			{object}	response.ErrorEnvelope
//	@Router			/videos [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	viewer, ok := principalID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	page, err := intParam(q.Get("page"))
	if err != nil {
		response.BadRequest(w, r, "page must be a number")
		return
	}
	limit, err := intParam(q.Get("limit"))
	if err != nil {
		response.BadRequest(w, r, "limit must be a number")
		return
	}

	videos, err := h.reader.ListVideos(r.Context(), catalog.ListFilter{
		Page:     page,
		Limit:    limit,
		Query:    q.Get("query"),
		SortBy:   q.Get("sortBy"),
		SortType: q.Get("sortType"),
		OwnerID:  q.Get("userId"),
		ViewerID: viewer,
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, videos, "Videos fetched successfully")
}

// Publish godoc
//
//	@Summary		Publish a video
//	@Description	Uploads a video file and its thumbnail and creates the video document.
//	@Tags			videos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			title		formData	string	true	"Title"
//	@Param			description	formData	string	true	"Description"
//	@Param			videoFile	formData	file	true	"Video file"
//	@Param			thumbnail	formData	file	true	"Thumbnail image"
//	@Success		201			{object}	response.Envelope{data=catalog.Content}
//	@Failure		400			{object}	response.ErrorEnvelope
//	@Failure		401			{object}	response.ErrorEnvelope
//	@Failure		413			{object}	response.ErrorEnvelope
//	@Failure		500			{object}	response.ErrorEnvelope
//	@Router			/videos [post]
func (h *Handler) Publish(w http.ResponseWriter, r *http.Request) {
	owner, ok := principalID(w, r)
	if !ok {
		return
	}

	form, ok := h.stage(w, r, "videoFile", "thumbnail")
	if !ok {
		return
	}
	defer form.Cleanup()

	c, err := h.pub.CreateContent(r.Context(), publication.NewContent{
		OwnerID:       owner,
		Title:         form.Value("title"),
		Description:   form.Value("description"),
		VideoPath:     form.Path("videoFile"),
		ThumbnailPath: form.Path("thumbnail"),
	})
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.Created(w, r, c, "Video uploaded successfully")
}

// Get godoc
//
//	@Summary		Get a video
//	@Description	Returns a video with its owner's public profile and like count.
//	@Tags			videos
//	@Produce		json
//	@Security		BearerAuth
//	@Param			videoId	path		string	true	"Video id"
//	@Success		200		{object}	response.Envelope{data=catalog.ContentView}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		404		{object}	response.ErrorEnvelope
//	@Router			/videos/{videoId} [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	if _, ok := principalID(w, r); !ok {
		return
	}
	view, err := h.reader.GetContentWithOwnerProjection(r.Context(), chi.URLParam(r, "videoId"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, view, "Video fetched successfully")
}

// UpdateDetails godoc
//
//	@Summary		Update video details
//	@Tags			videos
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			videoId	path		string					true	"Video id"
//	@Param			body	body		UpdateDetailsRequest	true	"New title and description"
//	@Success		200		{object}	response.Envelope{data=catalog.Content}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		403		{object}	response.ErrorEnvelope
//	@Failure		404		{object}	response.ErrorEnvelope
//	@Router			/videos/{videoId} [patch]
func (h *Handler) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	owner, ok := principalID(w, r)
	if !ok {
		return
	}
	var req UpdateDetailsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, r, "invalid request body")
		return
	}

	c, err := h.pub.UpdateContentMetadata(r.Context(), owner, chi.URLParam(r, "videoId"), req.Title, req.Description)
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, c, "Video details updated successfully")
}

// UpdateThumbnail godoc
//
//	@Summary		Replace a video thumbnail
//	@Tags			videos
//	@Accept			multipart/form-data
//	@Produce		json
//	@Security		BearerAuth
//	@Param			videoId		path		string	true	"Video id"
//	@Param			thumbnail	formData	file	true	"Thumbnail image"
//	@Success		200			{object}	response.Envelope{data=catalog.Content}
//	@Failure		400			{object}	response.ErrorEnvelope
//	@Failure		401			{object}	response.ErrorEnvelope
//	@Failure		403			{object}	response.ErrorEnvelope
//	@Failure		404			{object}	response.ErrorEnvelope
//	@Failure		500			{object}	response.ErrorEnvelope
//	@Router			/videos/{videoId}/thumbnail [patch]
func (h *Handler) UpdateThumbnail(w http.ResponseWriter, r *http.Request) {
	owner, ok := principalID(w, r)
	if !ok {
		return
	}
	form, ok := h.stage(w, r, "thumbnail")
	if !ok {
		return
	}
	defer form.Cleanup()

	c, err := h.pub.UpdateThumbnail(r.Context(), owner, chi.URLParam(r, "videoId"), form.Path("thumbnail"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, c, "Thumbnail updated successfully")
}

// Delete godoc
//
//	@Summary		Delete a video
//	@Description	Deletes a video. Deleting a missing video succeeds with null data.
//	@Tags			videos
//	@Produce		json
//	@Security		BearerAuth
//	@Param			videoId	path		string	true	"Video id"
//	@Success		200		{object}	response.Envelope{data=catalog.Content}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		403		{object}	response.ErrorEnvelope
//	@Router			/videos/{videoId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := principalID(w, r)
	if !ok {
		return
	}
	c, err := h.pub.DeleteContent(r.Context(), owner, chi.URLParam(r, "videoId"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	if c == nil {
		response.OK(w, r, nil, "Video already deleted")
		return
	}
	response.OK(w, r, c, "Video deleted successfully")
}

// TogglePublish godoc
//
//	@Summary		Toggle publish status
//	@Tags			videos
//	@Produce		json
//	@Security		BearerAuth
//	@Param			videoId	path		string	true	"Video id"
//	@Success		200		{object}	response.Envelope{data=catalog.Content}
//	@Failure		400		{object}	response.ErrorEnvelope
//	@Failure		401		{object}	response.ErrorEnvelope
//	@Failure		403		{object}	response.ErrorEnvelope
//	@Failure		404		{object}	response.ErrorEnvelope
//	@Router			/videos/{videoId}/toggle-publish [patch]
func (h *Handler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	owner, ok := principalID(w, r)
	if !ok {
		return
	}
	c, err := h.pub.TogglePublishStatus(r.Context(), owner, chi.URLParam(r, "videoId"))
	if err != nil {
		response.Err(w, r, err)
		return
	}
	response.OK(w, r, c, "Publish status toggled successfully")
}

func (h *Handler) stage(w http.ResponseWriter, r *http.Request, fields ...string) (*upload.Form, bool) {
	form, err := h.stager.Stage(w, r, fields...)
	switch {
	case err == nil:
		return form, true
	case errors.Is(err, upload.ErrTooLarge):
		response.Error(w, r, http.StatusRequestEntityTooLarge, "upload too large")
	case errors.Is(err, upload.ErrNotMultipart):
		response.BadRequest(w, r, "expected multipart/form-data")
	default:
		h.logger.Warn("video: staging upload failed", "error", err)
		response.BadRequest(w, r, "could not read upload")
	}
	return nil, false
}

func principalID(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := middleware.PrincipalFrom(r.Context())
	if !ok {
		response.Unauthorized(w, r, "unauthorized")
		return "", false
	}
	return p.ID, true
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}
