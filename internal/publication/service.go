// Package publication implements the write side of the catalog: creating, updating and
// deleting tweets and videos on behalf of an explicit principal.
package publication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/media"
	"github.com/mediahub/catalog/internal/metrics"
	"github.com/mediahub/catalog/internal/storage"
	"github.com/mediahub/catalog/internal/store"
)

// Uploader stores staged files and manages their provisional marker.
type Uploader interface {
	Upload(ctx context.Context, localPath string, kind storage.AssetKind) (*storage.Asset, error)
	Confirm(ctx context.Context, urls ...string) error
	Release(ctx context.Context, urls ...string) error
}

// Store is the part of the document store the service writes to.
type Store interface {
	store.PostStore
	store.ContentStore
}

// NewContent is the input of CreateContent. The paths point at staged local files.
type NewContent struct {
	OwnerID       string
	Title         string
	Description   string
	VideoPath     string
	ThumbnailPath string
}

// Service publishes tweets and videos.
type Service struct {
	store    Store
	uploader Uploader
	metrics  *metrics.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService creates a new publication service.
func NewService(st Store, uploader Uploader, m *metrics.Metrics, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		uploader: uploader,
		metrics:  m,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// CreatePost stores a new tweet owned by ownerID.
func (s *Service) CreatePost(ctx context.Context, ownerID, content string) (post *catalog.Post, err error) {
	const op = "publication.CreatePost"
	defer s.observe("create_post", &err)

	if !catalog.ValidID(ownerID) {
		return nil, catalog.Validation(op, "invalid owner id")
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, catalog.Validation(op, "content is required")
	}

	now := s.now()
	p := &catalog.Post{ID: catalog.NewID(), Content: content, Owner: ownerID, CreatedAt: now, UpdatedAt: now}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, catalog.Internal(op, "failed to create tweet", err)
	}
	created, err := s.store.FindPost(ctx, p.ID)
	if err != nil {
		return nil, catalog.Internal(op, "tweet missing after create", err)
	}
	return created, nil
}

// UpdatePost replaces the content of a tweet owned by ownerID.
func (s *Service) UpdatePost(ctx context.Context, ownerID, postID, content string) (post *catalog.Post, err error) {
	const op = "publication.UpdatePost"
	defer s.observe("update_post", &err)

	if err := validIDs(op, ownerID, postID, "tweet"); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, catalog.Validation(op, "content is required")
	}

	updated, err := s.store.UpdatePostContent(ctx, postID, ownerID, content)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, s.postMiss(ctx, op, postID, ownerID)
	}
	if err != nil {
		return nil, catalog.Internal(op, "failed to update tweet", err)
	}
	return updated, nil
}

// DeletePost removes a tweet owned by ownerID. Deleting a missing tweet returns nil, nil.
func (s *Service) DeletePost(ctx context.Context, ownerID, postID string) (post *catalog.Post, err error) {
	const op = "publication.DeletePost"
	defer s.observe("delete_post", &err)

	if err := validIDs(op, ownerID, postID, "tweet"); err != nil {
		return nil, err
	}

	deleted, err := s.store.DeletePost(ctx, postID, ownerID)
	if err != nil {
		return nil, catalog.Internal(op, "failed to delete tweet", err)
	}
	if deleted != nil {
		return deleted, nil
	}
	if err := s.postMiss(ctx, op, postID, ownerID); !catalog.IsKind(err, catalog.KindNotFound) {
		return nil, err
	}
	return nil, nil
}

func (s *Service) postMiss(ctx context.Context, op, postID, ownerID string) error {
	p, err := s.store.FindPost(ctx, postID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return catalog.NotFound(op, "tweet not found")
	case err != nil:
		return catalog.Internal(op, "failed to load tweet", err)
	case p.Owner != ownerID:
		return catalog.Forbidden(op, "tweet belongs to another user")
	}
	// Owned but gone between the scoped write and this read.
	return catalog.NotFound(op, "tweet not found")
}

// CreateContent uploads the staged video and thumbnail concurrently and records the
// video document once both are stored. No document is written when either upload fails.
func (s *Service) CreateContent(ctx context.Context, in NewContent) (content *catalog.Content, err error) {
	const op = "publication.CreateContent"
	defer s.observe("create_content", &err)

	if !catalog.ValidID(in.OwnerID) {
		return nil, catalog.Validation(op, "invalid owner id")
	}
	title := strings.TrimSpace(in.Title)
	description := strings.TrimSpace(in.Description)
	var details []string
	if title == "" {
		details = append(details, "title is required")
	}
	if description == "" {
		details = append(details, "description is required")
	}
	if in.VideoPath == "" {
		details = append(details, "videoFile is required")
	}
	if in.ThumbnailPath == "" {
		details = append(details, "thumbnail is required")
	}
	if len(details) > 0 {
		return nil, catalog.Validation(op, "all fields are required", details...)
	}

	var video, thumbnail *storage.Asset
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := s.upload(gctx, in.VideoPath, storage.AssetVideo)
		video = a
		return err
	})
	g.Go(func() error {
		a, err := s.upload(gctx, in.ThumbnailPath, storage.AssetThumbnail)
		thumbnail = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, uploadFailure(op, err)
	}

	now := s.now()
	c := &catalog.Content{
		ID:            catalog.NewID(),
		VideoAssetURL: video.URL,
		ThumbnailURL:  thumbnail.URL,
		Title:         title,
		Description:   description,
		Duration:      video.Duration,
		IsPublished:   true,
		Owner:         in.OwnerID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.store.CreateContent(ctx, c); err != nil {
		return nil, catalog.Internal(op, "failed to save video", err)
	}
	created, err := s.store.FindContent(ctx, c.ID)
	if err != nil {
		return nil, catalog.Internal(op, "video missing after create", err)
	}

	if err := s.uploader.Confirm(ctx, created.AssetURLs()...); err != nil {
		s.logger.Warn("publication: confirm assets", "video", created.ID, "error", err)
	}
	s.logger.Info("publication: video created", "video", created.ID, "owner", created.Owner)
	return created, nil
}

// UpdateContentMetadata sets title and description of a video owned by ownerID.
func (s *Service) UpdateContentMetadata(ctx context.Context, ownerID, contentID, title, description string) (content *catalog.Content, err error) {
	const op = "publication.UpdateContentMetadata"
	defer s.observe("update_content", &err)

	if err := validIDs(op, ownerID, contentID, "video"); err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	description = strings.TrimSpace(description)
	if title == "" || description == "" {
		return nil, catalog.Validation(op, "title and description are required")
	}

	updated, err := s.store.UpdateContentMetadata(ctx, contentID, ownerID, title, description)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, s.contentMiss(ctx, op, contentID, ownerID)
	}
	if err != nil {
		return nil, catalog.Internal(op, "failed to update video", err)
	}
	return updated, nil
}

// UpdateThumbnail uploads a new thumbnail and points the video at it. The previous
// thumbnail object is released to the sweeper.
func (s *Service) UpdateThumbnail(ctx context.Context, ownerID, contentID, thumbnailPath string) (content *catalog.Content, err error) {
	const op = "publication.UpdateThumbnail"
	defer s.observe("update_thumbnail", &err)

	if err := validIDs(op, ownerID, contentID, "video"); err != nil {
		return nil, err
	}
	if thumbnailPath == "" {
		return nil, catalog.Validation(op, "thumbnail is required")
	}

	current, err := s.store.FindContent(ctx, contentID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return nil, catalog.NotFound(op, "video not found")
	case err != nil:
		return nil, catalog.Internal(op, "failed to load video", err)
	case current.Owner != ownerID:
		return nil, catalog.Forbidden(op, "video belongs to another user")
	}

	asset, err := s.upload(ctx, thumbnailPath, storage.AssetThumbnail)
	if err != nil {
		return nil, uploadFailure(op, err)
	}

	before, after, err := s.store.ReplaceThumbnail(ctx, contentID, ownerID, asset.URL)
	if err != nil {
		// The new object stays provisional and is swept.
		if errors.Is(err, catalog.ErrNotFound) {
			return nil, s.contentMiss(ctx, op, contentID, ownerID)
		}
		return nil, catalog.Internal(op, "failed to update thumbnail", err)
	}

	if err := s.uploader.Confirm(ctx, asset.URL); err != nil {
		s.logger.Warn("publication: confirm thumbnail", "video", contentID, "error", err)
	}
	if before.ThumbnailURL != "" && before.ThumbnailURL != asset.URL {
		if err := s.uploader.Release(ctx, before.ThumbnailURL); err != nil {
			s.logger.Warn("publication: release old thumbnail", "video", contentID, "error", err)
		}
	}
	return after, nil
}

// DeleteContent removes a video owned by ownerID and releases its assets. Deleting a
// missing video returns nil, nil. Likes pointing at the video are left in place.
func (s *Service) DeleteContent(ctx context.Context, ownerID, contentID string) (content *catalog.Content, err error) {
	const op = "publication.DeleteContent"
	defer s.observe("delete_content", &err)

	if err := validIDs(op, ownerID, contentID, "video"); err != nil {
		return nil, err
	}

	deleted, err := s.store.DeleteContent(ctx, contentID, ownerID)
	if err != nil {
		return nil, catalog.Internal(op, "failed to delete video", err)
	}
	if deleted == nil {
		if err := s.contentMiss(ctx, op, contentID, ownerID); !catalog.IsKind(err, catalog.KindNotFound) {
			return nil, err
		}
		return nil, nil
	}

	if err := s.uploader.Release(ctx, deleted.AssetURLs()...); err != nil {
		s.logger.Warn("publication: release video assets", "video", contentID, "error", err)
	}
	return deleted, nil
}

// TogglePublishStatus flips isPublished of a video owned by ownerID.
func (s *Service) TogglePublishStatus(ctx context.Context, ownerID, contentID string) (content *catalog.Content, err error) {
	const op = "publication.TogglePublishStatus"
	defer s.observe("toggle_publish", &err)

	if err := validIDs(op, ownerID, contentID, "video"); err != nil {
		return nil, err
	}

	toggled, err := s.store.TogglePublished(ctx, contentID, ownerID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, s.contentMiss(ctx, op, contentID, ownerID)
	}
	if err != nil {
		return nil, catalog.Internal(op, "failed to toggle publish status", err)
	}
	return toggled, nil
}

func (s *Service) contentMiss(ctx context.Context, op, contentID, ownerID string) error {
	c, err := s.store.FindContent(ctx, contentID)
	switch {
	case errors.Is(err, catalog.ErrNotFound):
		return catalog.NotFound(op, "video not found")
	case err != nil:
		return catalog.Internal(op, "failed to load video", err)
	case c.Owner != ownerID:
		return catalog.Forbidden(op, "video belongs to another user")
	}
	return catalog.NotFound(op, "video not found")
}

func (s *Service) upload(ctx context.Context, path string, kind storage.AssetKind) (*storage.Asset, error) {
	a, err := s.uploader.Upload(ctx, path, kind)
	if err != nil {
		return nil, fmt.Errorf("upload %s: %w", kind, err)
	}
	if a == nil || a.URL == "" {
		return nil, fmt.Errorf("upload %s: storage returned no url", kind)
	}
	return a, nil
}

func uploadFailure(op string, err error) error {
	if errors.Is(err, storage.ErrUnsupportedMedia) || errors.Is(err, media.ErrNoVideoStreams) {
		return catalog.Validation(op, "unsupported media file", err.Error())
	}
	return catalog.Upload(op, "failed to upload media", err)
}

func validIDs(op, ownerID, docID, noun string) error {
	if !catalog.ValidID(ownerID) {
		return catalog.Validation(op, "invalid owner id")
	}
	if !catalog.ValidID(docID) {
		return catalog.Validation(op, "invalid "+noun+" id")
	}
	return nil
}

func (s *Service) observe(operation string, errp *error) {
	err := *errp
	if err == nil {
		s.metrics.IncPublication(operation, "ok")
		return
	}
	kind := catalog.KindOf(err)
	s.metrics.IncPublication(operation, kind.String())
	if kind == catalog.KindInternal || kind == catalog.KindUpload {
		s.logger.Error("publication: operation failed", "operation", operation, "error", err)
	}
}
