// Package aggregation implements the read side of the catalog: owner joins, the
// projected video view and the filtered video listing.
package aggregation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/store"
)

// Store is the part of the document store the service reads from.
type Store interface {
	PostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error)
	ContentByOwner(ctx context.Context, ownerID string) ([]catalog.Content, error)
	ContentView(ctx context.Context, id string) (*catalog.ContentView, error)
	ListContent(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error)
	store.OwnerStore
}

// Service answers catalog queries.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a new aggregation service.
func NewService(st Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: st, logger: logger}
}

// ListPostsByOwner returns the tweets of ownerID. An owner without tweets, or an
// unknown owner, yields an empty slice.
func (s *Service) ListPostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error) {
	const op = "aggregation.ListPostsByOwner"
	if !catalog.ValidID(ownerID) {
		return nil, catalog.Validation(op, "invalid owner id")
	}
	posts, err := s.store.PostsByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(op, "failed to load tweets", err)
	}
	if posts == nil {
		posts = []catalog.Post{}
	}
	return posts, nil
}

// ListContentByOwner returns the videos of ownerID with the same empty-result rules
// as ListPostsByOwner.
func (s *Service) ListContentByOwner(ctx context.Context, ownerID string) ([]catalog.Content, error) {
	const op = "aggregation.ListContentByOwner"
	if !catalog.ValidID(ownerID) {
		return nil, catalog.Validation(op, "invalid owner id")
	}
	videos, err := s.store.ContentByOwner(ctx, ownerID)
	if err != nil {
		return nil, s.internal(op, "failed to load videos", err)
	}
	if videos == nil {
		videos = []catalog.Content{}
	}
	return videos, nil
}

// GetContentWithOwnerProjection returns a video with its owner's public profile
// inlined and its like count.
func (s *Service) GetContentWithOwnerProjection(ctx context.Context, contentID string) (*catalog.ContentView, error) {
	const op = "aggregation.GetContentWithOwnerProjection"
	if !catalog.ValidID(contentID) {
		return nil, catalog.Validation(op, "invalid video id")
	}
	view, err := s.store.ContentView(ctx, contentID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, catalog.NotFound(op, "video not found")
	}
	if err != nil {
		return nil, s.internal(op, "failed to load video", err)
	}
	return view, nil
}

// ListVideos returns one page of videos. When f.OwnerID is set the owner must exist.
func (s *Service) ListVideos(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error) {
	const op = "aggregation.ListVideos"
	f, err := f.Normalize()
	if err != nil {
		return nil, err
	}
	if f.OwnerID != "" {
		exists, err := s.store.OwnerExists(ctx, f.OwnerID)
		if err != nil {
			return nil, s.internal(op, "failed to load owner", err)
		}
		if !exists {
			return nil, catalog.NotFound(op, "user not found")
		}
	}

	videos, err := s.store.ListContent(ctx, f)
	if err != nil {
		return nil, s.internal(op, "failed to list videos", err)
	}
	if videos == nil {
		videos = []catalog.Content{}
	}
	return videos, nil
}

// GetOwnerProfile returns the public projection of an owner.
func (s *Service) GetOwnerProfile(ctx context.Context, ownerID string) (*catalog.OwnerProjection, error) {
	const op = "aggregation.GetOwnerProfile"
	if !catalog.ValidID(ownerID) {
		return nil, catalog.Validation(op, "invalid owner id")
	}
	profile, err := s.store.OwnerProfile(ctx, ownerID)
	if errors.Is(err, catalog.ErrNotFound) {
		return nil, catalog.NotFound(op, "user not found")
	}
	if err != nil {
		return nil, s.internal(op, "failed to load user", err)
	}
	return profile, nil
}

func (s *Service) internal(op, message string, err error) error {
	s.logger.Error("aggregation: query failed", "op", op, "error", err)
	return catalog.Internal(op, message, err)
}
