// Package store defines the document store used by the catalog services.
//
// Implementations live in subpackages: mongostore (MongoDB), pgstore (PostgreSQL)
// and memstore (in-process, for tests and local development). Every mutation that
// takes an ownerID is scoped atomically to documents of that owner; a scoped miss is
// reported as catalog.ErrNotFound for updates and as a nil document for deletes.
package store

import (
	"context"

	"github.com/mediahub/catalog/internal/catalog"
)

// PostStore persists tweets.
type PostStore interface {
	CreatePost(ctx context.Context, p *catalog.Post) error
	FindPost(ctx context.Context, id string) (*catalog.Post, error)
	UpdatePostContent(ctx context.Context, id, ownerID, content string) (*catalog.Post, error)
	DeletePost(ctx context.Context, id, ownerID string) (*catalog.Post, error)
	// PostsByOwner joins an owner to its posts. An unknown owner yields no posts.
	PostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error)
}

// ContentStore persists videos.
type ContentStore interface {
	CreateContent(ctx context.Context, c *catalog.Content) error
	FindContent(ctx context.Context, id string) (*catalog.Content, error)
	UpdateContentMetadata(ctx context.Context, id, ownerID, title, description string) (*catalog.Content, error)
	// ReplaceThumbnail sets the thumbnail URL and returns the document before and after the change.
	ReplaceThumbnail(ctx context.Context, id, ownerID, url string) (before, after *catalog.Content, err error)
	DeleteContent(ctx context.Context, id, ownerID string) (*catalog.Content, error)
	// TogglePublished negates isPublished in a single atomic update.
	TogglePublished(ctx context.Context, id, ownerID string) (*catalog.Content, error)
	// ContentByOwner joins an owner to its videos. An unknown owner yields no videos.
	ContentByOwner(ctx context.Context, ownerID string) ([]catalog.Content, error)
	// ContentView joins a video with the first matching owner's projection and its like count.
	ContentView(ctx context.Context, id string) (*catalog.ContentView, error)
	// ListContent returns the window of videos selected by a normalized filter.
	ListContent(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error)
	// ReferencedAssets reports which of urls are referenced by a video document.
	ReferencedAssets(ctx context.Context, urls []string) (map[string]bool, error)
}

// OwnerStore reads owner profiles.
type OwnerStore interface {
	OwnerExists(ctx context.Context, id string) (bool, error)
	// OwnerProfile returns catalog.ErrNotFound for an unknown id.
	OwnerProfile(ctx context.Context, id string) (*catalog.OwnerProjection, error)
}

// Store is the full document store.
type Store interface {
	PostStore
	ContentStore
	OwnerStore
	Close(ctx context.Context) error
}
