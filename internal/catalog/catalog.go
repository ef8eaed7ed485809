// Package catalog defines the documents published and aggregated by the media catalog:
// videos (Content), tweets (Post), their owners and the likes that point at them.
package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Content is a published video.
type Content struct {
	ID            string    `json:"id"`
	VideoAssetURL string    `json:"videoAssetUrl"`
	ThumbnailURL  string    `json:"thumbnailUrl"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Duration      float64   `json:"duration"`
	IsPublished   bool      `json:"isPublished"`
	Owner         string    `json:"owner"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// AssetURLs returns the object storage URLs referenced by the video.
func (c *Content) AssetURLs() []string {
	return []string{c.VideoAssetURL, c.ThumbnailURL}
}

// Post is a short text post ("tweet").
type Post struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Owner     string    `json:"owner"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Owner is a user profile. It is managed by the accounts service; the catalog only reads it.
type Owner struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	FullName     string    `json:"fullName"`
	AvatarURL    string    `json:"avatarUrl"`
	Email        string    `json:"-"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Projection returns the public subset of the profile that is inlined into content views.
func (o *Owner) Projection() OwnerProjection {
	return OwnerProjection{FullName: o.FullName, Username: o.Username, AvatarURL: o.AvatarURL}
}

// OwnerProjection is the only part of an Owner that leaves the service.
type OwnerProjection struct {
	FullName  string `json:"fullName"`
	Username  string `json:"username"`
	AvatarURL string `json:"avatarUrl"`
}

// ContentView is a video joined with its owner's projection.
type ContentView struct {
	ID            string          `json:"id"`
	VideoAssetURL string          `json:"videoAssetUrl"`
	ThumbnailURL  string          `json:"thumbnailUrl"`
	Title         string          `json:"title"`
	Description   string          `json:"description"`
	Duration      float64         `json:"duration"`
	IsPublished   bool            `json:"isPublished"`
	Owner         OwnerProjection `json:"owner"`
	LikesCount    int64           `json:"likesCount"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// NewContentView joins c with the owner's projection.
func NewContentView(c *Content, owner OwnerProjection, likes int64) *ContentView {
	return &ContentView{
		ID:            c.ID,
		VideoAssetURL: c.VideoAssetURL,
		ThumbnailURL:  c.ThumbnailURL,
		Title:         c.Title,
		Description:   c.Description,
		Duration:      c.Duration,
		IsPublished:   c.IsPublished,
		Owner:         owner,
		LikesCount:    likes,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

// NewID returns a fresh document identifier.
func NewID() string {
	return primitive.NewObjectID().Hex()
}

// ValidID reports whether id has the shape of a document identifier.
func ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}
