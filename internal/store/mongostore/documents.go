package mongostore

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mediahub/catalog/internal/catalog"
)

const (
	videosCollection = "videos"
	tweetsCollection = "tweets"
	usersCollection  = "users"
	likesCollection  = "likes"
)

type videoDoc struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	VideoFile   string             `bson:"videoFile"`
	Thumbnail   string             `bson:"thumbnail"`
	Title       string             `bson:"title"`
	Description string             `bson:"description"`
	Duration    float64            `bson:"duration"`
	IsPublished bool               `bson:"isPublished"`
	Owner       primitive.ObjectID `bson:"owner"`
	CreatedAt   time.Time          `bson:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt"`
}

func (d *videoDoc) toContent() *catalog.Content {
	return &catalog.Content{
		ID:            d.ID.Hex(),
		VideoAssetURL: d.VideoFile,
		ThumbnailURL:  d.Thumbnail,
		Title:         d.Title,
		Description:   d.Description,
		Duration:      d.Duration,
		IsPublished:   d.IsPublished,
		Owner:         d.Owner.Hex(),
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

type tweetDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Content   string             `bson:"content"`
	Owner     primitive.ObjectID `bson:"owner"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

func (d *tweetDoc) toPost() *catalog.Post {
	return &catalog.Post{
		ID:        d.ID.Hex(),
		Content:   d.Content,
		Owner:     d.Owner.Hex(),
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// ownerProjectionDoc is what the owner lookup projects; other user fields never leave the database.
type ownerProjectionDoc struct {
	FullName string `bson:"fullName"`
	Username string `bson:"username"`
	Avatar   string `bson:"avatar"`
}

func (d *ownerProjectionDoc) projection() catalog.OwnerProjection {
	return catalog.OwnerProjection{FullName: d.FullName, Username: d.Username, AvatarURL: d.Avatar}
}

type videoViewDoc struct {
	ID          primitive.ObjectID  `bson:"_id"`
	VideoFile   string              `bson:"videoFile"`
	Thumbnail   string              `bson:"thumbnail"`
	Title       string              `bson:"title"`
	Description string              `bson:"description"`
	Duration    float64             `bson:"duration"`
	IsPublished bool                `bson:"isPublished"`
	Owner       *ownerProjectionDoc `bson:"owner"`
	LikesCount  int64               `bson:"likesCount"`
	CreatedAt   time.Time           `bson:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt"`
}

func (d *videoViewDoc) toView() *catalog.ContentView {
	v := &catalog.ContentView{
		ID:            d.ID.Hex(),
		VideoAssetURL: d.VideoFile,
		ThumbnailURL:  d.Thumbnail,
		Title:         d.Title,
		Description:   d.Description,
		Duration:      d.Duration,
		IsPublished:   d.IsPublished,
		LikesCount:    d.LikesCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
	if d.Owner != nil {
		v.Owner = d.Owner.projection()
	}
	return v
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, catalog.ErrNotFound
	}
	return oid, nil
}

// now is truncated to the millisecond precision of BSON dates.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
