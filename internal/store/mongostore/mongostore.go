// Package mongostore implements store.Store on MongoDB. Owner-scoped reads are
// aggregation pipelines that $lookup across the users, videos, tweets and likes collections.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store is a MongoDB-backed document store.
type Store struct {
	client *mongo.Client
	videos *mongo.Collection
	tweets *mongo.Collection
	users  *mongo.Collection
	likes  *mongo.Collection
}

// Connect dials MongoDB, verifies the connection and ensures indexes exist.
func Connect(ctx context.Context, uri, database string, logger *slog.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	s := New(client, client.Database(database))
	if err := s.EnsureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	logger.Info("connected to mongo", "database", database)
	return s, nil
}

// New wraps an existing client and database.
func New(client *mongo.Client, db *mongo.Database) *Store {
	return &Store{
		client: client,
		videos: db.Collection(videosCollection),
		tweets: db.Collection(tweetsCollection),
		users:  db.Collection(usersCollection),
		likes:  db.Collection(likesCollection),
	}
}

// EnsureIndexes creates the foreign-key indexes used by the lookups.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ownerIndex := mongo.IndexModel{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}}
	if _, err := s.videos.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return fmt.Errorf("create videos owner index: %w", err)
	}
	if _, err := s.tweets.Indexes().CreateOne(ctx, ownerIndex); err != nil {
		return fmt.Errorf("create tweets owner index: %w", err)
	}
	targetIndex := mongo.IndexModel{Keys: bson.D{{Key: "targetKind", Value: 1}, {Key: "targetId", Value: 1}}}
	if _, err := s.likes.Indexes().CreateOne(ctx, targetIndex); err != nil {
		return fmt.Errorf("create likes target index: %w", err)
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// CreatePost inserts a new tweet.
func (s *Store) CreatePost(ctx context.Context, p *catalog.Post) error {
	id, err := objectID(p.ID)
	if err != nil {
		return fmt.Errorf("create tweet: invalid id %q", p.ID)
	}
	owner, err := objectID(p.Owner)
	if err != nil {
		return fmt.Errorf("create tweet: invalid owner %q", p.Owner)
	}
	doc := tweetDoc{ID: id, Content: p.Content, Owner: owner, CreatedAt: p.CreatedAt, UpdatedAt: p.UpdatedAt}
	if _, err := s.tweets.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert tweet: %w", err)
	}
	return nil
}

// FindPost returns the tweet with id or catalog.ErrNotFound.
func (s *Store) FindPost(ctx context.Context, id string) (*catalog.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc tweetDoc
	if err := s.tweets.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound("find tweet", err)
	}
	return doc.toPost(), nil
}

// UpdatePostContent sets the content of a tweet owned by ownerID.
func (s *Store) UpdatePostContent(ctx context.Context, id, ownerID, content string) (*catalog.Post, error) {
	filter, err := scoped(id, ownerID)
	if err != nil {
		return nil, err
	}
	update := bson.M{"$set": bson.M{"content": content, "updatedAt": now()}}
	var doc tweetDoc
	err = s.tweets.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&doc)
	if err != nil {
		return nil, notFound("update tweet", err)
	}
	return doc.toPost(), nil
}

// DeletePost removes a tweet owned by ownerID. A miss returns nil, nil.
func (s *Store) DeletePost(ctx context.Context, id, ownerID string) (*catalog.Post, error) {
	filter, err := scoped(id, ownerID)
	if err != nil {
		return nil, nil
	}
	var doc tweetDoc
	err = s.tweets.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete tweet: %w", err)
	}
	return doc.toPost(), nil
}

// PostsByOwner returns the tweets of ownerID.
func (s *Store) PostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error) {
	oid, err := objectID(ownerID)
	if err != nil {
		return []catalog.Post{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: tweetsCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "owner"},
			{Key: "as", Value: "tweets"},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "tweets", Value: 1}}}},
	}
	var rows []struct {
		Tweets []tweetDoc `bson:"tweets"`
	}
	if err := s.aggregate(ctx, s.users, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("aggregate owner tweets: %w", err)
	}
	out := []catalog.Post{}
	if len(rows) == 0 {
		return out, nil
	}
	for i := range rows[0].Tweets {
		out = append(out, *rows[0].Tweets[i].toPost())
	}
	return out, nil
}

// CreateContent inserts a new video.
func (s *Store) CreateContent(ctx context.Context, c *catalog.Content) error {
	id, err := objectID(c.ID)
	if err != nil {
		return fmt.Errorf("create video: invalid id %q", c.ID)
	}
	owner, err := objectID(c.Owner)
	if err != nil {
		return fmt.Errorf("create video: invalid owner %q", c.Owner)
	}
	doc := videoDoc{
		ID:          id,
		VideoFile:   c.VideoAssetURL,
		Thumbnail:   c.ThumbnailURL,
		Title:       c.Title,
		Description: c.Description,
		Duration:    c.Duration,
		IsPublished: c.IsPublished,
		Owner:       owner,
		CreatedAt:   c.CreatedAt,
		UpdatedAt:   c.UpdatedAt,
	}
	if _, err := s.videos.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// FindContent returns the video with id or catalog.ErrNotFound.
func (s *Store) FindContent(ctx context.Context, id string) (*catalog.Content, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	var doc videoDoc
	if err := s.videos.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return nil, notFound("find video", err)
	}
	return doc.toContent(), nil
}

// UpdateContentMetadata sets title and description of a video owned by ownerID.
func (s *Store) UpdateContentMetadata(ctx context.Context, id, ownerID, title, description string) (*catalog.Content, error) {
	update := bson.M{"$set": bson.M{"title": title, "description": description, "updatedAt": now()}}
	return s.updateVideo(ctx, "update video details", id, ownerID, update)
}

// ReplaceThumbnail points a video owned by ownerID at url and returns it before and after.
func (s *Store) ReplaceThumbnail(ctx context.Context, id, ownerID, url string) (*catalog.Content, *catalog.Content, error) {
	filter, err := scoped(id, ownerID)
	if err != nil {
		return nil, nil, err
	}
	ts := now()
	update := bson.M{"$set": bson.M{"thumbnail": url, "updatedAt": ts}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.Before)
	var doc videoDoc
	if err := s.videos.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, nil, notFound("update thumbnail", err)
	}
	before := doc.toContent()
	after := *before
	after.ThumbnailURL = url
	after.UpdatedAt = ts
	return before, &after, nil
}

// DeleteContent removes a video owned by ownerID. A miss returns nil, nil.
func (s *Store) DeleteContent(ctx context.Context, id, ownerID string) (*catalog.Content, error) {
	filter, err := scoped(id, ownerID)
	if err != nil {
		return nil, nil
	}
	var doc videoDoc
	err = s.videos.FindOneAndDelete(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("delete video: %w", err)
	}
	return doc.toContent(), nil
}

// TogglePublished uses an update pipeline so the negation reads the document's own value.
func (s *Store) TogglePublished(ctx context.Context, id, ownerID string) (*catalog.Content, error) {
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "isPublished", Value: bson.D{{Key: "$not", Value: bson.A{"$isPublished"}}}},
			{Key: "updatedAt", Value: "$$NOW"},
		}}},
	}
	return s.updateVideo(ctx, "toggle publish", id, ownerID, update)
}

func (s *Store) updateVideo(ctx context.Context, op, id, ownerID string, update interface{}) (*catalog.Content, error) {
	filter, err := scoped(id, ownerID)
	if err != nil {
		return nil, err
	}
	var doc videoDoc
	if err := s.videos.FindOneAndUpdate(ctx, filter, update, returnAfter()).Decode(&doc); err != nil {
		return nil, notFound(op, err)
	}
	return doc.toContent(), nil
}

// ContentByOwner returns the videos of ownerID.
func (s *Store) ContentByOwner(ctx context.Context, ownerID string) ([]catalog.Content, error) {
	oid, err := objectID(ownerID)
	if err != nil {
		return []catalog.Content{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: videosCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "owner"},
			{Key: "as", Value: "videos"},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "videos", Value: 1}}}},
	}
	return s.ownerVideos(ctx, pipeline)
}

// ContentView returns a video joined with its owner projection and like count.
func (s *Store) ContentView(ctx context.Context, id string) (*catalog.ContentView, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "owner"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "owner"},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$project", Value: bson.D{
					{Key: "_id", Value: 0},
					{Key: "fullName", Value: 1},
					{Key: "username", Value: 1},
					{Key: "avatar", Value: 1},
				}}},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "owner", Value: bson.D{{Key: "$first", Value: "$owner"}}}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: likesCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "targetId"},
			{Key: "as", Value: "likes"},
			{Key: "pipeline", Value: mongo.Pipeline{
				{{Key: "$match", Value: bson.D{{Key: "targetKind", Value: string(catalog.TargetVideo)}}}},
				{{Key: "$project", Value: bson.D{{Key: "_id", Value: 1}}}},
			}},
		}}},
		{{Key: "$addFields", Value: bson.D{{Key: "likesCount", Value: bson.D{{Key: "$size", Value: "$likes"}}}}}},
		{{Key: "$project", Value: bson.D{{Key: "likes", Value: 0}}}},
	}
	var rows []videoViewDoc
	if err := s.aggregate(ctx, s.videos, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("aggregate video view: %w", err)
	}
	if len(rows) == 0 {
		return nil, catalog.ErrNotFound
	}
	return rows[0].toView(), nil
}

// ListContent returns one page of videos matching f.
func (s *Store) ListContent(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error) {
	window := mongo.Pipeline{
		{{Key: "$match", Value: listMatch(f)}},
		{{Key: "$sort", Value: bson.D{{Key: f.SortBy, Value: direction(f)}, {Key: "_id", Value: 1}}}},
		{{Key: "$skip", Value: int64(f.Skip())}},
		{{Key: "$limit", Value: int64(f.Limit)}},
	}

	if f.OwnerID == "" {
		var docs []videoDoc
		if err := s.aggregate(ctx, s.videos, window, &docs); err != nil {
			return nil, fmt.Errorf("aggregate videos: %w", err)
		}
		out := make([]catalog.Content, 0, len(docs))
		for i := range docs {
			out = append(out, *docs[i].toContent())
		}
		return out, nil
	}

	owner, err := objectID(f.OwnerID)
	if err != nil {
		return []catalog.Content{}, nil
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: owner}}}},
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: videosCollection},
			{Key: "localField", Value: "_id"},
			{Key: "foreignField", Value: "owner"},
			{Key: "as", Value: "videos"},
			{Key: "pipeline", Value: window},
		}}},
		{{Key: "$project", Value: bson.D{{Key: "videos", Value: 1}}}},
	}
	return s.ownerVideos(ctx, pipeline)
}

// ReferencedAssets reports which of urls a video still points at.
func (s *Store) ReferencedAssets(ctx context.Context, urls []string) (map[string]bool, error) {
	refs := make(map[string]bool)
	if len(urls) == 0 {
		return refs, nil
	}
	filter := bson.M{"$or": bson.A{
		bson.M{"videoFile": bson.M{"$in": urls}},
		bson.M{"thumbnail": bson.M{"$in": urls}},
	}}
	opts := options.Find().SetProjection(bson.M{"videoFile": 1, "thumbnail": 1})
	cursor, err := s.videos.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find referenced assets: %w", err)
	}
	var docs []videoDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode referenced assets: %w", err)
	}
	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		want[u] = true
	}
	for _, d := range docs {
		if want[d.VideoFile] {
			refs[d.VideoFile] = true
		}
		if want[d.Thumbnail] {
			refs[d.Thumbnail] = true
		}
	}
	return refs, nil
}

// OwnerExists reports whether a user with id exists.
func (s *Store) OwnerExists(ctx context.Context, id string) (bool, error) {
	oid, err := objectID(id)
	if err != nil {
		return false, nil
	}
	n, err := s.users.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count users: %w", err)
	}
	return n > 0, nil
}

// OwnerProfile returns the public projection of one user.
func (s *Store) OwnerProfile(ctx context.Context, id string) (*catalog.OwnerProjection, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOne().SetProjection(bson.D{
		{Key: "_id", Value: 0},
		{Key: "fullName", Value: 1},
		{Key: "username", Value: 1},
		{Key: "avatar", Value: 1},
	})
	var doc ownerProjectionDoc
	err = s.users.FindOne(ctx, bson.M{"_id": oid}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, catalog.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	p := doc.projection()
	return &p, nil
}

func (s *Store) ownerVideos(ctx context.Context, pipeline mongo.Pipeline) ([]catalog.Content, error) {
	var rows []struct {
		Videos []videoDoc `bson:"videos"`
	}
	if err := s.aggregate(ctx, s.users, pipeline, &rows); err != nil {
		return nil, fmt.Errorf("aggregate owner videos: %w", err)
	}
	out := []catalog.Content{}
	if len(rows) == 0 {
		return out, nil
	}
	for i := range rows[0].Videos {
		out = append(out, *rows[0].Videos[i].toContent())
	}
	return out, nil
}

func (s *Store) aggregate(ctx context.Context, coll *mongo.Collection, pipeline mongo.Pipeline, out interface{}) error {
	cursor, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return err
	}
	return cursor.All(ctx, out)
}

func listMatch(f catalog.ListFilter) bson.D {
	visible := bson.A{bson.D{{Key: "isPublished", Value: true}}}
	if viewer, err := primitive.ObjectIDFromHex(f.ViewerID); err == nil {
		visible = append(visible, bson.D{{Key: "owner", Value: viewer}})
	}
	conds := bson.A{bson.D{{Key: "$or", Value: visible}}}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		conds = append(conds, bson.D{{Key: "$or", Value: bson.A{
			bson.D{{Key: "title", Value: re}},
			bson.D{{Key: "description", Value: re}},
		}}})
	}
	return bson.D{{Key: "$and", Value: conds}}
}

func direction(f catalog.ListFilter) int {
	if f.Descending() {
		return -1
	}
	return 1
}

func scoped(id, ownerID string) (bson.M, error) {
	oid, err := objectID(id)
	if err != nil {
		return nil, err
	}
	owner, err := objectID(ownerID)
	if err != nil {
		return nil, err
	}
	return bson.M{"_id": oid, "owner": owner}, nil
}

func returnAfter() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func notFound(op string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return catalog.ErrNotFound
	}
	return fmt.Errorf("%s: %w", op, err)
}
