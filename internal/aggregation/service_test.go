package aggregation

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/store/memstore"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	st    *memstore.Store
	svc   *Service
	alice string
	bob   string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := memstore.New()
	f := &fixture{st: st, svc: NewService(st, quietLogger()), alice: catalog.NewID(), bob: catalog.NewID()}
	st.AddOwner(catalog.Owner{
		ID:           f.alice,
		Username:     "alice",
		FullName:     "Alice Liddell",
		AvatarURL:    "http://cdn.test/alice.png",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret",
	})
	st.AddOwner(catalog.Owner{ID: f.bob, Username: "bob", FullName: "Bob"})
	return f
}

func (f *fixture) video(t *testing.T, owner, title string, published bool, age time.Duration) *catalog.Content {
	t.Helper()
	at := time.Now().UTC().Add(-age).Truncate(time.Millisecond)
	c := &catalog.Content{
		ID:            catalog.NewID(),
		VideoAssetURL: "http://cdn.test/videos/" + title,
		ThumbnailURL:  "http://cdn.test/thumbnails/" + title,
		Title:         title,
		Description:   "about " + title,
		Duration:      float64(len(title)),
		IsPublished:   published,
		Owner:         owner,
		CreatedAt:     at,
		UpdatedAt:     at,
	}
	require.NoError(t, f.st.CreateContent(context.Background(), c))
	return c
}

func TestListContentByOwnerEmpty(t *testing.T) {
	f := newFixture(t)

	videos, err := f.svc.ListContentByOwner(context.Background(), f.bob)
	require.NoError(t, err)
	assert.NotNil(t, videos)
	assert.Empty(t, videos)

	posts, err := f.svc.ListPostsByOwner(context.Background(), catalog.NewID())
	require.NoError(t, err)
	assert.NotNil(t, posts)
	assert.Empty(t, posts)
}

func TestListByOwnerRejectsMalformedID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.ListPostsByOwner(context.Background(), "123")
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))
	_, err = f.svc.ListContentByOwner(context.Background(), "")
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))
}

func TestListPostsByOwner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	now := time.Now().UTC()
	for _, text := range []string{"one", "two"} {
		require.NoError(t, f.st.CreatePost(ctx, &catalog.Post{ID: catalog.NewID(), Content: text, Owner: f.alice, CreatedAt: now, UpdatedAt: now}))
	}
	require.NoError(t, f.st.CreatePost(ctx, &catalog.Post{ID: catalog.NewID(), Content: "other", Owner: f.bob, CreatedAt: now, UpdatedAt: now}))

	posts, err := f.svc.ListPostsByOwner(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "one", posts[0].Content)
	assert.Equal(t, "two", posts[1].Content)
}

func TestGetContentWithOwnerProjection(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	c := f.video(t, f.alice, "cats", true, time.Hour)
	like, err := catalog.NewLike(catalog.TargetVideo, c.ID, f.bob)
	require.NoError(t, err)
	f.st.AddLike(*like)

	view, err := f.svc.GetContentWithOwnerProjection(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, view.ID)
	assert.Equal(t, int64(1), view.LikesCount)
	assert.Equal(t, catalog.OwnerProjection{FullName: "Alice Liddell", Username: "alice", AvatarURL: "http://cdn.test/alice.png"}, view.Owner)

	raw, err := json.Marshal(view)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	owner, ok := decoded["owner"].(map[string]any)
	require.True(t, ok)
	keys := make([]string, 0, len(owner))
	for k := range owner {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{"fullName", "username", "avatarUrl"}, keys)
}

func TestGetContentWithOwnerProjectionMisses(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetContentWithOwnerProjection(context.Background(), catalog.NewID())
	assert.True(t, catalog.IsKind(err, catalog.KindNotFound))
	assert.True(t, errors.Is(err, catalog.ErrNotFound))

	_, err = f.svc.GetContentWithOwnerProjection(context.Background(), "xyz")
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))
}

func TestListVideos(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	oldest := f.video(t, f.alice, "alpha", true, 3*time.Hour)
	middle := f.video(t, f.alice, "beta", true, 2*time.Hour)
	hidden := f.video(t, f.alice, "gamma", false, time.Hour)
	bobs := f.video(t, f.bob, "delta", true, 30*time.Minute)

	t.Run("defaults list every owner newest first", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{})
		require.NoError(t, err)
		assert.Equal(t, []string{bobs.ID, middle.ID, oldest.ID}, ids(videos))
	})

	t.Run("owner sees unpublished videos", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{OwnerID: f.alice, ViewerID: f.alice, SortType: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{oldest.ID, middle.ID, hidden.ID}, ids(videos))
	})

	t.Run("other viewers do not", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{OwnerID: f.alice, ViewerID: f.bob})
		require.NoError(t, err)
		assert.NotContains(t, ids(videos), hidden.ID)
	})

	t.Run("query is case insensitive", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{Query: "BETA"})
		require.NoError(t, err)
		assert.Equal(t, []string{middle.ID}, ids(videos))
	})

	t.Run("pagination", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{Page: 2, Limit: 2, SortBy: catalog.SortByTitle, SortType: "asc"})
		require.NoError(t, err)
		assert.Equal(t, []string{bobs.ID}, ids(videos))
	})

	t.Run("unknown owner is not found", func(t *testing.T) {
		_, err := f.svc.ListVideos(ctx, catalog.ListFilter{OwnerID: catalog.NewID()})
		assert.True(t, catalog.IsKind(err, catalog.KindNotFound))
	})

	t.Run("malformed owner is invalid", func(t *testing.T) {
		_, err := f.svc.ListVideos(ctx, catalog.ListFilter{OwnerID: "nope"})
		assert.True(t, catalog.IsKind(err, catalog.KindValidation))
	})

	t.Run("bad sort key", func(t *testing.T) {
		_, err := f.svc.ListVideos(ctx, catalog.ListFilter{SortBy: "views"})
		assert.True(t, catalog.IsKind(err, catalog.KindValidation))
	})

	t.Run("page whose offset overflows", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{Page: math.MaxInt64 / 5, Limit: 10})
		assert.True(t, catalog.IsKind(err, catalog.KindValidation))
		assert.Nil(t, videos)
	})

	t.Run("last addressable page is empty", func(t *testing.T) {
		videos, err := f.svc.ListVideos(ctx, catalog.ListFilter{Page: (math.MaxInt-1)/10 + 1, Limit: 10})
		require.NoError(t, err)
		assert.Empty(t, videos)
	})

	t.Run("limit above maximum", func(t *testing.T) {
		_, err := f.svc.ListVideos(ctx, catalog.ListFilter{Limit: catalog.MaxLimit + 1})
		assert.True(t, catalog.IsKind(err, catalog.KindValidation))
	})
}

func ids(videos []catalog.Content) []string {
	out := make([]string, len(videos))
	for i, v := range videos {
		out[i] = v.ID
	}
	return out
}

func TestGetOwnerProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	profile, err := f.svc.GetOwnerProfile(ctx, f.alice)
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", profile.FullName)

	raw, err := json.Marshal(profile)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "alice@example.com")

	_, err = f.svc.GetOwnerProfile(ctx, catalog.NewID())
	assert.True(t, catalog.IsKind(err, catalog.KindNotFound))

	_, err = f.svc.GetOwnerProfile(ctx, "alice")
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))
}
