package catalog_test

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mediahub/catalog/internal/catalog"
)

func TestValidID(t *testing.T) {
	assert.True(t, catalog.ValidID(catalog.NewID()))
	assert.True(t, catalog.ValidID("65f1c0ffee00000000000001"))
	assert.False(t, catalog.ValidID(""))
	assert.False(t, catalog.ValidID("not-an-id"))
	assert.False(t, catalog.ValidID("65f1c0ffee0000000000000z"))
	assert.False(t, catalog.ValidID("65f1c0ffee000000000000011"))
}

func TestKindOf(t *testing.T) {
	err := catalog.Validation("create post", "content is required")
	assert.Equal(t, catalog.KindValidation, catalog.KindOf(err))

	wrapped := fmt.Errorf("handler: %w", catalog.NotFound("get video", "video not found"))
	assert.Equal(t, catalog.KindNotFound, catalog.KindOf(wrapped))
	assert.True(t, errors.Is(wrapped, catalog.ErrNotFound))

	assert.Equal(t, catalog.KindInternal, catalog.KindOf(errors.New("boom")))
	assert.False(t, catalog.IsKind(nil, catalog.KindInternal))
}

func TestErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := catalog.Upload("publish video", "video upload failed", cause)

	var ce *catalog.Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "video upload failed", ce.Message)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestOwnerProjection(t *testing.T) {
	o := &catalog.Owner{
		ID:           catalog.NewID(),
		Username:     "ana",
		FullName:     "Ana Lima",
		AvatarURL:    "http://cdn/avatar.png",
		Email:        "ana@example.com",
		PasswordHash: "secret",
	}
	assert.Equal(t, catalog.OwnerProjection{
		FullName:  "Ana Lima",
		Username:  "ana",
		AvatarURL: "http://cdn/avatar.png",
	}, o.Projection())
}

func TestNewLike(t *testing.T) {
	target, liker := catalog.NewID(), catalog.NewID()

	like, err := catalog.NewLike(catalog.TargetVideo, target, liker)
	require.NoError(t, err)
	assert.Equal(t, catalog.TargetVideo, like.TargetKind)
	assert.Equal(t, target, like.TargetID)
	assert.Equal(t, liker, like.LikedBy)

	_, err = catalog.NewLike("playlist", target, liker)
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))

	_, err = catalog.NewLike(catalog.TargetTweet, "bad", liker)
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))

	_, err = catalog.NewLike(catalog.TargetComment, target, "")
	assert.True(t, catalog.IsKind(err, catalog.KindValidation))
}

func TestListFilterNormalize(t *testing.T) {
	f, err := catalog.ListFilter{}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 1, f.Page)
	assert.Equal(t, 10, f.Limit)
	assert.Equal(t, catalog.SortByCreatedAt, f.SortBy)
	assert.Equal(t, "desc", f.SortType)
	assert.Equal(t, 0, f.Skip())

	f, err = catalog.ListFilter{Page: 3, Limit: 20, SortType: "ASC", Query: "  cats "}.Normalize()
	require.NoError(t, err)
	assert.Equal(t, 40, f.Skip())
	assert.False(t, f.Descending())
	assert.Equal(t, "cats", f.Query)

	bad := []catalog.ListFilter{
		{Page: -1},
		{Page: math.MaxInt},
		{Page: math.MaxInt / 10, Limit: 20},
		{Limit: 101},
		{SortBy: "views"},
		{SortType: "sideways"},
		{OwnerID: "nope"},
	}
	for _, b := range bad {
		_, err := b.Normalize()
		assert.True(t, catalog.IsKind(err, catalog.KindValidation), "%+v", b)
	}
}

func TestListFilterMatchesAndLess(t *testing.T) {
	owner, other := catalog.NewID(), catalog.NewID()
	now := time.Now()
	hidden := &catalog.Content{ID: "b", Owner: owner, Title: "Cats", IsPublished: false, CreatedAt: now}
	public := &catalog.Content{ID: "a", Owner: owner, Title: "Dogs", Description: "cats too", IsPublished: true, CreatedAt: now}

	f := catalog.ListFilter{ViewerID: other, Query: "CATS"}
	assert.False(t, f.Matches(hidden))
	assert.True(t, f.Matches(public))

	f.ViewerID = owner
	assert.True(t, f.Matches(hidden))

	f = catalog.ListFilter{SortBy: catalog.SortByCreatedAt, SortType: "desc"}
	assert.True(t, f.Less(public, hidden), "ties are broken by id")

	f.SortBy = catalog.SortByTitle
	f.SortType = "asc"
	assert.True(t, f.Less(hidden, public))
}
