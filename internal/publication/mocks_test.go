package publication

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/storage"
)

type mockUploader struct {
	mock.Mock
}

func (m *mockUploader) Upload(ctx context.Context, localPath string, kind storage.AssetKind) (*storage.Asset, error) {
	args := m.Called(ctx, localPath, kind)
	if a := args.Get(0); a != nil {
		return a.(*storage.Asset), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockUploader) Confirm(ctx context.Context, urls ...string) error {
	return m.Called(ctx, urls).Error(0)
}

func (m *mockUploader) Release(ctx context.Context, urls ...string) error {
	return m.Called(ctx, urls).Error(0)
}

// mockStore fails the test on any call that has no expectation.
type mockStore struct {
	mock.Mock
}

func (m *mockStore) CreatePost(ctx context.Context, p *catalog.Post) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockStore) FindPost(ctx context.Context, id string) (*catalog.Post, error) {
	args := m.Called(ctx, id)
	p, _ := args.Get(0).(*catalog.Post)
	return p, args.Error(1)
}

func (m *mockStore) UpdatePostContent(ctx context.Context, id, ownerID, content string) (*catalog.Post, error) {
	args := m.Called(ctx, id, ownerID, content)
	p, _ := args.Get(0).(*catalog.Post)
	return p, args.Error(1)
}

func (m *mockStore) DeletePost(ctx context.Context, id, ownerID string) (*catalog.Post, error) {
	args := m.Called(ctx, id, ownerID)
	p, _ := args.Get(0).(*catalog.Post)
	return p, args.Error(1)
}

func (m *mockStore) PostsByOwner(ctx context.Context, ownerID string) ([]catalog.Post, error) {
	args := m.Called(ctx, ownerID)
	p, _ := args.Get(0).([]catalog.Post)
	return p, args.Error(1)
}

func (m *mockStore) CreateContent(ctx context.Context, c *catalog.Content) error {
	return m.Called(ctx, c).Error(0)
}

func (m *mockStore) FindContent(ctx context.Context, id string) (*catalog.Content, error) {
	args := m.Called(ctx, id)
	c, _ := args.Get(0).(*catalog.Content)
	return c, args.Error(1)
}

func (m *mockStore) UpdateContentMetadata(ctx context.Context, id, ownerID, title, description string) (*catalog.Content, error) {
	args := m.Called(ctx, id, ownerID, title, description)
	c, _ := args.Get(0).(*catalog.Content)
	return c, args.Error(1)
}

func (m *mockStore) ReplaceThumbnail(ctx context.Context, id, ownerID, url string) (*catalog.Content, *catalog.Content, error) {
	args := m.Called(ctx, id, ownerID, url)
	before, _ := args.Get(0).(*catalog.Content)
	after, _ := args.Get(1).(*catalog.Content)
	return before, after, args.Error(2)
}

func (m *mockStore) DeleteContent(ctx context.Context, id, ownerID string) (*catalog.Content, error) {
	args := m.Called(ctx, id, ownerID)
	c, _ := args.Get(0).(*catalog.Content)
	return c, args.Error(1)
}

func (m *mockStore) TogglePublished(ctx context.Context, id, ownerID string) (*catalog.Content, error) {
	args := m.Called(ctx, id, ownerID)
	c, _ := args.Get(0).(*catalog.Content)
	return c, args.Error(1)
}

func (m *mockStore) ContentByOwner(ctx context.Context, ownerID string) ([]catalog.Content, error) {
	args := m.Called(ctx, ownerID)
	c, _ := args.Get(0).([]catalog.Content)
	return c, args.Error(1)
}

func (m *mockStore) ContentView(ctx context.Context, id string) (*catalog.ContentView, error) {
	args := m.Called(ctx, id)
	v, _ := args.Get(0).(*catalog.ContentView)
	return v, args.Error(1)
}

func (m *mockStore) ListContent(ctx context.Context, f catalog.ListFilter) ([]catalog.Content, error) {
	args := m.Called(ctx, f)
	c, _ := args.Get(0).([]catalog.Content)
	return c, args.Error(1)
}

func (m *mockStore) ReferencedAssets(ctx context.Context, urls []string) (map[string]bool, error) {
	args := m.Called(ctx, urls)
	r, _ := args.Get(0).(map[string]bool)
	return r, args.Error(1)
}
