// Package memstore is an in-memory implementation of store.Store.
package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/mediahub/catalog/internal/catalog"
	"github.com/mediahub/catalog/internal/store"
)

var _ store.Store = (*Store)(nil)

// Store keeps documents in maps guarded by a single RWMutex.
// Slices of ids preserve insertion order, which stands in for a database's natural order.
type Store struct {
	mu sync.RWMutex

	owners   map[string]catalog.Owner
	posts    map[string]catalog.Post
	contents map[string]catalog.Content
	likes    []catalog.Like

	postOrder    []string
	contentOrder []string

	now func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		owners:   make(map[string]catalog.Owner),
		posts:    make(map[string]catalog.Post),
		contents: make(map[string]catalog.Content),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// AddOwner inserts or replaces an owner profile.
func (s *Store) AddOwner(o catalog.Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.owners[o.ID] = o
}

// AddLike records a like.
func (s *Store) AddLike(l catalog.Like) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.likes = append(s.likes, l)
}

// Close is a no-op.
func (s *Store) Close(context.Context) error { return nil }

// CreatePost inserts a new tweet.
func (s *Store) CreatePost(_ context.Context, p *catalog.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.posts[p.ID]; exists {
		return errors.New("post already exists")
	}
	s.posts[p.ID] = *p
	s.postOrder = append(s.postOrder, p.ID)
	return nil
}

// FindPost returns the tweet with id or catalog.ErrNotFound.
func (s *Store) FindPost(_ context.Context, id string) (*catalog.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &p, nil
}

// UpdatePostContent sets the content of a tweet owned by ownerID.
func (s *Store) UpdatePostContent(_ context.Context, id, ownerID, content string) (*catalog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Owner != ownerID {
		return nil, catalog.ErrNotFound
	}
	p.Content = content
	p.UpdatedAt = s.now()
	s.posts[id] = p
	return &p, nil
}

// DeletePost removes a tweet owned by ownerID. A miss returns nil, nil.
func (s *Store) DeletePost(_ context.Context, id, ownerID string) (*catalog.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok || p.Owner != ownerID {
		return nil, nil
	}
	delete(s.posts, id)
	s.postOrder = remove(s.postOrder, id)
	return &p, nil
}

// PostsByOwner returns the tweets of ownerID.
func (s *Store) PostsByOwner(_ context.Context, ownerID string) ([]catalog.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Post{}
	if _, ok := s.owners[ownerID]; !ok {
		return out, nil
	}
	for _, id := range s.postOrder {
		if p := s.posts[id]; p.Owner == ownerID {
			out = append(out, p)
		}
	}
	return out, nil
}

// CreateContent inserts a new video.
func (s *Store) CreateContent(_ context.Context, c *catalog.Content) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.contents[c.ID]; exists {
		return errors.New("content already exists")
	}
	s.contents[c.ID] = *c
	s.contentOrder = append(s.contentOrder, c.ID)
	return nil
}

// FindContent returns the video with id or catalog.ErrNotFound.
func (s *Store) FindContent(_ context.Context, id string) (*catalog.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &c, nil
}

// UpdateContentMetadata sets title and description of a video owned by ownerID.
func (s *Store) UpdateContentMetadata(_ context.Context, id, ownerID, title, description string) (*catalog.Content, error) {
	return s.mutateContent(id, ownerID, func(c *catalog.Content) {
		c.Title = title
		c.Description = description
	})
}

// ReplaceThumbnail points a video owned by ownerID at url and returns it before and after.
func (s *Store) ReplaceThumbnail(_ context.Context, id, ownerID, url string) (*catalog.Content, *catalog.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok || c.Owner != ownerID {
		return nil, nil, catalog.ErrNotFound
	}
	before := c
	c.ThumbnailURL = url
	c.UpdatedAt = s.now()
	s.contents[id] = c
	return &before, &c, nil
}

// DeleteContent removes a video owned by ownerID. A miss returns nil, nil.
func (s *Store) DeleteContent(_ context.Context, id, ownerID string) (*catalog.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok || c.Owner != ownerID {
		return nil, nil
	}
	delete(s.contents, id)
	s.contentOrder = remove(s.contentOrder, id)
	return &c, nil
}

// TogglePublished negates isPublished of a video owned by ownerID.
func (s *Store) TogglePublished(_ context.Context, id, ownerID string) (*catalog.Content, error) {
	return s.mutateContent(id, ownerID, func(c *catalog.Content) {
		c.IsPublished = !c.IsPublished
	})
}

func (s *Store) mutateContent(id, ownerID string, fn func(*catalog.Content)) (*catalog.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contents[id]
	if !ok || c.Owner != ownerID {
		return nil, catalog.ErrNotFound
	}
	fn(&c)
	c.UpdatedAt = s.now()
	s.contents[id] = c
	return &c, nil
}

// ContentByOwner returns the videos of ownerID.
func (s *Store) ContentByOwner(_ context.Context, ownerID string) ([]catalog.Content, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []catalog.Content{}
	if _, ok := s.owners[ownerID]; !ok {
		return out, nil
	}
	for _, id := range s.contentOrder {
		if c := s.contents[id]; c.Owner == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

// ContentView returns a video joined with its owner projection and like count.
func (s *Store) ContentView(_ context.Context, id string) (*catalog.ContentView, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.contents[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	var projection catalog.OwnerProjection
	if o, ok := s.owners[c.Owner]; ok {
		projection = o.Projection()
	}
	var likes int64
	for _, l := range s.likes {
		if l.TargetKind == catalog.TargetVideo && l.TargetID == id {
			likes++
		}
	}
	return catalog.NewContentView(&c, projection, likes), nil
}

// ListContent returns one page of videos matching f.
func (s *Store) ListContent(_ context.Context, f catalog.ListFilter) ([]catalog.Content, error) {
	s.mu.RLock()
	matched := make([]catalog.Content, 0, len(s.contentOrder))
	for _, id := range s.contentOrder {
		c := s.contents[id]
		if f.Matches(&c) {
			matched = append(matched, c)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool { return f.Less(&matched[i], &matched[j]) })

	start := f.Skip()
	if start < 0 || start >= len(matched) {
		return []catalog.Content{}, nil
	}
	end := start + f.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

// ReferencedAssets reports which of urls a video still points at.
func (s *Store) ReferencedAssets(_ context.Context, urls []string) (map[string]bool, error) {
	want := make(map[string]bool, len(urls))
	for _, u := range urls {
		want[u] = true
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	refs := make(map[string]bool)
	for _, c := range s.contents {
		for _, u := range c.AssetURLs() {
			if want[u] {
				refs[u] = true
			}
		}
	}
	return refs, nil
}

// OwnerExists reports whether a user with id exists.
func (s *Store) OwnerExists(_ context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.owners[id]
	return ok, nil
}

// OwnerProfile returns the public projection of one user.
func (s *Store) OwnerProfile(_ context.Context, id string) (*catalog.OwnerProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.owners[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	p := o.Projection()
	return &p, nil
}

func remove(ids []string, id string) []string {
	for i, v := range ids {
		if v == id {
			return append(ids[:i], ids[i+1:]...)
		}
	}
	return ids
}
