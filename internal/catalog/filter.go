package catalog

import (
	"math"
	"strconv"
	"strings"
)

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 100
)

// Sort keys accepted by ListFilter.
const (
	SortByCreatedAt = "createdAt"
	SortByUpdatedAt = "updatedAt"
	SortByTitle     = "title"
	SortByDuration  = "duration"
)

var sortKeys = map[string]bool{
	SortByCreatedAt: true,
	SortByUpdatedAt: true,
	SortByTitle:     true,
	SortByDuration:  true,
}

// ListFilter selects a window of videos.
// ViewerID is the principal asking; unpublished videos are only listed for their owner.
type ListFilter struct {
	Page     int
	Limit    int
	Query    string
	SortBy   string
	SortType string
	OwnerID  string
	ViewerID string
}

// Descending reports whether the sort direction is descending.
func (f ListFilter) Descending() bool {
	return f.SortType != "asc"
}

// Skip is the number of documents before the requested page.
func (f ListFilter) Skip() int {
	return (f.Page - 1) * f.Limit
}

// Normalize fills defaults and rejects values outside the accepted ranges.
func (f ListFilter) Normalize() (ListFilter, error) {
	const op = "list filter"
	if f.Page == 0 {
		f.Page = DefaultPage
	}
	if f.Limit == 0 {
		f.Limit = DefaultLimit
	}
	if f.Page < 1 {
		return f, Validation(op, "page must be at least 1")
	}
	if f.Limit < 1 || f.Limit > MaxLimit {
		return f, Validation(op, "limit must be between 1 and "+strconv.Itoa(MaxLimit))
	}
	// Skip must not overflow.
	if f.Page > (math.MaxInt-1)/f.Limit+1 {
		return f, Validation(op, "page out of range")
	}
	if f.SortBy == "" {
		f.SortBy = SortByCreatedAt
	}
	if !sortKeys[f.SortBy] {
		return f, Validation(op, "unsupported sortBy", "sortBy must be one of createdAt, updatedAt, title, duration")
	}
	f.SortType = strings.ToLower(f.SortType)
	if f.SortType == "" {
		f.SortType = "desc"
	}
	if f.SortType != "asc" && f.SortType != "desc" {
		return f, Validation(op, "sortType must be asc or desc")
	}
	f.Query = strings.TrimSpace(f.Query)
	if f.OwnerID != "" && !ValidID(f.OwnerID) {
		return f, Validation(op, "invalid userId")
	}
	return f, nil
}

// Matches reports whether c passes the query and visibility parts of the filter.
// Backends that cannot push the filter down use it directly.
func (f ListFilter) Matches(c *Content) bool {
	if f.OwnerID != "" && c.Owner != f.OwnerID {
		return false
	}
	if !c.IsPublished && c.Owner != f.ViewerID {
		return false
	}
	if f.Query == "" {
		return true
	}
	q := strings.ToLower(f.Query)
	return strings.Contains(strings.ToLower(c.Title), q) ||
		strings.Contains(strings.ToLower(c.Description), q)
}

// Less orders a before b according to the sort key, breaking ties by id ascending.
func (f ListFilter) Less(a, b *Content) bool {
	var cmp int
	switch f.SortBy {
	case SortByTitle:
		cmp = strings.Compare(a.Title, b.Title)
	case SortByDuration:
		cmp = compareFloat(a.Duration, b.Duration)
	case SortByUpdatedAt:
		cmp = a.UpdatedAt.Compare(b.UpdatedAt)
	default:
		cmp = a.CreatedAt.Compare(b.CreatedAt)
	}
	if cmp == 0 {
		return a.ID < b.ID
	}
	if f.Descending() {
		return cmp > 0
	}
	return cmp < 0
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
