package catalog

import (
	"fmt"
	"time"
)

// TargetKind is the kind of document a Like points at.
type TargetKind string

const (
	TargetComment TargetKind = "comment"
	TargetVideo   TargetKind = "video"
	TargetTweet   TargetKind = "tweet"
)

// Valid reports whether k is a known target kind.
func (k TargetKind) Valid() bool {
	switch k {
	case TargetComment, TargetVideo, TargetTweet:
		return true
	}
	return false
}

// Like records that LikedBy liked exactly one target.
// Likes are not removed when their target is deleted.
type Like struct {
	ID         string     `json:"id"`
	TargetKind TargetKind `json:"targetKind"`
	TargetID   string     `json:"targetId"`
	LikedBy    string     `json:"likedBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// NewLike builds a Like after checking the target and liker identifiers.
func NewLike(kind TargetKind, targetID, likedBy string) (*Like, error) {
	if !kind.Valid() {
		return nil, Validation("new like", fmt.Sprintf("unknown target kind %q", kind))
	}
	if !ValidID(targetID) {
		return nil, Validation("new like", "invalid target id")
	}
	if !ValidID(likedBy) {
		return nil, Validation("new like", "invalid likedBy id")
	}
	return &Like{
		ID:         NewID(),
		TargetKind: kind,
		TargetID:   targetID,
		LikedBy:    likedBy,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
