package models

import "time"

// Vote value space is {-1, +1}; "no vote" is the absence of a row, never a
// stored zero.
const (
	Downvote = -1
	Upvote   = 1
)

// Vote tracks one user's directional opinion on one post. The composite
// unique index guarantees at most one row per (user, post).
type Vote struct {
	ID     int `gorm:"primaryKey" json:"id"`
	UserID int `gorm:"not null;uniqueIndex:idx_votes_user_post" json:"user_id"`
	PostID int `gorm:"not null;uniqueIndex:idx_votes_user_post" json:"post_id"`
	Value  int `gorm:"not null" json:"value"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
