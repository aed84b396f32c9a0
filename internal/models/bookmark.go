package models

import "time"

// Bookmark marks a post as saved by a user. Row existence is the boolean
// state; toggling off deletes the row.
type Bookmark struct {
	ID     int `gorm:"primaryKey" json:"id"`
	UserID int `gorm:"not null;uniqueIndex:idx_bookmarks_user_post" json:"user_id"`
	PostID int `gorm:"not null;uniqueIndex:idx_bookmarks_user_post" json:"post_id"`

	CreatedAt time.Time `json:"created_at"`
}
