package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/academiq/campus-board/internal/models"
)

// Bookmarks reads and toggles per-user bookmark rows.
type Bookmarks interface {
	// Status reports whether userID has bookmarked postID. An anonymous
	// caller (userID 0) always gets false.
	Status(ctx context.Context, userID, postID int) (bool, error)

	// Toggle flips the bookmark and returns the resulting state: true if
	// the row was created, false if it was deleted. Atomic per call.
	Toggle(ctx context.Context, userID, postID int) (bool, error)

	// ListForUser returns the user's saved posts, newest bookmark first.
	ListForUser(ctx context.Context, userID int) ([]models.Post, error)
}

type bookmarkStore struct {
	db *gorm.DB
}

func NewBookmarks(db *gorm.DB) Bookmarks {
	return &bookmarkStore{db: db}
}

func (s *bookmarkStore) Status(ctx context.Context, userID, postID int) (bool, error) {
	db := s.db.WithContext(ctx)

	var post models.Post
	if err := db.Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, ErrPostNotFound
		}
		return false, fmt.Errorf("load post: %w", err)
	}

	if userID == 0 {
		return false, nil
	}

	var count int64
	err := db.Model(&models.Bookmark{}).
		Where("user_id = ? AND post_id = ?", userID, postID).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("count bookmarks: %w", err)
	}
	return count > 0, nil
}

func (s *bookmarkStore) Toggle(ctx context.Context, userID, postID int) (bool, error) {
	var bookmarked bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&post, postID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("lock post: %w", err)
		}

		var existing models.Bookmark
		err = tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil:
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("delete bookmark: %w", err)
			}
			bookmarked = false
		case errors.Is(err, gorm.ErrRecordNotFound):
			bookmark := models.Bookmark{UserID: userID, PostID: postID}
			if err := tx.Create(&bookmark).Error; err != nil {
				return fmt.Errorf("create bookmark: %w", err)
			}
			bookmarked = true
		default:
			return fmt.Errorf("load bookmark: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return bookmarked, nil
}

func (s *bookmarkStore) ListForUser(ctx context.Context, userID int) ([]models.Post, error) {
	db := s.db.WithContext(ctx)

	var bookmarks []models.Bookmark
	err := db.Where("user_id = ?", userID).
		Order("created_at desc").
		Find(&bookmarks).Error
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}

	posts := make([]models.Post, 0, len(bookmarks))
	for _, b := range bookmarks {
		var post models.Post
		if err := db.Preload("User").First(&post, b.PostID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				// post deleted since it was saved
				continue
			}
			return nil, fmt.Errorf("load post: %w", err)
		}
		posts = append(posts, post)
	}
	return posts, nil
}
