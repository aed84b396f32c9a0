package handlers

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/academiq/campus-board/internal/store"
)

// Handler combines all handler types
type Handler struct {
	Vote     *VoteHandler
	Bookmark *BookmarkHandler
}

// NewHandler creates a unified handler with all sub-handlers
func NewHandler(db *gorm.DB, log *slog.Logger) *Handler {
	votes := store.NewVotes(db)
	return &Handler{
		Vote:     NewVoteHandler(votes, log),
		Bookmark: NewBookmarkHandler(store.NewBookmarks(db), votes, log),
	}
}
