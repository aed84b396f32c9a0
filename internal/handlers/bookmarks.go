package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/academiq/campus-board/internal/middleware"
	"github.com/academiq/campus-board/internal/store"
)

type BookmarkHandler struct {
	bookmarks store.Bookmarks
	votes     store.Votes
	log       *slog.Logger
}

func NewBookmarkHandler(bookmarks store.Bookmarks, votes store.Votes, log *slog.Logger) *BookmarkHandler {
	return &BookmarkHandler{bookmarks: bookmarks, votes: votes, log: log}
}

// GetBookmarkStatus reports whether the caller has saved the post.
func (h *BookmarkHandler) GetBookmarkStatus(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := middleware.CurrentUserID(c)

	bookmarked, err := h.bookmarks.Status(c.Request.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		h.log.Error("read bookmark failed", "post_id", postID,
			"request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookmark status"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}

// ToggleBookmark flips the caller's bookmark on the post (PROTECTED -
// requires authentication).
func (h *BookmarkHandler) ToggleBookmark(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	bookmarked, err := h.bookmarks.Toggle(c.Request.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		h.log.Error("toggle bookmark failed", "post_id", postID, "user_id", userID,
			"request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to bookmark post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"bookmarked": bookmarked})
}

// GetUserBookmarks returns the posts a user has saved (PROTECTED - users can
// only list their own bookmarks).
func (h *BookmarkHandler) GetUserBookmarks(c *gin.Context) {
	targetID, err := strconv.Atoi(c.Param("id"))
	if err != nil || targetID <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}
	if userID != targetID {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only view your own saved posts"})
		return
	}

	posts, err := h.bookmarks.ListForUser(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list bookmarks failed", "user_id", userID,
			"request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookmarks"})
		return
	}

	// DON'T embed models.Post — build each response manually with the
	// post's vote aggregates attached
	responses := []gin.H{}
	for _, post := range posts {
		status, err := h.votes.Read(c.Request.Context(), userID, post.ID)
		if err != nil {
			h.log.Error("read votes for saved post failed", "post_id", post.ID,
				"user_id", userID, "request_id", middleware.GetRequestID(c), "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch bookmarks"})
			return
		}
		responses = append(responses, gin.H{
			"id":          post.ID,
			"title":       post.Title,
			"body":        post.Body,
			"course_code": post.CourseCode,
			"topics":      post.Topics,
			"materials":   post.Materials,
			"user_id":     post.UserID,
			"user":        post.User,
			"userVote":    status.UserVote,
			"upvotes":     status.Upvotes,
			"downvotes":   status.Downvotes,
			"created_at":  post.CreatedAt,
		})
	}

	c.JSON(http.StatusOK, responses)
}
