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

type VoteHandler struct {
	votes store.Votes
	log   *slog.Logger
}

func NewVoteHandler(votes store.Votes, log *slog.Logger) *VoteHandler {
	return &VoteHandler{votes: votes, log: log}
}

// GetVoteStatus returns the caller's vote plus the post totals. Anonymous
// callers get userVote 0 with real totals, not an error.
func (h *VoteHandler) GetVoteStatus(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := middleware.CurrentUserID(c)

	status, err := h.votes.Read(c.Request.Context(), userID, postID)
	if err != nil {
		if errors.Is(err, store.ErrPostNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
			return
		}
		h.log.Error("read vote failed", "post_id", postID,
			"request_id", middleware.GetRequestID(c), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch votes"})
		return
	}

	c.JSON(http.StatusOK, status)
}

// CastVote applies the toggle semantics and returns the authoritative
// counts (PROTECTED - requires authentication).
func (h *VoteHandler) CastVote(c *gin.Context) {
	postID, ok := postIDParam(c)
	if !ok {
		return
	}
	userID := middleware.CurrentUserID(c)
	if userID == 0 {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var input struct {
		Value int `json:"value" binding:"required,oneof=-1 1"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be -1 or 1"})
		return
	}

	counts, err := h.votes.Cast(c.Request.Context(), userID, postID, input.Value)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrPostNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		case errors.Is(err, store.ErrInvalidVoteValue):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Vote value must be -1 or 1"})
		default:
			h.log.Error("cast vote failed", "post_id", postID, "user_id", userID,
				"request_id", middleware.GetRequestID(c), "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to vote"})
		}
		return
	}

	c.JSON(http.StatusOK, counts)
}

func postIDParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Post not found"})
		return 0, false
	}
	return id, true
}
