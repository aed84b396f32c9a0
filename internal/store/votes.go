package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/academiq/campus-board/internal/models"
)

// Votes reads and mutates per-user vote rows and their aggregates.
type Votes interface {
	// Read returns the caller's current vote and the post's totals.
	// An anonymous caller (userID 0) gets UserVote 0 with real totals.
	Read(ctx context.Context, userID, postID int) (VoteStatus, error)

	// Cast applies the toggle semantics for value in {-1, +1}: no existing
	// row inserts one, the same value retracts it, the opposite value
	// switches it. The returned counts are computed inside the same
	// transaction as the mutation.
	Cast(ctx context.Context, userID, postID, value int) (VoteCounts, error)
}

type voteStore struct {
	db *gorm.DB
}

func NewVotes(db *gorm.DB) Votes {
	return &voteStore{db: db}
}

func (s *voteStore) Read(ctx context.Context, userID, postID int) (VoteStatus, error) {
	db := s.db.WithContext(ctx)

	var post models.Post
	if err := db.Select("id").First(&post, postID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VoteStatus{}, ErrPostNotFound
		}
		return VoteStatus{}, fmt.Errorf("load post: %w", err)
	}

	counts, err := countVotes(db, postID)
	if err != nil {
		return VoteStatus{}, err
	}

	status := VoteStatus{Upvotes: counts.Upvotes, Downvotes: counts.Downvotes}
	if userID == 0 {
		return status, nil
	}

	var vote models.Vote
	err = db.Where("user_id = ? AND post_id = ?", userID, postID).First(&vote).Error
	switch {
	case err == nil:
		status.UserVote = vote.Value
	case errors.Is(err, gorm.ErrRecordNotFound):
		// no row means no vote
	default:
		return VoteStatus{}, fmt.Errorf("load vote: %w", err)
	}

	return status, nil
}

func (s *voteStore) Cast(ctx context.Context, userID, postID, value int) (VoteCounts, error) {
	if value != models.Upvote && value != models.Downvote {
		return VoteCounts{}, ErrInvalidVoteValue
	}

	var counts VoteCounts
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Serialize concurrent casts on the same post so the counts
		// computed below can never interleave with another writer.
		var post models.Post
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").First(&post, postID).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPostNotFound
			}
			return fmt.Errorf("lock post: %w", err)
		}

		var existing models.Vote
		err = tx.Where("user_id = ? AND post_id = ?", userID, postID).First(&existing).Error
		switch {
		case err == nil && existing.Value == value:
			// second click on the same button retracts the vote
			if err := tx.Delete(&existing).Error; err != nil {
				return fmt.Errorf("delete vote: %w", err)
			}
		case err == nil:
			existing.Value = value
			if err := tx.Save(&existing).Error; err != nil {
				return fmt.Errorf("update vote: %w", err)
			}
		case errors.Is(err, gorm.ErrRecordNotFound):
			vote := models.Vote{UserID: userID, PostID: postID, Value: value}
			if err := tx.Create(&vote).Error; err != nil {
				return fmt.Errorf("create vote: %w", err)
			}
		default:
			return fmt.Errorf("load vote: %w", err)
		}

		counts, err = countVotes(tx, postID)
		return err
	})
	if err != nil {
		return VoteCounts{}, err
	}
	return counts, nil
}

// countVotes computes both totals in one statement so a read can never
// observe a concurrent cast half-applied between two counts.
func countVotes(db *gorm.DB, postID int) (VoteCounts, error) {
	var counts VoteCounts
	err := db.Model(&models.Vote{}).
		Select("COUNT(*) FILTER (WHERE value = ?) AS upvotes, COUNT(*) FILTER (WHERE value = ?) AS downvotes",
			models.Upvote, models.Downvote).
		Where("post_id = ?", postID).
		Scan(&counts).Error
	if err != nil {
		return VoteCounts{}, fmt.Errorf("count votes: %w", err)
	}
	return counts, nil
}
