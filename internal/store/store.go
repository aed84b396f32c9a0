// Package store implements the vote and bookmark aggregate store. Every
// mutating operation runs as a single transaction that locks the target post
// row, so returned counts are always consistent with the mutation that
// produced them even under concurrent voters.
package store

import "errors"

var (
	// ErrPostNotFound is returned when the target post does not exist.
	ErrPostNotFound = errors.New("post not found")
	// ErrInvalidVoteValue is returned for vote values outside {-1, +1}.
	ErrInvalidVoteValue = errors.New("invalid vote value")
)

// VoteStatus is the read view of one user's standing on a post.
type VoteStatus struct {
	UserVote  int `json:"userVote"`
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}

// VoteCounts is the authoritative aggregate returned by a cast.
type VoteCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
}
