// Package client implements the board's vote and bookmark reconciliation
// engine: optimistic local state, debounced network calls, and rollback
// against the server's authoritative aggregates.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

var (
	// ErrUnauthorized means the server rejected the caller's identity.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrNotFound means the target post no longer exists.
	ErrNotFound = errors.New("post not found")
	// ErrBadResponse means the response body failed schema validation.
	ErrBadResponse = errors.New("malformed response")
)

// VoteStatus is the read view returned by the vote status endpoint.
type VoteStatus struct {
	UserVote  int
	Upvotes   int
	Downvotes int
}

// VoteCounts is the authoritative aggregate returned by a cast.
type VoteCounts struct {
	Upvotes   int
	Downvotes int
}

// API is the server contract the controllers rely on.
type API interface {
	VoteStatus(ctx context.Context, postID int) (VoteStatus, error)
	CastVote(ctx context.Context, postID, value int) (VoteCounts, error)
	BookmarkStatus(ctx context.Context, postID int) (bool, error)
	ToggleBookmark(ctx context.Context, postID int) (bool, error)
}

// Notice is a user-facing notification emitted by the controllers.
type Notice struct {
	Title       string
	Description string
}

// Notifier receives controller notices. It replaces a UI-wide toast
// singleton so the reconciliation logic can run headless.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Client is the HTTP implementation of API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *Client) VoteStatus(ctx context.Context, postID int) (VoteStatus, error) {
	// every field must be present; a response missing one is rejected
	// rather than defaulted into local state
	var body struct {
		UserVote  *int `json:"userVote"`
		Upvotes   *int `json:"upvotes"`
		Downvotes *int `json:"downvotes"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/vote", postID), nil, &body)
	if err != nil {
		return VoteStatus{}, err
	}
	if body.UserVote == nil || body.Upvotes == nil || body.Downvotes == nil {
		return VoteStatus{}, fmt.Errorf("%w: missing vote status field", ErrBadResponse)
	}
	return VoteStatus{UserVote: *body.UserVote, Upvotes: *body.Upvotes, Downvotes: *body.Downvotes}, nil
}

func (c *Client) CastVote(ctx context.Context, postID, value int) (VoteCounts, error) {
	var body struct {
		Upvotes   *int `json:"upvotes"`
		Downvotes *int `json:"downvotes"`
	}
	payload := map[string]int{"value": value}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%d/vote", postID), payload, &body)
	if err != nil {
		return VoteCounts{}, err
	}
	if body.Upvotes == nil || body.Downvotes == nil {
		return VoteCounts{}, fmt.Errorf("%w: missing vote count field", ErrBadResponse)
	}
	return VoteCounts{Upvotes: *body.Upvotes, Downvotes: *body.Downvotes}, nil
}

func (c *Client) BookmarkStatus(ctx context.Context, postID int) (bool, error) {
	var body struct {
		Bookmarked *bool `json:"bookmarked"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/posts/%d/bookmark", postID), nil, &body)
	if err != nil {
		return false, err
	}
	if body.Bookmarked == nil {
		return false, fmt.Errorf("%w: missing bookmarked field", ErrBadResponse)
	}
	return *body.Bookmarked, nil
}

func (c *Client) ToggleBookmark(ctx context.Context, postID int) (bool, error) {
	var body struct {
		Bookmarked *bool `json:"bookmarked"`
	}
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/api/posts/%d/bookmark", postID), nil, &body)
	if err != nil {
		return false, err
	}
	if body.Bookmarked == nil {
		return false, fmt.Errorf("%w: missing bookmarked field", ErrBadResponse)
	}
	return *body.Bookmarked, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody *bytes.Buffer
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewBuffer(data)
	} else {
		reqBody = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%s %s: server returned %d", method, path, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrBadResponse, err)
	}
	return nil
}
