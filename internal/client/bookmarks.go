package client

import (
	"context"
	"log/slog"
	"sync"
)

// BookmarkState is the displayed bookmark state for one post.
type BookmarkState struct {
	Bookmarked bool
	Pending    bool
}

// BookmarkController mirrors VoteController's optimistic pattern for the
// single-button bookmark toggle. A pure toggle needs no coalescing; clicks
// while a call is in flight are simply ignored.
type BookmarkController struct {
	api           API
	authenticated bool
	notifier      Notifier
	log           *slog.Logger

	// OnChange, if set before first use, observes every state change.
	OnChange func(postID int, state BookmarkState)

	mu    sync.Mutex
	posts map[int]*BookmarkState
}

func NewBookmarkController(api API, authenticated bool, notifier Notifier, log *slog.Logger) *BookmarkController {
	return &BookmarkController{
		api:           api,
		authenticated: authenticated,
		notifier:      notifier,
		log:           log,
		posts:         make(map[int]*BookmarkState),
	}
}

// Initialize populates the post's state from the server. A failed read is
// logged and leaves the safe zero state.
func (c *BookmarkController) Initialize(ctx context.Context, postID int) {
	bookmarked, err := c.api.BookmarkStatus(ctx, postID)

	c.mu.Lock()
	p := c.ensure(postID)
	if err != nil {
		c.log.Warn("bookmark status read failed", "post_id", postID, "err", err)
		*p = BookmarkState{}
	} else {
		*p = BookmarkState{Bookmarked: bookmarked}
	}
	c.mu.Unlock()

	c.emit(postID)
}

// RequestToggle registers a click on the bookmark control. The flip is
// applied optimistically, then reconciled with the server's returned state
// or rolled back on failure.
func (c *BookmarkController) RequestToggle(postID int) {
	if !c.authenticated {
		c.notify("Authentication required", "Please login to bookmark posts")
		return
	}

	c.mu.Lock()
	p := c.ensure(postID)
	if p.Pending {
		c.mu.Unlock()
		return
	}
	previous := p.Bookmarked
	p.Bookmarked = !previous
	p.Pending = true
	c.mu.Unlock()

	c.emit(postID)

	go func() {
		bookmarked, err := c.api.ToggleBookmark(context.Background(), postID)

		c.mu.Lock()
		p := c.ensure(postID)
		if err != nil {
			p.Bookmarked = previous
		} else {
			// trust the server's value over the optimistic flip
			p.Bookmarked = bookmarked
		}
		p.Pending = false
		c.mu.Unlock()

		c.emit(postID)
		if err != nil {
			c.log.Warn("toggle bookmark failed", "post_id", postID, "err", err)
			c.notify("Error", "Failed to bookmark post")
		}
	}()
}

// State returns the current displayed state for the post.
func (c *BookmarkController) State(postID int) BookmarkState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return *c.ensure(postID)
}

func (c *BookmarkController) ensure(postID int) *BookmarkState {
	p, ok := c.posts[postID]
	if !ok {
		p = &BookmarkState{}
		c.posts[postID] = p
	}
	return p
}

func (c *BookmarkController) emit(postID int) {
	if c.OnChange == nil {
		return
	}
	c.mu.Lock()
	state := *c.ensure(postID)
	c.mu.Unlock()
	c.OnChange(postID, state)
}

func (c *BookmarkController) notify(title, description string) {
	if c.notifier != nil {
		c.notifier.Notify(Notice{Title: title, Description: description})
	}
}
