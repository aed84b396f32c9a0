package client

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// DefaultDebounce is the window within which rapid repeated clicks on the
// same post coalesce into a single network call.
const DefaultDebounce = 300 * time.Millisecond

// VoteState is the displayed vote triple for one post. The triple is kept
// internally consistent at all times: Vote == +1 implies Upvotes already
// includes that vote, even mid-flight.
type VoteState struct {
	Vote      int
	Upvotes   int
	Downvotes int
	Pending   bool
}

type postVotes struct {
	state VoteState
	// snapshot is the rollback target, captured immutably when the post
	// leaves Idle and cleared when it settles
	snapshot *VoteState
	timer    *time.Timer
	// timerGen identifies the live timer. A timer that fires after it has
	// been superseded (Stop raced its expiry) carries a stale generation
	// and must not dispatch.
	timerGen uint64
	intent   int // latest value to send; older intents are coalesced away
	inFlight bool
	queued   bool // debounce expired while a call was in flight
}

// VoteController owns per-post vote state. Clicks update the displayed
// counts immediately; the network call is debounced, serialized to at most
// one in flight per post, and reconciled against the server's counts (or
// rolled back) when it resolves.
type VoteController struct {
	api           API
	authenticated bool
	notifier      Notifier
	log           *slog.Logger

	// Debounce may be shortened before first use, e.g. in tests.
	Debounce time.Duration
	// OnChange, if set before first use, observes every state change.
	OnChange func(postID int, state VoteState)

	mu    sync.Mutex
	posts map[int]*postVotes
}

func NewVoteController(api API, authenticated bool, notifier Notifier, log *slog.Logger) *VoteController {
	return &VoteController{
		api:           api,
		authenticated: authenticated,
		notifier:      notifier,
		log:           log,
		Debounce:      DefaultDebounce,
		posts:         make(map[int]*postVotes),
	}
}

// Initialize populates the post's state from the server. A failed read is
// logged and leaves the safe zero state; it never blocks interaction.
func (c *VoteController) Initialize(ctx context.Context, postID int) {
	status, err := c.api.VoteStatus(ctx, postID)

	c.mu.Lock()
	p := c.ensure(postID)
	if err != nil {
		c.log.Warn("vote status read failed", "post_id", postID, "err", err)
		p.state = VoteState{}
	} else {
		p.state = VoteState{
			Vote:      status.UserVote,
			Upvotes:   status.Upvotes,
			Downvotes: status.Downvotes,
		}
	}
	c.mu.Unlock()

	c.emit(postID)
}

// RequestVote registers a click on the upvote (+1) or downvote (-1) control.
// The displayed state changes immediately; the network call is scheduled
// into the post's debounce window carrying the latest clicked value.
func (c *VoteController) RequestVote(postID, value int) {
	if value != 1 && value != -1 {
		return
	}
	if !c.authenticated {
		c.notify("Authentication required", "Please login to vote")
		return
	}

	c.mu.Lock()
	p := c.ensure(postID)

	if p.snapshot == nil {
		snap := p.state
		snap.Pending = false
		p.snapshot = &snap
	}

	applyVote(&p.state, value)
	p.state.Pending = true
	p.intent = value

	if p.timer != nil {
		// Stop may return false when the timer already fired and its
		// flush is waiting on the mutex; the generation bump below
		// turns that late flush into a no-op
		p.timer.Stop()
	}
	p.timerGen++
	gen := p.timerGen
	p.timer = time.AfterFunc(c.Debounce, func() { c.flush(postID, gen) })
	c.mu.Unlock()

	c.emit(postID)
}

// State returns the current displayed state for the post.
func (c *VoteController) State(postID int) VoteState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ensure(postID).state
}

// applyVote performs the same three-way transition the server applies:
// repeating the current vote retracts it, anything else sets it, adjusting
// both counters so the triple stays consistent.
func applyVote(s *VoteState, value int) {
	if value == s.Vote {
		s.Vote = 0
		if value == 1 {
			s.Upvotes--
		} else {
			s.Downvotes--
		}
		return
	}
	if value == 1 {
		s.Upvotes++
		if s.Vote == -1 {
			s.Downvotes--
		}
	} else {
		s.Downvotes++
		if s.Vote == 1 {
			s.Upvotes--
		}
	}
	s.Vote = value
}

// flush runs when the debounce window elapses. gen ties the call to the
// timer that scheduled it: a superseded timer's flush returns without
// dispatching, so one window never produces two casts.
func (c *VoteController) flush(postID int, gen uint64) {
	c.mu.Lock()
	p := c.posts[postID]
	if p == nil || gen != p.timerGen {
		c.mu.Unlock()
		return
	}
	p.timer = nil
	if p.inFlight {
		// never two outstanding casts for the same post; dispatch again
		// once the in-flight call resolves
		p.queued = true
		c.mu.Unlock()
		return
	}
	p.inFlight = true
	value := p.intent
	c.mu.Unlock()

	c.send(postID, value)
}

func (c *VoteController) send(postID, value int) {
	counts, err := c.api.CastVote(context.Background(), postID, value)

	c.mu.Lock()
	p := c.posts[postID]
	if p == nil {
		c.mu.Unlock()
		return
	}
	p.inFlight = false

	if err != nil {
		// restore the pre-burst snapshot exactly and drop any queued intent
		if p.timer != nil {
			p.timer.Stop()
			p.timer = nil
		}
		p.timerGen++ // a timer that already fired must not dispatch after rollback
		p.queued = false
		if p.snapshot != nil {
			p.state = *p.snapshot
			p.snapshot = nil
		}
		p.state.Pending = false
		c.mu.Unlock()

		c.emit(postID)
		c.log.Warn("cast vote failed", "post_id", postID, "err", err)
		c.notify("Error", "Failed to process vote")
		return
	}

	if p.queued {
		p.queued = false
		p.inFlight = true
		next := p.intent
		c.mu.Unlock()
		c.send(postID, next)
		return
	}

	if p.timer != nil {
		// newer clicks rescheduled the debounce after this call was
		// dispatched; these counts are stale relative to that intent, so
		// let the follow-up call settle the state
		c.mu.Unlock()
		return
	}

	// the vote mirrors what was just sent; the counts come from the server
	// since other users may have voted concurrently
	p.state.Upvotes = counts.Upvotes
	p.state.Downvotes = counts.Downvotes
	p.state.Pending = false
	p.snapshot = nil
	c.mu.Unlock()

	c.emit(postID)
}

func (c *VoteController) ensure(postID int) *postVotes {
	p, ok := c.posts[postID]
	if !ok {
		p = &postVotes{}
		c.posts[postID] = p
	}
	return p
}

func (c *VoteController) emit(postID int) {
	if c.OnChange == nil {
		return
	}
	c.mu.Lock()
	state := c.ensure(postID).state
	c.mu.Unlock()
	c.OnChange(postID, state)
}

func (c *VoteController) notify(title, description string) {
	if c.notifier != nil {
		c.notifier.Notify(Notice{Title: title, Description: description})
	}
}
