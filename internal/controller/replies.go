package controller

import (
	"context"
	"slices"
	"strconv"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"ramen-directory/internal/metrics"
	"ramen-directory/internal/models"
)

// RepliesFunc loads every reply of a top-level comment.
type RepliesFunc func(ctx context.Context, parentID int64) ([]models.Comment, error)

// ReplyEntry is the expansion state of one top-level comment.
type ReplyEntry struct {
	ParentID int64            `json:"parentId"`
	Loaded   bool             `json:"loaded"`
	Loading  bool             `json:"loading"`
	Expanded bool             `json:"expanded"`
	Items    []models.Comment `json:"items"`
	Err      error            `json:"-"`
}

type replyState struct {
	loaded   bool
	loading  bool
	expanded bool
	items    []models.Comment
	err      error
}

// ReplyCache expands and collapses reply lists. Each parent has at most one
// fetch in flight; callers arriving while it runs share its result.
type ReplyCache struct {
	mu      sync.Mutex
	fetch   RepliesFunc
	group   singleflight.Group
	entries map[int64]*replyState
	gen     map[int64]uint64
	closed  bool
	logger  *zap.Logger
}

func NewReplyCache(fetch RepliesFunc, logger *zap.Logger) *ReplyCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplyCache{
		fetch:   fetch,
		entries: make(map[int64]*replyState),
		gen:     make(map[int64]uint64),
		logger:  logger,
	}
}

// Toggle flips a parent between expanded and collapsed, loading its replies
// the first time. While a load is running Toggle does not flip anything; it
// waits for that load and returns its outcome.
func (c *ReplyCache) Toggle(ctx context.Context, parentID int64) (ReplyEntry, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ReplyEntry{ParentID: parentID}, ErrClosed
	}
	e := c.entry(parentID)
	if e.loaded && !e.loading {
		e.expanded = !e.expanded
		snap := e.snapshot(parentID)
		c.mu.Unlock()
		return snap, nil
	}
	e.loading = true
	gen := c.gen[parentID]
	c.mu.Unlock()

	return c.wait(ctx, parentID, gen)
}

// Expand shows the replies of parentID, loading them if needed.
func (c *ReplyCache) Expand(ctx context.Context, parentID int64) (ReplyEntry, error) {
	c.mu.Lock()
	if e, ok := c.entries[parentID]; ok && e.loaded && !e.loading {
		e.expanded = true
		snap := e.snapshot(parentID)
		c.mu.Unlock()
		return snap, nil
	}
	c.mu.Unlock()
	return c.Toggle(ctx, parentID)
}

// Invalidate drops the cached replies of parentID. A load still running for
// the old entry is ignored when it finishes.
func (c *ReplyCache) Invalidate(parentID int64) {
	c.mu.Lock()
	delete(c.entries, parentID)
	c.gen[parentID]++
	c.mu.Unlock()
}

// Reload invalidates and expands again.
func (c *ReplyCache) Reload(ctx context.Context, parentID int64) (ReplyEntry, error) {
	c.Invalidate(parentID)
	return c.Toggle(ctx, parentID)
}

// Prune removes a deleted reply from a loaded entry without fetching.
func (c *ReplyCache) Prune(parentID, replyID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[parentID]
	if !ok || !e.loaded {
		return false
	}
	n := len(e.items)
	e.items = slices.DeleteFunc(e.items, func(r models.Comment) bool { return r.ID == replyID })
	return len(e.items) != n
}

// Entry returns the current state of parentID.
func (c *ReplyCache) Entry(parentID int64) ReplyEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[parentID]; ok {
		return e.snapshot(parentID)
	}
	return ReplyEntry{ParentID: parentID, Items: []models.Comment{}}
}

// Expanded lists the parents currently shown expanded.
func (c *ReplyCache) Expanded() []ReplyEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []ReplyEntry
	for id, e := range c.entries {
		if e.expanded {
			out = append(out, e.snapshot(id))
		}
	}
	slices.SortFunc(out, func(a, b ReplyEntry) int {
		switch {
		case a.ParentID < b.ParentID:
			return -1
		case a.ParentID > b.ParentID:
			return 1
		}
		return 0
	})
	return out
}

// Reset forgets every entry, e.g. when the comment page changes.
func (c *ReplyCache) Reset() {
	c.mu.Lock()
	for id := range c.entries {
		c.gen[id]++
	}
	c.entries = make(map[int64]*replyState)
	c.mu.Unlock()
}

// Close stops applying results of running loads.
func (c *ReplyCache) Close() {
	c.mu.Lock()
	c.closed = true
	c.entries = make(map[int64]*replyState)
	c.mu.Unlock()
}

func (c *ReplyCache) wait(ctx context.Context, parentID int64, gen uint64) (ReplyEntry, error) {
	key := strconv.FormatInt(parentID, 10) + ":" + strconv.FormatUint(gen, 10)
	ch := c.group.DoChan(key, func() (any, error) {
		return c.load(context.WithoutCancel(ctx), parentID, gen)
	})

	select {
	case res := <-ch:
		c.mu.Lock()
		snap := ReplyEntry{ParentID: parentID, Items: []models.Comment{}}
		if e, ok := c.entries[parentID]; ok {
			snap = e.snapshot(parentID)
		}
		c.mu.Unlock()
		return snap, res.Err
	case <-ctx.Done():
		return c.Entry(parentID), ctx.Err()
	}
}

// load runs once per key. A load that starts after an earlier one for the
// same generation already finished returns the cached replies.
func (c *ReplyCache) load(ctx context.Context, parentID int64, gen uint64) ([]models.Comment, error) {
	c.mu.Lock()
	if e, ok := c.entries[parentID]; ok && e.loaded && c.gen[parentID] == gen {
		items := slices.Clone(e.items)
		c.mu.Unlock()
		return items, e.err
	}
	c.mu.Unlock()

	replies, err := c.fetch(ctx, parentID)
	metrics.ReplyFetch(err == nil)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || c.gen[parentID] != gen {
		return replies, err
	}
	e := c.entry(parentID)
	e.loading = false
	e.loaded = true
	e.expanded = true
	e.err = err
	if err != nil {
		c.logger.Warn("reply fetch failed", zap.Int64("parent_id", parentID), zap.Error(err))
		e.items = []models.Comment{}
		return nil, err
	}
	e.items = make([]models.Comment, 0, len(replies))
	for _, r := range replies {
		r.Normalize()
		e.items = append(e.items, r)
	}
	return slices.Clone(e.items), nil
}

func (c *ReplyCache) entry(parentID int64) *replyState {
	e, ok := c.entries[parentID]
	if !ok {
		e = &replyState{items: []models.Comment{}}
		c.entries[parentID] = e
	}
	return e
}

func (e *replyState) snapshot(parentID int64) ReplyEntry {
	return ReplyEntry{
		ParentID: parentID,
		Loaded:   e.loaded,
		Loading:  e.loading,
		Expanded: e.expanded,
		Items:    slices.Clone(e.items),
		Err:      e.err,
	}
}
