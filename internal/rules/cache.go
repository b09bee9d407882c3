// Package rules keeps each student's trade rules in memory and refreshes
// them when the rule table changes.
package rules

import (
	"context"
	"slices"
	"sync"

	"github.com/kjannette/maichez-backend/internal/logger"
	"github.com/kjannette/maichez-backend/internal/models"
)

type Op string

const (
	OpInsert Op = "INSERT"
	OpUpdate Op = "UPDATE"
	OpDelete Op = "DELETE"
	// OpResync asks for every cached user to be reloaded, e.g. after the
	// change stream reconnected and may have missed events.
	OpResync Op = "RESYNC"
)

// Change is one event on the rule table. An empty UserID means any user.
type Change struct {
	Op     Op     `json:"op"`
	RuleID string `json:"id"`
	UserID string `json:"user_id"`
}

// ChangeSource delivers rule changes until ctx is done, then closes the channel.
type ChangeSource interface {
	Changes(ctx context.Context) (<-chan Change, error)
}

type Store interface {
	ListByUser(ctx context.Context, userID string) ([]models.TradeRule, error)
}

// Status is what the assistant shows about a user's rules.
type Status struct {
	Count   int  `json:"count"`
	Loading bool `json:"loading"`
}

type entry struct {
	rules  []models.TradeRule
	loaded bool
	// started counts fetches begun for the user, stored is the number of
	// the fetch whose result is in rules. An older fetch never replaces a
	// newer one.
	started uint64
	stored  uint64
}

type Cache struct {
	store Store

	mu    sync.RWMutex
	users map[string]*entry
}

func NewCache(store Store) *Cache {
	return &Cache{store: store, users: make(map[string]*entry)}
}

// Rules returns the user's rules, loading them on first use. When a load
// fails the last known list is returned with the error.
func (c *Cache) Rules(ctx context.Context, userID string) ([]models.TradeRule, error) {
	c.mu.RLock()
	e, ok := c.users[userID]
	if ok && e.loaded {
		out := slices.Clone(e.rules)
		c.mu.RUnlock()
		return out, nil
	}
	c.mu.RUnlock()

	err := c.Refresh(ctx, userID)
	return c.cached(userID), err
}

func (c *Cache) cached(userID string) []models.TradeRule {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if e, ok := c.users[userID]; ok {
		return slices.Clone(e.rules)
	}
	return nil
}

// Texts returns the rule texts for the validator. Load errors are logged
// and whatever is cached is used.
func (c *Cache) Texts(ctx context.Context, userID string) []string {
	rules, err := c.Rules(ctx, userID)
	if err != nil {
		logger.ErrorWithErr(ctx, "Failed to load trade rules", err, "user_id", userID)
	}
	return models.RuleTexts(rules)
}

// Refresh reloads one user's rules from the store. On failure the cached
// list is kept and the user stays in the loading state. A result that
// arrives after a later fetch has already been stored is dropped, as is a
// result for a user forgotten while the fetch ran.
func (c *Cache) Refresh(ctx context.Context, userID string) error {
	c.mu.Lock()
	e, ok := c.users[userID]
	if !ok {
		e = &entry{}
		c.users[userID] = e
	}
	e.started++
	gen := e.started
	c.mu.Unlock()

	rules, err := c.store.ListByUser(ctx, userID)
	if err != nil {
		return err
	}

	c.mu.Lock()
	cur := c.users[userID]
	if cur != e || gen < e.stored {
		c.mu.Unlock()
		logger.Debug(ctx, "Discarding stale trade rules", "user_id", userID)
		return nil
	}
	e.rules = rules
	e.loaded = true
	e.stored = gen
	c.mu.Unlock()

	logger.Debug(ctx, "Trade rules refreshed", "user_id", userID, "count", len(rules))
	return nil
}

func (c *Cache) Status(userID string) Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.users[userID]
	if !ok {
		return Status{Loading: true}
	}
	return Status{Count: len(e.rules), Loading: !e.loaded}
}

// Users lists every user with a cache entry.
func (c *Cache) Users() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.users))
	for id := range c.users {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Forget drops a user's entry.
func (c *Cache) Forget(userID string) {
	c.mu.Lock()
	delete(c.users, userID)
	c.mu.Unlock()
}

// Apply handles one change: a full reload of the affected user, or of every
// cached user when the change names none. Users not in the cache are ignored.
func (c *Cache) Apply(ctx context.Context, ch Change) {
	targets := c.Users()
	if ch.UserID != "" {
		if !slices.Contains(targets, ch.UserID) {
			return
		}
		targets = []string{ch.UserID}
	}
	for _, userID := range targets {
		if err := c.Refresh(ctx, userID); err != nil {
			logger.ErrorWithErr(ctx, "Failed to refresh trade rules", err,
				"user_id", userID, "op", string(ch.Op))
		}
	}
}

// Run applies changes from src until ctx is done or the source closes.
func (c *Cache) Run(ctx context.Context, src ChangeSource) error {
	changes, err := src.Changes(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ch, ok := <-changes:
			if !ok {
				return nil
			}
			c.Apply(ctx, ch)
		}
	}
}
