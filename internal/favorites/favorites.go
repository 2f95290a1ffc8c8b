// Package favorites caches the current user's favorite-event-id set and
// applies favorite toggles optimistically. The cache lives for the duration
// of a session: it is populated while authenticated and cleared when the
// session ends.
package favorites

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/eventup/eventup/internal/gateway"
	"github.com/eventup/eventup/internal/model"
	"github.com/eventup/eventup/internal/notify"
	"github.com/eventup/eventup/internal/optimistic"
	"github.com/eventup/eventup/internal/session"

	"go.uber.org/zap"
)

// API is the slice of the gateway the provider needs.
type API interface {
	FavoriteEvents(ctx context.Context) ([]model.Event, error)
	Favorite(ctx context.Context, eventID int64) error
	Unfavorite(ctx context.Context, eventID int64) error
}

// Authenticator reports whether a session is active.
type Authenticator interface {
	Authenticated() bool
}

type Provider struct {
	api     API
	auth    Authenticator
	notify  notify.Notifier
	log     *zap.Logger
	toggler *optimistic.Toggler

	mu  sync.Mutex
	ids map[int64]bool
}

func NewProvider(api API, auth Authenticator, n notify.Notifier, log *zap.Logger) *Provider {
	return &Provider{
		api:     api,
		auth:    auth,
		notify:  n,
		log:     log,
		toggler: optimistic.NewToggler(),
		ids:     make(map[int64]bool),
	}
}

// Refresh replaces the cached set with the server's. Outside the
// authenticated state it short-circuits to an empty set without error, as
// does a 401 from the gateway.
func (p *Provider) Refresh(ctx context.Context) error {
	if !p.auth.Authenticated() {
		p.replace(nil)
		return nil
	}
	events, err := p.api.FavoriteEvents(ctx)
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			p.replace(nil)
			return nil
		}
		return err
	}
	ids := make([]int64, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ID)
	}
	p.replace(ids)
	return nil
}

// Toggle flips one event's favorite membership optimistically. On remote
// failure the membership is rolled back and one notification is emitted.
// Without a session nothing flips and the user is prompted to sign in.
func (p *Provider) Toggle(ctx context.Context, eventID int64) error {
	if !p.auth.Authenticated() {
		p.notify.AuthPrompt("Sign in to add events to favorites.")
		return session.ErrAuthRequired
	}

	var was bool
	err := p.toggler.Do(ctx, optimistic.Op{
		Key: eventID,
		Apply: func() {
			was = p.member(eventID)
			p.set(eventID, !was)
		},
		Remote: func(ctx context.Context) error {
			if was {
				return p.api.Unfavorite(ctx, eventID)
			}
			return p.api.Favorite(ctx, eventID)
		},
		Rollback: func() {
			p.set(eventID, was)
		},
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			p.notify.AuthPrompt("Sign in to add events to favorites.")
		} else {
			p.notify.Error("Could not update favorites.")
		}
		p.log.Debug("favorite toggle failed", zap.Int64("event_id", eventID), zap.Error(err))
		return err
	}
	return nil
}

func (p *Provider) IsFavorite(eventID int64) bool {
	return p.member(eventID)
}

// IDs snapshots the favorite set in ascending order.
func (p *Provider) IDs() []int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]int64, 0, len(p.ids))
	for id := range p.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Clear empties the cache and marks in-flight toggles stale. Wired to the
// session provider's reset hook.
func (p *Provider) Clear() {
	p.toggler.Invalidate()
	p.replace(nil)
}

func (p *Provider) member(eventID int64) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ids[eventID]
}

func (p *Provider) set(eventID int64, fav bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if fav {
		p.ids[eventID] = true
	} else {
		delete(p.ids, eventID)
	}
}

func (p *Provider) replace(ids []int64) {
	next := make(map[int64]bool, len(ids))
	for _, id := range ids {
		next[id] = true
	}
	p.mu.Lock()
	p.ids = next
	p.mu.Unlock()
}
