// Package session owns the authenticated-user state: the persisted bearer
// token and the current profile snapshot. All transitions go through the
// provider; nothing else touches the token slot.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/eventup/eventup/internal/model"
	"github.com/eventup/eventup/internal/store"

	"go.uber.org/zap"
)

// ErrAuthRequired is returned by providers when a mutation is attempted
// without a session. Local state is untouched and no network call is made.
var ErrAuthRequired = errors.New("authentication required")

// State is the authentication lifecycle state.
//
//	Unauthenticated -> Initializing   stored token found at startup
//	Initializing    -> Authenticated  profile fetch succeeded
//	Initializing    -> Invalid        profile fetch failed; token evicted,
//	                                  then back to Unauthenticated
//	Unauthenticated -> Authenticated  explicit login
//	Authenticated   -> Unauthenticated explicit logout
type State int

const (
	Unauthenticated State = iota
	Initializing
	Authenticated
	Invalid
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "initializing"
	case Authenticated:
		return "authenticated"
	case Invalid:
		return "invalid"
	default:
		return "unauthenticated"
	}
}

// API is the slice of the gateway the session needs.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	Register(ctx context.Context, email, password, name string) error
	Me(ctx context.Context) (model.User, error)
	SetToken(token string)
}

type Provider struct {
	api    API
	tokens store.Store
	log    *zap.Logger

	mu      sync.Mutex
	state   State
	user    *model.User
	onReset []func()
}

func NewProvider(api API, tokens store.Store, log *zap.Logger) *Provider {
	return &Provider{api: api, tokens: tokens, log: log}
}

// OnReset registers a hook run whenever the session ends (logout or stale
// token eviction). The favorites provider clears its cache through this.
func (p *Provider) OnReset(fn func()) {
	p.mu.Lock()
	p.onReset = append(p.onReset, fn)
	p.mu.Unlock()
}

// Init resolves a stored token into a session at startup. A token that no
// longer resolves a profile is evicted and the app stays unauthenticated;
// that downgrade is silent, not an error.
func (p *Provider) Init(ctx context.Context) error {
	token, err := p.tokens.LoadToken(ctx)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			p.setState(Unauthenticated, nil)
			return nil
		}
		return fmt.Errorf("load token: %w", err)
	}

	p.setState(Initializing, nil)
	p.api.SetToken(token)

	user, err := p.api.Me(ctx)
	if err != nil {
		p.setState(Invalid, nil)
		p.log.Debug("stored token failed profile resolution, evicting", zap.Error(err))
		p.api.SetToken("")
		if err := p.tokens.DeleteToken(ctx); err != nil {
			p.log.Warn("evict stale token", zap.Error(err))
		}
		p.reset()
		return nil
	}

	p.setState(Authenticated, &user)
	p.log.Debug("session restored", zap.Int64("user_id", user.ID))
	return nil
}

func (p *Provider) Login(ctx context.Context, email, password string) error {
	token, err := p.api.Login(ctx, email, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if err := p.tokens.SaveToken(ctx, token); err != nil {
		return fmt.Errorf("persist token: %w", err)
	}
	p.api.SetToken(token)

	user, err := p.api.Me(ctx)
	if err != nil {
		p.api.SetToken("")
		_ = p.tokens.DeleteToken(ctx)
		return fmt.Errorf("resolve profile: %w", err)
	}

	p.setState(Authenticated, &user)
	return nil
}

// Register creates an account, then logs straight in with the same
// credentials.
func (p *Provider) Register(ctx context.Context, email, password, name string) error {
	if err := p.api.Register(ctx, email, password, name); err != nil {
		return fmt.Errorf("register: %w", err)
	}
	return p.Login(ctx, email, password)
}

func (p *Provider) Logout(ctx context.Context) error {
	if err := p.tokens.DeleteToken(ctx); err != nil {
		return fmt.Errorf("evict token: %w", err)
	}
	p.api.SetToken("")
	p.setState(Unauthenticated, nil)
	p.reset()
	return nil
}

// Refresh re-fetches the profile snapshot after a profile-affecting
// mutation.
func (p *Provider) Refresh(ctx context.Context) error {
	if !p.Authenticated() {
		return nil
	}
	user, err := p.api.Me(ctx)
	if err != nil {
		return fmt.Errorf("refresh profile: %w", err)
	}
	p.setState(Authenticated, &user)
	return nil
}

func (p *Provider) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Provider) Authenticated() bool {
	return p.State() == Authenticated
}

// User returns the profile snapshot, or nil outside the authenticated
// state.
func (p *Provider) User() *model.User {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.user == nil {
		return nil
	}
	u := *p.user
	return &u
}

func (p *Provider) setState(s State, user *model.User) {
	p.mu.Lock()
	p.state = s
	if s == Authenticated {
		p.user = user
	} else {
		p.user = nil
	}
	p.mu.Unlock()
	if s == Invalid {
		// Invalid is transitional: the token is evicted and the session
		// lands back in Unauthenticated.
		p.mu.Lock()
		p.state = Unauthenticated
		p.mu.Unlock()
	}
}

func (p *Provider) reset() {
	p.mu.Lock()
	hooks := append([]func(){}, p.onReset...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn()
	}
}
