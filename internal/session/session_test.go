package session

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/eventup/eventup/internal/model"
	"github.com/eventup/eventup/internal/store"
	"github.com/eventup/eventup/internal/store/sqlite"

	"go.uber.org/zap"
)

type fakeAPI struct {
	token     string
	loginErr  error
	meErr     error
	user      model.User
	setTokens []string
}

func (f *fakeAPI) Login(ctx context.Context, email, password string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return f.token, nil
}

func (f *fakeAPI) Register(ctx context.Context, email, password, name string) error {
	return nil
}

func (f *fakeAPI) Me(ctx context.Context) (model.User, error) {
	if f.meErr != nil {
		return model.User{}, f.meErr
	}
	return f.user, nil
}

func (f *fakeAPI) SetToken(token string) {
	f.setTokens = append(f.setTokens, token)
}

func newTestTokens(t *testing.T) store.Store {
	t.Helper()
	st, err := sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func TestInitWithoutStoredToken(t *testing.T) {
	api := &fakeAPI{}
	p := NewProvider(api, newTestTokens(t), zap.NewNop())

	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if p.State() != Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", p.State())
	}
	if p.User() != nil {
		t.Fatalf("expected nil user")
	}
}

func TestInitRestoresSession(t *testing.T) {
	tokens := newTestTokens(t)
	if err := tokens.SaveToken(context.Background(), "stored-token"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	api := &fakeAPI{user: model.User{ID: 9, Username: "ana"}}
	p := NewProvider(api, tokens, zap.NewNop())

	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if p.State() != Authenticated {
		t.Fatalf("expected authenticated, got %v", p.State())
	}
	if u := p.User(); u == nil || u.ID != 9 {
		t.Fatalf("expected user 9, got %+v", u)
	}
	if len(api.setTokens) == 0 || api.setTokens[0] != "stored-token" {
		t.Fatalf("expected stored token installed on gateway")
	}
}

func TestInitEvictsStaleToken(t *testing.T) {
	tokens := newTestTokens(t)
	if err := tokens.SaveToken(context.Background(), "stale"); err != nil {
		t.Fatalf("seed token: %v", err)
	}

	api := &fakeAPI{meErr: errors.New("401")}
	p := NewProvider(api, tokens, zap.NewNop())

	resetCalled := false
	p.OnReset(func() { resetCalled = true })

	// The downgrade is silent.
	if err := p.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	if p.State() != Unauthenticated {
		t.Fatalf("expected unauthenticated after stale token, got %v", p.State())
	}
	if _, err := tokens.LoadToken(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected stale token evicted, got %v", err)
	}
	if !resetCalled {
		t.Fatalf("expected reset hook to fire")
	}
	if last := api.setTokens[len(api.setTokens)-1]; last != "" {
		t.Fatalf("expected gateway token cleared, got %q", last)
	}
}

func TestLoginPersistsTokenAndUser(t *testing.T) {
	tokens := newTestTokens(t)
	api := &fakeAPI{token: "fresh", user: model.User{ID: 3, Username: "bo"}}
	p := NewProvider(api, tokens, zap.NewNop())

	if err := p.Login(context.Background(), "bo@example.com", "pw"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if !p.Authenticated() {
		t.Fatalf("expected authenticated")
	}
	got, err := tokens.LoadToken(context.Background())
	if err != nil || got != "fresh" {
		t.Fatalf("expected persisted token, got %q (%v)", got, err)
	}
}

func TestLoginFailureLeavesUnauthenticated(t *testing.T) {
	tokens := newTestTokens(t)
	api := &fakeAPI{loginErr: errors.New("bad credentials")}
	p := NewProvider(api, tokens, zap.NewNop())

	if err := p.Login(context.Background(), "x", "y"); err == nil {
		t.Fatalf("expected login error")
	}
	if p.State() != Unauthenticated {
		t.Fatalf("expected unauthenticated, got %v", p.State())
	}
	if _, err := tokens.LoadToken(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("no token should be persisted, got %v", err)
	}
}

func TestLogoutClearsEverything(t *testing.T) {
	tokens := newTestTokens(t)
	api := &fakeAPI{token: "tk", user: model.User{ID: 1}}
	p := NewProvider(api, tokens, zap.NewNop())

	resets := 0
	p.OnReset(func() { resets++ })

	if err := p.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := p.Logout(context.Background()); err != nil {
		t.Fatalf("logout: %v", err)
	}

	if p.State() != Unauthenticated || p.User() != nil {
		t.Fatalf("expected clean session after logout")
	}
	if _, err := tokens.LoadToken(context.Background()); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("expected token evicted, got %v", err)
	}
	if resets != 1 {
		t.Fatalf("expected one reset, got %d", resets)
	}
}

func TestRefreshUpdatesSnapshot(t *testing.T) {
	api := &fakeAPI{token: "tk", user: model.User{ID: 1, Username: "old"}}
	p := NewProvider(api, newTestTokens(t), zap.NewNop())

	if err := p.Login(context.Background(), "a", "b"); err != nil {
		t.Fatalf("login: %v", err)
	}

	api.user.Username = "new"
	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if u := p.User(); u.Username != "new" {
		t.Fatalf("expected refreshed snapshot, got %q", u.Username)
	}
}

func TestRefreshOutsideSessionIsNoop(t *testing.T) {
	api := &fakeAPI{meErr: errors.New("should not be called")}
	p := NewProvider(api, newTestTokens(t), zap.NewNop())

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh outside session: %v", err)
	}
}
