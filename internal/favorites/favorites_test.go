package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/eventup/eventup/internal/gateway"
	"github.com/eventup/eventup/internal/model"
	"github.com/eventup/eventup/internal/session"

	"go.uber.org/zap"
)

type fakeAPI struct {
	favorites     []model.Event
	listErr       error
	favoriteErr   error
	unfavoriteErr error
	favoriteCalls int
	unfavCalls    int
}

func (f *fakeAPI) FavoriteEvents(ctx context.Context) ([]model.Event, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.favorites, nil
}

func (f *fakeAPI) Favorite(ctx context.Context, eventID int64) error {
	f.favoriteCalls++
	return f.favoriteErr
}

func (f *fakeAPI) Unfavorite(ctx context.Context, eventID int64) error {
	f.unfavCalls++
	return f.unfavoriteErr
}

type fakeAuth struct{ authed bool }

func (f fakeAuth) Authenticated() bool { return f.authed }

type recordingNotifier struct {
	infos   []string
	errors  []string
	prompts []string
}

func (r *recordingNotifier) Info(msg string)       { r.infos = append(r.infos, msg) }
func (r *recordingNotifier) Error(msg string)      { r.errors = append(r.errors, msg) }
func (r *recordingNotifier) AuthPrompt(msg string) { r.prompts = append(r.prompts, msg) }

func newTestProvider(api *fakeAPI, authed bool) (*Provider, *recordingNotifier) {
	n := &recordingNotifier{}
	return NewProvider(api, fakeAuth{authed: authed}, n, zap.NewNop()), n
}

func TestRefreshDerivesIDSet(t *testing.T) {
	api := &fakeAPI{favorites: []model.Event{{ID: 5}, {ID: 2}}}
	p, _ := newTestProvider(api, true)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if !p.IsFavorite(5) || !p.IsFavorite(2) || p.IsFavorite(9) {
		t.Fatalf("unexpected membership: %v", p.IDs())
	}
	if ids := p.IDs(); len(ids) != 2 || ids[0] != 2 || ids[1] != 5 {
		t.Fatalf("expected sorted ids [2 5], got %v", ids)
	}
}

func TestRefreshUnauthenticatedShortCircuits(t *testing.T) {
	api := &fakeAPI{listErr: errors.New("must not be called")}
	p, _ := newTestProvider(api, false)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(p.IDs()) != 0 {
		t.Fatalf("expected empty set")
	}
}

func TestRefreshGateway401DegradesToEmpty(t *testing.T) {
	api := &fakeAPI{listErr: gateway.ErrUnauthorized}
	p, _ := newTestProvider(api, true)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("401 should not error the caller: %v", err)
	}
	if len(p.IDs()) != 0 {
		t.Fatalf("expected empty set on 401")
	}
}

func TestToggleRoundTrip(t *testing.T) {
	api := &fakeAPI{}
	p, n := newTestProvider(api, true)

	if err := p.Toggle(context.Background(), 5); err != nil {
		t.Fatalf("first toggle: %v", err)
	}
	if !p.IsFavorite(5) {
		t.Fatalf("expected 5 favorited")
	}
	if api.favoriteCalls != 1 {
		t.Fatalf("expected one favorite call, got %d", api.favoriteCalls)
	}

	if err := p.Toggle(context.Background(), 5); err != nil {
		t.Fatalf("second toggle: %v", err)
	}
	if p.IsFavorite(5) {
		t.Fatalf("expected 5 back out of favorites")
	}
	if api.unfavCalls != 1 {
		t.Fatalf("expected one unfavorite call, got %d", api.unfavCalls)
	}
	if len(n.errors) != 0 || len(n.prompts) != 0 {
		t.Fatalf("no notifications expected on success")
	}
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	api := &fakeAPI{favoriteErr: errors.New("boom")}
	p, n := newTestProvider(api, true)

	if err := p.Toggle(context.Background(), 7); err == nil {
		t.Fatalf("expected toggle error")
	}
	if p.IsFavorite(7) {
		t.Fatalf("expected membership rolled back")
	}
	if len(n.errors) != 1 {
		t.Fatalf("expected exactly one failure notification, got %d", len(n.errors))
	}
}

func TestToggleUnauthenticatedPromptsWithoutMutating(t *testing.T) {
	api := &fakeAPI{}
	p, n := newTestProvider(api, false)

	err := p.Toggle(context.Background(), 9)
	if !errors.Is(err, session.ErrAuthRequired) {
		t.Fatalf("expected ErrAuthRequired, got %v", err)
	}
	if p.IsFavorite(9) {
		t.Fatalf("local state must not flip")
	}
	if api.favoriteCalls != 0 && api.unfavCalls != 0 {
		t.Fatalf("no network call may be issued")
	}
	if len(n.prompts) != 1 {
		t.Fatalf("expected one auth prompt, got %d", len(n.prompts))
	}
}

func TestToggleMidSession401Prompts(t *testing.T) {
	api := &fakeAPI{favoriteErr: gateway.ErrUnauthorized}
	p, n := newTestProvider(api, true)

	if err := p.Toggle(context.Background(), 3); err == nil {
		t.Fatalf("expected error")
	}
	if p.IsFavorite(3) {
		t.Fatalf("expected rollback")
	}
	if len(n.prompts) != 1 || len(n.errors) != 0 {
		t.Fatalf("expected an auth prompt, not a generic failure")
	}
}

func TestClearEmptiesCache(t *testing.T) {
	api := &fakeAPI{favorites: []model.Event{{ID: 1}}}
	p, _ := newTestProvider(api, true)

	if err := p.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	p.Clear()
	if len(p.IDs()) != 0 {
		t.Fatalf("expected empty set after clear")
	}
}
