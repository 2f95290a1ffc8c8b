// Package gateway is the Go client for the event platform's REST API.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/eventup/eventup/internal/model"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
)

// Gateway talks to the remote API. It holds the current bearer token; all
// requests carry it plus a fresh X-Request-ID. No retries: a failed request
// surfaces once to the caller.
type Gateway struct {
	http *resty.Client

	mu    sync.RWMutex
	token string
}

func New(baseURL string, timeout time.Duration) *Gateway {
	g := &Gateway{}
	g.http = resty.New().
		SetBaseURL(strings.TrimSuffix(baseURL, "/")).
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetRetryCount(0)
	g.http.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("X-Request-ID", uuid.NewString())
		if t := g.Token(); t != "" {
			req.SetAuthToken(t)
		}
		return nil
	})
	return g
}

// SetToken installs (or clears, with "") the bearer token used on
// subsequent requests.
func (g *Gateway) SetToken(token string) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

func (g *Gateway) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// check maps response status codes onto the gateway error taxonomy.
func check(resp *resty.Response, op string) error {
	switch resp.StatusCode() {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusForbidden:
		return ErrForbidden
	case http.StatusNotFound:
		return ErrNotFound
	}
	if resp.IsError() {
		return fmt.Errorf("%s failed (%d): %s", op, resp.StatusCode(), resp.String())
	}
	return nil
}

// ============================================================================
// AUTH
// ============================================================================

// Login exchanges credentials for a bearer token. The API takes a
// form-encoded body with the email in the username field.
func (g *Gateway) Login(ctx context.Context, email, password string) (string, error) {
	var out struct {
		AccessToken string `json:"access_token"`
	}
	resp, err := g.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"username": email, "password": password}).
		SetResult(&out).
		Post("/login")
	if err != nil {
		return "", err
	}
	if err := check(resp, "login"); err != nil {
		return "", err
	}
	return out.AccessToken, nil
}

func (g *Gateway) Register(ctx context.Context, email, password, name string) error {
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"email": email, "password": password, "name": name}).
		Post("/register")
	if err != nil {
		return err
	}
	return check(resp, "register")
}

// Me fetches the current user's profile.
func (g *Gateway) Me(ctx context.Context) (model.User, error) {
	var user model.User
	resp, err := g.http.R().SetContext(ctx).SetResult(&user).Get("/me")
	if err != nil {
		return model.User{}, err
	}
	if err := check(resp, "get profile"); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (g *Gateway) UpdateProfile(ctx context.Context, fields map[string]any) (model.User, error) {
	var user model.User
	resp, err := g.http.R().SetContext(ctx).SetBody(fields).SetResult(&user).Put("/me")
	if err != nil {
		return model.User{}, err
	}
	if err := check(resp, "update profile"); err != nil {
		return model.User{}, err
	}
	return user, nil
}

func (g *Gateway) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"old_password": oldPassword, "new_password": newPassword}).
		Put("/me/password")
	if err != nil {
		return err
	}
	return check(resp, "change password")
}

// ============================================================================
// EVENTS
// ============================================================================

// ListEventsOpts narrows the /events collection. Zero values are omitted
// from the query.
type ListEventsOpts struct {
	Category  string
	Approved  *bool
	CreatorID int64
	SortBy    string
	Order     string
	Limit     int
}

func (g *Gateway) ListEvents(ctx context.Context, opts ListEventsOpts) ([]model.Event, error) {
	req := g.http.R().SetContext(ctx)
	if opts.Category != "" {
		req.SetQueryParam("category", opts.Category)
	}
	if opts.Approved != nil {
		req.SetQueryParam("is_approved", strconv.FormatBool(*opts.Approved))
	}
	if opts.CreatorID != 0 {
		req.SetQueryParam("creator_id", strconv.FormatInt(opts.CreatorID, 10))
	}
	if opts.SortBy != "" {
		req.SetQueryParam("sort_by", opts.SortBy)
	}
	if opts.Order != "" {
		req.SetQueryParam("order", opts.Order)
	}
	if opts.Limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(opts.Limit))
	}

	var events []model.Event
	resp, err := req.SetResult(&events).Get("/events")
	if err != nil {
		return nil, err
	}
	if err := check(resp, "list events"); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *Gateway) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	var event model.Event
	resp, err := g.http.R().SetContext(ctx).SetResult(&event).Get(fmt.Sprintf("/events/%d", id))
	if err != nil {
		return model.Event{}, err
	}
	if err := check(resp, "get event"); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

func (g *Gateway) CreateEvent(ctx context.Context, fields map[string]any) (model.Event, error) {
	var event model.Event
	resp, err := g.http.R().SetContext(ctx).SetBody(fields).SetResult(&event).Post("/events/")
	if err != nil {
		return model.Event{}, err
	}
	if err := check(resp, "create event"); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

func (g *Gateway) UpdateEvent(ctx context.Context, id int64, fields map[string]any) (model.Event, error) {
	var event model.Event
	resp, err := g.http.R().SetContext(ctx).SetBody(fields).SetResult(&event).Put(fmt.Sprintf("/events/%d", id))
	if err != nil {
		return model.Event{}, err
	}
	if err := check(resp, "update event"); err != nil {
		return model.Event{}, err
	}
	return event, nil
}

// ApproveEvent marks a pending event approved. Moderation-only.
func (g *Gateway) ApproveEvent(ctx context.Context, id int64) error {
	resp, err := g.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"is_approved": true}).
		Put(fmt.Sprintf("/events/%d", id))
	if err != nil {
		return err
	}
	return check(resp, "approve event")
}

func (g *Gateway) DeleteEvent(ctx context.Context, id int64) error {
	resp, err := g.http.R().SetContext(ctx).Delete(fmt.Sprintf("/events/%d", id))
	if err != nil {
		return err
	}
	return check(resp, "delete event")
}

func (g *Gateway) EventsByUser(ctx context.Context, userID int64) ([]model.Event, error) {
	var events []model.Event
	resp, err := g.http.R().SetContext(ctx).SetResult(&events).Get(fmt.Sprintf("/events/by-user/%d", userID))
	if err != nil {
		return nil, err
	}
	if err := check(resp, "events by user"); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *Gateway) JoinedEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	resp, err := g.http.R().SetContext(ctx).SetResult(&events).Get("/events/joined")
	if err != nil {
		return nil, err
	}
	if err := check(resp, "joined events"); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *Gateway) Attend(ctx context.Context, eventID int64) error {
	resp, err := g.http.R().SetContext(ctx).Post(fmt.Sprintf("/events/%d/attend", eventID))
	if err != nil {
		return err
	}
	return check(resp, "attend event")
}

func (g *Gateway) CancelAttendance(ctx context.Context, eventID int64) error {
	resp, err := g.http.R().SetContext(ctx).Post(fmt.Sprintf("/events/%d/cancel", eventID))
	if err != nil {
		return err
	}
	return check(resp, "cancel attendance")
}

func (g *Gateway) ListParticipants(ctx context.Context, eventID int64) ([]model.User, error) {
	var users []model.User
	resp, err := g.http.R().SetContext(ctx).SetResult(&users).Get(fmt.Sprintf("/events/%d/participants", eventID))
	if err != nil {
		return nil, err
	}
	if err := check(resp, "list participants"); err != nil {
		return nil, err
	}
	return users, nil
}

// ============================================================================
// FAVORITES
// ============================================================================

// FavoriteEvents returns the current user's favorited events. The caller
// derives the favorite-id set from this.
func (g *Gateway) FavoriteEvents(ctx context.Context) ([]model.Event, error) {
	var events []model.Event
	resp, err := g.http.R().SetContext(ctx).SetResult(&events).Get("/events/favorites")
	if err != nil {
		return nil, err
	}
	if err := check(resp, "list favorites"); err != nil {
		return nil, err
	}
	return events, nil
}

func (g *Gateway) Favorite(ctx context.Context, eventID int64) error {
	resp, err := g.http.R().SetContext(ctx).Post(fmt.Sprintf("/events/%d/favorite", eventID))
	if err != nil {
		return err
	}
	return check(resp, "favorite event")
}

func (g *Gateway) Unfavorite(ctx context.Context, eventID int64) error {
	resp, err := g.http.R().SetContext(ctx).Post(fmt.Sprintf("/events/%d/unfavorite", eventID))
	if err != nil {
		return err
	}
	return check(resp, "unfavorite event")
}

// ============================================================================
// COMMENTS
// ============================================================================

// EventComments returns the flat, server-ordered comment list for an event.
func (g *Gateway) EventComments(ctx context.Context, eventID int64) ([]model.Comment, error) {
	var comments []model.Comment
	resp, err := g.http.R().SetContext(ctx).SetResult(&comments).Get(fmt.Sprintf("/comments/event/%d", eventID))
	if err != nil {
		return nil, err
	}
	if err := check(resp, "list comments"); err != nil {
		return nil, err
	}
	return comments, nil
}

type CreateCommentInput struct {
	EventID  int64  `json:"event_id"`
	Text     string `json:"text"`
	AuthorID int64  `json:"author_id"`
	ParentID *int64 `json:"parent_id"`
}

// CreateComment posts a comment and returns the created record with its
// server-assigned id.
func (g *Gateway) CreateComment(ctx context.Context, in CreateCommentInput) (model.Comment, error) {
	var comment model.Comment
	resp, err := g.http.R().SetContext(ctx).SetBody(in).SetResult(&comment).Post("/comments/")
	if err != nil {
		return model.Comment{}, err
	}
	if err := check(resp, "create comment"); err != nil {
		return model.Comment{}, err
	}
	return comment, nil
}

func (g *Gateway) DeleteComment(ctx context.Context, id int64) error {
	resp, err := g.http.R().SetContext(ctx).Delete(fmt.Sprintf("/comments/%d", id))
	if err != nil {
		return err
	}
	return check(resp, "delete comment")
}

func (g *Gateway) LikeComment(ctx context.Context, id int64) error {
	resp, err := g.http.R().SetContext(ctx).Post(fmt.Sprintf("/comments/%d/like", id))
	if err != nil {
		return err
	}
	return check(resp, "like comment")
}

func (g *Gateway) UnlikeComment(ctx context.Context, id int64) error {
	resp, err := g.http.R().SetContext(ctx).Post(fmt.Sprintf("/comments/%d/unlike", id))
	if err != nil {
		return err
	}
	return check(resp, "unlike comment")
}

// ============================================================================
// FRIENDS
// ============================================================================

func (g *Gateway) Friends(ctx context.Context) ([]model.User, error) {
	return g.userList(ctx, "/friends", "list friends")
}

func (g *Gateway) IncomingRequests(ctx context.Context) ([]model.User, error) {
	return g.userList(ctx, "/friends/incoming", "incoming requests")
}

func (g *Gateway) OutgoingRequests(ctx context.Context) ([]model.User, error) {
	return g.userList(ctx, "/friends/outgoing", "outgoing requests")
}

func (g *Gateway) MutualFriends(ctx context.Context, userID int64) ([]model.User, error) {
	return g.userList(ctx, fmt.Sprintf("/friends/mutual/%d", userID), "mutual friends")
}

func (g *Gateway) userList(ctx context.Context, path, op string) ([]model.User, error) {
	var users []model.User
	resp, err := g.http.R().SetContext(ctx).SetResult(&users).Get(path)
	if err != nil {
		return nil, err
	}
	if err := check(resp, op); err != nil {
		return nil, err
	}
	return users, nil
}

func (g *Gateway) FriendshipStatus(ctx context.Context, userID int64) (model.FriendStatus, error) {
	var out struct {
		Status model.FriendStatus `json:"status"`
	}
	resp, err := g.http.R().SetContext(ctx).SetResult(&out).Get(fmt.Sprintf("/friends/status/%d", userID))
	if err != nil {
		return "", err
	}
	if err := check(resp, "friendship status"); err != nil {
		return "", err
	}
	return out.Status, nil
}

func (g *Gateway) RequestFriend(ctx context.Context, userID int64) error {
	return g.friendAction(ctx, fmt.Sprintf("/friends/%d", userID), "request friend")
}

func (g *Gateway) AcceptFriend(ctx context.Context, userID int64) error {
	return g.friendAction(ctx, fmt.Sprintf("/friends/%d/accept", userID), "accept friend")
}

func (g *Gateway) CancelRequest(ctx context.Context, userID int64) error {
	return g.friendAction(ctx, fmt.Sprintf("/friends/%d/cancel", userID), "cancel request")
}

func (g *Gateway) RemoveFriend(ctx context.Context, userID int64) error {
	return g.friendAction(ctx, fmt.Sprintf("/friends/%d/remove", userID), "remove friend")
}

func (g *Gateway) friendAction(ctx context.Context, path, op string) error {
	resp, err := g.http.R().SetContext(ctx).Post(path)
	if err != nil {
		return err
	}
	return check(resp, op)
}
