package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/eventup/eventup/internal/model"
)

func newTestGateway(handler http.Handler) (*Gateway, *httptest.Server) {
	ts := httptest.NewServer(handler)
	return New(ts.URL, 5*time.Second), ts
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Fatalf("encode response: %v", err)
	}
}

func TestLoginSendsFormEncodedCredentials(t *testing.T) {
	var gotUser, gotPass, contentType string
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/login" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		contentType = r.Header.Get("Content-Type")
		_ = r.ParseForm()
		gotUser = r.PostFormValue("username")
		gotPass = r.PostFormValue("password")
		writeJSON(t, w, map[string]string{"access_token": "tok"})
	}))
	defer ts.Close()

	token, err := g.Login(context.Background(), "a@b.c", "pw")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if token != "tok" {
		t.Fatalf("expected token 'tok', got %q", token)
	}
	if contentType != "application/x-www-form-urlencoded" {
		t.Fatalf("expected form encoding, got %q", contentType)
	}
	if gotUser != "a@b.c" || gotPass != "pw" {
		t.Fatalf("credentials not sent: %q/%q", gotUser, gotPass)
	}
}

func TestRequestsCarryBearerTokenAndRequestID(t *testing.T) {
	var auth, reqID string
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		writeJSON(t, w, model.User{ID: 1})
	}))
	defer ts.Close()

	g.SetToken("secret")
	if _, err := g.Me(context.Background()); err != nil {
		t.Fatalf("me: %v", err)
	}
	if auth != "Bearer secret" {
		t.Fatalf("expected bearer header, got %q", auth)
	}
	if reqID == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}

func TestClearedTokenIsNotSent(t *testing.T) {
	var auth string
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		writeJSON(t, w, []model.Event{})
	}))
	defer ts.Close()

	g.SetToken("secret")
	g.SetToken("")
	if _, err := g.ListEvents(context.Background(), ListEventsOpts{}); err != nil {
		t.Fatalf("list events: %v", err)
	}
	if auth != "" {
		t.Fatalf("expected no auth header, got %q", auth)
	}
}

func TestStatusCodeErrorMapping(t *testing.T) {
	cases := []struct {
		code int
		want error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusForbidden, ErrForbidden},
		{http.StatusNotFound, ErrNotFound},
	}
	for _, tc := range cases {
		g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.code)
		}))
		if err := g.Favorite(context.Background(), 1); !errors.Is(err, tc.want) {
			t.Errorf("code %d: expected %v, got %v", tc.code, tc.want, err)
		}
		ts.Close()
	}
}

func TestGenericServerErrorIncludesStatusAndBody(t *testing.T) {
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "database on fire", http.StatusInternalServerError)
	}))
	defer ts.Close()

	err := g.Favorite(context.Background(), 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if got := err.Error(); !strings.Contains(got, "500") || !strings.Contains(got, "database on fire") {
		t.Fatalf("error should carry status and body, got %q", got)
	}
}

func TestListEventsBuildsQuery(t *testing.T) {
	var query string
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		writeJSON(t, w, []model.Event{{ID: 1, Title: "gig"}})
	}))
	defer ts.Close()

	unapproved := false
	events, err := g.ListEvents(context.Background(), ListEventsOpts{
		Category: "Концерт",
		Approved: &unapproved,
		SortBy:   "event_date",
		Order:    "desc",
		Limit:    10,
	})
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 || events[0].Title != "gig" {
		t.Fatalf("unexpected events: %+v", events)
	}
	for _, part := range []string{"is_approved=false", "sort_by=event_date", "order=desc", "limit=10"} {
		if !strings.Contains(query, part) {
			t.Errorf("query missing %q: %s", part, query)
		}
	}
}

func TestCreateCommentRoundTrip(t *testing.T) {
	var got CreateCommentInput
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/comments/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		writeJSON(t, w, model.Comment{ID: 77, EventID: got.EventID, ParentID: got.ParentID, Text: got.Text})
	}))
	defer ts.Close()

	parent := int64(4)
	created, err := g.CreateComment(context.Background(), CreateCommentInput{
		EventID:  2,
		Text:     "hi",
		AuthorID: 9,
		ParentID: &parent,
	})
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if created.ID != 77 {
		t.Fatalf("expected server-assigned id 77, got %d", created.ID)
	}
	if got.ParentID == nil || *got.ParentID != 4 || got.AuthorID != 9 {
		t.Fatalf("payload not forwarded: %+v", got)
	}
}

func TestFavoriteEndpoints(t *testing.T) {
	var paths []string
	g, ts := newTestGateway(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.Method+" "+r.URL.Path)
		writeJSON(t, w, []model.Event{})
	}))
	defer ts.Close()

	ctx := context.Background()
	if _, err := g.FavoriteEvents(ctx); err != nil {
		t.Fatalf("favorites: %v", err)
	}
	if err := g.Favorite(ctx, 5); err != nil {
		t.Fatalf("favorite: %v", err)
	}
	if err := g.Unfavorite(ctx, 5); err != nil {
		t.Fatalf("unfavorite: %v", err)
	}

	want := []string{"GET /events/favorites", "POST /events/5/favorite", "POST /events/5/unfavorite"}
	for i, w := range want {
		if paths[i] != w {
			t.Errorf("call %d: expected %q, got %q", i, w, paths[i])
		}
	}
}
