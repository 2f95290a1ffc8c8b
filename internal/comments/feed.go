// Package comments manages one event's comment feed: loading the flat list
// into a tree, splicing in newly posted comments without a reload, and
// optimistic like toggles.
package comments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/eventup/eventup/internal/gateway"
	"github.com/eventup/eventup/internal/model"
	"github.com/eventup/eventup/internal/notify"
	"github.com/eventup/eventup/internal/optimistic"
	"github.com/eventup/eventup/internal/session"
	"github.com/eventup/eventup/internal/thread"

	"go.uber.org/zap"
)

// ErrEmptyComment rejects a submission whose text is empty after trimming.
var ErrEmptyComment = errors.New("comment text is empty")

// API is the slice of the gateway the feed needs.
type API interface {
	EventComments(ctx context.Context, eventID int64) ([]model.Comment, error)
	CreateComment(ctx context.Context, in gateway.CreateCommentInput) (model.Comment, error)
	DeleteComment(ctx context.Context, id int64) error
	LikeComment(ctx context.Context, id int64) error
	UnlikeComment(ctx context.Context, id int64) error
}

// Session is the view of the auth state the feed needs.
type Session interface {
	Authenticated() bool
	User() *model.User
}

type Feed struct {
	eventID int64
	api     API
	auth    Session
	notify  notify.Notifier
	log     *zap.Logger
	likes   *optimistic.Toggler

	mu      sync.Mutex
	threads []model.Thread
	loadGen uint64
	replyTo *int64
}

func NewFeed(eventID int64, api API, auth Session, n notify.Notifier, log *zap.Logger) *Feed {
	return &Feed{
		eventID: eventID,
		api:     api,
		auth:    auth,
		notify:  n,
		log:     log,
		likes:   optimistic.NewToggler(),
	}
}

// Load fetches the flat comment list and rebuilds the tree. A Load
// superseded by a newer one discards its response instead of clobbering
// the newer tree.
func (f *Feed) Load(ctx context.Context) error {
	f.mu.Lock()
	f.loadGen++
	gen := f.loadGen
	f.mu.Unlock()

	flat, err := f.api.EventComments(ctx, f.eventID)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	threads, err := thread.Build(flat)
	if err != nil {
		return fmt.Errorf("group comments: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if gen != f.loadGen {
		f.log.Debug("discarding stale comment load", zap.Int64("event_id", f.eventID))
		return nil
	}
	f.threads = threads
	return nil
}

// ReplyTo marks the root the next submission answers. Cleared after a
// successful submit or by ClearReplyTo (the compose UI's cancel).
func (f *Feed) ReplyTo(rootID int64) {
	f.mu.Lock()
	f.replyTo = &rootID
	f.mu.Unlock()
}

func (f *Feed) ClearReplyTo() {
	f.mu.Lock()
	f.replyTo = nil
	f.mu.Unlock()
}

func (f *Feed) ReplyingTo() (int64, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.replyTo == nil {
		return 0, false
	}
	return *f.replyTo, true
}

// Add submits a comment and splices the created record into the tree at
// the right position. On failure the reply-to marker survives and the
// caller keeps the compose text for a retry.
func (f *Feed) Add(ctx context.Context, text string) (model.Comment, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.Comment{}, ErrEmptyComment
	}
	user := f.auth.User()
	if user == nil {
		f.notify.AuthPrompt("Sign in to leave a comment.")
		return model.Comment{}, session.ErrAuthRequired
	}

	f.mu.Lock()
	parent := f.replyTo
	f.mu.Unlock()

	created, err := f.api.CreateComment(ctx, gateway.CreateCommentInput{
		EventID:  f.eventID,
		Text:     text,
		AuthorID: user.ID,
		ParentID: parent,
	})
	if err != nil {
		f.notify.Error("Could not post your comment.")
		return model.Comment{}, fmt.Errorf("create comment: %w", err)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if parent == nil {
		f.threads = thread.Append(f.threads, created)
	} else {
		threads, err := thread.Reply(f.threads, *parent, created)
		if err != nil {
			// Parent thread gone locally; the comment exists server-side
			// and shows up on the next load.
			f.log.Warn("created reply has no local thread", zap.Int64("parent_id", *parent))
		}
		f.threads = threads
	}
	f.replyTo = nil
	return created, nil
}

// ToggleLike flips one comment's like state optimistically, rolling back
// on remote failure.
func (f *Feed) ToggleLike(ctx context.Context, commentID int64) error {
	if !f.auth.Authenticated() {
		f.notify.AuthPrompt("Sign in to like comments.")
		return session.ErrAuthRequired
	}
	if _, ok := f.comment(commentID); !ok {
		return fmt.Errorf("no comment %d in feed", commentID)
	}

	var wasLiked bool
	err := f.likes.Do(ctx, optimistic.Op{
		Key: commentID,
		Apply: func() {
			f.update(commentID, func(c *model.Comment) {
				wasLiked = c.Liked
				flipLike(c)
			})
		},
		Remote: func(ctx context.Context) error {
			if wasLiked {
				return f.api.UnlikeComment(ctx, commentID)
			}
			return f.api.LikeComment(ctx, commentID)
		},
		Rollback: func() {
			f.update(commentID, flipLike)
		},
	})
	if err != nil {
		if errors.Is(err, gateway.ErrUnauthorized) {
			f.notify.AuthPrompt("Sign in to like comments.")
		} else {
			f.notify.Error("Could not update the like.")
		}
		return err
	}
	return nil
}

// Delete removes a comment remotely, then from the tree. Deleting a root
// removes the whole thread, replies included.
func (f *Feed) Delete(ctx context.Context, commentID int64) error {
	if err := f.api.DeleteComment(ctx, commentID); err != nil {
		f.notify.Error("Could not delete the comment.")
		return fmt.Errorf("delete comment: %w", err)
	}
	f.mu.Lock()
	f.threads = thread.Remove(f.threads, commentID)
	f.mu.Unlock()
	return nil
}

// Threads snapshots the current tree. Always non-nil, so an empty feed
// renders as an explicit "no comments" state rather than nothing.
func (f *Feed) Threads() []model.Thread {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Thread, len(f.threads))
	for i, t := range f.threads {
		out[i] = model.Thread{
			Root:    t.Root,
			Replies: append([]model.Comment{}, t.Replies...),
		}
	}
	return out
}

func (f *Feed) comment(id int64) (model.Comment, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return thread.Find(f.threads, id)
}

func (f *Feed) update(id int64, fn func(*model.Comment)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	thread.UpdateComment(f.threads, id, fn)
}

func flipLike(c *model.Comment) {
	if c.Liked {
		c.Liked = false
		if c.LikeCount > 0 {
			c.LikeCount--
		}
	} else {
		c.Liked = true
		c.LikeCount++
	}
}
