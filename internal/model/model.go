package model

import "time"

type Event struct {
	ID           int64     `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	EventDate    time.Time `json:"event_date"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"created_at"`
	CreatorID    int64     `json:"creator_id"`
	ImageURL     string    `json:"image_url,omitempty"`
	Location     string    `json:"location"`
	Participants int       `json:"participants"`
	Approved     bool      `json:"is_approved"`
	Favorite     bool      `json:"is_favorite,omitempty"`
}

type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	Admin            bool      `json:"is_admin"`
	AvatarURL        string    `json:"avatar_url,omitempty"`
	RegisteredEvents []int64   `json:"registered_events"`
	CreatedAt        time.Time `json:"created_at"`
}

// Author is the snapshot of a comment's author embedded in comment payloads.
type Author struct {
	ID        int64  `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

type Comment struct {
	ID        int64     `json:"id"`
	EventID   int64     `json:"event_id"`
	ParentID  *int64    `json:"parent_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
	Author    Author    `json:"author"`
	LikeCount int       `json:"like_count"`
	Liked     bool      `json:"is_liked"`
}

// Root reports whether the comment anchors its own thread.
func (c Comment) Root() bool {
	return c.ParentID == nil
}

// Thread is a root comment together with its direct replies, both in
// server-returned order.
type Thread struct {
	Root    Comment
	Replies []Comment
}

type FriendStatus string

const (
	FriendStatusNone     FriendStatus = "none"
	FriendStatusOutgoing FriendStatus = "outgoing"
	FriendStatusIncoming FriendStatus = "incoming"
	FriendStatusFriends  FriendStatus = "friends"
)
