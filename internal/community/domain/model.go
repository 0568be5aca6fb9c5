package domain

import (
	"errors"
	"time"
)

// EditWindow is how long a post's author may modify its content, measured
// from the server-assigned creation time.
const EditWindow = 3 * time.Minute

// AnonymousAuthor labels posts from principals without a display name.
const AnonymousAuthor = "Anonymous Reader"

var (
	ErrPostNotFound      = errors.New("post not found")
	ErrEmptyContent      = errors.New("post content is empty")
	ErrNotAuthor         = errors.New("only the author may edit a post")
	ErrEditWindowElapsed = errors.New("edit window has elapsed")
)

// ReplyRef is a denormalized pointer to the post being replied to. It is
// advisory only: rendered as a label, never validated against the target's
// continued existence, and no reply tree is built from it.
type ReplyRef struct {
	ID         string `json:"id"`
	AuthorName string `json:"authorName"`
}

// Post is one entry in a discussion feed. NewsletterID nil means the
// general feed; every post must carry an explicit value (possibly null) at
// creation time and is never moved afterward.
type Post struct {
	ID           string    `json:"id"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"authorId"`
	AuthorName   string    `json:"authorName"`
	CreatedAt    time.Time `json:"createdAt"`
	NewsletterID *string   `json:"newsletterId"`
	ReplyTo      *ReplyRef `json:"replyTo,omitempty"`
}

// EditableBy reports whether uid may still edit the post at the given time.
// A post whose server timestamp has not resolved yet counts as in-window;
// that allowance is deliberate, not a bug to tighten.
func (p Post) EditableBy(uid string, now time.Time) bool {
	if p.AuthorID != uid {
		return false
	}
	if p.CreatedAt.IsZero() {
		return true
	}
	return now.Sub(p.CreatedAt) < EditWindow
}
