package domain

import (
	"errors"
	"time"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrNotSubscriber        = errors.New("subscription belongs to another user")
	ErrAlreadySubscribed    = errors.New("already subscribed")
)

// Subscription links one user to one newsletter.
type Subscription struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	NewsletterID string    `json:"newsletterId"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Enriched is a subscription joined with its newsletter's display fields.
// Newsletter is nil when the fetch failed or the issue is gone; the row
// still renders unenriched.
type Enriched struct {
	Subscription
	Newsletter *NewsletterSummary `json:"newsletter,omitempty"`
}

// NewsletterSummary is the slice of the newsletter document the
// subscription list displays.
type NewsletterSummary struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	HeroImageURL string     `json:"heroImageUrl,omitempty"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}
