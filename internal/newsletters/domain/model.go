package domain

import (
	"errors"
	"time"
)

// Status is a newsletter's publication state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

var (
	ErrNewsletterNotFound = errors.New("newsletter not found")
	ErrInvalidStatus      = errors.New("invalid newsletter status")
	ErrEmptyTitle         = errors.New("newsletter title is empty")
	ErrNotOwner           = errors.New("newsletter belongs to another author")
	ErrSlugTaken          = errors.New("newsletter slug already in use")
)

// Newsletter is one issue. PublishedAt is non-nil exactly when Status is
// published; it records the moment of the most recent publish, not the
// first one.
type Newsletter struct {
	ID           string     `json:"id"`
	Title        string     `json:"title"`
	Slug         string     `json:"slug"`
	Content      string     `json:"content"`
	HeroImageURL string     `json:"heroImageUrl,omitempty"`
	Status       Status     `json:"status"`
	AuthorID     string     `json:"authorId"`
	UpdatedAt    time.Time  `json:"updatedAt"`
	PublishedAt  *time.Time `json:"publishedAt,omitempty"`
}

// Published reports whether the issue is publicly visible.
func (n *Newsletter) Published() bool {
	return n.Status == StatusPublished
}
