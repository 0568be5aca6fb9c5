package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/verso-press/verso-backend/internal/community/domain"
)

// PostStore is the slice of the post repository the board needs.
type PostStore interface {
	List(ctx context.Context, scope *string) ([]domain.Post, error)
	Get(ctx context.Context, id string) (*domain.Post, error)
	Create(ctx context.Context, p *domain.Post) error
	UpdateContent(ctx context.Context, id, content string) error
}

// Author identifies who is posting.
type Author struct {
	UID         string
	DisplayName string
}

// CreatePostInput carries everything a new post needs. Scope nil targets
// the general feed; ReplyTo, when set, is snapshotted verbatim.
type CreatePostInput struct {
	Author  Author
	Scope   *string
	Content string
	ReplyTo *domain.ReplyRef
}

// BoardService implements the discussion board rules: scoped feeds, reply
// tagging, and the time-boxed self-edit.
type BoardService struct {
	posts PostStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewBoardService(posts PostStore, log zerolog.Logger) *BoardService {
	return &BoardService{posts: posts, now: time.Now, log: log}
}

// Feed returns the current posts for one scope, newest first.
func (s *BoardService) Feed(ctx context.Context, scope *string) ([]domain.Post, error) {
	return s.posts.List(ctx, scope)
}

// CreatePost validates and stores a new post. The author name is a
// denormalized snapshot taken now; it is not re-synced if the author later
// renames.
func (s *BoardService) CreatePost(ctx context.Context, in CreatePostInput) (*domain.Post, error) {
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	authorName := strings.TrimSpace(in.Author.DisplayName)
	if authorName == "" {
		authorName = domain.AnonymousAuthor
	}

	post := &domain.Post{
		Content:      content,
		AuthorID:     in.Author.UID,
		AuthorName:   authorName,
		NewsletterID: in.Scope,
		ReplyTo:      in.ReplyTo,
	}

	if err := s.posts.Create(ctx, post); err != nil {
		s.log.Error().Err(err).Str("author", in.Author.UID).Msg("community: create post")
		return nil, fmt.Errorf("create post: %w", err)
	}
	return post, nil
}

// UpdatePost overwrites a post's content, allowed only for the author and
// only while the edit window is open.
func (s *BoardService) UpdatePost(ctx context.Context, actorUID, postID, content string) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return domain.ErrEmptyContent
	}

	post, err := s.posts.Get(ctx, postID)
	if err != nil {
		return err
	}
	if post.AuthorID != actorUID {
		return domain.ErrNotAuthor
	}
	if !post.EditableBy(actorUID, s.now()) {
		return domain.ErrEditWindowElapsed
	}

	if err := s.posts.UpdateContent(ctx, postID, content); err != nil {
		s.log.Error().Err(err).Str("post", postID).Msg("community: update post")
		return fmt.Errorf("update post: %w", err)
	}
	return nil
}

// CanEdit reports whether the actor may currently edit the post. Advisory:
// eligibility is re-checked on the write itself.
func (s *BoardService) CanEdit(post domain.Post, actorUID string) bool {
	return post.EditableBy(actorUID, s.now())
}
