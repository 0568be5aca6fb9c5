package service

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	newsletters "github.com/verso-press/verso-backend/internal/newsletters/domain"
	"github.com/verso-press/verso-backend/internal/subscriptions/domain"
)

// SubscriptionStore is the persistence surface the service depends on.
type SubscriptionStore interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Subscription, error)
	Get(ctx context.Context, id string) (*domain.Subscription, error)
	Create(ctx context.Context, s *domain.Subscription) error
	Delete(ctx context.Context, id string) error
}

// NewsletterReader resolves newsletter documents for enrichment.
type NewsletterReader interface {
	Get(ctx context.Context, id string) (*newsletters.Newsletter, error)
}

// SubscriptionService manages a user's newsletter subscriptions.
type SubscriptionService struct {
	store       SubscriptionStore
	newsletters NewsletterReader
	log         zerolog.Logger
}

func NewSubscriptionService(store SubscriptionStore, nl NewsletterReader, log zerolog.Logger) *SubscriptionService {
	return &SubscriptionService{store: store, newsletters: nl, log: log}
}

// List returns the user's subscriptions with newsletter display fields
// joined in. Each row's newsletter is fetched concurrently; a failed or
// missing fetch leaves that row unenriched rather than failing the list.
func (s *SubscriptionService) List(ctx context.Context, userID string) ([]domain.Enriched, error) {
	subs, err := s.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Enriched, len(subs))
	var wg sync.WaitGroup
	for i, sub := range subs {
		out[i].Subscription = sub
		wg.Add(1)
		go func(i int, newsletterID string) {
			defer wg.Done()
			n, err := s.newsletters.Get(ctx, newsletterID)
			if err != nil {
				s.log.Warn().Err(err).Str("newsletter_id", newsletterID).Msg("subscription enrichment failed")
				return
			}
			out[i].Newsletter = &domain.NewsletterSummary{
				ID:           n.ID,
				Title:        n.Title,
				Slug:         n.Slug,
				HeroImageURL: n.HeroImageURL,
				PublishedAt:  n.PublishedAt,
			}
		}(i, sub.NewsletterID)
	}
	wg.Wait()

	return out, nil
}

// Subscribe links the user to a newsletter. The target must exist; there is
// no subscribing to ids that never resolved.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID, newsletterID string) (*domain.Subscription, error) {
	if _, err := s.newsletters.Get(ctx, newsletterID); err != nil {
		return nil, err
	}

	sub := &domain.Subscription{UserID: userID, NewsletterID: newsletterID}
	if err := s.store.Create(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info().Str("user_id", userID).Str("newsletter_id", newsletterID).Msg("subscribed")
	return sub, nil
}

// Unsubscribe deletes a subscription owned by the caller.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, userID, id string) error {
	sub, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}
	if sub.UserID != userID {
		return domain.ErrNotSubscriber
	}
	return s.store.Delete(ctx, id)
}
