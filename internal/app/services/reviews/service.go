package reviews

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"rently/internal/app/outbox"
	domainlistings "rently/internal/domain/listings"
	domainreviews "rently/internal/domain/reviews"
	domainuser "rently/internal/domain/user"
)

var ErrNotAuthor = errors.New("reviews: caller is not the review author")

type Service struct {
	Reviews  domainreviews.Repository
	Listings domainlistings.Repository
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

type SubmitParams struct {
	ListingID domainlistings.ListingID
	AuthorID  domainuser.ID
	Rating    int
	Comment   string
}

func (s *Service) Submit(ctx context.Context, params SubmitParams) (*domainreviews.Review, error) {
	if _, err := s.Listings.ByID(ctx, params.ListingID); err != nil {
		return nil, err
	}
	if existing, err := s.Reviews.ByListingAndAuthor(ctx, params.ListingID, params.AuthorID); err == nil && existing != nil {
		return nil, domainreviews.ErrDuplicate
	} else if err != nil && !errors.Is(err, domainreviews.ErrNotFound) {
		return nil, err
	}
	review, err := domainreviews.Submit(domainreviews.SubmitParams{
		ID:        domainreviews.ReviewID(uuid.NewString()),
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   params.Comment,
		Now:       s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Reviews.Save(ctx, review); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, s.Outbox, s.Encoder, reviewSubmittedEvent{
		ReviewID:  review.ID,
		ListingID: review.ListingID,
		Rating:    review.Rating,
		At:        review.CreatedAt,
	}); err != nil && s.Logger != nil {
		s.Logger.Warn("review event not recorded", "review_id", review.ID, "error", err)
	}
	if s.Logger != nil {
		s.Logger.Info("review submitted", "review_id", review.ID, "listing_id", review.ListingID, "rating", review.Rating)
	}
	return review, nil
}

func (s *Service) ListByListing(ctx context.Context, listingID domainlistings.ListingID, limit, offset int) ([]*domainreviews.Review, error) {
	return s.Reviews.ListByListing(ctx, listingID, limit, offset)
}

func (s *Service) ListByAuthor(ctx context.Context, authorID domainuser.ID) ([]*domainreviews.Review, error) {
	return s.Reviews.ListByAuthor(ctx, authorID)
}

func (s *Service) Delete(ctx context.Context, id domainreviews.ReviewID, requester domainuser.ID) error {
	review, err := s.Reviews.ByID(ctx, id)
	if err != nil {
		return err
	}
	if review.AuthorID != requester {
		return ErrNotAuthor
	}
	return s.Reviews.Delete(ctx, id)
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

type reviewSubmittedEvent struct {
	ReviewID  domainreviews.ReviewID   `json:"review_id"`
	ListingID domainlistings.ListingID `json:"listing_id"`
	Rating    int                      `json:"rating"`
	At        time.Time                `json:"at"`
}

func (e reviewSubmittedEvent) EventName() string     { return "reviews.review_submitted" }
func (e reviewSubmittedEvent) AggregateID() string   { return string(e.ReviewID) }
func (e reviewSubmittedEvent) OccurredAt() time.Time { return e.At }
