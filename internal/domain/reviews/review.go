package reviews

import (
	"context"
	"errors"
	"strings"
	"time"

	"rently/internal/domain/listings"
	"rently/internal/domain/user"
)

var (
	ErrInvalidRating = errors.New("reviews: rating must be between 1 and 5")
	ErrDuplicate     = errors.New("reviews: listing already reviewed by this user")
	ErrNotFound      = errors.New("reviews: not found")
)

type ReviewID string

type Review struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  user.ID
	Rating    int
	Comment   string
	CreatedAt time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ReviewID) (*Review, error)
	ByListingAndAuthor(ctx context.Context, listingID listings.ListingID, authorID user.ID) (*Review, error)
	ListByListing(ctx context.Context, listingID listings.ListingID, limit, offset int) ([]*Review, error)
	ListByAuthor(ctx context.Context, authorID user.ID) ([]*Review, error)
	Save(ctx context.Context, review *Review) error
	Delete(ctx context.Context, id ReviewID) error
}

type SubmitParams struct {
	ID        ReviewID
	ListingID listings.ListingID
	AuthorID  user.ID
	Rating    int
	Comment   string
	Now       time.Time
}

func Submit(params SubmitParams) (*Review, error) {
	if params.Rating < 1 || params.Rating > 5 {
		return nil, ErrInvalidRating
	}
	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	return &Review{
		ID:        params.ID,
		ListingID: params.ListingID,
		AuthorID:  params.AuthorID,
		Rating:    params.Rating,
		Comment:   strings.TrimSpace(params.Comment),
		CreatedAt: now.UTC(),
	}, nil
}
