package listings

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"rently/internal/app/outbox"
	domainlistings "rently/internal/domain/listings"
	"rently/internal/infra/storage/s3"
)

var ErrNotOwner = errors.New("listings: caller does not own this listing")

type Service struct {
	Listings domainlistings.Repository
	Uploader s3.Uploader
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
}

type CreateParams struct {
	Owner            domainlistings.OwnerID
	Title            string
	Description      string
	PropertyType     domainlistings.PropertyType
	PriceCents       int64
	Address          string
	City             string
	Country          string
	Lat              float64
	Lon              float64
	Bedrooms         int
	Bathrooms        int
	AreaSquareMeters float64
	Photos           []string
}

func (s *Service) Create(ctx context.Context, params CreateParams) (*domainlistings.Listing, error) {
	listing, err := domainlistings.NewListing(domainlistings.CreateListingParams{
		ID:               domainlistings.ListingID(uuid.NewString()),
		Owner:            params.Owner,
		Title:            params.Title,
		Description:      params.Description,
		PropertyType:     params.PropertyType,
		PriceCents:       params.PriceCents,
		Address:          params.Address,
		City:             params.City,
		Country:          params.Country,
		Lat:              params.Lat,
		Lon:              params.Lon,
		Bedrooms:         params.Bedrooms,
		Bathrooms:        params.Bathrooms,
		AreaSquareMeters: params.AreaSquareMeters,
		Photos:           params.Photos,
		Now:              s.now(),
	})
	if err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, listing); err != nil {
		return nil, err
	}
	if err := outbox.Record(ctx, s.Outbox, s.Encoder, listingCreatedEvent{
		ListingID: listing.ID,
		OwnerID:   listing.Owner,
		City:      listing.City,
		Country:   listing.Country,
		At:        listing.CreatedAt,
	}); err != nil && s.Logger != nil {
		s.Logger.Warn("listing event not recorded", "listing_id", listing.ID, "error", err)
	}
	if s.Logger != nil {
		s.Logger.Info("listing created", "listing_id", listing.ID, "owner_id", listing.Owner)
	}
	return listing, nil
}

func (s *Service) Get(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	return s.Listings.ByID(ctx, id)
}

func (s *Service) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	return s.Listings.Search(ctx, params)
}

func (s *Service) ByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	return s.Listings.ByOwner(ctx, owner)
}

func (s *Service) Update(ctx context.Context, id domainlistings.ListingID, owner domainlistings.OwnerID, params domainlistings.UpdateListingParams) (*domainlistings.Listing, error) {
	listing, err := s.ownedListing(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	if err := listing.Apply(params, s.now()); err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, listing); err != nil {
		return nil, err
	}
	return listing, nil
}

func (s *Service) Delete(ctx context.Context, id domainlistings.ListingID, owner domainlistings.OwnerID) error {
	if _, err := s.ownedListing(ctx, id, owner); err != nil {
		return err
	}
	return s.Listings.Delete(ctx, id)
}

// AddPhoto uploads the photo to object storage and appends the resulting
// public URL to the listing.
func (s *Service) AddPhoto(ctx context.Context, id domainlistings.ListingID, owner domainlistings.OwnerID, filename, contentType string, reader io.Reader) (*domainlistings.Listing, error) {
	if s.Uploader == nil {
		return nil, errors.New("listings: photo uploader unavailable")
	}
	listing, err := s.ownedListing(ctx, id, owner)
	if err != nil {
		return nil, err
	}
	key := photoObjectKey(id, filename)
	url, err := s.Uploader.Upload(ctx, key, reader, contentType)
	if err != nil {
		return nil, fmt.Errorf("upload photo: %w", err)
	}
	if err := listing.AddPhoto(url, s.now()); err != nil {
		return nil, err
	}
	if err := s.Listings.Save(ctx, listing); err != nil {
		return nil, err
	}
	if s.Logger != nil {
		s.Logger.Info("listing photo added", "listing_id", listing.ID, "key", key)
	}
	return listing, nil
}

func (s *Service) ownedListing(ctx context.Context, id domainlistings.ListingID, owner domainlistings.OwnerID) (*domainlistings.Listing, error) {
	listing, err := s.Listings.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !listing.OwnedBy(owner) {
		return nil, ErrNotOwner
	}
	return listing, nil
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func photoObjectKey(id domainlistings.ListingID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("listings/%s/%s%s", id, uuid.NewString(), ext)
}

type listingCreatedEvent struct {
	ListingID domainlistings.ListingID `json:"listing_id"`
	OwnerID   domainlistings.OwnerID   `json:"owner_id"`
	City      string                   `json:"city"`
	Country   string                   `json:"country"`
	At        time.Time                `json:"at"`
}

func (e listingCreatedEvent) EventName() string     { return "listings.listing_created" }
func (e listingCreatedEvent) AggregateID() string   { return string(e.ListingID) }
func (e listingCreatedEvent) OccurredAt() time.Time { return e.At }
