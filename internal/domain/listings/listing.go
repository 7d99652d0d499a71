package listings

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrIDRequired      = errors.New("listings: id is required")
	ErrOwnerRequired   = errors.New("listings: owner is required")
	ErrTitleRequired   = errors.New("listings: title is required")
	ErrAddressRequired = errors.New("listings: address, city and country are required")
	ErrInvalidType     = errors.New("listings: unknown property type")
	ErrInvalidPrice    = errors.New("listings: price must be positive")
	ErrNotFound        = errors.New("listings: not found")
)

type ListingID string
type OwnerID string

type PropertyType string

const (
	TypeApartment PropertyType = "apartment"
	TypeHouse     PropertyType = "house"
	TypeVilla     PropertyType = "villa"
	TypeStudio    PropertyType = "studio"
	TypeShop      PropertyType = "shop"
)

var propertyTypes = map[PropertyType]struct{}{
	TypeApartment: {},
	TypeHouse:     {},
	TypeVilla:     {},
	TypeStudio:    {},
	TypeShop:      {},
}

type Listing struct {
	ID               ListingID
	Owner            OwnerID
	Title            string
	Description      string
	PropertyType     PropertyType
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
	Rented           bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type Repository interface {
	ByID(ctx context.Context, id ListingID) (*Listing, error)
	ByOwner(ctx context.Context, owner OwnerID) ([]*Listing, error)
	Save(ctx context.Context, listing *Listing) error
	Delete(ctx context.Context, id ListingID) error
	Search(ctx context.Context, params SearchParams) ([]*Listing, error)
}

type CreateListingParams struct {
	ID               ListingID
	Owner            OwnerID
	Title            string
	Description      string
	PropertyType     PropertyType
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
	Now              time.Time
}

func NewListing(params CreateListingParams) (*Listing, error) {
	if strings.TrimSpace(string(params.ID)) == "" {
		return nil, ErrIDRequired
	}
	if strings.TrimSpace(string(params.Owner)) == "" {
		return nil, ErrOwnerRequired
	}
	title := strings.TrimSpace(params.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	propertyType := PropertyType(strings.ToLower(strings.TrimSpace(string(params.PropertyType))))
	if _, ok := propertyTypes[propertyType]; !ok {
		return nil, ErrInvalidType
	}
	if params.PriceCents <= 0 {
		return nil, ErrInvalidPrice
	}
	address := strings.TrimSpace(params.Address)
	city := strings.TrimSpace(params.City)
	country := strings.TrimSpace(params.Country)
	if address == "" || city == "" || country == "" {
		return nil, ErrAddressRequired
	}

	now := params.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.UTC()

	bedrooms := params.Bedrooms
	if bedrooms < 1 {
		bedrooms = 1
	}
	bathrooms := params.Bathrooms
	if bathrooms < 1 {
		bathrooms = 1
	}

	return &Listing{
		ID:               params.ID,
		Owner:            params.Owner,
		Title:            title,
		Description:      strings.TrimSpace(params.Description),
		PropertyType:     propertyType,
		PriceCents:       params.PriceCents,
		Address:          address,
		City:             city,
		Country:          country,
		Lat:              params.Lat,
		Lon:              params.Lon,
		Bedrooms:         bedrooms,
		Bathrooms:        bathrooms,
		AreaSquareMeters: params.AreaSquareMeters,
		Photos:           append([]string(nil), params.Photos...),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

type UpdateListingParams struct {
	Title       *string
	Description *string
	PriceCents  *int64
	Bedrooms    *int
	Bathrooms   *int
	Rented      *bool
}

func (l *Listing) Apply(params UpdateListingParams, now time.Time) error {
	if params.Title != nil {
		title := strings.TrimSpace(*params.Title)
		if title == "" {
			return ErrTitleRequired
		}
		l.Title = title
	}
	if params.Description != nil {
		l.Description = strings.TrimSpace(*params.Description)
	}
	if params.PriceCents != nil {
		if *params.PriceCents <= 0 {
			return ErrInvalidPrice
		}
		l.PriceCents = *params.PriceCents
	}
	if params.Bedrooms != nil && *params.Bedrooms >= 1 {
		l.Bedrooms = *params.Bedrooms
	}
	if params.Bathrooms != nil && *params.Bathrooms >= 1 {
		l.Bathrooms = *params.Bathrooms
	}
	if params.Rented != nil {
		l.Rented = *params.Rented
	}
	l.touch(now)
	return nil
}

func (l *Listing) AddPhoto(url string, now time.Time) error {
	url = strings.TrimSpace(url)
	if url == "" {
		return errors.New("listings: photo url is required")
	}
	l.Photos = append(l.Photos, url)
	l.touch(now)
	return nil
}

func (l *Listing) OwnedBy(owner OwnerID) bool {
	return l.Owner == owner
}

func (l *Listing) touch(now time.Time) {
	if now.IsZero() {
		now = time.Now()
	}
	l.UpdatedAt = now.UTC()
}
