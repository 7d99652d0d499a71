package dto

import (
	"time"

	domainlistings "rently/internal/domain/listings"
)

type Listing struct {
	ID               string    `json:"id"`
	OwnerID          string    `json:"owner_id"`
	Title            string    `json:"title"`
	Description      string    `json:"description,omitempty"`
	PropertyType     string    `json:"property_type"`
	PriceCents       int64     `json:"price_cents"`
	Address          string    `json:"address"`
	City             string    `json:"city"`
	Country          string    `json:"country"`
	Lat              float64   `json:"lat"`
	Lon              float64   `json:"lon"`
	Bedrooms         int       `json:"bedrooms"`
	Bathrooms        int       `json:"bathrooms"`
	AreaSquareMeters float64   `json:"area_sq_m,omitempty"`
	Photos           []string  `json:"photos"`
	Rented           bool      `json:"rented"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

type ListingCollection struct {
	Items []Listing `json:"items"`
}

func MapListing(l *domainlistings.Listing) Listing {
	if l == nil {
		return Listing{}
	}
	return Listing{
		ID:               string(l.ID),
		OwnerID:          string(l.Owner),
		Title:            l.Title,
		Description:      l.Description,
		PropertyType:     string(l.PropertyType),
		PriceCents:       l.PriceCents,
		Address:          l.Address,
		City:             l.City,
		Country:          l.Country,
		Lat:              l.Lat,
		Lon:              l.Lon,
		Bedrooms:         l.Bedrooms,
		Bathrooms:        l.Bathrooms,
		AreaSquareMeters: l.AreaSquareMeters,
		Photos:           append([]string{}, l.Photos...),
		Rented:           l.Rented,
		CreatedAt:        l.CreatedAt,
		UpdatedAt:        l.UpdatedAt,
	}
}

func MapListings(listings []*domainlistings.Listing) ListingCollection {
	items := make([]Listing, 0, len(listings))
	for _, l := range listings {
		items = append(items, MapListing(l))
	}
	return ListingCollection{Items: items}
}
