package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "rently/internal/domain/listings"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	col := db.Collection("listings")
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}}},
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "country", Value: 1}}},
		{Keys: bson.D{{Key: "price_cents", Value: 1}}},
	}
	_, _ = col.Indexes().CreateMany(context.Background(), indexes)
	return &ListingRepository{col: col}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toDomain(), nil
}

func (r *ListingRepository) ByOwner(ctx context.Context, owner domainlistings.OwnerID) ([]*domainlistings.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.col.Find(ctx, bson.M{"owner_id": string(owner)}, opts)
	if err != nil {
		return nil, err
	}
	return decodeListings(ctx, cursor)
}

func (r *ListingRepository) Save(ctx context.Context, listing *domainlistings.Listing) error {
	doc := newListingDocument(listing)
	opts := options.Update().SetUpsert(true)
	_, err := r.col.UpdateOne(ctx, bson.M{"_id": doc.ID}, bson.M{"$set": doc}, opts)
	return err
}

func (r *ListingRepository) Delete(ctx context.Context, id domainlistings.ListingID) error {
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainlistings.ErrNotFound
	}
	return nil
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) ([]*domainlistings.Listing, error) {
	opts := params.Normalized()
	filter := bson.M{}
	if opts.Owner != "" {
		filter["owner_id"] = string(opts.Owner)
	}
	if opts.PropertyType != "" {
		filter["property_type"] = string(opts.PropertyType)
	}
	if opts.City != "" {
		filter["city"] = bson.M{"$regex": primitive.Regex{Pattern: opts.City, Options: "i"}}
	}
	if opts.Country != "" {
		filter["country"] = bson.M{"$regex": primitive.Regex{Pattern: opts.Country, Options: "i"}}
	}
	price := bson.M{}
	if opts.PriceMinCents > 0 {
		price["$gte"] = opts.PriceMinCents
	}
	if opts.PriceMaxCents > 0 {
		price["$lte"] = opts.PriceMaxCents
	}
	if len(price) > 0 {
		filter["price_cents"] = price
	}

	findOpts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit))
	cursor, err := r.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	return decodeListings(ctx, cursor)
}

func decodeListings(ctx context.Context, cursor *mongo.Cursor) ([]*domainlistings.Listing, error) {
	defer cursor.Close(ctx)
	listings := make([]*domainlistings.Listing, 0)
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		listings = append(listings, doc.toDomain())
	}
	return listings, cursor.Err()
}

type listingDocument struct {
	ID               string   `bson:"_id"`
	OwnerID          string   `bson:"owner_id"`
	Title            string   `bson:"title"`
	Description      string   `bson:"description,omitempty"`
	PropertyType     string   `bson:"property_type"`
	PriceCents       int64    `bson:"price_cents"`
	Address          string   `bson:"address"`
	City             string   `bson:"city"`
	Country          string   `bson:"country"`
	Lat              float64  `bson:"lat"`
	Lon              float64  `bson:"lon"`
	Bedrooms         int      `bson:"bedrooms"`
	Bathrooms        int      `bson:"bathrooms"`
	AreaSquareMeters float64  `bson:"area_sq_m,omitempty"`
	Photos           []string `bson:"photos,omitempty"`
	Rented           bool     `bson:"rented"`
	CreatedAt        int64    `bson:"created_at"`
	UpdatedAt        int64    `bson:"updated_at"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
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
		Photos:           append([]string(nil), l.Photos...),
		Rented:           l.Rented,
		CreatedAt:        l.CreatedAt.UnixMilli(),
		UpdatedAt:        l.UpdatedAt.UnixMilli(),
	}
}

func (d listingDocument) toDomain() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:               domainlistings.ListingID(d.ID),
		Owner:            domainlistings.OwnerID(d.OwnerID),
		Title:            d.Title,
		Description:      d.Description,
		PropertyType:     domainlistings.PropertyType(d.PropertyType),
		PriceCents:       d.PriceCents,
		Address:          d.Address,
		City:             d.City,
		Country:          d.Country,
		Lat:              d.Lat,
		Lon:              d.Lon,
		Bedrooms:         d.Bedrooms,
		Bathrooms:        d.Bathrooms,
		AreaSquareMeters: d.AreaSquareMeters,
		Photos:           append([]string(nil), d.Photos...),
		Rented:           d.Rented,
		CreatedAt:        timestampToTime(d.CreatedAt),
		UpdatedAt:        timestampToTime(d.UpdatedAt),
	}
}

var _ domainlistings.Repository = (*ListingRepository)(nil)
