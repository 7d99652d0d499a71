package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rently/internal/app/dto"
	listingssvc "rently/internal/app/services/listings"
	domainlistings "rently/internal/domain/listings"
)

// ListingsHTTP exposes listing catalogue endpoints.
type ListingsHTTP interface {
	CreateListing(c *gin.Context)
	GetListing(c *gin.Context)
	SearchListings(c *gin.Context)
	MyListings(c *gin.Context)
	UpdateListing(c *gin.Context)
	DeleteListing(c *gin.Context)
	UploadPhoto(c *gin.Context)
}

type ListingHandler struct {
	Service *listingssvc.Service
	Logger  *slog.Logger
}

type createListingRequest struct {
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PropertyType     string   `json:"property_type"`
	PriceCents       int64    `json:"price_cents"`
	Address          string   `json:"address"`
	City             string   `json:"city"`
	Country          string   `json:"country"`
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	Bedrooms         int      `json:"bedrooms"`
	Bathrooms        int      `json:"bathrooms"`
	AreaSquareMeters float64  `json:"area_sq_m"`
	Photos           []string `json:"photos"`
}

type updateListingRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	PriceCents  *int64  `json:"price_cents"`
	Bedrooms    *int    `json:"bedrooms"`
	Bathrooms   *int    `json:"bathrooms"`
	Rented      *bool   `json:"rented"`
}

func (h ListingHandler) CreateListing(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	var req createListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	listing, err := h.Service.Create(c.Request.Context(), listingssvc.CreateParams{
		Owner:            domainlistings.OwnerID(principal.ID),
		Title:            req.Title,
		Description:      req.Description,
		PropertyType:     domainlistings.PropertyType(req.PropertyType),
		PriceCents:       req.PriceCents,
		Address:          req.Address,
		City:             req.City,
		Country:          req.Country,
		Lat:              req.Lat,
		Lon:              req.Lon,
		Bedrooms:         req.Bedrooms,
		Bathrooms:        req.Bathrooms,
		AreaSquareMeters: req.AreaSquareMeters,
		Photos:           req.Photos,
	})
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapListing(listing))
}

func (h ListingHandler) GetListing(c *gin.Context) {
	id := domainlistings.ListingID(strings.TrimSpace(c.Param("id")))
	listing, err := h.Service.Get(c.Request.Context(), id)
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(listing))
}

// SearchListings filters the catalogue by query parameters. All filters are
// optional.
func (h ListingHandler) SearchListings(c *gin.Context) {
	params := domainlistings.SearchParams{
		PropertyType:  domainlistings.PropertyType(c.Query("property_type")),
		City:          c.Query("city"),
		Country:       c.Query("country"),
		PriceMinCents: parseInt64Query(c, "price_min"),
		PriceMaxCents: parseInt64Query(c, "price_max"),
		Limit:         int(parseInt64Query(c, "limit")),
		Offset:        int(parseInt64Query(c, "offset")),
	}
	listings, err := h.Service.Search(c.Request.Context(), params)
	if err != nil {
		h.logError("listing search failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot search listings"})
		return
	}
	c.JSON(http.StatusOK, dto.MapListings(listings))
}

func (h ListingHandler) MyListings(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	listings, err := h.Service.ByOwner(c.Request.Context(), domainlistings.OwnerID(principal.ID))
	if err != nil {
		h.logError("owner listings failed", err, "owner_id", principal.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load listings"})
		return
	}
	c.JSON(http.StatusOK, dto.MapListings(listings))
}

func (h ListingHandler) UpdateListing(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	var req updateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	id := domainlistings.ListingID(strings.TrimSpace(c.Param("id")))
	listing, err := h.Service.Update(c.Request.Context(), id, domainlistings.OwnerID(principal.ID), domainlistings.UpdateListingParams{
		Title:       req.Title,
		Description: req.Description,
		PriceCents:  req.PriceCents,
		Bedrooms:    req.Bedrooms,
		Bathrooms:   req.Bathrooms,
		Rented:      req.Rented,
	})
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(listing))
}

func (h ListingHandler) DeleteListing(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	id := domainlistings.ListingID(strings.TrimSpace(c.Param("id")))
	if err := h.Service.Delete(c.Request.Context(), id, domainlistings.OwnerID(principal.ID)); err != nil {
		h.respondListingError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto accepts a multipart form with a "photo" file part and attaches
// the stored object's URL to the listing.
func (h ListingHandler) UploadPhoto(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	id := domainlistings.ListingID(strings.TrimSpace(c.Param("id")))
	header, err := c.FormFile("photo")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "photo file is required"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.logError("open uploaded photo failed", err, "listing_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot read upload"})
		return
	}
	defer file.Close()
	listing, err := h.Service.AddPhoto(c.Request.Context(), id, domainlistings.OwnerID(principal.ID), header.Filename, header.Header.Get("Content-Type"), file)
	if err != nil {
		h.respondListingError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MapListing(listing))
}

func (h ListingHandler) respondListingError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainlistings.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
	case errors.Is(err, listingssvc.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "caller does not own this listing"})
	case errors.Is(err, domainlistings.ErrTitleRequired),
		errors.Is(err, domainlistings.ErrAddressRequired),
		errors.Is(err, domainlistings.ErrInvalidType),
		errors.Is(err, domainlistings.ErrInvalidPrice):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logError("listing operation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h ListingHandler) logError(msg string, err error, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Error(msg, append([]any{"error", err}, attrs...)...)
	}
}

func parseInt64Query(c *gin.Context, name string) int64 {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value < 0 {
		return 0
	}
	return value
}

var _ ListingsHTTP = (*ListingHandler)(nil)
