package ginserver

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"rently/internal/app/dto"
	reviewssvc "rently/internal/app/services/reviews"
	domainlistings "rently/internal/domain/listings"
	domainreviews "rently/internal/domain/reviews"
	domainuser "rently/internal/domain/user"
)

// ReviewsHTTP exposes listing review endpoints.
type ReviewsHTTP interface {
	SubmitReview(c *gin.Context)
	ListingReviews(c *gin.Context)
	MyReviews(c *gin.Context)
	DeleteReview(c *gin.Context)
}

type ReviewHandler struct {
	Service *reviewssvc.Service
	Logger  *slog.Logger
}

type submitReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h ReviewHandler) SubmitReview(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	listingID := domainlistings.ListingID(strings.TrimSpace(c.Param("id")))
	var req submitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}
	review, err := h.Service.Submit(c.Request.Context(), reviewssvc.SubmitParams{
		ListingID: listingID,
		AuthorID:  domainuser.ID(principal.ID),
		Rating:    req.Rating,
		Comment:   req.Comment,
	})
	if err != nil {
		h.respondReviewError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MapReview(review))
}

func (h ReviewHandler) ListingReviews(c *gin.Context) {
	listingID := domainlistings.ListingID(strings.TrimSpace(c.Param("id")))
	limit := int(parseInt64Query(c, "limit"))
	offset := int(parseInt64Query(c, "offset"))
	reviews, err := h.Service.ListByListing(c.Request.Context(), listingID, limit, offset)
	if err != nil {
		h.logError("listing reviews failed", err, "listing_id", listingID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load reviews"})
		return
	}
	c.JSON(http.StatusOK, dto.MapReviews(reviews))
}

func (h ReviewHandler) MyReviews(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	reviews, err := h.Service.ListByAuthor(c.Request.Context(), domainuser.ID(principal.ID))
	if err != nil {
		h.logError("author reviews failed", err, "author_id", principal.ID)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "cannot load reviews"})
		return
	}
	c.JSON(http.StatusOK, dto.MapReviews(reviews))
}

func (h ReviewHandler) DeleteReview(c *gin.Context) {
	principal, ok := requireAuth(c)
	if !ok {
		return
	}
	id := domainreviews.ReviewID(strings.TrimSpace(c.Param("id")))
	if err := h.Service.Delete(c.Request.Context(), id, domainuser.ID(principal.ID)); err != nil {
		h.respondReviewError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h ReviewHandler) respondReviewError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainreviews.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "review not found"})
	case errors.Is(err, domainlistings.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "listing not found"})
	case errors.Is(err, domainreviews.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": "listing already reviewed by this user"})
	case errors.Is(err, reviewssvc.ErrNotAuthor):
		c.JSON(http.StatusForbidden, gin.H{"error": "caller is not the review author"})
	case errors.Is(err, domainreviews.ErrInvalidRating):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logError("review operation failed", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func (h ReviewHandler) logError(msg string, err error, attrs ...any) {
	if h.Logger != nil {
		h.Logger.Error(msg, append([]any{"error", err}, attrs...)...)
	}
}

var _ ReviewsHTTP = (*ReviewHandler)(nil)
