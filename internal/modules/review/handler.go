package review

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/pkg/response"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	if public != nil {
		public.GET("/profiles/:kind/:id/reviews", h.GetPublicReviews)
	}
	if protected != nil {
		protected.POST("/reviews", h.Create)
	}
}

// Create stores a review for a counterparty of a finished booking.
func (h *Handler) Create(c *gin.Context) {
	var req CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	rv, err := h.svc.SubmitReview(c.Request.Context(), SubmitInput{
		BookingID:  req.BookingID,
		ReviewerID: c.GetInt64("user_id"),
		Reviewee:   account.Ref{Kind: account.Kind(req.RevieweeKind), ID: req.RevieweeID},
		Rating:     req.Rating,
		Comment:    req.Comment,
		Tags:       req.Tags,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrInvalidReviewee):
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
		case errors.Is(err, ErrNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, ErrForbidden):
			response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only booking parties can review")
		case errors.Is(err, ErrSessionNotFinished):
			response.Error(c, http.StatusUnprocessableEntity, "SESSION_NOT_FINISHED", "You can review once the session is over")
		case errors.Is(err, ErrAlreadyReviewed):
			response.Error(c, http.StatusConflict, "ALREADY_REVIEWED", "You already reviewed this party for this booking")
		default:
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save review")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"review": rv})
}

func (h *Handler) GetPublicReviews(c *gin.Context) {
	ref, err := account.Parse(c.Param("kind"), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid profile reference")
		return
	}

	out, err := h.svc.GetPublicReviews(c.Request.Context(), ref)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load reviews")
		return
	}
	response.Success(c, http.StatusOK, out)
}
