package payout

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"studiomarket/internal/pkg/response"
	"studiomarket/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts owner routes on protected and review routes on admin.
func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	protected.POST("/payouts", h.RequestPayout)
	protected.GET("/payouts/me", h.ListMine)

	payouts := admin.Group("/payouts")
	{
		payouts.POST("/:id/approve", h.Approve)
		payouts.POST("/:id/paid", h.MarkPaid)
		payouts.POST("/:id/reject", h.Reject)
	}
}

func (h *Handler) RequestPayout(c *gin.Context) {
	var req CreatePayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(struct {
		Amount string `validate:"money"`
	}{req.Amount}); errs != nil {
		response.ValidationError(c, errs)
		return
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(req.Amount))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid amount")
		return
	}

	p, err := h.service.RequestPayout(c.Request.Context(), RequestInput{
		ActorID:  c.GetInt64("user_id"),
		StudioID: req.StudioID,
		Amount:   amount,
		Method:   req.Method,
		Details:  req.Details,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"payout": p})
}

func (h *Handler) ListMine(c *gin.Context) {
	items, err := h.service.ListMine(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payouts": items})
}

func (h *Handler) Approve(c *gin.Context) {
	id, ok := payoutID(c)
	if !ok {
		return
	}
	p, err := h.service.Approve(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payout": p})
}

func (h *Handler) MarkPaid(c *gin.Context) {
	id, ok := payoutID(c)
	if !ok {
		return
	}
	p, err := h.service.MarkPaid(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payout": p})
}

func (h *Handler) Reject(c *gin.Context) {
	id, ok := payoutID(c)
	if !ok {
		return
	}
	var req ProcessPayoutRequest
	if !response.BindOptionalJSON(c, &req) {
		return
	}

	p, err := h.service.Reject(c.Request.Context(), id, c.GetInt64("user_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payout": p})
}

func payoutID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid payout ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid payout request")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Payout request not found")
	case errors.Is(err, ErrApplicationNotApproved):
		response.Error(c, http.StatusForbidden, "APPLICATION_NOT_APPROVED", "Payouts are not enabled for this account yet")
	case errors.Is(err, ErrInsufficientBalance):
		response.Error(c, http.StatusUnprocessableEntity, "INSUFFICIENT_BALANCE", "Available balance is too low")
	case errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Payout operation failed")
	}
}
