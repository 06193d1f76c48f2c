package booking

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"studiomarket/internal/domain/inventory"
	"studiomarket/internal/pkg/response"
	"studiomarket/internal/pkg/validator"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts booking routes on the authenticated group. onRead
// runs before dashboard reads so lazily-triggered sweeps see fresh state.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup, onRead ...gin.HandlerFunc) {
	bookings := rg.Group("/bookings")
	{
		bookings.POST("", h.CreateBooking)
		bookings.GET("/:id", chain(onRead, h.GetBooking)...)
		bookings.POST("/:id/payment", h.SubmitPayment)
		bookings.POST("/:id/approve", h.ApproveBooking)
		bookings.POST("/:id/reject", h.RejectBooking)
		bookings.POST("/:id/cancel", h.CancelBooking)
	}
	rg.GET("/dashboard", chain(onRead, h.Dashboard)...)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if errs := validator.Validate(struct {
		EquipmentType string `validate:"equipment"`
	}{req.EquipmentType}); errs != nil {
		response.ValidationError(c, errs)
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), CreateInput{
		ClientID:      c.GetInt64("user_id"),
		InstructorID:  req.InstructorID,
		SlotGroupID:   req.SlotGroupID,
		EquipmentType: inventory.EquipmentType(req.EquipmentType),
		Quantity:      req.Quantity,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"booking": b})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) SubmitPayment(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req SubmitPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "proof_ref is required")
		return
	}

	b, err := h.service.SubmitPayment(c.Request.Context(), id, c.GetInt64("user_id"), req.ProofRef)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) ApproveBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	b, err := h.service.ApproveBooking(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) RejectBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if !response.BindOptionalJSON(c, &req) {
		return
	}

	b, err := h.service.RejectBooking(c.Request.Context(), id, c.GetInt64("user_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, ok := bookingID(c)
	if !ok {
		return
	}
	var req ReasonRequest
	if !response.BindOptionalJSON(c, &req) {
		return
	}

	res, err := h.service.CancelBooking(c.Request.Context(), id, c.GetInt64("user_id"), req.Reason)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res)
}

func (h *Handler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), c.GetInt64("user_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, d)
}

func chain(pre []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(pre)+1)
	out = append(out, pre...)
	return append(out, h)
}

func bookingID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrValidation):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid booking request")
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrSlotNotFound):
		response.Error(c, http.StatusNotFound, "SLOT_NOT_FOUND", "Slot not found")
	case errors.Is(err, ErrForbidden):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, ErrSlotUnavailable):
		response.Error(c, http.StatusConflict, "SLOT_UNAVAILABLE", "Not enough equipment left in this slot")
	case errors.Is(err, ErrSlotInPast):
		response.Error(c, http.StatusUnprocessableEntity, "SLOT_IN_PAST", "Slot has already started")
	case errors.Is(err, ErrStudioSuspended):
		response.Error(c, http.StatusUnprocessableEntity, "STUDIO_SUSPENDED", "Studio is not accepting bookings")
	case errors.Is(err, ErrNegativeBalance):
		response.Error(c, http.StatusPaymentRequired, "NEGATIVE_BALANCE", "Settle your outstanding balance before booking")
	case errors.Is(err, ErrInvalidInstructor):
		response.Error(c, http.StatusUnprocessableEntity, "INVALID_INSTRUCTOR", "Instructor not found")
	case errors.Is(err, ErrBookingExpired):
		response.Error(c, http.StatusGone, "BOOKING_EXPIRED", "Payment window has expired")
	case errors.Is(err, ErrInvalidState):
		response.Error(c, http.StatusConflict, "INVALID_STATUS_TRANSITION", "Booking is not in a state that allows this action")
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Booking operation failed")
	}
}
