package inventory

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	domain "studiomarket/internal/domain/inventory"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/pkg/response"
	"studiomarket/internal/pkg/validator"
)

type Handler struct {
	slots    *domain.Repository
	profiles *profile.Repository
}

func NewHandler(slots *domain.Repository, profiles *profile.Repository) *Handler {
	return &Handler{slots: slots, profiles: profiles}
}

func (h *Handler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.GET("/slots/:id", h.GetSlotGroup)
	public.GET("/studios/:id/slots", h.ListStudioSlots)

	protected.POST("/studios/:id/slots", h.CreateSlotGroup)
}

func (h *Handler) CreateSlotGroup(c *gin.Context) {
	studioID, ok := pathID(c, "Invalid studio ID")
	if !ok {
		return
	}

	var req CreateSlotGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	for _, u := range req.Units {
		if errs := validator.Validate(u); errs != nil {
			response.ValidationError(c, errs)
			return
		}
	}

	ctx := c.Request.Context()
	if _, err := h.profiles.GetOwnedStudio(ctx, studioID, c.GetInt64("user_id")); err != nil {
		writeError(c, err)
		return
	}

	start, end := req.StartTime.UTC(), req.EndTime.UTC()
	if !start.After(time.Now().UTC()) {
		response.Error(c, http.StatusUnprocessableEntity, "SLOT_IN_PAST", "Slot must start in the future")
		return
	}

	g := &domain.SlotGroup{StudioID: studioID, StartTime: start, EndTime: end}
	for _, u := range req.Units {
		price, err := decimal.NewFromString(strings.TrimSpace(u.UnitPrice))
		if err != nil {
			response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid unit price")
			return
		}
		g.Units = append(g.Units, domain.SlotUnit{
			EquipmentType: domain.EquipmentType(strings.ToLower(u.EquipmentType)),
			Capacity:      u.Capacity,
			UnitPrice:     price,
		})
	}

	if err := h.slots.CreateGroup(ctx, g); err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"slot_group": g})
}

// GetSlotGroup shows remaining capacity per equipment type.
func (h *Handler) GetSlotGroup(c *gin.Context) {
	id, ok := pathID(c, "Invalid slot ID")
	if !ok {
		return
	}
	g, err := h.slots.GetGroup(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slot_group": g, "remaining": remaining(g)})
}

func (h *Handler) ListStudioSlots(c *gin.Context) {
	studioID, ok := pathID(c, "Invalid studio ID")
	if !ok {
		return
	}
	groups, err := h.slots.ListByStudio(c.Request.Context(), studioID, time.Now().UTC())
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"slot_groups": groups})
}

func remaining(g *domain.SlotGroup) map[domain.EquipmentType]int {
	out := make(map[domain.EquipmentType]int, len(g.Units))
	for _, u := range g.Units {
		out[u.EquipmentType] = u.Remaining()
	}
	return out
}

func pathID(c *gin.Context, msg string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", msg)
		return 0, false
	}
	return id, true
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		response.Error(c, http.StatusNotFound, "SLOT_NOT_FOUND", "Slot not found")
	case errors.Is(err, profile.ErrStudioNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Studio not found")
	case errors.Is(err, profile.ErrNotStudioOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Only the studio owner can manage slots")
	case errors.Is(err, domain.ErrInvalidWindow), errors.Is(err, domain.ErrInvalidUnit):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Slot operation failed")
	}
}
