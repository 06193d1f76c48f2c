package profile

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"studiomarket/internal/pkg/logger"
	"studiomarket/internal/pkg/response"
)

// AdminHandler records the outcome of the external verification workflow
// and lifts studio suspensions.
type AdminHandler struct {
	service *Service
	log     *logrus.Logger
}

func NewAdminHandler(service *Service, log *logrus.Logger) *AdminHandler {
	return &AdminHandler{service: service, log: logger.OrDiscard(log)}
}

// SetProfilePayoutApproval handles PATCH /api/v1/admin/profiles/:id/payout-approval
func (h *AdminHandler) SetProfilePayoutApproval(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PayoutApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "approved is required")
		return
	}

	p, err := h.service.SetProfilePayoutApproval(c.Request.Context(), id, *req.Approved)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit(c, "profile", id, "payout_approval").WithField("approved", *req.Approved).Info("admin action")
	response.Success(c, http.StatusOK, gin.H{"profile": p})
}

// SetStudioPayoutApproval handles PATCH /api/v1/admin/studios/:id/payout-approval
func (h *AdminHandler) SetStudioPayoutApproval(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req PayoutApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "approved is required")
		return
	}

	st, err := h.service.SetStudioPayoutApproval(c.Request.Context(), id, *req.Approved)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit(c, "studio", id, "payout_approval").WithField("approved", *req.Approved).Info("admin action")
	response.Success(c, http.StatusOK, gin.H{"studio": st})
}

// ReinstateStudio handles POST /api/v1/admin/studios/:id/reinstate
func (h *AdminHandler) ReinstateStudio(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	st, err := h.service.ReinstateStudio(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	h.audit(c, "studio", id, "reinstate").Info("admin action")
	response.Success(c, http.StatusOK, gin.H{"studio": st})
}

func (h *AdminHandler) audit(c *gin.Context, kind string, id int64, action string) *logrus.Entry {
	return h.log.WithFields(logrus.Fields{
		"admin_id":    c.GetInt64("user_id"),
		"target_kind": kind,
		"target_id":   id,
		"action":      action,
	})
}
