package wallet

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/domain/wallet"
	"studiomarket/internal/pkg/logger"
	"studiomarket/internal/pkg/response"
	"studiomarket/internal/pkg/validator"
)

type Handler struct {
	ledger   *wallet.Ledger
	profiles *profile.Repository
	log      *logrus.Logger
}

func NewHandler(ledger *wallet.Ledger, profiles *profile.Repository, log *logrus.Logger) *Handler {
	return &Handler{ledger: ledger, profiles: profiles, log: logger.OrDiscard(log)}
}

func (h *Handler) RegisterRoutes(protected, admin *gin.RouterGroup) {
	wallets := protected.Group("/wallets")
	{
		wallets.GET("/me", h.GetMyWallet)
		wallets.GET("/me/movements", h.ListMyMovements)
	}
	protected.GET("/studios/:id/wallet", h.GetStudioWallet)

	admin.POST("/wallets/:kind/:id/adjust", h.Adjust)
}

func (h *Handler) GetMyWallet(c *gin.Context) {
	w, err := h.ledger.Get(c.Request.Context(), account.User(c.GetInt64("user_id")))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": w})
}

func (h *Handler) ListMyMovements(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	items, err := h.ledger.Movements(c.Request.Context(), account.User(c.GetInt64("user_id")), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"movements": items})
}

// GetStudioWallet is visible to the studio owner only.
func (h *Handler) GetStudioWallet(c *gin.Context) {
	studioID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || studioID <= 0 {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid studio ID")
		return
	}

	ctx := c.Request.Context()
	if _, err := h.profiles.GetOwnedStudio(ctx, studioID, c.GetInt64("user_id")); err != nil {
		writeError(c, err)
		return
	}

	w, err := h.ledger.Get(ctx, account.Studio(studioID))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"wallet": w})
}

// Adjust is a manual admin credit or debit. A debit may take the balance
// below zero.
func (h *Handler) Adjust(c *gin.Context) {
	owner, err := account.Parse(c.Param("kind"), c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid wallet owner")
		return
	}

	var req AdjustRequest
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

	adminID := c.GetInt64("user_id")
	entry := wallet.Entry{
		Owner:     owner,
		Amount:    amount,
		Reason:    wallet.ReasonAdminAdjustment,
		Reference: "admin:" + strconv.FormatInt(adminID, 10),
	}

	var w *wallet.Wallet
	if req.Direction == "credit" {
		w, err = h.ledger.Credit(c.Request.Context(), entry)
	} else {
		w, err = h.ledger.Debit(c.Request.Context(), entry)
	}
	if err != nil {
		writeError(c, err)
		return
	}

	h.log.WithFields(logrus.Fields{
		"admin_id":  adminID,
		"owner":     owner.String(),
		"direction": req.Direction,
		"amount":    amount.String(),
		"note":      req.Note,
	}).Warn("manual wallet adjustment")
	response.Success(c, http.StatusOK, gin.H{"wallet": w})
}

func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, profile.ErrStudioNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Studio not found")
	case errors.Is(err, profile.ErrNotStudioOwner):
		response.Error(c, http.StatusForbidden, "FORBIDDEN", "Access denied")
	case errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrInvalidOwner):
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", err.Error())
	default:
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Wallet operation failed")
	}
}
