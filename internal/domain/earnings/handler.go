package earnings

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiomarket/internal/domain/account"
	"studiomarket/internal/domain/profile"
	"studiomarket/internal/pkg/response"
)

type Handler struct {
	repo     *Repository
	profiles *profile.Repository
}

func NewHandler(repo *Repository, profiles *profile.Repository) *Handler {
	return &Handler{repo: repo, profiles: profiles}
}

func (h *Handler) RegisterRoutes(protected *gin.RouterGroup) {
	protected.GET("/earnings/me", h.GetMyEarnings)
}

// GetMyEarnings reports the caller's own account and every studio they own.
func (h *Handler) GetMyEarnings(c *gin.Context) {
	ctx := c.Request.Context()
	userID := c.GetInt64("user_id")

	studioIDs, err := h.profiles.StudioIDsOwnedBy(ctx, userID)
	if err != nil {
		_ = c.Error(err)
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load earnings")
		return
	}

	owners := []account.Ref{account.User(userID)}
	for _, id := range studioIDs {
		owners = append(owners, account.Studio(id))
	}

	out := make([]*Summary, 0, len(owners))
	for _, owner := range owners {
		s, err := h.repo.Summary(ctx, owner)
		if err != nil {
			_ = c.Error(err)
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load earnings")
			return
		}
		out = append(out, s)
	}
	response.Success(c, http.StatusOK, gin.H{"earnings": out})
}
