package maintenance

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"studiomarket/internal/pkg/response"
)

type Handler struct {
	runner *Runner
}

func NewHandler(runner *Runner) *Handler {
	return &Handler{runner: runner}
}

// RegisterRoutes mounts the on-demand sweep on a group already guarded by
// the internal token.
func (h *Handler) RegisterRoutes(internal *gin.RouterGroup) {
	internal.POST("/maintenance/sweep", h.Sweep)
}

func (h *Handler) Sweep(c *gin.Context) {
	res, err := h.runner.RunAll(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		response.ErrorWithDetails(c, http.StatusInternalServerError, "SWEEP_FAILED", err.Error(), res)
		return
	}
	response.Success(c, http.StatusOK, res)
}
