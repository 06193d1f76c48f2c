package profile

import (
	"github.com/gin-gonic/gin"

	"studiomarket/internal/middleware"
)

// RegisterRoutes registers profile and studio routes.
func RegisterRoutes(protected, admin *gin.RouterGroup, h *Handler, adminHandler *AdminHandler) {
	profile := protected.Group("/profile")
	{
		profile.GET("", h.GetProfile)
		profile.PATCH("", h.UpdateProfile)
		profile.GET("/studios", h.ListStudios)
	}
	protected.POST("/studios", middleware.RequireRole(string(RoleStudioOwner)), h.CreateStudio)

	admin.PATCH("/profiles/:id/payout-approval", adminHandler.SetProfilePayoutApproval)
	admin.PATCH("/studios/:id/payout-approval", adminHandler.SetStudioPayoutApproval)
	admin.POST("/studios/:id/reinstate", adminHandler.ReinstateStudio)
}
