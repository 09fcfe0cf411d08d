package handler

import (
	"github.com/gin-gonic/gin"

	"campus-market-backend/internal/shared/middleware"
)

// RegisterRoutes mounts the return endpoints under v1. auth must populate the
// caller identity; limit guards the state-changing endpoints.
func RegisterRoutes(v1 *gin.RouterGroup, h *ReturnHandler, auth, limit gin.HandlerFunc) {
	returns := v1.Group("/returns")
	returns.Use(auth)
	{
		// Buyer
		returns.POST("", limit, h.CreateReturn)
		returns.PUT("/:id/intervene", limit, h.Intervene)

		// Seller
		returns.PUT("/:id/handle", limit, h.HandleReturn)

		// Any party
		returns.GET("/me/requests", h.ListMine)
		returns.GET("/:id", h.GetDetail)

		// Admin
		admin := returns.Group("")
		admin.Use(middleware.AdminMiddleware())
		{
			admin.GET("/admin", h.ListAll)
			admin.PUT("/:id/admin/resolve", limit, h.AdminResolve)
		}
	}
}
