package router

import (
	"github.com/labstack/echo/v4"

	"dermacare/internal/adapter/api/handler"
	"dermacare/internal/adapter/api/middleware"
	"dermacare/internal/domain/entity"
)

// SetupShippingRouter wires address, method and order endpoints.
func SetupShippingRouter(e *echo.Echo, shippingHandler *handler.ShippingHandler, authMiddleware *middleware.AuthMiddleware) {
	shippingGroup := e.Group("/v1/shipping")
	shippingGroup.Use(authMiddleware.Authenticate)

	// Addresses
	shippingGroup.POST("/addresses", shippingHandler.CreateAddress)
	shippingGroup.GET("/addresses", shippingHandler.ListAddresses)
	shippingGroup.PUT("/addresses/:id", shippingHandler.UpdateAddress)
	shippingGroup.DELETE("/addresses/:id", shippingHandler.DeleteAddress)
	shippingGroup.PUT("/addresses/:id/default", shippingHandler.SetDefaultAddress)

	// Methods
	shippingGroup.GET("/methods", shippingHandler.ListMethods)
	shippingGroup.POST("/methods", shippingHandler.CreateMethod,
		authMiddleware.RestrictTo(entity.RoleAdmin))
	shippingGroup.PUT("/methods/:id", shippingHandler.UpdateMethod,
		authMiddleware.RestrictTo(entity.RoleAdmin))

	// Orders
	shippingGroup.POST("/orders", shippingHandler.CreateOrder)
	shippingGroup.GET("/orders", shippingHandler.ListOrders)
	shippingGroup.GET("/orders/:id", shippingHandler.GetOrder)
	shippingGroup.PUT("/orders/:id/status", shippingHandler.UpdateOrderStatus,
		authMiddleware.RestrictTo(entity.RoleSupport, entity.RoleAdmin))
	shippingGroup.PUT("/orders/:id/estimate", shippingHandler.EstimateDelivery,
		authMiddleware.RestrictTo(entity.RoleSupport, entity.RoleAdmin))
}
