package router

import (
	"github.com/labstack/echo/v4"

	"dermacare/internal/adapter/api/handler"
	"dermacare/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	chatHandler *handler.ChatHandler,
	shippingHandler *handler.ShippingHandler,
	healthHandler *handler.HealthHandler,
) {
	SetupHealthRouter(e, healthHandler)
	SetupChatRouter(e, chatHandler, authMiddleware)
	SetupShippingRouter(e, shippingHandler, authMiddleware)
}
