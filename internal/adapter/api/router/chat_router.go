package router

import (
	"github.com/labstack/echo/v4"

	"dermacare/internal/adapter/api/handler"
	"dermacare/internal/adapter/api/middleware"
	"dermacare/internal/domain/entity"
)

// SetupChatRouter wires the chat session endpoints. All chat routes
// require a verified bearer credential.
func SetupChatRouter(e *echo.Echo, chatHandler *handler.ChatHandler, authMiddleware *middleware.AuthMiddleware) {
	chatGroup := e.Group("/v1/chat")
	chatGroup.Use(authMiddleware.Authenticate)

	// Room lifecycle
	chatGroup.POST("/rooms", chatHandler.CreateRoom)
	chatGroup.GET("/rooms/active", chatHandler.GetActiveRooms)
	chatGroup.POST("/rooms/:roomId/close", chatHandler.CloseRoom)
	chatGroup.POST("/rooms/:roomId/join", chatHandler.JoinRoom,
		authMiddleware.RestrictTo(entity.RoleSupport, entity.RoleDoctor, entity.RoleAdmin))
	chatGroup.PUT("/rooms/:roomId/seen", chatHandler.UpdateLastSeen)

	// Messages
	chatGroup.POST("/messages", chatHandler.SendMessage)
	chatGroup.GET("/rooms/:roomId/messages", chatHandler.GetHistory)
	chatGroup.POST("/messages/read", chatHandler.MarkRead)
	chatGroup.PUT("/messages/:id", chatHandler.EditMessage)
	chatGroup.POST("/messages/:id/attachments", chatHandler.AddAttachment)
}
