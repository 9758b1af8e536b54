package routes

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"tango-chat-app/handler"
	"tango-chat-app/middleware"
)

type ConfigRoute struct {
	*fiber.App
	*middleware.Middleware
	*handler.ChatHandler
}

func (rc *ConfigRoute) GetRoute() {
	rc.GetProtectedRoute()
}

func (rc *ConfigRoute) GetProtectedRoute() {
	app := rc.App.Group("/api/v1")
	app.Use(rc.Middleware.JWTProtected, rc.Middleware.ExtractUserID)

	app.Get("/chats", rc.ChatHandler.GetAllChat)
	app.Get("/chats/:slug/messages", rc.ChatHandler.GetMessagesBySlug)
	app.Get("/chats/:slug/members", rc.ChatHandler.GetMembers)
}

func (rc *ConfigRoute) GetWebSocketRoute(wsHandler *handler.WebSocketHandler) {
	rc.App.Use("/ws", rc.Middleware.WebSocketUpgrade)
	rc.App.Get("/ws", websocket.New(wsHandler.HandleWebSocket))
}
