package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/internal/handlers"
	"github.com/pushp314/rental-messaging-backend/internal/middleware"
)

// RegisterMessageRoutes mounts the messaging API under /messages. The
// collection is served both with and without a trailing slash. Rate limits
// apply before token verification so rejected callers are throttled too.
func RegisterMessageRoutes(r gin.IRouter, h *handlers.MessageHandler, readOnly bool) {
	messages := r.Group("/messages")
	read, write := middleware.GeneralRateLimit(), middleware.ChatRateLimit()
	auth, maintenance := middleware.AuthMiddleware(), middleware.ReadOnlyMode(readOnly)

	chain := func(limit, handler gin.HandlerFunc) []gin.HandlerFunc {
		return []gin.HandlerFunc{limit, auth, maintenance, handler}
	}
	{
		for _, root := range []string{"", "/"} {
			messages.GET(root, chain(read, h.ListInbox)...)
			messages.POST(root, chain(write, h.SendInquiry)...)
		}
		messages.POST("/reply/:messageId", chain(write, h.Reply)...)
		messages.GET("/user", chain(read, h.ListOutbox)...)
		messages.GET("/replies/:messageId", chain(read, h.ListReplies)...)
	}
}
