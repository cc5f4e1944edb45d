package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pushp314/rental-messaging-backend/internal/middleware"
	"github.com/pushp314/rental-messaging-backend/internal/services"
	"github.com/pushp314/rental-messaging-backend/pkg/errors"
)

type MessageHandler struct {
	threads *services.ThreadService
}

func NewMessageHandler(threads *services.ThreadService) *MessageHandler {
	return &MessageHandler{threads: threads}
}

// ListInbox returns inquiries on the caller's properties grouped by property id.
func (h *MessageHandler) ListInbox(c *gin.Context) {
	inbox, err := h.threads.ListInboxGroupedByProperty(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, inbox)
}

// SendInquiry handles POST / with {propertyId, message}.
func (h *MessageHandler) SendInquiry(c *gin.Context) {
	var input struct {
		PropertyID string `json:"propertyId" binding:"required"`
		Message    string `json:"message" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(errors.BadRequest("propertyId and message are required"))
		return
	}

	msg, err := h.threads.SendInquiry(c.Request.Context(), middleware.UserID(c), input.PropertyID, input.Message)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Message sent successfully",
		"id":      msg.ID,
	})
}

// Reply handles POST /reply/:messageId with {replyMessage}.
func (h *MessageHandler) Reply(c *gin.Context) {
	var input struct {
		ReplyMessage string `json:"replyMessage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		_ = c.Error(errors.BadRequest("replyMessage is required"))
		return
	}

	reply, err := h.threads.ReplyToMessage(c.Request.Context(), middleware.UserID(c), c.Param("messageId"), input.ReplyMessage)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Reply sent successfully",
		"reply":   reply,
	})
}

// ListOutbox returns everything the caller sent, each with its replies.
func (h *MessageHandler) ListOutbox(c *gin.Context) {
	out, err := h.threads.ListOutboxWithReplies(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *MessageHandler) ListReplies(c *gin.Context) {
	replies, err := h.threads.ListRepliesTo(c.Request.Context(), middleware.UserID(c), c.Param("messageId"))
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, replies)
}
