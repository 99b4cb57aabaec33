package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"duoqueue-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	chat *services.ChatService
}

type SendMessageRequest struct {
	Content     string `json:"content" binding:"required"`
	ClientMsgID string `json:"client_msg_id"`
}

type MarkReadRequest struct {
	MessageID uint `json:"message_id" binding:"required"`
}

func NewMessageHandler(chat *services.ChatService) *MessageHandler {
	return &MessageHandler{chat: chat}
}

func (h *MessageHandler) GetConversations(c *gin.Context) {
	userID, _ := c.Get("user_id")

	conversations, err := h.chat.Conversations(c.Request.Context(), userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *MessageHandler) GetMessages(c *gin.Context) {
	userID, _ := c.Get("user_id")
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	messages, err := h.chat.Messages(c.Request.Context(), userID.(uint), uint(otherID))
	if err != nil {
		if errors.Is(err, services.ErrNotMatched) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this conversation"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

func (h *MessageHandler) SendMessage(c *gin.Context) {
	userID, _ := c.Get("user_id")
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, err := h.chat.SendText(c.Request.Context(), userID.(uint), uint(otherID), req.Content, req.ClientMsgID)
	if err != nil {
		if errors.Is(err, services.ErrNotMatched) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this conversation"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send message"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": message})
}

func (h *MessageHandler) MarkAsRead(c *gin.Context) {
	userID, _ := c.Get("user_id")
	otherID, err := strconv.ParseUint(c.Param("user_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	var req MarkReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chat.MarkRead(c.Request.Context(), userID.(uint), uint(otherID), req.MessageID); err != nil {
		if errors.Is(err, services.ErrNotMatched) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied to this conversation"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to mark as read"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Marked as read"})
}
