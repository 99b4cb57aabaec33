package handlers

import (
	"errors"
	"net/http"

	"duoqueue-dating-app/internal/services"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SwipeHandler struct {
	swipes *services.SwipeService
}

type RecordSwipeRequest struct {
	TargetID uint  `json:"target_id" binding:"required"`
	IsLike   *bool `json:"is_like" binding:"required"`
}

type RewindRequest struct {
	SwipeID uint `json:"swipe_id" binding:"required"`
}

func NewSwipeHandler(swipes *services.SwipeService) *SwipeHandler {
	return &SwipeHandler{swipes: swipes}
}

func (h *SwipeHandler) RecordSwipe(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req RecordSwipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.swipes.RecordSwipe(c.Request.Context(), userID.(uint), req.TargetID, *req.IsLike)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record swipe"})
		return
	}

	// Limit reached is an upsell moment, not a failure.
	c.JSON(http.StatusOK, gin.H{"result": result})
}

func (h *SwipeHandler) Rewind(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req RewindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	candidate, err := h.swipes.RewindSwipe(c.Request.Context(), userID.(uint), req.SwipeID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPremiumRequired):
			c.JSON(http.StatusPaymentRequired, gin.H{"error": "Premium subscription required"})
		case errors.Is(err, services.ErrNotOwner):
			c.JSON(http.StatusForbidden, gin.H{"error": "Swipe does not belong to you"})
		case errors.Is(err, services.ErrNotLatestSwipe):
			c.JSON(http.StatusConflict, gin.H{"error": "Only the most recent swipe can be rewound"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Swipe not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to rewind swipe"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidate": candidate})
}
