package handlers

import (
	"errors"
	"net/http"

	"duoqueue-dating-app/internal/config"
	"duoqueue-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type FeedHandler struct {
	feed *services.FeedService
	cfg  *config.Config
}

// NextBatchRequest carries the ids the client already holds in its local
// queue, so top-up calls never return cards it is about to show.
type NextBatchRequest struct {
	StagedIDs []uint `json:"staged_ids"`
	Limit     int    `json:"limit" binding:"omitempty,min=1,max=50"`
}

func NewFeedHandler(feed *services.FeedService, cfg *config.Config) *FeedHandler {
	return &FeedHandler{feed: feed, cfg: cfg}
}

func (h *FeedHandler) NextBatch(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req NextBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.cfg.FeedBatchLimit
	}

	candidates, err := h.feed.NextBatch(c.Request.Context(), userID.(uint), req.StagedIDs, limit)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"candidates": candidates})
}
