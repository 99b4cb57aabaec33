package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"duoqueue-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type TaskHandler struct {
	tasks  *services.TaskService
	ledger *services.LedgerService
}

func NewTaskHandler(tasks *services.TaskService, ledger *services.LedgerService) *TaskHandler {
	return &TaskHandler{tasks: tasks, ledger: ledger}
}

func (h *TaskHandler) ListToday(c *gin.Context) {
	userID, _ := c.Get("user_id")

	statuses, err := h.tasks.ListToday(c.Request.Context(), userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch tasks"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": statuses})
}

func (h *TaskHandler) Collect(c *gin.Context) {
	userID, _ := c.Get("user_id")
	taskID, err := strconv.ParseUint(c.Param("task_id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid task ID"})
		return
	}

	balance, err := h.ledger.CollectTaskReward(c.Request.Context(), userID.(uint), uint(taskID))
	if err != nil {
		switch {
		case errors.Is(err, services.ErrTaskIncomplete):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Task is not completed yet"})
		case errors.Is(err, services.ErrAlreadyCollected):
			c.JSON(http.StatusConflict, gin.H{"error": "Reward already collected"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to collect reward"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"diamond_count": balance})
}
