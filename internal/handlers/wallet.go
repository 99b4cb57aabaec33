package handlers

import (
	"errors"
	"net/http"

	"duoqueue-dating-app/internal/services"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	ledger *services.LedgerService
	chat   *services.ChatService
}

type GiftRequest struct {
	ReceiverID  uint   `json:"receiver_id" binding:"required"`
	Amount      int64  `json:"amount" binding:"required,min=1"`
	ClientMsgID string `json:"client_msg_id"`
}

type WithdrawRequest struct {
	Amount         int64  `json:"amount" binding:"required"`
	DestinationRef string `json:"destination_ref" binding:"required"`
}

func NewWalletHandler(ledger *services.LedgerService, chat *services.ChatService) *WalletHandler {
	return &WalletHandler{ledger: ledger, chat: chat}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID, _ := c.Get("user_id")

	balance, err := h.ledger.Balance(c.Request.Context(), userID.(uint))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch balance"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"diamond_count": balance,
		"denominations": services.WithdrawalDenominations,
	})
}

func (h *WalletHandler) GetHistory(c *gin.Context) {
	userID, _ := c.Get("user_id")

	history, err := h.ledger.History(c.Request.Context(), userID.(uint), 50)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": history})
}

// SendGift moves diamonds to a matched user and drops the gift message into
// the conversation.
func (h *WalletHandler) SendGift(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req GiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	message, transfer, err := h.chat.SendGift(c.Request.Context(), userID.(uint), req.ReceiverID, req.Amount, req.ClientMsgID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrNotMatched):
			c.JSON(http.StatusForbidden, gin.H{"error": "You can only gift matched users"})
		case errors.Is(err, services.ErrInvalidAmount):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount must be positive"})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough diamonds"})
		case errors.Is(err, services.ErrUserNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send gift"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": message, "transfer": transfer})
}

func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, _ := c.Get("user_id")

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	txn, err := h.ledger.RequestWithdrawal(c.Request.Context(), userID.(uint), req.Amount, req.DestinationRef)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidDenomination):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Amount is not a withdrawable denomination"})
		case errors.Is(err, services.ErrInsufficientBalance):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Not enough diamonds"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to request withdrawal"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"transaction": txn})
}
