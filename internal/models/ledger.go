package models

import (
	"time"
)

const (
	TransactionTypeGift       = "gift"
	TransactionTypeTaskReward = "task_reward"
	TransactionTypeWithdrawal = "withdrawal"
	TransactionTypePurchase   = "purchase"

	TransactionStatusPending   = "pending"
	TransactionStatusCompleted = "completed"
	TransactionStatusFailed    = "failed"
)

// Transaction is the ledger entry recorded for every diamond balance change.
// ReceiverID is nil for withdrawals; Reference carries the external payout
// destination. MessageID links a gift to the chat message it paid for and is
// attached after the fact, best-effort.
type Transaction struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	SenderID        uint      `json:"sender_id" gorm:"not null;index"`
	ReceiverID      *uint     `json:"receiver_id,omitempty" gorm:"index"`
	Amount          int64     `json:"amount" gorm:"not null"`
	TransactionType string    `json:"transaction_type" gorm:"not null"`
	Status          string    `json:"status" gorm:"not null;default:pending"`
	MessageID       *uint     `json:"message_id,omitempty"`
	Reference       string    `json:"reference"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
