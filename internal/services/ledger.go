package services

import (
	"context"

	"duoqueue-dating-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// WithdrawalDenominations are the only amounts accepted by RequestWithdrawal.
var WithdrawalDenominations = []int64{50, 100, 250, 500, 1000}

// LedgerService owns every diamond balance mutation. Balances are only ever
// changed with relative, guarded UPDATEs inside a single transaction, because
// payment webhooks write the same column concurrently and clients retry
// unpredictably. Each balance delta gets exactly one Transaction row.
type LedgerService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewLedgerService(db *gorm.DB, log *logrus.Logger) *LedgerService {
	return &LedgerService{db: db, log: log}
}

// TransferResult reports both post-transfer balances and the ledger row.
type TransferResult struct {
	SenderBalance   int64              `json:"sender_balance"`
	ReceiverBalance int64              `json:"receiver_balance"`
	Transaction     models.Transaction `json:"transaction"`
}

// Transfer moves diamonds from sender to receiver atomically. The debit is
// guarded by the current balance, so a losing race fails the whole
// transaction with no partial effect.
func (s *LedgerService) Transfer(ctx context.Context, senderID, receiverID uint, amount int64) (*TransferResult, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	result := &TransferResult{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debit := tx.Model(&models.Profile{}).
			Where("id = ? AND diamond_count >= ?", senderID, amount).
			UpdateColumn("diamond_count", gorm.Expr("diamond_count - ?", amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Profile{}).Where("id = ?", senderID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientBalance
		}

		credit := tx.Model(&models.Profile{}).
			Where("id = ?", receiverID).
			UpdateColumn("diamond_count", gorm.Expr("diamond_count + ?", amount))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return ErrUserNotFound
		}

		receiver := receiverID
		result.Transaction = models.Transaction{
			SenderID:        senderID,
			ReceiverID:      &receiver,
			Amount:          amount,
			TransactionType: models.TransactionTypeGift,
			Status:          models.TransactionStatusCompleted,
		}
		if err := tx.Create(&result.Transaction).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Profile{}).Where("id = ?", senderID).
			Select("diamond_count").Scan(&result.SenderBalance).Error; err != nil {
			return err
		}
		return tx.Model(&models.Profile{}).Where("id = ?", receiverID).
			Select("diamond_count").Scan(&result.ReceiverBalance).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"sender":   senderID,
		"receiver": receiverID,
		"amount":   amount,
		"txn_id":   result.Transaction.ID,
	}).Info("diamond transfer completed")
	return result, nil
}

// CollectTaskReward credits today's reward for a completed task. The
// is_collected flip is a conditional update, so a duplicate concurrent
// collection finds zero affected rows and fails cleanly.
func (s *LedgerService) CollectTaskReward(ctx context.Context, userID, taskID uint) (int64, error) {
	var balance int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task models.DailyTask
		if err := tx.Where("id = ? AND is_active = ?", taskID, true).First(&task).Error; err != nil {
			return err
		}

		claim := tx.Model(&models.DailyTaskProgress{}).
			Where("user_id = ? AND task_id = ? AND date = ? AND is_completed = ? AND is_collected = ?",
				userID, taskID, today(), true, false).
			UpdateColumn("is_collected", true)
		if claim.Error != nil {
			return claim.Error
		}
		if claim.RowsAffected == 0 {
			var progress models.DailyTaskProgress
			err := tx.Where("user_id = ? AND task_id = ? AND date = ?", userID, taskID, today()).
				First(&progress).Error
			if err != nil || !progress.IsCompleted {
				return ErrTaskIncomplete
			}
			return ErrAlreadyCollected
		}

		credit := tx.Model(&models.Profile{}).
			Where("id = ?", userID).
			UpdateColumn("diamond_count", gorm.Expr("diamond_count + ?", task.RewardDiamonds))
		if credit.Error != nil {
			return credit.Error
		}
		if credit.RowsAffected == 0 {
			return ErrUserNotFound
		}

		receiver := userID
		txn := models.Transaction{
			SenderID:        userID,
			ReceiverID:      &receiver,
			Amount:          task.RewardDiamonds,
			TransactionType: models.TransactionTypeTaskReward,
			Status:          models.TransactionStatusCompleted,
			Reference:       task.Code,
		}
		if err := tx.Create(&txn).Error; err != nil {
			return err
		}

		return tx.Model(&models.Profile{}).Where("id = ?", userID).
			Select("diamond_count").Scan(&balance).Error
	})
	if err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"user": userID, "task": taskID}).Info("task reward collected")
	return balance, nil
}

// RequestWithdrawal debits the balance immediately and records a pending
// withdrawal for manual payout. Debiting up front keeps the user from
// spending the same diamonds twice while the payout is in flight.
func (s *LedgerService) RequestWithdrawal(ctx context.Context, userID uint, amount int64, destinationRef string) (*models.Transaction, error) {
	if !validDenomination(amount) {
		return nil, ErrInvalidDenomination
	}

	var txn models.Transaction
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		debit := tx.Model(&models.Profile{}).
			Where("id = ? AND diamond_count >= ?", userID, amount).
			UpdateColumn("diamond_count", gorm.Expr("diamond_count - ?", amount))
		if debit.Error != nil {
			return debit.Error
		}
		if debit.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Profile{}).Where("id = ?", userID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return ErrUserNotFound
			}
			return ErrInsufficientBalance
		}

		txn = models.Transaction{
			SenderID:        userID,
			Amount:          amount,
			TransactionType: models.TransactionTypeWithdrawal,
			Status:          models.TransactionStatusPending,
			Reference:       destinationRef,
		}
		return tx.Create(&txn).Error
	})
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{"user": userID, "amount": amount, "txn_id": txn.ID}).
		Info("withdrawal requested")
	return &txn, nil
}

// AttachMessage links a gift transaction to the chat message it paid for.
// Failure here is cosmetic: the diamonds already moved.
func (s *LedgerService) AttachMessage(ctx context.Context, transactionID, messageID uint) {
	err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Where("id = ?", transactionID).
		UpdateColumn("message_id", messageID).Error
	if err != nil {
		s.log.WithError(err).WithField("txn_id", transactionID).
			Warn("failed to attach message to transaction")
	}
}

// Balance returns the user's current diamond count.
func (s *LedgerService) Balance(ctx context.Context, userID uint) (int64, error) {
	var profile models.Profile
	if err := s.db.WithContext(ctx).Select("diamond_count").First(&profile, userID).Error; err != nil {
		return 0, err
	}
	return profile.DiamondCount, nil
}

// History lists the user's ledger entries, newest first.
func (s *LedgerService) History(ctx context.Context, userID uint, limit int) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := s.db.WithContext(ctx).
		Where("sender_id = ? OR receiver_id = ?", userID, userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Find(&txns).Error
	return txns, err
}

func validDenomination(amount int64) bool {
	for _, d := range WithdrawalDenominations {
		if d == amount {
			return true
		}
	}
	return false
}
