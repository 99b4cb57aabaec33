package services

import (
	"context"
	"errors"
	"fmt"

	"duoqueue-dating-app/internal/models"
	"duoqueue-dating-app/internal/websocket"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ChatService handles message send, conversation listing and read-cursor
// tracking for matched pairs. Delivery to connected clients goes through the
// hub; persistence and cursor state live in the store.
type ChatService struct {
	db     *gorm.DB
	ledger *LedgerService
	hub    *websocket.Hub
	notify *NotificationService
	tasks  *TaskService
	log    *logrus.Logger
}

func NewChatService(db *gorm.DB, ledger *LedgerService, hub *websocket.Hub, notify *NotificationService, tasks *TaskService, log *logrus.Logger) *ChatService {
	return &ChatService{db: db, ledger: ledger, hub: hub, notify: notify, tasks: tasks, log: log}
}

// ConversationSummary is one row of the conversations screen.
type ConversationSummary struct {
	MatchID     uint            `json:"match_id"`
	OtherUser   models.Profile  `json:"other_user"`
	LastMessage *models.Message `json:"last_message,omitempty"`
	Unread      bool            `json:"unread"`
}

// SendText persists a text message between matched users and fans it out.
// clientMsgID is the sender's provisional id; it is stored with the row so
// the sender's timeline can reconcile its optimistic copy.
func (s *ChatService) SendText(ctx context.Context, senderID, receiverID uint, content, clientMsgID string) (*models.Message, error) {
	if _, err := s.requireMatch(ctx, senderID, receiverID); err != nil {
		return nil, err
	}

	message := models.Message{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		ClientMsgID: clientMsgID,
		Content:     content,
		MessageType: models.MessageTypeText,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		return nil, err
	}

	s.fanOut(ctx, &message)
	s.tasks.SignalProgress(ctx, senderID, "send_message_3", 1)
	return &message, nil
}

// SendGift transfers diamonds, then records the gift message. The transfer
// is the financial operation and fails atomically; the message is cosmetic.
// If the message insert fails after the diamonds moved, the transfer stands
// and the failure is only logged.
func (s *ChatService) SendGift(ctx context.Context, senderID, receiverID uint, amount int64, clientMsgID string) (*models.Message, *TransferResult, error) {
	if _, err := s.requireMatch(ctx, senderID, receiverID); err != nil {
		return nil, nil, err
	}

	transfer, err := s.ledger.Transfer(ctx, senderID, receiverID, amount)
	if err != nil {
		return nil, nil, err
	}

	message := models.Message{
		SenderID:     senderID,
		ReceiverID:   receiverID,
		ClientMsgID:  clientMsgID,
		Content:      fmt.Sprintf("Sent %d diamonds", amount),
		MessageType:  models.MessageTypeDiamond,
		DiamondCount: &amount,
	}
	if err := s.db.WithContext(ctx).Create(&message).Error; err != nil {
		s.log.WithError(err).WithField("txn_id", transfer.Transaction.ID).
			Error("gift message insert failed after completed transfer")
		return nil, transfer, nil
	}

	s.ledger.AttachMessage(ctx, transfer.Transaction.ID, message.ID)
	s.fanOut(ctx, &message)
	s.notify.Notify(ctx, receiverID, "gift", "You received diamonds!",
		fmt.Sprintf("%d diamonds were gifted to you.", amount),
		fmt.Sprintf(`{"message_id": %d}`, message.ID))
	return &message, transfer, nil
}

// Messages returns the conversation between viewer and other, oldest first,
// and advances the viewer's read pointer when the newest message was not
// authored by the viewer.
func (s *ChatService) Messages(ctx context.Context, viewerID, otherID uint) ([]models.Message, error) {
	match, err := s.requireMatch(ctx, viewerID, otherID)
	if err != nil {
		return nil, err
	}

	var messages []models.Message
	err = s.db.WithContext(ctx).
		Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
			viewerID, otherID, otherID, viewerID).
		Order("created_at ASC, id ASC").
		Find(&messages).Error
	if err != nil {
		return nil, err
	}

	if len(messages) > 0 {
		newest := messages[len(messages)-1]
		if newest.SenderID != viewerID {
			if err := s.advanceReadPointer(ctx, match, viewerID, newest.ID); err != nil {
				s.log.WithError(err).Warn("failed to advance read pointer")
			}
		}
	}
	return messages, nil
}

// MarkRead explicitly advances the viewer's read pointer to messageID.
func (s *ChatService) MarkRead(ctx context.Context, viewerID, otherID, messageID uint) error {
	match, err := s.requireMatch(ctx, viewerID, otherID)
	if err != nil {
		return err
	}
	return s.advanceReadPointer(ctx, match, viewerID, messageID)
}

// Conversations lists the viewer's matches with their latest message and
// unread state, most recent conversation first.
func (s *ChatService) Conversations(ctx context.Context, viewerID uint) ([]ConversationSummary, error) {
	var matches []models.Match
	err := s.db.WithContext(ctx).
		Where("(user1_id = ? OR user2_id = ?) AND is_active = ?", viewerID, viewerID, true).
		Order("created_at DESC").
		Find(&matches).Error
	if err != nil {
		return nil, err
	}

	summaries := make([]ConversationSummary, 0, len(matches))
	for _, match := range matches {
		otherID := match.User1ID
		if otherID == viewerID {
			otherID = match.User2ID
		}

		var other models.Profile
		if err := s.db.WithContext(ctx).First(&other, otherID).Error; err != nil {
			continue
		}

		summary := ConversationSummary{MatchID: match.ID, OtherUser: other}
		var last models.Message
		err := s.db.WithContext(ctx).
			Where("(sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)",
				viewerID, otherID, otherID, viewerID).
			Order("created_at DESC, id DESC").
			First(&last).Error
		if err == nil {
			summary.LastMessage = &last
			summary.Unread = IsUnread(&last, viewerID, readPointer(&match, viewerID))
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		summaries = append(summaries, summary)
	}
	return summaries, nil
}

// IsUnread is the unread predicate for a conversation: there is a latest
// message, it was not authored by the viewer, and the viewer's read pointer
// has not reached it.
func IsUnread(latest *models.Message, viewerID uint, lastReadID *uint) bool {
	if latest == nil || latest.SenderID == viewerID {
		return false
	}
	return lastReadID == nil || *lastReadID != latest.ID
}

// requireMatch returns the active match between the two users or ErrNotMatched.
func (s *ChatService) requireMatch(ctx context.Context, a, b uint) (*models.Match, error) {
	u1, u2 := models.CanonicalPair(a, b)
	var match models.Match
	err := s.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ? AND is_active = ?", u1, u2, true).
		First(&match).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotMatched
	}
	if err != nil {
		return nil, err
	}
	return &match, nil
}

// advanceReadPointer writes the viewer's side of the match row. The side is
// chosen by canonical position: user1 if the viewer id is the smaller one.
func (s *ChatService) advanceReadPointer(ctx context.Context, match *models.Match, viewerID, messageID uint) error {
	column := "user2_last_read_msg_id"
	if match.User1ID == viewerID {
		column = "user1_last_read_msg_id"
	}
	return s.db.WithContext(ctx).Model(&models.Match{}).
		Where("id = ?", match.ID).
		UpdateColumn(column, messageID).Error
}

func readPointer(match *models.Match, viewerID uint) *uint {
	if match.User1ID == viewerID {
		return match.User1LastReadMsgID
	}
	return match.User2LastReadMsgID
}

// fanOut hands a durably inserted row to the realtime hub and logs the
// push-notification side effect. Delivery failures never unwind the insert.
func (s *ChatService) fanOut(ctx context.Context, message *models.Message) {
	if s.hub != nil {
		s.hub.PublishMessage(*message)
	}
	if message.MessageType == models.MessageTypeText {
		s.notify.Notify(ctx, message.ReceiverID, "message", "New message", message.Content,
			fmt.Sprintf(`{"sender_id": %d}`, message.SenderID))
	}
}
