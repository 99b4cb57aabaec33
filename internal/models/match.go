package models

import (
	"time"
)

// Swipe is a single like/pass decision by one user about another. The
// composite unique index guarantees at most one row per ordered pair ever;
// the only delete path is the premium rewind of the swiper's latest swipe.
type Swipe struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SwiperID  uint      `json:"swiper_id" gorm:"not null;uniqueIndex:idx_swiper_swiped,priority:1"`
	SwipedID  uint      `json:"swiped_id" gorm:"not null;uniqueIndex:idx_swiper_swiped,priority:2"`
	IsLike    bool      `json:"is_like" gorm:"not null"`
	CreatedAt time.Time `json:"created_at"`
}

// Match is a mutual like between two users. The pair is stored in canonical
// order (User1ID < User2ID) and carries a unique index on that pair, so a
// racing second insert fails with a duplicate-key error instead of producing
// a second row. Each side keeps its own last-read message pointer.
type Match struct {
	ID                 uint      `json:"id" gorm:"primaryKey"`
	User1ID            uint      `json:"user1_id" gorm:"not null;uniqueIndex:idx_match_pair,priority:1"`
	User2ID            uint      `json:"user2_id" gorm:"not null;uniqueIndex:idx_match_pair,priority:2"`
	User1LastReadMsgID *uint     `json:"user1_last_read_msg_id,omitempty"`
	User2LastReadMsgID *uint     `json:"user2_last_read_msg_id,omitempty"`
	IsActive           bool      `json:"is_active" gorm:"default:true"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CanonicalPair orders two user ids the way Match stores them.
func CanonicalPair(a, b uint) (uint, uint) {
	if a < b {
		return a, b
	}
	return b, a
}

const (
	MessageTypeText    = "text"
	MessageTypeDiamond = "diamond"
)

// Message belongs to the implicit conversation between sender and receiver.
// DiamondCount is set only for diamond (gift) messages. Rows are immutable
// once created; ordering within a conversation is by CreatedAt then ID.
type Message struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	SenderID     uint      `json:"sender_id" gorm:"not null;index:idx_msg_pair,priority:1"`
	ReceiverID   uint      `json:"receiver_id" gorm:"not null;index:idx_msg_pair,priority:2"`
	ClientMsgID  string    `json:"client_msg_id" gorm:"index"` // client-generated, used for optimistic reconciliation
	Content      string    `json:"content" gorm:"not null"`
	MessageType  string    `json:"message_type" gorm:"not null;default:text"`
	DiamondCount *int64    `json:"diamond_count,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// DailySwipeCount tracks swipes per user per server calendar date and backs
// the daily quota gate. Date is formatted as 2006-01-02.
type DailySwipeCount struct {
	ID     uint   `json:"id" gorm:"primaryKey"`
	UserID uint   `json:"user_id" gorm:"not null;uniqueIndex:idx_swipecount_user_date,priority:1"`
	Date   string `json:"date" gorm:"not null;uniqueIndex:idx_swipecount_user_date,priority:2"`
	Count  int    `json:"count" gorm:"not null;default:0"`
}
