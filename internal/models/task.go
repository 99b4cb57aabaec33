package models

import (
	"time"
)

// DailyTask is a catalog entry seeded at startup (swipe N times, get a match,
// send messages, log in). Progress is tracked per user per date.
type DailyTask struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Code           string    `json:"code" gorm:"uniqueIndex;not null"`
	Title          string    `json:"title" gorm:"not null"`
	Target         int       `json:"target" gorm:"not null"`
	RewardDiamonds int64     `json:"reward_diamonds" gorm:"not null"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	CreatedAt      time.Time `json:"created_at"`
}

// DailyTaskProgress resets implicitly by date key: a new day simply means a
// new (user, task, date) row. Collection flips IsCollected exactly once via a
// conditional update.
type DailyTaskProgress struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	UserID      uint      `json:"user_id" gorm:"not null;uniqueIndex:idx_task_user_date,priority:1"`
	TaskID      uint      `json:"task_id" gorm:"not null;uniqueIndex:idx_task_user_date,priority:2"`
	Date        string    `json:"date" gorm:"not null;uniqueIndex:idx_task_user_date,priority:3"`
	Progress    int       `json:"progress" gorm:"not null;default:0"`
	IsCompleted bool      `json:"is_completed" gorm:"default:false"`
	IsCollected bool      `json:"is_collected" gorm:"default:false"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
