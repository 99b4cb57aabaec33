package models

import (
	"time"
)

type Profile struct {
	ID             uint      `json:"id" gorm:"primaryKey"`
	Email          string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash   string    `json:"-" gorm:"not null"`
	Nickname       string    `json:"nickname" gorm:"not null"`
	Age            int       `json:"age" gorm:"not null"`
	Gender         string    `json:"gender" gorm:"not null"` // male, female, other
	Country        string    `json:"country"`
	City           string    `json:"city"`
	CurrentRank    string    `json:"current_rank" gorm:"not null"`
	FavoriteHeroes []string  `json:"favorite_heroes" gorm:"serializer:json"` // at most 3
	FavoriteLines  []string  `json:"favorite_lines" gorm:"serializer:json"`  // at most 3, each a lane name
	Bio            *string   `json:"bio,omitempty"`
	AvatarURL      *string   `json:"avatar_url,omitempty"`
	IsPremium      bool      `json:"is_premium" gorm:"default:false"`
	DiamondCount   int64     `json:"diamond_count" gorm:"not null;default:0"`
	DeviceToken    *string   `json:"-"`
	IsActive       bool      `json:"is_active" gorm:"default:true"`
	LastActiveAt   time.Time `json:"last_active_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// FilterPreference holds a user's saved discovery filters. It is written by the
// profile-settings surface and read by the feed. Empty lists mean "no
// restriction on that dimension". Filters only take effect for premium users.
type FilterPreference struct {
	ID                uint      `json:"id" gorm:"primaryKey"`
	UserID            uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	MinAge            int       `json:"min_age" gorm:"default:18"`
	MaxAge            int       `json:"max_age" gorm:"default:99"`
	SelectedRanks     []string  `json:"selected_ranks" gorm:"serializer:json"`
	SelectedCities    []string  `json:"selected_cities" gorm:"serializer:json"`
	SelectedLanes     []string  `json:"selected_lanes" gorm:"serializer:json"`
	SelectedHeroes    []string  `json:"selected_heroes" gorm:"serializer:json"`
	CompatibilityMode bool      `json:"compatibility_mode" gorm:"default:false"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type Notification struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	Type      string    `json:"type" gorm:"not null"` // match, message, gift, task
	Title     string    `json:"title" gorm:"not null"`
	Body      string    `json:"body" gorm:"not null"`
	Data      string    `json:"data"`
	IsRead    bool      `json:"is_read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}
