package database

import (
	"fmt"

	"duoqueue-dating-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func Initialize(databaseURL string) (*gorm.DB, error) {
	// TranslateError lets callers detect unique-constraint violations as
	// gorm.ErrDuplicatedKey; the swipe and match paths rely on it.
	config := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(databaseURL), config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database instance: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := Migrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logrus.Info("database connected and migrated")
	return db, nil
}

// Migrate keeps the schema in sync with the models. Also used by tests
// against an in-memory database.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Profile{},
		&models.FilterPreference{},
		&models.Swipe{},
		&models.Match{},
		&models.Message{},
		&models.Transaction{},
		&models.DailyTask{},
		&models.DailyTaskProgress{},
		&models.DailySwipeCount{},
		&models.Notification{},
	)
}

// SeedDailyTasks inserts the daily task catalog if missing.
func SeedDailyTasks(db *gorm.DB) error {
	tasks := []models.DailyTask{
		{Code: "login", Title: "Log in today", Target: 1, RewardDiamonds: 5, IsActive: true},
		{Code: "swipe_10", Title: "Swipe 10 profiles", Target: 10, RewardDiamonds: 10, IsActive: true},
		{Code: "match_1", Title: "Get a new match", Target: 1, RewardDiamonds: 20, IsActive: true},
		{Code: "send_message_3", Title: "Send 3 messages", Target: 3, RewardDiamonds: 15, IsActive: true},
	}

	for _, task := range tasks {
		if err := db.Where(models.DailyTask{Code: task.Code}).FirstOrCreate(&task).Error; err != nil {
			return fmt.Errorf("failed to seed task %s: %w", task.Code, err)
		}
	}

	logrus.Info("daily tasks seeded")
	return nil
}
