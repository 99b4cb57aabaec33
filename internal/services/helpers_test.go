package services_test

import (
	"io"
	"testing"
	"time"

	"duoqueue-dating-app/internal/database"
	"duoqueue-dating-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setup in-memory DB with the full schema and the daily task catalog
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	if err := database.SeedDailyTasks(db); err != nil {
		t.Fatalf("failed to seed tasks: %v", err)
	}
	return db
}

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// createUser inserts a minimal active profile and returns it.
func createUser(t *testing.T, db *gorm.DB, email string, diamonds int64, premium bool) *models.Profile {
	t.Helper()
	user := &models.Profile{
		Email:         email,
		PasswordHash:  "x",
		Nickname:      email,
		Age:           21,
		Gender:        "other",
		City:          "Jakarta",
		CurrentRank:   "Epic",
		FavoriteLines: []string{"mid"},
		IsPremium:     premium,
		DiamondCount:  diamonds,
		IsActive:      true,
		LastActiveAt:  time.Now().UTC(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// createMatch inserts an active match between the two users in canonical order.
func createMatch(t *testing.T, db *gorm.DB, a, b uint) *models.Match {
	t.Helper()
	u1, u2 := models.CanonicalPair(a, b)
	match := &models.Match{User1ID: u1, User2ID: u2, IsActive: true}
	if err := db.Create(match).Error; err != nil {
		t.Fatalf("failed to create match: %v", err)
	}
	return match
}

func balanceOf(t *testing.T, db *gorm.DB, userID uint) int64 {
	t.Helper()
	var user models.Profile
	if err := db.First(&user, userID).Error; err != nil {
		t.Fatalf("failed to load user %d: %v", userID, err)
	}
	return user.DiamondCount
}

func taskByCode(t *testing.T, db *gorm.DB, code string) *models.DailyTask {
	t.Helper()
	var task models.DailyTask
	if err := db.Where("code = ?", code).First(&task).Error; err != nil {
		t.Fatalf("failed to load task %s: %v", code, err)
	}
	return &task
}
