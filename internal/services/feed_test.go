package services_test

import (
	"context"
	"testing"
	"time"

	"duoqueue-dating-app/internal/models"
	"duoqueue-dating-app/internal/services"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func candidateIDs(candidates []services.Candidate) []uint {
	ids := make([]uint, 0, len(candidates))
	for _, c := range candidates {
		ids = append(ids, c.Profile.ID)
	}
	return ids
}

func setProfile(t *testing.T, db *gorm.DB, id uint, updates map[string]interface{}) {
	t.Helper()
	if err := db.Model(&models.Profile{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		t.Fatalf("failed to update profile %d: %v", id, err)
	}
}

func TestNextBatchExcludesSwipedAndMatched(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	viewer := createUser(t, db, "viewer@test", 0, false)
	swiped := createUser(t, db, "swiped@test", 0, false)
	matched := createUser(t, db, "matched@test", 0, false)
	fresh := createUser(t, db, "fresh@test", 0, false)
	inactive := createUser(t, db, "inactive@test", 0, false)
	setProfile(t, db, inactive.ID, map[string]interface{}{"is_active": false})

	assert.NoError(t, db.Create(&models.Swipe{SwiperID: viewer.ID, SwipedID: swiped.ID, IsLike: false}).Error)
	createMatch(t, db, viewer.ID, matched.ID)

	candidates, err := feed.NextBatch(ctx, viewer.ID, nil, 10)
	assert.NoError(t, err)
	assert.Equal(t, []uint{fresh.ID}, candidateIDs(candidates))
}

func TestNextBatchExcludesStagedIDs(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	viewer := createUser(t, db, "viewer@test", 0, false)
	staged := createUser(t, db, "staged@test", 0, false)
	fresh := createUser(t, db, "fresh@test", 0, false)

	candidates, err := feed.NextBatch(ctx, viewer.ID, []uint{staged.ID}, 10)
	assert.NoError(t, err)
	assert.Equal(t, []uint{fresh.ID}, candidateIDs(candidates))
}

func TestNextBatchOrdersByLastActive(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	viewer := createUser(t, db, "viewer@test", 0, false)
	stale := createUser(t, db, "stale@test", 0, false)
	recent := createUser(t, db, "recent@test", 0, false)

	now := time.Now().UTC()
	setProfile(t, db, stale.ID, map[string]interface{}{"last_active_at": now.Add(-48 * time.Hour)})
	setProfile(t, db, recent.ID, map[string]interface{}{"last_active_at": now})

	candidates, err := feed.NextBatch(ctx, viewer.ID, nil, 10)
	assert.NoError(t, err)
	assert.Equal(t, []uint{recent.ID, stale.ID}, candidateIDs(candidates))

	// no compatibility mode, no scores
	for _, c := range candidates {
		assert.Nil(t, c.Score)
	}
}

func TestSavedFiltersIgnoredForFreeUsers(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	viewer := createUser(t, db, "viewer@test", 0, false)
	epic := createUser(t, db, "epic@test", 0, false) // rank Epic, outside the saved filter

	assert.NoError(t, db.Create(&models.FilterPreference{
		UserID:        viewer.ID,
		MinAge:        18,
		MaxAge:        99,
		SelectedRanks: []string{"Mythic"},
	}).Error)

	candidates, err := feed.NextBatch(ctx, viewer.ID, nil, 10)
	assert.NoError(t, err)
	assert.Equal(t, []uint{epic.ID}, candidateIDs(candidates))
}

func TestPremiumFiltersApply(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	viewer := createUser(t, db, "viewer@test", 0, true)
	keeper := createUser(t, db, "keeper@test", 0, false)
	wrongRank := createUser(t, db, "wrongrank@test", 0, false)
	tooYoung := createUser(t, db, "tooyoung@test", 0, false)
	wrongLane := createUser(t, db, "wronglane@test", 0, false)

	setProfile(t, db, keeper.ID, map[string]interface{}{"current_rank": "Mythic"})
	setProfile(t, db, wrongRank.ID, map[string]interface{}{"current_rank": "Warrior"})
	setProfile(t, db, tooYoung.ID, map[string]interface{}{"current_rank": "Mythic", "age": 18})
	setProfile(t, db, wrongLane.ID, map[string]interface{}{"current_rank": "Mythic", "favorite_lines": `["gold"]`})

	assert.NoError(t, db.Create(&models.FilterPreference{
		UserID:        viewer.ID,
		MinAge:        20,
		MaxAge:        30,
		SelectedRanks: []string{"Mythic"},
		SelectedLanes: []string{"mid", "jungle"},
	}).Error)

	candidates, err := feed.NextBatch(ctx, viewer.ID, nil, 10)
	assert.NoError(t, err)
	assert.Equal(t, []uint{keeper.ID}, candidateIDs(candidates))
}

func TestCompatibilityModeRanksBestDuoFirst(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	// viewer: Epic mid player in Jakarta
	viewer := createUser(t, db, "viewer@test", 0, true)
	setProfile(t, db, viewer.ID, map[string]interface{}{"favorite_heroes": `["Gusion"]`})

	weak := createUser(t, db, "weak@test", 0, false)
	strong := createUser(t, db, "strong@test", 0, false)

	// weak: same lane, far rank, other city
	setProfile(t, db, weak.ID, map[string]interface{}{
		"current_rank": "Warrior", "city": "Cebu", "favorite_lines": `["mid"]`,
	})
	// strong: complementary roamer, same rank and city, synergy hero
	setProfile(t, db, strong.ID, map[string]interface{}{
		"favorite_lines": `["roam"]`, "favorite_heroes": `["Kaja"]`,
	})
	// weak is the more recently active, so recency ordering alone would
	// put it first
	now := time.Now().UTC()
	setProfile(t, db, weak.ID, map[string]interface{}{"last_active_at": now})
	setProfile(t, db, strong.ID, map[string]interface{}{"last_active_at": now.Add(-time.Hour)})

	assert.NoError(t, db.Create(&models.FilterPreference{
		UserID:            viewer.ID,
		MinAge:            18,
		MaxAge:            99,
		CompatibilityMode: true,
	}).Error)

	candidates, err := feed.NextBatch(ctx, viewer.ID, nil, 10)
	assert.NoError(t, err)
	assert.Equal(t, []uint{strong.ID, weak.ID}, candidateIDs(candidates))

	assert.NotNil(t, candidates[0].Score)
	assert.NotNil(t, candidates[1].Score)
	assert.Greater(t, candidates[0].Score.OverallScore, candidates[1].Score.OverallScore)
}

func TestNextBatchRespectsLimit(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	viewer := createUser(t, db, "viewer@test", 0, false)
	createUser(t, db, "one@test", 0, false)
	createUser(t, db, "two@test", 0, false)
	createUser(t, db, "three@test", 0, false)

	candidates, err := feed.NextBatch(ctx, viewer.ID, nil, 2)
	assert.NoError(t, err)
	assert.Len(t, candidates, 2)
}

func TestNextBatchUnknownViewer(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	feed := services.NewFeedService(db, testLogger())

	_, err := feed.NextBatch(ctx, 424242, nil, 10)
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}
