package services_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"duoqueue-dating-app/internal/models"
	"duoqueue-dating-app/internal/redis"
	"duoqueue-dating-app/internal/services"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func newSwipeService(t *testing.T, db *gorm.DB, cache *redis.Client, freeLimit, premiumLimit int) *services.SwipeService {
	t.Helper()
	log := testLogger()
	tasks := services.NewTaskService(db, log)
	notify := services.NewNotificationService(db, nil, log)
	return services.NewSwipeService(db, cache, tasks, notify, log, freeLimit, premiumLimit)
}

func TestRecordSwipeLikeAndPass(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)
	liked := createUser(t, db, "liked@test", 0, false)
	passed := createUser(t, db, "passed@test", 0, false)

	result, err := swipes.RecordSwipe(ctx, viewer.ID, liked.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeLiked, result.Outcome)
	assert.Equal(t, 19, result.Remaining)
	assert.Nil(t, result.Match)

	result, err = swipes.RecordSwipe(ctx, viewer.ID, passed.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomePassed, result.Outcome)
	assert.Equal(t, 18, result.Remaining)
}

func TestRecordSwipeRejectsSelf(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)

	_, err := swipes.RecordSwipe(ctx, viewer.ID, viewer.ID, true)
	assert.Error(t, err)
}

func TestMutualLikeCreatesOneCanonicalMatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	a := createUser(t, db, "a@test", 0, false)
	b := createUser(t, db, "b@test", 0, false)

	// like from the higher id first, so canonical order is exercised
	result, err := swipes.RecordSwipe(ctx, b.ID, a.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeLiked, result.Outcome)

	result, err = swipes.RecordSwipe(ctx, a.ID, b.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeMatched, result.Outcome)
	assert.NotNil(t, result.Match)
	assert.Less(t, result.Match.User1ID, result.Match.User2ID)

	var count int64
	db.Model(&models.Match{}).Count(&count)
	assert.Equal(t, int64(1), count)

	// both sides got the match notification
	var notifications int64
	db.Model(&models.Notification{}).Where("type = ?", "match").Count(&notifications)
	assert.Equal(t, int64(2), notifications)
}

func TestLikeThenPassDoesNotMatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	a := createUser(t, db, "a@test", 0, false)
	b := createUser(t, db, "b@test", 0, false)

	_, err := swipes.RecordSwipe(ctx, a.ID, b.ID, true)
	assert.NoError(t, err)
	result, err := swipes.RecordSwipe(ctx, b.ID, a.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomePassed, result.Outcome)

	var count int64
	db.Model(&models.Match{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestDuplicateSwipeIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)
	target := createUser(t, db, "target@test", 0, false)

	first, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeLiked, first.Outcome)

	// the retry changes nothing and is not charged against the quota
	second, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, second.Outcome)
	assert.Equal(t, first.Remaining, second.Remaining)

	var swipeRows int64
	db.Model(&models.Swipe{}).Count(&swipeRows)
	assert.Equal(t, int64(1), swipeRows)

	var daily models.DailySwipeCount
	assert.NoError(t, db.Where("user_id = ?", viewer.ID).First(&daily).Error)
	assert.Equal(t, 1, daily.Count)
}

func TestDuplicateLikeSurfacesExistingMatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	a := createUser(t, db, "a@test", 0, false)
	b := createUser(t, db, "b@test", 0, false)

	_, err := swipes.RecordSwipe(ctx, a.ID, b.ID, true)
	assert.NoError(t, err)
	_, err = swipes.RecordSwipe(ctx, b.ID, a.ID, true)
	assert.NoError(t, err)

	// a retried like after the match still renders the match screen
	result, err := swipes.RecordSwipe(ctx, a.ID, b.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, result.Outcome)
	assert.NotNil(t, result.Match)
}

func TestDailyLimitBlocksFurtherSwipes(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 3, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)
	for i := 0; i < 4; i++ {
		createUser(t, db, fmt.Sprintf("candidate%d@test", i), 0, false)
	}

	for i := 0; i < 3; i++ {
		var target models.Profile
		assert.NoError(t, db.Where("email = ?", fmt.Sprintf("candidate%d@test", i)).First(&target).Error)
		result, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
		assert.NoError(t, err)
		assert.Equal(t, services.OutcomePassed, result.Outcome)
		assert.Equal(t, 2-i, result.Remaining)
	}

	var target models.Profile
	assert.NoError(t, db.Where("email = ?", "candidate3@test").First(&target).Error)
	result, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeLimitReached, result.Outcome)
	assert.Equal(t, 0, result.Remaining)

	// the blocked swipe left no row behind
	var swipeRows int64
	db.Model(&models.Swipe{}).Count(&swipeRows)
	assert.Equal(t, int64(3), swipeRows)
}

func TestPremiumGetsHigherLimit(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 1, 5)

	viewer := createUser(t, db, "viewer@test", 0, true)
	first := createUser(t, db, "first@test", 0, false)
	second := createUser(t, db, "second@test", 0, false)

	result, err := swipes.RecordSwipe(ctx, viewer.ID, first.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomePassed, result.Outcome)

	// past the free limit but inside the premium one
	result, err = swipes.RecordSwipe(ctx, viewer.ID, second.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomePassed, result.Outcome)
	assert.Equal(t, 3, result.Remaining)
}

func TestSwipeCountMirroredInCache(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	mr := miniredis.RunT(t)
	cache := redis.NewFromAddr(mr.Addr())
	swipes := newSwipeService(t, db, cache, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)
	target := createUser(t, db, "target@test", 0, false)

	_, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
	assert.NoError(t, err)

	keys := mr.Keys()
	assert.Len(t, keys, 1)
	value, err := mr.Get(keys[0])
	assert.NoError(t, err)
	assert.Equal(t, "1", value)
}

func TestRetriedSwipeAtLimitIsDuplicate(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 1, 5)

	viewer := createUser(t, db, "viewer@test", 0, false)
	target := createUser(t, db, "target@test", 0, false)

	first, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomePassed, first.Outcome)
	assert.Equal(t, 0, first.Remaining)

	// retrying the day's last allowed swipe is still the no-op success,
	// not a quota rejection
	retry, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, retry.Outcome)
	assert.Equal(t, 0, retry.Remaining)

	var swipeRows int64
	db.Model(&models.Swipe{}).Count(&swipeRows)
	assert.Equal(t, int64(1), swipeRows)
}

func TestRetriedMutualLikeAtLimitSurfacesMatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 1, 5)

	a := createUser(t, db, "a@test", 0, false)
	b := createUser(t, db, "b@test", 0, false)

	_, err := swipes.RecordSwipe(ctx, b.ID, a.ID, true)
	assert.NoError(t, err)
	result, err := swipes.RecordSwipe(ctx, a.ID, b.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeMatched, result.Outcome)

	// a's quota is spent, but the retried like still carries the match
	retry, err := swipes.RecordSwipe(ctx, a.ID, b.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeDuplicate, retry.Outcome)
	assert.NotNil(t, retry.Match)
}

func TestSwipeCountMirrorBumpsRelatively(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)

	mr := miniredis.RunT(t)
	cache := redis.NewFromAddr(mr.Addr())
	swipes := newSwipeService(t, db, cache, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)
	first := createUser(t, db, "first@test", 0, false)
	second := createUser(t, db, "second@test", 0, false)

	_, err := swipes.RecordSwipe(ctx, viewer.ID, first.ID, false)
	assert.NoError(t, err)

	key := fmt.Sprintf("swipes:daily:%d:%s", viewer.ID, time.Now().UTC().Format("2006-01-02"))
	value, err := mr.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, "1", value)

	// another device got its increments in first; the next swipe must add
	// to the cached value, not overwrite it with this device's view
	assert.NoError(t, mr.Set(key, "5"))
	_, err = swipes.RecordSwipe(ctx, viewer.ID, second.ID, false)
	assert.NoError(t, err)

	value, err = mr.Get(key)
	assert.NoError(t, err)
	assert.Equal(t, "6", value)
}

func TestRewindRestoresQuotaAndAllowsReswipe(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 1, 1)

	viewer := createUser(t, db, "viewer@test", 0, true)
	target := createUser(t, db, "target@test", 0, false)

	result, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomePassed, result.Outcome)

	candidate, err := swipes.RewindSwipe(ctx, viewer.ID, result.Swipe.ID)
	assert.NoError(t, err)
	assert.Equal(t, target.ID, candidate.ID)

	var daily models.DailySwipeCount
	assert.NoError(t, db.Where("user_id = ?", viewer.ID).First(&daily).Error)
	assert.Equal(t, 0, daily.Count)

	// the rewound candidate can be decided again, this time as a like
	result, err = swipes.RecordSwipe(ctx, viewer.ID, target.ID, true)
	assert.NoError(t, err)
	assert.Equal(t, services.OutcomeLiked, result.Outcome)
}

func TestRewindRequiresPremium(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, false)
	target := createUser(t, db, "target@test", 0, false)

	result, err := swipes.RecordSwipe(ctx, viewer.ID, target.ID, false)
	assert.NoError(t, err)

	_, err = swipes.RewindSwipe(ctx, viewer.ID, result.Swipe.ID)
	assert.ErrorIs(t, err, services.ErrPremiumRequired)
}

func TestRewindRejectsForeignSwipe(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, true)
	other := createUser(t, db, "other@test", 0, true)
	target := createUser(t, db, "target@test", 0, false)

	result, err := swipes.RecordSwipe(ctx, other.ID, target.ID, false)
	assert.NoError(t, err)

	_, err = swipes.RewindSwipe(ctx, viewer.ID, result.Swipe.ID)
	assert.ErrorIs(t, err, services.ErrNotOwner)
}

func TestRewindOnlyLatestSwipe(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	swipes := newSwipeService(t, db, nil, 20, 50)

	viewer := createUser(t, db, "viewer@test", 0, true)
	first := createUser(t, db, "first@test", 0, false)
	second := createUser(t, db, "second@test", 0, false)

	older, err := swipes.RecordSwipe(ctx, viewer.ID, first.ID, false)
	assert.NoError(t, err)
	_, err = swipes.RecordSwipe(ctx, viewer.ID, second.ID, false)
	assert.NoError(t, err)

	_, err = swipes.RewindSwipe(ctx, viewer.ID, older.Swipe.ID)
	assert.ErrorIs(t, err, services.ErrNotLatestSwipe)

	// nothing was deleted
	var swipeRows int64
	db.Model(&models.Swipe{}).Count(&swipeRows)
	assert.Equal(t, int64(2), swipeRows)
}
