package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"duoqueue-dating-app/internal/models"
	"duoqueue-dating-app/internal/redis"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SwipeOutcome classifies what a recorded swipe resulted in. LimitReached is
// a distinct outcome rather than an error so handlers can present the
// premium upsell.
type SwipeOutcome string

const (
	OutcomeLiked        SwipeOutcome = "liked"
	OutcomePassed       SwipeOutcome = "passed"
	OutcomeMatched      SwipeOutcome = "matched"
	OutcomeLimitReached SwipeOutcome = "limit_reached"
	OutcomeDuplicate    SwipeOutcome = "duplicate"
)

// SwipeResult is what RecordSwipe hands back to the caller.
type SwipeResult struct {
	Outcome   SwipeOutcome  `json:"outcome"`
	Swipe     *models.Swipe `json:"swipe,omitempty"`
	Match     *models.Match `json:"match,omitempty"`
	Remaining int           `json:"remaining"`
}

// SwipeService records swipe decisions, enforces the daily quota and creates
// matches on mutual likes. Uniqueness of swipes and matches is enforced by
// database constraints, not by pre-checks, because both sides of a pair (and
// multiple devices of one user) act concurrently.
type SwipeService struct {
	db           *gorm.DB
	cache        *redis.Client
	tasks        *TaskService
	notify       *NotificationService
	log          *logrus.Logger
	freeLimit    int
	premiumLimit int
}

func NewSwipeService(db *gorm.DB, cache *redis.Client, tasks *TaskService, notify *NotificationService, log *logrus.Logger, freeLimit, premiumLimit int) *SwipeService {
	return &SwipeService{
		db:           db,
		cache:        cache,
		tasks:        tasks,
		notify:       notify,
		log:          log,
		freeLimit:    freeLimit,
		premiumLimit: premiumLimit,
	}
}

// dailyCountTTL keeps the quota mirror alive past the date rollover.
const dailyCountTTL = 48 * time.Hour

func dailySwipeKey(userID uint, date string) string {
	return fmt.Sprintf("swipes:daily:%d:%s", userID, date)
}

// RecordSwipe stores viewer's decision about target.
//
// A swipe that already exists is treated as success and changes nothing, so
// at-least-once delivery from the client is safe even after the day's quota
// is spent. Quota exhaustion on a new pair returns OutcomeLimitReached with
// no state change. On a mutual like the match is inserted in canonical order;
// a duplicate-key failure there means the other side won the race and the
// existing match is returned.
func (s *SwipeService) RecordSwipe(ctx context.Context, viewerID, targetID uint, isLike bool) (*SwipeResult, error) {
	if viewerID == targetID {
		return nil, errors.New("cannot swipe on yourself")
	}

	var viewer models.Profile
	if err := s.db.WithContext(ctx).First(&viewer, viewerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	limit := s.freeLimit
	if viewer.IsPremium {
		limit = s.premiumLimit
	}
	date := today()

	// Duplicates resolve before the quota gate: a client retrying its last
	// allowed swipe of the day must see the no-op success, not limit_reached.
	var existing models.Swipe
	err := s.db.WithContext(ctx).
		Where("swiper_id = ? AND swiped_id = ?", viewerID, targetID).
		First(&existing).Error
	if err == nil {
		return s.duplicateResult(ctx, viewerID, targetID, isLike, limit, date)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	used, err := s.usedToday(ctx, viewerID, date)
	if err != nil {
		return nil, err
	}
	if used >= limit {
		return &SwipeResult{Outcome: OutcomeLimitReached, Remaining: 0}, nil
	}

	swipe := models.Swipe{SwiperID: viewerID, SwipedID: targetID, IsLike: isLike}
	duplicate := false
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&swipe).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				duplicate = true
				return nil
			}
			return err
		}
		return s.bumpDailyCount(tx, viewerID, date)
	})
	if err != nil {
		return nil, err
	}

	if duplicate {
		// Lost the insert race against the same user's other device.
		return s.duplicateResult(ctx, viewerID, targetID, isLike, limit, date)
	}

	used++
	s.mirrorCount(ctx, viewerID, date)
	s.tasks.SignalProgress(ctx, viewerID, "swipe_10", 1)

	result := &SwipeResult{Outcome: OutcomePassed, Swipe: &swipe, Remaining: limit - used}
	if !isLike {
		return result, nil
	}
	result.Outcome = OutcomeLiked

	var reciprocal int64
	if err := s.db.WithContext(ctx).Model(&models.Swipe{}).
		Where("swiper_id = ? AND swiped_id = ? AND is_like = ?", targetID, viewerID, true).
		Count(&reciprocal).Error; err != nil {
		return nil, err
	}
	if reciprocal == 0 {
		return result, nil
	}

	match, err := s.createMatch(ctx, viewerID, targetID)
	if err != nil {
		return nil, err
	}
	result.Outcome = OutcomeMatched
	result.Match = match

	s.tasks.SignalProgress(ctx, viewerID, "match_1", 1)
	s.tasks.SignalProgress(ctx, targetID, "match_1", 1)
	s.notify.Notify(ctx, viewerID, "match", "It's a match!", "You have a new duo partner. Say hi!", fmt.Sprintf(`{"match_id": %d}`, match.ID))
	s.notify.Notify(ctx, targetID, "match", "It's a match!", "You have a new duo partner. Say hi!", fmt.Sprintf(`{"match_id": %d}`, match.ID))

	return result, nil
}

// RewindSwipe deletes the viewer's most recent swipe so the candidate can be
// re-decided. Premium only. The caller supplies the swipe id it believes is
// latest; ownership and recency are both verified server-side.
func (s *SwipeService) RewindSwipe(ctx context.Context, viewerID, swipeID uint) (*models.Profile, error) {
	var viewer models.Profile
	if err := s.db.WithContext(ctx).First(&viewer, viewerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !viewer.IsPremium {
		return nil, ErrPremiumRequired
	}

	var candidateID uint
	var swipeDate string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var swipe models.Swipe
		if err := tx.First(&swipe, swipeID).Error; err != nil {
			return err
		}
		if swipe.SwiperID != viewerID {
			return ErrNotOwner
		}

		var latest models.Swipe
		if err := tx.Where("swiper_id = ?", viewerID).
			Order("created_at DESC, id DESC").First(&latest).Error; err != nil {
			return err
		}
		if latest.ID != swipe.ID {
			return ErrNotLatestSwipe
		}

		if err := tx.Delete(&models.Swipe{}, swipe.ID).Error; err != nil {
			return err
		}

		candidateID = swipe.SwipedID
		swipeDate = swipe.CreatedAt.UTC().Format("2006-01-02")
		return tx.Model(&models.DailySwipeCount{}).
			Where("user_id = ? AND date = ? AND count > 0", viewerID, swipeDate).
			UpdateColumn("count", gorm.Expr("count - 1")).Error
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if _, err := s.cache.Decr(ctx, dailySwipeKey(viewerID, swipeDate)); err != nil {
			s.log.WithError(err).Warn("failed to mirror rewind in cache")
		}
	}

	var candidate models.Profile
	if err := s.db.WithContext(ctx).First(&candidate, candidateID).Error; err != nil {
		return nil, err
	}
	return &candidate, nil
}

// createMatch inserts the canonical pair and treats a unique violation as
// "match already exists": the racing insert from the other side won and the
// caller still gets the match.
func (s *SwipeService) createMatch(ctx context.Context, a, b uint) (*models.Match, error) {
	u1, u2 := models.CanonicalPair(a, b)
	match := models.Match{User1ID: u1, User2ID: u2, IsActive: true}
	err := s.db.WithContext(ctx).Create(&match).Error
	if err == nil {
		s.cacheMatch(ctx, &match)
		return &match, nil
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ?", u1, u2).First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// duplicateResult reports a retried swipe as success without charging quota,
// surfacing any match the earlier like already produced so a retried mutual
// like still renders its match screen.
func (s *SwipeService) duplicateResult(ctx context.Context, viewerID, targetID uint, isLike bool, limit int, date string) (*SwipeResult, error) {
	used, err := s.usedToday(ctx, viewerID, date)
	if err != nil {
		return nil, err
	}
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	result := &SwipeResult{Outcome: OutcomeDuplicate, Remaining: remaining}
	if isLike {
		if match, err := s.matchFor(ctx, viewerID, targetID); err == nil {
			result.Match = match
		}
	}
	return result, nil
}

func (s *SwipeService) matchFor(ctx context.Context, a, b uint) (*models.Match, error) {
	u1, u2 := models.CanonicalPair(a, b)
	var match models.Match
	if err := s.db.WithContext(ctx).
		Where("user1_id = ? AND user2_id = ? AND is_active = ?", u1, u2, true).
		First(&match).Error; err != nil {
		return nil, err
	}
	return &match, nil
}

// usedToday serves the quota gate from the cache when possible, with the
// database as the source of truth. A cache miss rebuilds the mirror from the
// database row so later relative bumps start from the real count.
func (s *SwipeService) usedToday(ctx context.Context, viewerID uint, date string) (int, error) {
	key := dailySwipeKey(viewerID, date)
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, key); err == nil {
			var n int
			if _, err := fmt.Sscanf(cached, "%d", &n); err == nil {
				return n, nil
			}
		}
	}

	count := 0
	var row models.DailySwipeCount
	err := s.db.WithContext(ctx).Where("user_id = ? AND date = ?", viewerID, date).First(&row).Error
	switch {
	case err == nil:
		count = row.Count
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return 0, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, count, dailyCountTTL); err != nil {
			s.log.WithError(err).Warn("failed to rebuild swipe count mirror")
		}
	}
	return count, nil
}

func (s *SwipeService) bumpDailyCount(tx *gorm.DB, viewerID uint, date string) error {
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("daily_swipe_counts.count + 1")}),
	}).Create(&models.DailySwipeCount{UserID: viewerID, Date: date, Count: 1}).Error
}

// mirrorCount bumps the cache copy relatively, matching the relative upsert
// on the database row, so concurrent devices never overwrite each other's
// increments with a stale absolute value.
func (s *SwipeService) mirrorCount(ctx context.Context, viewerID uint, date string) {
	if s.cache == nil {
		return
	}
	key := dailySwipeKey(viewerID, date)
	if _, err := s.cache.Incr(ctx, key); err != nil {
		s.log.WithError(err).Warn("failed to mirror swipe count in cache")
		return
	}
	if err := s.cache.Expire(ctx, key, dailyCountTTL); err != nil {
		s.log.WithError(err).Warn("failed to set swipe count mirror TTL")
	}
}

func (s *SwipeService) cacheMatch(ctx context.Context, match *models.Match) {
	if s.cache == nil {
		return
	}
	key := fmt.Sprintf("match:%d", match.ID)
	err := s.cache.HSet(ctx, key,
		"user1_id", match.User1ID,
		"user2_id", match.User2ID,
		"created_at", match.CreatedAt.Unix(),
	)
	if err != nil {
		s.log.WithError(err).Warn("failed to cache match")
		return
	}
	if err := s.cache.Expire(ctx, key, 24*time.Hour); err != nil {
		s.log.WithError(err).Warn("failed to set match cache TTL")
	}
}
