package services

import (
	"context"
	"errors"
	"sort"

	"duoqueue-dating-app/internal/game"
	"duoqueue-dating-app/internal/models"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// compatibilityOversample is how many times the requested batch size gets
// fetched when candidates are re-ranked by compatibility score.
const compatibilityOversample = 3

// Candidate is one feed entry. Score is set only when the viewer's
// compatibility mode re-ranked the batch.
type Candidate struct {
	Profile models.Profile           `json:"profile"`
	Score   *game.CompatibilityScore `json:"score,omitempty"`
}

// FeedService builds the ordered queue of swipeable profiles.
type FeedService struct {
	db  *gorm.DB
	log *logrus.Logger
}

func NewFeedService(db *gorm.DB, log *logrus.Logger) *FeedService {
	return &FeedService{db: db, log: log}
}

// NextBatch returns up to limit candidates for the viewer. stagedIDs are
// profiles the caller has already fetched but not yet swiped; passing them in
// keeps incremental top-up calls from returning duplicates.
//
// Saved filters are intentionally ignored for non-premium viewers: they see
// the plain most-recently-active ordering regardless of preferences. This is
// the monetization gate, not an oversight.
func (s *FeedService) NextBatch(ctx context.Context, viewerID uint, stagedIDs []uint, limit int) ([]Candidate, error) {
	var viewer models.Profile
	if err := s.db.WithContext(ctx).First(&viewer, viewerID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	excluded, err := s.exclusionSet(ctx, viewerID, stagedIDs)
	if err != nil {
		return nil, err
	}

	var prefs *models.FilterPreference
	compatibilityMode := false
	if viewer.IsPremium {
		var p models.FilterPreference
		err := s.db.WithContext(ctx).Where("user_id = ?", viewerID).First(&p).Error
		if err == nil {
			prefs = &p
			compatibilityMode = p.CompatibilityMode
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	// Hero/lane overlap cannot be expressed against the JSON-serialized
	// columns, so those predicates run in memory over an oversized fetch.
	fetchLimit := limit
	if compatibilityMode || (prefs != nil && (len(prefs.SelectedHeroes) > 0 || len(prefs.SelectedLanes) > 0)) {
		fetchLimit = limit * compatibilityOversample
	}

	query := s.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("id != ?", viewerID).
		Order("last_active_at DESC").
		Limit(fetchLimit)
	if len(excluded) > 0 {
		query = query.Where("id NOT IN ?", excluded)
	}
	if prefs != nil {
		query = query.Where("age >= ? AND age <= ?", prefs.MinAge, prefs.MaxAge)
		if len(prefs.SelectedRanks) > 0 {
			query = query.Where("current_rank IN ?", prefs.SelectedRanks)
		}
		if len(prefs.SelectedCities) > 0 {
			query = query.Where("city IN ?", prefs.SelectedCities)
		}
	}

	var profiles []models.Profile
	if err := query.Find(&profiles).Error; err != nil {
		return nil, err
	}

	if prefs != nil {
		profiles = filterByOverlap(profiles, prefs.SelectedHeroes, prefs.SelectedLanes)
	}

	candidates := make([]Candidate, 0, len(profiles))
	for _, p := range profiles {
		candidates = append(candidates, Candidate{Profile: p})
	}

	if compatibilityMode {
		for i := range candidates {
			score := game.Compatibility(&viewer, &candidates[i].Profile)
			candidates[i].Score = &score
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return candidates[i].Score.OverallScore > candidates[j].Score.OverallScore
		})
	}

	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	return candidates, nil
}

// exclusionSet is everyone the viewer has ever swiped, everyone already
// matched with the viewer, and whatever the caller has staged locally.
func (s *FeedService) exclusionSet(ctx context.Context, viewerID uint, stagedIDs []uint) ([]uint, error) {
	var swipedIDs []uint
	if err := s.db.WithContext(ctx).Model(&models.Swipe{}).
		Where("swiper_id = ?", viewerID).
		Pluck("swiped_id", &swipedIDs).Error; err != nil {
		return nil, err
	}

	var matches []models.Match
	if err := s.db.WithContext(ctx).
		Where("user1_id = ? OR user2_id = ?", viewerID, viewerID).
		Find(&matches).Error; err != nil {
		return nil, err
	}

	seen := make(map[uint]bool, len(swipedIDs)+len(matches)+len(stagedIDs))
	excluded := make([]uint, 0, len(swipedIDs)+len(matches)+len(stagedIDs))
	add := func(id uint) {
		if id != 0 && !seen[id] {
			seen[id] = true
			excluded = append(excluded, id)
		}
	}
	for _, id := range swipedIDs {
		add(id)
	}
	for _, m := range matches {
		if m.User1ID == viewerID {
			add(m.User2ID)
		} else {
			add(m.User1ID)
		}
	}
	for _, id := range stagedIDs {
		add(id)
	}
	return excluded, nil
}

// filterByOverlap keeps profiles sharing at least one hero with the hero
// allow-list and one lane with the lane allow-list. Empty lists restrict
// nothing.
func filterByOverlap(profiles []models.Profile, heroes, lanes []string) []models.Profile {
	if len(heroes) == 0 && len(lanes) == 0 {
		return profiles
	}
	kept := profiles[:0]
	for _, p := range profiles {
		if len(heroes) > 0 && !overlaps(p.FavoriteHeroes, heroes) {
			continue
		}
		if len(lanes) > 0 && !overlaps(p.FavoriteLines, lanes) {
			continue
		}
		kept = append(kept, p)
	}
	return kept
}

func overlaps(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return true
			}
		}
	}
	return false
}
