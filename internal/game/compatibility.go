package game

import (
	"duoqueue-dating-app/internal/models"
)

// Score weights. Lane fit dominates because a duo queues into the same draft;
// location matters least.
const (
	weightLine     = 0.4
	weightHero     = 0.3
	weightRank     = 0.2
	weightLocation = 0.1
)

// CompatibilityScore breaks down how well two profiles fit as a duo. Every
// field is in [0,1].
type CompatibilityScore struct {
	LineCompatibility float64 `json:"line_compatibility"`
	HeroSynergy       float64 `json:"hero_synergy"`
	RankProximity     float64 `json:"rank_proximity"`
	LocationProximity float64 `json:"location_proximity"`
	OverallScore      float64 `json:"overall_score"`
}

// Compatibility scores candidate against viewer. It is a pure function of the
// two profiles: no side effects, reproducible for identical inputs.
func Compatibility(viewer, candidate *models.Profile) CompatibilityScore {
	s := CompatibilityScore{
		LineCompatibility: lineCompatibility(viewer.FavoriteLines, candidate.FavoriteLines),
		HeroSynergy:       heroSynergy(viewer.FavoriteHeroes, candidate.FavoriteHeroes),
		RankProximity:     rankProximity(viewer.CurrentRank, candidate.CurrentRank),
		LocationProximity: locationProximity(viewer.City, candidate.City),
	}
	s.OverallScore = weightLine*s.LineCompatibility +
		weightHero*s.HeroSynergy +
		weightRank*s.RankProximity +
		weightLocation*s.LocationProximity
	return s
}

// lineCompatibility takes the best pairing across all lane pairs: 1.0 for a
// complementary pair, 0.3 for the same lane (competing for one role), 0
// otherwise.
func lineCompatibility(viewerLanes, candidateLanes []string) float64 {
	best := 0.0
	for _, v := range viewerLanes {
		for _, c := range candidateLanes {
			switch {
			case complementary(v, c) || complementary(c, v):
				return 1.0
			case v == c && best < 0.3:
				best = 0.3
			}
		}
	}
	return best
}

// heroSynergy takes the best pairing across all hero pairs: 1.0 for a listed
// combo, 0.5 when both players favor the same hero, 0 otherwise.
func heroSynergy(viewerHeroes, candidateHeroes []string) float64 {
	best := 0.0
	for _, v := range viewerHeroes {
		for _, c := range candidateHeroes {
			switch {
			case synergize(v, c):
				return 1.0
			case v == c && best < 0.5:
				best = 0.5
			}
		}
	}
	return best
}

// rankProximity maps ladder distance to a score. Unknown ranks score the
// bottom of the scale rather than erroring.
func rankProximity(viewerRank, candidateRank string) float64 {
	vi, ci := RankIndex(viewerRank), RankIndex(candidateRank)
	if vi < 0 || ci < 0 {
		return 0.1
	}
	d := vi - ci
	if d < 0 {
		d = -d
	}
	switch d {
	case 0:
		return 1.0
	case 1:
		return 0.8
	case 2:
		return 0.6
	case 3:
		return 0.4
	}
	if s := 1.0 - 0.15*float64(d); s > 0.1 {
		return s
	}
	return 0.1
}

// locationProximity is a flat same-city check; there is no geo distance.
func locationProximity(viewerCity, candidateCity string) float64 {
	if viewerCity != "" && viewerCity == candidateCity {
		return 1.0
	}
	return 0.6
}
