package game

// Lane names as used in profiles and filters.
const (
	LaneGold   = "gold"
	LaneMid    = "mid"
	LaneExp    = "exp"
	LaneJungle = "jungle"
	LaneRoam   = "roam"
)

// Lanes lists every valid lane.
var Lanes = []string{LaneGold, LaneMid, LaneExp, LaneJungle, LaneRoam}

// RankLadder is the ordered ranked ladder, lowest tier first.
var RankLadder = []string{
	"Warrior",
	"Elite",
	"Master",
	"Grandmaster",
	"Epic",
	"Legend",
	"Mythic",
	"Mythical Glory",
}

// laneComplements maps a lane to the lanes that pair well with it in a duo.
// A gold laner wants a roamer or jungler rotating for them, a jungler wants
// lanes that follow up on ganks, and so on.
var laneComplements = map[string][]string{
	LaneGold:   {LaneRoam, LaneJungle},
	LaneMid:    {LaneJungle, LaneRoam},
	LaneExp:    {LaneRoam, LaneJungle},
	LaneJungle: {LaneMid, LaneGold, LaneExp},
	LaneRoam:   {LaneGold, LaneMid, LaneExp},
}

// heroSynergies lists well-known duo combos. Lookups are bidirectional:
// a combo listed under either hero counts for both.
var heroSynergies = map[string][]string{
	"Angela":    {"Fanny", "Chou", "Aldous"},
	"Franco":    {"Aurora", "Eudora", "Pharsa"},
	"Johnson":   {"Odette", "Eudora"},
	"Tigreal":   {"Vale", "Cecilion", "Pharsa"},
	"Khufra":    {"Cecilion", "Lylia"},
	"Diggie":    {"Claude", "Karrie"},
	"Estes":     {"Claude", "Karrie", "Moskov"},
	"Rafaela":   {"Layla", "Miya"},
	"Mathilda":  {"Paquito", "Yu Zhong"},
	"Kaja":      {"Gusion", "Lancelot"},
	"Atlas":     {"Pharsa", "Yve"},
	"Carmilla":  {"Cecilion"},
	"Floryn":    {"Beatrix", "Brody"},
	"Lolita":    {"Wanwan", "Melissa"},
	"Minotaur":  {"Odette", "Vale"},
	"Grock":     {"Harith"},
	"Faramis":   {"Aamon", "Vexana"},
	"Ruby":      {"Balmond"},
	"Gatotkaca": {"Pharsa", "Vale"},
	"Akai":      {"Alice"},
}

// RankIndex returns a rank's position in the ladder, or -1 if unknown.
func RankIndex(rank string) int {
	for i, r := range RankLadder {
		if r == rank {
			return i
		}
	}
	return -1
}

// ValidLane reports whether the given lane name exists.
func ValidLane(lane string) bool {
	for _, l := range Lanes {
		if l == lane {
			return true
		}
	}
	return false
}

// ValidRank reports whether the given rank name is on the ladder.
func ValidRank(rank string) bool {
	return RankIndex(rank) >= 0
}

// complementary reports whether lane b pairs well with lane a.
func complementary(a, b string) bool {
	for _, c := range laneComplements[a] {
		if c == b {
			return true
		}
	}
	return false
}

// synergize reports whether heroes a and b form a listed combo, in either
// direction.
func synergize(a, b string) bool {
	for _, h := range heroSynergies[a] {
		if h == b {
			return true
		}
	}
	for _, h := range heroSynergies[b] {
		if h == a {
			return true
		}
	}
	return false
}
