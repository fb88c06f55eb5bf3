package models

import "github.com/google/uuid"

// SentinelName vacates a display name when another user claims it. Rows
// renamed to it are invisible to leaderboards and lookups.
const SentinelName = "_INVALID_OLD_USERNAME_"

// PlayerProfile is the in-memory value for one user's persisted progression.
// UUID is uuid.Nil for legacy rows that never recorded one.
type PlayerProfile struct {
	Name           string
	UUID           uuid.UUID
	Loaded         bool
	Skills         map[Skill]int
	Experience     map[Skill]float64
	Cooldowns      map[SuperAbility]int64
	Healthbar      HealthbarStyle
	ScoreboardTips int
}

// NewProfile returns an unloaded profile shell for name/uuid. Loaded stays
// false until the store fills it from a row.
func NewProfile(name string, id uuid.UUID) *PlayerProfile {
	return &PlayerProfile{
		Name:       name,
		UUID:       id,
		Skills:     make(map[Skill]int, len(Skills)),
		Experience: make(map[Skill]float64, len(Skills)),
		Cooldowns:  make(map[SuperAbility]int64, len(SuperAbilities)),
	}
}

// TotalLevel sums the non-child skill levels. The save path writes this into
// the denormalized total column used for leaderboard ordering.
func (p *PlayerProfile) TotalLevel() int {
	total := 0
	for _, skill := range NonChildSkills {
		total += p.Skills[skill]
	}
	return total
}

// PlayerStat is one leaderboard entry.
type PlayerStat struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}
