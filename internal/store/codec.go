package store

import (
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/mmoforge/skillstore/internal/models"
)

// cooldownColumns is the full column set of the cooldowns table. Four of
// them (taming, repair, archery, acrobatics) carry no ability and are kept
// only for schema compatibility with old installs.
var cooldownColumns = []string{
	"taming", "mining", "woodcutting", "repair", "unarmed", "herbalism",
	"excavation", "archery", "swords", "axes", "acrobatics",
	"blast_mining", "chimaera_wing",
}

// abilityColumn maps each super ability to the cooldowns column holding its
// deactivated-at timestamp.
var abilityColumn = map[models.SuperAbility]string{
	models.AbilitySuperBreaker:     "mining",
	models.AbilityTreeFeller:       "woodcutting",
	models.AbilityBerserk:          "unarmed",
	models.AbilityGreenTerra:       "herbalism",
	models.AbilityGigaDrillBreaker: "excavation",
	models.AbilitySerratedStrikes:  "swords",
	models.AbilitySkullSplitter:    "axes",
	models.AbilityBlastMining:      "blast_mining",
	models.AbilityChimaeraWing:     "chimaera_wing",
}

// wideSelect builds the five-table JOIN behind every profile read. Columns
// are aliased (s_mining, e_mining, c_mining, ...) and decoded by name, so
// adding a skill cannot silently shift another field.
func (s *Store) wideSelect(where string) string {
	var cols []string
	for _, skill := range models.Skills {
		cols = append(cols, "s.`"+string(skill)+"` AS s_"+string(skill))
	}
	for _, skill := range models.Skills {
		cols = append(cols, "e.`"+string(skill)+"` AS e_"+string(skill))
	}
	for _, ability := range models.SuperAbilities {
		col := abilityColumn[ability]
		cols = append(cols, "c.`"+col+"` AS c_"+col)
	}
	cols = append(cols, "h.mobhealthbar", "h.scoreboardtips", "u.uuid", "u.user")

	return "SELECT " + strings.Join(cols, ", ") +
		" FROM " + s.table("users") + " u " +
		"JOIN " + s.table("skills") + " s ON (u.id = s.user_id) " +
		"JOIN " + s.table("experience") + " e ON (u.id = e.user_id) " +
		"JOIN " + s.table("cooldowns") + " c ON (u.id = c.user_id) " +
		"JOIN " + s.table("huds") + " h ON (u.id = h.user_id) " +
		"WHERE " + where
}

// decodeProfile projects a wide row into a loaded profile. HUD fields and
// the UUID tolerate corrupt or absent values and decode to their defaults;
// experience widens to float64 because in-memory XP carries fractions.
func (s *Store) decodeProfile(name string, row map[string]any) *models.PlayerProfile {
	storedName := rowString(row, "user")
	if name == "" {
		name = storedName
	}

	profile := models.NewProfile(name, uuid.Nil)
	profile.Loaded = true

	for _, skill := range models.Skills {
		profile.Skills[skill] = int(rowInt(row, "s_"+string(skill)))
		profile.Experience[skill] = rowFloat(row, "e_"+string(skill))
	}
	for _, ability := range models.SuperAbilities {
		profile.Cooldowns[ability] = rowInt(row, "c_"+abilityColumn[ability])
	}

	profile.Healthbar = models.ParseHealthbarStyle(
		rowString(row, "mobhealthbar"),
		models.HealthbarStyle(s.cfg.DefaultHealthbar))
	profile.ScoreboardTips = int(rowInt(row, "scoreboardtips"))

	if parsed, err := uuid.Parse(rowString(row, "uuid")); err == nil {
		profile.UUID = parsed
	}

	return profile
}

// The driver hands back int64 for integer columns and []byte for text; a
// few legacy installs also surface numerics as strings. The rowX helpers
// absorb all of that and default to zero values.

func rowInt(row map[string]any, col string) int64 {
	switch v := row[col].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case uint64:
		return int64(v)
	case float64:
		return int64(v)
	case []byte:
		n, _ := strconv.ParseInt(string(v), 10, 64)
		return n
	case string:
		n, _ := strconv.ParseInt(v, 10, 64)
		return n
	default:
		return 0
	}
}

func rowFloat(row map[string]any, col string) float64 {
	switch v := row[col].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case uint64:
		return float64(v)
	case []byte:
		f, _ := strconv.ParseFloat(string(v), 64)
		return f
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func rowString(row map[string]any, col string) string {
	switch v := row[col].(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}
