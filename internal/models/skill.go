package models

import "strings"

// Skill is a primary skill. The string value doubles as the column name in
// the skills and experience tables.
type Skill string

const (
	SkillTaming      Skill = "taming"
	SkillMining      Skill = "mining"
	SkillRepair      Skill = "repair"
	SkillWoodcutting Skill = "woodcutting"
	SkillUnarmed     Skill = "unarmed"
	SkillHerbalism   Skill = "herbalism"
	SkillExcavation  Skill = "excavation"
	SkillArchery     Skill = "archery"
	SkillSwords      Skill = "swords"
	SkillAxes        Skill = "axes"
	SkillAcrobatics  Skill = "acrobatics"
	SkillFishing     Skill = "fishing"
	SkillAlchemy     Skill = "alchemy"
)

// Skills lists every stored skill in table column order.
var Skills = []Skill{
	SkillTaming, SkillMining, SkillRepair, SkillWoodcutting, SkillUnarmed,
	SkillHerbalism, SkillExcavation, SkillArchery, SkillSwords, SkillAxes,
	SkillAcrobatics, SkillFishing, SkillAlchemy,
}

// NonChildSkills is the subset whose levels sum into the denormalized total
// column. Child skills have no columns of their own, so here it is the full
// stored set.
var NonChildSkills = Skills

// ParseSkill returns the skill for a column/display name, or "" if unknown.
func ParseSkill(s string) Skill {
	for _, skill := range Skills {
		if string(skill) == strings.ToLower(s) {
			return skill
		}
	}
	return ""
}

// SuperAbility is a timed buff whose deactivated-at timestamp (epoch seconds)
// is persisted in the cooldowns table.
type SuperAbility string

const (
	AbilitySuperBreaker     SuperAbility = "super_breaker"
	AbilityTreeFeller       SuperAbility = "tree_feller"
	AbilityBerserk          SuperAbility = "berserk"
	AbilityGreenTerra       SuperAbility = "green_terra"
	AbilityGigaDrillBreaker SuperAbility = "giga_drill_breaker"
	AbilitySerratedStrikes  SuperAbility = "serrated_strikes"
	AbilitySkullSplitter    SuperAbility = "skull_splitter"
	AbilityBlastMining      SuperAbility = "blast_mining"
	AbilityChimaeraWing     SuperAbility = "chimaera_wing"
)

// SuperAbilities lists the nine persisted cooldown anchors.
var SuperAbilities = []SuperAbility{
	AbilitySuperBreaker, AbilityTreeFeller, AbilityBerserk, AbilityGreenTerra,
	AbilityGigaDrillBreaker, AbilitySerratedStrikes, AbilitySkullSplitter,
	AbilityBlastMining, AbilityChimaeraWing,
}

// HealthbarStyle is the HUD mob-healthbar rendering style.
type HealthbarStyle string

const (
	HealthbarHearts   HealthbarStyle = "HEARTS"
	HealthbarBarGraph HealthbarStyle = "BAR_GRAPH"
)

// ParseHealthbarStyle decodes a stored style. Unknown or empty values fall
// back to the given default so a corrupt HUD row never fails a load.
func ParseHealthbarStyle(s string, fallback HealthbarStyle) HealthbarStyle {
	switch HealthbarStyle(strings.ToUpper(s)) {
	case HealthbarHearts:
		return HealthbarHearts
	case HealthbarBarGraph:
		return HealthbarBarGraph
	default:
		return fallback
	}
}
