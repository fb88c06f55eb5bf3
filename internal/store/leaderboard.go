package store

import (
	"database/sql"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/mmoforge/skillstore/internal/models"
)

// totalColumn orders the all-skills leaderboard and overall rank.
const totalColumn = "total"

// Ranks is the result of ReadRank: one 1-based position per skill the player
// is ranked in, plus the overall position. Zero means unranked.
type Ranks struct {
	Skills  map[models.Skill]int `json:"skills"`
	Overall int                  `json:"overall"`
}

// ReadLeaderboard returns one page ordered by the selected skill descending,
// ties broken by name. An empty skill selects the denormalized total. Rows
// at zero and the sentinel name never appear.
func (s *Store) ReadLeaderboard(skill models.Skill, page, perPage int) []models.PlayerStat {
	column := totalColumn
	if skill != "" {
		if models.ParseSkill(string(skill)) == "" {
			return nil
		}
		column = string(skill)
	}

	stats := make([]models.PlayerStat, 0, perPage)
	err := s.pools.Misc.Raw(
		"SELECT `"+column+"` AS value, user AS name "+
			"FROM "+s.table("users")+" JOIN "+s.table("skills")+" ON (user_id = id) "+
			"WHERE `"+column+"` > 0 AND NOT user = ? "+
			"ORDER BY `"+column+"` DESC, user LIMIT ?, ?",
		models.SentinelName, (page*perPage)-perPage, perPage,
	).Scan(&stats).Error
	if err != nil {
		s.logError("ReadLeaderboard", "", err)
		return nil
	}
	return stats
}

// ReadRank computes the player's position per skill and overall. Position is
// the count of strictly greater rows plus the player's 1-based ordinal among
// the ties, ties ordered by name.
func (s *Store) ReadRank(playerName string) Ranks {
	ranks := Ranks{Skills: make(map[models.Skill]int, len(models.NonChildSkills))}

	err := s.pools.Misc.Connection(func(tx *gorm.DB) error {
		for _, skill := range models.NonChildSkills {
			if rank, ok := s.rankOnColumn(tx, playerName, string(skill)); ok {
				ranks.Skills[skill] = rank
			}
		}
		if rank, ok := s.rankOnColumn(tx, playerName, totalColumn); ok {
			ranks.Overall = rank
		}
		return nil
	})
	if err != nil {
		s.logError("ReadRank", playerName, err)
	}
	return ranks
}

func (s *Store) rankOnColumn(tx *gorm.DB, playerName, column string) (int, bool) {
	joined := s.table("users") + " JOIN " + s.table("skills") + " ON user_id = id"

	var higher int
	row := tx.Raw(
		"SELECT COUNT(*) FROM "+joined+" WHERE `"+column+"` > 0 "+
			"AND `"+column+"` > (SELECT `"+column+"` FROM "+joined+" WHERE user = ?)",
		playerName,
	).Row()
	if err := row.Scan(&higher); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logError("ReadRank", playerName, err)
		}
		return 0, false
	}

	// Ties are settled alphabetically.
	var ties []string
	err := tx.Raw(
		"SELECT user FROM "+joined+" WHERE `"+column+"` > 0 "+
			"AND `"+column+"` = (SELECT `"+column+"` FROM "+joined+" WHERE user = ?) "+
			"ORDER BY user",
		playerName,
	).Scan(&ties).Error
	if err != nil {
		s.logError("ReadRank", playerName, err)
		return 0, false
	}

	for i, name := range ties {
		if strings.EqualFold(name, playerName) {
			return higher + i + 1, true
		}
	}
	return 0, false
}
