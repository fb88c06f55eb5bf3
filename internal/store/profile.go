package store

import (
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmoforge/skillstore/internal/models"
)

// LoadProfile reads the profile for (name, uuid), creating the account first
// when create is set. A failed attempt is retried exactly once (identity is
// re-resolved on the retry); after that an unloaded profile shell comes back
// and the caller decides what to do with it.
func (s *Store) LoadProfile(name string, id uuid.UUID, create bool) *models.PlayerProfile {
	if profile, ok := s.loadProfile(name, id, create); ok {
		return profile
	}
	if profile, ok := s.loadProfile(name, id, create); ok {
		return profile
	}
	return models.NewProfile(name, id)
}

func (s *Store) loadProfile(name string, id uuid.UUID, create bool) (*models.PlayerProfile, bool) {
	var profile *models.PlayerProfile

	err := s.pools.Load.Connection(func(tx *gorm.DB) error {
		userID := s.userID(tx, name, id)
		if userID == UserNotFound {
			if !create {
				profile = models.NewProfile(name, id)
				return nil
			}
			userID = s.newUser(tx, name, id)
			if userID == UserNotFound {
				profile = models.NewProfile(name, id)
				return nil
			}
		}

		s.writeMissingRows(tx, userID)

		row := map[string]any{}
		res := tx.Raw(s.wideSelect("u.id = ?"), userID).Scan(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Resolved an id but the JOIN produced nothing; dependent rows
			// are missing beyond repair for this attempt.
			return gorm.ErrRecordNotFound
		}

		profile = s.decodeProfile(name, row)

		if name != "" && !strings.EqualFold(name, rowString(row, "user")) && id != uuid.Nil {
			s.reconcileName(tx, userID, name, id)
		}
		return nil
	})
	if err != nil {
		s.logError("LoadProfile", name, err)
		return nil, false
	}
	return profile, true
}

// reconcileName handles a display-name change: whoever currently holds the
// caller's name loses it to the sentinel, then the resolved row claims the
// name and pins the uuid.
func (s *Store) reconcileName(tx *gorm.DB, userID int64, name string, id uuid.UUID) {
	if err := tx.Exec(
		"UPDATE `"+s.table("users")+"` SET user = ? WHERE user = ?",
		models.SentinelName, name,
	).Error; err != nil {
		s.logError("reconcileName", name, err)
		return
	}
	if err := tx.Exec(
		"UPDATE `"+s.table("users")+"` SET user = ?, uuid = ? WHERE id = ?",
		name, id.String(), userID,
	).Error; err != nil {
		s.logError("reconcileName", name, err)
	}
}

// SaveProfile flushes a profile through the SAVE pool: last-login touch plus
// four fan-out updates, each auto-committed. A statement that matches no row
// means the dependent row vanished; that is reported as failure, never
// retried. Partial writes are possible and tolerated by the schema.
func (s *Store) SaveProfile(profile *models.PlayerProfile) bool {
	success := false
	err := s.pools.Save.Connection(func(tx *gorm.DB) error {
		userID := s.userID(tx, profile.Name, profile.UUID)
		if userID == UserNotFound {
			userID = s.newUser(tx, profile.Name, profile.UUID)
			if userID == UserNotFound {
				slog.Error("failed to create new account for save", "player", profile.Name)
				return nil
			}
		}

		res := tx.Exec("UPDATE "+s.table("users")+" SET lastlogin = UNIX_TIMESTAMP() WHERE id = ?", userID)
		if !s.saveStatementOK(res, "last login", profile.Name) {
			return nil
		}

		if !s.saveSkills(tx, userID, profile) ||
			!s.saveExperience(tx, userID, profile) ||
			!s.saveCooldowns(tx, userID, profile) ||
			!s.saveHud(tx, userID, profile) {
			return nil
		}

		success = true
		return nil
	})
	if err != nil {
		s.logError("SaveProfile", profile.Name, err)
		return false
	}
	return success
}

func (s *Store) saveStatementOK(res *gorm.DB, what, player string) bool {
	if res.Error != nil {
		s.logError("SaveProfile", player, res.Error)
		return false
	}
	if res.RowsAffected == 0 {
		slog.Error("failed to update "+what, "player", player)
		return false
	}
	return true
}

func (s *Store) saveSkills(tx *gorm.DB, userID int64, profile *models.PlayerProfile) bool {
	sets := make([]string, 0, len(models.Skills)+1)
	args := make([]any, 0, len(models.Skills)+2)
	for _, skill := range models.Skills {
		sets = append(sets, "`"+string(skill)+"` = ?")
		args = append(args, profile.Skills[skill])
	}
	sets = append(sets, "`total` = ?")
	args = append(args, profile.TotalLevel(), userID)

	res := tx.Exec("UPDATE "+s.table("skills")+" SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...)
	return s.saveStatementOK(res, "skills", profile.Name)
}

func (s *Store) saveExperience(tx *gorm.DB, userID int64, profile *models.PlayerProfile) bool {
	sets := make([]string, 0, len(models.Skills))
	args := make([]any, 0, len(models.Skills)+1)
	for _, skill := range models.Skills {
		sets = append(sets, "`"+string(skill)+"` = ?")
		// Fractional accumulators live in memory only; the column is integral.
		args = append(args, int64(profile.Experience[skill]))
	}
	args = append(args, userID)

	res := tx.Exec("UPDATE "+s.table("experience")+" SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...)
	return s.saveStatementOK(res, "experience", profile.Name)
}

func (s *Store) saveCooldowns(tx *gorm.DB, userID int64, profile *models.PlayerProfile) bool {
	sets := make([]string, 0, len(models.SuperAbilities))
	args := make([]any, 0, len(models.SuperAbilities)+1)
	for _, ability := range models.SuperAbilities {
		sets = append(sets, "`"+abilityColumn[ability]+"` = ?")
		args = append(args, profile.Cooldowns[ability])
	}
	args = append(args, userID)

	res := tx.Exec("UPDATE "+s.table("cooldowns")+" SET "+strings.Join(sets, ", ")+" WHERE user_id = ?", args...)
	return s.saveStatementOK(res, "cooldowns", profile.Name)
}

func (s *Store) saveHud(tx *gorm.DB, userID int64, profile *models.PlayerProfile) bool {
	healthbar := string(profile.Healthbar)
	if healthbar == "" {
		healthbar = s.cfg.DefaultHealthbar
	}
	res := tx.Exec(
		"UPDATE "+s.table("huds")+" SET mobhealthbar = ?, scoreboardtips = ? WHERE user_id = ?",
		healthbar, profile.ScoreboardTips, userID)
	return s.saveStatementOK(res, "hud settings", profile.Name)
}
