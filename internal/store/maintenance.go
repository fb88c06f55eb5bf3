package store

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mmoforge/skillstore/internal/models"
)

// monthSeconds is one configured "month" of inactivity, in the seconds that
// UNIX_TIMESTAMP() counts. The magnitude is inherited from years of live
// databases purged against it; changing it would re-purge differently.
const monthSeconds int64 = 2_630_000_000

// uuidBatchSize is how many name->uuid updates go into one flush.
const uuidBatchSize = 500

// PurgePowerless deletes accounts that never progressed: every skill still
// at the starting level, or every skill at zero. Dependent tables are swept
// afterwards against the surviving skills rows. Holds the mass-update lock
// and flushes the identity cache, since a stale uuid->id entry for a purged
// user would point loads at a dead account until restart.
func (s *Store) PurgePowerless() int {
	s.massUpdate.Lock()
	defer s.massUpdate.Unlock()

	slog.Info("purging powerless users")
	db := s.pools.Misc
	purged := 0

	levels := []int{s.cfg.StartingLevel}
	if s.cfg.StartingLevel != 0 {
		levels = append(levels, 0)
	}
	for _, level := range levels {
		conds := make([]string, len(models.Skills))
		for i, skill := range models.Skills {
			conds[i] = fmt.Sprintf("`%s` = %d", skill, level)
		}
		res := db.Exec("DELETE FROM " + s.table("skills") + " WHERE " + strings.Join(conds, " AND "))
		if res.Error != nil {
			s.logError("PurgePowerless", "", res.Error)
			continue
		}
		purged += int(res.RowsAffected)
	}

	skills := s.table("skills")
	for _, t := range []string{"experience", "huds", "cooldowns"} {
		table := s.table(t)
		if err := db.Exec(
			"DELETE FROM `" + table + "` WHERE NOT EXISTS " +
				"(SELECT * FROM `" + skills + "` `s` WHERE `" + table + "`.`user_id` = `s`.`user_id`)",
		).Error; err != nil {
			s.logError("PurgePowerless", "", err)
		}
	}
	if err := db.Exec(
		"DELETE FROM `" + s.table("users") + "` WHERE NOT EXISTS " +
			"(SELECT * FROM `" + skills + "` `s` WHERE `" + s.table("users") + "`.`id` = `s`.`user_id`)",
	).Error; err != nil {
		s.logError("PurgePowerless", "", err)
	}

	s.userIDs.Clear()
	slog.Info("purged powerless users", "count", purged)
	return purged
}

// PurgeOld deletes users whose last login predates the configured number of
// months. Holds the mass-update lock and flushes the identity cache.
func (s *Store) PurgeOld() int {
	s.massUpdate.Lock()
	defer s.massUpdate.Unlock()

	cutoff := monthSeconds * int64(s.cfg.PurgeMonths)
	slog.Info("purging inactive users", "months", s.cfg.PurgeMonths)

	res := s.pools.Misc.Exec(fmt.Sprintf(
		"DELETE FROM u, e, h, s, c USING %s u "+
			"JOIN %s e ON (u.id = e.user_id) "+
			"JOIN %s h ON (u.id = h.user_id) "+
			"JOIN %s s ON (u.id = s.user_id) "+
			"JOIN %s c ON (u.id = c.user_id) "+
			"WHERE ((UNIX_TIMESTAMP() - lastlogin) > %d)",
		s.table("users"), s.table("experience"), s.table("huds"),
		s.table("skills"), s.table("cooldowns"), cutoff))
	if res.Error != nil {
		s.logError("PurgeOld", "", res.Error)
		return 0
	}

	s.userIDs.Clear()
	slog.Info("purged inactive users", "count", res.RowsAffected)
	return int(res.RowsAffected)
}

// SaveUserUUID records the uuid for a single name.
func (s *Store) SaveUserUUID(name string, id uuid.UUID) bool {
	err := s.pools.Misc.Exec(
		"UPDATE `"+s.table("users")+"` SET uuid = ? WHERE user = ?",
		id.String(), name,
	).Error
	if err != nil {
		s.logError("SaveUserUUID", name, err)
		return false
	}
	return true
}

// SaveUserUUIDs applies a fetched name->uuid mapping, flushing in batches of
// 500 and once more at the end. Conflicting rows are not renamed first.
func (s *Store) SaveUserUUIDs(fetched map[string]uuid.UUID) bool {
	type entry struct {
		name string
		id   uuid.UUID
	}
	batch := make([]entry, 0, uuidBatchSize)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := s.pools.Misc.Transaction(func(tx *gorm.DB) error {
			for _, e := range batch {
				if err := tx.Exec(
					"UPDATE "+s.table("users")+" SET uuid = ? WHERE user = ?",
					e.id.String(), e.name,
				).Error; err != nil {
					return err
				}
			}
			return nil
		})
		batch = batch[:0]
		return err
	}

	for name, id := range fetched {
		batch = append(batch, entry{name, id})
		if len(batch) == uuidBatchSize {
			if err := flush(); err != nil {
				s.logError("SaveUserUUIDs", "", err)
				return false
			}
		}
	}
	if err := flush(); err != nil {
		s.logError("SaveUserUUIDs", "", err)
		return false
	}
	return true
}

// StoredUsers enumerates every stored display name, sentinel included. The
// result can be large.
func (s *Store) StoredUsers() []string {
	var users []string
	if err := s.pools.Misc.Raw("SELECT user FROM " + s.table("users")).Scan(&users).Error; err != nil {
		s.logError("StoredUsers", "", err)
	}
	return users
}

// ConvertUsers replays every stored profile into a peer backend, logging
// progress at the configured interval. Rows that fail to read are skipped.
func (s *Store) ConvertUsers(dest PeerStore) {
	names := s.StoredUsers()
	converted := 0
	start := time.Now()

	err := s.pools.Misc.Connection(func(tx *gorm.DB) error {
		for _, name := range names {
			row := map[string]any{}
			res := tx.Raw(s.wideSelect("u.user = ?"), name).Scan(&row)
			if res.Error != nil || res.RowsAffected == 0 {
				if res.Error != nil {
					s.logError("ConvertUsers", name, res.Error)
				}
				continue
			}
			dest.SaveUser(s.decodeProfile(name, row))

			converted++
			if s.cfg.ProgressInterval > 0 && converted%s.cfg.ProgressInterval == 0 {
				elapsed := time.Since(start).Seconds()
				slog.Info("conversion progress",
					"users", converted,
					"per_second", fmt.Sprintf("%.1f", float64(converted)/elapsed))
			}
		}
		return nil
	})
	if err != nil {
		s.logError("ConvertUsers", "", err)
	}

	slog.Info("conversion finished", "users", converted, "elapsed", time.Since(start).Round(time.Millisecond))
}

// ResetHealthbars rewrites every HUD row to the configured default style.
func (s *Store) ResetHealthbars() bool {
	err := s.pools.Misc.Exec(
		"UPDATE "+s.table("huds")+" SET mobhealthbar = ?",
		s.cfg.DefaultHealthbar,
	).Error
	if err != nil {
		s.logError("ResetHealthbars", "", err)
		return false
	}
	return true
}

// StartPurgeScheduler runs the inactivity purge once a day until done is
// closed. Callers opt in via config; the purge itself still takes the
// mass-update lock like a manual run.
func (s *Store) StartPurgeScheduler(done chan struct{}) {
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.PurgeOld()
			case <-done:
				return
			}
		}
	}()
}
