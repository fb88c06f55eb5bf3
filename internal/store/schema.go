package store

import (
	"fmt"
	"log/slog"
	"strings"

	"gorm.io/gorm"

	"github.com/mmoforge/skillstore/internal/models"
)

// checkStructure creates any missing table and then applies the ordered
// upgrade sequence. Every step probes the catalog first, so re-running
// against any prior schema version is a no-op. A failed create or upgrade is
// logged and skipped; operations against the affected table will fail and be
// logged individually.
func (s *Store) checkStructure() error {
	db := s.pools.Misc

	for _, t := range []struct {
		name   string
		create func() string
	}{
		{"users", s.createUsersSQL},
		{"huds", s.createHudsSQL},
		{"cooldowns", s.createCooldownsSQL},
		{"skills", s.createSkillsSQL},
		{"experience", s.createExperienceSQL},
	} {
		exists, err := s.tableExists(db, s.table(t.name))
		if err != nil {
			return fmt.Errorf("schema check: %w", err)
		}
		if exists {
			continue
		}
		slog.Info("creating table", "table", s.table(t.name))
		if err := db.Exec(t.create()).Error; err != nil {
			s.logError("checkStructure", "", err)
		}
	}

	for _, up := range []struct {
		name  string
		apply func(*gorm.DB) error
	}{
		{"add_fishing", s.upgradeAddFishing},
		{"add_blast_mining_cooldown", s.upgradeAddBlastMining},
		{"add_skill_indexes", s.upgradeAddSkillIndexes},
		{"add_mob_healthbars", s.upgradeAddMobHealthbars},
		{"drop_party_names", s.upgradeDropPartyNames},
		{"drop_hud_type", s.upgradeDropHudType},
		{"add_alchemy", s.upgradeAddAlchemy},
		{"add_uuids", s.upgradeAddUUIDs},
		{"add_scoreboard_tips", s.upgradeAddScoreboardTips},
		{"drop_name_uniqueness", s.upgradeDropNameUniqueness},
		{"add_skill_total", s.upgradeAddSkillTotal},
		{"add_chimaera_wing", s.upgradeAddChimaeraWing},
	} {
		if err := up.apply(db); err != nil {
			slog.Error("schema upgrade failed", "upgrade", up.name, "error", err.Error())
		}
	}

	s.clampLevelsAboveCap(db)
	s.sweepOrphans(db)
	return nil
}

func (s *Store) tableExists(db *gorm.DB, table string) (bool, error) {
	var count int64
	err := db.Raw(
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.TABLES WHERE table_schema = DATABASE() AND table_name = ?",
		table,
	).Row().Scan(&count)
	return count > 0, err
}

func (s *Store) columnExists(db *gorm.DB, table, column string) (bool, error) {
	var count int64
	err := db.Raw(
		"SELECT COUNT(*) FROM INFORMATION_SCHEMA.COLUMNS WHERE table_schema = DATABASE() AND table_name = ? AND column_name = ?",
		table, column,
	).Row().Scan(&count)
	return count > 0, err
}

func (s *Store) createUsersSQL() string {
	return "CREATE TABLE IF NOT EXISTS `" + s.table("users") + "` (" +
		"`id` int(10) unsigned NOT NULL AUTO_INCREMENT," +
		"`user` varchar(40) NOT NULL," +
		"`uuid` varchar(36) NULL DEFAULT NULL," +
		"`lastlogin` int(32) unsigned NOT NULL," +
		"PRIMARY KEY (`id`)," +
		"INDEX(`user`(20) ASC)," +
		"UNIQUE KEY `uuid` (`uuid`)) DEFAULT CHARSET=latin1 AUTO_INCREMENT=1;"
}

func (s *Store) createHudsSQL() string {
	return "CREATE TABLE IF NOT EXISTS `" + s.table("huds") + "` (" +
		"`user_id` int(10) unsigned NOT NULL," +
		"`mobhealthbar` varchar(50) NOT NULL DEFAULT '" + s.cfg.DefaultHealthbar + "'," +
		"`scoreboardtips` int(10) NOT NULL DEFAULT '0'," +
		"PRIMARY KEY (`user_id`)) DEFAULT CHARSET=latin1;"
}

func (s *Store) createCooldownsSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS `" + s.table("cooldowns") + "` (")
	b.WriteString("`user_id` int(10) unsigned NOT NULL,")
	for _, col := range cooldownColumns {
		b.WriteString("`" + col + "` int(32) unsigned NOT NULL DEFAULT '0',")
	}
	b.WriteString("PRIMARY KEY (`user_id`)) DEFAULT CHARSET=latin1;")
	return b.String()
}

func (s *Store) createSkillsSQL() string {
	starting := fmt.Sprintf("'%d'", s.cfg.StartingLevel)
	total := fmt.Sprintf("'%d'", s.cfg.StartingLevel*len(models.NonChildSkills))

	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS `" + s.table("skills") + "` (")
	b.WriteString("`user_id` int(10) unsigned NOT NULL,")
	for _, skill := range models.Skills {
		b.WriteString("`" + string(skill) + "` int(10) unsigned NOT NULL DEFAULT " + starting + ",")
	}
	b.WriteString("`total` int(10) unsigned NOT NULL DEFAULT " + total + ",")
	b.WriteString("PRIMARY KEY (`user_id`)) DEFAULT CHARSET=latin1;")
	return b.String()
}

func (s *Store) createExperienceSQL() string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS `" + s.table("experience") + "` (")
	b.WriteString("`user_id` int(10) unsigned NOT NULL,")
	for _, skill := range models.Skills {
		b.WriteString("`" + string(skill) + "` int(10) unsigned NOT NULL DEFAULT '0',")
	}
	b.WriteString("PRIMARY KEY (`user_id`)) DEFAULT CHARSET=latin1;")
	return b.String()
}

func (s *Store) upgradeAddFishing(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("skills"), "fishing")
	if err != nil || exists {
		return err
	}
	slog.Info("updating tables for fishing")
	if err := db.Exec("ALTER TABLE `" + s.table("skills") + "` ADD `fishing` int(10) NOT NULL DEFAULT '0'").Error; err != nil {
		return err
	}
	return db.Exec("ALTER TABLE `" + s.table("experience") + "` ADD `fishing` int(10) NOT NULL DEFAULT '0'").Error
}

func (s *Store) upgradeAddBlastMining(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("cooldowns"), "blast_mining")
	if err != nil || exists {
		return err
	}
	slog.Info("updating tables for blast mining")
	return db.Exec("ALTER TABLE `" + s.table("cooldowns") + "` ADD `blast_mining` int(32) NOT NULL DEFAULT '0'").Error
}

func (s *Store) upgradeAddChimaeraWing(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("cooldowns"), "chimaera_wing")
	if err != nil || exists {
		return err
	}
	slog.Info("updating tables for chimaera wing")
	return db.Exec("ALTER TABLE `" + s.table("cooldowns") + "` ADD `chimaera_wing` int(32) NOT NULL DEFAULT '0'").Error
}

func (s *Store) upgradeAddAlchemy(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("skills"), "alchemy")
	if err != nil || exists {
		return err
	}
	slog.Info("updating tables for alchemy")
	if err := db.Exec("ALTER TABLE `" + s.table("skills") + "` ADD `alchemy` int(10) NOT NULL DEFAULT '0'").Error; err != nil {
		return err
	}
	return db.Exec("ALTER TABLE `" + s.table("experience") + "` ADD `alchemy` int(10) NOT NULL DEFAULT '0'").Error
}

func (s *Store) upgradeAddMobHealthbars(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("huds"), "mobhealthbar")
	if err != nil || exists {
		return err
	}
	slog.Info("updating tables for mob healthbars")
	return db.Exec("ALTER TABLE `" + s.table("huds") + "` ADD `mobhealthbar` varchar(50) NOT NULL DEFAULT '" + s.cfg.DefaultHealthbar + "'").Error
}

func (s *Store) upgradeAddScoreboardTips(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("huds"), "scoreboardtips")
	if err != nil || exists {
		return err
	}
	slog.Info("updating tables for scoreboard tips")
	return db.Exec("ALTER TABLE `" + s.table("huds") + "` ADD `scoreboardtips` int(10) NOT NULL DEFAULT '0'").Error
}

// upgradeAddSkillIndexes reindexes when the per-skill idx_ count differs
// from the non-child skill count. idx_total belongs to the total upgrade and
// is excluded, so a fully upgraded table counts exactly to the skill set.
// Per-skill failures are ignored so a single bad index cannot block the rest.
func (s *Store) upgradeAddSkillIndexes(db *gorm.DB) error {
	var count int64
	rows, err := db.Raw("SHOW INDEX FROM `" + s.table("skills") + "` WHERE `Key_name` LIKE 'idx\\_%' AND `Key_name` != 'idx_total'").Rows()
	if err != nil {
		return err
	}
	for rows.Next() {
		count++
	}
	if err := rows.Close(); err != nil {
		return err
	}

	if count == int64(len(models.NonChildSkills)) {
		return nil
	}
	slog.Info("indexing skill tables, this may take a while on larger databases")
	for _, skill := range models.NonChildSkills {
		name := string(skill)
		if err := db.Exec("ALTER TABLE `" + s.table("skills") + "` ADD INDEX `idx_" + name + "` (`" + name + "`) USING BTREE").Error; err != nil {
			slog.Debug("skill index skipped", "skill", name, "error", err.Error())
		}
	}
	return nil
}

func (s *Store) upgradeAddUUIDs(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("users"), "uuid")
	if err != nil || exists {
		return err
	}
	slog.Info("adding uuids to the user table")
	if err := db.Exec("ALTER TABLE `" + s.table("users") + "` ADD `uuid` varchar(36) NULL DEFAULT NULL").Error; err != nil {
		return err
	}
	return db.Exec("ALTER TABLE `" + s.table("users") + "` ADD UNIQUE INDEX `uuid` (`uuid`) USING BTREE").Error
}

func (s *Store) upgradeDropPartyNames(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("users"), "party")
	if err != nil || !exists {
		return err
	}
	slog.Info("removing party name from the user table")
	return db.Exec("ALTER TABLE `" + s.table("users") + "` DROP COLUMN `party`").Error
}

func (s *Store) upgradeDropHudType(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("huds"), "hudtype")
	if err != nil || !exists {
		return err
	}
	slog.Info("removing legacy hud type from the hud table")
	return db.Exec("ALTER TABLE `" + s.table("huds") + "` DROP COLUMN `hudtype`").Error
}

// upgradeDropNameUniqueness replaces the historical unique constraint on the
// display name with a plain prefix index. Name reuse is legitimate; identity
// lives in the uuid column.
func (s *Store) upgradeDropNameUniqueness(db *gorm.DB) error {
	rows, err := db.Raw("SHOW INDEXES FROM `" + s.table("users") + "` WHERE Column_name='user' AND NOT Non_unique").Rows()
	if err != nil {
		return err
	}
	unique := rows.Next()
	if err := rows.Close(); err != nil {
		return err
	}
	if !unique {
		return nil
	}
	slog.Info("dropping name uniqueness on the user table")
	return db.Exec("ALTER TABLE `" + s.table("users") + "` DROP INDEX `user`, ADD INDEX `user` (`user`(20) ASC)").Error
}

// upgradeAddSkillTotal adds the denormalized total column and backfills it
// from the skill columns. The backfill runs in one explicit transaction so a
// crash cannot leave the column half-summed.
func (s *Store) upgradeAddSkillTotal(db *gorm.DB) error {
	exists, err := s.columnExists(db, s.table("skills"), "total")
	if err != nil || exists {
		return err
	}
	slog.Info("adding skill total column to the skills table")

	sum := make([]string, len(models.NonChildSkills))
	for i, skill := range models.NonChildSkills {
		sum[i] = string(skill)
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("ALTER TABLE `" + s.table("skills") + "` ADD COLUMN `total` int NOT NULL DEFAULT '0'").Error; err != nil {
			return err
		}
		if err := tx.Exec("UPDATE `" + s.table("skills") + "` SET `total` = (" + strings.Join(sum, "+") + ")").Error; err != nil {
			return err
		}
		return tx.Exec("ALTER TABLE `" + s.table("skills") + "` ADD INDEX `idx_total` (`total`) USING BTREE").Error
	})
}

// clampLevelsAboveCap shrinks stored levels above each configured cap. Runs
// only when the reduce-above-cap option is set.
func (s *Store) clampLevelsAboveCap(db *gorm.DB) {
	if !s.cfg.ReduceAboveCap {
		return
	}
	for _, skill := range models.NonChildSkills {
		cap, ok := s.cfg.LevelCaps[string(skill)]
		if !ok {
			continue
		}
		name := string(skill)
		if err := db.Exec(
			fmt.Sprintf("UPDATE `%s` SET `%s` = %d WHERE `%s` > %d", s.table("skills"), name, cap, name, cap),
		).Error; err != nil {
			s.logError("clampLevelsAboveCap", "", err)
		}
	}
}

// sweepOrphans deletes dependent rows whose user_id no longer exists.
func (s *Store) sweepOrphans(db *gorm.DB) {
	slog.Info("killing orphans")
	users := s.table("users")
	for _, t := range []string{"experience", "huds", "cooldowns", "skills"} {
		table := s.table(t)
		if err := db.Exec(
			"DELETE FROM `" + table + "` WHERE NOT EXISTS " +
				"(SELECT * FROM `" + users + "` `u` WHERE `" + table + "`.`user_id` = `u`.`id`)",
		).Error; err != nil {
			s.logError("sweepOrphans", "", err)
		}
	}
}
