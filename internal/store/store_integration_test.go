package store

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmoforge/skillstore/internal/config"
	"github.com/mmoforge/skillstore/internal/database"
	"github.com/mmoforge/skillstore/internal/models"
)

// newIntegrationStore connects to the MySQL named by the MYSQL_TEST_* env
// vars and skips the test when MYSQL_TEST_HOST is unset. Each call uses a
// fresh table prefix so tests never see each other's rows.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()
	host := os.Getenv("MYSQL_TEST_HOST")
	if host == "" {
		t.Skip("MYSQL_TEST_HOST not set, skipping integration test")
	}

	cfg := &config.Config{
		DBHost:     host,
		DBPort:     envOr("MYSQL_TEST_PORT", "3306"),
		DBUser:     envOr("MYSQL_TEST_USER", "root"),
		DBPassword: os.Getenv("MYSQL_TEST_PASSWORD"),
		DBName:     envOr("MYSQL_TEST_DB", "skillstore_test"),

		TablePrefix: fmt.Sprintf("t%d_", time.Now().UnixNano()),

		LoadPoolMaxConns: 4, LoadPoolMaxIdle: 2,
		SavePoolMaxConns: 4, SavePoolMaxIdle: 2,
		MiscPoolMaxConns: 4, MiscPoolMaxIdle: 2,

		PurgeMonths:      6,
		DefaultHealthbar: "HEARTS",
		ProgressInterval: 200,
	}

	pools, err := database.Connect(cfg)
	require.NoError(t, err)

	st, err := New(cfg, pools)
	require.NoError(t, err)

	t.Cleanup(func() {
		for _, table := range []string{"experience", "huds", "cooldowns", "skills", "users"} {
			pools.Misc.Exec("DROP TABLE IF EXISTS " + st.table(table))
		}
		st.Close()
	})
	return st
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestIntegrationSchemaIdempotent(t *testing.T) {
	st := newIntegrationStore(t)

	// A second structure check against the same tables must be a no-op.
	require.NoError(t, st.checkStructure())
}

func TestIntegrationLoadSaveRoundtrip(t *testing.T) {
	st := newIntegrationStore(t)
	id := uuid.New()

	p := st.LoadProfile("Roundtrip", id, true)
	require.True(t, p.Loaded)
	assert.Equal(t, models.HealthbarHearts, p.Healthbar)

	p.Skills[models.SkillMining] = 420
	p.Skills[models.SkillSwords] = 69
	p.Experience[models.SkillMining] = 123.9
	p.Cooldowns[models.AbilitySuperBreaker] = 1700000000
	p.Healthbar = models.HealthbarBarGraph
	p.ScoreboardTips = 3
	require.True(t, st.SaveProfile(p))

	// Saving unchanged values again still reports success.
	require.True(t, st.SaveProfile(p))

	got := st.LoadProfile("Roundtrip", id, false)
	require.True(t, got.Loaded)
	assert.Equal(t, 420, got.Skills[models.SkillMining])
	assert.Equal(t, 69, got.Skills[models.SkillSwords])
	assert.Equal(t, float64(123), got.Experience[models.SkillMining])
	assert.Equal(t, int64(1700000000), got.Cooldowns[models.AbilitySuperBreaker])
	assert.Equal(t, models.HealthbarBarGraph, got.Healthbar)
	assert.Equal(t, 3, got.ScoreboardTips)
	assert.Equal(t, id, got.UUID)
}

func TestIntegrationLoadWithoutCreate(t *testing.T) {
	st := newIntegrationStore(t)

	p := st.LoadProfile("Ghost", uuid.New(), false)
	assert.False(t, p.Loaded)
	assert.Equal(t, "Ghost", p.Name)
}

func TestIntegrationNameChange(t *testing.T) {
	st := newIntegrationStore(t)
	id := uuid.New()

	first := st.LoadProfile("BeforeRename", id, true)
	require.True(t, first.Loaded)

	// Same uuid shows up under a new display name; the row follows the uuid.
	renamed := st.LoadProfile("AfterRename", id, true)
	require.True(t, renamed.Loaded)
	assert.Equal(t, "AfterRename", renamed.Name)

	again := st.LoadProfile("AfterRename", id, false)
	require.True(t, again.Loaded)
	assert.Equal(t, id, again.UUID)
}

func TestIntegrationNameClaimVacatesHolder(t *testing.T) {
	st := newIntegrationStore(t)
	oldID, newID := uuid.New(), uuid.New()

	require.True(t, st.LoadProfile("Taken", oldID, true).Loaded)

	// A different uuid claiming the same name pushes the holder to the
	// sentinel; the claimer owns the name afterwards.
	claim := st.LoadProfile("Taken", newID, true)
	require.True(t, claim.Loaded)
	assert.Equal(t, newID, claim.UUID)

	users := st.StoredUsers()
	assert.Contains(t, users, "Taken")
	assert.Contains(t, users, models.SentinelName)
}

func TestIntegrationRemoveUser(t *testing.T) {
	st := newIntegrationStore(t)
	id := uuid.New()

	require.True(t, st.LoadProfile("Doomed", id, true).Loaded)
	assert.True(t, st.RemoveUser("Doomed", id))
	assert.False(t, st.RemoveUser("Doomed", id))
	assert.False(t, st.LoadProfile("Doomed", id, false).Loaded)
}

func TestIntegrationLeaderboardAndRank(t *testing.T) {
	st := newIntegrationStore(t)

	save := func(name string, mining int) {
		p := st.LoadProfile(name, uuid.New(), true)
		require.True(t, p.Loaded)
		p.Skills[models.SkillMining] = mining
		require.True(t, st.SaveProfile(p))
	}
	save("Alpha", 300)
	save("Bravo", 200)
	save("Charlie", 200)
	save("Delta", 0)

	stats := st.ReadLeaderboard(models.SkillMining, 1, 10)
	require.Len(t, stats, 3)
	assert.Equal(t, models.PlayerStat{Name: "Alpha", Value: 300}, stats[0])
	assert.Equal(t, models.PlayerStat{Name: "Bravo", Value: 200}, stats[1])
	assert.Equal(t, models.PlayerStat{Name: "Charlie", Value: 200}, stats[2])

	page2 := st.ReadLeaderboard(models.SkillMining, 2, 2)
	require.Len(t, page2, 1)
	assert.Equal(t, "Charlie", page2[0].Name)

	ranks := st.ReadRank("Charlie")
	assert.Equal(t, 3, ranks.Skills[models.SkillMining])
	assert.Equal(t, 3, ranks.Overall)
	assert.Zero(t, ranks.Skills[models.SkillSwords])

	assert.Equal(t, 1, st.ReadRank("Alpha").Overall)
}

func TestIntegrationPurgePowerless(t *testing.T) {
	st := newIntegrationStore(t)

	require.True(t, st.LoadProfile("Idle", uuid.New(), true).Loaded)

	active := st.LoadProfile("Active", uuid.New(), true)
	active.Skills[models.SkillFishing] = 5
	require.True(t, st.SaveProfile(active))

	assert.Equal(t, 1, st.PurgePowerless())

	users := st.StoredUsers()
	assert.Contains(t, users, "Active")
	assert.NotContains(t, users, "Idle")
}

func TestIntegrationSaveUserUUIDs(t *testing.T) {
	st := newIntegrationStore(t)

	require.True(t, st.LoadProfile("Legacy", uuid.Nil, true).Loaded)

	id := uuid.New()
	require.True(t, st.SaveUserUUIDs(map[string]uuid.UUID{"Legacy": id}))

	p := st.LoadProfile("Legacy", id, false)
	require.True(t, p.Loaded)
	assert.Equal(t, id, p.UUID)
}

// capturingStore records converted profiles in place of a real peer backend.
type capturingStore struct {
	profiles []*models.PlayerProfile
}

func (c *capturingStore) SaveUser(p *models.PlayerProfile) bool {
	c.profiles = append(c.profiles, p)
	return true
}

func TestIntegrationConvertUsers(t *testing.T) {
	st := newIntegrationStore(t)

	src := st.LoadProfile("Mover", uuid.New(), true)
	src.Skills[models.SkillAcrobatics] = 77
	require.True(t, st.SaveProfile(src))

	dest := &capturingStore{}
	st.ConvertUsers(dest)

	require.Len(t, dest.profiles, 1)
	assert.Equal(t, "Mover", dest.profiles[0].Name)
	assert.Equal(t, 77, dest.profiles[0].Skills[models.SkillAcrobatics])
}

func TestIntegrationUpgradeFromLegacySchema(t *testing.T) {
	st := newIntegrationStore(t)
	db := st.pools.Misc

	p := st.LoadProfile("Veteran", uuid.New(), true)
	require.True(t, p.Loaded)
	p.Skills[models.SkillMining] = 100
	p.Skills[models.SkillAlchemy] = 50
	require.True(t, st.SaveProfile(p))

	// Rewind the tables to a pre-upgrade shape: no total, no alchemy, no
	// uuid column. Dropping a column drops its index with it.
	require.NoError(t, db.Exec("ALTER TABLE `"+st.table("skills")+"` DROP COLUMN `total`").Error)
	require.NoError(t, db.Exec("ALTER TABLE `"+st.table("skills")+"` DROP COLUMN `alchemy`").Error)
	require.NoError(t, db.Exec("ALTER TABLE `"+st.table("experience")+"` DROP COLUMN `alchemy`").Error)
	require.NoError(t, db.Exec("ALTER TABLE `"+st.table("users")+"` DROP COLUMN `uuid`").Error)

	upgraded, err := New(st.cfg, st.pools)
	require.NoError(t, err)

	for _, probe := range []struct{ table, column string }{
		{"skills", "total"}, {"skills", "alchemy"},
		{"experience", "alchemy"}, {"users", "uuid"},
	} {
		exists, err := upgraded.columnExists(db, upgraded.table(probe.table), probe.column)
		require.NoError(t, err)
		assert.True(t, exists, "%s.%s missing after upgrade", probe.table, probe.column)
	}

	// The total backfill sums the skill columns; the re-added alchemy
	// column starts over at zero.
	var total, alchemy int
	row := db.Raw("SELECT `total`, `alchemy` FROM " + upgraded.table("skills") + " ORDER BY user_id LIMIT 1").Row()
	require.NoError(t, row.Scan(&total, &alchemy))
	assert.Equal(t, 100, total)
	assert.Equal(t, 0, alchemy)

	// Upgrading an already-current schema again changes nothing.
	require.NoError(t, upgraded.checkStructure())
}

func TestIntegrationSkillIndexRepair(t *testing.T) {
	st := newIntegrationStore(t)
	db := st.pools.Misc

	skillIndexes := func() int64 {
		var n int64
		rows, err := db.Raw("SHOW INDEX FROM `" + st.table("skills") +
			"` WHERE `Key_name` LIKE 'idx\\_%' AND `Key_name` != 'idx_total'").Rows()
		require.NoError(t, err)
		for rows.Next() {
			n++
		}
		require.NoError(t, rows.Close())
		return n
	}

	require.EqualValues(t, len(models.NonChildSkills), skillIndexes())

	require.NoError(t, db.Exec("ALTER TABLE `"+st.table("skills")+"` DROP INDEX `idx_axes`").Error)
	require.NoError(t, st.checkStructure())

	assert.EqualValues(t, len(models.NonChildSkills), skillIndexes())
}

func TestIntegrationClampLevelsAboveCap(t *testing.T) {
	st := newIntegrationStore(t)

	p := st.LoadProfile("Overcapped", uuid.New(), true)
	require.True(t, p.Loaded)
	p.Skills[models.SkillMining] = 900
	p.Skills[models.SkillSwords] = 300
	require.True(t, st.SaveProfile(p))

	st.cfg.ReduceAboveCap = true
	st.cfg.LevelCaps = map[string]int{"mining": 500}
	require.NoError(t, st.checkStructure())

	got := st.LoadProfile("Overcapped", p.UUID, false)
	require.True(t, got.Loaded)
	assert.Equal(t, 500, got.Skills[models.SkillMining])
	assert.Equal(t, 300, got.Skills[models.SkillSwords])
}

func TestIntegrationPurgeOld(t *testing.T) {
	st := newIntegrationStore(t)

	require.True(t, st.LoadProfile("Ancient", uuid.New(), true).Loaded)

	// Fresh logins survive the six-month cutoff.
	assert.Zero(t, st.PurgeOld())

	// Back-date to the epoch and shrink the cutoff to zero months so the
	// inactivity window is exceeded.
	require.NoError(t, st.pools.Misc.Exec(
		"UPDATE "+st.table("users")+" SET lastlogin = 1000 WHERE user = ?", "Ancient").Error)
	st.cfg.PurgeMonths = 0

	assert.Equal(t, 1, st.PurgeOld())
	assert.Empty(t, st.StoredUsers())

	for _, table := range []string{"users", "skills", "experience", "cooldowns", "huds"} {
		var n int64
		require.NoError(t, st.pools.Misc.Raw("SELECT COUNT(*) FROM "+st.table(table)).Row().Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestIntegrationPurgeEvictsIdentityCache(t *testing.T) {
	st := newIntegrationStore(t)
	id := uuid.New()

	require.True(t, st.LoadProfile("Recycled", id, true).Loaded)
	// A second load populates the identity cache from the lookup path.
	require.True(t, st.LoadProfile("Recycled", id, false).Loaded)

	require.Equal(t, 1, st.PurgePowerless())

	// Without the cache flush this would chase the purged id and come back
	// unloaded until restart.
	reborn := st.LoadProfile("Recycled", id, true)
	require.True(t, reborn.Loaded)
	assert.Equal(t, id, reborn.UUID)
}

func TestIntegrationResetHealthbars(t *testing.T) {
	st := newIntegrationStore(t)

	p := st.LoadProfile("HudUser", uuid.New(), true)
	p.Healthbar = models.HealthbarBarGraph
	require.True(t, st.SaveProfile(p))

	require.True(t, st.ResetHealthbars())

	got := st.LoadProfile("HudUser", p.UUID, false)
	assert.Equal(t, models.HealthbarHearts, got.Healthbar)
}
