package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDSN(t *testing.T) {
	cfg := &Config{
		DBHost:     "db.example.com",
		DBPort:     "3306",
		DBUser:     "mmo",
		DBPassword: "hunter2",
		DBName:     "skills",
	}

	assert.Equal(t,
		"mmo:hunter2@tcp(db.example.com:3306)/skills?parseTime=true&clientFoundRows=true&tls=false",
		cfg.DSN())

	cfg.DBUseSSL = true
	assert.Equal(t,
		"mmo:hunter2@tcp(db.example.com:3306)/skills?parseTime=true&clientFoundRows=true&tls=skip-verify",
		cfg.DSN())
}

func TestParseLevelCaps(t *testing.T) {
	caps := parseLevelCaps("mining=500, swords=250,AXES=100")
	require.Len(t, caps, 3)
	assert.Equal(t, 500, caps["mining"])
	assert.Equal(t, 250, caps["swords"])
	assert.Equal(t, 100, caps["axes"])
}

func TestParseLevelCapsBadEntries(t *testing.T) {
	caps := parseLevelCaps("mining=abc,swords,=5,fishing=-1,herbalism=42")
	require.Len(t, caps, 1)
	assert.Equal(t, 42, caps["herbalism"])
}

func TestParseLevelCapsEmpty(t *testing.T) {
	assert.Empty(t, parseLevelCaps(""))
}

func TestLoadDefaults(t *testing.T) {
	// The runner's environment must not leak into the default assertions.
	for _, key := range []string{
		"DB_TABLE_PREFIX", "POOL_LOAD_MAX_CONNS", "POOL_MISC_MAX_CONNS",
		"CONVERT_PROGRESS_INTERVAL", "DEFAULT_HEALTHBAR", "REDUCE_ABOVE_CAP",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()
	assert.Equal(t, "mcmmo_", cfg.TablePrefix)
	assert.Equal(t, 20, cfg.LoadPoolMaxConns)
	assert.Equal(t, 10, cfg.MiscPoolMaxConns)
	assert.Equal(t, 200, cfg.ProgressInterval)
	assert.Equal(t, "HEARTS", cfg.DefaultHealthbar)
	assert.False(t, cfg.ReduceAboveCap)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_TABLE_PREFIX", "prod_")
	t.Setenv("POOL_SAVE_MAX_CONNS", "7")
	t.Setenv("REDUCE_ABOVE_CAP", "true")
	t.Setenv("LEVEL_CAPS", "mining=1000")
	t.Setenv("POOL_MISC_MAX_IDLE", "not-a-number")

	cfg := Load()
	assert.Equal(t, "prod_", cfg.TablePrefix)
	assert.Equal(t, 7, cfg.SavePoolMaxConns)
	assert.True(t, cfg.ReduceAboveCap)
	assert.Equal(t, 1000, cfg.LevelCaps["mining"])
	assert.Equal(t, 10, cfg.MiscPoolMaxIdle)
}
