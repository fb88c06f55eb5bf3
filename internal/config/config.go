package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	// Database
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string
	DBUseSSL    bool
	TablePrefix string

	// Per-pool connection limits (LOAD / SAVE / MISC)
	LoadPoolMaxConns int
	LoadPoolMaxIdle  int
	SavePoolMaxConns int
	SavePoolMaxIdle  int
	MiscPoolMaxConns int
	MiscPoolMaxIdle  int

	// Leveling
	StartingLevel  int
	LevelCaps      map[string]int
	ReduceAboveCap bool

	// Maintenance
	PurgeMonths    int
	ScheduledPurge bool

	// HUD defaults
	DefaultHealthbar string

	// Conversion
	ProgressInterval int

	Debug bool

	// Server
	Port           string
	CORSOrigins    string
	AdminToken     string
	AdminJWTSecret string
}

func Load() *Config {
	return &Config{
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnv("DB_PORT", "3306"),
		DBUser:      getEnv("DB_USER", "root"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBName:      getEnv("DB_NAME", "skillstore"),
		DBUseSSL:    getEnvBool("DB_USE_SSL", false),
		TablePrefix: getEnv("DB_TABLE_PREFIX", "mcmmo_"),

		LoadPoolMaxConns: getEnvInt("POOL_LOAD_MAX_CONNS", 20),
		LoadPoolMaxIdle:  getEnvInt("POOL_LOAD_MAX_IDLE", 20),
		SavePoolMaxConns: getEnvInt("POOL_SAVE_MAX_CONNS", 20),
		SavePoolMaxIdle:  getEnvInt("POOL_SAVE_MAX_IDLE", 20),
		MiscPoolMaxConns: getEnvInt("POOL_MISC_MAX_CONNS", 10),
		MiscPoolMaxIdle:  getEnvInt("POOL_MISC_MAX_IDLE", 10),

		StartingLevel:  getEnvInt("STARTING_LEVEL", 0),
		LevelCaps:      parseLevelCaps(getEnv("LEVEL_CAPS", "")),
		ReduceAboveCap: getEnvBool("REDUCE_ABOVE_CAP", false),

		PurgeMonths:    getEnvInt("PURGE_MONTHS", 6),
		ScheduledPurge: getEnvBool("SCHEDULED_PURGE", false),

		DefaultHealthbar: getEnv("DEFAULT_HEALTHBAR", "HEARTS"),

		ProgressInterval: getEnvInt("CONVERT_PROGRESS_INTERVAL", 200),

		Debug: getEnvBool("DEBUG", false),

		Port:           getEnv("PORT", "8080"),
		CORSOrigins:    getEnv("CORS_ORIGINS", "*"),
		AdminToken:     getEnv("ADMIN_TOKEN", ""),
		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),
	}
}

// DSN builds the go-sql-driver connection string. clientFoundRows makes
// UPDATE report rows matched rather than rows changed; the save path treats
// zero as a missing row, so a rewrite of identical values must not count as
// a failure. The SSL toggle maps to the driver's tls parameter: skip-verify
// corresponds to requiring SSL without verifying the server certificate.
func (c *Config) DSN() string {
	dsn := c.DBUser + ":" + c.DBPassword +
		"@tcp(" + c.DBHost + ":" + c.DBPort + ")/" + c.DBName +
		"?parseTime=true&clientFoundRows=true"
	if c.DBUseSSL {
		dsn += "&tls=skip-verify"
	} else {
		dsn += "&tls=false"
	}
	return dsn
}

// parseLevelCaps parses "mining=500,swords=250" into a per-skill cap map.
// Entries that do not parse are dropped.
func parseLevelCaps(s string) map[string]int {
	caps := make(map[string]int)
	if s == "" {
		return caps
	}
	for _, part := range strings.Split(s, ",") {
		kv := strings.SplitN(strings.TrimSpace(part), "=", 2)
		if len(kv) != 2 || kv[0] == "" {
			continue
		}
		cap, err := strconv.Atoi(kv[1])
		if err != nil || cap < 0 {
			continue
		}
		caps[strings.ToLower(kv[0])] = cap
	}
	return caps
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return b
}
