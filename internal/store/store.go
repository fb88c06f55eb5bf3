// Package store is the MySQL-backed player-profile store. It owns the five
// progression tables (users, skills, experience, cooldowns, huds), the schema
// lifecycle, and every public operation over them. All SQL runs against one
// of three pools: LOAD for session reads, SAVE for session flushes, MISC for
// everything else.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
	"gorm.io/gorm"

	"github.com/mmoforge/skillstore/internal/config"
	"github.com/mmoforge/skillstore/internal/database"
	"github.com/mmoforge/skillstore/internal/models"
)

// UserNotFound is the id returned when no row matches a (name, uuid) pair.
const UserNotFound int64 = -1

// Store is safe for concurrent use. The identity cache is the only shared
// mutable state; massUpdate serializes bulk purges against each other but not
// against ordinary load/save traffic.
type Store struct {
	cfg   *config.Config
	pools *database.Pools

	// uuid -> users.id, populated on the read path, evicted on removal and
	// flushed wholesale by the mass purges. Unbounded; server restarts are
	// routine enough to keep it honest.
	userIDs *xsync.MapOf[uuid.UUID, int64]

	massUpdate sync.Mutex
}

// New builds the store and brings the schema up to date. Individual schema
// steps log and continue on failure so a partially upgraded database still
// serves the unaffected skills; only an unreachable catalog is fatal.
func New(cfg *config.Config, pools *database.Pools) (*Store, error) {
	s := &Store{
		cfg:     cfg,
		pools:   pools,
		userIDs: xsync.NewMapOf[uuid.UUID, int64](),
	}
	if err := s.checkStructure(); err != nil {
		return nil, err
	}
	return s, nil
}

// Ping validates all three pools. A failed round trip surfaces as
// ErrUnavailable rather than a default value; see the error's contract.
func (s *Store) Ping() error {
	if err := s.pools.Ping(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Close releases all three pools.
func (s *Store) Close() {
	slog.Info("releasing connection pools")
	s.pools.Close()
}

func (s *Store) table(name string) string {
	return s.cfg.TablePrefix + name
}

// userID resolves (name, uuid) to the internal numeric id. UUID wins when
// present; rows that never recorded a UUID match by name. Returns
// UserNotFound when nothing matches.
func (s *Store) userID(db *gorm.DB, name string, id uuid.UUID) int64 {
	if id == uuid.Nil {
		return s.userIDByName(db, name)
	}

	if cached, ok := s.userIDs.Load(id); ok {
		return cached
	}

	var userID int64
	var storedName string
	row := db.Raw(
		"SELECT id, user FROM "+s.table("users")+" WHERE uuid = ? OR (uuid IS NULL AND user = ?)",
		id.String(), name,
	).Row()
	if err := row.Scan(&userID, &storedName); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logError("userID", name, err)
		}
		return UserNotFound
	}

	s.userIDs.Store(id, userID)
	return userID
}

func (s *Store) userIDByName(db *gorm.DB, name string) int64 {
	var userID int64
	row := db.Raw("SELECT id FROM "+s.table("users")+" WHERE user = ?", name).Row()
	if err := row.Scan(&userID); err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			s.logError("userIDByName", name, err)
		}
		return UserNotFound
	}
	return userID
}

// NewUser creates an account for (name, uuid) on the MISC pool and returns
// its id, or UserNotFound on failure.
func (s *Store) NewUser(name string, id uuid.UUID) int64 {
	var userID int64 = UserNotFound
	err := s.pools.Misc.Connection(func(tx *gorm.DB) error {
		userID = s.newUser(tx, name, id)
		return nil
	})
	if err != nil {
		s.logError("NewUser", name, err)
	}
	return userID
}

// newUser vacates any row already holding name, inserts the user, and fills
// the dependent tables with defaults. Must run on a pinned connection so
// LAST_INSERT_ID() observes our insert.
func (s *Store) newUser(tx *gorm.DB, name string, id uuid.UUID) int64 {
	if err := tx.Exec(
		"UPDATE `"+s.table("users")+"` SET user = ? WHERE user = ?",
		models.SentinelName, name,
	).Error; err != nil {
		s.logError("newUser", name, err)
		return UserNotFound
	}

	var uuidVal any
	if id != uuid.Nil {
		uuidVal = id.String()
	}
	if err := tx.Exec(
		"INSERT INTO "+s.table("users")+" (user, uuid, lastlogin) VALUES (?, ?, UNIX_TIMESTAMP())",
		name, uuidVal,
	).Error; err != nil {
		s.logError("newUser", name, err)
		return UserNotFound
	}

	var userID int64
	if err := tx.Raw("SELECT LAST_INSERT_ID()").Row().Scan(&userID); err != nil || userID == 0 {
		slog.Error("unable to create new user account", "player", name)
		return UserNotFound
	}

	s.writeMissingRows(tx, userID)
	return userID
}

// writeMissingRows guarantees one row per dependent table for id. INSERT
// IGNORE keeps it idempotent against concurrent loads of the same user.
func (s *Store) writeMissingRows(tx *gorm.DB, id int64) {
	for _, stmt := range []struct {
		sql  string
		args []any
	}{
		{"INSERT IGNORE INTO " + s.table("experience") + " (user_id) VALUES (?)", []any{id}},
		{"INSERT IGNORE INTO " + s.table("skills") + " (user_id) VALUES (?)", []any{id}},
		{"INSERT IGNORE INTO " + s.table("cooldowns") + " (user_id) VALUES (?)", []any{id}},
		{"INSERT IGNORE INTO " + s.table("huds") + " (user_id, mobhealthbar, scoreboardtips) VALUES (?, ?, ?)",
			[]any{id, s.cfg.DefaultHealthbar, 0}},
	} {
		if err := tx.Exec(stmt.sql, stmt.args...).Error; err != nil {
			s.logError("writeMissingRows", "", err)
		}
	}
}

// RemoveUser deletes the user and every dependent row, and evicts the
// identity cache entry. Returns false when no row matched.
func (s *Store) RemoveUser(name string, id uuid.UUID) bool {
	res := s.pools.Misc.Exec(
		"DELETE FROM u, e, h, s, c "+
			"USING "+s.table("users")+" u "+
			"JOIN "+s.table("experience")+" e ON (u.id = e.user_id) "+
			"JOIN "+s.table("huds")+" h ON (u.id = h.user_id) "+
			"JOIN "+s.table("skills")+" s ON (u.id = s.user_id) "+
			"JOIN "+s.table("cooldowns")+" c ON (u.id = c.user_id) "+
			"WHERE u.user = ?", name)
	if res.Error != nil {
		s.logError("RemoveUser", name, res.Error)
		return false
	}

	success := res.RowsAffected != 0
	if success && id != uuid.Nil {
		s.CleanupUser(id)
	}
	return success
}

// CleanupUser evicts the identity cache entry for uuid.
func (s *Store) CleanupUser(id uuid.UUID) {
	s.userIDs.Delete(id)
}
