package store

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/go-sql-driver/mysql"
)

// ErrUnavailable reports that a pool could not produce a usable connection.
// Callers must treat it as fatal for the operation; substituting a default
// profile at the pool boundary would overwrite real data on the next save.
var ErrUnavailable = errors.New("connection pool unavailable")

// logError emits the normalized one-line failure summary: operation, player
// (when known), and the driver's error number and SQLSTATE when the failure
// came from the server. Debug mode adds the full error chain.
func (s *Store) logError(op, player string, err error) {
	attrs := []any{"op", op, "error", err.Error()}
	if player != "" {
		attrs = append(attrs, "player", player)
	}

	var driverErr *mysql.MySQLError
	if errors.As(err, &driverErr) {
		attrs = append(attrs,
			"mysql_errno", driverErr.Number,
			"sql_state", string(driverErr.SQLState[:]))
	}

	slog.Error("database operation failed", attrs...)

	if s.cfg.Debug {
		slog.Debug("database failure detail", "op", op, "detail", fmt.Sprintf("%+v", err))
	}
}
