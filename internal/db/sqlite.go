package db

import (
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by lookups that match no row.
var ErrNotFound = sql.ErrNoRows

// InputError reports a write rejected because of its arguments.
type InputError struct {
	msg string
}

func (e *InputError) Error() string { return e.msg }

func invalidInput(msg string) error {
	return &InputError{msg: msg}
}

// IsInputError reports whether err was caused by invalid write arguments.
func IsInputError(err error) bool {
	var target *InputError
	return errors.As(err, &target)
}

var sqlitePragmas = []string{
	"PRAGMA journal_mode = WAL",
	"PRAGMA synchronous = NORMAL",
	"PRAGMA foreign_keys = ON",
	"PRAGMA busy_timeout = 5000",
	"PRAGMA cache_size = -64000",
}

func Open(path string) (*sql.DB, error) {
	database, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}

	database.SetMaxOpenConns(10)
	database.SetMaxIdleConns(5)
	database.SetConnMaxLifetime(0)
	database.SetConnMaxIdleTime(30 * time.Minute)

	if err := database.Ping(); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	for _, pragma := range sqlitePragmas {
		if _, err := database.Exec(pragma); err != nil {
			_ = database.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, err)
		}
	}

	return database, nil
}

// OpenMigrated opens the database at path and brings its schema up to date.
func OpenMigrated(path string) (*sql.DB, error) {
	database, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(database); err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}
	return database, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

var lastTimestamp atomic.Int64

// nowNanos returns a strictly increasing UTC unix-nano timestamp so creation
// times stay unique within the process.
func nowNanos() int64 {
	for {
		now := time.Now().UTC().UnixNano()
		prev := lastTimestamp.Load()
		if now <= prev {
			now = prev + 1
		}
		if lastTimestamp.CompareAndSwap(prev, now) {
			return now
		}
	}
}

func fromNanos(v int64) time.Time {
	return time.Unix(0, v).UTC()
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
