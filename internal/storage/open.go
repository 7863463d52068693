package storage

import (
	"fmt"
	"os"
)

// Open builds the Provider named by driver. dir is the fs data directory
// (created if missing); dbPath is the sqlite database file. The returned
// close func is never nil.
func Open(driver, dir, dbPath string) (Provider, func() error, error) {
	noop := func() error { return nil }
	switch driver {
	case DriverFS:
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, noop, fmt.Errorf("storage: create data dir: %w", err)
		}
		fs, err := NewFS(dir)
		if err != nil {
			return nil, noop, err
		}
		return fs, noop, nil
	case DriverSQLite:
		db, err := OpenSQLite(dbPath)
		if err != nil {
			return nil, noop, err
		}
		return db, db.Close, nil
	case DriverMemory:
		return NewMemory(), noop, nil
	default:
		return nil, noop, fmt.Errorf("storage: unknown driver %q", driver)
	}
}
