package telemetry

import (
	"database/sql"

	"codeberg.org/halvard/affinityctl/internal/errors"
	"codeberg.org/halvard/affinityctl/internal/logger"
)

const (
	SchemaVersion = 1

	createTablesSQL = `
	   CREATE TABLE IF NOT EXISTS schema_versions (
	       version     INTEGER PRIMARY KEY,
	       applied_at  TEXT NOT NULL
	   );
	   CREATE TABLE IF NOT EXISTS ticks (
	       timestamp        INTEGER PRIMARY KEY,
	       cooler_socket    INTEGER NOT NULL,
	       max_temp         REAL NOT NULL,
	       has_temp         INTEGER NOT NULL CHECK (has_temp IN (0, 1)),
	       thermal_state    TEXT NOT NULL,
	       process_count    INTEGER NOT NULL,
	       autopinned_count INTEGER NOT NULL,
	       pins_total       INTEGER NOT NULL,
	       paused           INTEGER NOT NULL CHECK (paused IN (0, 1)),
	       auto_pin         INTEGER NOT NULL CHECK (auto_pin IN (0, 1))
	   );`

	insertTickSQL = `
    INSERT OR REPLACE INTO ticks (
        timestamp,
        cooler_socket, max_temp, has_temp, thermal_state,
        process_count, autopinned_count, pins_total,
        paused, auto_pin
    ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
)

// InitSchema creates the schema with the current version.
func InitSchema(db *sql.DB) error {
	errFactory := errors.New()

	tx, err := db.Begin()
	if err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	committed := false
	defer func() {
		if !committed {
			if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
				logger.Debug().Err(err).Msg("Failed to rollback transaction")
			}
		}
	}()

	if _, err := tx.Exec(createTablesSQL); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if _, err := tx.Exec(`
        INSERT OR IGNORE INTO schema_versions (version, applied_at)
        VALUES (?, datetime('now'))
    `, SchemaVersion); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}

	if err := tx.Commit(); err != nil {
		return errFactory.Wrap(ErrSchemaInitFailed, err)
	}
	committed = true

	logger.Debug().Int("version", SchemaVersion).Msg("Telemetry schema ready")

	return nil
}

// GetSchemaVersion returns the latest applied schema version, zero when
// the database is fresh.
func GetSchemaVersion(db *sql.DB) (int, error) {
	errFactory := errors.New()

	var version int
	err := db.QueryRow(`
        SELECT version
        FROM schema_versions
        ORDER BY version DESC
        LIMIT 1
    `).Scan(&version)

	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errFactory.Wrap(ErrSchemaValidationFailed, err)
	}

	return version, nil
}
