// Package catalog 用 SQLite 记录每次场景运行及其指标，供历史查询。
package catalog

import (
	"context"
	"database/sql"
	"fmt"
)

// SchemaVersion 当前库结构版本
const SchemaVersion = 1

const schemaV1 = `
CREATE TABLE IF NOT EXISTS runs (
    seq         INTEGER PRIMARY KEY AUTOINCREMENT,
    id          TEXT NOT NULL UNIQUE,
    scenario    TEXT NOT NULL,
    system_n    INTEGER NOT NULL,
    ts          REAL NOT NULL,
    tlen        REAL NOT NULL,
    mode        TEXT NOT NULL,
    net_mode    TEXT NOT NULL,
    saved       INTEGER NOT NULL DEFAULT 0,
    elapsed_ms  INTEGER NOT NULL DEFAULT 0,
    status      TEXT NOT NULL,
    error       TEXT NOT NULL DEFAULT '',
    finished_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_runs_scenario ON runs(scenario, seq);

CREATE TABLE IF NOT EXISTS metrics (
    seq          INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id       TEXT REFERENCES runs(id) ON DELETE CASCADE,
    scenario     TEXT NOT NULL,
    duration_s   REAL NOT NULL,
    timesteps    INTEGER NOT NULL,
    mean         REAL NOT NULL,
    min          REAL NOT NULL,
    max          REAL NOT NULL,
    std          REAL NOT NULL,
    nadir_depth  REAL NOT NULL,
    max_rocof    REAL NOT NULL,
    settling_s   REAL,
    computed_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_metrics_scenario ON metrics(scenario, seq);

CREATE TABLE IF NOT EXISTS schema_version (
    version    INTEGER PRIMARY KEY,
    applied_at TEXT NOT NULL
);
`

// initSchema 新库建表，已有库只检查版本
func initSchema(ctx context.Context, db *sql.DB) error {
	var version int
	if err := db.QueryRowContext(ctx, `SELECT MAX(version) FROM schema_version`).Scan(&version); err == nil {
		if version > SchemaVersion {
			return fmt.Errorf("catalog schema version %d is newer than supported %d", version, SchemaVersion)
		}
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, schemaV1); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO schema_version (version, applied_at) VALUES (?, datetime('now'))`,
		SchemaVersion); err != nil {
		return fmt.Errorf("failed to record schema version: %w", err)
	}
	return tx.Commit()
}
