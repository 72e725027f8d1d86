package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"emt/config"
	"emt/metrics"
	"emt/runner"
)

// 运行状态
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Run 一次场景运行的记录
type Run struct {
	ID       uuid.UUID
	Scenario string
	SystemN  int
	TS       float64
	TLen     float64
	Mode     string
	NetMode  string
	Saved    int           // 保存点数
	Elapsed  time.Duration // 墙钟耗时
	Status   string
	Error    string
	Finished time.Time
}

// FromResult 由批量运行结果生成运行记录
func FromResult(res runner.Result, cfg config.Simulation) Run {
	run := Run{
		ID:       uuid.New(),
		Scenario: res.Scenario,
		SystemN:  cfg.SystemN,
		TS:       cfg.TS,
		TLen:     cfg.TLen,
		Mode:     cfg.Mode,
		NetMode:  cfg.NetMode,
		Elapsed:  res.Elapsed,
		Status:   StatusOK,
		Finished: time.Now().UTC(),
	}
	if res.Record != nil {
		run.Saved = res.Record.Len()
	}
	if res.Err != nil {
		run.Status = StatusFailed
		run.Error = res.Err.Error()
	}
	return run
}

// Catalog 运行记录库
type Catalog struct {
	mu sync.Mutex
	db *sql.DB
}

// Open 打开或新建记录库
func Open(path string) (*Catalog, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create catalog directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := initSchema(context.Background(), db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize catalog schema: %w", err)
	}
	return &Catalog{db: db}, nil
}

// Close 关闭记录库
func (c *Catalog) Close() error { return c.db.Close() }

// RecordRun 写入一次运行，ID 为空时自动生成
func (c *Catalog) RecordRun(ctx context.Context, run Run) (uuid.UUID, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if run.ID == uuid.Nil {
		run.ID = uuid.New()
	}
	if run.Finished.IsZero() {
		run.Finished = time.Now().UTC()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, system_n, ts, tlen, mode, net_mode, saved, elapsed_ms, status, error, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Scenario, run.SystemN, run.TS, run.TLen, run.Mode, run.NetMode,
		run.Saved, run.Elapsed.Milliseconds(), run.Status, run.Error, run.Finished.Format(time.RFC3339Nano))
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to record run %s: %w", run.Scenario, err)
	}
	return run.ID, nil
}

// History 按时间倒序列出运行记录，scenario 为空时列出全部场景
func (c *Catalog) History(ctx context.Context, scenario string, limit int) ([]Run, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if limit <= 0 {
		limit = -1
	}
	rows, err := c.db.QueryContext(ctx, `
		SELECT id, scenario, system_n, ts, tlen, mode, net_mode, saved, elapsed_ms, status, error, finished_at
		FROM runs WHERE (? = '' OR scenario = ?) ORDER BY seq DESC LIMIT ?`,
		scenario, scenario, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run      Run
			id       string
			elapsed  int64
			finished string
		)
		if err := rows.Scan(&id, &run.Scenario, &run.SystemN, &run.TS, &run.TLen, &run.Mode, &run.NetMode,
			&run.Saved, &elapsed, &run.Status, &run.Error, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		if run.ID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("invalid run id %q: %w", id, err)
		}
		run.Elapsed = time.Duration(elapsed) * time.Millisecond
		if run.Finished, err = time.Parse(time.RFC3339Nano, finished); err != nil {
			return nil, fmt.Errorf("invalid finish time %q: %w", finished, err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// latestRun 场景最近一次成功运行的 ID
func (c *Catalog) latestRun(ctx context.Context, scenario string) (sql.NullString, error) {
	var id sql.NullString
	err := c.db.QueryRowContext(ctx,
		`SELECT id FROM runs WHERE scenario = ? AND status = ? ORDER BY seq DESC LIMIT 1`,
		scenario, StatusOK).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return id, nil
	}
	return id, err
}

// RecordMetrics 写入一行指标，关联到该场景最近一次成功运行
func (c *Catalog) RecordMetrics(ctx context.Context, row metrics.Row) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	runID, err := c.latestRun(ctx, row.Scenario)
	if err != nil {
		return fmt.Errorf("failed to find run for %s: %w", row.Scenario, err)
	}
	var settling sql.NullFloat64
	if row.Settling != nil {
		settling = sql.NullFloat64{Float64: *row.Settling, Valid: true}
	}
	_, err = c.db.ExecContext(ctx, `
		INSERT INTO metrics (run_id, scenario, duration_s, timesteps, mean, min, max, std, nadir_depth, max_rocof, settling_s, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, row.Scenario, row.Duration, row.Timesteps, row.Mean, row.Min, row.Max, row.Std,
		row.NadirDepth, row.MaxRoCoF, settling, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record metrics for %s: %w", row.Scenario, err)
	}
	return nil
}

// LatestMetrics 场景最近一次的指标，没有记录时返回 nil
func (c *Catalog) LatestMetrics(ctx context.Context, scenario string) (*metrics.Row, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var (
		row      = metrics.Row{Scenario: scenario}
		settling sql.NullFloat64
	)
	err := c.db.QueryRowContext(ctx, `
		SELECT duration_s, timesteps, mean, min, max, std, nadir_depth, max_rocof, settling_s
		FROM metrics WHERE scenario = ? ORDER BY seq DESC LIMIT 1`, scenario).Scan(
		&row.Duration, &row.Timesteps, &row.Mean, &row.Min, &row.Max, &row.Std,
		&row.NadirDepth, &row.MaxRoCoF, &settling)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query metrics for %s: %w", scenario, err)
	}
	if settling.Valid {
		row.Settling = &settling.Float64
	}
	return &row, nil
}
