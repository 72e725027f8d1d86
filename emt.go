// Package emt 电磁暂态仿真的顶层入口：批量运行场景、汇总指标、绘制曲线。
package emt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"emt/cases"
	"emt/catalog"
	"emt/config"
	"emt/logging"
	"emt/metrics"
	"emt/report"
	"emt/runner"
	"emt/trajectory"
)

// Provider 按配置选择案例来源
func Provider(cfg config.Simulation) cases.Provider {
	if cfg.CaseDir != "" {
		return cases.FileProvider{Dir: cfg.CaseDir}
	}
	return cases.Builtin{}
}

// Simulate 运行场景，names 为空时运行配置中的全部场景。
// 配置错误在任何仿真开始前返回；单个场景的失败记录在对应 Result 中。
func Simulate(cfg *config.Config, names []string, log *slog.Logger) ([]runner.Result, error) {
	if log == nil {
		log = logging.Discard()
	}
	if len(names) == 0 {
		names = cfg.Simulation.Scenarios
	}
	var cat *catalog.Catalog
	record := cfg.Catalog.Enabled
	defer func() {
		if cat != nil {
			cat.Close()
		}
	}()
	b := &runner.Batch{
		Runner: runner.New(Provider(cfg.Simulation), log),
		Config: cfg.Simulation,
		OnFinish: func(res runner.Result) {
			if !record {
				return
			}
			if cat == nil {
				var err error
				if cat, err = catalog.Open(cfg.CatalogPath()); err != nil {
					log.Warn("catalog unavailable", "path", cfg.CatalogPath(), "error", err)
					record = false
					return
				}
			}
			if _, err := cat.RecordRun(context.Background(), catalog.FromResult(res, cfg.Simulation)); err != nil {
				log.Warn("record run failed", "scenario", res.Scenario, "error", err)
			}
		},
	}
	return b.RunAll(names)
}

func store(cfg *config.Config) trajectory.Store {
	return trajectory.Store{Dir: cfg.Simulation.OutputDir}
}

// Metrics 从结果文件汇总指标，写出 CSV 并记录到运行记录库
func Metrics(cfg *config.Config, names []string, log *slog.Logger) (*metrics.Summary, error) {
	if log == nil {
		log = logging.Discard()
	}
	if len(names) == 0 {
		names = cfg.Simulation.Scenarios
	}
	sum, err := metrics.Summarize(store(cfg), cfg.Simulation.SystemN, cfg.Simulation.TS, names, log)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(cfg.Simulation.OutputDir, cfg.Metrics.CSV)
	if err := metrics.SaveCSV(path, sum.Rows); err != nil {
		return nil, err
	}
	log.Info("metrics saved", "path", path, "rows", len(sum.Rows), "skipped", len(sum.Skipped))

	if cfg.Catalog.Enabled && len(sum.Rows) > 0 {
		cat, err := catalog.Open(cfg.CatalogPath())
		if err != nil {
			return nil, err
		}
		defer cat.Close()
		for _, row := range sum.Rows {
			if err := cat.RecordMetrics(context.Background(), row); err != nil {
				return nil, err
			}
		}
	}
	return sum, nil
}

// LoadResults 读取场景结果文件，缺失的场景记录日志后跳过
func LoadResults(cfg *config.Config, names []string, log *slog.Logger) []*trajectory.Results {
	if log == nil {
		log = logging.Discard()
	}
	if len(names) == 0 {
		names = cfg.Simulation.Scenarios
	}
	s := store(cfg)
	var out []*trajectory.Results
	for _, name := range names {
		key := trajectory.Key{SystemN: cfg.Simulation.SystemN, TS: cfg.Simulation.TS, Tag: name}
		res, err := s.LoadResults(name, key)
		if err != nil {
			log.Warn("results unavailable", "scenario", name, "error", err)
			continue
		}
		out = append(out, res)
	}
	return out
}

// Plot 写出曲线页面 trajectories.html 以及每个场景的指标信号图
func Plot(cfg *config.Config, results []*trajectory.Results, format string) ([]string, error) {
	dir := cfg.Simulation.OutputDir
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	var written []string
	write := func(name string, render func(f *os.File) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", name, err)
		}
		if err := render(f); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	page := &report.Page{Results: results}
	if err := write("trajectories.html", func(f *os.File) error { return page.Render(f) }); err != nil {
		return written, err
	}
	for _, res := range results {
		name := fmt.Sprintf("signal_S%d_%s.%s", res.SystemN, res.Scenario, format)
		if err := write(name, func(f *os.File) error { return report.Signal(f, res, format) }); err != nil {
			return written, err
		}
	}
	return written, nil
}
