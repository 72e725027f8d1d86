// Package runner 驱动单个场景的完整仿真，以及多个场景的批量运行。
package runner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"emt/cases"
	"emt/config"
	"emt/device"
	"emt/errs"
	"emt/integrator"
	"emt/logging"
	"emt/network"
	"emt/scenario"
	"emt/trajectory"
)

// Runner 单场景运行器。每次 Run 都从案例提供者取得独立副本，
// 场景之间不共享任何可变状态，可在多个协程中同时调用。
type Runner struct {
	Cases    cases.Provider
	Lookup   func(name string) (scenario.Parameters, error) // 为空时使用内置场景表
	Logger   *slog.Logger
	Progress func(name string, index int, t float64) // 每个保存点回调，可为空
}

// New 使用内置场景表创建运行器
func New(provider cases.Provider, logger *slog.Logger) *Runner {
	return &Runner{Cases: provider, Logger: logger}
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.Discard()
	}
	return r.Logger
}

// Params 查询场景参数
func (r *Runner) Params(name string) (scenario.Parameters, error) {
	if r.Lookup != nil {
		return r.Lookup(name)
	}
	return scenario.Lookup(name)
}

// Setup 场景建立结果：已叠加场景参数的案例副本与设备模型
type Setup struct {
	Params scenario.Parameters
	Case   *cases.Case
	Models *device.Models
}

// Prepare 查表、取案例副本并叠加场景参数，全部校验在此完成
func (r *Runner) Prepare(name string, cfg config.Simulation) (*Setup, error) {
	p, err := r.Params(name)
	if err != nil {
		return nil, err
	}
	if m, ok, err := cfg.InitialLoadModel(); err != nil {
		return nil, err
	} else if ok {
		p.LoadModel = m
	}
	c, err := r.Cases.Case(cfg.SystemN, cfg.Partitions, p.Variant)
	if err != nil {
		return nil, err
	}
	c = c.Clone()
	if p.LoadScale != 1 {
		c.ScaleLoads(p.LoadScale)
	}
	if err := p.Validate(c); err != nil {
		return nil, err
	}
	m, err := device.FromCase(c)
	if err != nil {
		return nil, err
	}
	return &Setup{Params: p, Case: c, Models: m}, nil
}

// Key 场景输出文件命名
func Key(cfg config.Simulation, p scenario.Parameters) trajectory.Key {
	return trajectory.Key{SystemN: cfg.SystemN, TS: cfg.TS, Tag: p.Tag}
}

// progressReports 每个场景以 Info 级别输出的进度条数，其余保存点为 Debug
const progressReports = 10

// Run 运行一个场景并写出单点快照、全量快照与结果文件。
// 续算模式下新保存点追加在上次全量快照的记录之后，写出的文件与不间断运行一致。
func (r *Runner) Run(name string, cfg config.Simulation) (*trajectory.Record, error) {
	log := r.logger().With("scenario", name)
	setup, err := r.Prepare(name, cfg)
	if err != nil {
		return nil, err
	}
	p := setup.Params
	solver, err := network.New(cfg.NetMode, cfg.Partitions)
	if err != nil {
		return nil, err
	}
	store := trajectory.Store{Dir: cfg.OutputDir}
	key := Key(cfg, p)

	var (
		state *integrator.State
		rec   *trajectory.Recorder
	)
	switch cfg.Mode {
	case config.ModeResume:
		state, rec, err = resume(store, name, key, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("resuming", "step", state.Step, "time", state.Time, "saved", rec.Record.Len())
	case config.ModeFresh, "":
		state, err = integrator.Initialize(setup.Case, setup.Models, solver, p)
		if err != nil {
			return nil, err
		}
		rec = trajectory.NewRecorder(name, cfg.SystemN, cfg.TS, cfg.DSRate)
	default:
		return nil, errs.Config("mode", "unknown mode %q", cfg.Mode)
	}

	it, err := integrator.New(setup.Case, setup.Models, solver, p, cfg.TS, state)
	if err != nil {
		return nil, err
	}
	it.Logger = log

	total := cfg.Steps() / cfg.DSRate
	every := max(1, total/progressReports)
	rec.Progress = func(index int, t float64) {
		if index%every == 0 || index == total {
			log.Info("progress", "index", index, "of", total, "time", t)
		} else {
			log.Debug("progress", "index", index, "time", t)
		}
		if log.Enabled(context.Background(), logging.LevelTrace) && len(state.Gen) > device.GenOmega {
			log.Log(context.Background(), logging.LevelTrace, "state", "index", index, "omega0", state.Gen[device.GenOmega], "v0", fmt.Sprint(state.V[0]))
		}
		if r.Progress != nil {
			r.Progress(name, index, t)
		}
	}

	start, steps := state.Step, cfg.Steps()
	log.Info("scenario started", "mode", cfg.Mode, "from_step", start, "steps", steps, "net_mode", cfg.NetMode)
	began := time.Now()
	for step := start + 1; step <= steps; step++ {
		s, err := it.Step(step)
		if err != nil {
			log.Error("scenario aborted", "step", step, "time", float64(step)*cfg.TS, "error", err)
			return nil, err
		}
		rec.Observe(step, s)
	}
	elapsed := time.Since(began)

	final := it.State()
	meta := trajectory.Meta{Scenario: name, SystemN: cfg.SystemN, TS: cfg.TS, Step: final.Step, Time: final.Time}
	if err := store.SavePoint(key, &trajectory.Point{Meta: meta, State: final}); err != nil {
		return nil, err
	}
	if err := store.SaveSnapshot(key, &trajectory.Snapshot{Meta: meta, State: final, Record: rec.Record}); err != nil {
		return nil, err
	}
	if err := store.SaveResults(key, rec.Record.Results()); err != nil {
		return nil, err
	}
	log.Info("scenario finished", "saved", rec.Record.Len(), "elapsed", elapsed.Round(time.Millisecond))
	return rec.Record, nil
}

// resume 读取单点快照与全量快照，返回续算起点状态与接续原记录的记录器
func resume(store trajectory.Store, name string, key trajectory.Key, cfg config.Simulation) (*integrator.State, *trajectory.Recorder, error) {
	pt, err := store.LoadPoint(name, key)
	if err != nil {
		return nil, nil, err
	}
	if pt.Scenario != name || pt.SystemN != cfg.SystemN || pt.TS != cfg.TS || pt.State == nil {
		return nil, nil, errs.Config("resume", "snapshot %s was produced by %s/S%d/ts=%g", key.PointName(), pt.Scenario, pt.SystemN, pt.TS)
	}
	snap, err := store.LoadSnapshot(name, key)
	if err != nil {
		return nil, nil, err
	}
	if snap.Step != pt.Step || snap.Record == nil || snap.Record.DSRate != cfg.DSRate {
		return nil, nil, errs.Config("resume", "snapshot %s does not match %s (step %d, ds_rate %d)", key.SnapshotName(), key.PointName(), pt.Step, cfg.DSRate)
	}
	rec, err := trajectory.ContinueRecorder(snap.Record, pt.Step)
	if err != nil {
		return nil, nil, err
	}
	return pt.State, rec, nil
}
