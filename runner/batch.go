package runner

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"emt/config"
	"emt/trajectory"
)

// Result 单个场景的运行结果，Err 非空表示该场景失败
type Result struct {
	Scenario string
	Record   *trajectory.Record
	Elapsed  time.Duration
	Err      error
}

// Batch 批量运行多个场景，单个场景失败不影响其他场景
type Batch struct {
	Runner   *Runner
	Config   config.Simulation
	OnFinish func(Result) // 每个场景结束后调用（串行化），可为空
}

// RunAll 先校验配置与全部场景名称，任何配置错误都在仿真开始前返回；
// 之后逐个运行，结果按输入顺序返回。Parallel > 1 时多个场景并发运行。
func (b *Batch) RunAll(names []string) ([]Result, error) {
	cfg := &config.Config{Simulation: b.Config}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, nil
	}
	for _, name := range names {
		if _, err := b.Runner.Params(name); err != nil {
			return nil, err
		}
	}

	log := b.Runner.logger()
	results := make([]Result, len(names))
	var mu sync.Mutex
	runOne := func(i int) {
		name := names[i]
		began := time.Now()
		rec, err := b.Runner.Run(name, b.Config)
		res := Result{Scenario: name, Record: rec, Elapsed: time.Since(began)}
		if err != nil {
			res.Err = fmt.Errorf("scenario %s: %w", name, err)
			log.Error("scenario failed", "scenario", name, "error", err)
		}
		results[i] = res
		if b.OnFinish != nil {
			mu.Lock()
			b.OnFinish(res)
			mu.Unlock()
		}
	}

	if b.Config.Parallel <= 1 {
		for i := range names {
			runOne(i)
		}
		return results, nil
	}
	var g errgroup.Group
	g.SetLimit(b.Config.Parallel)
	for i := range names {
		i := i
		g.Go(func() error {
			runOne(i)
			return nil
		})
	}
	_ = g.Wait()
	return results, nil
}

// Failures 汇总失败场景的错误，全部成功时返回 nil
func Failures(results []Result) error {
	var errs []error
	for _, r := range results {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}
