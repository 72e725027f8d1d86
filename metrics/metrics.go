// Package metrics 从结果文件提取每个场景的动态指标并汇总成表。
package metrics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"emt/errs"
	"emt/scenario"
	"emt/trajectory"
)

// 稳定判据
const (
	settleBand   = 0.01 // 相对终值的带宽
	settleWindow = 1000 // 终值取最后若干点的均值
)

// Row 单个场景的指标
type Row struct {
	Scenario   string   // 场景名称
	Duration   float64  // 最后一个保存点的时间 s
	Timesteps  int      // 保存点数
	Mean       float64  // 均值
	Min        float64  // 最小值
	Max        float64  // 最大值
	Std        float64  // 总体标准差
	NadirDepth float64  // Mean - Min
	MaxRoCoF   float64  // max |Δy/Δt|
	Settling   *float64 // 首次进入终值 1% 带内的时间，从未进入为 nil
}

// StateIndex 指标使用的发电机状态列：故障场景取功角，其余取转速
func StateIndex(name string) int {
	if name == scenario.FaultLLG {
		return 0
	}
	return 1
}

// Compute 计算一条时间序列的指标。t 与 y 等长且非空，t 的前两个采样点严格递增。
func Compute(name string, t, y []float64) (Row, error) {
	if len(t) == 0 {
		return Row{}, &errs.DataShapeError{Scenario: name, Reason: "empty time series"}
	}
	if len(y) != len(t) {
		return Row{}, &errs.DataShapeError{Scenario: name, Reason: fmt.Sprintf("signal has %d samples, time has %d", len(y), len(t))}
	}
	if len(t) > 1 && !(t[1] > t[0]) {
		return Row{}, &errs.DataShapeError{Scenario: name, Reason: fmt.Sprintf("non-increasing time %g -> %g", t[0], t[1])}
	}
	row := Row{
		Scenario:  name,
		Duration:  t[len(t)-1],
		Timesteps: len(t),
		Min:       floats.Min(y),
		Max:       floats.Max(y),
	}
	row.Mean, row.Std = stat.PopMeanStdDev(y, nil)
	row.NadirDepth = row.Mean - row.Min

	if len(t) > 1 {
		dt := t[1] - t[0]
		for i := 1; i < len(y); i++ {
			if r := math.Abs((y[i] - y[i-1]) / dt); r > row.MaxRoCoF {
				row.MaxRoCoF = r
			}
		}
	}

	tail := y
	if len(y) > settleWindow {
		tail = y[len(y)-settleWindow:]
	}
	final := stat.Mean(tail, nil)
	for i, v := range y {
		if math.Abs(v-final) < settleBand*math.Abs(final) {
			ts := t[i]
			row.Settling = &ts
			break
		}
	}
	return row, nil
}

// FromResults 按场景取状态列后计算指标
func FromResults(res *trajectory.Results) (Row, error) {
	y, err := res.Column(StateIndex(res.Scenario))
	if err != nil {
		return Row{}, err
	}
	return Compute(res.Scenario, res.Time, y)
}
