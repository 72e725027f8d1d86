// Package trajectory 负责降采样轨迹记录、快照与结果文件的持久化。
package trajectory

import (
	"fmt"
	"sort"

	"emt/errs"
	"emt/integrator"
)

// Entry 一个保存点的完整求解状态
type Entry struct {
	Index int // 保存序号，1 起始
	Time  float64
	Gen   []float64
	IBR   []float64
	Bus   []float64
	Load  []float64
	V     []complex128
}

// Record 只追加的轨迹记录
type Record struct {
	Scenario string
	SystemN  int
	TS       float64
	DSRate   int
	Entries  []Entry
}

// Len 保存点数量
func (r *Record) Len() int { return len(r.Entries) }

// LastIndex 最后一个保存点的序号，空记录为 0
func (r *Record) LastIndex() int {
	if len(r.Entries) == 0 {
		return 0
	}
	return r.Entries[len(r.Entries)-1].Index
}

// Append 复制状态追加为新保存点
func (r *Record) Append(index int, s *integrator.State) {
	r.Entries = append(r.Entries, Entry{
		Index: index,
		Time:  s.Time,
		Gen:   append([]float64(nil), s.Gen...),
		IBR:   append([]float64(nil), s.IBR...),
		Bus:   append([]float64(nil), s.Bus...),
		Load:  append([]float64(nil), s.Load...),
		V:     append([]complex128(nil), s.V...),
	})
}

// Recorder 每 DSRate 步把当前状态写入记录，并回调进度
type Recorder struct {
	DSRate   int
	Record   *Record
	Progress func(index int, t float64) // 可为空
}

// NewRecorder 创建记录器
func NewRecorder(scenario string, systemN int, ts float64, dsRate int) *Recorder {
	return &Recorder{
		DSRate: dsRate,
		Record: &Record{Scenario: scenario, SystemN: systemN, TS: ts, DSRate: dsRate},
	}
}

// ContinueRecorder 在已有记录之后继续追加，用于续算。
// 记录须由同一降采样率产生，且最后一个保存点恰为 step 步。
func ContinueRecorder(rec *Record, step int) (*Recorder, error) {
	if rec == nil {
		return nil, errs.Config("resume", "snapshot has no trajectory record")
	}
	if rec.DSRate <= 0 {
		return nil, errs.Config("resume", "snapshot record has ds_rate %d", rec.DSRate)
	}
	if want := step / rec.DSRate; rec.LastIndex() != want {
		return nil, errs.Config("resume", "snapshot record ends at index %d, state is at step %d (index %d)", rec.LastIndex(), step, want)
	}
	return &Recorder{DSRate: rec.DSRate, Record: rec}, nil
}

// Observe 第 step 步求解完成后调用，返回是否保存了该步
func (r *Recorder) Observe(step int, s *integrator.State) bool {
	if step <= 0 || step%r.DSRate != 0 {
		return false
	}
	index := step / r.DSRate
	r.Record.Append(index, s)
	if r.Progress != nil {
		r.Progress(index, s.Time)
	}
	return true
}

// Results 结果文件内容：time 与按保存序号索引的各类状态
type Results struct {
	Scenario string               `json:"scenario"`
	SystemN  int                  `json:"system"`
	TS       float64              `json:"ts"`
	DSRate   int                  `json:"ds_rate"`
	Time     []float64            `json:"time"`
	X        map[int][]float64    `json:"x"`
	XIBR     map[int][]float64    `json:"x_ibr"`
	XBus     map[int][]float64    `json:"x_bus"`
	XLoad    map[int][]float64    `json:"x_load"`
	V        map[int][][2]float64 `json:"v"`
}

// Results 转换为结果文件格式
func (r *Record) Results() *Results {
	res := &Results{
		Scenario: r.Scenario,
		SystemN:  r.SystemN,
		TS:       r.TS,
		DSRate:   r.DSRate,
		Time:     make([]float64, 0, len(r.Entries)),
		X:        make(map[int][]float64, len(r.Entries)),
		XIBR:     make(map[int][]float64, len(r.Entries)),
		XBus:     make(map[int][]float64, len(r.Entries)),
		XLoad:    make(map[int][]float64, len(r.Entries)),
		V:        make(map[int][][2]float64, len(r.Entries)),
	}
	for _, e := range r.Entries {
		res.Time = append(res.Time, e.Time)
		res.X[e.Index] = e.Gen
		res.XIBR[e.Index] = e.IBR
		res.XBus[e.Index] = e.Bus
		res.XLoad[e.Index] = e.Load
		v := make([][2]float64, len(e.V))
		for i, c := range e.V {
			v[i] = [2]float64{real(c), imag(c)}
		}
		res.V[e.Index] = v
	}
	return res
}

// Indices 升序排列的保存序号
func (res *Results) Indices() []int {
	keys := make([]int, 0, len(res.X))
	for k := range res.X {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}

// Matrix 按保存序号排序后堆叠为 (samples × states) 矩阵，与 Time 逐行对齐
func (res *Results) Matrix() ([][]float64, error) {
	if len(res.Time) == 0 {
		return nil, &errs.DataShapeError{Scenario: res.Scenario, Reason: "empty time series"}
	}
	if len(res.X) != len(res.Time) {
		return nil, &errs.DataShapeError{Scenario: res.Scenario, Reason: fmt.Sprintf("x has %d samples, time has %d", len(res.X), len(res.Time))}
	}
	keys := res.Indices()
	out := make([][]float64, len(keys))
	for i, k := range keys {
		out[i] = res.X[k]
	}
	return out, nil
}

// Column 取状态矩阵的一列
func (res *Results) Column(col int) ([]float64, error) {
	m, err := res.Matrix()
	if err != nil {
		return nil, err
	}
	y := make([]float64, len(m))
	for i, row := range m {
		if col < 0 || col >= len(row) {
			return nil, &errs.DataShapeError{Scenario: res.Scenario, Reason: fmt.Sprintf("state column %d out of range at sample %d (width %d)", col, i, len(row))}
		}
		y[i] = row[col]
	}
	return y, nil
}
