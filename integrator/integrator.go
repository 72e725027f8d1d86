package integrator

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/cmplx"

	"emt/cases"
	"emt/device"
	"emt/errs"
	"emt/network"
	"emt/scenario"
)

// 稳态初始化的不动点迭代参数
const (
	initTol     = 1e-12
	initMaxIter = 1000
)

// Integrator 单个场景的预测-校正步进器，独占一份设备与网络状态
type Integrator struct {
	Case     *cases.Case
	Models   *device.Models
	Solver   network.Solver
	Sched    *scenario.Scheduler
	TS       float64      // 步长 s
	Scenario string       // 场景名，用于错误上下文
	Logger   *slog.Logger // 事件日志，可为空

	state *State
	dirty bool // 导纳矩阵需要重新分解

	genPred, ibrPred, loadPred []float64
	genF, ibrF                 []float64 // 预测状态下的导数
	current, volt              []complex128
	bus                        []float64
}

// New 以给定状态创建步进器并分解当前拓扑的导纳矩阵。
// state 来自 Initialize 或快照恢复，调度器状态同步自 state.Events。
func New(c *cases.Case, m *device.Models, solver network.Solver, p scenario.Parameters, ts float64, state *State) (*Integrator, error) {
	if !state.Shape(m) {
		return nil, &errs.DataShapeError{Scenario: p.Name, Reason: "state vector sizes do not match the case"}
	}
	gen, ibr, load, bus := m.Sizes()
	it := &Integrator{
		Case:     c,
		Models:   m,
		Solver:   solver,
		Sched:    scenario.NewScheduler(p, state.Events),
		TS:       ts,
		Scenario: p.Name,
		state:    state,
		genPred:  make([]float64, gen),
		ibrPred:  make([]float64, ibr),
		loadPred: make([]float64, load),
		genF:     make([]float64, device.GenStates),
		ibrF:     make([]float64, device.IBRStates),
		current:  make([]complex128, m.NBus),
		volt:     make([]complex128, m.NBus),
		bus:      make([]float64, bus),
	}
	if err := it.refactor(state.Step); err != nil {
		return nil, err
	}
	return it, nil
}

// State 当前状态（由步进器持有，调用方只读）
func (it *Integrator) State() *State { return it.state }

func (it *Integrator) divergence(step int, bus int, err error) error {
	return &errs.NumericalDivergence{Scenario: it.Scenario, Step: step, Time: float64(step) * it.TS, Bus: bus, Err: err}
}

func (it *Integrator) refactor(step int) error {
	if err := it.Solver.Factor(network.Build(it.Case, it.state.Topology)); err != nil {
		return it.divergence(step, -1, err)
	}
	it.dirty = false
	return nil
}

// Step 推进到第 step 步（t = step·ts）
func (it *Integrator) Step(step int) (*State, error) {
	s, m := it.state, it.Models
	t := float64(step) * it.TS

	// 1. 事件
	if ev := it.Sched.Evaluate(step, t); ev != 0 {
		it.apply(ev, t)
	}
	s.Events = it.Sched.State
	if it.dirty {
		if err := it.refactor(step); err != nil {
			return nil, err
		}
	}

	// 2. 预测
	s.History.Gen.Predict(it.genPred)
	s.History.IBR.Predict(it.ibrPred)
	s.History.Load.Predict(it.loadPred)

	// 3. 发电机电流
	clear(s.Igs)
	for i := range m.Gens {
		if !s.Targets.GenOnline[i] {
			continue
		}
		g := &m.Gens[i]
		s.Igs[g.Index] += g.Norton(genSlice(it.genPred, i), s.Targets.GenEq[i])
	}

	// 4. IBR 电流，按上一步电压折算
	clear(s.Iibr)
	for i := range m.IBRs {
		b := &m.IBRs[i]
		s.Iibr[b.Index] += b.Current(ibrSlice(it.ibrPred, i), s.V[b.Index])
	}

	// 5. 负荷电流，恒阻抗负荷已并入导纳矩阵
	clear(s.Il)
	if s.Topology.LoadModel == cases.ConstantPower {
		for i := range m.Loads {
			l := &m.Loads[i]
			s.Il[l.Index] += l.Current(it.loadPred[i], s.Bus[l.Index*device.BusStates+device.BusTheta], s.Topology.LoadScale)
		}
	}

	// 6. 网络求解
	for i := range it.current {
		it.current[i] = s.Igs[i] + s.Iibr[i] + s.Il[i]
	}
	if err := it.Solver.Solve(it.current, it.volt); err != nil {
		return nil, it.divergence(step, -1, err)
	}
	if bus := firstNonFinite(it.volt); bus >= 0 {
		return nil, it.divergence(step, bus, errors.New("non-finite bus voltage"))
	}
	copy(s.V, it.volt)

	// 7. 母线测量
	m.Measure(it.bus, s.Bus, s.V, it.TS)
	copy(s.Bus, it.bus)

	// 8. 梯形校正
	it.correct(t)

	// 9. 历史轮转
	s.History.Push(s.Gen, s.IBR, s.Load)
	s.Step, s.Time = step, t
	return s, nil
}

func (it *Integrator) correct(t float64) {
	s, m := it.state, it.Models
	h := it.TS / 2
	for i := range m.Gens {
		if !s.Targets.GenOnline[i] {
			continue
		}
		g := &m.Gens[i]
		x, dx := genSlice(s.Gen, i), genSlice(s.GenDot, i)
		v, eq, pref := s.V[g.Index], s.Targets.GenEq[i], s.Targets.GenPref[i]
		g.Deriv(it.genF, genSlice(it.genPred, i), eq, pref, m.Wb, v)
		for k := range x {
			x[k] += h * (dx[k] + it.genF[k])
		}
		g.Deriv(dx, x, eq, pref, m.Wb, v)
	}
	released := t >= it.Sched.Params().ReleaseTime
	for i := range m.IBRs {
		b := &m.IBRs[i]
		x, dx := ibrSlice(s.IBR, i), ibrSlice(s.IBRDot, i)
		f := s.Bus[b.Index*device.BusStates+device.BusFreq]
		b.Deriv(it.ibrF, ibrSlice(it.ibrPred, i), f, released)
		for k := range x {
			x[k] += h * (dx[k] + it.ibrF[k])
		}
		b.Deriv(dx, x, f, released)
	}
	if s.Topology.LoadModel != cases.ConstantPower {
		return
	}
	for i := range m.Loads {
		l := &m.Loads[i]
		v := s.V[l.Index]
		s.Load[i] += h * (s.LoadDot[i] + l.Deriv(it.loadPred[i], v))
		s.LoadDot[i] = l.Deriv(s.Load[i], v)
	}
}

// apply 执行本步事件，改变导纳矩阵的事件标记需要重新分解
func (it *Integrator) apply(ev scenario.Events, t float64) {
	s, p := it.state, it.Sched.Params()
	if ev.Has(scenario.EventStepChange) {
		gi := p.StepChange.Generator
		switch p.StepChange.Target {
		case scenario.TargetExciter:
			s.Targets.GenEq[gi] += p.StepChange.Delta
		default:
			s.Targets.GenPref[gi] += p.StepChange.Delta
		}
	}
	if ev.Has(scenario.EventGenTrip) {
		gi := p.GenTrip.Generator
		s.Targets.GenOnline[gi] = false
		clear(genSlice(s.GenDot, gi))
		if p.GenTrip.Reinit {
			s.Topology.GenShunt[gi] = false
			it.dirty = true
		}
	}
	if ev.Has(scenario.EventFault) {
		idx, _ := it.Case.BusIndex(p.Fault.Bus)
		s.Topology.FaultBus = idx
		s.Topology.FaultResistance = p.Fault.Resistance
		it.dirty = true
	}
	if ev.Has(scenario.EventFaultClear) {
		s.Topology.FaultBus = -1
		it.dirty = true
	}
	if ev.Has(scenario.EventLoadModelSwitch) && s.Topology.LoadModel != p.LoadSwitch.Model {
		s.Topology.LoadModel = p.LoadSwitch.Model
		if p.LoadSwitch.Model == cases.ConstantPower {
			it.seedLoads()
		}
		it.dirty = true
	}
	if ev.Has(scenario.EventLoadScale) {
		s.Topology.LoadScale = p.LoadStep.Scale
		if s.Topology.LoadModel == cases.ConstantImpedance {
			it.dirty = true
		}
	}
	if it.Logger != nil {
		it.Logger.Info("scenario event", "scenario", it.Scenario, "time", t, "events", ev.String())
	}
}

// seedLoads 切换为恒功率时以当前母线电压重置负荷滤波状态
func (it *Integrator) seedLoads() {
	s := it.state
	for i, l := range it.Models.Loads {
		s.Load[i] = s.Bus[l.Index*device.BusStates+device.BusVm]
		s.LoadDot[i] = 0
	}
	s.History.Load.Fill(s.Load)
}

// Initialize 由案例数据与场景参数求稳态初值。
// 网络电压通过不动点迭代与 IBR、恒功率负荷电流达成一致，随后令各机 Pm = Pref = Pe。
func Initialize(c *cases.Case, m *device.Models, solver network.Solver, p scenario.Parameters) (*State, error) {
	s := newState(m)
	s.Topology.LoadModel = p.LoadModel
	s.Topology.LoadScale = 1
	s.Topology.FaultBus = -1
	for i, g := range m.Gens {
		s.Topology.GenShunt[i] = true
		s.Targets.GenOnline[i] = true
		s.Targets.GenEq[i] = g.Eq
		x := genSlice(s.Gen, i)
		x[device.GenDelta], x[device.GenOmega] = g.Delta0, 1
	}
	for i, b := range m.IBRs {
		x := ibrSlice(s.IBR, i)
		x[device.IBRP], x[device.IBRQ] = b.P, b.Q
	}
	fail := func(err error) error {
		return &errs.NumericalDivergence{Scenario: p.Name, Bus: -1, Err: err}
	}
	if err := solver.Factor(network.Build(c, s.Topology)); err != nil {
		return nil, fail(err)
	}

	for i := range s.V {
		s.V[i] = 1
	}
	current := make([]complex128, m.NBus)
	next := make([]complex128, m.NBus)
	converged := false
	mismatch := math.Inf(1)
	for iter := 0; iter < initMaxIter && !converged; iter++ {
		injections(s, m, s.V)
		for i := range current {
			current[i] = s.Igs[i] + s.Iibr[i] + s.Il[i]
		}
		if err := solver.Solve(current, next); err != nil {
			return nil, fail(err)
		}
		if bus := firstNonFinite(next); bus >= 0 {
			return nil, &errs.NumericalDivergence{Scenario: p.Name, Bus: bus, Err: errors.New("non-finite bus voltage during initialization")}
		}
		mismatch = 0
		for i := range next {
			mismatch = max(mismatch, cmplx.Abs(next[i]-s.V[i]))
		}
		copy(s.V, next)
		converged = mismatch < initTol
	}
	if !converged {
		return nil, fail(fmt.Errorf("initialization did not converge after %d iterations (mismatch %g)", initMaxIter, mismatch))
	}
	injections(s, m, s.V)

	for i := range m.Loads {
		s.Load[i] = cmplx.Abs(s.V[m.Loads[i].Index])
	}
	for i, v := range s.V {
		o := i * device.BusStates
		s.Bus[o+device.BusVm], s.Bus[o+device.BusTheta], s.Bus[o+device.BusFreq] = cmplx.Abs(v), cmplx.Phase(v), 1
	}
	for i := range m.Gens {
		g := &m.Gens[i]
		x := genSlice(s.Gen, i)
		pe := g.Pe(x, s.Targets.GenEq[i], s.V[g.Index])
		x[device.GenPm] = pe
		s.Targets.GenPref[i] = pe
		g.Deriv(genSlice(s.GenDot, i), x, s.Targets.GenEq[i], pe, m.Wb, s.V[g.Index])
	}
	released := 0 >= p.ReleaseTime
	for i := range m.IBRs {
		b := &m.IBRs[i]
		b.Deriv(ibrSlice(s.IBRDot, i), ibrSlice(s.IBR, i), 1, released)
	}
	if p.LoadModel == cases.ConstantPower {
		for i := range m.Loads {
			s.LoadDot[i] = m.Loads[i].Deriv(s.Load[i], s.V[m.Loads[i].Index])
		}
	}
	s.History.Gen.Fill(s.Gen)
	s.History.IBR.Fill(s.IBR)
	s.History.Load.Fill(s.Load)
	return s, nil
}

// injections 以电压 v 计算初始化阶段各类注入电流
func injections(s *State, m *device.Models, v []complex128) {
	clear(s.Igs)
	clear(s.Iibr)
	clear(s.Il)
	for i := range m.Gens {
		g := &m.Gens[i]
		s.Igs[g.Index] += g.Norton(genSlice(s.Gen, i), s.Targets.GenEq[i])
	}
	for i := range m.IBRs {
		b := &m.IBRs[i]
		s.Iibr[b.Index] += b.Current(ibrSlice(s.IBR, i), v[b.Index])
	}
	if s.Topology.LoadModel == cases.ConstantPower {
		for i := range m.Loads {
			l := &m.Loads[i]
			vi := v[l.Index]
			s.Il[l.Index] += l.Current(cmplx.Abs(vi), cmplx.Phase(vi), s.Topology.LoadScale)
		}
	}
}

func genSlice(x []float64, i int) []float64 {
	return x[i*device.GenStates : (i+1)*device.GenStates]
}

func ibrSlice(x []float64, i int) []float64 {
	return x[i*device.IBRStates : (i+1)*device.IBRStates]
}

// firstNonFinite 返回首个非有限电压的母线索引，全部有限时返回 -1
func firstNonFinite(v []complex128) int {
	for i, x := range v {
		if cmplx.IsNaN(x) || cmplx.IsInf(x) {
			return i
		}
	}
	return -1
}
