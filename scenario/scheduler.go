package scenario

import "strings"

// Events 单步触发的事件集合（位掩码），0 表示无事件
type Events uint8

const (
	EventLoadScale Events = 1 << iota
	EventLoadModelSwitch
	EventGenTrip
	EventStepChange
	EventFault
	EventFaultClear
)

var eventNames = []struct {
	e    Events
	name string
}{
	{EventLoadScale, "load_scale"},
	{EventLoadModelSwitch, "load_model_switch"},
	{EventGenTrip, "gen_trip"},
	{EventStepChange, "step_change"},
	{EventFault, "fault"},
	{EventFaultClear, "fault_clear"},
}

// Has 是否包含事件 e
func (s Events) Has(e Events) bool { return s&e != 0 }

func (s Events) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	for _, n := range eventNames {
		if s.Has(n.e) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

// EventState 调度器运行期状态，随快照保存
type EventState struct {
	Fired       Events // 已触发的一次性事件
	FaultActive bool   // 故障当前是否投入
}

// Scheduler 按时间判定场景事件，每个一次性事件只触发一次
type Scheduler struct {
	params Parameters
	State  EventState
}

// NewScheduler 创建调度器，state 用于从快照恢复
func NewScheduler(p Parameters, state EventState) *Scheduler {
	return &Scheduler{params: p, State: state}
}

// Params 场景参数副本
func (s *Scheduler) Params() Parameters { return s.params }

// Evaluate 返回 t 时刻应执行的事件，并记录为已触发
func (s *Scheduler) Evaluate(step int, t float64) Events {
	p := &s.params
	var out Events
	once := func(e Events, enabled bool, at float64) {
		if enabled && !s.State.Fired.Has(e) && t >= at {
			out |= e
			s.State.Fired |= e
		}
	}
	once(EventStepChange, p.StepChange.Enabled, p.StepChange.Time)
	once(EventGenTrip, p.GenTrip.Enabled, p.GenTrip.Time)
	once(EventFault, p.Fault.Enabled, p.Fault.Time)
	if out.Has(EventFault) {
		s.State.FaultActive = true
	}
	if s.State.FaultActive && !out.Has(EventFault) {
		once(EventFaultClear, true, p.Fault.ClearTime())
		if out.Has(EventFaultClear) {
			s.State.FaultActive = false
		}
	}
	once(EventLoadModelSwitch, p.LoadSwitch.Enabled, p.LoadSwitch.Time)
	once(EventLoadScale, p.LoadStep.Enabled, p.LoadStep.Time)
	return out
}
