// Package scenario 定义扰动场景参数表与事件调度器。
//
// Parameters 是不可变值，在场景建立时确定；调度器把已触发、故障投入等
// 运行期标记保存在自身的 EventState 中，从不修改参数本身。
package scenario

import (
	"fmt"

	"emt/cases"
	"emt/errs"
)

// SentinelTime 禁用事件使用的远期触发时间。
// 仿真时长小于该值时，带此时间的事件永远不会触发。
const SentinelTime = 100.0

// 内置场景名称
const (
	Baseline   = "Baseline"
	StrongGrid = "Strong_Grid"
	HeavyLoad  = "Heavy_Load"
	Islanding  = "Islanding"
	FaultLLG   = "Fault_LLG"
)

// StepTarget 阶跃扰动作用对象
type StepTarget int

const (
	TargetGovernor StepTarget = iota // 调速器功率参考 Pref
	TargetExciter                    // 励磁电势 Eq
)

func (s StepTarget) String() string {
	if s == TargetExciter {
		return "exciter"
	}
	return "governor"
}

// GenTrip 发电机切机
type GenTrip struct {
	Enabled   bool
	Time      float64
	Generator int  // 发电机序号（0 起始）
	Reinit    bool // 是否从导纳矩阵中移除该机诺顿导纳并重新分解
}

// StepChange 参考值阶跃
type StepChange struct {
	Enabled   bool
	Time      float64
	Generator int
	Target    StepTarget
	Delta     float64
}

// Fault 母线对地故障
type Fault struct {
	Enabled    bool
	Bus        int     // 母线编号
	Resistance float64 // 故障电阻 p.u.
	Time       float64 // 投入时间 s
	Duration   float64 // 持续时间 s，到时自动切除
}

// ClearTime 故障切除时间
func (f Fault) ClearTime() float64 { return f.Time + f.Duration }

// LoadSwitch 运行中切换负荷模型
type LoadSwitch struct {
	Enabled bool
	Time    float64
	Model   cases.LoadModel
}

// LoadStep 运行中负荷阶跃
type LoadStep struct {
	Enabled bool
	Time    float64
	Scale   float64 // 相对基础负荷的倍数
}

// Parameters 单个场景的全部参数
type Parameters struct {
	Name        string
	Tag         string          // 输出文件标签
	LoadModel   cases.LoadModel // 初始负荷模型
	ReleaseTime float64         // IBR 频率下垂释放时间 s
	Variant     string          // 网络数据变体
	LoadScale   float64         // 建立场景时的负荷缩放
	GenTrip     GenTrip
	StepChange  StepChange
	Fault       Fault
	LoadSwitch  LoadSwitch
	LoadStep    LoadStep
}

// defaults 各场景共用的参数：切机与阶跃扰动在远期时间，故障关闭
func defaults(name string) Parameters {
	return Parameters{
		Name:        name,
		Tag:         name,
		LoadModel:   cases.ConstantImpedance,
		ReleaseTime: 0,
		Variant:     cases.VariantBase,
		LoadScale:   1,
		GenTrip:     GenTrip{Enabled: true, Time: SentinelTime, Generator: 0, Reinit: true},
		StepChange:  StepChange{Enabled: true, Time: SentinelTime, Generator: 0, Target: TargetGovernor, Delta: -0.02},
		Fault:       Fault{Bus: -1, Time: SentinelTime, Duration: SentinelTime},
		LoadSwitch:  LoadSwitch{Time: SentinelTime, Model: cases.ConstantPower},
		LoadStep:    LoadStep{Time: SentinelTime, Scale: 1},
	}
}

// Names 批量运行的固定场景顺序
func Names() []string {
	return []string{Baseline, StrongGrid, HeavyLoad, Islanding, FaultLLG}
}

// Lookup 按名称返回场景参数，未知名称为配置错误
func Lookup(name string) (Parameters, error) {
	p := defaults(name)
	switch name {
	case Baseline:
	case StrongGrid:
		p.Variant = cases.VariantStiff
	case HeavyLoad:
		p.LoadScale = 1.5
	case Islanding:
		p.LoadModel = cases.ConstantPower
		p.ReleaseTime = 1.5
	case FaultLLG:
		p.Fault.Enabled = true
		p.Fault.Bus = 7
		p.Fault.Resistance = 0.01
		p.Fault.Time = 2.0
	default:
		return Parameters{}, errs.Config("scenario", "unknown scenario %q", name)
	}
	return p, nil
}

// Validate 在场景建立时检查参数与案例的匹配，故障能力在此一次性确认
func (p Parameters) Validate(c *cases.Case) error {
	field := func(f string) string { return fmt.Sprintf("scenario.%s.%s", p.Name, f) }
	if p.LoadModel != cases.ConstantImpedance && p.LoadModel != cases.ConstantPower {
		return errs.Config(field("load_model"), "invalid load model %d", int(p.LoadModel))
	}
	if p.LoadScale <= 0 {
		return errs.Config(field("load_scale"), "must be positive, got %g", p.LoadScale)
	}
	if p.GenTrip.Enabled && (p.GenTrip.Generator < 0 || p.GenTrip.Generator >= len(c.Generators)) {
		return errs.Config(field("gen_trip"), "generator %d out of range", p.GenTrip.Generator)
	}
	if p.StepChange.Enabled && (p.StepChange.Generator < 0 || p.StepChange.Generator >= len(c.Generators)) {
		return errs.Config(field("step_change"), "generator %d out of range", p.StepChange.Generator)
	}
	if p.Fault.Enabled {
		if !c.FaultCapable {
			return errs.Config(field("fault"), "case %q does not support fault injection", c.Name)
		}
		if _, ok := c.BusIndex(p.Fault.Bus); !ok {
			return errs.Config(field("fault"), "unknown bus %d", p.Fault.Bus)
		}
		if p.Fault.Resistance <= 0 {
			return errs.Config(field("fault"), "resistance must be positive, got %g", p.Fault.Resistance)
		}
	}
	if p.LoadStep.Enabled && p.LoadStep.Scale <= 0 {
		return errs.Config(field("load_step"), "scale must be positive, got %g", p.LoadStep.Scale)
	}
	return nil
}
