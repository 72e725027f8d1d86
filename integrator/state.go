package integrator

import (
	"emt/device"
	"emt/network"
	"emt/scenario"
)

// Targets 运行中可被事件修改的设备参考值
type Targets struct {
	GenPref   []float64 // 调速器功率参考
	GenEq     []float64 // 励磁电势
	GenOnline []bool    // 机组是否在网
}

// State 单步求解后的完整设备与网络状态，可直接编码为快照
type State struct {
	Step int
	Time float64

	Gen  []float64 // 发电机状态（校正后）
	IBR  []float64 // IBR 状态
	Load []float64 // 负荷状态
	Bus  []float64 // 母线测量

	GenDot  []float64 // 上一步导数，梯形校正使用
	IBRDot  []float64
	LoadDot []float64

	V    []complex128 // 母线电压
	Igs  []complex128 // 发电机注入电流
	Iibr []complex128 // IBR 注入电流
	Il   []complex128 // 恒功率负荷注入电流

	History  StateBuffer
	Targets  Targets
	Topology network.Topology
	Events   scenario.EventState
}

func newState(m *device.Models) *State {
	gen, ibr, load, bus := m.Sizes()
	nGen := len(m.Gens)
	s := &State{
		Gen:     make([]float64, gen),
		IBR:     make([]float64, ibr),
		Load:    make([]float64, load),
		Bus:     make([]float64, bus),
		GenDot:  make([]float64, gen),
		IBRDot:  make([]float64, ibr),
		LoadDot: make([]float64, load),
		V:       make([]complex128, m.NBus),
		Igs:     make([]complex128, m.NBus),
		Iibr:    make([]complex128, m.NBus),
		Il:      make([]complex128, m.NBus),
		History: NewStateBuffer(gen, ibr, load),
		Targets: Targets{
			GenPref:   make([]float64, nGen),
			GenEq:     make([]float64, nGen),
			GenOnline: make([]bool, nGen),
		},
	}
	s.Topology.GenShunt = make([]bool, nGen)
	return s
}

// Shape 校验状态向量长度与模型一致（快照恢复时使用）
func (s *State) Shape(m *device.Models) bool {
	gen, ibr, load, bus := m.Sizes()
	return len(s.Gen) == gen && len(s.IBR) == ibr && len(s.Load) == load && len(s.Bus) == bus &&
		len(s.GenDot) == gen && len(s.IBRDot) == ibr && len(s.LoadDot) == load &&
		len(s.V) == m.NBus && len(s.Igs) == m.NBus && len(s.Iibr) == m.NBus && len(s.Il) == m.NBus &&
		s.History.Gen.Len() == gen && s.History.IBR.Len() == ibr && s.History.Load.Len() == load &&
		len(s.Targets.GenPref) == len(m.Gens) && len(s.Targets.GenEq) == len(m.Gens) &&
		len(s.Targets.GenOnline) == len(m.Gens) && len(s.Topology.GenShunt) == len(m.Gens)
}
