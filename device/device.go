// Package device 实现仿真使用的设备动态模型。
//
// 所有状态按设备顺序平铺在 []float64 中，每类设备的状态个数由常量给出：
//
//	发电机  [δ, ω, Pm]
//	IBR     [Pf, Qf]
//	负荷    [vf]
//	母线    [Vm, θ, f]
//
// 模型只负责注入电流与导数计算，积分与历史管理由 integrator 完成。
package device

import (
	"fmt"
	"math"

	"emt/cases"
	"emt/errs"
)

// 每台设备的状态个数
const (
	GenStates  = 3
	IBRStates  = 2
	LoadStates = 1
	BusStates  = 3
)

// 状态在设备内的偏移
const (
	GenDelta = 0
	GenOmega = 1
	GenPm    = 2

	IBRP = 0
	IBRQ = 1

	BusVm    = 0
	BusTheta = 1
	BusFreq  = 2
)

// Models 由案例数据构建的设备模型集合
type Models struct {
	Wb        float64 // 额定角频率 rad/s
	MeasureTf float64 // 母线频率测量滤波时间常数
	NBus      int
	Gens      []Generator
	IBRs      []IBR
	Loads     []Load
}

// FromCase 将案例中的设备母线编号解析为矩阵索引
func FromCase(c *cases.Case) (*Models, error) {
	m := &Models{
		Wb:        2 * math.Pi * c.Freq,
		MeasureTf: c.MeasureTf,
		NBus:      len(c.Buses),
	}
	index := func(what string, i, bus int) (int, error) {
		idx, ok := c.BusIndex(bus)
		if !ok {
			return -1, errs.Config(fmt.Sprintf("case.%s[%d]", what, i), "unknown bus %d", bus)
		}
		return idx, nil
	}
	for i, g := range c.Generators {
		idx, err := index("generators", i, g.Bus)
		if err != nil {
			return nil, err
		}
		m.Gens = append(m.Gens, Generator{Generator: g, Index: idx})
	}
	for i, b := range c.IBRs {
		idx, err := index("ibrs", i, b.Bus)
		if err != nil {
			return nil, err
		}
		m.IBRs = append(m.IBRs, IBR{IBR: b, Index: idx})
	}
	for i, l := range c.Loads {
		idx, err := index("loads", i, l.Bus)
		if err != nil {
			return nil, err
		}
		m.Loads = append(m.Loads, Load{Load: l, Index: idx})
	}
	return m, nil
}

// Sizes 各类状态向量长度
func (m *Models) Sizes() (gen, ibr, load, bus int) {
	return len(m.Gens) * GenStates, len(m.IBRs) * IBRStates, len(m.Loads) * LoadStates, m.NBus * BusStates
}

// Measure 由母线电压计算幅值、相角与滤波后的频率。
// prev 为上一步的测量值，频率由相角差分得到后经一阶滤波。
func (m *Models) Measure(dst, prev []float64, v []complex128, ts float64) {
	alpha := ts / (m.MeasureTf + ts)
	for i, vi := range v {
		o := i * BusStates
		vm, th := cmplx2polar(vi)
		raw := 1 + wrapAngle(th-prev[o+BusTheta])/(m.Wb*ts)
		f := prev[o+BusFreq]
		dst[o+BusVm] = vm
		dst[o+BusTheta] = th
		dst[o+BusFreq] = f + alpha*(raw-f)
	}
}

func cmplx2polar(v complex128) (float64, float64) {
	return math.Hypot(real(v), imag(v)), math.Atan2(imag(v), real(v))
}

// wrapAngle 角度折算到 [-π, π]
func wrapAngle(a float64) float64 {
	return math.Remainder(a, 2*math.Pi)
}
