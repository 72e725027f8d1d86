// Package cases 提供网络潮流数据与动态模型数据。
//
// Case 是只读的基础数据集，每个场景通过 Clone 获得独立副本后再叠加场景参数，
// 场景之间不共享任何可变引用。
package cases

import (
	"fmt"
	"strings"

	"emt/errs"
)

// LoadModel 负荷模型
type LoadModel int

const (
	ConstantImpedance LoadModel = iota + 1 // 恒阻抗：并入导纳矩阵
	ConstantPower                          // 恒功率：每步单独计算注入电流
)

func (m LoadModel) String() string {
	switch m {
	case ConstantImpedance:
		return "constant-impedance"
	case ConstantPower:
		return "constant-power"
	}
	return fmt.Sprintf("LoadModel(%d)", int(m))
}

// ParseLoadModel 解析负荷模型名称
func ParseLoadModel(s string) (LoadModel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "constant-impedance", "const-z", "z":
		return ConstantImpedance, nil
	case "constant-power", "const-p", "p", "rlc":
		return ConstantPower, nil
	}
	return 0, errs.Config("load_model", "unknown load model %q", s)
}

// Bus 母线
type Bus struct {
	Num  int     `yaml:"num"`  // 母线编号（1 起始，与数据文件一致）
	Name string  `yaml:"name"` // 名称
	Gsh  float64 `yaml:"gsh"`  // 并联电导 p.u.
	Bsh  float64 `yaml:"bsh"`  // 并联电纳 p.u.
}

// Branch 线路或变压器（π 模型）
type Branch struct {
	From int     `yaml:"from"` // 首端母线编号
	To   int     `yaml:"to"`   // 末端母线编号
	R    float64 `yaml:"r"`    // 串联电阻 p.u.
	X    float64 `yaml:"x"`    // 串联电抗 p.u.
	B    float64 `yaml:"b"`    // 总充电电纳 p.u.
}

// Generator 同步发电机（经典模型 + 调速器）
type Generator struct {
	Bus    int     `yaml:"bus"`    // 母线编号
	H      float64 `yaml:"h"`      // 惯性时间常数 s（系统基准）
	D      float64 `yaml:"d"`      // 阻尼系数
	Xd     float64 `yaml:"xd"`     // 暂态电抗 p.u.
	R      float64 `yaml:"r"`      // 调差系数 p.u.
	Tg     float64 `yaml:"tg"`     // 调速器时间常数 s
	Eq     float64 `yaml:"eq"`     // 暂态电势幅值 p.u.
	Delta0 float64 `yaml:"delta0"` // 初始功角 rad
}

// IBR 逆变器型电源（跟网型）
type IBR struct {
	Bus  int     `yaml:"bus"`  // 母线编号
	P    float64 `yaml:"p"`    // 有功参考 p.u.
	Q    float64 `yaml:"q"`    // 无功参考 p.u.
	Tf   float64 `yaml:"tf"`   // 功率滤波时间常数 s
	Kf   float64 `yaml:"kf"`   // 频率下垂增益
	Imax float64 `yaml:"imax"` // 电流限幅 p.u.
}

// Load 负荷
type Load struct {
	Bus  int     `yaml:"bus"`  // 母线编号
	P    float64 `yaml:"p"`    // 有功 p.u.
	Q    float64 `yaml:"q"`    // 无功 p.u.
	Tv   float64 `yaml:"tv"`   // 电压滤波时间常数 s（恒功率模型）
	Vmin float64 `yaml:"vmin"` // 低于该电压转为恒阻抗特性
}

// Case 网络与设备基础数据
type Case struct {
	SystemN      int         `yaml:"system"`        // 网络规模标识
	Partitions   int         `yaml:"partitions"`    // 网络分区数
	Name         string      `yaml:"name"`          // 名称
	BaseMVA      float64     `yaml:"base_mva"`      // 功率基准
	Freq         float64     `yaml:"freq"`          // 额定频率 Hz
	MeasureTf    float64     `yaml:"measure_tf"`    // 母线频率测量滤波时间常数 s
	FaultCapable bool        `yaml:"fault_capable"` // 是否支持故障注入
	Buses        []Bus       `yaml:"buses"`
	Branches     []Branch    `yaml:"branches"`
	Generators   []Generator `yaml:"generators"`
	IBRs         []IBR       `yaml:"ibrs"`
	Loads        []Load      `yaml:"loads"`
}

// Clone 深拷贝
func (c *Case) Clone() *Case {
	n := *c
	n.Buses = append([]Bus(nil), c.Buses...)
	n.Branches = append([]Branch(nil), c.Branches...)
	n.Generators = append([]Generator(nil), c.Generators...)
	n.IBRs = append([]IBR(nil), c.IBRs...)
	n.Loads = append([]Load(nil), c.Loads...)
	return &n
}

// BusIndex 母线编号转换为矩阵索引
func (c *Case) BusIndex(num int) (int, bool) {
	for i, b := range c.Buses {
		if b.Num == num {
			return i, true
		}
	}
	return -1, false
}

// ScaleLoads 按比例缩放全部负荷的有功与无功
func (c *Case) ScaleLoads(factor float64) {
	for i := range c.Loads {
		c.Loads[i].P *= factor
		c.Loads[i].Q *= factor
	}
}

// LoadMagnitudes 负荷有功、无功向量
func (c *Case) LoadMagnitudes() (p, q []float64) {
	p = make([]float64, len(c.Loads))
	q = make([]float64, len(c.Loads))
	for i, l := range c.Loads {
		p[i], q[i] = l.P, l.Q
	}
	return p, q
}

// Validate 校验数据完整性
func (c *Case) Validate() error {
	if len(c.Buses) == 0 {
		return errs.Config("case", "no buses")
	}
	if c.Freq <= 0 {
		return errs.Config("case.freq", "must be positive, got %g", c.Freq)
	}
	if c.MeasureTf <= 0 {
		return errs.Config("case.measure_tf", "must be positive, got %g", c.MeasureTf)
	}
	seen := make(map[int]bool, len(c.Buses))
	for _, b := range c.Buses {
		if seen[b.Num] {
			return errs.Config("case.buses", "duplicate bus %d", b.Num)
		}
		seen[b.Num] = true
	}
	check := func(what string, i, bus int) error {
		if !seen[bus] {
			return errs.Config(fmt.Sprintf("case.%s[%d]", what, i), "unknown bus %d", bus)
		}
		return nil
	}
	for i, br := range c.Branches {
		if err := check("branches", i, br.From); err != nil {
			return err
		}
		if err := check("branches", i, br.To); err != nil {
			return err
		}
		if br.R == 0 && br.X == 0 {
			return errs.Config(fmt.Sprintf("case.branches[%d]", i), "zero impedance")
		}
	}
	if len(c.Generators) == 0 {
		return errs.Config("case.generators", "at least one generator is required")
	}
	for i, g := range c.Generators {
		if err := check("generators", i, g.Bus); err != nil {
			return err
		}
		if g.H <= 0 || g.Xd <= 0 || g.R <= 0 || g.Tg <= 0 {
			return errs.Config(fmt.Sprintf("case.generators[%d]", i), "h, xd, r and tg must be positive")
		}
	}
	for i, b := range c.IBRs {
		if err := check("ibrs", i, b.Bus); err != nil {
			return err
		}
		if b.Tf <= 0 || b.Imax <= 0 {
			return errs.Config(fmt.Sprintf("case.ibrs[%d]", i), "tf and imax must be positive")
		}
	}
	for i, l := range c.Loads {
		if err := check("loads", i, l.Bus); err != nil {
			return err
		}
		if l.Tv <= 0 || l.Vmin <= 0 {
			return errs.Config(fmt.Sprintf("case.loads[%d]", i), "tv and vmin must be positive")
		}
	}
	return nil
}
