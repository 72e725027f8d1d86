package network

import (
	"emt/cases"
)

// Topology 决定导纳矩阵内容的运行时状态
type Topology struct {
	LoadModel       cases.LoadModel // 恒阻抗负荷并入矩阵
	LoadScale       float64         // 运行中负荷阶跃倍数
	GenShunt        []bool          // 发电机诺顿等效导纳是否保留在矩阵中
	FaultBus        int             // 故障母线索引，-1 表示无故障
	FaultResistance float64         // 故障电阻 p.u.
}

// Build 根据案例数据与拓扑状态加盖导纳矩阵。
// 支路采用 π 模型，发电机以 1/(jXd') 诺顿导纳接入，故障为母线对地电导。
func Build(c *cases.Case, top Topology) *Admittance {
	a := NewAdmittance(len(c.Buses))
	idx := make(map[int]int, len(c.Buses))
	for i, b := range c.Buses {
		idx[b.Num] = i
		if b.Gsh != 0 || b.Bsh != 0 {
			a.StampShunt(i, complex(b.Gsh, b.Bsh))
		}
	}
	for _, br := range c.Branches {
		f, t := idx[br.From], idx[br.To]
		a.StampImpedance(f, t, complex(br.R, br.X))
		if br.B != 0 {
			half := complex(0, br.B/2)
			a.StampShunt(f, half)
			a.StampShunt(t, half)
		}
	}
	for i, g := range c.Generators {
		if i < len(top.GenShunt) && !top.GenShunt[i] {
			continue
		}
		a.StampShunt(idx[g.Bus], 1/complex(0, g.Xd))
	}
	if top.LoadModel == cases.ConstantImpedance {
		scale := top.LoadScale
		if scale == 0 {
			scale = 1
		}
		// 额定电压下 y = conj(S)/|V|^2
		for _, l := range c.Loads {
			a.StampShunt(idx[l.Bus], complex(l.P*scale, -l.Q*scale))
		}
	}
	if top.FaultBus >= 0 && top.FaultResistance > 0 {
		a.StampShunt(top.FaultBus, complex(1/top.FaultResistance, 0))
	}
	return a
}
