package device

import (
	"math/cmplx"

	"emt/cases"
)

// Generator 经典模型同步机，带一阶调速器
//
//	dδ/dt  = ωb(ω-1)
//	dω/dt  = (Pm - Pe - D(ω-1)) / 2H
//	dPm/dt = (Pref - (ω-1)/R - Pm) / Tg
type Generator struct {
	cases.Generator
	Index int // 母线矩阵索引
}

// EMF 暂态电势 Eq∠δ
func (g *Generator) EMF(x []float64, eq float64) complex128 {
	return cmplx.Rect(eq, x[GenDelta])
}

// Norton 诺顿等效注入电流 E/(jXd')
func (g *Generator) Norton(x []float64, eq float64) complex128 {
	return g.EMF(x, eq) / complex(0, g.Xd)
}

// Pe 电磁功率
func (g *Generator) Pe(x []float64, eq float64, v complex128) float64 {
	e := g.EMF(x, eq)
	return real(e * cmplx.Conj((e-v)/complex(0, g.Xd)))
}

// Deriv 计算状态导数写入 dst
func (g *Generator) Deriv(dst, x []float64, eq, pref, wb float64, v complex128) {
	dw := x[GenOmega] - 1
	dst[GenDelta] = wb * dw
	dst[GenOmega] = (x[GenPm] - g.Pe(x, eq, v) - g.D*dw) / (2 * g.H)
	dst[GenPm] = (pref - dw/g.R - x[GenPm]) / g.Tg
}
