package device

import (
	"math/cmplx"

	"emt/cases"
)

// Load 恒功率负荷，电压经一阶滤波，低于 Vmin 时按电压平方折减为恒阻抗特性
type Load struct {
	cases.Load
	Index int
}

// Power 滤波电压 vf 下的实际功率
func (l *Load) Power(vf, scale float64) complex128 {
	s := complex(l.P*scale, l.Q*scale)
	if vf < l.Vmin {
		k := (vf / l.Vmin) * (vf / l.Vmin)
		s *= complex(k, 0)
	}
	return s
}

// Current 负荷注入电流 -conj(S/(vf∠θ))，θ 取上一步母线相角
func (l *Load) Current(vf, theta, scale float64) complex128 {
	if vf < minVoltage {
		return 0
	}
	return -cmplx.Conj(l.Power(vf, scale) / cmplx.Rect(vf, theta))
}

// Deriv 滤波电压导数
func (l *Load) Deriv(vf float64, v complex128) float64 {
	return (cmplx.Abs(v) - vf) / l.Tv
}
