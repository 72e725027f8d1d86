package device

import (
	"math/cmplx"

	"emt/cases"
)

// minVoltage 电压低于该值时电源停止注入
const minVoltage = 1e-6

// IBR 跟网型逆变器：功率经一阶滤波后按上一步电压折算为电流注入，
// 频率下垂在滤波释放时间之后才投入。
type IBR struct {
	cases.IBR
	Index int
}

// Current 注入电流 conj(S/V)，幅值限制在 Imax
func (b *IBR) Current(x []float64, vPrev complex128) complex128 {
	if cmplx.Abs(vPrev) < minVoltage {
		return 0
	}
	i := cmplx.Conj(complex(x[IBRP], x[IBRQ]) / vPrev)
	if a := cmplx.Abs(i); a > b.Imax {
		i *= complex(b.Imax/a, 0)
	}
	return i
}

// Deriv 计算滤波状态导数，f 为所在母线的频率测量值（p.u.）
func (b *IBR) Deriv(dst, x []float64, f float64, released bool) {
	pcmd := b.P
	if released {
		pcmd -= b.Kf * (f - 1)
	}
	dst[IBRP] = (pcmd - x[IBRP]) / b.Tf
	dst[IBRQ] = (b.Q - x[IBRQ]) / b.Tf
}
