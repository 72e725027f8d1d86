// Package network 负责节点导纳矩阵的构建与网络方程 Y*V = I 的求解。
package network

import (
	"fmt"
	"math/cmplx"

	"emt/maths"
)

// Admittance 节点导纳矩阵
type Admittance struct {
	Y maths.Matrix[complex128] // 复数导纳矩阵（n×n）
}

// NewAdmittance 创建 n 母线的空导纳矩阵
func NewAdmittance(n int) *Admittance {
	return &Admittance{Y: maths.NewDenseMatrix[complex128](n, n)}
}

// Size 母线数量
func (a *Admittance) Size() int { return a.Y.Rows() }

// Get 读取 (i,j) 元素
func (a *Admittance) Get(i, j int) complex128 { return a.Y.Get(i, j) }

// StampImpedance 为支路阻抗加盖，内部转换为导纳 y=1/z。
func (a *Admittance) StampImpedance(n1, n2 int, z complex128) {
	var y complex128
	if cmplx.Abs(z) > 1e-9 {
		y = 1 / z
	} else {
		y = complex(0, -1e9) // 避免除零
	}
	a.StampAdmittance(n1, n2, y)
}

// StampAdmittance 为两母线间的导纳支路加盖，修改矩阵的四个相关元素。
func (a *Admittance) StampAdmittance(n1, n2 int, y complex128) {
	a.Y.Increment(n1, n1, y)
	a.Y.Increment(n2, n2, y)
	a.Y.Increment(n1, n2, -y)
	a.Y.Increment(n2, n1, -y)
}

// StampShunt 母线对地导纳
func (a *Admittance) StampShunt(n int, y complex128) {
	a.Y.Increment(n, n, y)
}

// Current 计算 I = Y*V，用于校验基尔霍夫电流平衡
func (a *Admittance) Current(v []complex128) []complex128 {
	return a.Y.MatrixVectorMultiply(maths.NewDenseVectorWithData(v)).Data()
}

// String 调试输出
func (a *Admittance) String() string {
	return fmt.Sprintf("Admittance (n=%d):\n%s", a.Size(), a.Y.String())
}
