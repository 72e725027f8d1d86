package network

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"emt/errs"
	"emt/maths"
)

// 求解模式
const (
	ModeLU    = "lu"    // 复数稠密 LU
	ModeGonum = "gonum" // 实数展开 2n×2n，gonum LU
)

// maxCondition 条件数上限，超过即视为病态
const maxCondition = 1e12

// ErrNotFactored 求解前未执行分解
var ErrNotFactored = errors.New("network: solver not factored")

// Solver 网络求解能力：分解导纳矩阵后按注入电流求母线电压。
// 奇异或病态矩阵必须返回错误，不能返回旧值或零值。
type Solver interface {
	Factor(a *Admittance) error                // 拓扑变化时重新分解
	Solve(current, voltage []complex128) error // 求解 Y*V = I，结果写入 voltage
}

// New 根据模式创建求解器。partitions 为网络分区数，内置求解器整体分解，仅校验其取值。
func New(mode string, partitions int) (Solver, error) {
	if partitions < 1 {
		return nil, errs.Config("partitions", "must be >= 1, got %d", partitions)
	}
	switch mode {
	case ModeLU:
		return &luSolver{}, nil
	case ModeGonum:
		return &gonumSolver{}, nil
	}
	return nil, errs.Config("net_mode", "unknown network solve mode %q", mode)
}

// luSolver 基于 maths 包复数 LU 的求解器
type luSolver struct {
	n    int
	lu   maths.LU[complex128]
	b, x maths.Vector[complex128]
}

func (s *luSolver) Factor(a *Admittance) error {
	n := a.Size()
	if s.lu == nil || s.n != n {
		lu, err := maths.NewLU[complex128](n)
		if err != nil {
			return fmt.Errorf("network: %w", err)
		}
		s.n, s.lu = n, lu
		s.b = maths.NewDenseVector[complex128](n)
		s.x = maths.NewDenseVector[complex128](n)
	}
	if err := s.lu.Decompose(a.Y); err != nil {
		s.lu = nil
		return fmt.Errorf("network: factor admittance: %w", err)
	}
	return nil
}

func (s *luSolver) Solve(current, voltage []complex128) error {
	if s.lu == nil {
		return ErrNotFactored
	}
	if len(current) != s.n || len(voltage) != s.n {
		return fmt.Errorf("network: dimension mismatch: current=%d voltage=%d n=%d", len(current), len(voltage), s.n)
	}
	copy(s.b.Data(), current)
	if err := s.lu.SolveReuse(s.b, s.x); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	copy(voltage, s.x.Data())
	return nil
}

// gonumSolver 将复数方程展开为实数方程
//
//	[G -B] [Vr]   [Ir]
//	[B  G] [Vi] = [Ii]
type gonumSolver struct {
	n    int
	lu   *mat.LU
	b, x *mat.VecDense
}

func (s *gonumSolver) Factor(a *Admittance) error {
	n := a.Size()
	m := mat.NewDense(2*n, 2*n, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			y := a.Get(i, j)
			m.Set(i, j, real(y))
			m.Set(i, j+n, -imag(y))
			m.Set(i+n, j, imag(y))
			m.Set(i+n, j+n, real(y))
		}
	}
	var lu mat.LU
	lu.Factorize(m)
	if c := lu.Cond(); math.IsInf(c, 0) || math.IsNaN(c) || c > maxCondition {
		s.lu = nil
		return fmt.Errorf("network: admittance matrix is singular or ill-conditioned (cond=%g)", c)
	}
	s.n, s.lu = n, &lu
	s.b = mat.NewVecDense(2*n, nil)
	s.x = mat.NewVecDense(2*n, nil)
	return nil
}

func (s *gonumSolver) Solve(current, voltage []complex128) error {
	if s.lu == nil {
		return ErrNotFactored
	}
	if len(current) != s.n || len(voltage) != s.n {
		return fmt.Errorf("network: dimension mismatch: current=%d voltage=%d n=%d", len(current), len(voltage), s.n)
	}
	for i, c := range current {
		s.b.SetVec(i, real(c))
		s.b.SetVec(i+s.n, imag(c))
	}
	if err := s.lu.SolveVecTo(s.x, false, s.b); err != nil {
		return fmt.Errorf("network: %w", err)
	}
	for i := range voltage {
		voltage[i] = complex(s.x.AtVec(i), s.x.AtVec(i+s.n))
	}
	return nil
}
