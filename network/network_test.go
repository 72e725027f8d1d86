package network

import (
	"math/cmplx"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"emt/cases"
	"emt/errs"
)

func system6Topology() Topology {
	return Topology{LoadModel: cases.ConstantImpedance, LoadScale: 1, FaultBus: -1}
}

// TestSolveKirchhoff 两种求解模式都满足 Y*V = I，且结果一致
func TestSolveKirchhoff(t *testing.T) {
	c := cases.System6()
	a := Build(c, system6Topology())

	current := make([]complex128, a.Size())
	for _, g := range c.Generators {
		idx, _ := c.BusIndex(g.Bus)
		current[idx] += cmplx.Rect(g.Eq, g.Delta0) / complex(0, g.Xd)
	}

	results := map[string][]complex128{}
	for _, mode := range []string{ModeLU, ModeGonum} {
		s, err := New(mode, 2)
		require.NoError(t, err)
		require.NoError(t, s.Factor(a))
		v := make([]complex128, a.Size())
		require.NoError(t, s.Solve(current, v))

		got := a.Current(v)
		for i := range got {
			assert.InDelta(t, 0, cmplx.Abs(got[i]-current[i]), 1e-9, "%s bus %d", mode, i)
		}
		results[mode] = v
	}
	for i := range results[ModeLU] {
		assert.InDelta(t, 0, cmplx.Abs(results[ModeLU][i]-results[ModeGonum][i]), 1e-9)
	}
}

// TestSingularFailsLoudly 孤立母线导致矩阵奇异，两种模式都必须报错
func TestSingularFailsLoudly(t *testing.T) {
	a := NewAdmittance(3)
	a.StampImpedance(0, 1, complex(0, 0.1))
	a.StampShunt(0, complex(1, 0))
	for _, mode := range []string{ModeLU, ModeGonum} {
		s, err := New(mode, 1)
		require.NoError(t, err)
		assert.Error(t, s.Factor(a), mode)
		assert.ErrorIs(t, s.Solve(make([]complex128, 3), make([]complex128, 3)), ErrNotFactored, mode)
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	_, err := New("sparse", 1)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
	_, err = New(ModeLU, 0)
	assert.ErrorIs(t, err, errs.ErrConfiguration)
}

func TestSolveDimensionMismatch(t *testing.T) {
	a := Build(cases.System6(), system6Topology())
	s, err := New(ModeGonum, 1)
	require.NoError(t, err)
	require.NoError(t, s.Factor(a))
	assert.Error(t, s.Solve(make([]complex128, 3), make([]complex128, a.Size())))
}

// TestBuildTopology 故障、负荷模型与发电机导纳对矩阵对角元的影响
func TestBuildTopology(t *testing.T) {
	c := cases.System6()
	base := Build(c, system6Topology())

	top := system6Topology()
	top.FaultBus, top.FaultResistance = 6, 0.01
	faulted := Build(c, top)
	assert.InDelta(t, 100, real(faulted.Get(6, 6)-base.Get(6, 6)), 1e-9)

	top = system6Topology()
	top.LoadModel = cases.ConstantPower
	noLoads := Build(c, top)
	diff := base.Get(6, 6) - noLoads.Get(6, 6)
	assert.InDelta(t, c.Loads[0].P, real(diff), 1e-12)
	assert.InDelta(t, -c.Loads[0].Q, imag(diff), 1e-12)

	top = system6Topology()
	top.LoadScale = 1.5
	heavy := Build(c, top)
	assert.InDelta(t, 0.5*c.Loads[1].P, real(heavy.Get(8, 8)-base.Get(8, 8)), 1e-9)

	top = system6Topology()
	top.GenShunt = []bool{false, true, true, true}
	tripped := Build(c, top)
	diff = base.Get(0, 0) - tripped.Get(0, 0)
	assert.InDelta(t, -1/c.Generators[0].Xd, imag(diff), 1e-9)
	assert.Equal(t, base.Get(1, 1), tripped.Get(1, 1))
}
