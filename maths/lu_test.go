package maths

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func denseOf(rows [][]complex128) Matrix[complex128] {
	m := NewDenseMatrix[complex128](len(rows), len(rows))
	for i, row := range rows {
		for j, v := range row {
			m.Set(i, j, v)
		}
	}
	return m
}

// chain 链式网络导纳矩阵：n 条母线，相邻母线间支路导纳 y，首母线对地 shunt
func chain(n int, y, shunt complex128) Matrix[complex128] {
	m := NewDenseMatrix[complex128](n, n)
	for i := 0; i+1 < n; i++ {
		m.Increment(i, i, y)
		m.Increment(i+1, i+1, y)
		m.Increment(i, i+1, -y)
		m.Increment(i+1, i, -y)
	}
	m.Increment(0, 0, shunt)
	return m
}

func TestLUSolve(t *testing.T) {
	tests := []struct {
		name string
		a    Matrix[complex128]
		b    []complex128
		want []complex128
	}{
		{
			name: "real 3x3",
			a:    denseOf([][]complex128{{2, 3, 1}, {1, 2, 3}, {3, 1, 2}}),
			b:    []complex128{9, 6, 8},
			want: []complex128{35.0 / 18, 29.0 / 18, 5.0 / 18},
		},
		{
			name: "complex 2x2",
			a:    denseOf([][]complex128{{1 + 2i, 2 + 3i}, {3 + 4i, 4 + 5i}}),
			b:    []complex128{(1+2i)*(1+1i) + (2+3i)*(2-1i), (3+4i)*(1+1i) + (4+5i)*(2-1i)},
			want: []complex128{1 + 1i, 2 - 1i},
		},
		{
			name: "zero pivot needs row swap",
			a:    denseOf([][]complex128{{0, 1i}, {2, 1}}),
			b:    []complex128{1i, 3},
			want: []complex128{1, 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.b)
			lu, err := NewLU[complex128](n)
			require.NoError(t, err)
			require.NoError(t, lu.Decompose(tt.a))
			x := NewDenseVector[complex128](n)
			require.NoError(t, lu.SolveReuse(NewDenseVectorWithData(tt.b), x))
			for i, w := range tt.want {
				assert.InDelta(t, 0, Abs(x.Get(i)-w), 1e-12, "x[%d] = %v", i, x.Get(i))
			}
		})
	}
}

// TestLUAdmittanceResidual 链式导纳矩阵求解后 Y*V 与注入电流一致
func TestLUAdmittanceResidual(t *testing.T) {
	a := chain(6, complex(1, -10), complex(0, -5))
	b := NewDenseVectorWithData([]complex128{1 - 0.5i, 0, 0.2i, 0, -0.3, -0.8 + 0.1i})
	lu, err := NewLU[complex128](6)
	require.NoError(t, err)
	require.NoError(t, lu.Decompose(a))
	x := NewDenseVector[complex128](6)
	require.NoError(t, lu.SolveReuse(b, x))

	ax := a.MatrixVectorMultiply(x)
	for i := 0; i < 6; i++ {
		assert.Less(t, Abs(ax.Get(i)-b.Get(i)), 1e-12, "row %d", i)
		assert.True(t, IsFinite(x.Get(i)))
	}
}

// TestLURefactor 同一个分解器在拓扑变化后重新分解，结果只取决于最新矩阵
func TestLURefactor(t *testing.T) {
	lu, err := NewLU[complex128](4)
	require.NoError(t, err)
	b := NewDenseVectorWithData([]complex128{1, 0, 0, -1})

	before := chain(4, complex(0, -10), complex(0, -5))
	after := chain(4, complex(0, -10), complex(0, -5))
	after.Increment(2, 2, 100)

	x1 := NewDenseVector[complex128](4)
	require.NoError(t, lu.Decompose(before))
	require.NoError(t, lu.SolveReuse(b, x1))
	require.NoError(t, lu.Decompose(after))
	require.NoError(t, lu.Decompose(before))
	x2 := NewDenseVector[complex128](4)
	require.NoError(t, lu.SolveReuse(b, x2))
	assert.Equal(t, x1.Data(), x2.Data())
}

func TestLUErrors(t *testing.T) {
	_, err := NewLU[complex128](0)
	assert.Error(t, err)

	lu, err := NewLU[complex128](3)
	require.NoError(t, err)
	assert.Error(t, lu.Decompose(denseOf([][]complex128{{1, 2, 3}, {4, 5, 6}, {0, 0, 0}})), "singular")
	assert.Error(t, lu.Decompose(NewDenseMatrix[complex128](2, 2)), "dimension")
	assert.Error(t, lu.SolveReuse(NewDenseVector[complex128](3), NewDenseVector[complex128](2)))
}

func BenchmarkLUSolve(b *testing.B) {
	a := chain(64, complex(1, -10), complex(0, -5))
	lu, err := NewLU[complex128](64)
	if err != nil {
		b.Fatal(err)
	}
	if err := lu.Decompose(a); err != nil {
		b.Fatal(err)
	}
	rhs := NewDenseVector[complex128](64)
	rhs.Set(0, 1)
	x := NewDenseVector[complex128](64)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = lu.SolveReuse(rhs, x)
	}
}
