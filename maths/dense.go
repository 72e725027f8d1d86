package maths

import (
	"fmt"
	"strings"
)

// denseVector 稠密向量实现
type denseVector[T Number] struct {
	data []T
}

// NewDenseVector 创建新的稠密向量
func NewDenseVector[T Number](length int) Vector[T] {
	return &denseVector[T]{data: make([]T, length)}
}

// NewDenseVectorWithData 从现有数据创建稠密向量（共享底层切片）
func NewDenseVectorWithData[T Number](data []T) Vector[T] {
	return &denseVector[T]{data: data}
}

func (v *denseVector[T]) Length() int                  { return len(v.data) }
func (v *denseVector[T]) Get(index int) T              { return v.data[index] }
func (v *denseVector[T]) Set(index int, value T)       { v.data[index] = value }
func (v *denseVector[T]) Increment(index int, value T) { v.data[index] += value }
func (v *denseVector[T]) Data() []T                    { return v.data }
func (v *denseVector[T]) String() string               { return fmt.Sprintf("%v", v.data) }
func (v *denseVector[T]) Zero()                        { clear(v.data) }

// denseMatrix 稠密矩阵实现（行优先，全量存储所有元素）
type denseMatrix[T Number] struct {
	rows, cols int
	data       []T
}

// NewDenseMatrix 创建指定维度的空稠密矩阵
func NewDenseMatrix[T Number](rows, cols int) Matrix[T] {
	if rows < 0 || cols < 0 {
		panic("invalid matrix dimensions: cannot be negative")
	}
	return &denseMatrix[T]{rows: rows, cols: cols, data: make([]T, rows*cols)}
}

func (m *denseMatrix[T]) Rows() int                       { return m.rows }
func (m *denseMatrix[T]) Cols() int                       { return m.cols }
func (m *denseMatrix[T]) IsSquare() bool                  { return m.rows == m.cols }
func (m *denseMatrix[T]) Get(row, col int) T              { return m.data[row*m.cols+col] }
func (m *denseMatrix[T]) Set(row, col int, value T)       { m.data[row*m.cols+col] = value }
func (m *denseMatrix[T]) Increment(row, col int, value T) { m.data[row*m.cols+col] += value }
func (m *denseMatrix[T]) Zero()                           { clear(m.data) }

// Copy 复制自身数据到目标矩阵
func (m *denseMatrix[T]) Copy(a Matrix[T]) {
	if a.Rows() != m.rows || a.Cols() != m.cols {
		panic(fmt.Sprintf("dimension mismatch: source %dx%d, target %dx%d", m.rows, m.cols, a.Rows(), a.Cols()))
	}
	if target, ok := a.(*denseMatrix[T]); ok {
		copy(target.data, m.data)
		return
	}
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			a.Set(i, j, m.Get(i, j))
		}
	}
}

// SwapRows 交换两行
func (m *denseMatrix[T]) SwapRows(row1, row2 int) {
	if row1 == row2 {
		return
	}
	r1 := m.data[row1*m.cols : (row1+1)*m.cols]
	r2 := m.data[row2*m.cols : (row2+1)*m.cols]
	for j := range r1 {
		r1[j], r2[j] = r2[j], r1[j]
	}
}

// MatrixVectorMultiply 矩阵向量乘法（A*x，返回新向量）
func (m *denseMatrix[T]) MatrixVectorMultiply(x Vector[T]) Vector[T] {
	if x.Length() != m.cols {
		panic(fmt.Sprintf("vector dimension mismatch: x length=%d, matrix cols=%d", x.Length(), m.cols))
	}
	result := NewDenseVector[T](m.rows)
	for i := 0; i < m.rows; i++ {
		var sum T
		for j := 0; j < m.cols; j++ {
			sum += m.Get(i, j) * x.Get(j)
		}
		result.Set(i, sum)
	}
	return result
}

// String 格式化输出矩阵
func (m *denseMatrix[T]) String() string {
	var sb strings.Builder
	for i := 0; i < m.rows; i++ {
		fmt.Fprintln(&sb, m.data[i*m.cols:(i+1)*m.cols])
	}
	return sb.String()
}
