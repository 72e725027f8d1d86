package maths

import (
	"math"
	"math/cmplx"
)

// Epsilon 浮点精度阈值，主元绝对值低于该值视为奇异
const Epsilon = 1e-16

// Number 是一个约束，允许任何浮点或复数类型
type Number interface {
	~float32 | ~float64 | ~complex64 | ~complex128
}

// Abs 是一个泛型函数，返回任何支持的 Number 类型的绝对值（复数取模）。
func Abs[T Number](v T) float64 {
	switch x := any(v).(type) {
	case float32:
		return math.Abs(float64(x))
	case float64:
		return math.Abs(x)
	case complex64:
		return cmplx.Abs(complex128(x))
	case complex128:
		return cmplx.Abs(x)
	}
	return 0
}

// IsFinite 判断数值是否为有限值（复数要求实部虚部均有限）
func IsFinite[T Number](v T) bool {
	switch x := any(v).(type) {
	case float32:
		return !math.IsNaN(float64(x)) && !math.IsInf(float64(x), 0)
	case float64:
		return !math.IsNaN(x) && !math.IsInf(x, 0)
	case complex64:
		return !cmplx.IsNaN(complex128(x)) && !cmplx.IsInf(complex128(x))
	case complex128:
		return !cmplx.IsNaN(x) && !cmplx.IsInf(x)
	}
	return false
}

// Vector 向量接口定义
type Vector[T Number] interface {
	Length() int                  // 获取向量长度
	String() string               // 格式化字符串输出
	Get(index int) T              // 获取指定索引元素值
	Set(index int, value T)       // 设置指定索引元素值
	Increment(index int, value T) // 增量更新元素（value累加）
	Zero()                        // 清空向量为零向量
	Data() []T                    // 底层切片引用（直接操作底层数据）
}

// Matrix 矩阵接口定义
type Matrix[T Number] interface {
	Rows() int                                  // 获取矩阵行数
	Cols() int                                  // 获取矩阵列数
	String() string                             // 格式化字符串输出
	IsSquare() bool                             // 判断是否为方阵（行数=列数）
	Get(row, col int) T                         // 获取指定行列元素值
	Set(row, col int, value T)                  // 设置指定行列元素值
	Increment(row, col int, value T)            // 增量更新元素
	Zero()                                      // 清空矩阵为零矩阵
	Copy(a Matrix[T])                           // 复制自身数据到目标矩阵a
	SwapRows(row1, row2 int)                    // 交换两行
	MatrixVectorMultiply(x Vector[T]) Vector[T] // 矩阵向量乘法（返回A*x）
}

// LU 接口定义了 LU 分解和求解线性方程组的操作。
type LU[T Number] interface {
	Decompose(matrix Matrix[T]) error // 对输入方阵执行LU分解（PA=LU）
	SolveReuse(b, x Vector[T]) error  // 重用向量求解Ax=b（利用LU分解结果）
}
