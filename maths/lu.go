package maths

import (
	"errors"
)

// NewLU 创建稠密矩阵LU分解器（输入矩阵维度n）
// 参数:
//
//	n - 矩阵维度（必须为正整数）
//
// 返回:
//
//	LU接口实例，错误信息
func NewLU[T Number](n int) (LU[T], error) {
	if n < 1 {
		return nil, errors.New("lu dimension must be positive")
	}
	return &luDense[T]{
		n:        n,
		L:        NewDenseMatrix[T](n, n),
		U:        NewDenseMatrix[T](n, n),
		Y:        NewDenseVector[T](n),
		P:        make([]int, n),
		pinverse: make([]int, n),
	}, nil
}

// luDense 稠密矩阵LU分解实现（PA=LU，带部分主元）
//
//	P - 置换矩阵（用向量表示）
//	L - 单位下三角矩阵（对角线为1）
//	U - 上三角矩阵
type luDense[T Number] struct {
	n        int       // 矩阵维度（方阵n×n）
	L        Matrix[T] // 下三角矩阵L（严格下三角存储消元因子）
	U        Matrix[T] // 上三角矩阵U
	Y        Vector[T] // 中间变量：存储前向替换结果Ly=Pb
	P        []int     // 置换向量：P[i] = 分解后第i行对应的原始矩阵行索引
	pinverse []int     // 逆置换向量：pinverse[i] = 原始第i行对应的分解后行索引
}

// init 清零L和U，拷贝A到U，初始化置换向量和L的对角线
func (lu *luDense[T]) init(matrix Matrix[T]) {
	lu.L.Zero()
	lu.U.Zero()
	matrix.Copy(lu.U)
	var one T = 1
	for i := 0; i < lu.n; i++ {
		lu.P[i] = i
		lu.pinverse[i] = i
		lu.L.Set(i, i, one)
	}
}

// updatePermutation 交换置换向量并同步更新逆置换
func (lu *luDense[T]) updatePermutation(k, maxRow int) {
	lu.P[k], lu.P[maxRow] = lu.P[maxRow], lu.P[k]
	lu.pinverse[lu.P[k]] = k
	lu.pinverse[lu.P[maxRow]] = maxRow
}

// Decompose 执行稠密矩阵LU分解（高斯消元+部分主元）
//
// 对每一列k:
//  1. 在U的第k列[k, n-1]行中选绝对值最大的主元
//  2. 交换U的行和L已填充的前k列，更新置换向量
//  3. 计算消元因子存入L，更新U
func (lu *luDense[T]) Decompose(matrix Matrix[T]) error {
	if !matrix.IsSquare() {
		return errors.New("lu dense decompose: input must be square matrix")
	}
	if matrix.Rows() != lu.n {
		return errors.New("lu dense decompose: matrix dimension mismatch")
	}
	lu.init(matrix)
	var zero T
	for k := 0; k < lu.n; k++ {
		// 部分主元选择
		maxRow := k
		maxAbsVal := Abs(lu.U.Get(k, k))
		for i := k + 1; i < lu.n; i++ {
			if v := Abs(lu.U.Get(i, k)); v > maxAbsVal {
				maxAbsVal = v
				maxRow = i
			}
		}
		if maxAbsVal < Epsilon {
			return errors.New("lu dense decompose: matrix is singular or nearly singular")
		}
		// 行交换
		if maxRow != k {
			lu.U.SwapRows(k, maxRow)
			for j := 0; j < k; j++ {
				val1 := lu.L.Get(k, j)
				lu.L.Set(k, j, lu.L.Get(maxRow, j))
				lu.L.Set(maxRow, j, val1)
			}
			lu.updatePermutation(k, maxRow)
		}
		// 高斯消元
		pivotVal := lu.U.Get(k, k)
		for i := k + 1; i < lu.n; i++ {
			valIK := lu.U.Get(i, k)
			if valIK == zero {
				continue
			}
			factor := valIK / pivotVal
			lu.L.Set(i, k, factor)
			lu.U.Set(i, k, zero)
			for j := k + 1; j < lu.n; j++ {
				lu.U.Increment(i, j, -factor*lu.U.Get(k, j))
			}
		}
	}
	return nil
}

// SolveReuse 利用分解结果求解Ax=b（重用预分配向量，无额外内存分配）
//
//  1. 前向替换：求解Ly = Pb
//  2. 后向替换：求解Ux = y
//
// 解x已经是原始顺序，无需额外重新排序
func (lu *luDense[T]) SolveReuse(b, x Vector[T]) error {
	if b.Length() != lu.n || x.Length() != lu.n {
		return errors.New("lu dense solve: vector dimension mismatch")
	}
	lu.Y.Zero()
	for i := 0; i < lu.n; i++ {
		sum := b.Get(lu.P[i])
		for j := 0; j < i; j++ {
			sum -= lu.L.Get(i, j) * lu.Y.Get(j)
		}
		lu.Y.Set(i, sum)
	}
	x.Zero()
	for i := lu.n - 1; i >= 0; i-- {
		sum := lu.Y.Get(i)
		for j := i + 1; j < lu.n; j++ {
			sum -= lu.U.Get(i, j) * x.Get(j)
		}
		diagVal := lu.U.Get(i, i)
		if Abs(diagVal) < Epsilon {
			return errors.New("lu dense solve: division by zero (U diagonal is zero)")
		}
		x.Set(i, sum/diagVal)
	}
	return nil
}
