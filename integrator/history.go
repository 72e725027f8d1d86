// Package integrator 实现预测-校正时间步进。
//
// 每一步按固定顺序执行：事件 → 预测 → 发电机电流 → IBR 电流 → 负荷电流 →
// 网络求解 → 母线测量 → 校正 → 历史轮转。后一阶段依赖前一阶段在同一步内的结果，
// 顺序不可调整。
package integrator

// 二次外推系数 x̂ = 3x(t) - 3x(t-1) + x(t-2)
const (
	predCoeff0 = 3.0
	predCoeff1 = -3.0
	predCoeff2 = 1.0
)

// History 三槽环形缓冲：Slots 为固定数组，Head 指向最新一槽。
// Push 原地覆盖最旧的一槽，不做逐步内存分配。
type History struct {
	Slots [3][]float64
	Head  int
}

// NewHistory 分配长度为 n 的三槽缓冲
func NewHistory(n int) History {
	var h History
	for i := range h.Slots {
		h.Slots[i] = make([]float64, n)
	}
	return h
}

// Len 单槽向量长度
func (h *History) Len() int { return len(h.Slots[0]) }

// Fill 三槽全部置为 x（初始化稳态时使用）
func (h *History) Fill(x []float64) {
	for i := range h.Slots {
		copy(h.Slots[i], x)
	}
	h.Head = 0
}

// At 返回滞后 lag 步的槽，lag 取 0、1、2，0 为最新
func (h *History) At(lag int) []float64 {
	return h.Slots[((h.Head-lag)%3+3)%3]
}

// Push 用 x 覆盖最旧一槽并将其设为最新
func (h *History) Push(x []float64) {
	h.Head = (h.Head + 1) % 3
	copy(h.Slots[h.Head], x)
}

// Predict 二次外推预测下一步状态，写入 dst
func (h *History) Predict(dst []float64) {
	x0, x1, x2 := h.At(0), h.At(1), h.At(2)
	for i := range dst {
		dst[i] = predCoeff0*x0[i] + predCoeff1*x1[i] + predCoeff2*x2[i]
	}
}

// StateBuffer 各类设备状态的预测历史
type StateBuffer struct {
	Gen  History
	IBR  History
	Load History
}

// NewStateBuffer 按各类状态长度分配
func NewStateBuffer(gen, ibr, load int) StateBuffer {
	return StateBuffer{Gen: NewHistory(gen), IBR: NewHistory(ibr), Load: NewHistory(load)}
}

// Push 三类历史同时轮转
func (b *StateBuffer) Push(gen, ibr, load []float64) {
	b.Gen.Push(gen)
	b.IBR.Push(ibr)
	b.Load.Push(load)
}
