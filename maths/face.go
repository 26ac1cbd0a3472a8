package maths

// UpdateVector 可更新向量（支持备份与回溯）
type UpdateVector interface {
	Len() int        // 向量长度
	Data() []float64 // 底层切片（直接读写）
	Update()         // 当前值写入备份
	Rollback()       // 丢弃修改，恢复备份
	Resize(n int)    // 调整长度（清空备份）
}

// Solver 线性方程组求解接口
type Solver interface {
	Decompose() error                // 分解当前矩阵
	SolveReuse(b, x []float64) error // 复用分解结果求解 Ax=b
	Set(row, col int, value float64) // 设置矩阵元素
	Get(row, col int) float64        // 获取矩阵元素
	Zero()                           // 矩阵清零
	Resize(n int)                    // 重置维度（分解结果失效）
}
