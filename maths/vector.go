package maths

// updateVector 稠密可更新向量
// 频繁修改直接作用于当前值，Update 刷到备份，Rollback 从备份恢复
type updateVector struct {
	data []float64 // 当前值
	orig []float64 // 备份值
}

// NewUpdateVector 创建长度为 n 的可更新向量
func NewUpdateVector(n int) UpdateVector {
	return &updateVector{
		data: make([]float64, n),
		orig: make([]float64, n),
	}
}

func (v *updateVector) Len() int        { return len(v.data) }
func (v *updateVector) Data() []float64 { return v.data }

// Update 将当前值写入备份
func (v *updateVector) Update() { copy(v.orig, v.data) }

// Rollback 从备份恢复当前值
func (v *updateVector) Rollback() { copy(v.data, v.orig) }

// Resize 调整长度，新增部分为零，备份同步为当前值
func (v *updateVector) Resize(n int) {
	if n <= cap(v.data) {
		old := len(v.data)
		v.data = v.data[:n]
		for i := old; i < n; i++ {
			v.data[i] = 0
		}
	} else {
		data := make([]float64, n)
		copy(data, v.data)
		v.data = data
	}
	v.orig = make([]float64, n)
	copy(v.orig, v.data)
}
