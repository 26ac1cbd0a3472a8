package domain

import "onedim/types"

// Physics 区域物理模型接口
type Physics interface {
	Type() string         // 类型名称，用于注册与持久化
	Kind() types.Kind     // 区域类型
	Components() []string // 分量名称
	Init(d *Domain)       // 写入默认初值
	Eval(e *Eval)         // 计算窗口内各点残差
}

// Bounder 分量上下界，牛顿阻尼保证解不越界
type Bounder interface {
	Bounds(n int) (lower, upper float64)
}

// Algebraic 代数分量（不加瞬态项）
type Algebraic interface {
	Algebraic(n int) bool
}

// Fluxer 边界通量，供界面连接区域做通量平衡
// right 为 true 时取右端点通量，否则取左端点
type Fluxer interface {
	Flux(v *View, n int, right bool) float64
}

// Pinner 定点约束（固定温度连续化）
type Pinner interface {
	Pin(n int, z, value float64) // 在位置 z 把分量 n 固定为 value
	Unpin()
	Pinned() (n int, z, value float64, ok bool)
}

// Linker 检查相邻区域，构建时调用，d 为自身所在区域
type Linker interface {
	Link(d, left, right *Domain) error
}
