package domain

// View 区域在全局向量中的局部视图
type View struct {
	*Domain
	X    []float64 // 当前值
	Prev []float64 // 上一时间步的值
	R    []float64 // 残差
}

// Value 当前值
func (v *View) Value(n, j int) float64 { return v.X[j*v.nc+n] }

// PrevValue 上一时间步的值
func (v *View) PrevValue(n, j int) float64 { return v.Prev[j*v.nc+n] }

// SetResidual 设置残差
func (v *View) SetResidual(n, j int, r float64) { v.R[j*v.nc+n] = r }

// Residual 读取残差
func (v *View) Residual(n, j int) float64 { return v.R[j*v.nc+n] }

// Last 最后一个点的序号
func (v *View) Last() int { return v.np - 1 }

// Eval 残差计算上下文
// 扩展区域只需写 [JMin,JMax] 内各点的残差；连接区域写自身残差，
// 并可覆盖相邻区域边界点的残差
type Eval struct {
	View
	Left  *View // 左侧相邻区域，可为 nil
	Right *View // 右侧相邻区域，可为 nil
	JMin  int
	JMax  int
	Rdt   float64 // 伪时间导数权重，0 表示稳态
}
