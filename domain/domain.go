package domain

import (
	"math"

	"onedim/maths"
	"onedim/refine"
	"onedim/types"
)

// Domain 子区域：一段连续的未知量块、局部网格和物理模型
// 全局向量中的布局为点优先：offset + j*nComponents + n
type Domain struct {
	Index   int     // 在栈中的序号
	Name    string  // 区域名称
	Physics Physics // 物理模型

	Criteria  refine.Criteria // 网格细化判据
	GridMin   float64         // 最小网格间距
	MaxPoints int             // 最大网格点数

	kind        types.Kind
	names       []string
	nc, np      int
	grid        []float64
	x           []float64 // 全局向量中属于本区域的切片
	offset      int       // 全局未知量起始序号
	pointOffset int       // 全局点起始序号
	lower       []float64
	upper       []float64
	active      []bool       // 是否参与网格细化
	rtol, atol  [2][]float64 // [稳态, 瞬态]
}

// New 创建区域，连接区域忽略网格参数并固定为单点
func New(name string, p Physics, grid []float64) (*Domain, error) {
	const op = "new domain"
	if name == "" {
		return nil, types.Errorf(op, types.ErrInvalidArgument, "empty domain name")
	}
	if p == nil {
		return nil, types.DomainErrorf(op, name, types.ErrInvalidArgument, "nil physics")
	}
	d := &Domain{
		Name:      name,
		Physics:   p,
		Criteria:  refine.DefaultCriteria(),
		GridMin:   types.DefaultGridMin,
		MaxPoints: types.DefaultMaxGridPoints,
		kind:      p.Kind(),
		names:     append([]string(nil), p.Components()...),
	}
	d.nc = len(d.names)
	switch d.kind {
	case types.Connector:
		d.grid = []float64{0}
		if len(grid) == 1 {
			d.grid[0] = grid[0]
		}
	case types.Extended:
		if d.nc == 0 {
			return nil, types.DomainErrorf(op, name, types.ErrInvalidArgument, "extended domain without components")
		}
		if err := checkGrid(grid); err != nil {
			return nil, types.DomainErrorf(op, name, types.ErrInvalidArgument, "%v", err)
		}
		d.grid = append([]float64(nil), grid...)
	default:
		return nil, types.DomainErrorf(op, name, types.ErrInvalidArgument, "unknown kind %d", d.kind)
	}
	seen := make(map[string]bool, d.nc)
	for _, c := range d.names {
		if seen[c] {
			return nil, types.DomainErrorf(op, name, types.ErrInvalidArgument, "duplicate component %q", c)
		}
		seen[c] = true
	}
	d.np = len(d.grid)
	d.x = make([]float64, d.Size())
	d.lower = make([]float64, d.nc)
	d.upper = make([]float64, d.nc)
	d.active = make([]bool, d.nc)
	for i := range 2 {
		d.rtol[i] = make([]float64, d.nc)
		d.atol[i] = make([]float64, d.nc)
	}
	b, _ := p.(Bounder)
	for n := range d.nc {
		d.lower[n], d.upper[n] = math.Inf(-1), math.Inf(1)
		if b != nil {
			d.lower[n], d.upper[n] = b.Bounds(n)
		}
		d.active[n] = true
		d.rtol[0][n], d.atol[0][n] = types.DefaultSteadyRtol, types.DefaultSteadyAtol
		d.rtol[1][n], d.atol[1][n] = types.DefaultTransientRtol, types.DefaultTransientAtol
	}
	p.Init(d)
	return d, nil
}

func checkGrid(z []float64) error {
	if len(z) < 2 {
		return errTooFewPoints
	}
	if !maths.IsFinite(z) || !maths.StrictlyIncreasing(z) {
		return maths.ErrNotIncreasing
	}
	return nil
}

func (d *Domain) Kind() types.Kind     { return d.kind }
func (d *Domain) Type() string         { return d.Physics.Type() }
func (d *Domain) NComponents() int     { return d.nc }
func (d *Domain) NPoints() int         { return d.np }
func (d *Domain) Size() int            { return d.nc * d.np }
func (d *Domain) Offset() int          { return d.offset }
func (d *Domain) PointOffset() int     { return d.pointOffset }
func (d *Domain) Data() []float64      { return d.x }
func (d *Domain) Components() []string { return append([]string(nil), d.names...) }

// ComponentIndex 分量名称查找序号
func (d *Domain) ComponentIndex(name string) (int, error) {
	for i, c := range d.names {
		if c == name {
			return i, nil
		}
	}
	return -1, types.DomainErrorf("component index", d.Name, types.ErrNameNotFound, "no component %q", name)
}

// HasComponent 是否含有指定分量
func (d *Domain) HasComponent(name string) bool {
	_, err := d.ComponentIndex(name)
	return err == nil
}

// Grid 网格坐标副本
func (d *Domain) Grid() []float64 { return append([]float64(nil), d.grid...) }

// Z 第 j 个网格点坐标
func (d *Domain) Z(j int) float64 { return d.grid[j] }

// Check 检查分量和点序号
func (d *Domain) Check(n, j int) error {
	if n < 0 || n >= d.nc {
		return types.DomainErrorf("check", d.Name, types.ErrInvalidArgument, "component %d out of range [0,%d)", n, d.nc)
	}
	if j < 0 || j >= d.np {
		return types.DomainErrorf("check", d.Name, types.ErrInvalidArgument, "point %d out of range [0,%d)", j, d.np)
	}
	return nil
}

// Value 读取分量 n 在点 j 的值
func (d *Domain) Value(n, j int) float64 { return d.x[j*d.nc+n] }

// SetValue 设置分量 n 在点 j 的值
func (d *Domain) SetValue(n, j int, v float64) { d.x[j*d.nc+n] = v }

// SetFlatProfile 把分量 n 在所有点设为 v
func (d *Domain) SetFlatProfile(n int, v float64) {
	for j := range d.np {
		d.x[j*d.nc+n] = v
	}
}

// Component 分量 n 在各点的值
func (d *Domain) Component(n int) []float64 {
	out := make([]float64, d.np)
	for j := range out {
		out[j] = d.x[j*d.nc+n]
	}
	return out
}

// SetComponent 写入分量 n 在各点的值
func (d *Domain) SetComponent(n int, v []float64) {
	for j := range d.np {
		d.x[j*d.nc+n] = v[j]
	}
}

// Matrix 全部分量，按 [分量][点] 排列
func (d *Domain) Matrix() [][]float64 {
	out := make([][]float64, d.nc)
	for n := range out {
		out[n] = d.Component(n)
	}
	return out
}

// Bind 绑定到全局向量的切片，长度必须等于 Size
func (d *Domain) Bind(x []float64, offset, pointOffset int) {
	if len(x) != d.Size() {
		panic("domain bind: slice length mismatch")
	}
	d.x, d.offset, d.pointOffset = x, offset, pointOffset
}

// Resize 替换网格并写入新值（[分量][点]），之后需重新绑定全局向量
func (d *Domain) Resize(z []float64, values [][]float64) error {
	if err := d.CheckResize(z, values); err != nil {
		return err
	}
	d.grid = append(d.grid[:0:0], z...)
	d.np = len(z)
	d.x = make([]float64, d.Size())
	for n, v := range values {
		d.SetComponent(n, v)
	}
	return nil
}

// CheckResize 检查 Resize 的参数，不修改区域
func (d *Domain) CheckResize(z []float64, values [][]float64) error {
	if d.kind != types.Extended {
		return types.DomainErrorf("resize", d.Name, types.ErrInvalidArgument, "connector grid is fixed")
	}
	if err := checkGrid(z); err != nil {
		return types.DomainErrorf("resize", d.Name, types.ErrInvalidArgument, "%v", err)
	}
	if len(values) != d.nc {
		return types.DomainErrorf("resize", d.Name, types.ErrShapeMismatch, "%d components, want %d", len(values), d.nc)
	}
	for _, v := range values {
		if len(v) != len(z) {
			return types.DomainErrorf("resize", d.Name, types.ErrShapeMismatch, "%d values for %d points", len(v), len(z))
		}
	}
	return nil
}

// Bounds 分量上下界
func (d *Domain) Bounds(n int) (lower, upper float64) { return d.lower[n], d.upper[n] }

// Tolerances 分量容差
func (d *Domain) Tolerances(n int, transient bool) (rtol, atol float64) {
	i := 0
	if transient {
		i = 1
	}
	return d.rtol[i][n], d.atol[i][n]
}

// SetTolerances 设置全部分量的稳态或瞬态容差
func (d *Domain) SetTolerances(rtol, atol float64, transient bool) error {
	if !(rtol > 0) || !(atol > 0) {
		return types.DomainErrorf("set tolerances", d.Name, types.ErrInvalidArgument, "rtol=%g atol=%g must be positive", rtol, atol)
	}
	i := 0
	if transient {
		i = 1
	}
	for n := range d.nc {
		d.rtol[i][n], d.atol[i][n] = rtol, atol
	}
	return nil
}

// RefineActive 分量是否参与网格细化
func (d *Domain) RefineActive(n int) bool { return d.active[n] }

// SetRefineActive 设置分量是否参与网格细化
func (d *Domain) SetRefineActive(n int, on bool) { d.active[n] = on }

// PinnedPoint 定点约束所在的分量与点
func (d *Domain) PinnedPoint() (n, j int, value float64, ok bool) {
	p, is := d.Physics.(Pinner)
	if !is {
		return 0, 0, 0, false
	}
	n, z, value, ok := p.Pinned()
	if !ok {
		return 0, 0, 0, false
	}
	j, best := 0, math.Inf(1)
	for i, zi := range d.grid {
		if dz := math.Abs(zi - z); dz < best {
			j, best = i, dz
		}
	}
	return n, j, value, true
}

// IsAlgebraic 未知量是否为代数约束（端点或代数分量），定点另由 PinnedPoint 判断
func (d *Domain) IsAlgebraic(n, j int) bool {
	if d.kind == types.Connector || j == 0 || j == d.np-1 {
		return true
	}
	a, ok := d.Physics.(Algebraic)
	return ok && a.Algebraic(n)
}

// Link 检查相邻区域
func (d *Domain) Link(left, right *Domain) error {
	if l, ok := d.Physics.(Linker); ok {
		if err := l.Link(d, left, right); err != nil {
			return types.DomainErrorf("link", d.Name, types.ErrInvalidArgument, "%v", err)
		}
	}
	return nil
}
