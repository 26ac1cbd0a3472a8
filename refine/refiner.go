package refine

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"

	"onedim/maths"
	"onedim/types"
)

// Refiner 单个区域的网格细化器
type Refiner struct {
	Criteria
	GridMin   float64 // 最小网格间距，更短的区间不再插点
	MaxPoints int     // 最大网格点数，<=0 不限制
}

// New 创建细化器
func New(c Criteria, gridMin float64, maxPoints int) (*Refiner, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if !(gridMin >= 0) {
		return nil, types.Errorf("new refiner", types.ErrInvalidArgument, "grid min %g", gridMin)
	}
	return &Refiner{Criteria: c, GridMin: gridMin, MaxPoints: maxPoints}, nil
}

// Plan 细化分析结果
type Plan struct {
	Grid   []float64 // 原网格
	Insert []int     // 需要在区间 [j, j+1] 中点插点的 j
	Delete []int     // 需要删除的点
	Capped bool      // 插点数因点数上限被截断
}

// Changed 网格是否有变化
func (p *Plan) Changed() bool { return len(p.Insert) > 0 || len(p.Delete) > 0 }

// NewGrid 根据分析结果生成新网格
func (p *Plan) NewGrid() []float64 {
	del := make(map[int]bool, len(p.Delete))
	for _, j := range p.Delete {
		del[j] = true
	}
	ins := make(map[int]bool, len(p.Insert))
	for _, j := range p.Insert {
		ins[j] = true
	}
	z := p.Grid
	out := make([]float64, 0, len(z)+len(p.Insert)-len(p.Delete))
	for j := range z {
		if !del[j] {
			out = append(out, z[j])
		}
		if ins[j] {
			out = append(out, 0.5*(z[j]+z[j+1]))
		}
	}
	return out
}

// Regrid 把 [分量][点] 的值插值到新网格上
func (p *Plan) Regrid(values [][]float64) ([]float64, [][]float64, error) {
	z := p.NewGrid()
	out := make([][]float64, len(values))
	for n, v := range values {
		nv, err := maths.Regrid(p.Grid, v, z)
		if err != nil {
			return nil, nil, err
		}
		out[n] = nv
	}
	return z, out, nil
}

// Analyze 分析网格 z 上的值 [分量][点]
// active 为 nil 时全部分量参与；protect 中的点不会被删除
func (r *Refiner) Analyze(z []float64, values [][]float64, active []bool, protect []int) (*Plan, error) {
	const op = "refine analyze"
	n := len(z)
	if n < 2 {
		return nil, types.Errorf(op, types.ErrInvalidArgument, "%d grid points", n)
	}
	if !maths.StrictlyIncreasing(z) {
		return nil, types.Errorf(op, types.ErrInvalidArgument, "%v", maths.ErrNotIncreasing)
	}
	for _, v := range values {
		if len(v) != n {
			return nil, types.Errorf(op, types.ErrShapeMismatch, "%d values for %d points", len(v), n)
		}
	}

	loc := make([]bool, n-1) // 区间插点标记
	keep := make([]int, n)   // 1 保留，-1 删除，0 未定
	keep[0], keep[n-1] = 1, 1

	dz := make([]float64, n-1)
	floats.SubTo(dz, z[1:], z[:n-1])
	s := make([]float64, n-1)
	for c, v := range values {
		if active != nil && !active[c] {
			continue
		}
		vmin, vmax := floats.Min(v), floats.Max(v)
		span := vmax - vmin
		if span <= r.MinRange*math.Max(math.Abs(vmin), math.Abs(vmax)) {
			continue
		}
		// 值变化
		dmax := r.Slope*span + r.Threshold
		for j := 0; j < n-1; j++ {
			d := math.Abs(v[j+1] - v[j])
			if d > dmax {
				loc[j] = true
			}
			if d >= r.Prune*dmax {
				keep[j], keep[j+1] = 1, 1
			} else if keep[j] == 0 {
				keep[j] = -1
			}
		}
		// 斜率变化
		floats.SubTo(s, v[1:], v[:n-1])
		floats.Div(s, dz)
		if n < 3 {
			continue
		}
		dmax = r.Curve*(floats.Max(s)-floats.Min(s)) + r.Threshold
		for j := 0; j < n-2; j++ {
			d := math.Abs(s[j+1] - s[j])
			if d > dmax {
				loc[j], loc[j+1] = true, true
			}
			if d >= r.Prune*dmax {
				keep[j+1] = 1
			} else if keep[j+1] == 0 {
				keep[j+1] = -1
			}
		}
	}

	// 相邻间距比
	for j := 1; j < n-1; j++ {
		if dz[j] > r.Ratio*dz[j-1] {
			loc[j] = true
		}
		if dz[j] < dz[j-1]/r.Ratio {
			loc[j-1] = true
		}
	}

	// 过短区间不插点
	for j := range loc {
		if loc[j] && dz[j] < 2*r.GridMin {
			loc[j] = false
		}
	}

	// 相邻区间插点的点不删除
	for j := 1; j < n-1; j++ {
		if keep[j] == -1 && (loc[j] || loc[j-1]) {
			keep[j] = 1
		}
	}
	for _, j := range protect {
		if j >= 0 && j < n {
			keep[j] = 1
		}
	}
	// 一次只删除相邻点中的一个
	for j := 1; j < n-1; j++ {
		if keep[j] == -1 && keep[j-1] == -1 {
			keep[j] = 1
		}
	}

	p := &Plan{Grid: append([]float64(nil), z...)}
	for j, on := range loc {
		if on {
			p.Insert = append(p.Insert, j)
		}
	}
	for j, k := range keep {
		if k == -1 {
			p.Delete = append(p.Delete, j)
		}
	}
	if r.MaxPoints > 0 {
		room := r.MaxPoints - n + len(p.Delete)
		if room < 0 {
			room = 0
		}
		if len(p.Insert) > room {
			// 优先细分最长的区间
			sort.SliceStable(p.Insert, func(a, b int) bool { return dz[p.Insert[a]] > dz[p.Insert[b]] })
			p.Insert = p.Insert[:room]
			sort.Ints(p.Insert)
			p.Capped = true
		}
	}
	return p, nil
}
