package sim

import (
	"errors"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"onedim/domain"
	"onedim/maths"
	"onedim/metrics"
	"onedim/types"
)

var errNonFinite = errors.New("non-finite residual")

// Assembler 全局残差与雅可比装配
// 扩展区域先计算，随后叠加瞬态项，连接区域最后计算并覆盖相邻边界行
type Assembler struct {
	domains    []*domain.Domain
	size       int
	points     int
	pointStart []int // 全局点 p 的第一个未知量序号，长度 points+1
	parallel   bool
	stats      *Stats
	metrics    *metrics.Collector
}

// NewAssembler 创建装配器
func NewAssembler(domains []*domain.Domain, stats *Stats, m *metrics.Collector) *Assembler {
	a := &Assembler{domains: domains, stats: stats, metrics: m}
	a.layout()
	return a
}

// layout 根据各区域当前尺寸重建全局编号
func (a *Assembler) layout() {
	a.size, a.points = 0, 0
	a.pointStart = a.pointStart[:0]
	for _, d := range a.domains {
		for range d.NPoints() {
			a.pointStart = append(a.pointStart, a.size)
			a.size += d.NComponents()
			a.points++
		}
	}
	a.pointStart = append(a.pointStart, a.size)
}

// Size 全局未知量个数
func (a *Assembler) Size() int { return a.size }

// Points 全局点数（连接区域计一个点）
func (a *Assembler) Points() int { return a.points }

// Rows 全局点 [lo,hi] 对应的未知量范围
func (a *Assembler) Rows(lo, hi int) (int, int) {
	lo, hi = max(lo, 0), min(hi, a.points-1)
	return a.pointStart[lo], a.pointStart[hi+1]
}

func (a *Assembler) view(d *domain.Domain, x, prev, r []float64) *domain.View {
	lo, hi := d.Offset(), d.Offset()+d.Size()
	return &domain.View{Domain: d, X: x[lo:hi:hi], Prev: prev[lo:hi:hi], R: r[lo:hi:hi]}
}

// Eval 计算残差 r(x)，jg<0 计算全部点，否则只计算全局点 jg 附近的窗口
// count 为 true 时计入统计
func (a *Assembler) Eval(x, prev, r []float64, rdt float64, jg int, count bool) error {
	lo, hi := 0, a.points-1
	if jg >= 0 {
		lo, hi = max(jg-Stencil, 0), min(jg+Stencil, a.points-1)
	}
	views := make([]*domain.View, len(a.domains))
	for i, d := range a.domains {
		views[i] = a.view(d, x, prev, r)
	}

	// 扩展区域
	evalExtended := func(i int) error {
		d := a.domains[i]
		jmin, jmax := max(lo-d.PointOffset(), 0), min(hi-d.PointOffset(), d.NPoints()-1)
		if jmin > jmax {
			return nil
		}
		start := time.Now()
		e := &domain.Eval{View: *views[i], JMin: jmin, JMax: jmax, Rdt: rdt}
		d.Physics.Eval(e)
		if rdt != 0 {
			a.transient(views[i], jmin, jmax, rdt)
		}
		if count {
			a.charge(i, time.Since(start))
		}
		nc := d.NComponents()
		if !maths.IsFinite(views[i].R[jmin*nc : (jmax+1)*nc]) {
			return fmt.Errorf("domain %s: %w", d.Name, errNonFinite)
		}
		return nil
	}
	if a.parallel && jg < 0 {
		if count && a.stats != nil {
			a.stats.ParallelEvals++
		}
		var g errgroup.Group
		for i, d := range a.domains {
			if d.Kind() == types.Extended {
				g.Go(func() error { return evalExtended(i) })
			}
		}
		if err := g.Wait(); err != nil {
			return err
		}
	} else {
		for i, d := range a.domains {
			if d.Kind() == types.Extended {
				if err := evalExtended(i); err != nil {
					return err
				}
			}
		}
	}

	// 连接区域
	for i, d := range a.domains {
		if d.Kind() != types.Connector {
			continue
		}
		if p := d.PointOffset(); p < lo-1 || p > hi+1 {
			continue
		}
		start := time.Now()
		e := &domain.Eval{View: *views[i], Rdt: rdt}
		if i > 0 {
			e.Left = views[i-1]
		}
		if i+1 < len(views) {
			e.Right = views[i+1]
		}
		d.Physics.Eval(e)
		if count {
			a.charge(i, time.Since(start))
		}
		if !maths.IsFinite(views[i].R) {
			return fmt.Errorf("domain %s: %w", d.Name, errNonFinite)
		}
	}
	return nil
}

// transient 非代数未知量加 rdt*(x - x_prev)
func (a *Assembler) transient(v *domain.View, jmin, jmax int, rdt float64) {
	pn, pj, _, pinned := v.PinnedPoint()
	for j := jmin; j <= jmax; j++ {
		for n := range v.NComponents() {
			if v.IsAlgebraic(n, j) || (pinned && pn == n && pj == j) {
				continue
			}
			v.SetResidual(n, j, v.Residual(n, j)+rdt*(v.Value(n, j)-v.PrevValue(n, j)))
		}
	}
}

func (a *Assembler) charge(i int, d time.Duration) {
	if a.stats != nil {
		a.stats.Domains[i].Evals++
		a.stats.Domains[i].Time += d
	}
	a.metrics.ObserveEval(a.domains[i].Name, d)
}

// Jacobian 单侧有限差分逐列计算雅可比并分解，r0 为 x 处的残差
func (a *Assembler) Jacobian(lu maths.Solver, x, prev, r0 []float64, rdt, rel, abs float64) error {
	lu.Zero()
	rp := append([]float64(nil), r0...)
	for _, d := range a.domains {
		nc := d.NComponents()
		for j := range d.NPoints() {
			jg := d.PointOffset() + j
			r1, r2 := a.Rows(jg-Stencil, jg+Stencil)
			for n := range nc {
				i := d.Offset() + j*nc + n
				xi := x[i]
				x[i] = xi + rel*math.Abs(xi) + abs
				h := x[i] - xi
				err := a.Eval(x, prev, rp, rdt, jg, false)
				x[i] = xi
				if err != nil {
					return err
				}
				for row := r1; row < r2; row++ {
					if v := (rp[row] - r0[row]) / h; v != 0 {
						lu.Set(row, i, v)
					}
				}
			}
		}
	}
	return lu.Decompose()
}
