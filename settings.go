package onedim

import (
	"math"

	"onedim/domain"
	"onedim/maths"
	"onedim/sim"
	"onedim/types"
)

// extended 区域序号小于 0 时选取全部扩展区域
func (s *Stack) extended(op string, dom int) ([]*domain.Domain, error) {
	if dom >= 0 {
		d, err := s.domain(op, dom)
		if err != nil {
			return nil, err
		}
		if d.Kind() != types.Extended {
			return nil, types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "not an extended domain")
		}
		return []*domain.Domain{d}, nil
	}
	var out []*domain.Domain
	for _, d := range s.Domains {
		if d.Kind() == types.Extended {
			out = append(out, d)
		}
	}
	return out, nil
}

// SetRefineCriteria 设置网格细化判据，dom < 0 时作用于全部扩展区域
func (s *Stack) SetRefineCriteria(dom int, ratio, slope, curve, prune float64) error {
	const op = "set refine criteria"
	ds, err := s.extended(op, dom)
	if err != nil {
		return err
	}
	for _, d := range ds {
		c := d.Criteria
		c.Ratio, c.Slope, c.Curve, c.Prune = ratio, slope, curve, prune
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, d := range ds {
		d.Criteria.Ratio, d.Criteria.Slope, d.Criteria.Curve, d.Criteria.Prune = ratio, slope, curve, prune
	}
	return nil
}

// SetRefineActive 分量是否参与网格细化，dom < 0 时作用于全部含该分量的扩展区域
func (s *Stack) SetRefineActive(dom int, component string, on bool) error {
	const op = "set refine active"
	ds, err := s.extended(op, dom)
	if err != nil {
		return err
	}
	found := false
	for _, d := range ds {
		n, err := d.ComponentIndex(component)
		if err != nil {
			if dom >= 0 {
				return err
			}
			continue
		}
		d.SetRefineActive(n, on)
		found = true
	}
	if !found {
		return types.Errorf(op, types.ErrNameNotFound, "no extended domain has component %q", component)
	}
	return nil
}

// SetGridMin 最小网格间距
func (s *Stack) SetGridMin(dom int, v float64) error {
	const op = "set grid min"
	if !(v > 0) || math.IsInf(v, 0) {
		return types.Errorf(op, types.ErrInvalidArgument, "grid min %g must be positive", v)
	}
	ds, err := s.extended(op, dom)
	if err != nil {
		return err
	}
	for _, d := range ds {
		d.GridMin = v
	}
	return nil
}

// SetMaxGridPoints 单区域最大网格点数
func (s *Stack) SetMaxGridPoints(dom, n int) error {
	const op = "set max grid points"
	ds, err := s.extended(op, dom)
	if err != nil {
		return err
	}
	for _, d := range ds {
		if n < d.NPoints() {
			return types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "max points %d below current %d", n, d.NPoints())
		}
	}
	for _, d := range ds {
		d.MaxPoints = n
	}
	return nil
}

// SetTolerances 全部分量的稳态或瞬态容差，dom < 0 时作用于全部区域
func (s *Stack) SetTolerances(dom int, rtol, atol float64, transient bool) error {
	ds := s.Domains
	if dom >= 0 {
		d, err := s.domain("set tolerances", dom)
		if err != nil {
			return err
		}
		ds = []*domain.Domain{d}
	}
	for _, d := range ds {
		if err := d.SetTolerances(rtol, atol, transient); err != nil {
			return err
		}
	}
	return nil
}

// options 在副本上修改求解器配置，检查通过后生效
func (s *Stack) options(mutate func(o *sim.Options)) error {
	o := s.session.Options
	o.Steps = append([]int(nil), o.Steps...)
	mutate(&o)
	return s.session.SetOptions(o)
}

// SetMaxJacAge 雅可比最大年龄，瞬态默认与稳态相同
func (s *Stack) SetMaxJacAge(ss int, ts ...int) error {
	t := ss
	if len(ts) > 0 {
		t = ts[0]
	}
	return s.options(func(o *sim.Options) { o.SteadyJacAge, o.TransientJacAge = ss, t })
}

// SetTimeStep 初始伪时间步长与每轮推进步数
func (s *Stack) SetTimeStep(dt float64, steps []int) error {
	return s.options(func(o *sim.Options) {
		o.TimeStep = dt
		o.Steps = append([]int(nil), steps...)
	})
}

// SetTimeStepLimits 伪时间步长上下限
func (s *Stack) SetTimeStepLimits(lo, hi float64) error {
	return s.options(func(o *sim.Options) { o.MinTimeStep, o.MaxTimeStep = lo, hi })
}

// Options 求解器配置副本
func (s *Stack) Options() sim.Options {
	o := s.session.Options
	o.Steps = append([]int(nil), o.Steps...)
	return o
}

// FixedTemperature 当前定点温度，未设置时为 0
func (s *Stack) FixedTemperature() float64 { return s.fixedT }

// SetFixedTemperature 在温度剖面首次穿过 t 的位置固定温度
// 附近 GridMin 内已有网格点时固定该点，否则插入新点
func (s *Stack) SetFixedTemperature(t float64) error {
	const op = "set fixed temperature"
	if !(t > 0) || math.IsInf(t, 0) {
		return types.Errorf(op, types.ErrInvalidArgument, "temperature %g must be positive", t)
	}
	d, p, n := s.pinnable()
	if d == nil {
		return types.Errorf(op, types.ErrInvalidArgument, "no extended domain supports a fixed temperature")
	}
	z, T := d.Grid(), d.Component(n)
	j := crossing(T, t)
	if j < 0 {
		return types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "temperature profile does not cross %g", t)
	}
	zt := z[j]
	if T[j+1] != T[j] {
		zt += (t - T[j]) / (T[j+1] - T[j]) * (z[j+1] - z[j])
	}
	k := -1
	for i, zi := range z {
		if math.Abs(zi-zt) <= d.GridMin {
			k = i
			break
		}
	}
	if k == 0 || k == len(z)-1 {
		return types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "temperature %g reached at a boundary point", t)
	}
	if k < 0 {
		if err := s.insertPoint(d, j+1, zt); err != nil {
			return err
		}
	}
	p.Pin(n, zt, t)
	if _, pj, _, ok := d.PinnedPoint(); ok {
		d.SetValue(n, pj, t)
	}
	s.fixedT = t
	s.session.Commit()
	s.session.Invalidate()
	s.log.Debug().Str("domain", d.Name).Float64("z", zt).Float64("T", t).Msg("固定温度")
	return nil
}

// ClearFixedTemperature 解除定点温度
func (s *Stack) ClearFixedTemperature() {
	if d, p, _ := s.pinnable(); d != nil {
		p.Unpin()
		s.session.Invalidate()
	}
	s.fixedT = 0
}

// pinnable 第一个含温度分量且支持定点约束的扩展区域
func (s *Stack) pinnable() (*domain.Domain, domain.Pinner, int) {
	for _, d := range s.Domains {
		if d.Kind() != types.Extended {
			continue
		}
		p, ok := d.Physics.(domain.Pinner)
		if !ok {
			continue
		}
		if n, err := d.ComponentIndex("T"); err == nil {
			return d, p, n
		}
	}
	return nil, nil, 0
}

// crossing 第一个包含 t 的区间 [j, j+1]，无则 -1
func crossing(T []float64, t float64) int {
	for j := 0; j+1 < len(T); j++ {
		if (T[j]-t)*(T[j+1]-t) <= 0 && T[j] != T[j+1] {
			return j
		}
	}
	return -1
}

// insertPoint 在序号 j 处插入位置 z，各分量线性插值
func (s *Stack) insertPoint(d *domain.Domain, j int, z float64) error {
	old := d.Grid()
	grid := make([]float64, 0, len(old)+1)
	grid = append(grid, old[:j]...)
	grid = append(grid, z)
	grid = append(grid, old[j:]...)
	values := d.Matrix()
	f := (z - old[j-1]) / (old[j] - old[j-1])
	for n, v := range values {
		nv := make([]float64, 0, len(v)+1)
		nv = append(nv, v[:j]...)
		nv = append(nv, v[j-1]+f*(v[j]-v[j-1]))
		values[n] = append(nv, v[j:]...)
	}
	if !maths.StrictlyIncreasing(grid) {
		return types.DomainErrorf("insert point", d.Name, types.ErrInvalidArgument, "point %g breaks grid order", z)
	}
	return s.session.Regrid(map[int][]float64{d.Index: grid}, map[int][][]float64{d.Index: values})
}
