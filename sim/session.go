package sim

import (
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"onedim/domain"
	"onedim/maths"
	"onedim/metrics"
	"onedim/refine"
	"onedim/types"
)

// Session 求解会话：全局向量、雅可比及其年龄、统计
// 由 Stack 持有，各次求解之间不共享其他状态
type Session struct {
	Options
	Domains []*domain.Domain
	Debug   types.Debug        // 调试观察者，可为 nil
	Metrics *metrics.Collector // 可为 nil

	asm    *Assembler
	x      maths.UpdateVector // 当前解，备份为上一次接受的解
	prev   []float64          // 上一时间步的解
	r      []float64
	dx     []float64
	dx1    []float64
	x1     []float64
	w      []float64 // 步长范数权重
	lu     maths.Solver
	jac    jacobianAge
	stats  Stats
	time   float64 // 累计伪时间
	log    zerolog.Logger
	tracer trace.Tracer
}

// tracerName 求解链路的 instrumentation 名称
const tracerName = "onedim/sim"

// jacobianAge 雅可比年龄：计算后的牛顿迭代次数
type jacobianAge struct {
	valid bool
	age   int
	rdt   float64
}

// due 是否需要重新计算
func (j *jacobianAge) due(limit int, rdt float64) bool {
	return !j.valid || j.rdt != rdt || j.age >= limit
}

func (j *jacobianAge) reset(rdt float64) { j.valid, j.age, j.rdt = true, 0, rdt }
func (j *jacobianAge) invalidate()       { j.valid = false }
func (j *jacobianAge) advance()          { j.age++ }

// NewSession 创建会话，区域按栈顺序排列且已完成相邻检查
func NewSession(domains []*domain.Domain, opts Options) (*Session, error) {
	if len(domains) == 0 {
		return nil, types.Errorf("new session", types.ErrInvalidArgument, "empty domain list")
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	s := &Session{
		Options: opts,
		Domains: domains,
		log:     zerolog.Nop(),
		tracer:  otel.Tracer(tracerName),
	}
	s.stats.Domains = make([]DomainStats, len(domains))
	for i, d := range domains {
		s.stats.Domains[i].Name = d.Name
	}
	s.asm = NewAssembler(domains, &s.stats, nil)
	s.asm.parallel = opts.Parallel
	if s.asm.Size() == 0 {
		return nil, types.Errorf("new session", types.ErrInvalidArgument, "stack has no unknowns")
	}
	s.layout()
	return s, nil
}

// SetOptions 检查并替换求解器配置，雅可比失效
func (s *Session) SetOptions(o Options) error {
	if err := o.Validate(); err != nil {
		return err
	}
	s.Options = o
	s.asm.parallel = o.Parallel
	s.jac.invalidate()
	return nil
}

// SetLogger 设置日志
func (s *Session) SetLogger(l zerolog.Logger) { s.log = l }

// SetTracerProvider 设置链路追踪，默认使用全局 TracerProvider
func (s *Session) SetTracerProvider(tp trace.TracerProvider) { s.tracer = tp.Tracer(tracerName) }

// SetMetrics 设置指标收集器
func (s *Session) SetMetrics(m *metrics.Collector) {
	s.Metrics = m
	s.asm.metrics = m
	for _, d := range s.Domains {
		m.SetGridPoints(d.Name, d.NPoints())
	}
}

// Assembler 装配器
func (s *Session) Assembler() *Assembler { return s.asm }

// X 全局解向量（与各区域共享存储）
func (s *Session) X() []float64 { return s.x.Data() }

// Stats 统计副本
func (s *Session) Stats() Stats { return s.stats.Clone() }

// ResetStats 统计清零
func (s *Session) ResetStats() { s.stats.Reset() }

// Time 累计伪时间
func (s *Session) Time() float64 { return s.time }

// Invalidate 使雅可比失效
func (s *Session) Invalidate() { s.jac.invalidate() }

// layout 按区域当前尺寸重建全局向量并重新绑定，保留各区域的值
func (s *Session) layout() {
	saved := make([][]float64, len(s.Domains))
	for i, d := range s.Domains {
		saved[i] = append([]float64(nil), d.Data()...)
	}
	s.asm.layout()
	size := s.asm.Size()
	if s.x == nil {
		s.x = maths.NewUpdateVector(size)
	} else {
		s.x.Resize(size)
	}
	data := s.x.Data()
	off, poff := 0, 0
	for i, d := range s.Domains {
		end := off + d.Size()
		copy(data[off:end], saved[i])
		d.Bind(data[off:end:end], off, poff)
		off, poff = end, poff+d.NPoints()
	}
	s.x.Update()
	s.prev = append(s.prev[:0], data...)
	s.r = make([]float64, size)
	s.dx = make([]float64, size)
	s.dx1 = make([]float64, size)
	s.x1 = make([]float64, size)
	s.w = make([]float64, size)
	if s.lu == nil {
		s.lu, _ = maths.NewLU(size)
	} else {
		s.lu.Resize(size)
	}
	s.jac.invalidate()
	for _, d := range s.Domains {
		s.Metrics.SetGridPoints(d.Name, d.NPoints())
	}
}

// Regrid 用新网格与新值（[分量][点]）替换指定区域并重建全局向量
// 任一区域的参数不合法时不修改任何区域
func (s *Session) Regrid(grids map[int][]float64, values map[int][][]float64) error {
	for i, z := range grids {
		if err := s.Domains[i].CheckResize(z, values[i]); err != nil {
			return err
		}
	}
	for i, z := range grids {
		if err := s.Domains[i].Resize(z, values[i]); err != nil {
			s.layout()
			return err
		}
	}
	s.layout()
	return nil
}

// Commit 当前值写入备份（外部修改初值后调用）
func (s *Session) Commit() {
	s.x.Update()
	copy(s.prev, s.x.Data())
}

// Residual 计算区域 i 的残差，按 [分量][点] 返回，不修改解
func (s *Session) Residual(i int, rdt float64, count bool) ([][]float64, error) {
	r := make([]float64, s.asm.Size())
	x := append([]float64(nil), s.x.Data()...)
	if err := s.asm.Eval(x, s.prev, r, rdt, -1, count); err != nil && !isNonFinite(err) {
		return nil, err
	}
	d := s.Domains[i]
	out := make([][]float64, d.NComponents())
	nc := d.NComponents()
	for n := range out {
		out[n] = make([]float64, d.NPoints())
		for j := range out[n] {
			out[n][j] = r[d.Offset()+j*nc+n]
		}
	}
	return out, nil
}

// Refine 对全部扩展区域做一次网格细化，返回插入与删除的点数
func (s *Session) Refine(log zerolog.Logger) (int, error) {
	grids := map[int][]float64{}
	values := map[int][][]float64{}
	total := 0
	for i, d := range s.Domains {
		if d.Kind() != types.Extended {
			continue
		}
		r, err := refine.New(d.Criteria, d.GridMin, d.MaxPoints)
		if err != nil {
			return 0, err
		}
		active := make([]bool, d.NComponents())
		for n := range active {
			active[n] = d.RefineActive(n)
		}
		var protect []int
		if _, j, _, ok := d.PinnedPoint(); ok {
			protect = append(protect, j)
		}
		plan, err := r.Analyze(d.Grid(), d.Matrix(), active, protect)
		if err != nil {
			return 0, err
		}
		if plan.Capped {
			log.Warn().Str("domain", d.Name).Int("max", d.MaxPoints).Msg("网格点数达到上限")
		}
		if !plan.Changed() {
			continue
		}
		z, v, err := plan.Regrid(d.Matrix())
		if err != nil {
			return 0, err
		}
		grids[i], values[i] = z, v
		total += len(plan.Insert) + len(plan.Delete)
		log.Info().Str("domain", d.Name).Int("insert", len(plan.Insert)).
			Int("delete", len(plan.Delete)).Int("points", len(z)).Msg("网格细化")
	}
	if total == 0 {
		return 0, nil
	}
	if err := s.Regrid(grids, values); err != nil {
		return 0, err
	}
	s.stats.Regrids++
	s.notify(types.StageRefine, 0)
	return total, nil
}

// notify 通知调试观察者
func (s *Session) notify(stage types.Stage, norm float64) {
	if s.Debug == nil || !s.Debug.IsDebug() {
		return
	}
	s.Debug.Update(s.Snapshot(stage, norm))
}

// Snapshot 当前解的快照
func (s *Session) Snapshot(stage types.Stage, norm float64) *types.Snapshot {
	snap := &types.Snapshot{Stage: stage, Time: s.time, StepNorm: norm}
	for _, d := range s.Domains {
		snap.Domains = append(snap.Domains, d.Name)
		snap.Grids = append(snap.Grids, d.Grid())
		snap.Values = append(snap.Values, d.Matrix())
		snap.Names = append(snap.Names, d.Components())
	}
	return snap
}
