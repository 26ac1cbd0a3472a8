package onedim

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"onedim/domain"
	"onedim/metrics"
	"onedim/sim"
	"onedim/types"
	"onedim/utils"

	_ "onedim/domain/base"
)

// Stack 区域栈：按顺序首尾相接的区域组成一个耦合非线性系统
// 构建后区域集合不可变，网格点数随细化变化
type Stack struct {
	Domains []*domain.Domain

	session *sim.Session
	log     zerolog.Logger
	fixedT  float64 // 定点温度，0 表示未设置
}

// Option 构建选项
type Option func(*settings)

type settings struct {
	opts    sim.Options
	log     zerolog.Logger
	metrics *metrics.Collector
	debug   types.Debug
	tracer  trace.TracerProvider
}

// WithOptions 求解器配置
func WithOptions(o sim.Options) Option { return func(s *settings) { s.opts = o } }

// WithLogger 日志，求解时按 logLevel 调整级别
func WithLogger(l zerolog.Logger) Option { return func(s *settings) { s.log = l } }

// WithMetrics 指标收集器
func WithMetrics(m *metrics.Collector) Option { return func(s *settings) { s.metrics = m } }

// WithDebug 调试观察者
func WithDebug(d types.Debug) Option { return func(s *settings) { s.debug = d } }

// WithTracerProvider 链路追踪，未设置时使用全局 TracerProvider
func WithTracerProvider(tp trace.TracerProvider) Option { return func(s *settings) { s.tracer = tp } }

// Parallel 扩展区域并行计算残差
func Parallel(on bool) Option { return func(s *settings) { s.opts.Parallel = on } }

// New 由有序区域列表创建栈，检查名称唯一并完成相邻区域检查
func New(domains []*domain.Domain, opts ...Option) (*Stack, error) {
	const op = "new stack"
	cfg := settings{opts: sim.DefaultOptions(), log: zerolog.Nop()}
	for _, o := range opts {
		o(&cfg)
	}
	seen := make(map[string]bool, len(domains))
	for i, d := range domains {
		if d == nil {
			return nil, types.Errorf(op, types.ErrInvalidArgument, "domain %d is nil", i)
		}
		if seen[d.Name] {
			return nil, types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "duplicate domain name")
		}
		seen[d.Name] = true
		d.Index = i
	}
	for i, d := range domains {
		var left, right *domain.Domain
		if i > 0 {
			left = domains[i-1]
		}
		if i+1 < len(domains) {
			right = domains[i+1]
		}
		if err := d.Link(left, right); err != nil {
			return nil, err
		}
	}
	session, err := sim.NewSession(domains, cfg.opts)
	if err != nil {
		return nil, err
	}
	session.SetLogger(cfg.log)
	if cfg.metrics != nil {
		session.SetMetrics(cfg.metrics)
	}
	if cfg.tracer != nil {
		session.SetTracerProvider(cfg.tracer)
	}
	session.Debug = cfg.debug
	return &Stack{Domains: domains, session: session, log: cfg.log}, nil
}

// Solve 求解到稳态，logLevel 0 静默，1 汇总，2 每次尝试，3 及以上每次迭代
func (s *Stack) Solve(ctx context.Context, logLevel int, refine bool) error {
	s.session.SetLogger(s.log.Level(utils.SolveLevel(logLevel)))
	return s.session.Solve(ctx, refine)
}

// EvaluateResidual 计算区域残差（[分量][点]），不修改解
func (s *Stack) EvaluateResidual(dom int, rdt float64, count bool) ([][]float64, error) {
	if _, err := s.domain("evaluate residual", dom); err != nil {
		return nil, err
	}
	if rdt < 0 {
		return nil, types.Errorf("evaluate residual", types.ErrInvalidArgument, "rdt %g must be non-negative", rdt)
	}
	return s.session.Residual(dom, rdt, count)
}

// DomainIndex 按名称查找区域序号
func (s *Stack) DomainIndex(name string) (int, error) {
	for i, d := range s.Domains {
		if d.Name == name {
			return i, nil
		}
	}
	return -1, types.Errorf("domain index", types.ErrDomainNotFound, "no domain named %q", name)
}

// Grid 区域网格副本
func (s *Stack) Grid(dom int) ([]float64, error) {
	d, err := s.domain("grid", dom)
	if err != nil {
		return nil, err
	}
	return d.Grid(), nil
}

// Size 全局未知量个数
func (s *Stack) Size() int { return s.session.Assembler().Size() }

// Stats 求解统计
func (s *Stack) Stats() sim.Stats { return s.session.Stats() }

// ResetStats 统计清零
func (s *Stack) ResetStats() { s.session.ResetStats() }

// Snapshot 当前解的快照
func (s *Stack) Snapshot() *types.Snapshot { return s.session.Snapshot(types.StageSteady, 0) }

func (s *Stack) domain(op string, i int) (*domain.Domain, error) {
	if i < 0 || i >= len(s.Domains) {
		return nil, types.Errorf(op, types.ErrDomainNotFound, "domain %d out of range [0,%d)", i, len(s.Domains))
	}
	return s.Domains[i], nil
}

// component 区域与分量序号
func (s *Stack) component(op string, dom int, name string) (*domain.Domain, int, error) {
	d, err := s.domain(op, dom)
	if err != nil {
		return nil, 0, err
	}
	n, err := d.ComponentIndex(name)
	if err != nil {
		return nil, 0, err
	}
	return d, n, nil
}

func (s *Stack) String() string {
	var b strings.Builder
	for _, d := range s.Domains {
		fmt.Fprintf(&b, "> %s (%s, %d points)\n", d.Name, d.Type(), d.NPoints())
		if d.NComponents() == 0 {
			continue
		}
		w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprint(w, "z\t")
		for _, c := range d.Components() {
			fmt.Fprintf(w, "%s\t", c)
		}
		fmt.Fprintln(w)
		for j := range d.NPoints() {
			fmt.Fprintf(w, "%.6g\t", d.Z(j))
			for n := range d.NComponents() {
				fmt.Fprintf(w, "%.6g\t", d.Value(n, j))
			}
			fmt.Fprintln(w)
		}
		w.Flush()
	}
	return b.String()
}
