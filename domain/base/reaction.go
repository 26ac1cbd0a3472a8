package base

import (
	"fmt"
	"math"

	"onedim/domain"
	"onedim/types"
)

// ReactionType 定义扩展区域：扩散-反应方程 du/dt = D u'' + S
var ReactionType = domain.Register("reaction", newReaction)

// Source 单步阿伦尼乌斯源项 w = A*Y*exp(-Ea/T)
// 温度方程得到 Heat*w，燃料方程得到 -w
type Source struct {
	A           float64 `mapstructure:"a"`
	Ea          float64 `mapstructure:"ea"`
	Heat        float64 `mapstructure:"heat"`
	Fuel        string  `mapstructure:"fuel"`
	Temperature string  `mapstructure:"temperature"`
}

// ReactionParams 扩散-反应区域参数
type ReactionParams struct {
	Components  []string  `mapstructure:"components"`
	Diffusivity []float64 `mapstructure:"diffusivity"`
	Initial     []float64 `mapstructure:"initial"`
	Lower       []float64 `mapstructure:"lower"`
	Upper       []float64 `mapstructure:"upper"`
	Algebraic   []string  `mapstructure:"algebraic"`
	Source      Source    `mapstructure:"source"`
}

// Reaction 扩散-反应物理模型
type Reaction struct {
	ReactionParams
	fuel, temp int // 源项分量序号，-1 表示无源项
	algebraic  []bool
	pin        struct {
		on   bool
		n    int
		z, v float64
	}
}

// NewReaction 创建扩散-反应模型
func NewReaction(p ReactionParams) (*Reaction, error) {
	if len(p.Components) == 0 {
		p.Components = []string{"T"}
	}
	nc := len(p.Components)
	fill := func(v []float64, def float64, name string) ([]float64, error) {
		switch len(v) {
		case 0:
			v = make([]float64, nc)
			for i := range v {
				v[i] = def
			}
		case 1:
			x := v[0]
			v = make([]float64, nc)
			for i := range v {
				v[i] = x
			}
		case nc:
			v = append([]float64(nil), v...)
		default:
			return nil, fmt.Errorf("%w: %d %s values for %d components", types.ErrInvalidArgument, len(v), name, nc)
		}
		return v, nil
	}
	var err error
	if p.Diffusivity, err = fill(p.Diffusivity, 1, "diffusivity"); err != nil {
		return nil, err
	}
	if p.Initial, err = fill(p.Initial, 0, "initial"); err != nil {
		return nil, err
	}
	if p.Lower, err = fill(p.Lower, math.Inf(-1), "lower"); err != nil {
		return nil, err
	}
	if p.Upper, err = fill(p.Upper, math.Inf(1), "upper"); err != nil {
		return nil, err
	}
	for i, d := range p.Diffusivity {
		if !(d > 0) {
			return nil, fmt.Errorf("%w: diffusivity of %s must be positive", types.ErrInvalidArgument, p.Components[i])
		}
	}
	r := &Reaction{ReactionParams: p, fuel: -1, temp: -1, algebraic: make([]bool, nc)}
	index := func(name string) int {
		for i, c := range p.Components {
			if c == name {
				return i
			}
		}
		return -1
	}
	for _, name := range p.Algebraic {
		i := index(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: algebraic component %q", types.ErrNameNotFound, name)
		}
		r.algebraic[i] = true
	}
	if p.Source.A != 0 {
		if p.Source.Fuel == "" {
			p.Source.Fuel = "Y"
		}
		if p.Source.Temperature == "" {
			p.Source.Temperature = "T"
		}
		r.fuel, r.temp = index(p.Source.Fuel), index(p.Source.Temperature)
		if r.fuel < 0 || r.temp < 0 {
			return nil, fmt.Errorf("%w: source needs components %q and %q", types.ErrNameNotFound, p.Source.Fuel, p.Source.Temperature)
		}
		r.Source = p.Source
	}
	return r, nil
}

func newReaction(params map[string]any) (domain.Physics, error) {
	var p ReactionParams
	if err := domain.Decode(params, &p); err != nil {
		return nil, err
	}
	return NewReaction(p)
}

func (*Reaction) Type() string           { return ReactionType }
func (*Reaction) Kind() types.Kind       { return types.Extended }
func (r *Reaction) Components() []string { return r.ReactionParams.Components }

// Init 各分量平坦初值
func (r *Reaction) Init(d *domain.Domain) {
	for n, v := range r.Initial {
		d.SetFlatProfile(n, v)
	}
}

// Bounds 分量上下界
func (r *Reaction) Bounds(n int) (lower, upper float64) { return r.Lower[n], r.Upper[n] }

// Algebraic 代数分量
func (r *Reaction) Algebraic(n int) bool { return r.algebraic[n] }

// rate 源项反应速率
func (r *Reaction) rate(v *domain.View, j int) float64 {
	if r.fuel < 0 {
		return 0
	}
	t := v.Value(r.temp, j)
	if t <= 0 {
		return 0
	}
	return r.Source.A * v.Value(r.fuel, j) * math.Exp(-r.Source.Ea/t)
}

// Eval 内点为 -(D u'' + S)，端点默认零梯度，由连接区域覆盖
func (r *Reaction) Eval(e *domain.Eval) {
	last := e.Last()
	pn, pj, pv, pinned := e.PinnedPoint()
	for j := e.JMin; j <= e.JMax; j++ {
		if j == 0 || j == last {
			k := 1
			if j == last {
				k = last - 1
			}
			for n := range r.Diffusivity {
				e.SetResidual(n, j, e.Value(n, j)-e.Value(n, k))
			}
			continue
		}
		zl, zc, zr := e.Z(j-1), e.Z(j), e.Z(j+1)
		w := r.rate(&e.View, j)
		for n, dn := range r.Diffusivity {
			ul, uc, ur := e.Value(n, j-1), e.Value(n, j), e.Value(n, j+1)
			lap := 2 * ((ur-uc)/(zr-zc) - (uc-ul)/(zc-zl)) / (zr - zl)
			src := 0.0
			switch n {
			case r.temp:
				src = r.Source.Heat * w
			case r.fuel:
				src = -w
			}
			e.SetResidual(n, j, -(dn*lap + src))
		}
		if pinned && pj == j {
			e.SetResidual(pn, j, e.Value(pn, j)-pv)
		}
	}
}

// Flux 边界扩散通量 -D du/dz
func (r *Reaction) Flux(v *domain.View, n int, right bool) float64 {
	if right {
		l := v.Last()
		return -r.Diffusivity[n] * (v.Value(n, l) - v.Value(n, l-1)) / (v.Z(l) - v.Z(l-1))
	}
	return -r.Diffusivity[n] * (v.Value(n, 1) - v.Value(n, 0)) / (v.Z(1) - v.Z(0))
}

// Pin 固定分量 n 在位置 z 的值
func (r *Reaction) Pin(n int, z, value float64) {
	r.pin.on, r.pin.n, r.pin.z, r.pin.v = true, n, z, value
}

// Unpin 解除定点约束
func (r *Reaction) Unpin() { r.pin.on = false }

// Pinned 定点约束
func (r *Reaction) Pinned() (n int, z, value float64, ok bool) {
	return r.pin.n, r.pin.z, r.pin.v, r.pin.on
}
