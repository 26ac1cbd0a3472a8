package base

import (
	"fmt"

	"onedim/domain"
	"onedim/types"
)

// FixedType 定义连接区域：给定边界值
var FixedType = domain.Register("fixed", newFixed)

// FixedParams 给定边界值参数
type FixedParams struct {
	Components []string  `mapstructure:"components"`
	Values     []float64 `mapstructure:"values"`
}

// Fixed 给定边界值连接区域
// 自身方程为 x_c - value，相邻扩展区域的同名分量在边界点取 u_b - x_c
type Fixed struct {
	FixedParams
}

// NewFixed 创建给定边界值连接区域
func NewFixed(p FixedParams) (*Fixed, error) {
	if len(p.Components) == 0 {
		return nil, fmt.Errorf("%w: fixed boundary without components", types.ErrInvalidArgument)
	}
	if len(p.Values) != len(p.Components) {
		return nil, fmt.Errorf("%w: %d values for %d components", types.ErrInvalidArgument, len(p.Values), len(p.Components))
	}
	return &Fixed{FixedParams: p}, nil
}

func newFixed(params map[string]any) (domain.Physics, error) {
	var p FixedParams
	if err := domain.Decode(params, &p); err != nil {
		return nil, err
	}
	return NewFixed(p)
}

func (*Fixed) Type() string           { return FixedType }
func (*Fixed) Kind() types.Kind       { return types.Connector }
func (f *Fixed) Components() []string { return f.FixedParams.Components }

// Init 初值为给定值
func (f *Fixed) Init(d *domain.Domain) {
	for n, v := range f.Values {
		d.SetFlatProfile(n, v)
	}
}

// Set 修改给定值
func (f *Fixed) Set(n int, v float64) { f.Values[n] = v }

// Link 至少需要一个扩展区域相邻
func (f *Fixed) Link(_, left, right *domain.Domain) error {
	if !extended(left) && !extended(right) {
		return fmt.Errorf("fixed boundary needs an extended neighbour")
	}
	return nil
}

// Eval 写自身方程并覆盖相邻边界点
func (f *Fixed) Eval(e *domain.Eval) {
	for n, name := range f.FixedParams.Components {
		xc := e.Value(n, 0)
		e.SetResidual(n, 0, xc-f.Values[n])
		if v := extendedView(e.Left); v != nil {
			if k, err := v.ComponentIndex(name); err == nil {
				v.SetResidual(k, v.Last(), v.Value(k, v.Last())-xc)
			}
		}
		if v := extendedView(e.Right); v != nil {
			if k, err := v.ComponentIndex(name); err == nil {
				v.SetResidual(k, 0, v.Value(k, 0)-xc)
			}
		}
	}
}

func extended(d *domain.Domain) bool { return d != nil && d.Kind() == types.Extended }

func extendedView(v *domain.View) *domain.View {
	if v == nil || !extended(v.Domain) {
		return nil
	}
	return v
}
