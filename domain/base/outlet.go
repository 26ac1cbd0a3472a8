package base

import (
	"fmt"

	"onedim/domain"
	"onedim/types"
)

// OutletType 定义连接区域：零梯度出口
var OutletType = domain.Register("outlet", func(params map[string]any) (domain.Physics, error) {
	var p struct{}
	if err := domain.Decode(params, &p); err != nil {
		return nil, err
	}
	return &Outlet{}, nil
})

// Outlet 零梯度出口，没有自身未知量
type Outlet struct{}

func (*Outlet) Type() string         { return OutletType }
func (*Outlet) Kind() types.Kind     { return types.Connector }
func (*Outlet) Components() []string { return nil }
func (*Outlet) Init(*domain.Domain) {}

// Link 需要左侧扩展区域
func (*Outlet) Link(_, left, _ *domain.Domain) error {
	if !extended(left) {
		return fmt.Errorf("outlet needs an extended domain on its left")
	}
	return nil
}

// Eval 左侧区域末端各分量 u[last] - u[last-1]
func (*Outlet) Eval(e *domain.Eval) {
	v := extendedView(e.Left)
	if v == nil {
		return
	}
	l := v.Last()
	for n := range v.NComponents() {
		v.SetResidual(n, l, v.Value(n, l)-v.Value(n, l-1))
	}
}
