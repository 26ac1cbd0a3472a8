package base

import (
	"fmt"

	"onedim/domain"
	"onedim/types"
)

// InterfaceType 定义连接区域：两个扩展区域之间的界面
var InterfaceType = domain.Register("interface", newInterface)

// InterfaceParams 界面参数
type InterfaceParams struct {
	Components []string `mapstructure:"components"`
}

// Interface 界面连接区域，自身持有界面值 u_I
// 左区域末端 u_L - u_I，右区域首端 u_R - u_I，自身方程为通量平衡
type Interface struct {
	InterfaceParams
	left, right []int // 分量在两侧区域中的序号
}

func newInterface(params map[string]any) (domain.Physics, error) {
	var p InterfaceParams
	if err := domain.Decode(params, &p); err != nil {
		return nil, err
	}
	return NewInterface(p)
}

// NewInterface 创建界面连接区域
func NewInterface(p InterfaceParams) (*Interface, error) {
	if len(p.Components) == 0 {
		p.Components = []string{"T"}
	}
	return &Interface{InterfaceParams: p}, nil
}

func (*Interface) Type() string           { return InterfaceType }
func (*Interface) Kind() types.Kind       { return types.Connector }
func (i *Interface) Components() []string { return i.InterfaceParams.Components }

// Init 初值在 Link 时由相邻区域边界值确定
func (*Interface) Init(*domain.Domain) {}

// Link 两侧必须是含有全部界面分量且提供通量的扩展区域
func (i *Interface) Link(d, left, right *domain.Domain) error {
	if !extended(left) || !extended(right) {
		return fmt.Errorf("interface needs extended domains on both sides")
	}
	for _, d := range []*domain.Domain{left, right} {
		if _, ok := d.Physics.(domain.Fluxer); !ok {
			return fmt.Errorf("domain %s does not provide boundary flux", d.Name)
		}
	}
	i.left, i.right = make([]int, len(i.Components())), make([]int, len(i.Components()))
	for n, name := range i.Components() {
		var err error
		if i.left[n], err = left.ComponentIndex(name); err != nil {
			return err
		}
		if i.right[n], err = right.ComponentIndex(name); err != nil {
			return err
		}
		d.SetFlatProfile(n, 0.5*(left.Value(i.left[n], left.NPoints()-1)+right.Value(i.right[n], 0)))
	}
	return nil
}

// Eval 写通量平衡方程并覆盖两侧边界点
func (i *Interface) Eval(e *domain.Eval) {
	l, r := extendedView(e.Left), extendedView(e.Right)
	if l == nil || r == nil || len(i.left) != len(i.Components()) {
		return
	}
	fl, fr := l.Physics.(domain.Fluxer), r.Physics.(domain.Fluxer)
	for n := range i.Components() {
		kl, kr := i.left[n], i.right[n]
		xc := e.Value(n, 0)
		e.SetResidual(n, 0, fl.Flux(l, kl, true)-fr.Flux(r, kr, false))
		l.SetResidual(kl, l.Last(), l.Value(kl, l.Last())-xc)
		r.SetResidual(kr, 0, r.Value(kr, 0)-xc)
	}
}
