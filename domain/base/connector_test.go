package base

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onedim/domain"
	"onedim/types"
)

func flow(t *testing.T, comps []string, z []float64, init []float64, diff float64) *domain.Domain {
	r, err := NewReaction(ReactionParams{Components: comps, Initial: init, Diffusivity: []float64{diff}})
	require.NoError(t, err)
	d, err := domain.New("flow", r, z)
	require.NoError(t, err)
	return d
}

func TestFixed(t *testing.T) {
	f, err := NewFixed(FixedParams{Components: []string{"Y"}, Values: []float64{0.2}})
	require.NoError(t, err)
	c, err := domain.New("inlet", f, nil)
	require.NoError(t, err)
	assert.Equal(t, types.Connector, c.Kind())
	assert.Equal(t, 0.2, c.Value(0, 0))
	assert.ErrorIs(t, c.Link(nil, nil), types.ErrInvalidArgument)

	right := flow(t, []string{"T", "Y"}, []float64{0, 1, 2}, []float64{300, 0.5}, 1)
	require.NoError(t, c.Link(nil, right))
	c.SetValue(0, 0, 0.25)
	cv, rv := view(c), view(right)
	f.Eval(&domain.Eval{View: *cv, Right: rv})
	assert.InDelta(t, 0.05, cv.Residual(0, 0), 1e-15)
	assert.InDelta(t, 0.5-0.25, rv.Residual(1, 0), 1e-15, "同名分量取 u_b - x_c")
	assert.Zero(t, rv.Residual(0, 0), "无对应分量的行不覆盖")

	_, err = NewFixed(FixedParams{Components: []string{"T"}, Values: []float64{1, 2}})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestOutlet(t *testing.T) {
	o := &Outlet{}
	c, err := domain.New("outlet", o, nil)
	require.NoError(t, err)
	left := flow(t, []string{"T"}, []float64{0, 1, 2}, []float64{300}, 1)
	left.SetValue(0, 1, 400)
	require.NoError(t, c.Link(left, nil))
	assert.ErrorIs(t, c.Link(nil, left), types.ErrInvalidArgument)
	lv := view(left)
	o.Eval(&domain.Eval{View: *view(c), Left: lv})
	assert.Equal(t, -100.0, lv.Residual(0, 2))
}

func TestInterface(t *testing.T) {
	i, err := NewInterface(InterfaceParams{})
	require.NoError(t, err)
	c, err := domain.New("iface", i, nil)
	require.NoError(t, err)
	left := flow(t, []string{"T"}, []float64{0, 1}, []float64{300}, 1)
	right := flow(t, []string{"T"}, []float64{1, 2}, []float64{500}, 4)
	require.NoError(t, c.Link(left, right))
	assert.Equal(t, 400.0, c.Value(0, 0), "界面初值取两侧边界值的平均")

	left.SetValue(0, 1, 350)
	right.SetValue(0, 1, 520)
	lv, rv, cv := view(left), view(right), view(c)
	i.Eval(&domain.Eval{View: *cv, Left: lv, Right: rv})
	// 左侧通量 -1*(350-300)，右侧通量 -4*(520-500)
	assert.InDelta(t, -50.0+80.0, cv.Residual(0, 0), 1e-12)
	assert.Equal(t, 350.0-400.0, lv.Residual(0, 1))
	assert.Equal(t, 500.0-400.0, rv.Residual(0, 0))

	other := flow(t, []string{"Y"}, []float64{1, 2}, []float64{0}, 1)
	assert.ErrorIs(t, c.Link(left, other), types.ErrInvalidArgument)
	assert.ErrorIs(t, c.Link(left, nil), types.ErrInvalidArgument)
}
