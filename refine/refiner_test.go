package refine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onedim/types"
)

func uniform(n int) []float64 {
	z := make([]float64, n)
	for j := range z {
		z[j] = float64(j)
	}
	return z
}

func TestCriteriaValidate(t *testing.T) {
	require.NoError(t, DefaultCriteria().Validate())
	cases := []Criteria{
		{Ratio: 0.5, Slope: 0.5, Curve: 0.5},
		{Ratio: 2, Slope: 1.5, Curve: 0.5},
		{Ratio: 2, Slope: 0.5, Curve: -0.1},
		{Ratio: 2, Slope: 0.2, Curve: 0.5, Prune: 0.3},
	}
	for _, c := range cases {
		err := c.Validate()
		assert.True(t, errors.Is(err, types.ErrInvalidArgument), "判据 %+v 应无效", c)
	}
}

func TestAnalyzeResolvedIsNoop(t *testing.T) {
	r, err := New(DefaultCriteria(), types.DefaultGridMin, 100)
	require.NoError(t, err)
	z := uniform(11)
	v := make([]float64, len(z))
	for j := range v {
		v[j] = 300 + 60*z[j]
	}
	p, err := r.Analyze(z, [][]float64{v}, nil, nil)
	require.NoError(t, err)
	assert.False(t, p.Changed(), "已分辨网格不应变化: %+v", p)
	assert.Equal(t, z, p.NewGrid())

	// 再次分析结果相同
	p2, err := r.Analyze(p.NewGrid(), [][]float64{v}, nil, nil)
	require.NoError(t, err)
	assert.False(t, p2.Changed())
}

func TestAnalyzeInsertsAtJump(t *testing.T) {
	r, err := New(DefaultCriteria(), types.DefaultGridMin, 100)
	require.NoError(t, err)
	z := uniform(5)
	v := []float64{0, 0, 1, 1, 1}
	p, err := r.Analyze(z, [][]float64{v}, nil, nil)
	require.NoError(t, err)
	assert.Contains(t, p.Insert, 1)
	grid := p.NewGrid()
	assert.Contains(t, grid, 1.5)
	assert.Equal(t, z[0], grid[0], "端点必须保留")
	assert.Equal(t, z[4], grid[len(grid)-1])

	nz, nv, err := p.Regrid([][]float64{v})
	require.NoError(t, err)
	assert.Equal(t, grid, nz)
	assert.Len(t, nv[0], len(nz))
}

func TestAnalyzeDeletionProtection(t *testing.T) {
	c := DefaultCriteria()
	c.Prune = 0.05
	r, err := New(c, types.DefaultGridMin, 100)
	require.NoError(t, err)
	z := uniform(6)
	v := []float64{0, 0, 0, 0, 0, 1}
	p, err := r.Analyze(z, [][]float64{v}, nil, nil)
	require.NoError(t, err)
	grid := p.NewGrid()
	// 平坦区隔点删除，靠近陡变区的点因相邻区间插点而保留
	assert.NotContains(t, grid, 1.0)
	assert.Contains(t, grid, 2.0, "相邻点不在同一轮删除")
	assert.Contains(t, grid, 3.0, "紧邻插点区间的点不应删除")
	assert.Contains(t, grid, 4.0)
	assert.Contains(t, grid, 3.5)
	assert.Contains(t, grid, 4.5)

	// 受保护点不删除，其右侧相邻点可以删除
	p, err = r.Analyze(z, [][]float64{v}, nil, []int{1})
	require.NoError(t, err)
	assert.Contains(t, p.NewGrid(), 1.0)
	assert.NotContains(t, p.NewGrid(), 2.0)

	// 长平坦区每轮最多删除一半的内部点
	z = uniform(9)
	v = make([]float64, 9)
	v[8] = 1
	p, err = r.Analyze(z, [][]float64{v}, nil, nil)
	require.NoError(t, err)
	for k := 1; k < len(p.Delete); k++ {
		assert.Greater(t, p.Delete[k]-p.Delete[k-1], 1, "删除点 %v 不应相邻", p.Delete)
	}
	assert.NotEmpty(t, p.Delete)
}

func TestAnalyzeGridMinAndCap(t *testing.T) {
	r, err := New(DefaultCriteria(), 0.6, 100)
	require.NoError(t, err)
	z := uniform(5)
	v := []float64{0, 0, 1, 1, 1}
	p, err := r.Analyze(z, [][]float64{v}, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, p.Insert, "短于两倍最小间距的区间不插点")

	r, err = New(DefaultCriteria(), types.DefaultGridMin, 5)
	require.NoError(t, err)
	p, err = r.Analyze(z, [][]float64{v}, nil, nil)
	require.NoError(t, err)
	assert.True(t, p.Capped)
	assert.Empty(t, p.Insert)
}

func TestAnalyzeRatio(t *testing.T) {
	r, err := New(DefaultCriteria(), types.DefaultGridMin, 100)
	require.NoError(t, err)
	z := []float64{0, 0.1, 5}
	p, err := r.Analyze(z, [][]float64{{1, 1, 1}}, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, p.Insert, "过大的间距比需要插点")
}

func TestAnalyzeInactiveComponent(t *testing.T) {
	r, err := New(DefaultCriteria(), types.DefaultGridMin, 100)
	require.NoError(t, err)
	p, err := r.Analyze(uniform(5), [][]float64{{0, 0, 1, 1, 1}}, []bool{false}, nil)
	require.NoError(t, err)
	assert.False(t, p.Changed())

	_, err = r.Analyze([]float64{0, 0}, [][]float64{{1, 1}}, nil, nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
	_, err = r.Analyze(uniform(3), [][]float64{{1, 1}}, nil, nil)
	assert.ErrorIs(t, err, types.ErrShapeMismatch)
}
