package onedim_test

import (
	"context"
	"math"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"onedim"
	"onedim/domain"
	"onedim/domain/base"
	"onedim/store"
	"onedim/types"
)

func linspace(a, b float64, n int) []float64 {
	z := make([]float64, n)
	for j := range z {
		z[j] = a + (b-a)*float64(j)/float64(n-1)
	}
	return z
}

func fixed(t *testing.T, name string, v float64) *domain.Domain {
	p, err := base.NewFixed(base.FixedParams{Components: []string{"T"}, Values: []float64{v}})
	require.NoError(t, err)
	d, err := domain.New(name, p, nil)
	require.NoError(t, err)
	return d
}

// 300 | 扩散区域（初值 300）| 900
func newStack(t *testing.T, n int, opts ...onedim.Option) *onedim.Stack {
	r, err := base.NewReaction(base.ReactionParams{Initial: []float64{300}})
	require.NoError(t, err)
	flow, err := domain.New("flow", r, linspace(0, 1, n))
	require.NoError(t, err)
	s, err := onedim.New([]*domain.Domain{fixed(t, "inlet", 300), flow, fixed(t, "outlet", 900)}, opts...)
	require.NoError(t, err)
	return s
}

func TestNew(t *testing.T) {
	_, err := onedim.New(nil)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	_, err = onedim.New([]*domain.Domain{fixed(t, "a", 1), fixed(t, "a", 2)})
	assert.ErrorIs(t, err, types.ErrInvalidArgument, "重复的区域名称")

	// 给定边界值区域两侧都没有扩展区域
	_, err = onedim.New([]*domain.Domain{fixed(t, "a", 1)})
	assert.ErrorIs(t, err, types.ErrInvalidArgument)

	s := newStack(t, 5)
	assert.Equal(t, 7, s.Size())
	for i, d := range s.Domains {
		assert.Equal(t, i, d.Index)
	}
}

func TestDomainIndex(t *testing.T) {
	s := newStack(t, 5)
	i, err := s.DomainIndex("flow")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
	_, err = s.DomainIndex("burner")
	assert.ErrorIs(t, err, types.ErrDomainNotFound)
	_, err = s.Grid(3)
	assert.ErrorIs(t, err, types.ErrDomainNotFound)
	_, err = s.Solution(1, "Y")
	assert.ErrorIs(t, err, types.ErrNameNotFound)
}

func TestSetGetValue(t *testing.T) {
	s := newStack(t, 5)
	require.NoError(t, s.SetValue(1, "T", 2, 512.5))
	v, err := s.Value(1, "T", 2)
	require.NoError(t, err)
	assert.Equal(t, 512.5, v)

	require.NoError(t, s.SetFlatProfile(1, "T", 400))
	sol, err := s.Solution(1, "T")
	require.NoError(t, err)
	assert.Equal(t, []float64{400, 400, 400, 400, 400}, sol)

	assert.ErrorIs(t, s.SetValue(1, "T", 5, 1), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetValue(1, "T", 0, math.NaN()), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetValue(4, "T", 0, 1), types.ErrDomainNotFound)
	_, err = s.Value(1, "T", -1)
	assert.ErrorIs(t, err, types.ErrInvalidArgument)
}

func TestSetProfile(t *testing.T) {
	s := newStack(t, 5)
	require.NoError(t, s.SetProfile(1, []string{"T"}, [][]float64{{0, 1}, {300, 900}}))
	sol, err := s.Solution(1, "T")
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{300, 450, 600, 750, 900}, sol, 1e-12)

	require.NoError(t, s.SetProfile(1, []string{"T"}, [][]float64{{0.5}, {700}}))
	sol, _ = s.Solution(1, "T")
	assert.Equal(t, []float64{700, 700, 700, 700, 700}, sol, "单列为常数")

	require.NoError(t, s.SetProfile(1, []string{"T"}, [][]float64{{0, 0.5, 1}, {300, 1000, 300}}))
	sol, _ = s.Solution(1, "T")
	assert.InDeltaSlice(t, []float64{300, 650, 1000, 650, 300}, sol, 1e-12)

	for name, table := range map[string][][]float64{
		"多一行":  {{0, 1}, {300, 900}, {1, 2}},
		"少一行":  {{0, 1}},
		"参差不齐": {{0, 1}, {300}},
		"空表":   {{}, {}},
		"无行":   nil,
	} {
		err := s.SetProfile(1, []string{"T"}, table)
		assert.ErrorIs(t, err, types.ErrShapeMismatch, name)
	}
	assert.ErrorIs(t, s.SetProfile(1, []string{"T"}, [][]float64{{1, 0}, {300, 900}}), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetProfile(1, []string{"Y"}, [][]float64{{0, 1}, {300, 900}}), types.ErrNameNotFound)
}

func TestSetInitialGuess(t *testing.T) {
	s := newStack(t, 3)
	require.NoError(t, s.SetInitialGuess("T", [][]float64{{0, 1}, {500, 700}}))
	sol, _ := s.Solution(1, "T")
	assert.InDeltaSlice(t, []float64{500, 600, 700}, sol, 1e-12)
	for i, want := range map[int]float64{0: 300, 2: 900} {
		v, err := s.Value(i, "T", 0)
		require.NoError(t, err)
		assert.Equal(t, want, v, "边界区域的值不变")
	}
	assert.ErrorIs(t, s.SetInitialGuess("Y", [][]float64{{0}, {1}}), types.ErrNameNotFound)
}

func TestSettings(t *testing.T) {
	s := newStack(t, 5)
	require.NoError(t, s.SetMaxJacAge(5))
	assert.Equal(t, 5, s.Options().SteadyJacAge)
	assert.Equal(t, 5, s.Options().TransientJacAge)
	require.NoError(t, s.SetMaxJacAge(5, 8))
	assert.Equal(t, 8, s.Options().TransientJacAge)
	assert.ErrorIs(t, s.SetMaxJacAge(0), types.ErrInvalidArgument)

	require.NoError(t, s.SetTimeStep(1e-4, []int{1, 2, 5, 10}))
	assert.Equal(t, []int{1, 2, 5, 10}, s.Options().Steps)
	assert.ErrorIs(t, s.SetTimeStep(-1, []int{1}), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetTimeStep(1e-4, nil), types.ErrInvalidArgument)
	assert.Equal(t, 1e-4, s.Options().TimeStep, "失败的修改不生效")
	assert.ErrorIs(t, s.SetTimeStepLimits(1, 0.5), types.ErrInvalidArgument)

	require.NoError(t, s.SetRefineCriteria(-1, 5, 0.5, 0.5, 0.1))
	assert.Equal(t, 5.0, s.Domains[1].Criteria.Ratio)
	assert.ErrorIs(t, s.SetRefineCriteria(1, 0.5, 0.5, 0.5, 0.1), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetRefineCriteria(0, 5, 0.5, 0.5, 0.1), types.ErrInvalidArgument, "连接区域没有网格")
	assert.Equal(t, 0.1, s.Domains[1].Criteria.Prune)

	require.NoError(t, s.SetGridMin(1, 1e-6))
	assert.Equal(t, 1e-6, s.Domains[1].GridMin)
	assert.ErrorIs(t, s.SetGridMin(1, 0), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetMaxGridPoints(1, 3), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetTolerances(-1, 0, 1e-9, false), types.ErrInvalidArgument)

	for _, v := range []float64{0, -300, math.NaN()} {
		assert.ErrorIs(t, s.SetFixedTemperature(v), types.ErrInvalidArgument)
	}
}

func TestRefineActive(t *testing.T) {
	s := newStack(t, 6)
	require.NoError(t, s.SetRefineCriteria(-1, 10, 0.15, 0.5, -0.001))
	require.NoError(t, s.SetRefineActive(-1, "T", false))
	assert.False(t, s.Domains[1].RefineActive(0))
	require.NoError(t, s.Solve(context.Background(), 0, true))
	z, _ := s.Grid(1)
	assert.Len(t, z, 6, "不参与细化的分量不插入网格点")

	require.NoError(t, s.SetRefineActive(1, "T", true))
	require.NoError(t, s.Solve(context.Background(), 0, true))
	z, _ = s.Grid(1)
	assert.Greater(t, len(z), 6)

	assert.ErrorIs(t, s.SetRefineActive(1, "Y", true), types.ErrNameNotFound)
	assert.ErrorIs(t, s.SetRefineActive(-1, "Y", true), types.ErrNameNotFound)
	assert.ErrorIs(t, s.SetRefineActive(0, "T", true), types.ErrInvalidArgument)
	assert.ErrorIs(t, s.SetRefineActive(7, "T", true), types.ErrDomainNotFound)
}

func TestSolve(t *testing.T) {
	s := newStack(t, 6)
	require.NoError(t, s.SetRefineCriteria(-1, 10, 0.15, 0.5, -0.001))
	require.NoError(t, s.Solve(context.Background(), 0, true))

	z, err := s.Grid(1)
	require.NoError(t, err)
	assert.Greater(t, len(z), 6, "细化应插入网格点")
	T, err := s.Solution(1, "T")
	require.NoError(t, err)
	for j := 1; j < len(z); j++ {
		assert.Greater(t, z[j], z[j-1])
		assert.Greater(t, T[j], T[j-1])
		assert.LessOrEqual(t, T[j]-T[j-1], 0.15*600+1e-6)
	}
	for j := range z {
		assert.InDelta(t, 300+600*z[j], T[j], 1e-4)
	}
	r, err := s.EvaluateResidual(1, 0, false)
	require.NoError(t, err)
	for _, v := range r[0] {
		assert.Less(t, math.Abs(v), 1e-3)
	}
	assert.Positive(t, s.Stats().Regrids)
	assert.Contains(t, s.String(), "> flow (reaction")

	// 已收敛的网格再次细化不变
	require.NoError(t, s.Solve(context.Background(), 0, true))
	z2, _ := s.Grid(1)
	assert.Equal(t, z, z2)
}

func TestFixedTemperature(t *testing.T) {
	s := newStack(t, 6)
	require.NoError(t, s.SetProfile(1, []string{"T"}, [][]float64{{0, 1}, {300, 900}}))

	assert.ErrorIs(t, s.SetFixedTemperature(1000), types.ErrInvalidArgument, "剖面不经过该温度")
	assert.ErrorIs(t, s.SetFixedTemperature(300), types.ErrInvalidArgument, "边界点不能固定")
	require.NoError(t, s.SetFixedTemperature(500))
	assert.Equal(t, 500.0, s.FixedTemperature())
	z, _ := s.Grid(1)
	require.Len(t, z, 7)
	assert.InDelta(t, 1.0/3, z[2], 1e-12)
	v, _ := s.Value(1, "T", 2)
	assert.Equal(t, 500.0, v)

	// 已有网格点处不插入
	require.NoError(t, s.SetFixedTemperature(540))
	z, _ = s.Grid(1)
	assert.Len(t, z, 7)

	require.NoError(t, s.Solve(context.Background(), 0, false))
	v, _ = s.Value(1, "T", 3)
	assert.InDelta(t, 540, v, 1e-6)

	s.ClearFixedTemperature()
	assert.Zero(t, s.FixedTemperature())
	require.NoError(t, s.Solve(context.Background(), 0, false))
}

func TestSaveRestore(t *testing.T) {
	file := filepath.Join(t.TempDir(), "solution.yaml")
	s := newStack(t, 6)
	require.NoError(t, s.SetRefineCriteria(-1, 10, 0.15, 0.5, -0.001))
	require.NoError(t, s.Solve(context.Background(), 0, true))
	require.NoError(t, s.Save(file, "run1", "linear profile"))

	fresh := newStack(t, 6)
	require.NoError(t, fresh.Restore(file, "run1"))
	for i := range s.Domains {
		want, _ := s.SolutionMatrix(i)
		got, err := fresh.SolutionMatrix(i)
		require.NoError(t, err)
		require.Len(t, got, len(want))
		for n := range want {
			assert.InDeltaSlice(t, want[n], got[n], 1e-12)
		}
		zw, _ := s.Grid(i)
		zg, _ := fresh.Grid(i)
		assert.Equal(t, zw, zg)
	}
	assert.Equal(t, s.Size(), fresh.Size())

	assert.ErrorIs(t, fresh.Restore(file, "run2"), types.ErrNameNotFound)
	assert.ErrorIs(t, s.Save(file, "", ""), types.ErrInvalidArgument)

	// 区域结构不同
	r, err := base.NewReaction(base.ReactionParams{Components: []string{"T", "Y"}})
	require.NoError(t, err)
	flow, err := domain.New("flow", r, linspace(0, 1, 4))
	require.NoError(t, err)
	other, err := onedim.New([]*domain.Domain{fixed(t, "inlet", 300), flow, fixed(t, "outlet", 900)})
	require.NoError(t, err)
	assert.ErrorIs(t, other.Restore(file, "run1"), types.ErrIncompatibleSolution)
}

// 300 | a | 界面 | b | 900
func composite(t *testing.T) *onedim.Stack {
	iface, err := base.NewInterface(base.InterfaceParams{})
	require.NoError(t, err)
	mid, err := domain.New("iface", iface, nil)
	require.NoError(t, err)
	ra, err := base.NewReaction(base.ReactionParams{Initial: []float64{300}})
	require.NoError(t, err)
	a, err := domain.New("a", ra, linspace(0, 1, 6))
	require.NoError(t, err)
	rb, err := base.NewReaction(base.ReactionParams{Initial: []float64{600}})
	require.NoError(t, err)
	b, err := domain.New("b", rb, linspace(1, 2, 6))
	require.NoError(t, err)
	s, err := onedim.New([]*domain.Domain{fixed(t, "left", 300), a, mid, b, fixed(t, "right", 900)})
	require.NoError(t, err)
	return s
}

func TestRestoreInvalidGrid(t *testing.T) {
	file := filepath.Join(t.TempDir(), "solution.yaml")
	s := composite(t)
	require.NoError(t, s.SetProfile(1, []string{"T"}, [][]float64{{0, 1}, {111, 222}}))
	require.NoError(t, s.Save(file, "run", ""))

	sol, err := store.Restore(file, "run")
	require.NoError(t, err)
	sol.Domains[3].Grid[1] = 0.5
	require.NoError(t, store.Save(file, *sol))

	fresh := composite(t)
	before, _ := fresh.SolutionMatrix(1)
	err = fresh.Restore(file, "run")
	assert.ErrorIs(t, err, types.ErrIncompatibleSolution)
	after, _ := fresh.SolutionMatrix(1)
	assert.Equal(t, before, after, "恢复失败时不修改任何区域")
	z, _ := fresh.Grid(3)
	assert.Equal(t, linspace(1, 2, 6), z)
}

func TestParallelSolve(t *testing.T) {
	s := newStack(t, 8, onedim.Parallel(true))
	require.NoError(t, s.Solve(context.Background(), 0, false))
	T, _ := s.Solution(1, "T")
	assert.InDelta(t, 900, T[len(T)-1], 1e-4)
	assert.Positive(t, s.Stats().ParallelEvals)

	// 修改其他求解器配置后并行设置保持不变
	require.NoError(t, s.SetMaxJacAge(3))
	assert.True(t, s.Options().Parallel)
	s.ResetStats()
	require.NoError(t, s.Solve(context.Background(), 0, false))
	assert.Positive(t, s.Stats().ParallelEvals)

	serial := newStack(t, 8)
	require.NoError(t, serial.Solve(context.Background(), 0, false))
	assert.Zero(t, serial.Stats().ParallelEvals)
}
