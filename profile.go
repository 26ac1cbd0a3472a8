package onedim

import (
	"math"

	"onedim/domain"
	"onedim/maths"
	"onedim/types"
)

// Solution 分量在各网格点上的值
func (s *Stack) Solution(dom int, component string) ([]float64, error) {
	d, n, err := s.component("solution", dom, component)
	if err != nil {
		return nil, err
	}
	return d.Component(n), nil
}

// SolutionMatrix 区域全部分量的值，[分量][点]
func (s *Stack) SolutionMatrix(dom int) ([][]float64, error) {
	d, err := s.domain("solution", dom)
	if err != nil {
		return nil, err
	}
	return d.Matrix(), nil
}

// Value 单点取值
func (s *Stack) Value(dom int, component string, point int) (float64, error) {
	d, n, err := s.component("value", dom, component)
	if err != nil {
		return 0, err
	}
	if err := d.Check(n, point); err != nil {
		return 0, err
	}
	return d.Value(n, point), nil
}

// SetValue 单点赋值
func (s *Stack) SetValue(dom int, component string, point int, v float64) error {
	d, n, err := s.component("set value", dom, component)
	if err != nil {
		return err
	}
	if err := d.Check(n, point); err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.DomainErrorf("set value", d.Name, types.ErrInvalidArgument, "non-finite value %g", v)
	}
	d.SetValue(n, point, v)
	s.session.Commit()
	return nil
}

// SetFlatProfile 分量在全部网格点上取同一值
func (s *Stack) SetFlatProfile(dom int, component string, v float64) error {
	d, n, err := s.component("set flat profile", dom, component)
	if err != nil {
		return err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return types.DomainErrorf("set flat profile", d.Name, types.ErrInvalidArgument, "non-finite value %g", v)
	}
	d.SetFlatProfile(n, v)
	s.session.Commit()
	return nil
}

// SetProfile 按归一化位置表线性插值到当前网格
// table[0] 为 [0,1] 内严格递增的位置，table[1+k] 为 components[k] 的值；单列表示常数
func (s *Stack) SetProfile(dom int, components []string, table [][]float64) error {
	const op = "set profile"
	d, err := s.domain(op, dom)
	if err != nil {
		return err
	}
	idx, err := profileColumns(op, d, components, table)
	if err != nil {
		return err
	}
	if err := applyProfile(op, d, idx, table); err != nil {
		return err
	}
	s.session.Commit()
	return nil
}

// SetInitialGuess 对含有该分量的每个扩展区域应用同一剖面表（两行：位置与值）
// 连接区域的值不变
func (s *Stack) SetInitialGuess(component string, table [][]float64) error {
	const op = "set initial guess"
	var targets []*domain.Domain
	for _, d := range s.Domains {
		if d.Kind() == types.Extended && d.HasComponent(component) {
			targets = append(targets, d)
		}
	}
	if len(targets) == 0 {
		return types.Errorf(op, types.ErrNameNotFound, "no extended domain has component %q", component)
	}
	for _, d := range targets {
		idx, err := profileColumns(op, d, []string{component}, table)
		if err != nil {
			return err
		}
		if err := applyProfile(op, d, idx, table); err != nil {
			return err
		}
	}
	s.session.Commit()
	return nil
}

// profileColumns 检查表的形状并解析分量序号
func profileColumns(op string, d *domain.Domain, components []string, table [][]float64) ([]int, error) {
	if len(components) == 0 || len(table) != len(components)+1 {
		return nil, types.DomainErrorf(op, d.Name, types.ErrShapeMismatch, "%d table rows for %d components", len(table), len(components))
	}
	cols := len(table[0])
	if cols == 0 {
		return nil, types.DomainErrorf(op, d.Name, types.ErrShapeMismatch, "empty profile table")
	}
	for k, row := range table {
		if len(row) != cols {
			return nil, types.DomainErrorf(op, d.Name, types.ErrShapeMismatch, "row %d has %d columns, want %d", k, len(row), cols)
		}
		if !maths.IsFinite(row) {
			return nil, types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "non-finite entry in row %d", k)
		}
	}
	if !maths.StrictlyIncreasing(table[0]) {
		return nil, types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "profile positions %v not strictly increasing", table[0])
	}
	if table[0][0] < 0 || table[0][cols-1] > 1 {
		return nil, types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "profile positions outside [0,1]")
	}
	idx := make([]int, len(components))
	for k, c := range components {
		n, err := d.ComponentIndex(c)
		if err != nil {
			return nil, err
		}
		idx[k] = n
	}
	return idx, nil
}

func applyProfile(op string, d *domain.Domain, idx []int, table [][]float64) error {
	s := maths.Normalize(d.Grid())
	for k, n := range idx {
		l, err := maths.NewLinear(table[0], table[k+1])
		if err != nil {
			return types.DomainErrorf(op, d.Name, types.ErrInvalidArgument, "%v", err)
		}
		v := make([]float64, len(s))
		for j, sj := range s {
			v[j] = l.At(sj)
		}
		d.SetComponent(n, v)
	}
	return nil
}
