package onedim

import (
	"time"

	"onedim/store"
	"onedim/types"
)

// data 各区域当前的网格与值
func (s *Stack) data() []store.DomainData {
	out := make([]store.DomainData, len(s.Domains))
	for i, d := range s.Domains {
		out[i] = store.DomainData{
			Name:       d.Name,
			Type:       d.Type(),
			Components: d.Components(),
			Grid:       d.Grid(),
			Values:     d.Matrix(),
		}
	}
	return out
}

// Save 以 id 保存当前解，同 id 的解被替换
func (s *Stack) Save(file, id, description string) error {
	if id == "" {
		return types.Errorf("save", types.ErrInvalidArgument, "empty solution id")
	}
	err := store.Save(file, store.Solution{
		ID:          id,
		Description: description,
		Saved:       time.Now().UTC(),
		Domains:     s.data(),
	})
	if err != nil {
		return err
	}
	s.log.Info().Str("file", file).Str("id", id).Msg("保存解")
	return nil
}

// Restore 读取 id 对应的解，区域结构必须一致，网格取自文件
func (s *Stack) Restore(file, id string) error {
	sol, err := store.Restore(file, id)
	if err != nil {
		return err
	}
	if err := sol.Check(s.data()); err != nil {
		return err
	}
	grids := map[int][]float64{}
	values := map[int][][]float64{}
	for i, d := range s.Domains {
		if d.Kind() == types.Extended {
			grids[i], values[i] = sol.Domains[i].Grid, sol.Domains[i].Values
		}
	}
	if err := s.session.Regrid(grids, values); err != nil {
		return err
	}
	for i, d := range s.Domains {
		if d.Kind() != types.Extended {
			for n, v := range sol.Domains[i].Values {
				d.SetComponent(n, v)
			}
		}
	}
	s.session.Commit()
	s.log.Info().Str("file", file).Str("id", id).Msg("恢复解")
	return nil
}
