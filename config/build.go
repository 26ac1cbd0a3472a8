package config

import (
	"fmt"

	"onedim"
	"onedim/domain"
	"onedim/types"
)

// BuildDomains 按配置创建区域
func (c *Config) BuildDomains() ([]*domain.Domain, error) {
	out := make([]*domain.Domain, 0, len(c.Domains))
	for _, dc := range c.Domains {
		p, err := domain.NewPhysics(dc.Type, dc.Params)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", dc.Name, err)
		}
		d, err := domain.New(dc.Name, p, dc.grid())
		if err != nil {
			return nil, err
		}
		if d.Kind() == types.Extended {
			c.Refine.Apply(&d.Criteria)
			dc.Refine.Apply(&d.Criteria)
			if err := d.Criteria.Validate(); err != nil {
				return nil, fmt.Errorf("domain %s: %w", dc.Name, err)
			}
			if dc.GridMin > 0 {
				d.GridMin = dc.GridMin
			}
			if dc.MaxPoints > 0 {
				d.MaxPoints = dc.MaxPoints
			}
			if len(dc.RefineComponents) > 0 {
				for n := range d.NComponents() {
					d.SetRefineActive(n, false)
				}
				for _, name := range dc.RefineComponents {
					n, err := d.ComponentIndex(name)
					if err != nil {
						return nil, err
					}
					d.SetRefineActive(n, true)
				}
			}
		} else if len(dc.RefineComponents) > 0 {
			return nil, types.DomainErrorf("build domains", dc.Name, types.ErrInvalidArgument, "refine components on a connector")
		}
		out = append(out, d)
	}
	return out, nil
}

// Build 按配置创建栈并写入初值剖面、容差与定点温度
func (c *Config) Build(opts ...onedim.Option) (*onedim.Stack, error) {
	domains, err := c.BuildDomains()
	if err != nil {
		return nil, err
	}
	base := []onedim.Option{onedim.WithOptions(c.Solver.Options()), onedim.Parallel(c.Parallel)}
	s, err := onedim.New(domains, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	for i, dc := range c.Domains {
		for _, p := range dc.Profiles {
			if err := s.SetProfile(i, []string{p.Component}, [][]float64{p.Positions, p.Values}); err != nil {
				return nil, err
			}
		}
	}
	for i, tol := range []Tolerance{c.Solver.Tolerances, c.Solver.Transient} {
		if tol.Rtol > 0 || tol.Atol > 0 {
			if err := s.SetTolerances(-1, tol.Rtol, tol.Atol, i == 1); err != nil {
				return nil, err
			}
		}
	}
	if c.Solver.FixedTemperature > 0 {
		if err := s.SetFixedTemperature(c.Solver.FixedTemperature); err != nil {
			return nil, err
		}
	}
	return s, nil
}
