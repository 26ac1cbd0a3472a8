package refine

import (
	"math"

	"onedim/types"
)

// Criteria 网格细化判据
type Criteria struct {
	Ratio     float64 `yaml:"ratio" mapstructure:"ratio"`         // 相邻网格间距最大比值，>=1
	Slope     float64 `yaml:"slope" mapstructure:"slope"`         // 相邻点最大相对值变化，[0,1]
	Curve     float64 `yaml:"curve" mapstructure:"curve"`         // 相邻区间最大相对斜率变化，[0,1]
	Prune     float64 `yaml:"prune" mapstructure:"prune"`         // 删除阈值，负值关闭删除
	MinRange  float64 `yaml:"min_range" mapstructure:"min_range"` // 相对变化范围低于此值的分量不参与
	Threshold float64 `yaml:"threshold" mapstructure:"threshold"` // 判据绝对下限
}

// DefaultCriteria 默认判据
func DefaultCriteria() Criteria {
	return Criteria{
		Ratio:    types.DefaultRefineRatio,
		Slope:    types.DefaultRefineSlope,
		Curve:    types.DefaultRefineCurve,
		Prune:    types.DefaultRefinePrune,
		MinRange: types.DefaultRefineMinRange,
	}
}

// Validate 检查判据取值
func (c Criteria) Validate() error {
	const op = "refine criteria"
	for _, v := range []float64{c.Ratio, c.Slope, c.Curve, c.Prune, c.MinRange, c.Threshold} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return types.Errorf(op, types.ErrInvalidArgument, "non-finite value in %+v", c)
		}
	}
	switch {
	case c.Ratio < 1:
		return types.Errorf(op, types.ErrInvalidArgument, "ratio %g < 1", c.Ratio)
	case c.Slope < 0 || c.Slope > 1:
		return types.Errorf(op, types.ErrInvalidArgument, "slope %g not in [0,1]", c.Slope)
	case c.Curve < 0 || c.Curve > 1:
		return types.Errorf(op, types.ErrInvalidArgument, "curve %g not in [0,1]", c.Curve)
	case c.Prune > math.Min(c.Slope, c.Curve):
		return types.Errorf(op, types.ErrInvalidArgument, "prune %g exceeds min(slope, curve)", c.Prune)
	case c.MinRange < 0 || c.Threshold < 0:
		return types.Errorf(op, types.ErrInvalidArgument, "min range and threshold must be non-negative")
	}
	return nil
}
