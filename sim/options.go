package sim

import (
	"onedim/types"
)

// Stencil 残差耦合半径（以全局点计）
// 扩展区域内点只依赖相邻点，连接区域的通量方程依赖相隔两点的值
const Stencil = 2

// Options 求解器配置
type Options struct {
	SteadyJacAge    int     // 稳态雅可比最大年龄
	TransientJacAge int     // 瞬态雅可比最大年龄
	TimeStep        float64 // 初始伪时间步长
	Steps           []int   // 每轮时间推进的步数
	MinTimeStep     float64 // 最小步长，低于此值时间推进失败
	MaxTimeStep     float64 // 最大步长
	TimeStepGrowth  float64 // 成功后增长系数
	TimeStepShrink  float64 // 失败后缩减系数
	MaxNewtonIter   int     // 单次牛顿求解最大迭代数
	MaxAlternations int     // 牛顿/时间推进最大交替次数
	MaxRefineCycles int     // 最大细化轮数
	DampingTries    int     // 阻尼回退次数
	DampingFactor   float64 // 每次回退的缩减系数
	FiniteDiffRel   float64 // 有限差分相对扰动
	FiniteDiffAbs   float64 // 有限差分绝对扰动
	Parallel        bool    // 扩展区域并行计算残差
}

// DefaultOptions 默认配置
func DefaultOptions() Options {
	return Options{
		SteadyJacAge:    types.DefaultSteadyJacAge,
		TransientJacAge: types.DefaultTransientJacAge,
		TimeStep:        types.DefaultTimeStep,
		Steps:           types.DefaultTimeSteps(),
		MinTimeStep:     types.DefaultMinTimeStep,
		MaxTimeStep:     types.DefaultMaxTimeStep,
		TimeStepGrowth:  types.DefaultTimeStepGrowth,
		TimeStepShrink:  types.DefaultTimeStepShrink,
		MaxNewtonIter:   types.DefaultMaxNewtonIter,
		MaxAlternations: types.DefaultMaxAlternations,
		MaxRefineCycles: types.DefaultMaxRefineCycles,
		DampingTries:    types.DefaultDampingTries,
		DampingFactor:   types.DefaultDampingFactor,
		FiniteDiffRel:   types.DefaultFiniteDiffRelTol,
		FiniteDiffAbs:   types.DefaultFiniteDiffAbsTol,
	}
}

// Validate 检查配置
func (o *Options) Validate() error {
	const op = "solver options"
	switch {
	case o.SteadyJacAge < 1 || o.TransientJacAge < 1:
		return types.Errorf(op, types.ErrInvalidArgument, "jacobian age limits must be >= 1")
	case !(o.TimeStep > 0):
		return types.Errorf(op, types.ErrInvalidArgument, "time step %g must be positive", o.TimeStep)
	case len(o.Steps) == 0:
		return types.Errorf(op, types.ErrInvalidArgument, "empty time step schedule")
	case !(o.MinTimeStep > 0) || o.MaxTimeStep < o.MinTimeStep:
		return types.Errorf(op, types.ErrInvalidArgument, "time step limits [%g, %g]", o.MinTimeStep, o.MaxTimeStep)
	case !(o.TimeStepGrowth >= 1) || !(o.TimeStepShrink > 0 && o.TimeStepShrink < 1):
		return types.Errorf(op, types.ErrInvalidArgument, "time step growth %g shrink %g", o.TimeStepGrowth, o.TimeStepShrink)
	case o.MaxNewtonIter < 1 || o.MaxAlternations < 0 || o.MaxRefineCycles < 1:
		return types.Errorf(op, types.ErrInvalidArgument, "iteration limits must be positive")
	case o.DampingTries < 1 || !(o.DampingFactor > 1):
		return types.Errorf(op, types.ErrInvalidArgument, "damping tries %d factor %g", o.DampingTries, o.DampingFactor)
	case !(o.FiniteDiffRel > 0) || !(o.FiniteDiffAbs > 0):
		return types.Errorf(op, types.ErrInvalidArgument, "finite difference perturbation must be positive")
	}
	for _, n := range o.Steps {
		if n < 1 {
			return types.Errorf(op, types.ErrInvalidArgument, "time step count %d must be >= 1", n)
		}
	}
	return nil
}
