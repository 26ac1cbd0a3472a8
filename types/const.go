package types

// 默认参数常量定义
var (
	DefaultSteadyJacAge     = 20    // 稳态雅可比最大年龄
	DefaultTransientJacAge  = 20    // 瞬态雅可比最大年龄
	DefaultTimeStep         = 1e-5  // 默认伪时间步长
	DefaultMinTimeStep      = 1e-16 // 最小伪时间步长
	DefaultMaxTimeStep      = 0.08  // 最大伪时间步长
	DefaultTimeStepGrowth   = 1.5   // 成功后步长增长系数
	DefaultTimeStepShrink   = 0.5   // 失败后步长缩减系数
	DefaultMaxNewtonIter    = 100   // 单次牛顿求解最大迭代数
	DefaultMaxAlternations  = 20    // 牛顿/时间推进最大交替次数
	DefaultMaxRefineCycles  = 40    // 网格细化最大轮数
	DefaultDampingTries     = 7     // 阻尼回退最大次数
	DefaultDampingFactor    = 1.4142135623730951
	DefaultSteadyRtol       = 1e-4  // 稳态相对容差
	DefaultSteadyAtol       = 1e-9  // 稳态绝对容差
	DefaultTransientRtol    = 1e-4  // 瞬态相对容差
	DefaultTransientAtol    = 1e-11 // 瞬态绝对容差
	DefaultGridMin          = 1e-10 // 最小网格间距
	DefaultMaxGridPoints    = 1000  // 单区域最大网格点数
	DefaultRefineRatio      = 10.0  // 相邻网格比值上限
	DefaultRefineSlope      = 0.8   // 相对值变化上限
	DefaultRefineCurve      = 0.8   // 相对斜率变化上限
	DefaultRefinePrune      = -0.001
	DefaultRefineMinRange   = 0.01
	DefaultFiniteDiffRelTol = 1e-7 // 有限差分相对扰动
	DefaultFiniteDiffAbsTol = 1e-10
)

// DefaultTimeSteps 默认时间推进步数序列
func DefaultTimeSteps() []int { return []int{10} }
