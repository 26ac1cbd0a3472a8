package types

import "io"

// Stage 求解阶段
type Stage uint8

const (
	StageSteady   Stage = iota // 稳态牛顿收敛
	StageTimeStep              // 伪时间步被接受
	StageRefine                // 网格已重划分
)

func (s Stage) String() string {
	switch s {
	case StageSteady:
		return "steady"
	case StageTimeStep:
		return "timestep"
	case StageRefine:
		return "refine"
	}
	return "unknown"
}

// Snapshot 求解快照，切片归调用方所有
type Snapshot struct {
	Stage    Stage
	Time     float64       // 累计伪时间
	Domains  []string      // 区域名称
	Grids    [][]float64   // [区域][点]
	Values   [][][]float64 // [区域][分量][点]
	Names    [][]string    // [区域][分量]
	StepNorm float64
}

// Debug 调试观察接口
type Debug interface {
	IsDebug() bool
	Update(s *Snapshot)
	Render(w io.Writer) error
}
