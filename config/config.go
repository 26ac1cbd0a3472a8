package config

import (
	"fmt"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"onedim/refine"
	"onedim/sim"
	"onedim/utils"
)

// EnvPrefix 环境变量前缀
const EnvPrefix = "ONEDIM_"

// Config 栈配置文件
type Config struct {
	Domains  []DomainConfig  `yaml:"domains" env:"-" validate:"required,min=1,dive"`
	Solver   SolverConfig    `yaml:"solver" envPrefix:"SOLVER_"`
	Refine   *RefineConfig   `yaml:"refine" env:"-"` // 全部扩展区域的判据
	Log      utils.LogConfig `yaml:"log" envPrefix:"LOG_"`
	Parallel bool            `yaml:"parallel" env:"PARALLEL"`
	Output   OutputConfig    `yaml:"output" envPrefix:"OUTPUT_"`
}

// DomainConfig 区域配置，扩展区域由 grid 或 points/start/length 给出网格
type DomainConfig struct {
	Name      string          `yaml:"name" validate:"required"`
	Type      string          `yaml:"type" validate:"required"`
	Grid      []float64       `yaml:"grid,flow"`
	Points    int             `yaml:"points" validate:"omitempty,min=2"`
	Start     float64         `yaml:"start"`
	Length    float64         `yaml:"length" validate:"gte=0"`
	Params    map[string]any  `yaml:"params"`
	Profiles  []ProfileConfig `yaml:"profiles" validate:"dive"`
	GridMin   float64         `yaml:"grid_min" validate:"gte=0"`
	MaxPoints int             `yaml:"max_points" validate:"gte=0"`
	Refine    *RefineConfig   `yaml:"refine"` // 覆盖全局判据中给出的字段
	// RefineComponents 参与细化的分量，空表示全部
	RefineComponents []string `yaml:"refine_components,flow"`
}

// RefineConfig 细化判据，未给出的字段保留默认值（或全局配置的值）
type RefineConfig struct {
	Ratio     *float64 `yaml:"ratio"`
	Slope     *float64 `yaml:"slope"`
	Curve     *float64 `yaml:"curve"`
	Prune     *float64 `yaml:"prune"`
	MinRange  *float64 `yaml:"min_range"`
	Threshold *float64 `yaml:"threshold"`
}

// Apply 将已给出的字段写入 c
func (r *RefineConfig) Apply(c *refine.Criteria) {
	if r == nil {
		return
	}
	set := func(dst, v *float64) {
		if v != nil {
			*dst = *v
		}
	}
	set(&c.Ratio, r.Ratio)
	set(&c.Slope, r.Slope)
	set(&c.Curve, r.Curve)
	set(&c.Prune, r.Prune)
	set(&c.MinRange, r.MinRange)
	set(&c.Threshold, r.Threshold)
}

// ProfileConfig 初值剖面：归一化位置与对应值
type ProfileConfig struct {
	Component string    `yaml:"component" validate:"required"`
	Positions []float64 `yaml:"positions,flow" validate:"required,min=1"`
	Values    []float64 `yaml:"values,flow" validate:"required,min=1"`
}

// SolverConfig 求解器配置，零值取默认
type SolverConfig struct {
	SteadyJacAge     int       `yaml:"steady_jac_age" validate:"gte=0"`
	TransientJacAge  int       `yaml:"transient_jac_age" validate:"gte=0"`
	TimeStep         float64   `yaml:"time_step" validate:"gte=0"`
	Steps            []int     `yaml:"steps,flow" validate:"omitempty,dive,gt=0"`
	MinTimeStep      float64   `yaml:"min_time_step" validate:"gte=0"`
	MaxTimeStep      float64   `yaml:"max_time_step" validate:"gte=0"`
	MaxNewtonIter    int       `yaml:"max_newton_iter" validate:"gte=0"`
	MaxAlternations  int       `yaml:"max_alternations" validate:"gte=0"`
	MaxRefineCycles  int       `yaml:"max_refine_cycles" validate:"gte=0"`
	FixedTemperature float64   `yaml:"fixed_temperature" validate:"gte=0"`
	Tolerances       Tolerance `yaml:"tolerances"`
	Transient        Tolerance `yaml:"transient_tolerances"`
	Refine           bool      `yaml:"refine" env:"REFINE"`
	LogLevel         int       `yaml:"log_level" env:"LOG_LEVEL" validate:"gte=0"`
}

// Tolerance 相对与绝对容差
type Tolerance struct {
	Rtol float64 `yaml:"rtol" validate:"gte=0"`
	Atol float64 `yaml:"atol" validate:"gte=0"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	File        string `yaml:"file" env:"FILE"`
	ID          string `yaml:"id" env:"ID"`
	Description string `yaml:"description"`
	Plot        string `yaml:"plot" env:"PLOT"` // PNG 文件
	Component   string `yaml:"component"`
	Metrics     string `yaml:"metrics" env:"METRICS"` // Prometheus 文本格式
}

// Parse 解析 YAML，之后应用环境变量并检查
func Parse(data []byte) (*Config, error) {
	cfg := new(Config)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load 读取配置文件
func Load(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return cfg, nil
}

// Validate 结构检查，数值约束由各模块在构建时检查
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	seen := make(map[string]bool, len(c.Domains))
	for _, d := range c.Domains {
		if seen[d.Name] {
			return fmt.Errorf("validate config: duplicate domain %q", d.Name)
		}
		seen[d.Name] = true
	}
	return nil
}

// Options 与默认值合并后的求解器配置
func (s *SolverConfig) Options() sim.Options {
	o := sim.DefaultOptions()
	setInt := func(dst *int, v int) {
		if v > 0 {
			*dst = v
		}
	}
	setFloat := func(dst *float64, v float64) {
		if v > 0 {
			*dst = v
		}
	}
	if s.SteadyJacAge > 0 {
		// 瞬态年龄未给出时与稳态相同
		o.SteadyJacAge, o.TransientJacAge = s.SteadyJacAge, s.SteadyJacAge
	}
	setInt(&o.TransientJacAge, s.TransientJacAge)
	setFloat(&o.TimeStep, s.TimeStep)
	if len(s.Steps) > 0 {
		o.Steps = append([]int(nil), s.Steps...)
	}
	setFloat(&o.MinTimeStep, s.MinTimeStep)
	setFloat(&o.MaxTimeStep, s.MaxTimeStep)
	setInt(&o.MaxNewtonIter, s.MaxNewtonIter)
	setInt(&o.MaxAlternations, s.MaxAlternations)
	setInt(&o.MaxRefineCycles, s.MaxRefineCycles)
	return o
}

// grid 扩展区域网格，未给出时为 nil
func (d *DomainConfig) grid() []float64 {
	if len(d.Grid) > 0 {
		return d.Grid
	}
	if d.Points < 2 {
		return nil
	}
	z := make([]float64, d.Points)
	for j := range z {
		z[j] = d.Start + d.Length*float64(j)/float64(d.Points-1)
	}
	return z
}
