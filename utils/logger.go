package utils

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// LogConfig 日志配置
type LogConfig struct {
	Level  string    `yaml:"level" env:"LEVEL" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string    `yaml:"format" env:"FORMAT" validate:"omitempty,oneof=console json auto"`
	Output io.Writer `yaml:"-" env:"-"`
}

// NewLogger 创建 zerolog 日志，console 格式面向终端，json 格式面向采集
// auto 在输出为终端时取 console，否则取 json
func NewLogger(cfg LogConfig) zerolog.Logger {
	w := cfg.Output
	if w == nil {
		w = os.Stderr
	}
	format := cfg.Format
	if format == "auto" {
		format = "json"
		if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			format = "console"
		}
	}
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(ParseLevel(cfg.Level))
}

// ParseLevel 解析日志级别，未知值为 info
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(s) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	}
	return zerolog.InfoLevel
}

// SolveLevel 求解日志详细程度到日志级别：0 静默，1 汇总，2 每次尝试，3 及以上每次迭代
func SolveLevel(logLevel int) zerolog.Level {
	switch {
	case logLevel <= 0:
		return zerolog.Disabled
	case logLevel == 1:
		return zerolog.InfoLevel
	case logLevel == 2:
		return zerolog.DebugLevel
	}
	return zerolog.TraceLevel
}
