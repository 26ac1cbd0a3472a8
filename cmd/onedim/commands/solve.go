package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"onedim"
	"onedim/config"
	"onedim/debug"
	"onedim/metrics"
	"onedim/types"
	"onedim/utils"
)

// solveFlags solve 与 watch 共用的参数
type solveFlags struct {
	configPath string
	logLevel   int
	levelSet   bool
	noRefine   bool
	printSol   bool
	tracePath  string
	spansPath  string
}

func (f *solveFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "stack config file")
	cmd.Flags().IntVarP(&f.logLevel, "log-level", "l", 0, "solver log verbosity (0-3), overrides the config")
	cmd.Flags().BoolVar(&f.noRefine, "no-refine", false, "disable grid refinement")
	cmd.Flags().BoolVarP(&f.printSol, "print", "p", false, "print the solution")
	cmd.Flags().StringVar(&f.tracePath, "trace", "", "write solve snapshots as JSON")
	cmd.Flags().StringVar(&f.spansPath, "spans", "", "write OpenTelemetry spans as JSON")
	cmd.MarkFlagRequired("config")
}

func newSolveCommand() *cobra.Command {
	var f solveFlags

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "按栈配置文件求解",
		Long: `读取栈配置文件，构建区域栈并求解。

配置中的 output 段决定输出：
  - file/id/description 保存解
  - plot/component 绘制剖面 PNG
  - metrics 写出 Prometheus 文本格式指标`,
		Example: `  # 求解并打印解
  onedim solve -c stack.yaml --print

  # 每次迭代输出日志，并记录求解过程快照
  onedim solve -c stack.yaml --log-level 3 --trace trace.json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.levelSet = cmd.Flags().Changed("log-level")
			return runSolve(cmd.Context(), f, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	f.register(cmd)

	return cmd
}

// runSolve 加载配置、求解并写出配置要求的输出
func runSolve(ctx context.Context, f solveFlags, out, errOut io.Writer) (err error) {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.levelSet {
		cfg.Solver.LogLevel = f.logLevel
	}
	if f.noRefine {
		cfg.Solver.Refine = false
	}
	cfg.Log.Output = errOut
	logger := utils.NewLogger(cfg.Log)

	reg := prometheus.NewRegistry()
	m, err := metrics.New(reg, "onedim")
	if err != nil {
		return err
	}
	opts := []onedim.Option{onedim.WithLogger(logger), onedim.WithMetrics(m)}
	rec := &debug.Record{Limit: 256}
	if f.tracePath != "" {
		opts = append(opts, onedim.WithDebug(rec))
	}
	if f.spansPath != "" {
		file, ferr := os.Create(f.spansPath)
		if ferr != nil {
			return ferr
		}
		defer file.Close()
		exp, ferr := stdouttrace.New(stdouttrace.WithWriter(file))
		if ferr != nil {
			return ferr
		}
		tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
		defer func() {
			if serr := tp.Shutdown(context.WithoutCancel(ctx)); err == nil {
				err = serr
			}
		}()
		opts = append(opts, onedim.WithTracerProvider(tp))
	}
	s, err := cfg.Build(opts...)
	if err != nil {
		return err
	}
	solveErr := s.Solve(ctx, cfg.Solver.LogLevel, cfg.Solver.Refine)

	if f.tracePath != "" {
		if err := writeFile(f.tracePath, rec.Render); err != nil {
			return err
		}
		logger.Info().Str("file", f.tracePath).
			Int(types.StageSteady.String(), rec.Count(types.StageSteady)).
			Int(types.StageTimeStep.String(), rec.Count(types.StageTimeStep)).
			Int(types.StageRefine.String(), rec.Count(types.StageRefine)).
			Msg("写出求解快照")
	}
	if cfg.Output.Metrics != "" {
		if err := writeFile(cfg.Output.Metrics, func(w io.Writer) error { return writeMetrics(w, reg) }); err != nil {
			return err
		}
	}
	if solveErr != nil {
		return solveErr
	}

	if f.printSol {
		fmt.Fprint(out, s)
	}
	st := s.Stats()
	fmt.Fprint(out, st.String())
	if cfg.Output.File != "" {
		id := cfg.Output.ID
		if id == "" {
			id = "solution"
		}
		if err := s.Save(cfg.Output.File, id, cfg.Output.Description); err != nil {
			return err
		}
	}
	if cfg.Output.Plot != "" {
		component := cfg.Output.Component
		if component == "" {
			component = "T"
		}
		return writeFile(cfg.Output.Plot, func(w io.Writer) error {
			return debug.WritePNG(w, s.Snapshot(), component, plotWidth, plotHeight)
		})
	}
	return nil
}

// writeMetrics 以 Prometheus 文本格式写出
func writeMetrics(w io.Writer, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
