package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/plot/vg"

	"onedim/debug"
	"onedim/store"
	"onedim/types"
)

// 剖面图尺寸
const (
	plotWidth  = 6 * vg.Inch
	plotHeight = 4 * vg.Inch
)

func newPlotCommand() *cobra.Command {
	var (
		component string
		output    string
	)

	cmd := &cobra.Command{
		Use:     "plot FILE ID",
		Short:   "把保存的解绘制为 PNG",
		Example: `  onedim plot solution.yaml linear --component T -o T.png`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sol, err := store.Restore(args[0], args[1])
			if err != nil {
				return err
			}
			return writeFile(output, func(w io.Writer) error {
				return debug.WritePNG(w, snapshot(sol), component, plotWidth, plotHeight)
			})
		},
	}

	cmd.Flags().StringVar(&component, "component", "T", "component to plot")
	cmd.Flags().StringVarP(&output, "output", "o", "profile.png", "output PNG file")

	return cmd
}

// snapshot 保存的解转为快照
func snapshot(sol *store.Solution) *types.Snapshot {
	s := &types.Snapshot{Stage: types.StageSteady}
	for _, d := range sol.Domains {
		s.Domains = append(s.Domains, d.Name)
		s.Grids = append(s.Grids, d.Grid)
		s.Values = append(s.Values, d.Values)
		s.Names = append(s.Names, d.Components)
	}
	return s
}

// writeFile 创建文件并写入，写入失败时删除
func writeFile(name string, write func(w io.Writer) error) (err error) {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			os.Remove(name)
		}
	}()
	return write(f)
}
