package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Execute 执行根命令
func Execute(ctx context.Context, version, commit string) error {
	return newRootCommand(version, commit).ExecuteContext(ctx)
}

func newRootCommand(version, commit string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "onedim",
		Short: "一维多区域边值问题求解",
		Long: `onedim 把首尾相接的一维区域（入口、反应区、界面、出口）组成一个耦合非线性系统，
用阻尼牛顿迭代求稳态解，失败时退回伪时间推进，并在收敛后自适应细化网格。`,
		Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(newSolveCommand())
	rootCmd.AddCommand(newShowCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newPlotCommand())
	rootCmd.AddCommand(newTypesCommand())

	return rootCmd
}
