package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"onedim/domain"

	_ "onedim/domain/base"
)

func newTypesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "列出可用的区域类型",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, t := range domain.Types() {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
		},
	}
}
