package commands

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"onedim/store"
)

func newShowCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show FILE [ID]",
		Short: "列出或显示保存的解",
		Example: `  # 列出文件中的解
  onedim show solution.yaml

  # 显示一个解
  onedim show solution.yaml linear`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				doc, err := store.Load(args[0])
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tSAVED\tDOMAINS\tDESCRIPTION")
				for _, s := range doc.Solutions {
					fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.Saved.Format(time.DateTime), len(s.Domains), s.Description)
				}
				return w.Flush()
			}
			sol, err := store.Restore(args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "%s: %s\n", sol.ID, sol.Description)
			for _, d := range sol.Domains {
				fmt.Fprintf(out, "> %s (%s, %d points)\n", d.Name, d.Type, len(d.Grid))
				if len(d.Components) == 0 {
					continue
				}
				w := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
				fmt.Fprint(w, "z\t")
				for _, c := range d.Components {
					fmt.Fprintf(w, "%s\t", c)
				}
				fmt.Fprintln(w)
				for j, z := range d.Grid {
					fmt.Fprintf(w, "%.6g\t", z)
					for n := range d.Components {
						fmt.Fprintf(w, "%.6g\t", d.Values[n][j])
					}
					fmt.Fprintln(w)
				}
				if err := w.Flush(); err != nil {
					return err
				}
			}
			return nil
		},
	}
	return cmd
}
