package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func newDashboardCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show a summary of the active tenant",
		RunE: func(cc *cobra.Command, _ []string) error {
			e, err := openEnv(false)
			if err != nil {
				return err
			}
			defer e.Close()

			d, err := e.api.Dashboard(cc.Context())
			if err != nil {
				return err
			}

			out := cc.OutOrStdout()
			fmt.Fprintf(out, "Active projects: %d\n", d.ActiveProjectsCount)
			fmt.Fprintf(out, "Total tasks:     %d\n", d.TotalTasksCount)
			fmt.Fprintf(out, "Overdue tasks:   %d\n", d.OverdueTasksCount)

			if len(d.LatestProjects) == 0 {
				return nil
			}
			fmt.Fprintln(out, "\nLatest projects:")
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			for _, p := range d.LatestProjects {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}
