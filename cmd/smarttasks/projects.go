package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"smarttasks/client"
	"smarttasks/internal/model"
)

func newProjectsCommand(local *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "projects",
		Aliases: []string{"project"},
		Short:   "Manage projects",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list",
		Short: "List projects in the active tenant",
		RunE: func(cc *cobra.Command, _ []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.svc.ListProjects(cc.Context(), page, size)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cc.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tCREATED")
			for _, p := range result.Content {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.ID, p.Name, p.CreatedAt.Format("2006-01-02"))
			}
			w.Flush()
			fmt.Fprintf(cc.OutOrStdout(), "Page %d/%d, %d project(s) total\n",
				result.Number+1, max(result.TotalPages, 1), result.TotalElements)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	list.Flags().IntVar(&size, "size", 20, "Page size")

	create := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.svc.CreateProject(cc.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cc.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show one project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.svc.GetProject(cc.Context(), args[0])
			if err != nil {
				return err
			}
			if p == nil {
				return fmt.Errorf("project %s not found", args[0])
			}
			fmt.Fprintf(cc.OutOrStdout(), "ID:      %s\nName:    %s\nTenant:  %s\nCreated: %s\n",
				p.ID, p.Name, p.TenantID, p.CreatedAt.Format("2006-01-02 15:04:05"))
			return nil
		},
	}

	cmd.AddCommand(list, create, show, newProjectsOverviewCommand(local))
	return cmd
}

// overviewRow pairs a project with its task count and nearest due date.
type overviewRow struct {
	project model.Project
	tasks   int64
	nextDue string
	err     error
}

func newProjectsOverviewCommand(local *bool) *cobra.Command {
	var size int
	cmd := &cobra.Command{
		Use:   "overview",
		Short: "Summarize every project with its task load",
		Long: `Fetch the first page of projects, then the tasks of each project
concurrently, and print one summary line per project.`,
		RunE: func(cc *cobra.Command, _ []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			projects, err := e.svc.ListProjects(cc.Context(), 0, size)
			if err != nil {
				return err
			}

			rows := make([]overviewRow, len(projects.Content))
			var wg sync.WaitGroup
			for i, p := range projects.Content {
				wg.Add(1)
				go func(i int, p model.Project) {
					defer wg.Done()
					rows[i] = summarizeProject(cc.Context(), e.svc, p)
				}(i, p)
			}
			wg.Wait()

			w := tabwriter.NewWriter(cc.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PROJECT\tTASKS\tNEXT DUE")
			for _, row := range rows {
				if row.err != nil {
					fmt.Fprintf(w, "%s\t-\t(error: %v)\n", row.project.Name, row.err)
					continue
				}
				fmt.Fprintf(w, "%s\t%d\t%s\n", row.project.Name, row.tasks, row.nextDue)
			}
			w.Flush()
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 20, "How many projects to summarize")
	return cmd
}

func summarizeProject(ctx context.Context, svc client.Service, p model.Project) overviewRow {
	row := overviewRow{project: p, nextDue: "-"}

	tasks, err := svc.ListTasks(ctx, p.ID, 0, 100)
	if err != nil {
		row.err = err
		return row
	}
	row.tasks = tasks.TotalElements

	due := make([]model.Task, 0, len(tasks.Content))
	for _, t := range tasks.Content {
		if t.DueDate != nil {
			due = append(due, t)
		}
	}
	if len(due) > 0 {
		sort.Slice(due, func(i, j int) bool { return due[i].DueDate.Before(*due[j].DueDate) })
		row.nextDue = fmt.Sprintf("%s (%s)", due[0].DueDate.Format("2006-01-02"), due[0].Title)
	}
	return row
}
