package main

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"smarttasks/client"
)

func newTasksCommand(local *bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Manage tasks within a project",
	}

	var page, size int
	list := &cobra.Command{
		Use:   "list <project-id>",
		Short: "List the tasks of a project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			result, err := e.svc.ListTasks(cc.Context(), args[0], page, size)
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cc.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tTITLE\tDUE")
			for _, t := range result.Content {
				due := "-"
				if t.DueDate != nil {
					due = t.DueDate.Format("2006-01-02")
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", t.ID, t.Title, due)
			}
			w.Flush()
			fmt.Fprintf(cc.OutOrStdout(), "Page %d/%d, %d task(s) total\n",
				result.Number+1, max(result.TotalPages, 1), result.TotalElements)
			return nil
		},
	}
	list.Flags().IntVar(&page, "page", 0, "Zero-based page number")
	list.Flags().IntVar(&size, "size", 20, "Page size")

	var (
		description string
		due         string
	)
	create := &cobra.Command{
		Use:   "create <project-id> <title>",
		Short: "Create a task in a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			req := client.TaskCreate{Title: args[1], Description: description}
			if due != "" {
				d, err := time.Parse("2006-01-02", due)
				if err != nil {
					return fmt.Errorf("parse --due: %w", err)
				}
				req.DueDate = &d
			}

			t, err := e.svc.CreateTask(cc.Context(), args[0], req)
			if err != nil {
				return err
			}
			fmt.Fprintf(cc.OutOrStdout(), "Created task %s (%s)\n", t.Title, t.ID)
			return nil
		},
	}
	create.Flags().StringVar(&description, "description", "", "Task description")
	create.Flags().StringVar(&due, "due", "", "Due date (YYYY-MM-DD)")

	show := &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			e, err := openEnv(*local)
			if err != nil {
				return err
			}
			defer e.Close()

			t, err := e.svc.GetTask(cc.Context(), args[0])
			if err != nil {
				return err
			}
			if t == nil {
				return fmt.Errorf("task %s not found", args[0])
			}
			due := "-"
			if t.DueDate != nil {
				due = t.DueDate.Format("2006-01-02")
			}
			fmt.Fprintf(cc.OutOrStdout(), "ID:          %s\nTitle:       %s\nProject:     %s\nDue:         %s\nCreated:     %s\n",
				t.ID, t.Title, t.ProjectID, due, t.CreatedAt.Format("2006-01-02 15:04:05"))
			if t.Description != "" {
				fmt.Fprintf(cc.OutOrStdout(), "Description: %s\n", t.Description)
			}
			return nil
		},
	}

	cmd.AddCommand(list, create, show)
	return cmd
}
