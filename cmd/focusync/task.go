package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/app"
	"focusync/internal/cli"
	"focusync/internal/utils"
)

func newTaskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "task",
		Aliases: []string{"tasks", "t"},
		Short:   "Manage tasks",
		Long: `Create, edit and list tasks.

Writes go straight to the remote when it is reachable. Otherwise they are
queued and pushed by the next sync.

Examples:
  focusync task add "Write report" --priority 2 --due 2026-11-01
  focusync task edit <id> --status in_progress
  focusync task done <id>
  focusync task ls --json`,
	}

	cmd.AddCommand(newTaskAddCmd())
	cmd.AddCommand(newTaskEditCmd())
	cmd.AddCommand(newTaskDoneCmd())
	cmd.AddCommand(newTaskRmCmd())
	cmd.AddCommand(newTaskLsCmd())
	return cmd
}

// taskIDCompletion completes task ids from the local view
func taskIDCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var rows []backend.Row
	err := withApp(func(ctx context.Context, _ *cobra.Command, a *app.App, _ []string) error {
		var err error
		rows, err = a.Tasks.List(ctx)
		return err
	})(cmd, nil)
	return cli.IDCompletion(func() ([]backend.Row, error) { return rows, err })(cmd, args, toComplete)
}

func newTaskAddCmd() *cobra.Command {
	var (
		description string
		priority    int
		due         string
		status      string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			p := offline.TaskPayload{Title: offline.Ptr(strings.Join(args, " "))}
			if description != "" {
				p.Description = offline.Ptr(description)
			}
			if cmd.Flags().Changed("priority") {
				p.Priority = offline.Ptr(priority)
			}
			if status != "" {
				p.Status = offline.Ptr(status)
			}
			dueAt, err := utils.ParseDateTimeFlag(due)
			if err != nil {
				return err
			}
			if dueAt != nil {
				p.DueAt = offline.Ptr(dueAt.UTC())
			}
			if len(tags) > 0 {
				p.Tags = tags
			}

			res, err := a.Tasks.Create(ctx, p)
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Created", "task", res)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&description, "description", "d", "", "task description")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "priority 0-9 (1 highest, 0 none)")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD, 'YYYY-MM-DD HH:MM' or RFC 3339)")
	cmd.Flags().StringVarP(&status, "status", "s", "", "initial status (todo, in_progress, done)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "tag (repeatable)")
	return cmd
}

func newTaskEditCmd() *cobra.Command {
	var (
		title       string
		description string
		priority    int
		due         string
		status      string
		tags        []string
	)

	cmd := &cobra.Command{
		Use:               "edit <id>",
		Short:             "Change task fields",
		Long:              "Change task fields. Only flags that are given are written; --due \"\" clears the due date.",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: taskIDCompletion,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			flags := cmd.Flags()
			var p offline.TaskPayload
			if flags.Changed("title") {
				p.Title = offline.Ptr(title)
			}
			if flags.Changed("description") {
				p.Description = offline.Ptr(description)
			}
			if flags.Changed("priority") {
				p.Priority = offline.Ptr(priority)
			}
			if flags.Changed("status") {
				p.Status = offline.Ptr(status)
			}
			if flags.Changed("tag") {
				p.Tags = tags
			}
			if flags.Changed("due") {
				dueAt, err := utils.ParseDateTimeFlag(due)
				if err != nil {
					return err
				}
				if dueAt == nil {
					p.Nulls = append(p.Nulls, "due_at")
				} else {
					p.DueAt = offline.Ptr(dueAt.UTC())
				}
			}
			if len(p.Columns()) == 0 {
				return fmt.Errorf("nothing to change; pass at least one field flag")
			}

			res, err := a.Tasks.Update(ctx, args[0], p)
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Updated", "task", res)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&title, "title", "t", "", "new title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "new description")
	cmd.Flags().IntVarP(&priority, "priority", "p", 0, "new priority 0-9")
	cmd.Flags().StringVar(&due, "due", "", "new due date, empty to clear")
	cmd.Flags().StringVarP(&status, "status", "s", "", "new status (todo, in_progress, done)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "replace tags (repeatable)")
	return cmd
}

func newTaskDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "done <id>",
		Aliases:           []string{"complete"},
		Short:             "Mark a task done",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: taskIDCompletion,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			res, err := a.Tasks.Complete(ctx, args[0])
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Completed", "task", res)
			return nil
		}),
	}
}

func newTaskRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <id>",
		Aliases:           []string{"delete"},
		Short:             "Delete a task",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: taskIDCompletion,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			res, err := a.Tasks.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if res.Row == nil {
				res.Row = backend.Row{"id": args[0]}
			}
			printWrite(cmd.OutOrStdout(), "Deleted", "task", res)
			return nil
		}),
	}
}

func newTaskLsCmd() *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List tasks",
		Long:    "List tasks. Rows with changes waiting to sync are marked with *.",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			rows, err := a.Tasks.List(ctx)
			if err != nil {
				return err
			}
			if status != "" {
				if err := utils.ValidateStatus(status); err != nil {
					return err
				}
				rows = filterRows(rows, "status", status)
			}

			if handled, err := utils.OutputTo(cmd.OutOrStdout(), outputFormat(cmd), rows); handled || err != nil {
				return err
			}
			pending := cli.PendingKeys(a.Engine().QueuedMutations(ctx))
			cli.ShowTasks(cmd.OutOrStdout(), rows, pending[backend.TableTasks])
			return nil
		}),
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "only show tasks with this status")
	addFormatFlags(cmd)
	return cmd
}

func filterRows(rows []backend.Row, column, value string) []backend.Row {
	out := rows[:0:0]
	for _, r := range rows {
		if r.String(column) == value {
			out = append(out, r)
		}
	}
	return out
}
