package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"focusync/backend"
	"focusync/backend/offline"
	"focusync/internal/app"
	"focusync/internal/cli"
	"focusync/internal/utils"
)

func newReminderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "reminder",
		Aliases: []string{"reminders", "r"},
		Short:   "Manage reminders",
		Long: `Create, dismiss and list reminders.

Examples:
  focusync reminder add "Stand-up" --at "2026-11-02 09:30" --repeat daily
  focusync reminder done <id>
  focusync reminder ls`,
	}

	cmd.AddCommand(newReminderAddCmd())
	cmd.AddCommand(newReminderDoneCmd())
	cmd.AddCommand(newReminderRmCmd())
	cmd.AddCommand(newReminderLsCmd())
	return cmd
}

func reminderIDCompletion(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	var rows []backend.Row
	err := withApp(func(ctx context.Context, _ *cobra.Command, a *app.App, _ []string) error {
		var err error
		rows, err = a.Reminders.List(ctx)
		return err
	})(cmd, nil)
	return cli.IDCompletion(func() ([]backend.Row, error) { return rows, err })(cmd, args, toComplete)
}

func newReminderAddCmd() *cobra.Command {
	var (
		at     string
		taskID string
		repeat string
	)

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a reminder",
		Args:  cobra.MinimumNArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			remindAt, err := utils.ParseDateTimeFlag(at)
			if err != nil {
				return err
			}
			if remindAt == nil {
				return errors.New("--at is required")
			}

			p := offline.ReminderPayload{
				Title:    offline.Ptr(strings.Join(args, " ")),
				RemindAt: remindAt,
			}
			if taskID != "" {
				p.TaskID = offline.Ptr(taskID)
			}
			if repeat != "" {
				p.Repeat = offline.Ptr(repeat)
			}

			res, err := a.Reminders.Create(ctx, p)
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Created", "reminder", res)
			return nil
		}),
	}

	cmd.Flags().StringVar(&at, "at", "", "when to remind (YYYY-MM-DD HH:MM or RFC 3339)")
	cmd.Flags().StringVar(&taskID, "task", "", "task the reminder belongs to")
	cmd.Flags().StringVar(&repeat, "repeat", "", "repeat rule (none, daily, weekly, monthly)")
	_ = cmd.RegisterFlagCompletionFunc("task", taskIDCompletion)
	return cmd
}

func newReminderDoneCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "done <id>",
		Aliases:           []string{"dismiss"},
		Short:             "Dismiss a reminder",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: reminderIDCompletion,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			res, err := a.Reminders.Dismiss(ctx, args[0])
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Dismissed", "reminder", res)
			return nil
		}),
	}
}

func newReminderRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "rm <id>",
		Aliases:           []string{"delete"},
		Short:             "Delete a reminder",
		Args:              cobra.ExactArgs(1),
		ValidArgsFunction: reminderIDCompletion,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			res, err := a.Reminders.Delete(ctx, args[0])
			if err != nil {
				return err
			}
			if res.Row == nil {
				res.Row = backend.Row{"id": args[0]}
			}
			printWrite(cmd.OutOrStdout(), "Deleted", "reminder", res)
			return nil
		}),
	}
}

func newReminderLsCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List reminders",
		Long:    "List reminders that are not dismissed. --all includes dismissed ones.",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			rows, err := a.Reminders.List(ctx)
			if err != nil {
				return err
			}
			if !all {
				open := rows[:0:0]
				for _, r := range rows {
					if done, _ := r["done"].(bool); !done {
						open = append(open, r)
					}
				}
				rows = open
			}

			if handled, err := utils.OutputTo(cmd.OutOrStdout(), outputFormat(cmd), rows); handled || err != nil {
				return err
			}
			pending := cli.PendingKeys(a.Engine().QueuedMutations(ctx))
			cli.ShowReminders(cmd.OutOrStdout(), rows, pending[backend.TableReminders])
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "include dismissed reminders")
	addFormatFlags(cmd)
	return cmd
}
