package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"focusync/backend"
	"focusync/internal/app"
	"focusync/internal/cli"
	"focusync/internal/resources"
	"focusync/internal/utils"
)

func newPomodoroCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pomodoro",
		Aliases: []string{"pomo", "p"},
		Short:   "Track pomodoro sessions",
		Long: `Start and stop focus sessions and breaks.

Examples:
  focusync pomodoro start --task <id>
  focusync pomodoro start --watch
  focusync pomodoro start --kind short_break --minutes 5
  focusync pomodoro stop
  focusync pomodoro stop --abandon`,
	}

	cmd.AddCommand(newPomodoroStartCmd())
	cmd.AddCommand(newPomodoroStopCmd())
	cmd.AddCommand(newPomodoroLsCmd())
	return cmd
}

func newPomodoroStartCmd() *cobra.Command {
	var (
		taskID  string
		kind    string
		minutes int
		watch   bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if minutes < 0 {
				return fmt.Errorf("--minutes must not be negative")
			}
			res, err := a.Pomodoro.Start(ctx, taskID, kind, time.Duration(minutes)*time.Minute)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printWrite(out, "Started", res.Row.String("kind")+" session", res)
			if !watch {
				return nil
			}
			if !utils.IsInteractive() {
				utils.Warnf("--watch needs a terminal; session keeps running")
				return nil
			}
			return watchSession(ctx, cmd, a, res)
		}),
	}

	cmd.Flags().StringVar(&taskID, "task", "", "task to focus on")
	cmd.Flags().StringVarP(&kind, "kind", "k", resources.KindFocus, "session kind (focus, short_break, long_break)")
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "planned length in minutes (default 25)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "show a countdown and stop the session when it ends")
	_ = cmd.RegisterFlagCompletionFunc("task", taskIDCompletion)
	_ = cmd.RegisterFlagCompletionFunc("kind", cobra.FixedCompletions(
		[]string{resources.KindFocus, resources.KindShortBreak, resources.KindLongBreak},
		cobra.ShellCompDirectiveNoFileComp))
	return cmd
}

// watchSession runs the countdown view and records how the session ended
func watchSession(ctx context.Context, cmd *cobra.Command, a *app.App, res resources.Result) error {
	id := res.Row.String("id")
	started, err := res.Row.Time("started_at")
	if err != nil || started == nil {
		return fmt.Errorf("session %s has no start time", id)
	}
	planned := time.Duration(sessionSeconds(res.Row)) * time.Second

	outcome, err := cli.RunTimer(res.Row.String("kind")+" session", *started, planned)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch outcome {
	case cli.TimerDetached:
		fmt.Fprintf(out, "Session %s keeps running; stop it with 'focusync pomodoro stop'\n", id)
		return nil
	case cli.TimerAbandoned:
		res, err = a.Pomodoro.Stop(ctx, id, false)
	default:
		res, err = a.Pomodoro.Stop(ctx, id, true)
	}
	if err != nil {
		return err
	}
	printWrite(out, "Stopped", "session", res)
	return nil
}

// sessionSeconds reads duration_seconds, which JSON decoding turns into float64
func sessionSeconds(row backend.Row) int {
	switch v := row["duration_seconds"].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return int(resources.DefaultFocusDuration / time.Second)
}

func newPomodoroStopCmd() *cobra.Command {
	var abandon bool

	cmd := &cobra.Command{
		Use:   "stop [id]",
		Short: "Stop a session",
		Long:  "Stop a session. Without an id the single running session is stopped.",
		Args:  cobra.MaximumNArgs(1),
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			var id string
			if len(args) == 1 {
				id = args[0]
			} else {
				active, err := a.Pomodoro.Active(ctx)
				if err != nil {
					return err
				}
				switch len(active) {
				case 0:
					return errors.New("no running session")
				case 1:
					id = active[0].String("id")
				default:
					return fmt.Errorf("%d sessions are running; pass the id to stop", len(active))
				}
			}

			res, err := a.Pomodoro.Stop(ctx, id, !abandon)
			if err != nil {
				return err
			}
			printWrite(cmd.OutOrStdout(), "Stopped", "session", res)
			return nil
		}),
	}

	cmd.Flags().BoolVar(&abandon, "abandon", false, "record the session as not completed")
	return cmd
}

func newPomodoroLsCmd() *cobra.Command {
	var active bool

	cmd := &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List sessions",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			var (
				rows []backend.Row
				err  error
			)
			if active {
				rows, err = a.Pomodoro.Active(ctx)
			} else {
				rows, err = a.Pomodoro.List(ctx)
			}
			if err != nil {
				return err
			}

			if handled, err := utils.OutputTo(cmd.OutOrStdout(), outputFormat(cmd), rows); handled || err != nil {
				return err
			}
			pending := cli.PendingKeys(a.Engine().QueuedMutations(ctx))
			cli.ShowSessions(cmd.OutOrStdout(), rows, pending[backend.TablePomodoroSessions])
			return nil
		}),
	}

	cmd.Flags().BoolVar(&active, "active", false, "only running sessions")
	addFormatFlags(cmd)
	return cmd
}
