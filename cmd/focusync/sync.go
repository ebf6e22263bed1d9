package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"focusync/backend/offline"
	"focusync/internal/app"
	"focusync/internal/cli"
	"focusync/internal/utils"
)

func newSyncCmd() *cobra.Command {
	var (
		userID string
		max    int
	)

	syncCmd := &cobra.Command{
		Use:   "sync",
		Short: "Push queued offline changes",
		Long: `Push changes made while offline to the remote.

Queued mutations are applied oldest first. A row that changed on the remote
after the local edit keeps the remote version (last writer wins). Failing
mutations are retried a few times and stay queued for the next sync.

Examples:
  focusync sync
  focusync sync status
  focusync sync watch
  focusync sync queue
  focusync sync queue clear --yes`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			out := cmd.OutOrStdout()
			if max < 0 {
				return errors.New("--max must not be negative")
			}

			res, ran, err := a.Flush(ctx, offline.FlushOptions{UserID: userID, MaxMutations: max})
			if err != nil {
				return err
			}
			name := a.Config().Remote.Name
			if !ran {
				pending := a.Engine().PendingCount(ctx)
				if pending == 0 {
					fmt.Fprintln(out, "Nothing to sync")
					return nil
				}
				reason := "not reachable"
				if perr := a.Coordinator().PingError(); perr != nil {
					reason = perr.Error()
				}
				return utils.ErrRemoteOffline(name, fmt.Sprintf("%s; %d changes stay queued", reason, pending))
			}
			if res.IdentitySource == offline.IdentityNone && len(res.Pending) > 0 {
				return utils.ErrNotSignedIn(name)
			}

			cli.ShowFlushResult(out, res)
			return nil
		}),
	}

	syncCmd.Flags().StringVar(&userID, "user", "", "write as this user id instead of the signed-in one")
	syncCmd.Flags().IntVar(&max, "max", 0, "apply at most this many mutations (0 = config default)")

	syncCmd.AddCommand(newSyncStatusCmd())
	syncCmd.AddCommand(newSyncQueueCmd())
	syncCmd.AddCommand(newSyncWatchCmd())
	return syncCmd
}

// newSyncWatchCmd creates the 'sync watch' command
func newSyncWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Keep flushing until interrupted",
		Long: `Stay in the foreground and flush the queue at startup, every sync.interval,
and whenever the remote becomes reachable again. Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if err := a.RequireRemote(); err != nil {
				return err
			}
			c := a.Coordinator()
			if c == nil {
				return utils.ErrSyncNotEnabled()
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Watching %s every %s (Ctrl-C to stop)\n",
				a.Config().Remote.Name, a.Config().Sync.Interval)
			c.Run(ctx)
			return nil
		}),
	}
}

// newSyncStatusCmd creates the 'sync status' command
func newSyncStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show sync status",
		Long: `Display the synchronization state:
- Online/offline status of the remote
- Queued mutations
- Last flush and its result`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			if err := a.RequireRemote(); err != nil {
				utils.Warnf("%v", err)
			}
			cli.ShowSyncStatus(cmd.OutOrStdout(), a.Config().Remote.Name, a.Status(ctx))
			return nil
		}),
	}
}

// newSyncQueueCmd creates the 'sync queue' command
func newSyncQueueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Show queued offline changes",
		Args:  cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			ms := a.Engine().QueuedMutations(ctx)
			if handled, err := utils.OutputTo(cmd.OutOrStdout(), outputFormat(cmd), ms); handled || err != nil {
				return err
			}
			cli.ShowQueue(cmd.OutOrStdout(), ms)
			return nil
		}),
	}

	addFormatFlags(cmd)
	cmd.AddCommand(newSyncQueueClearCmd())
	return cmd
}

// newSyncQueueClearCmd creates the 'sync queue clear' command
func newSyncQueueClearCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Discard all queued offline changes",
		Long: `Discard every queued mutation without sending it.

Changes that were never synced are lost. Asks for confirmation unless
--yes is given.`,
		Args: cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error {
			out := cmd.OutOrStdout()
			count := a.Engine().PendingCount(ctx)
			if count == 0 {
				fmt.Fprintln(out, "No queued changes")
				return nil
			}

			if !yes {
				if !utils.IsInteractive() {
					return errors.New("refusing to discard queued changes without --yes")
				}
				question := fmt.Sprintf("Discard %d unsynced changes?", count)
				if !utils.PromptYesNoFrom(cmd.InOrStdin(), out, question) {
					fmt.Fprintln(out, "Cancelled")
					return nil
				}
			}

			discarded, err := a.ClearQueue(ctx, offline.ConfirmDiscard)
			if err != nil {
				return fmt.Errorf("failed to clear queue: %w", err)
			}
			fmt.Fprintf(out, "✓ Discarded %d queued changes\n", discarded)
			return nil
		}),
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "do not ask for confirmation")
	return cmd
}
