package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"focusync/internal/app"
	"focusync/internal/config"
	"focusync/internal/utils"
)

var (
	configPath string
	verbose    bool
)

// loadConfig and newApp are replaced in tests
var (
	loadConfig = config.GetConfig
	newApp     = func(cfg *config.Config, background bool) (*app.App, error) {
		return app.New(cfg, app.Options{
			SpawnBackground: background,
			BackgroundArgs:  backgroundArgs(),
		})
	}
)

func backgroundArgs() []string {
	if configPath == "" {
		return nil
	}
	return []string{"--config", configPath}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "focusync",
		Short: "Tasks, reminders and pomodoro sessions that keep working offline",
		Long: `focusync manages tasks, reminders and pomodoro sessions stored in a hosted
database. Changes made while offline are queued locally and pushed with
last-writer-wins conflict handling once the remote is reachable again.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if cmd.Flags().Changed("config") {
				config.SetCustomConfigPath(configPath)
			}
			utils.SetVerboseMode(verbose)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file or directory (default $XDG_CONFIG_HOME/focusync/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newTaskCmd())
	rootCmd.AddCommand(newReminderCmd())
	rootCmd.AddCommand(newPomodoroCmd())
	rootCmd.AddCommand(newSyncCmd())
	rootCmd.AddCommand(newCredentialsCmd())
	rootCmd.AddCommand(newBackgroundFlushCmd())

	return rootCmd
}

// runFunc is a command body that needs the wired app
type runFunc func(ctx context.Context, cmd *cobra.Command, a *app.App, args []string) error

// withApp loads config, builds the app for one command and closes it after
func withApp(run runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Verbose {
			utils.SetVerboseMode(true)
		}

		a, err := newApp(cfg, true)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				utils.Warnf("failed to close storage: %v", err)
			}
		}()

		return app.WrapStorageError(run(cmd.Context(), cmd, a, args))
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}
