package main

import (
	"github.com/spf13/cobra"

	"focusync/internal/sync"
	"focusync/internal/utils"
)

// newBackgroundFlushCmd is the hidden command run by a detached process
// after an offline write
func newBackgroundFlushCmd() *cobra.Command {
	return &cobra.Command{
		Use:    sync.BackgroundCommand,
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			a, err := newApp(cfg, false)
			if err != nil {
				return err
			}
			defer a.Close()

			if a.Coordinator() == nil {
				utils.Debugf("background flush skipped: sync disabled or no credentials")
				return nil
			}
			return sync.RunBackgroundFlush(cmd.Context(), a.Coordinator(), sync.DefaultBackgroundTimeout)
		},
	}
}
