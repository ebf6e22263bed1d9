package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"focusync/internal/resources"
	"focusync/internal/utils"
)

func addFormatFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("json", false, "print JSON")
	cmd.Flags().Bool("yaml", false, "print YAML")
	cmd.MarkFlagsMutuallyExclusive("json", "yaml")
}

func outputFormat(cmd *cobra.Command) string {
	if v, _ := cmd.Flags().GetBool("json"); v {
		return utils.FormatJSON
	}
	if v, _ := cmd.Flags().GetBool("yaml"); v {
		return utils.FormatYAML
	}
	return utils.FormatText
}

// printWrite reports where a write went
func printWrite(w io.Writer, verb, kind string, res resources.Result) {
	id := res.Row.String("id")
	if res.Queued {
		fmt.Fprintf(w, "✓ %s %s %s (offline, queued for sync)\n", verb, kind, id)
		return
	}
	fmt.Fprintf(w, "✓ %s %s %s\n", verb, kind, id)
}
