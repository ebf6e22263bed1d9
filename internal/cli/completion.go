package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"focusync/backend"
)

// IDCompletion completes the first argument with row ids from list.
// Titles are offered as completion descriptions.
func IDCompletion(list func() ([]backend.Row, error)) func(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) >= 1 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}

		rows, err := list()
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}

		var completions []string
		for _, r := range rows {
			id := r.String(backend.ColumnID)
			if !strings.HasPrefix(id, toComplete) {
				continue
			}
			if title := r.String("title"); title != "" {
				id += "\t" + title
			}
			completions = append(completions, id)
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	}
}
