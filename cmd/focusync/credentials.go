package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"focusync/internal/credentials"
	"focusync/internal/utils"
)

func newCredentialsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "credentials",
		Short: "Manage remote credentials",
		Long: `Securely manage the remote API key and access token using the system keyring.

Credentials are looked up in priority order:
  1. System keyring (most secure) - recommended
  2. Environment variables FOCUSYNC_<REMOTE>_API_KEY and
     FOCUSYNC_<REMOTE>_ACCESS_TOKEN (good for CI/CD)

The keyring account is remote.username from the config, or "default".

Examples:
  # Store the API key (interactive prompt)
  focusync credentials set --prompt

  # Store the signed-in session token
  focusync credentials set access_token --prompt

  # Show where credentials come from
  focusync credentials get

  # Remove the access token (sign out)
  focusync credentials delete access_token`,
	}

	cmd.AddCommand(newCredentialsSetCmd())
	cmd.AddCommand(newCredentialsGetCmd())
	cmd.AddCommand(newCredentialsDeleteCmd())
	return cmd
}

// remoteTarget resolves the remote name and keyring account for a
// credentials command. An explicit --remote works without a config file.
func remoteTarget(remoteFlag string) (remote, account string, err error) {
	cfg, cfgErr := loadConfig()
	if cfgErr == nil {
		remote = cfg.Remote.Name
		account = cfg.Remote.Username
	}
	if remoteFlag != "" {
		remote = remoteFlag
	}
	if remote == "" {
		if cfgErr != nil {
			return "", "", cfgErr
		}
		return "", "", errors.New("no remote name; set remote.name in the config or pass --remote")
	}
	return remote, account, nil
}

func secretArg(args []string) (credentials.Secret, error) {
	if len(args) == 0 {
		return credentials.SecretAPIKey, nil
	}
	return credentials.ParseSecret(args[0])
}

var secretCompletion = cobra.FixedCompletions(
	[]string{string(credentials.SecretAPIKey), string(credentials.SecretAccessToken)},
	cobra.ShellCompDirectiveNoFileComp)

func newCredentialsSetCmd() *cobra.Command {
	var (
		prompt     bool
		remoteFlag string
	)

	cmd := &cobra.Command{
		Use:   "set [api_key|access_token] [value]",
		Short: "Store a secret in the system keyring",
		Long: `Store a remote secret in the system keyring. The secret defaults to api_key.

If --prompt is specified, the value is read interactively (recommended for security).`,
		Args:              cobra.RangeArgs(0, 2),
		ValidArgsFunction: secretCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := secretArg(args)
			if err != nil {
				return err
			}
			remote, account, err := remoteTarget(remoteFlag)
			if err != nil {
				return err
			}

			var value string
			switch {
			case len(args) == 2:
				value = args[1]
			case prompt:
				value, err = utils.PromptSecret(fmt.Sprintf("Enter %s for %s: ", secret, remote))
				if err != nil {
					return err
				}
			default:
				return errors.New("value required: pass it as an argument or use --prompt")
			}
			if value == "" {
				return errors.New("value cannot be empty")
			}

			if !credentials.IsAvailable() {
				return fmt.Errorf("system keyring is not available; set %s instead",
					credentials.EnvVarName(remote, secret))
			}
			if err := credentials.Set(remote, account, secret, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Stored %s for %s in system keyring\n", secret, remote)
			return nil
		},
	}

	cmd.Flags().BoolVar(&prompt, "prompt", false, "prompt for the value")
	cmd.Flags().StringVar(&remoteFlag, "remote", "", "remote name (default from config)")
	return cmd
}

func newCredentialsGetCmd() *cobra.Command {
	var remoteFlag string

	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show where credentials are found",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			remote, account, err := remoteTarget(remoteFlag)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			creds, err := credentials.NewResolver().Resolve(remote, account)
			if err != nil {
				fmt.Fprintf(out, "No credentials for %s\n", remote)
				fmt.Fprintf(out, "  keyring: focusync credentials set --prompt\n")
				fmt.Fprintf(out, "  env:     %s\n", credentials.EnvVarName(remote, credentials.SecretAPIKey))
				return nil
			}

			fmt.Fprintf(out, "Remote:       %s\n", remote)
			fmt.Fprintf(out, "Source:       %s\n", creds.Source)
			fmt.Fprintf(out, "API key:      %s\n", maskSecret(creds.APIKey))
			if creds.AccessToken != "" {
				fmt.Fprintf(out, "Access token: %s\n", maskSecret(creds.AccessToken))
			} else {
				fmt.Fprintf(out, "Access token: (none, not signed in)\n")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteFlag, "remote", "", "remote name (default from config)")
	return cmd
}

func newCredentialsDeleteCmd() *cobra.Command {
	var remoteFlag string

	cmd := &cobra.Command{
		Use:               "delete [api_key|access_token]",
		Short:             "Remove a secret from the system keyring",
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: secretCompletion,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := secretArg(args)
			if err != nil {
				return err
			}
			remote, account, err := remoteTarget(remoteFlag)
			if err != nil {
				return err
			}

			if err := credentials.Delete(remote, account, secret); err != nil {
				if errors.Is(err, credentials.ErrNotFound) {
					return fmt.Errorf("no %s stored for %s", secret, remote)
				}
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✓ Removed %s for %s from system keyring\n", secret, remote)
			return nil
		},
	}

	cmd.Flags().StringVar(&remoteFlag, "remote", "", "remote name (default from config)")
	return cmd
}

// maskSecret keeps the first and last characters of long values
func maskSecret(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "…" + s[len(s)-4:]
}
