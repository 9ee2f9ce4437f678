// ABOUTME: CLI command for authorizing with WHOOP.
// ABOUTME: Prints the authorization URL or exchanges a code for tokens.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var loginCode string

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Authorize with WHOOP",
	Long: `Authorize this tool against your WHOOP account.

Without --code this prints the authorization URL. Open it, approve the
scopes, and copy the code parameter from the redirect. Alternatively run
'whoop serve' and open /authenticate on the control server, which handles
the redirect itself.

With --code the code is exchanged for an access and refresh token. When
persist_tokens is set the refresh token is written to the config file.

EXAMPLES:

  whoop login                  # Print the authorization URL
  whoop login --code abc123    # Exchange a code`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		if loginCode == "" {
			fmt.Fprintln(out, a.tokens.AuthCodeURL(uuid.NewString()))
			return nil
		}

		if err := a.tokens.Exchange(cmd.Context(), loginCode); err != nil {
			return fmt.Errorf("login failed: %w", err)
		}
		fmt.Fprintln(out, color.GreenString("✓ Authenticated"))

		if !a.cfg.PersistTokens {
			faint := color.New(color.Faint)
			fmt.Fprintln(out, faint.Sprint("Set WHOOP_REFRESH_TOKEN to keep this session:"))
			fmt.Fprintln(out, a.tokens.Token().RefreshToken)
		} else {
			fmt.Fprintln(out, color.New(color.Faint).Sprintf("Refresh token saved to %s", a.configPath))
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginCode, "code", "", "authorization code from the redirect")
	rootCmd.AddCommand(loginCmd)
}
