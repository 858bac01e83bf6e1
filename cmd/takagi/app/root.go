// Package app implements the takagi command-line application: serve,
// keygen, and rotate.
package app

import "github.com/spf13/cobra"

var rootCmd = &cobra.Command{
	Use:               "takagi",
	DisableAutoGenTag: true,
	Short:             "A standards-compliant OIDC provider fronting GitHub or Discord",
	Long: `takagi presents GitHub (or, as Snowflake, Discord) as a standards-compliant
OpenID Connect 1.0 Provider. Relying parties speak vanilla OIDC while takagi
translates each flow into the upstream identity provider's OAuth2 API.`,
}

// NewRootCmd builds the takagi root command with every subcommand wired.
func NewRootCmd() *cobra.Command {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(keygenCmd)
	rootCmd.AddCommand(rotateCmd)
	return rootCmd
}
