// Command tenantkit serves host-based tenant resolution and processes
// subscription events.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/tenantkit/pkg/config"
)

func main() {
	var envFiles []string

	rootCmd := &cobra.Command{
		Use:           "tenantkit",
		Short:         "Multi-tenant host resolution and subscription processing",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if len(envFiles) == 0 {
				return nil
			}
			return config.LoadEnv(envFiles...)
		},
	}
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "env files to load before reading configuration")

	rootCmd.AddCommand(
		serveCommand(),
		workerCommand(),
		migrateCommand(),
		tenantCommand(),
		otpCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
