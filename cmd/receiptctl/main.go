// Command receiptctl is the operator tool for the front desk service:
// offline receipt rendering, phone checks, event tailing and user setup.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwalitptl/frontdesk-api/internal/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "receiptctl",
		Short:         "Front desk receipt tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", "", "directory holding config.yml")

	rootCmd.AddCommand(renderCmd(), phoneCmd(), eventsCmd(), userCmd())
	return rootCmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	dir, _ := cmd.Flags().GetString("config")
	if dir == "" {
		return config.LoadConfig()
	}
	return config.LoadConfig(dir)
}
