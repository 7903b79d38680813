package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

// rootFlags are shared by every subcommand.
type rootFlags struct {
	configFile string
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}
	rootCmd := &cobra.Command{
		Use:   "formflow",
		Short: "Multi-step form wizards for the grain voucher dashboard",
		Long: `formflow serves wizard definitions as server-rendered HTML, drives them
interactively in a terminal and checks definition files.

Settings are read from an optional YAML file and FORMFLOW_ environment
variables, for example FORMFLOW_BACKEND_BASE_URL.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "formflow.yaml", "configuration file")

	rootCmd.AddCommand(
		serveCmd(flags),
		renderCmd(flags),
		fillCmd(flags),
		checkCmd(),
	)
	return rootCmd
}
