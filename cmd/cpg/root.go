package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cpg",
	Short: "cpg runs analysis passes incrementally over a program graph",
	Long: `cpg is an incremental pass-execution orchestrator for code property graphs.

It loads a pre-built program graph, resolves the dependency order of the
requested analysis pass, finds the nodes the pass must run against, and
executes only the work not already recorded in the session ledger.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("graph", "", "Path to the YAML graph document")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
}
