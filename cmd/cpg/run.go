package main

import (
	"fmt"
	"os"

	"github.com/paulsava/cpg"
	"github.com/paulsava/cpg/internal/logging"
	"github.com/paulsava/cpg/internal/presentation"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <pass-id> <node-id>",
	Short: "Run an analysis pass on a node of the graph",
	Long: `Runs the named pass against the named anchor node, executing unsatisfied
hard dependencies first. Work already recorded in the session ledger is
skipped, so re-running after a failure only executes what is left.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		graphPath, _ := cmd.Flags().GetString("graph")
		if graphPath == "" {
			return fmt.Errorf("--graph is required")
		}
		level, _ := cmd.Flags().GetString("log-level")

		eng, err := cpg.New(cpg.WithLogger(logging.New(logging.ParseLevel(level))))
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		if err := eng.LoadGraph(ctx, graphPath); err != nil {
			return err
		}
		defer func() { _ = eng.EndSession(ctx) }()

		res, runErr := eng.RunPass(ctx, args[0], args[1])
		fmt.Print(presentation.Render(presentation.ResultMarkdown(res)))
		if runErr != nil {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
