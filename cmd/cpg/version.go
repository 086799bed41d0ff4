package main

import (
	"fmt"
	"strings"

	"github.com/paulsava/cpg"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of cpg",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cpg version %s\n", strings.TrimSpace(cpg.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
