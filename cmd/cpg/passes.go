package main

import (
	"fmt"

	"github.com/paulsava/cpg"
	"github.com/paulsava/cpg/internal/presentation"
	"github.com/spf13/cobra"
)

var passesCmd = &cobra.Command{
	Use:   "passes",
	Short: "List the registered analysis passes",
	RunE: func(cmd *cobra.Command, args []string) error {
		eng, err := cpg.New()
		if err != nil {
			return err
		}
		fmt.Print(presentation.Render(presentation.CatalogMarkdown(eng.Catalog().List())))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(passesCmd)
}
