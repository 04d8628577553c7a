package main

import (
	"os"

	"github.com/aretw0/foundry/internal/cli"
	"github.com/spf13/cobra"
)

var graphCmd = &cobra.Command{
	Use:   "graph <alignment>",
	Short: "Export the alignment as a Mermaid diagram",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Graph(commonOptions(cmd), args[0], os.Stdout)
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List the alignments of the repository",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.List(commonOptions(cmd), os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(listCmd)
}
