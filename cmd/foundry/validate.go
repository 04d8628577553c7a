package main

import (
	"os"

	"github.com/aretw0/foundry/internal/cli"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <alignment>",
	Short: "Check an alignment for consistency",
	Long: `Reports dangling transitions, missing apparatuses, Ingress/Egress
cardinality problems and unreachable operations without running anything.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.Validate(commonOptions(cmd), args[0], os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
