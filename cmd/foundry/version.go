package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/foundry"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of foundry",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("foundry version %s\n", strings.TrimSpace(foundry.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
