package main

import (
	"context"
	"os"

	"github.com/aretw0/foundry/internal/cli"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <alignment>",
	Short: "Run an alignment",
	Long: `Runs an alignment given by repository ID or file path and prints the
run record. The exit status is non-zero when the run fails.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := cli.RunOptions{
			Options:   commonOptions(cmd),
			Alignment: args[0],
		}
		opts.RunID, _ = cmd.Flags().GetString("run-id")
		opts.JSON, _ = cmd.Flags().GetBool("json")
		if cmd.Flags().Changed("instruction") {
			instruction, _ := cmd.Flags().GetString("instruction")
			opts.Instruction = &instruction
		}

		ctx := cli.NewSignalContext(context.Background())
		defer ctx.Cancel()
		return cli.Run(ctx, opts, os.Stdout)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().String("instruction", "", "Replace the instruction stored in the alignment")
	runCmd.Flags().String("run-id", "", "Run identifier; a finished run with this ID is not executed again")
	runCmd.Flags().Bool("json", false, "Print the run record as JSON")
}
