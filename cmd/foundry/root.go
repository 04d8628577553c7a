package main

import (
	"fmt"
	"os"

	"github.com/aretw0/foundry/internal/cli"
	"github.com/aretw0/foundry/internal/runtime"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "foundry",
	Short: "Foundry interprets alignments",
	Long: `Foundry runs alignments: declarative programs that route an instruction
through processors and switchers and collect the result in a register file.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	flags := rootCmd.PersistentFlags()
	flags.String("dir", ".", "Directory containing the alignments")
	flags.String("tools", "", "Apparatus configuration file (default: <dir>/"+cli.DefaultToolsFile+" when present)")
	flags.Int("max-steps", runtime.DefaultMaxSteps, "Maximum number of operations per run")
	flags.Bool("debug", false, "Trace the engine on stderr")
	flags.String("log-file", "", "Append JSON logs to this file")
	flags.String("redis", "", "Redis address for run persistence and locking")
	flags.String("runs-dir", "", "Keep run records as JSON files in this directory")
	flags.StringSlice("mask", nil, "Regular expression of output keys to mask before persistence (repeatable)")
}

func commonOptions(cmd *cobra.Command) cli.Options {
	flags := cmd.Flags()
	opts := cli.Options{}
	opts.RepoPath, _ = flags.GetString("dir")
	opts.ToolsPath, _ = flags.GetString("tools")
	opts.MaxSteps, _ = flags.GetInt("max-steps")
	opts.Debug, _ = flags.GetBool("debug")
	opts.LogFile, _ = flags.GetString("log-file")
	opts.RedisURL, _ = flags.GetString("redis")
	opts.RunsDir, _ = flags.GetString("runs-dir")
	opts.Mask, _ = flags.GetStringSlice("mask")
	return opts
}
