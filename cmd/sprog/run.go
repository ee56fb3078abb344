package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sprogdev/sprog/internal/entry"
)

var (
	runConfigPath  string
	runWaitTimeout time.Duration
	runSentinel    string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute the duplication sequence once",
	Long: `Execute the duplication sequence: print the startup line, duplicate the
process, have the duplicate print the child line, print the parent line,
and wait for the duplicate to exit. The duplicate re-enters this same
command, so flags must be stable across the re-execution.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(runConfigPath)
		if err != nil {
			return err
		}
		logger := newLogger(cfg)

		waitTimeout := time.Duration(cfg.Run.WaitTimeout) * time.Second
		if cmd.Flags().Changed("wait-timeout") {
			waitTimeout = runWaitTimeout
		}
		sentinel := cfg.Run.Sentinel
		if cmd.Flags().Changed("sentinel") {
			sentinel = runSentinel
		}

		return entry.Run(entry.Options{
			Stdout:      cmd.OutOrStdout(),
			Logger:      logger,
			WaitTimeout: waitTimeout,
			Sentinel:    sentinel,
			Executable:  os.Getenv("SPROG_EXEC"),
		})
	},
}

func init() {
	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "config file path")
	runCmd.Flags().DurationVar(&runWaitTimeout, "wait-timeout", 0, "how long the parent waits for the child (0 = indefinitely)")
	runCmd.Flags().StringVar(&runSentinel, "sentinel", "", "file the child touches before exiting")
	rootCmd.AddCommand(runCmd)
}
