package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "sprog",
	Short:         "Sprog -- process duplication demo",
	Long:          "Sprog demonstrates the classic duplicate-and-wait sequence: the original\nprocess announces itself, duplicates, and blocks until the duplicate exits.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
