package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/BioHazard786/onair/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the OnAir version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "onair %s (%s/%s, %s)\n", version.Version, runtime.GOOS, runtime.GOARCH, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
