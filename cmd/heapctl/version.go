package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set through -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "none"
)

func buildVersion() string {
	if commit == "none" {
		return version
	}
	return version + "+" + commit
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the heapctl version",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runVersion()
	},
}

func runVersion() error {
	if jsonOut {
		return printJSON(map[string]string{
			"version": buildVersion(),
			"go":      runtime.Version(),
		})
	}
	fmt.Printf("heapctl %s (%s %s/%s)\n", buildVersion(), runtime.Version(), runtime.GOOS, runtime.GOARCH)
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
