package main

import (
	"fmt"

	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/system"
	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X main.Version=..."
var (
	Version   = "dev"
	CommitSHA = "unknown"
	BuildDate = "unknown"
)

// getHostOsInfo is replaced in tests.
var getHostOsInfo = system.GetHostOsInfo

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE:  executeVersion,
	}
}

func executeVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "os-package-search %s\n", Version)
	fmt.Fprintf(out, "  commit: %s\n", CommitSHA)
	fmt.Fprintf(out, "  built:  %s\n", BuildDate)

	info, err := getHostOsInfo()
	if err != nil {
		logger.Logger().Debugf("host os info unavailable: %v", err)
	}
	host := info["name"]
	if info["version"] != "" {
		host += " " + info["version"]
	}
	if host == "" {
		host = "unknown"
	}
	fmt.Fprintf(out, "  host:   %s (%s, target %s)\n", host, info["arch"], detectHostTarget())
	return nil
}
