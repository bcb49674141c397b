package main

import (
	"fmt"
	"os"

	"github.com/open-edge-platform/os-package-search/internal/config"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/spf13/cobra"

	// index formats
	_ "github.com/open-edge-platform/os-package-search/internal/provider/conda"
	_ "github.com/open-edge-platform/os-package-search/internal/provider/deb"
	_ "github.com/open-edge-platform/os-package-search/internal/provider/native"
	_ "github.com/open-edge-platform/os-package-search/internal/provider/rpm"
)

// Global flags
var (
	configFile string // path to os-package-search.yml
	logLevel   string // explicit log level, wins over --verbose
	verbose    bool

	// globalConfig is loaded by the logging hook before any subcommand runs
	globalConfig *config.GlobalConfig
)

func main() {
	rootCmd := createRootCommand()
	if err := rootCmd.Execute(); err != nil {
		logger.Sync()
		os.Exit(1)
	}
	logger.Sync()
}

// createRootCommand builds the command tree
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "os-package-search",
		Short: "Search OS package indexes",
		Long: `os-package-search looks up packages in conda, Debian, RPM and native
package indexes by exact name, versioned specification or regular expression,
optionally restricted to what is compatible with an installed environment.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"Path to the configuration file (default: search ., ~/.config/os-package-search, /etc/os-package-search)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error (overrides the config file)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Enable debug logging")

	rootCmd.AddCommand(createSearchCommand())
	rootCmd.AddCommand(createValidateCommand())
	rootCmd.AddCommand(createVersionCommand())

	attachLoggingHooks(rootCmd)
	return rootCmd
}

// attachLoggingHooks makes every subcommand load the configuration and set
// up logging before it runs.
func attachLoggingHooks(root *cobra.Command) {
	for _, sub := range root.Commands() {
		sub.PersistentPreRunE = initRuntime
	}
}

func initRuntime(cmd *cobra.Command, _ []string) error {
	cfg, err := config.LoadGlobalConfig(configFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	globalConfig = cfg

	level := resolveRequestedLogLevel(cmd)
	if level == "" {
		level = cfg.Logging.Level
	}
	if err := logger.Init(level); err != nil {
		return err
	}
	logger.Logger().Debugf("log level %s", logger.Level())
	return nil
}

// resolveRequestedLogLevel returns the level asked for on the command line,
// or "" to use the configured one.
func resolveRequestedLogLevel(cmd *cobra.Command) string {
	if logLevel != "" {
		return logLevel
	}
	if cmd == nil {
		return ""
	}
	if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
		if v, err := cmd.Flags().GetBool("verbose"); err == nil && v {
			return "debug"
		}
	}
	return ""
}

// currentConfig returns the loaded configuration, or the defaults when the
// hook did not run.
func currentConfig() *config.GlobalConfig {
	if globalConfig == nil {
		return config.DefaultGlobalConfig()
	}
	return globalConfig
}
