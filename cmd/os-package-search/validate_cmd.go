package main

import (
	"fmt"

	"github.com/open-edge-platform/os-package-search/internal/index"
	"github.com/open-edge-platform/os-package-search/internal/provider"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/security"
	"github.com/spf13/cobra"
)

// Validate command flags
var (
	validateFormat    string
	validateSignature string
)

// createValidateCommand creates the validate subcommand
func createValidateCommand() *cobra.Command {
	validateCmd := &cobra.Command{
		Use:   "validate [flags] INDEX_FILE",
		Short: "Validate a package index file",
		Long: `Validate parses a package index file without searching it. conda
repodata and native YAML/JSON indexes are also checked against their schema.
The file may be compressed with gzip, xz, zstd or bzip2.`,
		Args:              cobra.ExactArgs(1),
		RunE:              executeValidate,
		ValidArgsFunction: indexFileCompletion,
	}

	validateCmd.Flags().StringVar(&validateFormat, "format", "",
		fmt.Sprintf("Index format %v (default: detect from the file name)", provider.Names()))
	validateCmd.Flags().StringVar(&validateSignature, "signature", "",
		"Detached armored signature to verify with the configured keyring")
	return validateCmd
}

// executeValidate handles the validate command logic
func executeValidate(cmd *cobra.Command, args []string) error {
	log := logger.Logger()
	cfg := currentConfig()

	if len(args) < 1 {
		return fmt.Errorf("no index file provided, usage: os-package-search validate INDEX_FILE")
	}
	indexFile := args[0]
	log.Infof("validating index file: %s", indexFile)

	opts := index.LoadOptions{}
	if validateSignature != "" {
		if cfg.Security.Keyring == "" {
			return fmt.Errorf("--signature needs security.keyring in the configuration")
		}
		v, err := security.LoadKeyring(cfg.Security.Keyring)
		if err != nil {
			return err
		}
		opts.Verifier = v
	}

	pkgs, err := index.LoadFile(index.Source{
		Path:      indexFile,
		Format:    validateFormat,
		Signature: validateSignature,
	}, opts)
	if err != nil {
		return fmt.Errorf("index validation failed: %w", err)
	}

	names := make(map[string]struct{}, len(pkgs))
	for _, p := range pkgs {
		names[p.Name] = struct{}{}
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ %s is valid: %d records, %d packages\n", indexFile, len(pkgs), len(names))
	return nil
}

// indexFileCompletion offers files for the INDEX_FILE argument.
func indexFileCompletion(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
	if len(args) != 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return nil, cobra.ShellCompDirectiveDefault
}
