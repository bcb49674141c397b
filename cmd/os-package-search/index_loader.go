package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/config"
	"github.com/open-edge-platform/os-package-search/internal/index"
	"github.com/open-edge-platform/os-package-search/internal/pkgfetcher"
	"github.com/open-edge-platform/os-package-search/internal/search"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/security"
	"github.com/spf13/cobra"
)

// loadIndex builds the searchable index from the given sources; replaced
// in tests.
var loadIndex = buildIndex

func buildIndex(cmd *cobra.Command, cfg *config.GlobalConfig, sources []config.IndexSource) (search.Index, error) {
	log := logger.Logger()
	helpers := config.NewConfigHelpers(cfg)

	var verifier *security.Verifier
	if cfg.Security.Keyring != "" {
		v, err := security.LoadKeyring(cfg.Security.Keyring)
		if err != nil {
			return nil, err
		}
		verifier = v
	}

	srcs, err := fetchRemote(cmd, helpers, sources)
	if err != nil {
		return nil, err
	}

	idx, err := index.LoadFiles(srcs, index.LoadOptions{
		Verifier:         verifier,
		RequireSignature: cfg.Security.RequireSignature,
		Workers:          helpers.Workers(),
		Progress:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}
	log.Infof("index ready: %d records, %d names", idx.Len(), len(idx.Names()))
	return idx, nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

// fetchRemote downloads every url entry, and any signature given as a URL,
// into the cache directory and returns local sources in configuration
// order.
func fetchRemote(cmd *cobra.Command, helpers *config.ConfigHelpers, sources []config.IndexSource) ([]index.Source, error) {
	srcs := make([]index.Source, len(sources))
	var urls []string
	type pending struct {
		src, url int // positions in srcs and urls
		sig      bool
	}
	var waits []pending

	for i, s := range sources {
		srcs[i] = index.Source{Path: s.Path, Format: s.Format, Signature: s.Signature}
		if s.IsRemote() {
			waits = append(waits, pending{src: i, url: len(urls)})
			urls = append(urls, s.URL)
		}
		if isURL(s.Signature) {
			waits = append(waits, pending{src: i, url: len(urls), sig: true})
			urls = append(urls, s.Signature)
		}
	}
	if len(urls) == 0 {
		return srcs, nil
	}

	cacheDir, err := helpers.CreateCacheDir()
	if err != nil {
		return nil, err
	}
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	pkgfetcher.ProgressWriter = cmd.ErrOrStderr()
	fetched, err := pkgfetcher.FetchIndexes(ctx, urls, cacheDir, helpers.Workers())
	if err != nil {
		return nil, fmt.Errorf("failed to download indexes: %w", err)
	}

	for _, w := range waits {
		f := fetched[w.url]
		if w.sig {
			srcs[w.src].Signature = f.Path
			continue
		}
		srcs[w.src].Path = f.Path
		srcs[w.src].BaseURL = f.BaseURL
	}
	return srcs, nil
}
