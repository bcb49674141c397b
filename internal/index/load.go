package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/provider"
	"github.com/open-edge-platform/os-package-search/internal/utils/compression"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/security"
	"github.com/schollz/progressbar/v3"
)

// Source is one index file to load.
type Source struct {
	Path      string // local file, possibly compressed
	Format    string // provider name; detected from the file name when empty
	Signature string // detached armored signature of Path, optional
	BaseURL   string // where the file was downloaded from, optional
}

// LoadOptions controls LoadFile and LoadFiles.
type LoadOptions struct {
	// Verifier checks signatures. Required when any Source has a Signature
	// or RequireSignature is set.
	Verifier         *security.Verifier
	RequireSignature bool

	Workers  int
	Progress io.Writer // progress bar output; nil disables it
}

// LoadFile reads and parses one index file.
func LoadFile(src Source, opts LoadOptions) ([]ospackage.PackageInfo, error) {
	log := logger.Logger()

	data, err := readVerified(src, opts)
	if err != nil {
		return nil, err
	}

	p, err := providerFor(src)
	if err != nil {
		return nil, err
	}

	rc, err := compression.NewReader(src.Path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Path, err)
	}
	defer rc.Close()

	pkgs, err := p.Parse(rc, src.Path, src.BaseURL)
	if err != nil {
		return nil, err
	}
	log.Infof("loaded %d %s records from %s", len(pkgs), p.Name(), src.Path)
	return pkgs, nil
}

func readVerified(src Source, opts LoadOptions) ([]byte, error) {
	if src.Signature == "" {
		if opts.RequireSignature {
			return nil, fmt.Errorf("%s: signature required but none configured", src.Path)
		}
		data, err := os.ReadFile(src.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to read index file: %w", err)
		}
		return data, nil
	}
	if opts.Verifier == nil {
		return nil, fmt.Errorf("%s: signature given but no keyring configured", src.Path)
	}
	return opts.Verifier.VerifyFile(src.Path, src.Signature)
}

func providerFor(src Source) (provider.Provider, error) {
	if src.Format != "" {
		p, ok := provider.Get(src.Format)
		if !ok {
			return nil, fmt.Errorf("unknown index format %q (known: %v)", src.Format, provider.Names())
		}
		return p, nil
	}
	name := compression.TrimSuffix(filepath.Base(src.Path))
	p, ok := provider.Detect(name)
	if !ok {
		return nil, fmt.Errorf("cannot detect index format of %s, set the format explicitly", src.Path)
	}
	return p, nil
}

// LoadFiles loads every source with a pool of workers and builds one
// index. Records keep source order; duplicates across files are dropped as
// in NewMemory. Any failure fails the whole load.
func LoadFiles(srcs []Source, opts LoadOptions) (*Memory, error) {
	if len(srcs) == 0 {
		return NewMemory(nil), nil
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}

	total := len(srcs)
	jobs := make(chan int, total)
	results := make([][]ospackage.PackageInfo, total)
	errs := make([]error, total)
	var wg sync.WaitGroup

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(progress),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetDescription("loading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				bar.Describe(fmt.Sprintf("loading %s", filepath.Base(srcs[idx].Path)))
				results[idx], errs[idx] = LoadFile(srcs[idx], opts)
				_ = bar.Add(1)
			}
		}()
	}

	for i := range srcs {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	_ = bar.Finish()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	var all []ospackage.PackageInfo
	for _, r := range results {
		all = append(all, r...)
	}
	return NewMemory(all), nil
}
