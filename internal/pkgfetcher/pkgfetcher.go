package pkgfetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/rpmutils"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/network"
	"github.com/schollz/progressbar/v3"
)

var (
	// httpClient is replaced in tests.
	httpClient = network.NewSecureHTTPClient()

	// ProgressWriter receives the progress bar; set to io.Discard to hide it.
	ProgressWriter io.Writer = os.Stderr
)

// Fetched is a downloaded index file.
type Fetched struct {
	URL     string // URL the content came from, after repomd.xml resolution
	BaseURL string // directory of URL, for building package download URLs
	Path    string // local file in destDir
}

// CacheName is the local file name for an index URL. Different URLs ending
// in the same file name ("Packages.xz") get different names.
func CacheName(rawURL string) string {
	id := uuid.NewSHA1(uuid.NameSpaceURL, []byte(rawURL)).String()
	return id[:8] + "-" + path.Base(rawURL)
}

// FetchIndexes downloads the given index URLs into destDir using a pool of
// workers. It shows a single progress bar tracking files completed vs
// total. Results are returned in the order of urls; every failure is
// reported in the returned error.
func FetchIndexes(ctx context.Context, urls []string, destDir string, workers int) ([]Fetched, error) {
	log := logger.Logger()

	if len(urls) == 0 {
		return nil, nil
	}
	if workers < 1 {
		workers = 1
	}
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	total := len(urls)
	jobs := make(chan int, total)
	results := make([]Fetched, total)
	errs := make([]error, total)
	var wg sync.WaitGroup

	// create a single progress bar for total files
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(ProgressWriter),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetDescription("downloading"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionThrottle(100*time.Millisecond),
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				u := urls[idx]
				bar.Describe(fmt.Sprintf("downloading %s", path.Base(u)))

				f, err := fetchIndex(ctx, u, destDir)
				if err != nil {
					log.Errorf("downloading %s failed: %v", u, err)
					errs[idx] = fmt.Errorf("%s: %w", u, err)
				} else {
					log.Debugf("downloaded %s to %s", f.URL, f.Path)
					results[idx] = f
				}
				_ = bar.Add(1)
			}
		}()
	}

	for i := range urls {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	_ = bar.Finish()

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return results, nil
}

func fetchIndex(ctx context.Context, rawURL, destDir string) (Fetched, error) {
	src := rawURL
	if path.Base(rawURL) == "repomd.xml" {
		primary, err := resolvePrimary(ctx, rawURL)
		if err != nil {
			return Fetched{}, err
		}
		src = primary
	}

	destPath := filepath.Join(destDir, CacheName(src))
	if err := download(ctx, src, destPath); err != nil {
		return Fetched{}, err
	}
	return Fetched{URL: src, BaseURL: baseURL(src), Path: destPath}, nil
}

// resolvePrimary reads repodata/repomd.xml and returns the absolute URL of
// the primary metadata it lists.
func resolvePrimary(ctx context.Context, repomdURL string) (string, error) {
	body, err := get(ctx, repomdURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	href, err := rpmutils.PrimaryHref(body)
	if err != nil {
		return "", fmt.Errorf("%s: %w", repomdURL, err)
	}

	// hrefs are relative to the repository root, the parent of repodata/
	base, err := url.Parse(strings.TrimSuffix(repomdURL, "repodata/repomd.xml"))
	if err != nil {
		return "", fmt.Errorf("invalid repomd URL %s: %w", repomdURL, err)
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("invalid primary href %q: %w", href, err)
	}
	return base.ResolveReference(ref).String(), nil
}

func download(ctx context.Context, src, destPath string) error {
	body, err := get(ctx, src)
	if err != nil {
		return err
	}
	defer body.Close()

	tmp := destPath + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, body); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, destPath)
}

func get(ctx context.Context, src string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return nil, err
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp.Body, nil
}

func baseURL(u string) string {
	i := strings.LastIndex(u, "/")
	if i < 0 {
		return ""
	}
	return u[:i]
}
