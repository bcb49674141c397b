package deb

import (
	"io"
	"path"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/debutils"
	"github.com/open-edge-platform/os-package-search/internal/provider"
)

// Deb implements provider.Provider for Debian Packages files.
type Deb struct{}

func init() {
	provider.Register(&Deb{})
}

// Name returns the unique name of the provider
func (p *Deb) Name() string { return debutils.Type }

// Detect matches the Packages file of a dists/*/binary-* directory, also
// under the "<id>-Packages" name it gets in the download cache.
func (p *Deb) Detect(filename string) bool {
	base := path.Base(filename)
	return base == "Packages" || strings.HasSuffix(base, "-Packages")
}

func (p *Deb) Parse(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	// Filename fields are relative to the archive root
	if i := strings.Index(baseURL, "/dists/"); i >= 0 {
		baseURL = baseURL[:i]
	}
	return debutils.ParsePackages(r, source, baseURL)
}
