package rpm

import (
	"io"
	"path"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/rpmutils"
	"github.com/open-edge-platform/os-package-search/internal/provider"
)

// RPM implements provider.Provider for repodata primary.xml files.
type RPM struct{}

func init() {
	provider.Register(&RPM{})
}

// Name returns the unique name of the provider
func (p *RPM) Name() string { return rpmutils.Type }

// Detect matches "primary.xml" and the checksum-prefixed
// "<sha>-primary.xml" names createrepo writes.
func (p *RPM) Detect(filename string) bool {
	return strings.HasSuffix(path.Base(filename), "primary.xml")
}

func (p *RPM) Parse(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	// hrefs are relative to the repository root, not the repodata dir
	baseURL = strings.TrimSuffix(strings.TrimSuffix(baseURL, "/"), "/repodata")
	return rpmutils.ParsePrimary(r, source, baseURL)
}
