package conda

import (
	"io"
	"path"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/condautils"
	"github.com/open-edge-platform/os-package-search/internal/provider"
)

// Conda implements provider.Provider for channel repodata.json files.
type Conda struct{}

func init() {
	provider.Register(&Conda{})
}

// Name returns the unique name of the provider
func (p *Conda) Name() string { return condautils.Type }

// Detect matches repodata.json and current_repodata.json.
func (p *Conda) Detect(filename string) bool {
	return strings.HasSuffix(path.Base(filename), "repodata.json")
}

func (p *Conda) Parse(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	return condautils.ParseRepodata(r, source, baseURL)
}
