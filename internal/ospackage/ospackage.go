package ospackage

import (
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
)

// PackageInfo describes one build of a package as listed in an index.
// Records are built once by the index loaders and never modified.
type PackageInfo struct {
	Name        string                // e.g. "scipy", "libc6"
	Version     string                // e.g. "0.13.0", "2.31-13+deb11u5"
	Build       string                // build string, e.g. "np17py27_0"
	BuildNumber int                   // conda build number, 0 elsewhere
	Platform    string                // e.g. "linux-64", "noarch"; empty if unknown
	Arch        string                // e.g. "x86_64", "amd64", "all"
	Type        string                // index format the record came from: conda, deb, rpm, yaml
	Requires    []pkgspec.PackageSpec // dependencies of this build
	Filename    string                // archive file name inside the repository
	URL         string                // download URL, if known
	Checksum    string                // optional pre-known digest
	Size        int64
	License     string
	Description string
	Source      string // index file the record was loaded from
}

// Dist renders name-version-build, the conda distribution name.
func (p *PackageInfo) Dist() string {
	if p.Build == "" {
		return p.Name + "-" + p.Version
	}
	return p.Name + "-" + p.Version + "-" + p.Build
}

// Key identifies a record across index files; two loads of the same build
// have the same key.
func (p *PackageInfo) Key() string {
	parts := []string{p.Dist()}
	if p.Platform != "" {
		parts = append(parts, p.Platform)
	}
	if p.Arch != "" {
		parts = append(parts, p.Arch)
	}
	return strings.Join(parts, "/")
}

// RequirementStrings renders Requires for display.
func (p *PackageInfo) RequirementStrings() []string {
	out := make([]string, 0, len(p.Requires))
	for _, r := range p.Requires {
		out = append(out, r.String())
	}
	return out
}
