package target

import (
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
)

// Descriptor names the platform results must be installable on. Empty
// fields match anything.
type Descriptor struct {
	Platform string `yaml:"platform" json:"platform,omitempty"` // e.g. "linux-64"
	Arch     string `yaml:"arch" json:"arch,omitempty"`         // e.g. "x86_64"
	Variant  string `yaml:"variant" json:"variant,omitempty"`   // build tag, e.g. "py27"
}

func (d Descriptor) String() string {
	parts := []string{}
	for _, s := range []string{d.Platform, d.Arch, d.Variant} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return "any"
	}
	return strings.Join(parts, "/")
}

// IsZero reports whether every field is empty.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

// Comparator decides whether a record can be used on the target.
type Comparator func(d Descriptor, p *ospackage.PackageInfo) bool

// architectures with more than one spelling across package formats
var archAliases = map[string]string{
	"amd64":   "x86_64",
	"arm64":   "aarch64",
	"i386":    "i686",
	"x86":     "i686",
	"armhf":   "armv7l",
	"ppc64el": "ppc64le",
}

// CanonicalArch maps deb/rpm/go spellings onto one name.
func CanonicalArch(arch string) string {
	if a, ok := archAliases[arch]; ok {
		return a
	}
	return arch
}

func isArchIndependent(arch string) bool {
	switch arch {
	case "", "noarch", "all", "any":
		return true
	}
	return false
}

// DefaultComparator matches platform and architecture by equality, treats
// noarch records as compatible with everything and requires the target
// variant tag to occur in the build string.
func DefaultComparator(d Descriptor, p *ospackage.PackageInfo) bool {
	return compare(d, p, func(a, b string) bool { return a == b }, strings.Contains)
}

// FoldCase returns the default rules with case-insensitive comparisons.
func FoldCase() Comparator {
	return func(d Descriptor, p *ospackage.PackageInfo) bool {
		return compare(d, p, strings.EqualFold, func(s, sub string) bool {
			return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
		})
	}
}

func compare(d Descriptor, p *ospackage.PackageInfo, eq func(a, b string) bool, contains func(s, sub string) bool) bool {
	if d.Platform != "" && p.Platform != "" && p.Platform != "noarch" && !eq(p.Platform, d.Platform) {
		return false
	}
	if d.Arch != "" && !isArchIndependent(p.Arch) &&
		!eq(CanonicalArch(p.Arch), CanonicalArch(d.Arch)) && !eq(p.Arch, d.Arch) {
		return false
	}
	if d.Variant != "" && p.Build != "" && !contains(p.Build, d.Variant) {
		return false
	}
	return true
}
