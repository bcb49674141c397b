package rpmutils

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/version"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
)

// Type is the PackageInfo.Type of records read from primary.xml.
const Type = "rpm"

type primaryPackage struct {
	Type    string `xml:"type,attr"`
	Name    string `xml:"name"`
	Arch    string `xml:"arch"`
	Version struct {
		Epoch string `xml:"epoch,attr"`
		Ver   string `xml:"ver,attr"`
		Rel   string `xml:"rel,attr"`
	} `xml:"version"`
	Checksum    string `xml:"checksum"`
	Description string `xml:"summary"`
	Size        struct {
		Package int64 `xml:"package,attr"`
	} `xml:"size"`
	Location struct {
		Href string `xml:"href,attr"`
	} `xml:"location"`
	Format struct {
		License  string     `xml:"license"`
		Requires []rpmEntry `xml:"requires>entry"`
	} `xml:"format"`
}

type rpmEntry struct {
	Name  string `xml:"name,attr"`
	Flags string `xml:"flags,attr"`
	Epoch string `xml:"epoch,attr"`
	Ver   string `xml:"ver,attr"`
	Rel   string `xml:"rel,attr"`
}

var rpmFlags = map[string]string{
	"EQ": "==",
	"GE": ">=",
	"LE": "<=",
	"GT": ">",
	"LT": "<",
}

// ParsePrimary streams an RPM repository primary.xml and returns one record
// per <package>. baseURL, when set, is joined with each location href.
func ParsePrimary(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	log := logger.Logger()

	dec := xml.NewDecoder(r)
	var pkgs []ospackage.PackageInfo
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("failed to parse %s: %w", source, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "package" {
			continue
		}

		var p primaryPackage
		if err := dec.DecodeElement(&p, &se); err != nil {
			return nil, fmt.Errorf("failed to decode package in %s: %w", source, err)
		}
		if p.Name == "" || p.Version.Ver == "" {
			return nil, fmt.Errorf("%s: package without name or version", source)
		}

		pi := ospackage.PackageInfo{
			Name:        p.Name,
			Version:     evr(p.Version.Epoch, p.Version.Ver, p.Version.Rel),
			Arch:        p.Arch,
			Type:        Type,
			Filename:    p.Location.Href,
			Checksum:    p.Checksum,
			Size:        p.Size.Package,
			License:     p.Format.License,
			Description: p.Description,
			Source:      source,
		}
		if baseURL != "" && pi.Filename != "" {
			pi.URL = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(pi.Filename, "/")
		}
		for _, e := range p.Format.Requires {
			req, ok := requirement(e)
			if !ok {
				log.Debugf("skipping requirement %q of %s", e.Name, p.Name)
				continue
			}
			pi.Requires = append(pi.Requires, req)
		}
		pkgs = append(pkgs, pi)
	}

	log.Debugf("parsed %d rpm records from %s", len(pkgs), source)
	return pkgs, nil
}

// evr renders epoch:version-release, leaving out a zero epoch.
func evr(epoch, ver, rel string) string {
	out := ver
	if epoch != "" && epoch != "0" {
		out = epoch + ":" + out
	}
	if rel != "" {
		out += "-" + rel
	}
	return out
}

// requirement converts an rpm:entry. rpmlib() capabilities are internal to
// rpm and dropped.
func requirement(e rpmEntry) (pkgspec.PackageSpec, bool) {
	if e.Name == "" || strings.HasPrefix(e.Name, "rpmlib(") {
		return pkgspec.PackageSpec{}, false
	}
	spec := pkgspec.PackageSpec{Name: e.Name}
	op, ok := rpmFlags[e.Flags]
	if !ok || e.Ver == "" {
		return spec, true
	}
	c, err := version.NewConstraint(op, evr(e.Epoch, e.Ver, e.Rel))
	if err != nil {
		return pkgspec.PackageSpec{}, false
	}
	spec.Constraint = c
	return spec, true
}

// PrimaryHref returns the location of the primary metadata listed in a
// repomd.xml document, e.g. "repodata/abc-primary.xml.zst".
func PrimaryHref(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)

	// Walk the tokens looking for <data type="primary">
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				break
			}
			return "", err
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "data" {
			continue
		}
		var isPrimary bool
		for _, attr := range se.Attr {
			if attr.Name.Local == "type" && attr.Value == "primary" {
				isPrimary = true
				break
			}
		}
		if !isPrimary {
			if err := dec.Skip(); err != nil {
				return "", fmt.Errorf("error skipping token: %w", err)
			}
			continue
		}

		for {
			tok2, err := dec.Token()
			if err != nil {
				if err == io.EOF {
					break
				}
				return "", err
			}
			if ee, ok := tok2.(xml.EndElement); ok && ee.Name.Local == "data" {
				break
			}
			if le, ok := tok2.(xml.StartElement); ok && le.Name.Local == "location" {
				for _, attr := range le.Attr {
					if attr.Name.Local == "href" {
						return attr.Value, nil
					}
				}
			}
		}
	}
	return "", fmt.Errorf("primary location not found in repomd")
}
