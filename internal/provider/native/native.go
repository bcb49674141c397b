package native

import (
	"encoding/json"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/config/validate"
	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/provider"
)

// Type is the PackageInfo.Type of records read from a native index.
const Type = "yaml"

// Document is the native package index format, written as YAML or JSON:
//
//	platform: linux-64
//	packages:
//	  - name: scipy
//	    version: "0.13"
//	    build: np17py27_0
//	    requires: ["numpy 1.7*", "python 2.7*"]
type Document struct {
	Platform string   `json:"platform,omitempty"`
	Packages []Record `json:"packages"`
}

// Record is one package entry of a Document.
type Record struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build,omitempty"`
	BuildNumber int      `json:"buildNumber,omitempty"`
	Platform    string   `json:"platform,omitempty"`
	Arch        string   `json:"arch,omitempty"`
	Requires    []string `json:"requires,omitempty"`
	Filename    string   `json:"filename,omitempty"`
	URL         string   `json:"url,omitempty"`
	Checksum    string   `json:"checksum,omitempty"`
	Size        int64    `json:"size,omitempty"`
	License     string   `json:"license,omitempty"`
	Description string   `json:"description,omitempty"`
}

// Native implements provider.Provider for the native index format.
type Native struct{}

func init() {
	provider.Register(&Native{})
}

// Name returns the unique name of the provider
func (p *Native) Name() string { return Type }

// Detect matches any .yaml, .yml or .json file.
func (p *Native) Detect(filename string) bool {
	switch path.Ext(filename) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

func (p *Native) Parse(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	// JSON is valid YAML, so one path serves both encodings
	js, err := validate.ValidatePackageIndexYAML(data)
	if err != nil {
		return nil, fmt.Errorf("invalid package index %s: %w", source, err)
	}
	var doc Document
	if err := json.Unmarshal(js, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode package index %s: %w", source, err)
	}
	return doc.toPackages(source, baseURL)
}

func (d *Document) toPackages(source, baseURL string) ([]ospackage.PackageInfo, error) {
	pkgs := make([]ospackage.PackageInfo, 0, len(d.Packages))
	for _, rec := range d.Packages {
		pi := ospackage.PackageInfo{
			Name:        rec.Name,
			Version:     rec.Version,
			Build:       rec.Build,
			BuildNumber: rec.BuildNumber,
			Platform:    rec.Platform,
			Arch:        rec.Arch,
			Type:        Type,
			Filename:    rec.Filename,
			URL:         rec.URL,
			Checksum:    rec.Checksum,
			Size:        rec.Size,
			License:     rec.License,
			Description: rec.Description,
			Source:      source,
		}
		if pi.Platform == "" {
			pi.Platform = d.Platform
		}
		if pi.URL == "" && baseURL != "" && pi.Filename != "" {
			pi.URL = strings.TrimSuffix(baseURL, "/") + "/" + pi.Filename
		}
		for _, dep := range rec.Requires {
			req, err := pkgspec.ParseRequirement(dep)
			if err != nil {
				return nil, fmt.Errorf("%s: package %s: %w", source, rec.Name, err)
			}
			pi.Requires = append(pi.Requires, req)
		}
		pkgs = append(pkgs, pi)
	}
	return pkgs, nil
}
