package condautils

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/open-edge-platform/os-package-search/internal/config/validate"
	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
)

// Type is the PackageInfo.Type of records read from repodata.json.
const Type = "conda"

type repodata struct {
	Info struct {
		Subdir string `json:"subdir"`
	} `json:"info"`
	Packages      map[string]record `json:"packages"`
	PackagesConda map[string]record `json:"packages.conda"`
}

type record struct {
	Name        string   `json:"name"`
	Version     string   `json:"version"`
	Build       string   `json:"build"`
	BuildNumber int      `json:"build_number"`
	Depends     []string `json:"depends"`
	Subdir      string   `json:"subdir"`
	Arch        string   `json:"arch"`
	License     string   `json:"license"`
	MD5         string   `json:"md5"`
	SHA256      string   `json:"sha256"`
	Size        int64    `json:"size"`
}

// ParseRepodata reads a conda channel repodata.json. Both the "packages"
// (.tar.bz2) and "packages.conda" maps are loaded; records are returned in
// file name order. baseURL, when set, is prefixed to each file name.
func ParseRepodata(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	log := logger.Logger()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read repodata %s: %w", source, err)
	}
	if err := validate.ValidateRepodataJSON(data); err != nil {
		return nil, fmt.Errorf("invalid repodata %s: %w", source, err)
	}

	var doc repodata
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode repodata %s: %w", source, err)
	}

	var pkgs []ospackage.PackageInfo
	for _, entries := range []map[string]record{doc.Packages, doc.PackagesConda} {
		filenames := make([]string, 0, len(entries))
		for fn := range entries {
			filenames = append(filenames, fn)
		}
		sort.Strings(filenames)

		for _, fn := range filenames {
			rec := entries[fn]
			pi := ospackage.PackageInfo{
				Name:        rec.Name,
				Version:     rec.Version,
				Build:       rec.Build,
				BuildNumber: rec.BuildNumber,
				Platform:    rec.Subdir,
				Arch:        rec.Arch,
				Type:        Type,
				Filename:    fn,
				Checksum:    rec.SHA256,
				Size:        rec.Size,
				License:     rec.License,
				Source:      source,
			}
			if pi.Platform == "" {
				pi.Platform = doc.Info.Subdir
			}
			if pi.Checksum == "" {
				pi.Checksum = rec.MD5
			}
			if baseURL != "" {
				pi.URL = joinURL(baseURL, fn)
			}
			for _, dep := range rec.Depends {
				req, err := pkgspec.ParseRequirement(dep)
				if err != nil {
					log.Warnf("skipping requirement %q of %s: %v", dep, fn, err)
					continue
				}
				pi.Requires = append(pi.Requires, req)
			}
			pkgs = append(pkgs, pi)
		}
	}

	log.Debugf("parsed %d conda records from %s", len(pkgs), source)
	return pkgs, nil
}

func joinURL(base, name string) string {
	if base[len(base)-1] == '/' {
		return base + name
	}
	return base + "/" + name
}
