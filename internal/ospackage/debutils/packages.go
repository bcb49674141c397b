package debutils

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
)

// Type is the PackageInfo.Type of records read from a Packages file.
const Type = "deb"

// Relationship fields that become PackageInfo.Requires.
var dependencyFields = []string{"Pre-Depends", "Depends"}

// ParsePackages reads a Debian repository Packages file (RFC 822 style
// stanzas separated by blank lines). baseURL, when set, is joined with the
// Filename field to form the download URL.
func ParsePackages(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error) {
	log := logger.Logger()

	var pkgs []ospackage.PackageInfo
	stanza := map[string]string{}
	var lastKey string
	lineNo := 0

	flush := func() error {
		defer func() {
			stanza = map[string]string{}
			lastKey = ""
		}()
		if len(stanza) == 0 {
			return nil
		}
		pi, err := stanzaToPackage(stanza, source, baseURL)
		if err != nil {
			return fmt.Errorf("%s: stanza ending at line %d: %w", source, lineNo, err)
		}
		pkgs = append(pkgs, pi)
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if strings.TrimSpace(line) == "" {
			if err := flush(); err != nil {
				return nil, err
			}
			continue
		}

		// continuation of a multi-line field
		if line[0] == ' ' || line[0] == '\t' {
			if lastKey != "" {
				stanza[lastKey] += "\n" + strings.TrimSpace(line)
			}
			continue
		}

		key, val, ok := strings.Cut(line, ":")
		if !ok {
			log.Warnf("%s:%d: ignoring malformed line %q", source, lineNo, line)
			continue
		}
		lastKey = strings.TrimSpace(key)
		stanza[lastKey] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	if err := flush(); err != nil {
		return nil, err
	}

	log.Debugf("parsed %d deb records from %s", len(pkgs), source)
	return pkgs, nil
}

func stanzaToPackage(stanza map[string]string, source, baseURL string) (ospackage.PackageInfo, error) {
	log := logger.Logger()

	name := stanza["Package"]
	if name == "" {
		return ospackage.PackageInfo{}, fmt.Errorf("missing Package field")
	}
	ver := stanza["Version"]
	if ver == "" {
		return ospackage.PackageInfo{}, fmt.Errorf("package %s has no Version field", name)
	}

	pi := ospackage.PackageInfo{
		Name:     name,
		Version:  ver,
		Arch:     stanza["Architecture"],
		Type:     Type,
		Filename: stanza["Filename"],
		Checksum: stanza["SHA256"],
		Source:   source,
	}
	if desc := stanza["Description"]; desc != "" {
		pi.Description, _, _ = strings.Cut(desc, "\n")
	}
	if size := stanza["Size"]; size != "" {
		n, err := strconv.ParseInt(size, 10, 64)
		if err != nil {
			return ospackage.PackageInfo{}, fmt.Errorf("package %s: invalid Size %q", name, size)
		}
		pi.Size = n
	}
	if baseURL != "" && pi.Filename != "" {
		pi.URL = strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(pi.Filename, "/")
	}

	for _, field := range dependencyFields {
		raw := stanza[field]
		if raw == "" {
			continue
		}
		for _, dep := range strings.Split(raw, ",") {
			if strings.TrimSpace(dep) == "" {
				continue
			}
			req, err := pkgspec.ParseRequirement(dep)
			if err != nil {
				log.Warnf("skipping %s entry %q of %s: %v", field, dep, name, err)
				continue
			}
			pi.Requires = append(pi.Requires, req)
		}
	}
	return pi, nil
}
