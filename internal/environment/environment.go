package environment

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
	"github.com/open-edge-platform/os-package-search/internal/utils/slice"
	"gopkg.in/yaml.v3"
)

// ErrEnvironmentNotFound is returned when a prefix does not name an
// environment.
var ErrEnvironmentNotFound = errors.New("environment not found")

const (
	metaDir     = "conda-meta"
	pinnedFile  = "pinned"
	environFile = "environment.yml"
)

// Installed is a package recorded in conda-meta.
type Installed struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Build   string `json:"build"`
}

// Environment is the set of constraints an installed environment imposes
// on new packages.
type Environment struct {
	Prefix string

	installed    []Installed
	requirements []pkgspec.PackageSpec
}

// Requirements returns the environment's constraints: an exact pin for
// every installed package, then pinned-file entries, then environment.yml
// dependencies.
func (e *Environment) Requirements() []pkgspec.PackageSpec {
	return append([]pkgspec.PackageSpec(nil), e.requirements...)
}

// Installed returns the installed packages sorted by name.
func (e *Environment) Installed() []Installed {
	return append([]Installed(nil), e.installed...)
}

type environmentFile struct {
	Name         string        `yaml:"name"`
	Dependencies []interface{} `yaml:"dependencies"`
}

// Load reads the environment at prefix. "~" is expanded to the home
// directory.
func Load(prefix string) (*Environment, error) {
	log := logger.Logger()

	abs, err := ExpandPrefix(prefix)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, prefix)
	}

	env := &Environment{Prefix: abs}
	found := false

	if ok, err := env.readMeta(filepath.Join(abs, metaDir)); err != nil {
		return nil, err
	} else if ok {
		found = true
	}
	if ok, err := env.readPinned(filepath.Join(abs, metaDir, pinnedFile)); err != nil {
		return nil, err
	} else if ok {
		found = true
	}
	if ok, err := env.readEnvironmentFile(filepath.Join(abs, environFile)); err != nil {
		return nil, err
	} else if ok {
		found = true
	}

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, prefix)
	}
	log.Debugf("loaded environment %s: %d installed, %d requirements", abs, len(env.installed), len(env.requirements))
	return env, nil
}

// ExpandPrefix expands a leading "~" and makes the path absolute.
func ExpandPrefix(prefix string) (string, error) {
	if prefix == "~" || strings.HasPrefix(prefix, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand %s: %w", prefix, err)
		}
		prefix = filepath.Join(home, strings.TrimPrefix(prefix, "~"))
	}
	abs, err := filepath.Abs(prefix)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", prefix, err)
	}
	return abs, nil
}

// readMeta loads conda-meta/*.json records.
func (e *Environment) readMeta(dir string) (bool, error) {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return false, nil
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return false, fmt.Errorf("failed to read %s: %w", f, err)
		}
		var rec Installed
		if err := json.Unmarshal(data, &rec); err != nil {
			return false, fmt.Errorf("invalid package record %s: %w", f, err)
		}
		if rec.Name == "" || rec.Version == "" {
			return false, fmt.Errorf("invalid package record %s: missing name or version", f)
		}
		e.installed = append(e.installed, rec)
	}
	sort.Slice(e.installed, func(i, j int) bool { return e.installed[i].Name < e.installed[j].Name })

	for _, rec := range e.installed {
		spec, err := pkgspec.ParseRequirement(rec.Name + "==" + rec.Version)
		if err != nil {
			return false, fmt.Errorf("installed package %s: %w", rec.Name, err)
		}
		e.requirements = append(e.requirements, spec)
	}
	// an empty conda-meta still marks a conda environment
	return true, nil
}

// readPinned loads the one-spec-per-line pinned file.
func (e *Environment) readPinned(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, nil
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		spec, err := pkgspec.ParseRequirement(line)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		e.requirements = append(e.requirements, spec)
	}
	if err := scanner.Err(); err != nil {
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return true, nil
}

// readEnvironmentFile loads the string entries of environment.yml
// dependencies; nested pip sections are skipped.
func (e *Environment) readEnvironmentFile(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return false, nil
	}
	var ef environmentFile
	if err := yaml.Unmarshal(data, &ef); err != nil {
		return false, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	// pip sub-lists are maps and are skipped
	for _, s := range slice.Strings(ef.Dependencies) {
		// channel::name
		if i := strings.Index(s, "::"); i >= 0 {
			s = s[i+2:]
		}
		spec, err := pkgspec.ParseRequirement(s)
		if err != nil {
			return false, fmt.Errorf("%s: %w", path, err)
		}
		e.requirements = append(e.requirements, spec)
	}
	return true, nil
}
