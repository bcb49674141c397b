package index

import (
	"sort"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/version"
)

// Index is read access to a loaded package index.
type Index interface {
	// Names returns every distinct package name, sorted.
	Names() []string

	// HasName reports whether name is a registered package name.
	HasName(name string) bool

	// ByName returns the records with exactly this name.
	ByName(name string) []ospackage.PackageInfo

	// All returns every record.
	All() []ospackage.PackageInfo
}

// Memory is an Index held in memory with a pre-built name lookup.
type Memory struct {
	names  []string
	byName map[string][]ospackage.PackageInfo
	size   int
}

var _ Index = (*Memory)(nil)

// NewMemory builds an index from records. Records with the same Key are
// kept once, the first occurrence wins.
func NewMemory(records []ospackage.PackageInfo) *Memory {
	m := &Memory{byName: make(map[string][]ospackage.PackageInfo)}
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r.Name == "" {
			continue
		}
		key := r.Key()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		if _, ok := m.byName[r.Name]; !ok {
			m.names = append(m.names, r.Name)
		}
		m.byName[r.Name] = append(m.byName[r.Name], r)
		m.size++
	}
	sort.Strings(m.names)
	return m
}

func (m *Memory) Names() []string {
	return append([]string(nil), m.names...)
}

func (m *Memory) HasName(name string) bool {
	_, ok := m.byName[name]
	return ok
}

func (m *Memory) ByName(name string) []ospackage.PackageInfo {
	return append([]ospackage.PackageInfo(nil), m.byName[name]...)
}

func (m *Memory) All() []ospackage.PackageInfo {
	out := make([]ospackage.PackageInfo, 0, m.size)
	for _, name := range m.names {
		out = append(out, m.byName[name]...)
	}
	return out
}

// Len is the number of records.
func (m *Memory) Len() int {
	return m.size
}

// Sort orders records by name, then version, then build string.
func Sort(records []ospackage.PackageInfo) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := &records[i], &records[j]
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		if c := version.Compare(a.Version, b.Version); c != 0 {
			return c < 0
		}
		return a.Build < b.Build
	})
}
