package provider

import (
	"io"
	"sort"
	"sync"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
)

// Provider is the interface every index format plugin must implement.
type Provider interface {
	// Name is a unique ID, e.g. "conda" or "deb". It is the value of the
	// format key of an index entry in the configuration.
	Name() string

	// Detect reports whether a file with this base name (compression
	// suffix already removed) is in this format.
	Detect(filename string) bool

	// Parse reads an index document. source names it in errors and in
	// PackageInfo.Source; baseURL, when known, is used to build download
	// URLs.
	Parse(r io.Reader, source string, baseURL string) ([]ospackage.PackageInfo, error)
}

var (
	mu        sync.RWMutex
	providers = make(map[string]Provider)
)

// Register makes a Provider available under its Name().
func Register(p Provider) {
	mu.Lock()
	defer mu.Unlock()
	providers[p.Name()] = p
}

// Get returns the Provider by name.
func Get(name string) (Provider, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := providers[name]
	return p, ok
}

// Names lists the registered providers, sorted.
func Names() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(providers))
	for n := range providers {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Detect returns the first provider, in name order, that claims filename.
func Detect(filename string) (Provider, bool) {
	for _, n := range Names() {
		p, _ := Get(n)
		if p.Detect(filename) {
			return p, true
		}
	}
	return nil, false
}
