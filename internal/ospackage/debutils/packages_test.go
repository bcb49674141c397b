package debutils_test

import (
	"sort"
	"strings"
	"testing"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/debutils"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/version"
)

const packagesContent = `Package: test-package
Version: 1.0.0-1
Architecture: amd64
Depends: libc6 (>= 2.31), libssl3 (>= 3.0.0)
Pre-Depends: dpkg (>= 1.17.5)
Provides: virtual-package
Filename: pool/main/t/test-package/test-package_1.0.0-1_amd64.deb
Size: 12345
SHA256: abcdef1234567890abcdef1234567890abcdef1234567890abcdef1234567890
Description: A test package for unit testing
 This is the long description.
 .
 It spans several lines.
Maintainer: Test Maintainer <test@example.com>

Package: another-package
Version: 2.1.0-1ubuntu1
Architecture: all
Depends: logsave | e2fsprogs (<< 1.45.3-1~), python3:any (>= 3.9)
Filename: pool/universe/a/another-package/another-package_2.1.0-1ubuntu1_all.deb
SHA256: fedcba0987654321fedcba0987654321fedcba0987654321fedcba0987654321
Description: Another test package
`

// TestParsePackages tests parsing of Debian repository metadata
func TestParsePackages(t *testing.T) {
	pkgs, err := debutils.ParsePackages(strings.NewReader(packagesContent), "Packages", "http://deb.example.com/debian/")
	if err != nil {
		t.Fatalf("ParsePackages failed: %v", err)
	}
	if len(pkgs) != 2 {
		t.Fatalf("Expected 2 packages, got %d", len(pkgs))
	}

	first := pkgs[0]
	if first.Name != "test-package" || first.Version != "1.0.0-1" || first.Arch != "amd64" {
		t.Errorf("Unexpected first package: %+v", first)
	}
	if first.Size != 12345 {
		t.Errorf("Expected size 12345, got %d", first.Size)
	}
	if first.Description != "A test package for unit testing" {
		t.Errorf("Expected short description, got %q", first.Description)
	}
	if first.URL != "http://deb.example.com/debian/pool/main/t/test-package/test-package_1.0.0-1_amd64.deb" {
		t.Errorf("Unexpected URL %q", first.URL)
	}

	got := first.RequirementStrings()
	want := []string{"dpkg>=1.17.5", "libc6>=2.31", "libssl3>=3.0.0"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("Requires = %v; want %v", got, want)
	}

	second := pkgs[1]
	names := []string{}
	for _, r := range second.Requires {
		names = append(names, r.Name)
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "logsave,python3" {
		t.Errorf("Expected first alternative and stripped arch qualifier, got %v", names)
	}
}

func TestParsePackagesErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing version", "Package: broken\nArchitecture: amd64\n"},
		{"missing package", "Version: 1.0\n"},
		{"bad size", "Package: broken\nVersion: 1.0\nSize: big\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := debutils.ParsePackages(strings.NewReader(tc.content), "Packages", ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParsePackagesEmpty(t *testing.T) {
	pkgs, err := debutils.ParsePackages(strings.NewReader("\n\n"), "Packages", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("expected no packages, got %d", len(pkgs))
	}
}

// TestVersionComparison tests Debian version ordering
func TestVersionComparison(t *testing.T) {
	testCases := []struct {
		name     string
		packages []ospackage.PackageInfo
		expected string
	}{
		{
			name: "basic version comparison",
			packages: []ospackage.PackageInfo{
				{Name: "pkg", Version: "1.0"},
				{Name: "pkg", Version: "1.1"},
			},
			expected: "1.1",
		},
		{
			name: "debian version with epoch",
			packages: []ospackage.PackageInfo{
				{Name: "pkg", Version: "2.0"},
				{Name: "pkg", Version: "1:1.0"},
			},
			expected: "1:1.0", // Epoch makes 1:1.0 > 2.0
		},
		{
			name: "tilde version handling",
			packages: []ospackage.PackageInfo{
				{Name: "pkg", Version: "1.0"},
				{Name: "pkg", Version: "1.0~rc1"},
			},
			expected: "1.0",
		},
		{
			name: "complex debian versions",
			packages: []ospackage.PackageInfo{
				{Name: "pkg", Version: "6.6.4-5+b1"},
				{Name: "pkg", Version: "6.6.4-5"},
			},
			expected: "6.6.4-5+b1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			best := tc.packages[0]
			for _, p := range tc.packages[1:] {
				if version.Compare(p.Version, best.Version) > 0 {
					best = p
				}
			}
			if best.Version != tc.expected {
				t.Errorf("Expected version %s, got %s", tc.expected, best.Version)
			}
		})
	}
}
