package condautils

import (
	"strings"
	"testing"
)

const sampleRepodata = `{
  "info": {"subdir": "linux-64"},
  "packages": {
    "scipy-0.13.0-np17py27_0.tar.bz2": {
      "name": "scipy", "version": "0.13.0", "build": "np17py27_0", "build_number": 0,
      "depends": ["numpy 1.7*", "python 2.7*"], "md5": "abc", "size": 100
    },
    "numpy-1.7.1-py27_0.tar.bz2": {
      "name": "numpy", "version": "1.7.1", "build": "py27_0",
      "depends": ["python >=2.7,<2.8.0a0", "  "],
      "sha256": "def"
    }
  },
  "packages.conda": {
    "pip-9.0.1-py27_0.conda": {
      "name": "pip", "version": "9.0.1", "build": "py27_0", "subdir": "noarch"
    }
  }
}`

func TestParseRepodata(t *testing.T) {
	pkgs, err := ParseRepodata(strings.NewReader(sampleRepodata), "repodata.json", "https://conda.example.com/main/linux-64/")
	if err != nil {
		t.Fatalf("ParseRepodata: %v", err)
	}
	if len(pkgs) != 3 {
		t.Fatalf("expected 3 records, got %d", len(pkgs))
	}

	numpy, scipy, pip := pkgs[0], pkgs[1], pkgs[2]
	if numpy.Name != "numpy" || scipy.Name != "scipy" || pip.Name != "pip" {
		t.Fatalf("unexpected order: %s, %s, %s", numpy.Name, scipy.Name, pip.Name)
	}

	if scipy.Platform != "linux-64" {
		t.Errorf("scipy platform = %q; want info.subdir", scipy.Platform)
	}
	if pip.Platform != "noarch" {
		t.Errorf("pip platform = %q; want record subdir", pip.Platform)
	}
	if scipy.Checksum != "abc" || numpy.Checksum != "def" {
		t.Errorf("checksums = %q, %q", scipy.Checksum, numpy.Checksum)
	}
	if scipy.URL != "https://conda.example.com/main/linux-64/scipy-0.13.0-np17py27_0.tar.bz2" {
		t.Errorf("URL = %q", scipy.URL)
	}
	if scipy.Type != Type || scipy.Source != "repodata.json" {
		t.Errorf("Type/Source = %q/%q", scipy.Type, scipy.Source)
	}

	if len(scipy.Requires) != 2 || scipy.Requires[0].Name != "numpy" {
		t.Fatalf("scipy requires = %v", scipy.Requires)
	}
	if !scipy.Requires[0].Matches("1.7.1", "") || scipy.Requires[0].Matches("1.8.0", "") {
		t.Errorf("numpy 1.7* requirement parsed wrong: %s", scipy.Requires[0])
	}

	// the malformed dependency is skipped, both ends of the range kept
	if len(numpy.Requires) != 1 || numpy.Requires[0].String() != "python>=2.7,<2.8.0a0" {
		t.Errorf("numpy requires = %v", numpy.RequirementStrings())
	}
	if py := numpy.Requires[0]; !py.Matches("2.7.18", "") || py.Matches("3.11", "") {
		t.Errorf("python range parsed wrong: %s", py)
	}
}

func TestParseRepodataErrors(t *testing.T) {
	tests := map[string]string{
		"not json":        `packages`,
		"missing version": `{"packages": {"x.tar.bz2": {"name": "x"}}}`,
		"wrong type":      `{"packages": []}`,
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseRepodata(strings.NewReader(doc), "repodata.json", ""); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestParseRepodataEmpty(t *testing.T) {
	pkgs, err := ParseRepodata(strings.NewReader(`{}`), "repodata.json", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 0 {
		t.Errorf("expected no records, got %d", len(pkgs))
	}
}
