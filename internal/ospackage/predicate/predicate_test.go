package predicate

import (
	"testing"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/target"
)

// counting wraps a predicate and records how often it ran.
type counting struct {
	Predicate
	calls int
}

func (c *counting) Evaluate(p *ospackage.PackageInfo) bool {
	c.calls++
	return c.Predicate.Evaluate(p)
}

func mustSpec(t *testing.T, expr string) pkgspec.PackageSpec {
	t.Helper()
	s, err := pkgspec.Parse(expr)
	if err != nil {
		t.Fatalf("Parse(%q): %v", expr, err)
	}
	return s
}

func mustReq(t *testing.T, dep string) pkgspec.PackageSpec {
	t.Helper()
	s, err := pkgspec.ParseRequirement(dep)
	if err != nil {
		t.Fatalf("ParseRequirement(%q): %v", dep, err)
	}
	return s
}

func TestNameEquals(t *testing.T) {
	p := NameEquals{Name: "scipy"}
	if !p.Evaluate(&ospackage.PackageInfo{Name: "scipy"}) {
		t.Error("expected exact name to match")
	}
	if p.Evaluate(&ospackage.PackageInfo{Name: "SciPy"}) {
		t.Error("name comparison must be case-sensitive")
	}
	if p.Kind() != KindNameEquals {
		t.Errorf("Kind() = %s", p.Kind())
	}
}

func TestVersionSatisfies(t *testing.T) {
	p := VersionSatisfies{Spec: mustSpec(t, "scipy>=1.2")}
	for _, v := range []string{"1.2", "1.2.0", "1.3", "2.0"} {
		if !p.Evaluate(&ospackage.PackageInfo{Name: "scipy", Version: v}) {
			t.Errorf("%s should satisfy >=1.2", v)
		}
	}
	for _, v := range []string{"1.1", "1.1.9"} {
		if p.Evaluate(&ospackage.PackageInfo{Name: "scipy", Version: v}) {
			t.Errorf("%s should not satisfy >=1.2", v)
		}
	}

	unconstrained := VersionSatisfies{Spec: pkgspec.PackageSpec{Name: "scipy"}}
	if !unconstrained.Evaluate(&ospackage.PackageInfo{Version: "0.0.1"}) {
		t.Error("absent constraint should always match")
	}

	withBuild := VersionSatisfies{Spec: mustSpec(t, "scipy 0.13 np17py27_0")}
	if withBuild.Evaluate(&ospackage.PackageInfo{Version: "0.13", Build: "np17py33_0"}) {
		t.Error("build pin should be honoured")
	}
}

func TestBuildTargetMatches(t *testing.T) {
	d := target.Descriptor{Platform: "linux-64"}
	p := BuildTargetMatches{Target: d}
	if !p.Evaluate(&ospackage.PackageInfo{Platform: "linux-64"}) {
		t.Error("default comparator should match equal platforms")
	}
	if p.Evaluate(&ospackage.PackageInfo{Platform: "osx-64"}) {
		t.Error("default comparator should reject other platforms")
	}

	var seen target.Descriptor
	injected := BuildTargetMatches{Target: d, Compare: func(got target.Descriptor, _ *ospackage.PackageInfo) bool {
		seen = got
		return false
	}}
	if injected.Evaluate(&ospackage.PackageInfo{Platform: "linux-64"}) {
		t.Error("injected comparator result should be returned")
	}
	if seen != d {
		t.Errorf("comparator received %v; want %v", seen, d)
	}
}

func TestRequirementsCompatible(t *testing.T) {
	env := []pkgspec.PackageSpec{mustReq(t, "numpy==1.7.1"), mustReq(t, "python>=2.7")}
	p := NewRequirementsCompatible(env)

	tests := []struct {
		name string
		deps []string
		want bool
	}{
		{"no requirements", nil, true},
		{"compatible pin", []string{"numpy 1.7*"}, true},
		{"conflicting pin", []string{"numpy 1.8*"}, false},
		{"unpinned in env", []string{"python 3.3*"}, true},
		{"unrelated", []string{"zlib"}, true},
		{"one of many conflicts", []string{"zlib", "numpy >=1.8"}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := ospackage.PackageInfo{Name: "scipy", Version: "0.13"}
			for _, d := range tc.deps {
				rec.Requires = append(rec.Requires, mustReq(t, d))
			}
			if got := p.Evaluate(&rec); got != tc.want {
				t.Errorf("Evaluate = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestRequirementsCompatibleVersionRanges(t *testing.T) {
	p := NewRequirementsCompatible([]pkgspec.PackageSpec{mustReq(t, "python==3.11"), mustReq(t, "numpy==1.8")})

	tests := []struct {
		dep  string
		want bool
	}{
		{"python >=3.8,<3.9.0a0", false},
		{"python >=3.8,<3.12.0a0", true},
		{"python >=3.8, <4", true},
		{"numpy 1.7|1.8", true},
		{"numpy 1.6|1.7", false},
		{"numpy >=1.9,<2|1.8.*", true},
	}
	for _, tc := range tests {
		t.Run(tc.dep, func(t *testing.T) {
			rec := ospackage.PackageInfo{Name: "scipy", Version: "0.13", Requires: []pkgspec.PackageSpec{mustReq(t, tc.dep)}}
			if got := p.Evaluate(&rec); got != tc.want {
				t.Errorf("Evaluate = %v; want %v", got, tc.want)
			}
		})
	}
}

func TestPinnedBy(t *testing.T) {
	p := NewPinnedBy([]pkgspec.PackageSpec{mustReq(t, "scipy==0.12")})
	if !p.Evaluate(&ospackage.PackageInfo{Name: "scipy", Version: "0.12"}) {
		t.Error("pinned version should match")
	}
	if p.Evaluate(&ospackage.PackageInfo{Name: "scipy", Version: "0.13"}) {
		t.Error("other version should not match the pin")
	}
	if !p.Evaluate(&ospackage.PackageInfo{Name: "numpy", Version: "1.7"}) {
		t.Error("records not named by the pins should match")
	}
}

func TestAllOfShortCircuits(t *testing.T) {
	first := &counting{Predicate: NameEquals{Name: "numpy"}}
	second := &counting{Predicate: NameEquals{Name: "scipy"}}
	all := NewAllOf(first, second)

	if all.Evaluate(&ospackage.PackageInfo{Name: "scipy"}) {
		t.Fatal("expected false")
	}
	if first.calls != 1 || second.calls != 0 {
		t.Errorf("calls = %d, %d; want 1, 0", first.calls, second.calls)
	}
}

func TestAllOfEmptyAndOrder(t *testing.T) {
	if !NewAllOf().Evaluate(&ospackage.PackageInfo{}) {
		t.Error("empty AllOf should match")
	}

	a := NameEquals{Name: "scipy"}
	b := VersionSatisfies{Spec: mustSpec(t, "scipy>=0.13")}
	recs := []ospackage.PackageInfo{
		{Name: "scipy", Version: "0.12"},
		{Name: "scipy", Version: "0.13"},
		{Name: "numpy", Version: "1.7"},
	}
	ab, ba := NewAllOf(a, b), NewAllOf(b, a)
	for i := range recs {
		if ab.Evaluate(&recs[i]) != ba.Evaluate(&recs[i]) {
			t.Errorf("AllOf order changed the result for %+v", recs[i])
		}
	}
}

func TestAllOfOwnsChildren(t *testing.T) {
	children := []Predicate{NameEquals{Name: "scipy"}}
	all := NewAllOf(children...)
	children[0] = NameEquals{Name: "numpy"}

	if !all.Evaluate(&ospackage.PackageInfo{Name: "scipy"}) {
		t.Error("AllOf should not see changes to the caller's slice")
	}
	if got := len(all.Children()); got != 1 {
		t.Errorf("Children() len = %d", got)
	}
}

func TestEvaluateIsPure(t *testing.T) {
	rec := ospackage.PackageInfo{Name: "scipy", Version: "0.13", Platform: "linux-64"}
	p := NewAllOf(
		VersionSatisfies{Spec: mustSpec(t, "scipy>=0.13")},
		BuildTargetMatches{Target: target.Descriptor{Platform: "linux-64"}},
	)
	first := p.Evaluate(&rec)
	for i := 0; i < 3; i++ {
		if p.Evaluate(&rec) != first {
			t.Fatal("repeated evaluation changed the result")
		}
	}
}

func TestString(t *testing.T) {
	p := NewAllOf(
		VersionSatisfies{Spec: mustSpec(t, "scipy>=0.13")},
		BuildTargetMatches{Target: target.Descriptor{Platform: "linux-64"}},
	)
	want := "all of (version >=0.13, target linux-64)"
	if got := p.String(); got != want {
		t.Errorf("String() = %q; want %q", got, want)
	}
}
