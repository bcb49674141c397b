package version_test

import (
	"sort"
	"testing"

	"github.com/open-edge-platform/os-package-search/internal/ospackage/version"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.2", "1.2.0", 0},
		{"1.2.0", "1.2", 0},
		{"1.2", "1.2.0.0", 0},
		{"1.1.9", "1.2", -1},
		{"1.10", "1.9", 1},
		{"0.13", "0.12", 1},
		{"2.0", "1:1.0", -1},
		{"1.0~rc1", "1.0", -1},
		{"1.0rc1", "1.0", -1},
		{"1.2rc1", "1.2.0", -1},
		{"1.0a1", "1.0b1", -1},
		{"6.6.4-5+b1", "6.6.4-5", 1},
		{"2.31-13+deb11u5", "2.31-13+deb11u4", 1},
		{"3.0.7-1", "3.0.7-1", 0},
	}

	for _, tc := range tests {
		if got := version.Compare(tc.a, tc.b); got != tc.want {
			t.Errorf("Compare(%q, %q) = %d; want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestCompareIsAntisymmetric(t *testing.T) {
	versions := []string{"1.0", "1.0.1", "1.0rc1", "1:0.1", "2.0-1", "0.13", "1.7.1"}
	for _, a := range versions {
		for _, b := range versions {
			if version.Compare(a, b) != -version.Compare(b, a) {
				t.Errorf("Compare(%q,%q) and Compare(%q,%q) disagree", a, b, b, a)
			}
		}
	}
}

func TestSortWithLess(t *testing.T) {
	got := []string{"2.0", "1.10", "1.2", "1.9", "1.0rc1", "1.0"}
	sort.Slice(got, func(i, j int) bool { return version.Less(got[i], got[j]) })
	want := []string{"1.0rc1", "1.0", "1.2", "1.9", "1.10", "2.0"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("sorted = %v; want %v", got, want)
		}
	}
}

func TestGreaterEqualOrdering(t *testing.T) {
	c, err := version.NewConstraint(">=", "1.2")
	if err != nil {
		t.Fatalf("NewConstraint: %v", err)
	}
	for _, v := range []string{"1.2", "1.2.0", "1.3", "2.0"} {
		if !c.Satisfied(v) {
			t.Errorf(">=1.2 should accept %s", v)
		}
	}
	for _, v := range []string{"1.1", "1.1.9"} {
		if c.Satisfied(v) {
			t.Errorf(">=1.2 should reject %s", v)
		}
	}
}

func TestConstraintOperators(t *testing.T) {
	tests := []struct {
		op, ver string
		input   string
		want    bool
	}{
		{"=", "0.13", "0.13", true},
		{"==", "0.13", "0.13.0", true},
		{"==", "0.13", "0.12", false},
		{"!=", "0.13", "0.12", true},
		{"<=", "0.13", "0.13", true},
		{"<=", "0.13", "0.14", false},
		{">", "0.13", "0.13", false},
		{">", "0.13", "0.13.1", true},
		{"<", "0.13", "0.12.9", true},
		{"<<", "1.45.3-1~", "1.45.2-1", true},
		{"<<", "1.45.3-1~", "1.45.4-1", false},
		{">>", "1.0", "1.0", false},
		{"==", "1.7*", "1.7.1", true},
		{"==", "1.7.*", "1.7", true},
		{"==", "1.7*", "1.8", false},
		{"==", "1.7*", "1.71", false},
		{"!=", "1.7*", "1.8", true},
		{"==", "*", "42", true},
	}

	for _, tc := range tests {
		c, err := version.NewConstraint(tc.op, tc.ver)
		if err != nil {
			t.Fatalf("NewConstraint(%q, %q): %v", tc.op, tc.ver, err)
		}
		if got := c.Satisfied(tc.input); got != tc.want {
			t.Errorf("%s%s satisfied by %s = %v; want %v", tc.op, tc.ver, tc.input, got, tc.want)
		}
	}
}

func TestNewConstraintErrors(t *testing.T) {
	if _, err := version.NewConstraint("~=", "1.0"); err == nil {
		t.Error("expected error for unknown operator")
	}
	if _, err := version.NewConstraint(">=", " "); err == nil {
		t.Error("expected error for empty version")
	}
	if _, err := version.NewConstraint(">=", "1.7*"); err == nil {
		t.Error("expected error for wildcard with ordering operator")
	}
}

func TestNilConstraintAcceptsAll(t *testing.T) {
	var c *version.Constraint
	if !c.Satisfied("anything") {
		t.Error("nil constraint should accept every version")
	}
	if c.String() != "" {
		t.Errorf("nil constraint String() = %q", c.String())
	}
}

func TestParseConstraint(t *testing.T) {
	tests := []struct {
		input  string
		str    string
		accept []string
		reject []string
	}{
		{">=3.8,<3.9.0a0", ">=3.8,<3.9.0a0", []string{"3.8", "3.8.12"}, []string{"3.7", "3.9.1", "3.11"}},
		{"1.7|1.8", "==1.7|==1.8", []string{"1.7", "1.8.0"}, []string{"1.9", "1.7.1"}},
		{">=1.7,<2|1.6.*", ">=1.7,<2|==1.6.*", []string{"1.6.3", "1.9"}, []string{"1.5", "2.0"}},
		{" >=2.7 , <3 ", ">=2.7,<3", []string{"2.7.18"}, []string{"3.0"}},
		{"1.7*", "==1.7*", []string{"1.7.1"}, []string{"1.8"}},
		{"!=1.0", "!=1.0", []string{"1.1"}, []string{"1.0"}},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			c, err := version.ParseConstraint(tc.input)
			if err != nil {
				t.Fatalf("ParseConstraint(%q): %v", tc.input, err)
			}
			if got := c.String(); got != tc.str {
				t.Errorf("String() = %q; want %q", got, tc.str)
			}
			for _, v := range tc.accept {
				if !c.Satisfied(v) {
					t.Errorf("%s should accept %s", tc.input, v)
				}
			}
			for _, v := range tc.reject {
				if c.Satisfied(v) {
					t.Errorf("%s should reject %s", tc.input, v)
				}
			}
		})
	}
}

func TestParseConstraintCompound(t *testing.T) {
	single, err := version.ParseConstraint(">=1.0")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	if single.IsCompound() || single.Op != version.OpGreaterEqual || single.Version != "1.0" {
		t.Errorf("single clause = %+v; want plain >=1.0", single)
	}

	rng, err := version.ParseConstraint(">=1.0,<2")
	if err != nil {
		t.Fatalf("ParseConstraint: %v", err)
	}
	if !rng.IsCompound() || rng.Op != "" || len(rng.All) != 2 {
		t.Errorf("range = %+v; want two clauses and no operator", rng)
	}
}

func TestParseConstraintErrors(t *testing.T) {
	for _, input := range []string{"", "   ", ">=1.0,", "1.0|", ">=1.7*,<2"} {
		if _, err := version.ParseConstraint(input); err == nil {
			t.Errorf("ParseConstraint(%q): expected error", input)
		}
	}
}
