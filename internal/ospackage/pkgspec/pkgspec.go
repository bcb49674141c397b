package pkgspec

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage/version"
)

/*
  Search expressions accepted by Parse:

  expr     := name
            | name op version          "scipy>=0.13", "scipy >= 0.13"
            | name version [build]     "scipy 0.13", "scipy 0.13 np17py27_0"
            | name "-" version         "scipy-0.13"
  op       := == | != | >= | <= | >> | << | > | < | =
  name     := [A-Za-z0-9_][A-Za-z0-9_.+-]*
  version  := [0-9][A-Za-z0-9_.+~:*!-]* | *

  Anything else (regular expressions, stray operators) is a bare name.
*/

var (
	nameRe    = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_.+-]*$`)
	versionRe = regexp.MustCompile(`^(?:[0-9][A-Za-z0-9_.+~:*!-]*|\*)$`)
	buildRe   = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_.+]*$`)

	// longest spellings first so ">=" wins over ">"
	operators = []string{"==", "!=", ">=", "<=", ">>", "<<", ">", "<", "="}
)

// ErrInvalidSpec is matched by every *InvalidSpecError.
var ErrInvalidSpec = errors.New("invalid package specification")

// InvalidSpecError reports an expression that has no usable name.
type InvalidSpecError struct {
	Expression string
	Reason     string
}

func (e *InvalidSpecError) Error() string {
	return fmt.Sprintf("invalid package specification %q: %s", e.Expression, e.Reason)
}

func (e *InvalidSpecError) Is(target error) bool {
	return target == ErrInvalidSpec
}

// PackageSpec is a package name with an optional version constraint and
// build string.
type PackageSpec struct {
	Name       string
	Constraint *version.Constraint
	Build      string
}

// HasConstraint reports whether a version was given.
func (s PackageSpec) HasConstraint() bool {
	return s.Constraint != nil
}

// FixedVersion returns the version pinned by an exact, non-wildcard
// constraint.
func (s PackageSpec) FixedVersion() (string, bool) {
	if s.Constraint == nil || s.Constraint.Op != version.OpEqual || version.IsPrefix(s.Constraint.Version) {
		return "", false
	}
	return s.Constraint.Version, true
}

// Matches reports whether a package with the given version and build
// satisfies the spec's constraint and build pin. The name is not checked.
func (s PackageSpec) Matches(ver string, build string) bool {
	if s.Build != "" && s.Build != build {
		return false
	}
	return s.Constraint.Satisfied(ver)
}

func (s PackageSpec) String() string {
	out := s.Name + s.Constraint.String()
	if s.Build != "" {
		out += " " + s.Build
	}
	return out
}

// Parse turns a search expression into a PackageSpec. Every non-empty
// expression parses; text without a recognisable version becomes a bare
// name with no constraint.
func Parse(expression string) (PackageSpec, error) {
	s := strings.TrimSpace(expression)
	if s == "" {
		return PackageSpec{}, &InvalidSpecError{Expression: expression, Reason: "empty expression"}
	}

	if spec, ok, err := parseOperatorForm(expression, s); err != nil || ok {
		return spec, err
	}
	if spec, ok := parseFieldsForm(s); ok {
		return spec, nil
	}
	if spec, ok := parseDashForm(s); ok {
		return spec, nil
	}
	return PackageSpec{Name: s}, nil
}

func parseOperatorForm(expression, s string) (PackageSpec, bool, error) {
	i := strings.IndexAny(s, "=<>!")
	if i < 0 {
		return PackageSpec{}, false, nil
	}
	name := strings.TrimSpace(s[:i])
	rest := s[i:]

	op := leadingOperator(rest)
	if op == "" {
		return PackageSpec{}, false, nil
	}
	ver := strings.TrimSpace(rest[len(op):])
	if !versionRe.MatchString(ver) {
		return PackageSpec{}, false, nil
	}
	if name == "" {
		return PackageSpec{}, false, &InvalidSpecError{Expression: expression, Reason: "missing package name"}
	}
	if !nameRe.MatchString(name) {
		return PackageSpec{}, false, nil
	}
	c, err := version.NewConstraint(op, ver)
	if err != nil {
		return PackageSpec{}, false, nil
	}
	return PackageSpec{Name: name, Constraint: c}, true, nil
}

func parseFieldsForm(s string) (PackageSpec, bool) {
	fields := strings.Fields(s)
	if len(fields) < 2 || len(fields) > 3 {
		return PackageSpec{}, false
	}
	if !nameRe.MatchString(fields[0]) || !versionRe.MatchString(fields[1]) {
		return PackageSpec{}, false
	}
	c, err := version.NewConstraint("==", fields[1])
	if err != nil {
		return PackageSpec{}, false
	}
	spec := PackageSpec{Name: fields[0], Constraint: c}
	if len(fields) == 3 {
		spec.Build = fields[2]
	}
	return spec, true
}

// parseDashForm splits "name-version" at the first dash followed by a digit.
// A trailing "-build" whose build starts with a letter ("-py27_0") is split
// off as the build string.
func parseDashForm(s string) (PackageSpec, bool) {
	if strings.ContainsAny(s, " \t") {
		return PackageSpec{}, false
	}
	for i := 1; i < len(s)-1; i++ {
		if s[i] != '-' || s[i+1] < '0' || s[i+1] > '9' {
			continue
		}
		name, ver, build := s[:i], s[i+1:], ""
		if j := strings.LastIndexByte(ver, '-'); j > 0 && buildRe.MatchString(ver[j+1:]) {
			ver, build = ver[:j], ver[j+1:]
		}
		if !nameRe.MatchString(name) || !versionRe.MatchString(ver) {
			return PackageSpec{}, false
		}
		c, err := version.NewConstraint("==", ver)
		if err != nil {
			return PackageSpec{}, false
		}
		return PackageSpec{Name: name, Constraint: c, Build: build}, true
	}
	return PackageSpec{}, false
}

func leadingOperator(s string) string {
	for _, op := range operators {
		if strings.HasPrefix(s, op) {
			return op
		}
	}
	return ""
}
