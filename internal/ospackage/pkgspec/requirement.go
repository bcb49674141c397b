package pkgspec

import (
	"regexp"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage/version"
)

var (
	// a "|" with whitespace beside it separates Debian alternatives; conda
	// writes its alternatives as "1.7|1.8"
	alternativeRe = regexp.MustCompile(`\s\||\|\s`)
	commaRe       = regexp.MustCompile(`\s*,\s*`)
)

// ParseRequirement parses a dependency as written in index metadata:
//
//	numpy 1.7*              conda, version glob
//	python >=2.7,<3         conda, every clause must hold
//	numpy 1.7|1.8           conda, one of the versions
//	openssl 1.0.1c 0        conda, name version build
//	libc6 (>= 2.31)         Debian
//	logsave | e2fsprogs     Debian alternatives, the first one is kept
//	python3:any (>= 3.9)    Debian arch qualifier is dropped
//	scipy=0.12              environment.yml pin
func ParseRequirement(dep string) (PackageSpec, error) {
	s := strings.TrimSpace(dep)
	if loc := alternativeRe.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(s[:loc[0]])
	}
	if i := strings.IndexByte(s, '['); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	s = commaRe.ReplaceAllString(s, ",")
	if s == "" || strings.HasPrefix(s, "|") {
		return PackageSpec{}, &InvalidSpecError{Expression: dep, Reason: "empty requirement"}
	}

	if open := strings.IndexByte(s, '('); open >= 0 {
		name := cleanName(s[:open])
		if name == "" {
			return PackageSpec{}, &InvalidSpecError{Expression: dep, Reason: "missing package name"}
		}
		inner := strings.TrimSuffix(strings.TrimSpace(s[open+1:]), ")")
		c, err := version.ParseConstraint(inner)
		if err != nil {
			return PackageSpec{}, &InvalidSpecError{Expression: dep, Reason: err.Error()}
		}
		return PackageSpec{Name: name, Constraint: c}, nil
	}

	fields := strings.Fields(s)
	if len(fields) == 1 {
		spec, ok, err := parseOperatorForm(dep, s)
		if err != nil {
			return PackageSpec{}, err
		}
		if !ok {
			if spec, ok, err = parseJoinedConstraint(dep, s); err != nil {
				return PackageSpec{}, err
			}
		}
		if !ok {
			spec = PackageSpec{Name: s}
		}
		spec.Name = cleanName(spec.Name)
		return spec, nil
	}

	name := cleanName(fields[0])
	if name == "" {
		return PackageSpec{}, &InvalidSpecError{Expression: dep, Reason: "missing package name"}
	}

	// "name >= 1.0" has the operator and version in separate fields
	rest := fields[1:]
	if leadingOperator(rest[0]) == rest[0] && len(rest) > 1 {
		rest = append([]string{rest[0] + rest[1]}, rest[2:]...)
	}

	c, err := version.ParseConstraint(rest[0])
	if err != nil {
		return PackageSpec{}, &InvalidSpecError{Expression: dep, Reason: err.Error()}
	}
	spec := PackageSpec{Name: name, Constraint: c}
	if len(rest) > 1 {
		spec.Build = rest[1]
	}
	return spec, nil
}

// parseJoinedConstraint reads "python>=3.8,<4", a name directly followed by
// a compound constraint.
func parseJoinedConstraint(dep, s string) (PackageSpec, bool, error) {
	i := strings.IndexAny(s, "=<>!")
	if i < 0 || !strings.ContainsAny(s[i:], ",|") {
		return PackageSpec{}, false, nil
	}
	name := cleanName(s[:i])
	if name == "" {
		return PackageSpec{}, false, &InvalidSpecError{Expression: dep, Reason: "missing package name"}
	}
	c, err := version.ParseConstraint(s[i:])
	if err != nil {
		return PackageSpec{}, false, &InvalidSpecError{Expression: dep, Reason: err.Error()}
	}
	return PackageSpec{Name: name, Constraint: c}, true, nil
}

func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if i := strings.IndexByte(name, ':'); i >= 0 {
		name = name[:i]
	}
	return name
}
