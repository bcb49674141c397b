package version

import (
	"fmt"
	"strconv"
	"strings"

	rpmutils "github.com/sassoftware/go-rpmutils"
)

// Operator is a comparison operator in a version constraint.
type Operator string

const (
	OpEqual        Operator = "=="
	OpNotEqual     Operator = "!="
	OpGreaterEqual Operator = ">="
	OpLessEqual    Operator = "<="
	OpGreater      Operator = ">"
	OpLess         Operator = "<"
)

// preReleaseTags sort before the release they are attached to ("1.0rc1" < "1.0").
var preReleaseTags = []string{"alpha", "beta", "dev", "pre", "rc", "a", "b", "c"}

// ParseOperator maps the spellings found in conda, Debian and RPM metadata
// onto an Operator.
func ParseOperator(s string) (Operator, error) {
	switch s {
	case "==", "=":
		return OpEqual, nil
	case "!=":
		return OpNotEqual, nil
	case ">=":
		return OpGreaterEqual, nil
	case "<=":
		return OpLessEqual, nil
	case ">", ">>":
		return OpGreater, nil
	case "<", "<<":
		return OpLess, nil
	}
	return "", fmt.Errorf("unknown version operator %q", s)
}

// operators in match order, longest spelling first
var operators = []string{"==", "!=", ">=", "<=", ">>", "<<", ">", "<", "="}

// Constraint restricts the versions a package may have. A simple
// constraint is Op and Version; a compound one leaves them empty and holds
// either clauses that must all hold (All) or alternatives of which one
// must hold (Any).
type Constraint struct {
	Op      Operator
	Version string

	All []*Constraint
	Any []*Constraint
}

// NewConstraint validates op and ver and returns the constraint.
func NewConstraint(op string, ver string) (*Constraint, error) {
	o, err := ParseOperator(op)
	if err != nil {
		return nil, err
	}
	ver = strings.TrimSpace(ver)
	if ver == "" {
		return nil, fmt.Errorf("empty version in constraint %q", op)
	}
	if IsPrefix(ver) && o != OpEqual && o != OpNotEqual {
		return nil, fmt.Errorf("wildcard version %q only allowed with == or !=", ver)
	}
	return &Constraint{Op: o, Version: ver}, nil
}

// ParseConstraint reads constraint text as written in conda metadata:
// "," joins clauses that must all hold and "|" separates alternatives, with
// "," binding tighter (">=1.7,<2|1.6.*"). A clause without an operator is
// an exact version, or a wildcard when it ends in "*".
func ParseConstraint(s string) (*Constraint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty version constraint")
	}

	var alts []*Constraint
	for _, alt := range strings.Split(s, "|") {
		var clauses []*Constraint
		for _, clause := range strings.Split(alt, ",") {
			c, err := parseClause(clause)
			if err != nil {
				return nil, fmt.Errorf("constraint %q: %w", s, err)
			}
			clauses = append(clauses, c)
		}
		if len(clauses) == 1 {
			alts = append(alts, clauses[0])
		} else {
			alts = append(alts, &Constraint{All: clauses})
		}
	}
	if len(alts) == 1 {
		return alts[0], nil
	}
	return &Constraint{Any: alts}, nil
}

func parseClause(clause string) (*Constraint, error) {
	clause = strings.TrimSpace(clause)
	for _, op := range operators {
		if strings.HasPrefix(clause, op) {
			return NewConstraint(op, clause[len(op):])
		}
	}
	return NewConstraint("==", clause)
}

// IsCompound reports whether the constraint is made of several clauses.
func (c *Constraint) IsCompound() bool {
	return c != nil && (len(c.All) > 0 || len(c.Any) > 0)
}

func (c *Constraint) String() string {
	if c == nil {
		return ""
	}
	switch {
	case len(c.Any) > 0:
		return joinConstraints(c.Any, "|")
	case len(c.All) > 0:
		return joinConstraints(c.All, ",")
	}
	return string(c.Op) + c.Version
}

func joinConstraints(cs []*Constraint, sep string) string {
	parts := make([]string, len(cs))
	for i, c := range cs {
		parts[i] = c.String()
	}
	return strings.Join(parts, sep)
}

// Satisfied reports whether ver satisfies the constraint. A nil constraint
// accepts every version.
func (c *Constraint) Satisfied(ver string) bool {
	if c == nil {
		return true
	}
	if len(c.Any) > 0 {
		for _, alt := range c.Any {
			if alt.Satisfied(ver) {
				return true
			}
		}
		return false
	}
	if len(c.All) > 0 {
		for _, clause := range c.All {
			if !clause.Satisfied(ver) {
				return false
			}
		}
		return true
	}
	if IsPrefix(c.Version) {
		match := HasPrefix(ver, c.Version)
		if c.Op == OpNotEqual {
			return !match
		}
		return match
	}

	r := Compare(ver, c.Version)
	switch c.Op {
	case OpEqual:
		return r == 0
	case OpNotEqual:
		return r != 0
	case OpGreaterEqual:
		return r >= 0
	case OpLessEqual:
		return r <= 0
	case OpGreater:
		return r > 0
	case OpLess:
		return r < 0
	}
	return false
}

// IsPrefix reports whether ver is a wildcard such as "1.7*" or "1.7.*".
func IsPrefix(ver string) bool {
	return strings.HasSuffix(ver, "*")
}

// HasPrefix reports whether ver starts with the segments of the wildcard
// pattern. "*" alone matches anything.
func HasPrefix(ver string, pattern string) bool {
	prefix := strings.TrimSuffix(strings.TrimSuffix(pattern, "*"), ".")
	if prefix == "" {
		return true
	}
	if ver == prefix {
		return true
	}
	if !strings.HasPrefix(ver, prefix) {
		return false
	}
	switch ver[len(prefix)] {
	case '.', '-', '+', '_', '~':
		return true
	}
	return false
}

// Compare orders two version strings: -1 if a < b, 0 if equal, 1 if a > b.
//
// An optional numeric epoch ("1:2.0") dominates. The dotted upstream part is
// padded so missing trailing segments count as zero ("1.2" == "1.2.0"), and
// pre-release tags sort before the plain release. Remaining segments follow
// rpm ordering.
func Compare(a, b string) int {
	ea, ra := splitEpoch(a)
	eb, rb := splitEpoch(b)
	if ea != eb {
		if ea < eb {
			return -1
		}
		return 1
	}

	ua, sa := splitUpstream(ra)
	ub, sb := splitUpstream(rb)
	ua, ub = pad(ua, ub)

	return rpmutils.Vercmp(markPreRelease(ua)+sa, markPreRelease(ub)+sb)
}

// Less is a sort helper.
func Less(a, b string) bool {
	return Compare(a, b) < 0
}

func splitEpoch(v string) (int, string) {
	i := strings.IndexByte(v, ':')
	if i <= 0 {
		return 0, v
	}
	e, err := strconv.Atoi(v[:i])
	if err != nil {
		return 0, v
	}
	return e, v[i+1:]
}

// splitUpstream cuts the release suffix ("-5+b1", "_0") off the version.
func splitUpstream(v string) (string, string) {
	i := strings.IndexAny(v, "-_+")
	if i < 0 {
		return v, ""
	}
	return v[:i], v[i:]
}

func pad(a, b string) (string, string) {
	na := strings.Count(a, ".") + 1
	nb := strings.Count(b, ".") + 1
	if a == "" || b == "" {
		return a, b
	}
	for ; na < nb; na++ {
		a += ".0"
	}
	for ; nb < na; nb++ {
		b += ".0"
	}
	return a, b
}

// markPreRelease rewrites "1.0rc1" as "1.0~rc1" so it sorts before "1.0".
func markPreRelease(v string) string {
	segs := strings.Split(v, ".")
	for i, seg := range segs {
		j := 0
		for j < len(seg) && seg[j] >= '0' && seg[j] <= '9' {
			j++
		}
		if j == 0 || j == len(seg) {
			continue
		}
		tail := strings.ToLower(seg[j:])
		for _, tag := range preReleaseTags {
			if strings.HasPrefix(tail, tag) {
				segs[i] = seg[:j] + "~" + seg[j:]
				break
			}
		}
	}
	return strings.Join(segs, ".")
}
