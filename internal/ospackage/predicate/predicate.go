// Package predicate implements the boolean tests used to filter package
// records. The set of predicate kinds is closed: only this package can
// implement Predicate.
package predicate

import (
	"fmt"
	"strings"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/target"
)

// Kind tags a predicate variant.
type Kind string

const (
	KindNameEquals             Kind = "NameEquals"
	KindVersionSatisfies       Kind = "VersionSatisfies"
	KindBuildTargetMatches     Kind = "BuildTargetMatches"
	KindRequirementsCompatible Kind = "RequirementsCompatible"
	KindPinnedBy               Kind = "PinnedBy"
	KindAllOf                  Kind = "AllOf"
)

// Predicate is a pure test over a package record.
type Predicate interface {
	Kind() Kind
	Evaluate(p *ospackage.PackageInfo) bool
	String() string

	predicate()
}

// NameEquals matches records with exactly this name.
type NameEquals struct {
	Name string
}

func (NameEquals) Kind() Kind { return KindNameEquals }
func (NameEquals) predicate() {}

func (n NameEquals) Evaluate(p *ospackage.PackageInfo) bool {
	return p.Name == n.Name
}

func (n NameEquals) String() string {
	return fmt.Sprintf("name == %q", n.Name)
}

// VersionSatisfies matches records whose version (and build, when the spec
// pins one) satisfies Spec. The spec name is not compared.
type VersionSatisfies struct {
	Spec pkgspec.PackageSpec
}

func (VersionSatisfies) Kind() Kind { return KindVersionSatisfies }
func (VersionSatisfies) predicate() {}

func (v VersionSatisfies) Evaluate(p *ospackage.PackageInfo) bool {
	return v.Spec.Matches(p.Version, p.Build)
}

func (v VersionSatisfies) String() string {
	c := v.Spec.Constraint.String()
	if c == "" {
		c = "any"
	}
	if v.Spec.Build != "" {
		c += " build " + v.Spec.Build
	}
	return "version " + c
}

// BuildTargetMatches matches records usable on Target according to Compare.
// A nil Compare uses target.DefaultComparator.
type BuildTargetMatches struct {
	Target  target.Descriptor
	Compare target.Comparator
}

func (BuildTargetMatches) Kind() Kind { return KindBuildTargetMatches }
func (BuildTargetMatches) predicate() {}

func (b BuildTargetMatches) Evaluate(p *ospackage.PackageInfo) bool {
	cmp := b.Compare
	if cmp == nil {
		cmp = target.DefaultComparator
	}
	return cmp(b.Target, p)
}

func (b BuildTargetMatches) String() string {
	return "target " + b.Target.String()
}

// RequirementsCompatible matches records none of whose requirements
// conflict with the versions fixed by an environment.
type RequirementsCompatible struct {
	fixed map[string]string
	specs []pkgspec.PackageSpec
}

// NewRequirementsCompatible indexes the exact pins of reqs.
func NewRequirementsCompatible(reqs []pkgspec.PackageSpec) RequirementsCompatible {
	fixed := make(map[string]string, len(reqs))
	for _, r := range reqs {
		if v, ok := r.FixedVersion(); ok {
			fixed[r.Name] = v
		}
	}
	return RequirementsCompatible{fixed: fixed, specs: reqs}
}

func (RequirementsCompatible) Kind() Kind { return KindRequirementsCompatible }
func (RequirementsCompatible) predicate() {}

func (r RequirementsCompatible) Evaluate(p *ospackage.PackageInfo) bool {
	for _, req := range p.Requires {
		v, ok := r.fixed[req.Name]
		if !ok {
			continue
		}
		if !req.Constraint.Satisfied(v) {
			return false
		}
	}
	return true
}

func (r RequirementsCompatible) String() string {
	return "requirements compatible with " + joinSpecs(r.specs)
}

// PinnedBy matches records that satisfy every requirement naming them.
// Records whose name the requirements do not mention always match.
type PinnedBy struct {
	byName map[string][]pkgspec.PackageSpec
	specs  []pkgspec.PackageSpec
}

// NewPinnedBy groups reqs by package name.
func NewPinnedBy(reqs []pkgspec.PackageSpec) PinnedBy {
	byName := make(map[string][]pkgspec.PackageSpec, len(reqs))
	for _, r := range reqs {
		byName[r.Name] = append(byName[r.Name], r)
	}
	return PinnedBy{byName: byName, specs: reqs}
}

func (PinnedBy) Kind() Kind { return KindPinnedBy }
func (PinnedBy) predicate() {}

func (pb PinnedBy) Evaluate(p *ospackage.PackageInfo) bool {
	for _, req := range pb.byName[p.Name] {
		if !req.Matches(p.Version, p.Build) {
			return false
		}
	}
	return true
}

func (pb PinnedBy) String() string {
	return "pinned by " + joinSpecs(pb.specs)
}

// AllOf matches when every child matches. Children run in order and
// evaluation stops at the first false. An empty AllOf matches everything.
type AllOf struct {
	children []Predicate
}

// NewAllOf copies children so later changes to the caller's slice do not
// leak in.
func NewAllOf(children ...Predicate) AllOf {
	return AllOf{children: append([]Predicate(nil), children...)}
}

func (AllOf) Kind() Kind { return KindAllOf }
func (AllOf) predicate() {}

// Children returns a copy of the child predicates.
func (a AllOf) Children() []Predicate {
	return append([]Predicate(nil), a.children...)
}

func (a AllOf) Evaluate(p *ospackage.PackageInfo) bool {
	for _, c := range a.children {
		if !c.Evaluate(p) {
			return false
		}
	}
	return true
}

func (a AllOf) String() string {
	parts := make([]string, 0, len(a.children))
	for _, c := range a.children {
		parts = append(parts, c.String())
	}
	return "all of (" + strings.Join(parts, ", ") + ")"
}

func joinSpecs(specs []pkgspec.PackageSpec) string {
	if len(specs) == 0 {
		return "[]"
	}
	parts := make([]string, 0, len(specs))
	for _, s := range specs {
		parts = append(parts, s.String())
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
