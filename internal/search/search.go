package search

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/open-edge-platform/os-package-search/internal/index"
	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/pkgspec"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/predicate"
	"github.com/open-edge-platform/os-package-search/internal/target"
	"github.com/open-edge-platform/os-package-search/internal/utils/logger"
)

// Index is the package index a Searcher reads.
type Index = index.Index

// Environment is the requirement set of an installed environment.
type Environment interface {
	Requirements() []pkgspec.PackageSpec
}

// EnvironmentLoader opens the environment at a prefix.
type EnvironmentLoader interface {
	Load(prefix string) (Environment, error)
}

// EnvironmentLoaderFunc adapts a function to EnvironmentLoader.
type EnvironmentLoaderFunc func(prefix string) (Environment, error)

func (f EnvironmentLoaderFunc) Load(prefix string) (Environment, error) {
	return f(prefix)
}

// Options tunes matching.
type Options struct {
	// IgnoreCase makes regular expression name matching and target
	// comparison case-insensitive. Exact name lookup stays exact.
	IgnoreCase bool

	// Workers > 1 filters large candidate sets in parallel.
	Workers int
}

// Request is one search invocation.
type Request struct {
	Expression        string // empty lists the whole index
	ShowRequires      bool
	Target            target.Descriptor
	EnvironmentPrefix string // empty disables environment filtering
}

// Result is the outcome of a search. Count is 0, 1 or more; an empty
// result is not an error.
type Result struct {
	ID                    string                  `json:"id"`
	Expression            string                  `json:"expression"`
	Count                 int                     `json:"count"`
	EnvironmentRestricted bool                    `json:"environmentRestricted"`
	EnvironmentPrefix     string                  `json:"environmentPrefix,omitempty"`
	ShowRequires          bool                    `json:"showRequires"`
	Records               []ospackage.PackageInfo `json:"records"`
}

// Searcher answers search requests against one index.
type Searcher struct {
	Index        Index
	Compare      target.Comparator // nil selects the default rules
	Environments EnvironmentLoader // required only for prefix searches
	Options      Options
}

// New returns a Searcher with the default target comparator.
func New(idx Index, envs EnvironmentLoader, opts Options) *Searcher {
	return &Searcher{Index: idx, Environments: envs, Options: opts}
}

// Search runs req. Candidates are chosen, in order of precedence, by an
// exact registered name, by a parsed versioned spec, or by a regular
// expression over names; they are then filtered for the target and,
// when a prefix is given, for compatibility with that environment. An
// empty expression lists the whole index with neither filter applied.
func (s *Searcher) Search(req Request) (*Result, error) {
	log := logger.Logger()

	res := &Result{
		ID:                uuid.New().String(),
		Expression:        req.Expression,
		ShowRequires:      req.ShowRequires,
		EnvironmentPrefix: req.EnvironmentPrefix,
	}

	if strings.TrimSpace(req.Expression) == "" {
		log.Debugf("search %s: listing all records", res.ID)
		res.Records = s.Index.All()
		index.Sort(res.Records)
		res.Count = len(res.Records)
		return res, nil
	}

	candidates, p, err := s.plan(res.ID, req.Expression, req.Target)
	if err != nil {
		return nil, err
	}
	matches := index.FindMatchesParallel(p, candidates, s.Options.Workers)
	log.Debugf("search %s: %d of %d candidates match %s", res.ID, len(matches), len(candidates), p)

	if req.EnvironmentPrefix != "" {
		narrowed, err := s.restrict(req.EnvironmentPrefix, matches)
		if err != nil {
			return nil, err
		}
		log.Debugf("search %s: environment %s keeps %d of %d", res.ID, req.EnvironmentPrefix, len(narrowed), len(matches))
		matches = narrowed
		res.EnvironmentRestricted = true
	}

	index.Sort(matches)
	res.Records = matches
	res.Count = len(matches)
	return res, nil
}

// plan picks the candidate records and the predicate for a non-empty
// expression. The exact-name lookup and the regular expression see the
// expression as typed, surrounding whitespace included.
func (s *Searcher) plan(id, expr string, d target.Descriptor) ([]ospackage.PackageInfo, predicate.Predicate, error) {
	log := logger.Logger()
	onTarget := predicate.BuildTargetMatches{Target: d, Compare: s.comparator()}

	if s.Index.HasName(expr) {
		log.Debugf("search %s: exact name %q", id, expr)
		return s.Index.ByName(expr), predicate.NewAllOf(onTarget), nil
	}

	spec, err := pkgspec.Parse(expr)
	if err != nil {
		return nil, nil, err
	}
	if spec.HasConstraint() || spec.Build != "" {
		log.Debugf("search %s: versioned spec %s", id, spec)
		return s.Index.ByName(spec.Name), predicate.NewAllOf(predicate.VersionSatisfies{Spec: spec}, onTarget), nil
	}

	pattern := expr
	if s.Options.IgnoreCase {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, nil, &InvalidSearchExpressionError{Expression: expr, Err: err}
	}

	var candidates []ospackage.PackageInfo
	var names []string
	for _, name := range s.Index.Names() {
		if re.MatchString(name) {
			names = append(names, name)
			candidates = append(candidates, s.Index.ByName(name)...)
		}
	}
	log.Debugf("search %s: pattern %q matches %d names", id, expr, len(names))
	return candidates, predicate.NewAllOf(onTarget), nil
}

// restrict keeps the records that agree with the environment's pins and
// whose requirements do not conflict with it.
func (s *Searcher) restrict(prefix string, recs []ospackage.PackageInfo) ([]ospackage.PackageInfo, error) {
	if s.Environments == nil {
		return nil, fmt.Errorf("environment %s: no environment loader configured", prefix)
	}
	env, err := s.Environments.Load(prefix)
	if err != nil {
		return nil, err
	}
	reqs := env.Requirements()
	p := predicate.NewAllOf(predicate.NewPinnedBy(reqs), predicate.NewRequirementsCompatible(reqs))
	return index.FindMatches(p, recs), nil
}

func (s *Searcher) comparator() target.Comparator {
	if s.Compare != nil {
		return s.Compare
	}
	if s.Options.IgnoreCase {
		return target.FoldCase()
	}
	return target.DefaultComparator
}
