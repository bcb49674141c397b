package index

import (
	"sync"

	"github.com/open-edge-platform/os-package-search/internal/ospackage"
	"github.com/open-edge-platform/os-package-search/internal/ospackage/predicate"
)

// FindMatches returns the candidates for which p is true, in candidate
// order. candidates is not modified.
func FindMatches(p predicate.Predicate, candidates []ospackage.PackageInfo) []ospackage.PackageInfo {
	out := make([]ospackage.PackageInfo, 0, len(candidates))
	for i := range candidates {
		if p.Evaluate(&candidates[i]) {
			out = append(out, candidates[i])
		}
	}
	return out
}

// FindMatchesParallel splits candidates into shards, filters each shard on
// its own goroutine and concatenates the results in shard order, so the
// output equals FindMatches(p, candidates).
func FindMatchesParallel(p predicate.Predicate, candidates []ospackage.PackageInfo, workers int) []ospackage.PackageInfo {
	if workers <= 1 || len(candidates) < 2*workers {
		return FindMatches(p, candidates)
	}

	shardSize := (len(candidates) + workers - 1) / workers
	results := make([][]ospackage.PackageInfo, workers)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		start := w * shardSize
		if start >= len(candidates) {
			break
		}
		end := min(start+shardSize, len(candidates))

		wg.Add(1)
		go func(w int, shard []ospackage.PackageInfo) {
			defer wg.Done()
			results[w] = FindMatches(p, shard)
		}(w, candidates[start:end])
	}
	wg.Wait()

	out := make([]ospackage.PackageInfo, 0, len(candidates))
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}
