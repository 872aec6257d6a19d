package geo

import "errors"

// ErrNoCandidates is returned by Closest when the catalog is empty.
var ErrNoCandidates = errors.New("no candidates")

// Locator is implemented by catalog records that have a position.
type Locator interface {
	Location() Point
}

// Closest scans candidates once and returns the record nearest to target.
// When several records share the minimum distance the first one in catalog
// order wins.
func Closest[T Locator](target Point, candidates []T) (T, error) {
	var best T
	if len(candidates) == 0 {
		return best, ErrNoCandidates
	}

	best = candidates[0]
	bestDist := Distance(target, best.Location())
	for _, c := range candidates[1:] {
		if d := Distance(target, c.Location()); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best, nil
}
