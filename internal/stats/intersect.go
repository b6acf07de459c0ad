package stats

import (
	"github.com/solvetrack/tagstat-engine/internal/models"
)

// Intersect computes difficulty buckets over the set intersection of the
// given tags' problem sets, using the same partition rule as the per-tag
// buckets. Unknown tags and empty intermediate intersections short-circuit
// to an empty bucket map — never an error.
//
// Works identically on freshly aggregated and rehydrated data.
func (a *Aggregate) Intersect(tags []string) map[int]models.DifficultyBucket {
	if len(tags) == 0 {
		return map[int]models.DifficultyBucket{}
	}

	// Seed with the first tag's membership, then narrow
	first, ok := a.tagProblemSets[tags[0]]
	if !ok {
		return map[int]models.DifficultyBucket{}
	}

	current := make(map[models.ProblemKey]bool, len(first))
	for key := range first {
		current[key] = true
	}

	for _, tag := range tags[1:] {
		set, ok := a.tagProblemSets[tag]
		if !ok {
			return map[int]models.DifficultyBucket{}
		}
		for key := range current {
			if !set[key] {
				delete(current, key)
			}
		}
		if len(current) == 0 {
			return map[int]models.DifficultyBucket{}
		}
	}

	// Bucketize in the first tag's stored order for determinism
	keys := make([]models.ProblemKey, 0, len(current))
	for _, key := range a.TagProblems[tags[0]] {
		if current[key] {
			keys = append(keys, key)
		}
	}

	return a.bucketize(keys)
}
