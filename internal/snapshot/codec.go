package snapshot

import (
	"time"

	"github.com/solvetrack/tagstat-engine/internal/models"
	"github.com/solvetrack/tagstat-engine/internal/stats"
)

// Build projects an aggregate into the versioned snapshot shape. The
// projection is lossless: Rehydrate(Build(x)) reproduces the aggregate
// shapes consumed by every downstream view, including intersections.
func Build(agg *stats.Aggregate, ttl time.Duration) *models.Snapshot {
	snap := &models.Snapshot{
		SchemaVersion:  models.SnapshotSchemaVersion,
		GeneratedAt:    agg.GeneratedAt,
		Handle:         agg.Handle,
		Source:         agg.Source,
		Problems:       make(map[models.ProblemKey]models.SnapshotProblem, len(agg.Problems)),
		Tags:           make(map[string]models.TagStat, len(agg.Tags)),
		TagProblemKeys: agg.TagProblems,
		Intermediate: models.SnapshotIntermediate{
			CacheTTLHours: ttl.Hours(),
		},
	}

	for key, facts := range agg.Problems {
		snap.Problems[key] = models.SnapshotProblem{
			Rating:         facts.Meta.Rating,
			Name:           facts.Meta.Name,
			Tags:           facts.Meta.Tags,
			Solved:         facts.Status.Solved,
			Contest:        facts.Origin.Contest,
			Practice:       facts.Origin.Practice,
			FailedContest:  facts.Status.FailedContest,
			FailedPractice: facts.Status.FailedPractice,
		}
	}

	for tag, ts := range agg.Tags {
		snap.Tags[tag] = *ts
	}

	return snap
}

// Rehydrate is the exact inverse of Build: it repopulates the in-memory
// aggregate from a snapshot, skipping re-fetch and re-classification. The
// per-tag rated-ratings index is not reconstructed because
// nextTargetDifficulty was computed pre-serialization and is carried
// verbatim.
func Rehydrate(snap *models.Snapshot) *stats.Aggregate {
	agg := &stats.Aggregate{
		Handle:      snap.Handle,
		GeneratedAt: snap.GeneratedAt,
		Source:      snap.Source,
		Problems:    make(map[models.ProblemKey]models.ProblemFacts, len(snap.Problems)),
		Tags:        make(map[string]*models.TagStat, len(snap.Tags)),
		TagProblems: snap.TagProblemKeys,
	}

	for key, p := range snap.Problems {
		tags := p.Tags
		if tags == nil {
			tags = []string{}
		}
		agg.Problems[key] = models.ProblemFacts{
			Meta: models.ProblemMeta{
				Name:   p.Name,
				Rating: p.Rating,
				Tags:   tags,
			},
			Origin: models.Origin{
				Contest:  p.Contest,
				Practice: p.Practice,
			},
			Status: models.Status{
				Solved:         p.Solved,
				FailedContest:  p.FailedContest,
				FailedPractice: p.FailedPractice,
			},
		}
	}

	for tag, ts := range snap.Tags {
		copied := ts
		copied.Tag = tag
		if copied.DifficultyBuckets == nil {
			copied.DifficultyBuckets = make(map[int]models.DifficultyBucket)
		}
		agg.Tags[tag] = &copied
	}

	if agg.TagProblems == nil {
		agg.TagProblems = make(map[string][]models.ProblemKey)
	}
	agg.RebuildSets()

	return agg
}
