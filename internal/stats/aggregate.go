package stats

import (
	"time"

	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/models"
)

// Aggregate is the full in-memory result of one aggregation run. It owns all
// per-problem and per-tag state for the run; there is no hidden global state.
// A rehydrated snapshot produces the exact same shape, so every consumer
// (tag views, intersections, codec) works identically on live and cached
// data.
type Aggregate struct {
	Handle      string
	GeneratedAt time.Time
	Source      models.SnapshotSource

	Problems    map[models.ProblemKey]models.ProblemFacts
	Tags        map[string]*models.TagStat
	TagProblems map[string][]models.ProblemKey // insertion order preserved for serialization

	// tagProblemSets mirrors TagProblems as sets for intersection lookups.
	// Rebuilt on rehydration, never serialized.
	tagProblemSets map[string]map[models.ProblemKey]bool
}

// Run computes a complete aggregate from the two raw record sets.
// Data flow: catalog -> index -> classifier -> per-tag rollups -> fail
// bands -> difficulty buckets -> recommendation scores.
func Run(scoring config.ScoringConfig, handle string, data *cfapi.UserData, now time.Time) *Aggregate {
	idx := BuildIndex(data.Problems)
	cls := Classify(data.Submissions, idx)

	agg := &Aggregate{
		Handle:      handle,
		GeneratedAt: now,
		Source: models.SnapshotSource{
			UserStatusCount: len(data.Submissions),
			ProblemsetCount: len(data.Problems),
		},
		Problems:       make(map[models.ProblemKey]models.ProblemFacts, len(idx.Meta)),
		Tags:           make(map[string]*models.TagStat),
		TagProblems:    make(map[string][]models.ProblemKey),
		tagProblemSets: make(map[string]map[models.ProblemKey]bool),
	}

	for key, meta := range idx.Meta {
		agg.Problems[key] = models.ProblemFacts{
			Meta:   meta,
			Origin: cls.Origins[key],
			Status: cls.Statuses[key],
		}
	}

	// All rated ratings per tag, for the next-target lookup. Computed once
	// pre-serialization; snapshots carry the derived value instead.
	tagRatings := make(map[string]map[int]bool)

	for key, facts := range agg.Problems {
		for _, tag := range facts.Meta.Tags {
			ts := agg.tag(tag)
			ts.TotalAvailable++
			agg.addTagProblem(tag, key)

			if facts.Meta.Rated() {
				if tagRatings[tag] == nil {
					tagRatings[tag] = make(map[int]bool)
				}
				tagRatings[tag][*facts.Meta.Rating] = true
			}

			if facts.Status.Solved {
				ts.Solved++
				// Contest takes priority when a solve has both origins:
				// the problem still counts once in Solved but is
				// attributed to exactly one origin bucket.
				if facts.Origin.Contest {
					ts.SolvedContest++
				} else {
					ts.SolvedPractice++
				}
				if facts.Meta.Rated() {
					if ts.MaxSolved == nil || *facts.Meta.Rating > *ts.MaxSolved {
						r := *facts.Meta.Rating
						ts.MaxSolved = &r
					}
				}
			}
		}
	}

	for tag, ts := range agg.Tags {
		if ts.TotalAvailable > 0 {
			ts.SolvePercent = float64(ts.Solved) / float64(ts.TotalAvailable)
		}
		ts.NextTargetDifficulty = nextTarget(ts.MaxSolved, tagRatings[tag])
		agg.buildFailBand(tag, ts)
		ts.DifficultyBuckets = agg.bucketize(agg.TagProblems[tag])
	}

	ApplyScores(scoring, agg.Tags)

	return agg
}

// tag returns the TagStat for a tag, creating it on first sight
func (a *Aggregate) tag(name string) *models.TagStat {
	ts, ok := a.Tags[name]
	if !ok {
		ts = &models.TagStat{Tag: name}
		a.Tags[name] = ts
	}
	return ts
}

func (a *Aggregate) addTagProblem(tag string, key models.ProblemKey) {
	a.TagProblems[tag] = append(a.TagProblems[tag], key)
	if a.tagProblemSets[tag] == nil {
		a.tagProblemSets[tag] = make(map[models.ProblemKey]bool)
	}
	a.tagProblemSets[tag][key] = true
}

// nextTarget finds the smallest rating strictly greater than maxSolved among
// all rated problems of the tag. Returns nil if maxSolved is nil or no such
// rating exists.
func nextTarget(maxSolved *int, ratings map[int]bool) *int {
	if maxSolved == nil || len(ratings) == 0 {
		return nil
	}

	var best *int
	for r := range ratings {
		if r <= *maxSolved {
			continue
		}
		if best == nil || r < *best {
			v := r
			best = &v
		}
	}
	return best
}

// buildFailBand tracks the min/max rating over the tag's problems that are
// unsolved, rated, and contest-failed. Practice-only failures do not count:
// the fail band represents contest-proven weak difficulty.
func (a *Aggregate) buildFailBand(tag string, ts *models.TagStat) {
	for _, key := range a.TagProblems[tag] {
		facts := a.Problems[key]
		if facts.Status.Solved || !facts.Meta.Rated() || !facts.Status.FailedContest {
			continue
		}

		r := *facts.Meta.Rating
		if ts.MinFailedDifficulty == nil || r < *ts.MinFailedDifficulty {
			v := r
			ts.MinFailedDifficulty = &v
		}
		if ts.MaxFailedDifficulty == nil || r > *ts.MaxFailedDifficulty {
			v := r
			ts.MaxFailedDifficulty = &v
		}
	}

	if ts.MinFailedDifficulty != nil && ts.MaxFailedDifficulty != nil {
		span := *ts.MaxFailedDifficulty - *ts.MinFailedDifficulty
		ts.FailSpan = &span
	}
}

// bucketize partitions a problem list by rating (0 for unrated) into
// difficulty buckets. Each problem contributes to exactly one outcome
// counter, precedence: solved-contest > solved-practice > failed-contest >
// unsolved.
func (a *Aggregate) bucketize(keys []models.ProblemKey) map[int]models.DifficultyBucket {
	buckets := make(map[int]models.DifficultyBucket)

	for _, key := range keys {
		facts, ok := a.Problems[key]
		if !ok {
			continue
		}

		rating := facts.Meta.RatingOrZero()
		b := buckets[rating]

		switch {
		case facts.Status.Solved && facts.Origin.Contest:
			b.SolvedContest++
		case facts.Status.Solved:
			b.SolvedPractice++
		case facts.Status.FailedContest:
			b.FailedContest++
		default:
			b.Unsolved++
		}
		b.Total++

		buckets[rating] = b
	}

	return buckets
}

// RebuildSets reconstructs the tag membership sets from the ordered
// tag-problem lists. Called after rehydrating a snapshot.
func (a *Aggregate) RebuildSets() {
	a.tagProblemSets = make(map[string]map[models.ProblemKey]bool, len(a.TagProblems))
	for tag, keys := range a.TagProblems {
		set := make(map[models.ProblemKey]bool, len(keys))
		for _, key := range keys {
			set[key] = true
		}
		a.tagProblemSets[tag] = set
	}
}
