package models

// DifficultyBucket partitions the problems of one tag at one rating (0 for
// unrated) into mutually exclusive outcome counters.
// Total == SolvedContest+SolvedPractice+FailedContest+Unsolved always.
type DifficultyBucket struct {
	SolvedContest  int `json:"solvedContest"`
	SolvedPractice int `json:"solvedPractice"`
	FailedContest  int `json:"failedContest"`
	Unsolved       int `json:"unsolved"`
	Total          int `json:"total"`
}

// TagStat is the per-tag rollup. The JSON field names are part of the
// snapshot schema and must not change without a schema version bump.
//
// Solved is an independent tally of problems, not the sum of the origin
// counters: a problem solved both in contest and in practice counts once in
// Solved but is attributed to exactly one origin bucket (contest wins the
// tie-break).
type TagStat struct {
	Tag                  string                   `json:"-"`
	TotalAvailable       int                      `json:"totalAvailable"`
	Solved               int                      `json:"solved"`
	SolvedContest        int                      `json:"solvedContest"`
	SolvedPractice       int                      `json:"solvedPractice"`
	SolvePercent         float64                  `json:"solvePercent"`
	MaxSolved            *int                     `json:"maxSolved"`
	NextTargetDifficulty *int                     `json:"nextTargetDifficulty"`
	MinFailedDifficulty  *int                     `json:"minFailedDifficulty"`
	MaxFailedDifficulty  *int                     `json:"maxFailedDifficulty"`
	FailSpan             *int                     `json:"failSpan"`
	RecommendScore       float64                  `json:"recommendScore"`
	DifficultyBuckets    map[int]DifficultyBucket `json:"difficultyBuckets"`
}
