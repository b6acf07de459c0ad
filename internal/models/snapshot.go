package models

import "time"

// SnapshotSchemaVersion is the current snapshot schema. Any cached snapshot
// carrying a different version is discarded unconditionally on read.
const SnapshotSchemaVersion = 2

// SnapshotProblem is the serialized per-problem record inside a snapshot.
type SnapshotProblem struct {
	Rating         *int     `json:"rating"`
	Name           string   `json:"name"`
	Tags           []string `json:"tags"`
	Solved         bool     `json:"solved"`
	Contest        bool     `json:"contest"`
	Practice       bool     `json:"practice"`
	FailedContest  bool     `json:"failedContest"`
	FailedPractice bool     `json:"failedPractice"`
}

// SnapshotSource records how many raw records the snapshot was computed from.
type SnapshotSource struct {
	UserStatusCount int `json:"userStatusCount"`
	ProblemsetCount int `json:"problemsetCount"`
}

// SnapshotIntermediate carries derivation parameters alongside the data.
type SnapshotIntermediate struct {
	CacheTTLHours float64 `json:"cacheTTLHours"`
}

// Snapshot is the versioned cached artifact: a lossless, replayable
// serialization of one full aggregation run. It is always replaced
// wholesale, never partially updated.
type Snapshot struct {
	SchemaVersion  int                            `json:"schemaVersion"`
	GeneratedAt    time.Time                      `json:"generatedAt"`
	Handle         string                         `json:"handle"`
	Source         SnapshotSource                 `json:"source"`
	Problems       map[ProblemKey]SnapshotProblem `json:"problems"`
	Tags           map[string]TagStat             `json:"tags"`
	TagProblemKeys map[string][]ProblemKey        `json:"tagProblemKeys"`
	Intermediate   SnapshotIntermediate           `json:"intermediate"`
}

// Age returns how long ago the snapshot was generated.
func (s *Snapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.GeneratedAt)
}
