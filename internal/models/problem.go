package models

import "fmt"

// ProblemKey is the canonical identity of a problem, used as the join key
// between the problemset catalog and the submission history.
type ProblemKey string

// MakeProblemKey builds the canonical key for a problem reference.
// Problems belonging to a contest use "{contestId}-{index}", problems from a
// named problemset use "{problemsetName}-{index}", everything else falls back
// to "PS-{index}".
func MakeProblemKey(contestID int, problemsetName, index string) ProblemKey {
	if contestID != 0 {
		return ProblemKey(fmt.Sprintf("%d-%s", contestID, index))
	}
	if problemsetName != "" {
		return ProblemKey(fmt.Sprintf("%s-%s", problemsetName, index))
	}
	return ProblemKey(fmt.Sprintf("PS-%s", index))
}

// ProblemMeta holds the immutable per-problem facts sourced from the catalog.
type ProblemMeta struct {
	Name   string
	Rating *int // nil means unrated
	Tags   []string
}

// Rated reports whether the problem carries a difficulty rating.
func (m ProblemMeta) Rated() bool {
	return m.Rating != nil
}

// RatingOrZero returns the rating, with 0 standing for unrated.
func (m ProblemMeta) RatingOrZero() int {
	if m.Rating == nil {
		return 0
	}
	return *m.Rating
}

// Origin records how an accepted solve was achieved for a problem. Both
// flags may be true when the problem was solved in a contest and again in
// practice.
type Origin struct {
	Contest  bool
	Practice bool
}

// Status records the classification outcome for a problem. Solved is sticky:
// once set it is never unset, and failure flags are only recorded while the
// problem is still unsolved.
type Status struct {
	Solved         bool
	FailedContest  bool
	FailedPractice bool
}

// FailedContestUnsolved is the condition consumers must check instead of the
// raw flag: a later solve does not retroactively clear failure flags, but
// solved takes precedence in combined interpretation.
func (s Status) FailedContestUnsolved() bool {
	return s.FailedContest && !s.Solved
}

// ProblemFacts bundles everything known about one problem after
// classification. This is the per-problem shape both the aggregator and the
// snapshot codec operate on.
type ProblemFacts struct {
	Meta   ProblemMeta
	Origin Origin
	Status Status
}
