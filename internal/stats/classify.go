package stats

import (
	"github.com/solvetrack/tagstat-engine/internal/cfapi"
	"github.com/solvetrack/tagstat-engine/internal/models"
)

// VerdictAccepted is the only verdict that marks a problem solved
const VerdictAccepted = "OK"

// qualifyingFailures is the closed set of verdicts that count as a real
// failed attempt. Anything outside this set and VerdictAccepted (pending,
// running, empty) is ignored.
var qualifyingFailures = map[string]bool{
	"WRONG_ANSWER":            true,
	"TIME_LIMIT_EXCEEDED":     true,
	"MEMORY_LIMIT_EXCEEDED":   true,
	"IDLENESS_LIMIT_EXCEEDED": true,
	"REJECTED":                true,
	"FAILED":                  true,
	"PRESENTATION_ERROR":      true,
	"CHALLENGED":              true,
	"PARTIAL":                 true,
	"COMPILATION_ERROR":       true,
	"CRASHED":                 true,
	"SKIPPED":                 true,
}

// Classification holds the per-problem origin/status facts derived from the
// submission history.
type Classification struct {
	Origins  map[models.ProblemKey]models.Origin
	Statuses map[models.ProblemKey]models.Status
	Solved   map[models.ProblemKey]bool
}

// Classify folds the submission list into per-problem facts. Submissions
// referencing problems absent from the index are ignored (the catalog may lag
// behind the submission history).
//
// The fold is order-independent for the final state: all flags are monotone
// OR-accumulations, and while failing verdicts stop being recorded once a
// problem is solved, Status.FailedContestUnsolved is what consumers read, so
// a failure recorded before an out-of-order solve changes nothing observable.
func Classify(submissions []cfapi.Submission, idx *Index) *Classification {
	c := &Classification{
		Origins:  make(map[models.ProblemKey]models.Origin),
		Statuses: make(map[models.ProblemKey]models.Status),
		Solved:   make(map[models.ProblemKey]bool),
	}

	for _, sub := range submissions {
		key := models.MakeProblemKey(sub.Problem.ContestID, sub.Problem.ProblemsetName, sub.Problem.Index)
		if !idx.Has(key) {
			continue
		}

		fromContest := sub.ContestID != 0

		switch {
		case sub.Verdict == VerdictAccepted:
			origin := c.Origins[key]
			if fromContest {
				origin.Contest = true
			} else {
				origin.Practice = true
			}
			c.Origins[key] = origin

			status := c.Statuses[key]
			status.Solved = true
			c.Statuses[key] = status
			c.Solved[key] = true

		case qualifyingFailures[sub.Verdict]:
			status := c.Statuses[key]
			if status.Solved {
				continue
			}
			if fromContest {
				status.FailedContest = true
			} else {
				status.FailedPractice = true
			}
			c.Statuses[key] = status
		}
	}

	return c
}
