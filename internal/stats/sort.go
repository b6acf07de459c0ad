package stats

import (
	"sort"

	"github.com/solvetrack/tagstat-engine/internal/models"
)

// SortMode selects one of the presentation total orders over the tag set
type SortMode string

const (
	SortBySolved    SortMode = "solved"    // solved count descending (default)
	SortByRecommend SortMode = "recommend" // recommendation score descending
	SortByFailSpan  SortMode = "failspan"  // fail span descending, banded tags first
	SortByCoverage  SortMode = "coverage"  // solve percent descending
	SortByName      SortMode = "name"      // tag name ascending
)

// ParseSortMode maps a query value to a sort mode, defaulting to solved
func ParseSortMode(s string) (SortMode, bool) {
	switch SortMode(s) {
	case SortBySolved, SortByRecommend, SortByFailSpan, SortByCoverage, SortByName:
		return SortMode(s), true
	case "":
		return SortBySolved, true
	default:
		return SortBySolved, false
	}
}

// SortedTags returns the tag stats in the given presentation order. Every
// mode breaks ties by tag name ascending, so the order is deterministic.
func (a *Aggregate) SortedTags(mode SortMode) []*models.TagStat {
	out := make([]*models.TagStat, 0, len(a.Tags))
	for _, ts := range a.Tags {
		out = append(out, ts)
	}

	less := func(i, j *models.TagStat) bool {
		switch mode {
		case SortByRecommend:
			if i.RecommendScore != j.RecommendScore {
				return i.RecommendScore > j.RecommendScore
			}
		case SortByFailSpan:
			si, sj := failSpanOrZero(i), failSpanOrZero(j)
			bi, bj := i.FailSpan != nil, j.FailSpan != nil
			if bi != bj {
				return bi
			}
			if si != sj {
				return si > sj
			}
		case SortByCoverage:
			if i.SolvePercent != j.SolvePercent {
				return i.SolvePercent > j.SolvePercent
			}
		case SortByName:
			// fall through to the name tie-break
		default:
			if i.Solved != j.Solved {
				return i.Solved > j.Solved
			}
		}
		return i.Tag < j.Tag
	}

	sort.Slice(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

func failSpanOrZero(ts *models.TagStat) int {
	if ts.FailSpan == nil {
		return 0
	}
	return *ts.FailSpan
}
