package stats

import (
	"testing"

	"github.com/solvetrack/tagstat-engine/internal/models"
)

func sortFixture() *Aggregate {
	span10 := 10
	span400 := 400
	return &Aggregate{
		Tags: map[string]*models.TagStat{
			"dp":     {Tag: "dp", Solved: 5, SolvePercent: 0.5, RecommendScore: 0.2},
			"graphs": {Tag: "graphs", Solved: 9, SolvePercent: 0.1, RecommendScore: 0.8, FailSpan: &span400},
			"math":   {Tag: "math", Solved: 5, SolvePercent: 0.9, RecommendScore: 0.5, FailSpan: &span10},
			"trees":  {Tag: "trees", Solved: 1, SolvePercent: 0.5, RecommendScore: 0.2},
		},
	}
}

func tagOrder(list []*models.TagStat) []string {
	out := make([]string, len(list))
	for i, ts := range list {
		out[i] = ts.Tag
	}
	return out
}

func equalOrder(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSortedTags(t *testing.T) {
	agg := sortFixture()

	tests := []struct {
		mode SortMode
		want []string
	}{
		// dp before math on the name tie-break at solved=5
		{SortBySolved, []string{"graphs", "dp", "math", "trees"}},
		{SortByRecommend, []string{"graphs", "math", "dp", "trees"}},
		// Banded tags first, then span descending, then names
		{SortByFailSpan, []string{"graphs", "math", "dp", "trees"}},
		{SortByCoverage, []string{"math", "dp", "trees", "graphs"}},
		{SortByName, []string{"dp", "graphs", "math", "trees"}},
	}

	for _, tt := range tests {
		got := tagOrder(agg.SortedTags(tt.mode))
		if !equalOrder(got, tt.want) {
			t.Errorf("SortedTags(%s) = %v, want %v", tt.mode, got, tt.want)
		}
	}
}

func TestParseSortMode(t *testing.T) {
	if mode, ok := ParseSortMode(""); !ok || mode != SortBySolved {
		t.Errorf("empty mode must default to solved, got %s ok=%v", mode, ok)
	}
	if mode, ok := ParseSortMode("recommend"); !ok || mode != SortByRecommend {
		t.Errorf("expected recommend, got %s ok=%v", mode, ok)
	}
	if _, ok := ParseSortMode("bogus"); ok {
		t.Error("unknown mode must not parse")
	}
}
