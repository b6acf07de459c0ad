package stats

import (
	"github.com/solvetrack/tagstat-engine/internal/config"
	"github.com/solvetrack/tagstat-engine/internal/models"
)

// ApplyScores assigns the weighted recommendation score to every tag in
// place. Normalizers are computed once over the whole tag set; with no tags
// this is a no-op.
func ApplyScores(cfg config.ScoringConfig, tags map[string]*models.TagStat) {
	if len(tags) == 0 {
		return
	}

	maxSolvedAcrossTags := 1
	maxMaxDifficultyAcrossTags := 1
	for _, ts := range tags {
		if ts.Solved > maxSolvedAcrossTags {
			maxSolvedAcrossTags = ts.Solved
		}
		if ts.MaxSolved != nil && *ts.MaxSolved > maxMaxDifficultyAcrossTags {
			maxMaxDifficultyAcrossTags = *ts.MaxSolved
		}
	}

	for _, ts := range tags {
		coverageGap := 1 - ts.SolvePercent

		maxSolved := 0
		if ts.MaxSolved != nil {
			maxSolved = *ts.MaxSolved
		}

		diffDelta := cfg.DefaultRatingGap
		if ts.NextTargetDifficulty != nil {
			diffDelta = float64(*ts.NextTargetDifficulty - maxSolved)
		}

		// Smaller gaps to the next target score higher
		normNext := 1 / (1 + diffDelta/cfg.NextTargetDivisor)
		normSolved := float64(ts.Solved) / float64(maxSolvedAcrossTags)
		normMaxDiff := float64(maxSolved) / float64(maxMaxDifficultyAcrossTags)

		ts.RecommendScore = cfg.WeightCoverageGap*coverageGap +
			cfg.WeightNextTarget*normNext +
			cfg.WeightVolume*(0.5*normSolved+0.5*normMaxDiff)
	}
}
