package config

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// ScoringConfig holds the recommendation score parameters. The weights are
// fixed configuration, not derived from the data.
type ScoringConfig struct {
	WeightCoverageGap float64 `yaml:"weight_coverage_gap"`
	WeightNextTarget  float64 `yaml:"weight_next_target"`
	WeightVolume      float64 `yaml:"weight_volume"`
	NextTargetDivisor float64 `yaml:"next_target_divisor"`
	DefaultRatingGap  float64 `yaml:"default_rating_gap"`
}

// DefaultScoring returns the standard scoring parameters:
// score = 0.55*coverageGap + 0.30*normNext + 0.15*(0.5*normSolved + 0.5*normMaxDiff)
func DefaultScoring() ScoringConfig {
	return ScoringConfig{
		WeightCoverageGap: 0.55,
		WeightNextTarget:  0.30,
		WeightVolume:      0.15,
		NextTargetDivisor: 300,
		DefaultRatingGap:  500,
	}
}

// LoadScoringFile loads scoring parameters from a YAML file. Fields left
// unset in the file keep their defaults.
func LoadScoringFile(path string) (ScoringConfig, error) {
	scoring := DefaultScoring()

	data, err := os.ReadFile(path)
	if err != nil {
		return scoring, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &scoring); err != nil {
		return scoring, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := scoring.Validate(); err != nil {
		return scoring, err
	}

	return scoring, nil
}

// Validate validates the scoring parameters
func (s ScoringConfig) Validate() error {
	for name, w := range map[string]float64{
		"weight_coverage_gap": s.WeightCoverageGap,
		"weight_next_target":  s.WeightNextTarget,
		"weight_volume":       s.WeightVolume,
	} {
		if w < 0 || w > 1 || math.IsNaN(w) {
			return fmt.Errorf("scoring %s out of range: %v", name, w)
		}
	}

	if s.NextTargetDivisor <= 0 {
		return fmt.Errorf("scoring next_target_divisor must be positive")
	}

	if s.DefaultRatingGap < 0 {
		return fmt.Errorf("scoring default_rating_gap must not be negative")
	}

	return nil
}
