package vision

import (
	"math"

	"github.com/uatlabs/widgetuat/internal/model"
)

// Metric weights for the composite quality score. Usability dominates
// because the widget exists to be used; visual polish metrics carry less.
// Weights over present metrics are renormalized, so a desktop capture with
// mobile_responsiveness absent still scores on the same scale.
var scoreWeights = []struct {
	name   string
	weight float64
	pick   func(*model.Scores) *float64
}{
	{"usability", 0.25, func(s *model.Scores) *float64 { return s.Usability }},
	{"visual_hierarchy", 0.20, func(s *model.Scores) *float64 { return s.VisualHierarchy }},
	{"accessibility", 0.20, func(s *model.Scores) *float64 { return s.Accessibility }},
	{"mobile_responsiveness", 0.15, func(s *model.Scores) *float64 { return s.MobileResponsiveness }},
	{"brand_consistency", 0.10, func(s *model.Scores) *float64 { return s.BrandConsistency }},
	{"real_estate_efficiency", 0.10, func(s *model.Scores) *float64 { return s.RealEstateEfficiency }},
}

// WeightedScore computes the composite quality score from an analysis.
// Metrics the model omitted are dropped from both numerator and denominator.
// When no weighted metric is present, the model's overall score is used as a
// fallback; with no scores at all the result is 0. The result is rounded to
// two decimals and always lies within [min, max] of the included scores.
func WeightedScore(a *model.Analysis) float64 {
	if a == nil || a.Scores == nil {
		return 0
	}
	s := a.Scores

	var weightedSum, totalWeight float64
	for _, m := range scoreWeights {
		if v := m.pick(s); v != nil {
			weightedSum += *v * m.weight
			totalWeight += m.weight
		}
	}

	if totalWeight == 0 {
		if s.Overall != nil {
			return *s.Overall
		}
		return 0
	}

	return math.Round(weightedSum/totalWeight*100) / 100
}

// Metric is one named score prepared for display.
type Metric struct {
	// Name is the snake_case metric key.
	Name string
	// Value is the model's rating in [1, 10].
	Value float64
	// Weight is the metric's share of the composite score, 0 for metrics
	// outside the weighting (overall).
	Weight float64
}

// PresentMetrics returns the scores the model actually produced, in stable
// display order, weighted metrics first.
func PresentMetrics(s *model.Scores) []Metric {
	if s == nil {
		return nil
	}
	var metrics []Metric
	for _, m := range scoreWeights {
		if v := m.pick(s); v != nil {
			metrics = append(metrics, Metric{Name: m.name, Value: *v, Weight: m.weight})
		}
	}
	if s.Overall != nil {
		metrics = append(metrics, Metric{Name: "overall", Value: *s.Overall})
	}
	return metrics
}
