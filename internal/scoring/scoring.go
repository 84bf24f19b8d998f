// Package scoring aggregates check issues into a weighted audit summary.
package scoring

import (
	"math"

	"github.com/jonathan/seo-auditor/internal/types"
)

const (
	// DefaultWeight applies to check names missing from the weight table.
	DefaultWeight = 3.0
	// warningFactor scales the weight of a warning relative to a critical.
	warningFactor = 0.3
)

// DefaultWeights is the weight table keyed by check name.
var DefaultWeights = map[string]float64{
	"noindex":                   10,
	"title_presence":            9,
	"h1_presence":               9,
	"meta_description_presence": 8,
	"title_length":              7,
	"meta_description_length":   7,
	"multiple_h1s":              7,
	"schema_markup":             6,
	"heading_hierarchy":         5,
	"image_alt_text":            5,
	"internal_links":            4,
	"external_links":            4,
	"broken_links":              3,
}

// Engine computes audit summaries from a weight table.
type Engine struct {
	weights map[string]float64
}

// NewEngine creates an Engine. A nil table uses DefaultWeights.
func NewEngine(weights map[string]float64) *Engine {
	if weights == nil {
		weights = DefaultWeights
	}
	return &Engine{weights: weights}
}

// Weight returns the weight for a check name.
func (e *Engine) Weight(checkName string) float64 {
	if w, ok := e.weights[checkName]; ok {
		return w
	}
	return DefaultWeight
}

// Summarize folds every issue of every page into an AuditSummary.
// weighted_penalty never exceeds max_weight.
func (e *Engine) Summarize(pages []types.PageResult) types.AuditSummary {
	var s types.AuditSummary
	for i := range pages {
		for _, issue := range pages[i].AllIssues() {
			weight := e.Weight(issue.CheckName)
			s.MaxWeight += weight
			switch issue.Status {
			case types.StatusCritical:
				s.WeightedPenalty += weight
				s.CriticalCount++
			case types.StatusWarning:
				s.WeightedPenalty += weight * warningFactor
				s.WarningCount++
			default:
				s.PassedCount++
			}
		}
	}

	s.HealthScore = HealthScore(s.WeightedPenalty, s.MaxWeight)
	s.WeightedPenalty = roundTo(s.WeightedPenalty, 2)
	s.MaxWeight = roundTo(s.MaxWeight, 2)
	return s
}

// HealthScore is round(100 * (1 - penalty/maxWeight)), or 100 when there is nothing to weigh.
func HealthScore(penalty, maxWeight float64) int {
	if maxWeight <= 0 {
		return 100
	}
	return int(math.Round(100 * (1 - penalty/maxWeight)))
}

// Summarize scores pages with the default weight table.
func Summarize(pages []types.PageResult) types.AuditSummary {
	return NewEngine(nil).Summarize(pages)
}

func roundTo(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
