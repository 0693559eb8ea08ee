// Package metrics turns raw prediction records into accuracy statistics.
// Every function is pure: no I/O, no side effects.
package metrics

import (
	"math"
	"sort"

	"hotdogbench/internal/dataset"
	"hotdogbench/internal/runlog"
)

// Metrics holds binary classification counts and derived rates.
//
// Positive = hot_dog (ground truth "hot_dog", verdict "yes").
// Error verdicts are excluded from the confusion matrix but included in Total.
type Metrics struct {
	Accuracy       float64 `json:"accuracy"`
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	F1             float64 `json:"f1"`
	TruePositives  int     `json:"true_positives"`
	TrueNegatives  int     `json:"true_negatives"`
	FalsePositives int     `json:"false_positives"`
	FalseNegatives int     `json:"false_negatives"`
	Total          int     `json:"total"`
	Errors         int     `json:"errors"`
}

// CategoryBreakdown is the per-ground-truth-category accuracy slice.
type CategoryBreakdown struct {
	Category string  `json:"category"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
	CILower  float64 `json:"ci_lower"`
	CIUpper  float64 `json:"ci_upper"`
}

// LatencyStats summarizes request latency over non-error records.
type LatencyStats struct {
	MeanMs   float64 `json:"mean_ms"`
	MedianMs float64 `json:"median_ms"`
	P95Ms    float64 `json:"p95_ms"`
}

// Enhanced bundles the full statistics for one run.
type Enhanced struct {
	Metrics           Metrics             `json:"metrics"`
	CILower           float64             `json:"ci_lower"`
	CIUpper           float64             `json:"ci_upper"`
	CategoryBreakdown []CategoryBreakdown `json:"category_breakdown"`
	Latency           LatencyStats        `json:"latency"`
}

// Compute derives confusion counts and rates from predictions.
func Compute(predictions []runlog.Prediction) Metrics {
	var m Metrics
	for _, p := range predictions {
		if p.Parsed == "error" {
			m.Errors++
			continue
		}
		isHotDog := p.Category == dataset.CategoryHotDog
		predictedHotDog := p.Parsed == "yes"
		switch {
		case isHotDog && predictedHotDog:
			m.TruePositives++
		case !isHotDog && !predictedHotDog:
			m.TrueNegatives++
		case !isHotDog && predictedHotDog:
			m.FalsePositives++
		default:
			m.FalseNegatives++
		}
	}

	valid := m.TruePositives + m.TrueNegatives + m.FalsePositives + m.FalseNegatives
	var accuracy, precision, recall, f1 float64
	if valid > 0 {
		accuracy = float64(m.TruePositives+m.TrueNegatives) / float64(valid)
	}
	if m.TruePositives+m.FalsePositives > 0 {
		precision = float64(m.TruePositives) / float64(m.TruePositives+m.FalsePositives)
	}
	if m.TruePositives+m.FalseNegatives > 0 {
		recall = float64(m.TruePositives) / float64(m.TruePositives+m.FalseNegatives)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	m.Accuracy = round4(accuracy)
	m.Precision = round4(precision)
	m.Recall = round4(recall)
	m.F1 = round4(f1)
	m.Total = valid + m.Errors
	return m
}

// ComputeEnhanced derives the full statistics bundle for predictions.
func ComputeEnhanced(predictions []runlog.Prediction) Enhanced {
	m := Compute(predictions)
	correct := m.TruePositives + m.TrueNegatives
	ciLower, ciUpper := WilsonCI(correct, m.Total-m.Errors)
	return Enhanced{
		Metrics:           m,
		CILower:           ciLower,
		CIUpper:           ciUpper,
		CategoryBreakdown: breakdownByCategory(predictions),
		Latency:           latencyStats(predictions),
	}
}

// breakdownByCategory computes accuracy and CI per ground-truth category,
// excluding error verdicts.
func breakdownByCategory(predictions []runlog.Prediction) []CategoryBreakdown {
	type counts struct{ total, correct int }
	byCategory := map[string]*counts{}
	for _, p := range predictions {
		if p.Parsed == "error" {
			continue
		}
		c, ok := byCategory[p.Category]
		if !ok {
			c = &counts{}
			byCategory[p.Category] = c
		}
		c.total++
		if p.Correct {
			c.correct++
		}
	}

	categories := make([]string, 0, len(byCategory))
	for category := range byCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	breakdowns := make([]CategoryBreakdown, 0, len(categories))
	for _, category := range categories {
		c := byCategory[category]
		lower, upper := WilsonCI(c.correct, c.total)
		var accuracy float64
		if c.total > 0 {
			accuracy = round4(float64(c.correct) / float64(c.total))
		}
		breakdowns = append(breakdowns, CategoryBreakdown{
			Category: category,
			Total:    c.total,
			Correct:  c.correct,
			Accuracy: accuracy,
			CILower:  lower,
			CIUpper:  upper,
		})
	}
	return breakdowns
}

// latencyStats computes mean, median, and p95 latency over non-error records.
// The p95 is the value at rank ceil(0.95*n)-1 of the ascending sorted list.
func latencyStats(predictions []runlog.Prediction) LatencyStats {
	var latencies []float64
	for _, p := range predictions {
		if p.Parsed == "error" {
			continue
		}
		latencies = append(latencies, p.LatencyMs)
	}
	if len(latencies) == 0 {
		return LatencyStats{}
	}
	sort.Float64s(latencies)

	var sum float64
	for _, v := range latencies {
		sum += v
	}
	n := len(latencies)
	median := latencies[n/2]
	if n%2 == 0 {
		median = (latencies[n/2-1] + latencies[n/2]) / 2
	}
	p95Index := int(math.Ceil(0.95*float64(n))) - 1
	if p95Index < 0 {
		p95Index = 0
	}
	return LatencyStats{
		MeanMs:   round1(sum / float64(n)),
		MedianMs: round1(median),
		P95Ms:    round1(latencies[p95Index]),
	}
}

// round4 rounds to four decimal places.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
