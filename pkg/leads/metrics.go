package leads

import (
	"math"

	"polimata/pkg/domain"
)

type Band string

const (
	BandExcellent Band = "excellent"
	BandGood      Band = "good"
	BandFair      Band = "fair"
	BandPoor      Band = "poor"
	BandNone      Band = "none"
)

// ScoreBand buckets an AI score for colouring. nil means the contact was never scored.
func ScoreBand(score *int) Band {
	switch {
	case score == nil:
		return BandNone
	case *score >= 80:
		return BandExcellent
	case *score >= 60:
		return BandGood
	case *score >= 40:
		return BandFair
	default:
		return BandPoor
	}
}

// AnalyticsMetrics are the figures the analytics page derives locally.
// Rates are percentages; all values are rounded to one decimal.
type AnalyticsMetrics struct {
	AveragePerDay float64 `json:"average_per_day"`
	NewRate       float64 `json:"new_rate"`
	CloseRate     float64 `json:"close_rate"`
}

func Metrics(summary domain.Summary, timeline domain.Timeline) AnalyticsMetrics {
	var m AnalyticsMetrics
	if n := len(timeline.Data); n > 0 {
		m.AveragePerDay = round1(float64(summary.TotalContacts) / float64(n))
	}
	if total := summary.TotalContacts; total > 0 {
		m.NewRate = round1(float64(summary.ByStatus.New) / float64(total) * 100)
		m.CloseRate = round1(float64(summary.ByStatus.Closed) / float64(total) * 100)
	}
	return m
}

// StatusSlice is one wedge of the status distribution chart.
type StatusSlice struct {
	Status  domain.ContactStatus `json:"status"`
	Count   int                  `json:"count"`
	Percent float64              `json:"percent"`
}

func StatusSlices(summary domain.Summary) []StatusSlice {
	counts := map[domain.ContactStatus]int{
		domain.StatusNew:       summary.ByStatus.New,
		domain.StatusContacted: summary.ByStatus.Contacted,
		domain.StatusClosed:    summary.ByStatus.Closed,
	}
	total := summary.ByStatus.New + summary.ByStatus.Contacted + summary.ByStatus.Closed
	out := make([]StatusSlice, 0, len(domain.ContactStatuses))
	for _, status := range domain.ContactStatuses {
		slice := StatusSlice{Status: status, Count: counts[status]}
		if total > 0 {
			slice.Percent = round1(float64(slice.Count) / float64(total) * 100)
		}
		out = append(out, slice)
	}
	return out
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
