package service

import (
	"sort"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/metrics"
	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"
)

// Band classifies a confidence score for presentation
func Band(score float64) models.ConfidenceBand {
	switch {
	case score >= 80:
		return models.BandHigh
	case score >= 50:
		return models.BandMedium
	default:
		return models.BandLow
	}
}

// Rank joins oracle results to their lost-item reports and orders them by
// confidence, highest first. Unknown ids are dropped, and when the oracle
// repeats an id the first occurrence wins. Equal scores keep oracle order.
func Rank(results []models.MatchResult, universe []models.LostItemReport) []models.ScoredMatch {
	index := make(map[string]models.LostItemReport, len(universe))
	for _, item := range universe {
		if _, exists := index[item.ID]; !exists {
			index[item.ID] = item
		}
	}

	seen := make(map[string]struct{}, len(results))
	ranked := make([]models.ScoredMatch, 0, len(results))

	for _, r := range results {
		if _, dup := seen[r.ID]; dup {
			metrics.DroppedMatchesTotal.WithLabelValues("duplicate_id").Inc()
			continue
		}
		item, ok := index[r.ID]
		if !ok {
			metrics.DroppedMatchesTotal.WithLabelValues("unknown_id").Inc()
			continue
		}
		seen[r.ID] = struct{}{}

		ranked = append(ranked, models.ScoredMatch{
			LostItemReport: item,
			Confidence:     r.Confidence,
			Reasoning:      r.Reasoning,
			Band:           Band(r.Confidence),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Confidence > ranked[j].Confidence
	})

	return ranked
}
