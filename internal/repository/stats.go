package repository

import (
	"math"
	"time"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

// timeNow is swapped out in tests to pin the trailing window.
var timeNow = time.Now

// ValidationMeta is the slice of a validation row that usage stats
// aggregation needs.
type ValidationMeta struct {
	Status    entity.ValidationStatus
	CreatedAt time.Time
}

// AggregateUsageStats computes usage statistics from raw row data.
// The monthly average counts validations created within the trailing
// six months, divides by six, and rounds to one decimal.
func AggregateUsageStats(metas []ValidationMeta, conversations, biases int, now time.Time) entity.UsageStats {
	stats := entity.UsageStats{
		TotalValidations:    len(metas),
		TotalConversations:  conversations,
		TotalBiasesDetected: biases,
	}

	windowStart := now.AddDate(0, -6, 0)

	var recent int
	for _, meta := range metas {
		if meta.Status == entity.ValidationStatusCompleted {
			stats.CompletedValidations++
		}
		if !meta.CreatedAt.Before(windowStart) {
			recent++
		}
	}

	stats.AverageValidationsPerMonth = math.Round(float64(recent)/6.0*10) / 10

	return stats
}
