package repository

import (
	"testing"
	"time"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

func TestAggregateUsageStats(t *testing.T) {
	now := time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name          string
		metas         []ValidationMeta
		conversations int
		biases        int
		want          entity.UsageStats
	}{
		{
			name: "no validations",
			want: entity.UsageStats{},
		},
		{
			name: "two recent validations average to 0.3",
			metas: []ValidationMeta{
				{Status: entity.ValidationStatusCompleted, CreatedAt: now.AddDate(0, -1, 0)},
				{Status: entity.ValidationStatusInProgress, CreatedAt: now.AddDate(0, -2, 0)},
			},
			conversations: 3,
			biases:        4,
			want: entity.UsageStats{
				TotalValidations:           2,
				TotalConversations:         3,
				TotalBiasesDetected:        4,
				CompletedValidations:       1,
				AverageValidationsPerMonth: 0.3,
			},
		},
		{
			name: "validations outside the window are excluded from the average",
			metas: []ValidationMeta{
				{Status: entity.ValidationStatusCompleted, CreatedAt: now.AddDate(0, -7, 0)},
				{Status: entity.ValidationStatusCompleted, CreatedAt: now.AddDate(-1, 0, 0)},
				{Status: entity.ValidationStatusCompleted, CreatedAt: now.AddDate(0, -3, 0)},
			},
			want: entity.UsageStats{
				TotalValidations:           3,
				CompletedValidations:       3,
				AverageValidationsPerMonth: 0.2,
			},
		},
		{
			name: "six recent validations average to 1.0",
			metas: []ValidationMeta{
				{CreatedAt: now}, {CreatedAt: now}, {CreatedAt: now},
				{CreatedAt: now}, {CreatedAt: now}, {CreatedAt: now},
			},
			want: entity.UsageStats{
				TotalValidations:           6,
				AverageValidationsPerMonth: 1.0,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AggregateUsageStats(tt.metas, tt.conversations, tt.biases, now)
			if got != tt.want {
				t.Errorf("AggregateUsageStats() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
