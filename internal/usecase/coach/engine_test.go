package coach

import (
	"testing"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

func recommendationIDs(recs []entity.Recommendation) []string {
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name  string
		stats entity.UsageStats
		want  []string
	}{
		{
			name:  "brand new user",
			stats: entity.UsageStats{},
			want:  []string{"getting-started", "increase-frequency"},
		},
		{
			name: "one validation low frequency",
			stats: entity.UsageStats{
				TotalValidations:           1,
				AverageValidationsPerMonth: 0.2,
			},
			want: []string{"build-momentum", "increase-frequency"},
		},
		{
			name: "heavy bias co-fires with momentum",
			stats: entity.UsageStats{
				TotalValidations:           2,
				TotalBiasesDetected:        5,
				AverageValidationsPerMonth: 1.5,
			},
			want: []string{"build-momentum", "improve-questioning"},
		},
		{
			name: "bias exactly at double does not fire",
			stats: entity.UsageStats{
				TotalValidations:           3,
				TotalBiasesDetected:        6,
				AverageValidationsPerMonth: 1.0,
			},
			want: nil,
		},
		{
			name: "experienced clean interviewer",
			stats: entity.UsageStats{
				TotalValidations:           8,
				TotalBiasesDetected:        3,
				AverageValidationsPerMonth: 1.3,
			},
			want: []string{"advanced-techniques"},
		},
		{
			name: "experienced but infrequent",
			stats: entity.UsageStats{
				TotalValidations:           8,
				TotalBiasesDetected:        3,
				AverageValidationsPerMonth: 0.9,
			},
			want: []string{"increase-frequency", "advanced-techniques"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := recommendationIDs(Recommendations(tt.stats))
			if len(got) != len(tt.want) {
				t.Fatalf("Recommendations() = %v, want %v", got, tt.want)
			}
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Errorf("Recommendations()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestSkillLevelFor(t *testing.T) {
	tests := []struct {
		name         string
		stats        entity.UsageStats
		wantTier     entity.SkillTier
		wantProgress int
	}{
		{"zero validations", entity.UsageStats{}, entity.SkillBeginner, 0},
		{"single validation", entity.UsageStats{TotalValidations: 1}, entity.SkillNovice, 25},
		{"three validations no biases", entity.UsageStats{TotalValidations: 3}, entity.SkillDeveloping, 50},
		{
			"five validations under one bias each",
			entity.UsageStats{TotalValidations: 5, TotalBiasesDetected: 4},
			entity.SkillProficient, 75,
		},
		{
			"five validations at one bias each stays developing",
			entity.UsageStats{TotalValidations: 5, TotalBiasesDetected: 5},
			entity.SkillDeveloping, 50,
		},
		{
			"ten validations at half bias rate",
			entity.UsageStats{TotalValidations: 10, TotalBiasesDetected: 5},
			entity.SkillExpert, 100,
		},
		{
			"ten validations just over half bias rate",
			entity.UsageStats{TotalValidations: 10, TotalBiasesDetected: 6},
			entity.SkillProficient, 75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SkillLevelFor(tt.stats)
			if got.Tier != tt.wantTier || got.Progress != tt.wantProgress {
				t.Errorf("SkillLevelFor() = %+v, want {%s %d}", got, tt.wantTier, tt.wantProgress)
			}
		})
	}
}
