package coach

import (
	"github.com/stepone-ai/validation-backend/internal/entity"
)

// Recommendation catalog. Conditions may co-fire; everything that
// matches is returned in this order.
var catalog = []struct {
	rec     entity.Recommendation
	matches func(entity.UsageStats) bool
}{
	{
		rec: entity.Recommendation{
			ID:       "getting-started",
			Title:    "Run your first validation",
			Body:     "Start with one idea and one persona interview. The goal is learning, not a perfect pitch.",
			Priority: entity.PriorityHigh,
		},
		matches: func(s entity.UsageStats) bool { return s.TotalValidations == 0 },
	},
	{
		rec: entity.Recommendation{
			ID:       "build-momentum",
			Title:    "Build momentum",
			Body:     "You have a couple of validations behind you. Aim for three to five interviews per idea before drawing conclusions.",
			Priority: entity.PriorityMedium,
		},
		matches: func(s entity.UsageStats) bool { return s.TotalValidations >= 1 && s.TotalValidations <= 2 },
	},
	{
		rec: entity.Recommendation{
			ID:       "improve-questioning",
			Title:    "Improve your questioning",
			Body:     "Your interviews trip the bias detector often. Swap leading questions for open ones about past behavior.",
			Priority: entity.PriorityHigh,
		},
		matches: func(s entity.UsageStats) bool { return s.TotalBiasesDetected > 2*s.TotalValidations },
	},
	{
		rec: entity.Recommendation{
			ID:       "increase-frequency",
			Title:    "Validate more often",
			Body:     "Less than one validation a month loses context between sessions. Short regular sessions beat rare long ones.",
			Priority: entity.PriorityMedium,
		},
		matches: func(s entity.UsageStats) bool { return s.AverageValidationsPerMonth < 1 },
	},
	{
		rec: entity.Recommendation{
			ID:       "advanced-techniques",
			Title:    "Try advanced techniques",
			Body:     "Your fundamentals are solid. Experiment with pricing probes and competitor switch questions.",
			Priority: entity.PriorityLow,
		},
		matches: func(s entity.UsageStats) bool {
			return s.TotalValidations >= 5 && s.TotalBiasesDetected < s.TotalValidations
		},
	},
}

// Recommendations maps usage statistics to the matching canned
// recommendations, in catalog order.
func Recommendations(stats entity.UsageStats) []entity.Recommendation {
	var recs []entity.Recommendation
	for _, c := range catalog {
		if c.matches(stats) {
			recs = append(recs, c.rec)
		}
	}

	return recs
}

// SkillLevelFor classifies interviewing skill from validation count
// and bias rate. Tiers are evaluated top-down; each carries a fixed
// progress percentage.
func SkillLevelFor(stats entity.UsageStats) entity.SkillLevel {
	v := stats.TotalValidations
	rate := biasRate(stats)

	switch {
	case v >= 10 && rate <= 0.5:
		return entity.SkillLevel{Tier: entity.SkillExpert, Progress: 100}
	case v >= 5 && rate < 1:
		return entity.SkillLevel{Tier: entity.SkillProficient, Progress: 75}
	case v >= 3:
		return entity.SkillLevel{Tier: entity.SkillDeveloping, Progress: 50}
	case v >= 1:
		return entity.SkillLevel{Tier: entity.SkillNovice, Progress: 25}
	default:
		return entity.SkillLevel{Tier: entity.SkillBeginner, Progress: 0}
	}
}

func biasRate(stats entity.UsageStats) float64 {
	if stats.TotalValidations == 0 {
		return 0
	}
	return float64(stats.TotalBiasesDetected) / float64(stats.TotalValidations)
}
