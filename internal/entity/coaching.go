package entity

import "time"

// UsageStats is derived on demand from persisted validations for one
// user; never stored directly. The monthly average uses a fixed
// trailing 6-month window, rounded to one decimal.
type UsageStats struct {
	TotalValidations           int     `json:"total_validations"`
	TotalConversations         int     `json:"total_conversations"`
	TotalBiasesDetected        int     `json:"total_biases_detected"`
	CompletedValidations       int     `json:"completed_validations"`
	AverageValidationsPerMonth float64 `json:"average_validations_per_month"`
}

type RecommendationPriority string

const (
	PriorityHigh   RecommendationPriority = "high"
	PriorityMedium RecommendationPriority = "medium"
	PriorityLow    RecommendationPriority = "low"
)

// Recommendation is one canned coaching suggestion. All matching
// recommendations are returned in a fixed order.
type Recommendation struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	Body     string                 `json:"body"`
	Priority RecommendationPriority `json:"priority"`
}

type SkillTier string

const (
	SkillBeginner   SkillTier = "Beginner"
	SkillNovice     SkillTier = "Novice"
	SkillDeveloping SkillTier = "Developing"
	SkillProficient SkillTier = "Proficient"
	SkillExpert     SkillTier = "Expert"
)

// SkillLevel is the 5-tier classification driven by validation count
// and bias rate; each tier carries a fixed progress percentage.
type SkillLevel struct {
	Tier     SkillTier `json:"tier"`
	Progress int       `json:"progress"` // 0/25/50/75/100
}

// LessonSection is one block of a coaching lesson body.
type LessonSection struct {
	Heading string   `json:"heading"`
	Points  []string `json:"points"`
}

// CoachingSession is a canned educational module plus recommendations,
// generated on demand from a user's usage stats and persisted as its
// own record list per user. Independent of any ValidationSession.
type CoachingSession struct {
	ID              string           `json:"id"`
	UserID          string           `json:"user_id"`
	Type            string           `json:"type"`
	Topic           string           `json:"topic"`
	Content         []LessonSection  `json:"content"`
	Recommendations []Recommendation `json:"recommendations"`
	SkillLevel      SkillLevel       `json:"skill_level"`
	Completed       bool             `json:"completed"`
	CreatedAt       time.Time        `json:"created_at"`
}
