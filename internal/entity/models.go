package entity

import (
	"fmt"
	"time"
)

type FlowStep string

// Flow step represents the current position in the validation workflow.
// Transitions are strictly forward: input -> personas -> interview ->
// analysis -> market -> results.
const (
	FlowStepInput     FlowStep = "INPUT"     // Waiting for the startup idea
	FlowStepPersonas  FlowStep = "PERSONAS"  // Personas generated, waiting for selection
	FlowStepInterview FlowStep = "INTERVIEW" // Interviewing a selected persona
	FlowStepAnalysis  FlowStep = "ANALYSIS"  // Interview analyzed, insights available
	FlowStepMarket    FlowStep = "MARKET"    // Market analysis complete
	FlowStepResults   FlowStep = "RESULTS"   // Results view
)

// Progress checkpoints for the flow. Discrete values, never interpolated.
const (
	ProgressStart    = 0.0
	ProgressPersonas = 0.25
	ProgressAnalysis = 0.75
	ProgressComplete = 1.0
)

type ValidationStatus string

const (
	ValidationStatusInProgress ValidationStatus = "in_progress"
	ValidationStatusCompleted  ValidationStatus = "completed"
)

type TurnRole string

const (
	TurnRoleUser    TurnRole = "user"
	TurnRolePersona TurnRole = "persona"
)

func (r TurnRole) Validate() error {
	switch r {
	case TurnRoleUser, TurnRolePersona:
		return nil
	default:
		return fmt.Errorf("unknown turn role: %s", r)
	}
}

// Persona is a synthetic customer profile generated for an idea.
// Read-only after generation; unique by name within a session.
type Persona struct {
	Name               string   `json:"name"`
	Role               string   `json:"role"`
	Demographics       string   `json:"demographics"`
	PainPoints         []string `json:"pain_points"`
	Goals              []string `json:"goals"`
	PersonalityTraits  []string `json:"personality_traits"`
	CommunicationStyle string   `json:"communication_style"`
}

// ConversationTurn is one utterance in an interview. The sequence is
// append-only; position in the slice is the persistence order.
type ConversationTurn struct {
	Role    TurnRole `json:"role"`
	Message string   `json:"message"`
}

// BiasFinding flags an interview question judged leading or loaded,
// with a suggested neutral rewrite.
type BiasFinding struct {
	BiasType       string `json:"bias_type"`
	Question       string `json:"question"`
	Why            string `json:"why,omitempty"`
	BetterQuestion string `json:"better_question"`
}

// Insights is the structured extraction derived once from a completed
// interview. Recomputation produces a new value, never mutates.
type Insights struct {
	KeyInsights      []string      `json:"key_insights"`
	QuestionBiases   []BiasFinding `json:"question_biases"`
	PainPoints       []string      `json:"pain_points,omitempty"`
	Objections       []string      `json:"objections,omitempty"`
	WillingnessToPay string        `json:"willingness_to_pay,omitempty"`
	FeatureRequests  []string      `json:"feature_requests,omitempty"`
	KeyQuotes        []string      `json:"key_quotes,omitempty"`
}

type CompetitorEntry struct {
	Competitor           string  `json:"competitor"`
	Strength             string  `json:"strength"`
	Weakness             string  `json:"weakness"`
	DifferentiationScore float64 `json:"differentiation_score"` // 0..1
}

// MarketAnalysis is derived once per idea, independent of any interview.
type MarketAnalysis struct {
	CompetitorHeatmap []CompetitorEntry `json:"competitor_heatmap"`
	Trends            []string          `json:"trends"`
	ValuePropositions []string          `json:"value_propositions"`
}

// ValidationSession is the aggregate root for one end-to-end validation
// run. Owned by the flow controller during its lifetime; the persistence
// adapter decomposes it into normalized child records at save time.
type ValidationSession struct {
	ID              string                        `json:"session_id"`
	UserID          string                        `json:"user_id"`
	Idea            string                        `json:"idea"`
	Personas        []Persona                     `json:"personas,omitempty"`
	SelectedPersona *string                       `json:"selected_persona,omitempty"`
	Conversations   map[string][]ConversationTurn `json:"conversations,omitempty"`
	Insights        map[string]*Insights          `json:"insights,omitempty"`
	MarketAnalysis  *MarketAnalysis               `json:"market_analysis,omitempty"`
	Status          ValidationStatus              `json:"status"`
	CreatedAt       time.Time                     `json:"created_at"`
	UpdatedAt       time.Time                     `json:"updated_at"`
}

// Conversation returns the turn bucket for a persona, or nil.
func (s *ValidationSession) Conversation(personaName string) []ConversationTurn {
	if s.Conversations == nil {
		return nil
	}
	return s.Conversations[personaName]
}

// PersonaByName looks a generated persona up by its unique name.
func (s *ValidationSession) PersonaByName(name string) (*Persona, bool) {
	for i := range s.Personas {
		if s.Personas[i].Name == name {
			return &s.Personas[i], true
		}
	}
	return nil, false
}

// ValidationRecord is a persisted validation as returned by history
// reads: the parent row plus nested children and a turn count.
type ValidationRecord struct {
	ID              string           `json:"session_id"`
	UserID          string           `json:"user_id"`
	Idea            string           `json:"idea"`
	SelectedPersona *string          `json:"selected_persona,omitempty"`
	Status          ValidationStatus `json:"status"`
	Personas        []Persona        `json:"personas"`
	Insights        *Insights        `json:"insights,omitempty"`
	MarketAnalysis  *MarketAnalysis  `json:"market_analysis,omitempty"`
	TurnCount       int              `json:"conversation_count"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}
