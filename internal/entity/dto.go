package entity

type StartValidationRequest struct {
	UserID        string `json:"user_id"`
	Idea          string `json:"idea"`
	TargetSegment string `json:"target_segment,omitempty"`
}

type StartValidationResponse struct {
	SessionID string    `json:"session_id"`
	Step      FlowStep  `json:"step"`
	Progress  float64   `json:"progress"`
	Personas  []Persona `json:"personas"`
}

type SelectPersonaRequest struct {
	Index int `json:"index"`
}

type SendMessageRequest struct {
	Message string `json:"message"`
}

type SendMessageResponse struct {
	Turns              []ConversationTurn `json:"conversation"`
	SuggestedQuestions []string           `json:"suggested_questions,omitempty"`
}

type FlowStateResponse struct {
	SessionID string   `json:"session_id"`
	Step      FlowStep `json:"step"`
	Progress  float64  `json:"progress"`
}

// SessionResults aggregates insights across all interviewed personas
// plus the market analysis, for the results view.
type SessionResults struct {
	Idea           string               `json:"idea"`
	Insights       map[string]*Insights `json:"insights"`
	MarketAnalysis *MarketAnalysis      `json:"market_analysis,omitempty"`
}

type HistoryResponse struct {
	Validations []*ValidationRecord `json:"validations"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Export formats for the validation report.
type ResultFormat string

const (
	FormatMarkdown ResultFormat = "markdown"
	FormatDOCX     ResultFormat = "docx"
	FormatPDF      ResultFormat = "pdf"
)

func (f ResultFormat) IsValid() bool {
	switch f {
	case FormatMarkdown, FormatDOCX, FormatPDF:
		return true
	default:
		return false
	}
}
