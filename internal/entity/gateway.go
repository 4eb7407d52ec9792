package entity

// Request/response shapes for the AI gateway service. The gateway is an
// external coordinator fronting the actual LLM/voice providers; the
// connector validates these shapes at the boundary so malformed
// responses never reach the data model.

type GeneratePersonasRequest struct {
	Idea          string `json:"idea"`
	TargetSegment string `json:"target_segment,omitempty"`
}

type GeneratePersonasResponse struct {
	Personas []Persona `json:"personas"`
}

type PersonaReplyRequest struct {
	Idea                string             `json:"idea"`
	Persona             Persona            `json:"persona"`
	ConversationHistory []ConversationTurn `json:"conversation_history"`
	UserMessage         string             `json:"user_message,omitempty"`
	AudioBase64         string             `json:"audio_file,omitempty"`
}

type PersonaReplyResponse struct {
	PersonaResponse        string   `json:"persona_response"`
	TranscribedUserMessage string   `json:"transcribed_user_message,omitempty"`
	PersonaAudioURL        string   `json:"persona_audio_url,omitempty"`
	SuggestedQuestions     []string `json:"suggested_questions,omitempty"`
	ConversationStatus     string   `json:"conversation_status,omitempty"`
}

type AnalyzeConversationRequest struct {
	Idea         string   `json:"idea"`
	Conversation []string `json:"conversation"`
}

type AnalyzeMarketRequest struct {
	Idea string `json:"idea"`
}

type TranscribeResponse struct {
	Text string `json:"text"`
}

type SynthesizeRequest struct {
	Input string `json:"input"`
	Voice string `json:"voice"`
}
