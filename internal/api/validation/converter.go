package validation

import (
	"github.com/stepone-ai/validation-backend/internal/entity"
)

type selectPersonaResponse struct {
	Persona  entity.Persona  `json:"persona"`
	Step     entity.FlowStep `json:"step"`
	Progress float64         `json:"progress"`
}

func toSelectPersonaResponse(persona *entity.Persona, state entity.FlowStateResponse) selectPersonaResponse {
	return selectPersonaResponse{
		Persona:  *persona,
		Step:     state.Step,
		Progress: state.Progress,
	}
}
