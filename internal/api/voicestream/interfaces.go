package voicestream

import (
	"context"

	"github.com/stepone-ai/validation-backend/internal/usecase/voice"
)

// GatewayConnector is the voice session gateway plus speech synthesis
// for streaming persona audio back to the client.
type GatewayConnector interface {
	voice.GatewayConnector
	Synthesize(ctx context.Context, text, voiceName string) ([]byte, error)
}
