package voice

import (
	"context"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

type GatewayConnector interface {
	PersonaReply(ctx context.Context, req *entity.PersonaReplyRequest) (*entity.PersonaReplyResponse, error)
	Transcribe(ctx context.Context, audioData []byte, filename string) (string, error)
}

// TurnSink receives accepted turns so the voice interview lands in the
// same conversation bucket as the text interview.
type TurnSink interface {
	AppendTurn(role entity.TurnRole, message string) error
}

// CaptureDevice records caller audio. Level reports the current input
// level in [0, 1]; it drives the silence cutoff on the raw-capture
// path only.
type CaptureDevice interface {
	Acquire(ctx context.Context) error
	Start() error
	Stop() ([]byte, error)
	Release() error
	Level() float64
}

// Recognizer streams speech-to-text and reports one final utterance
// per callback. Sessions with a recognizer never apply the timed
// silence cutoff; end of utterance comes from the recognizer itself.
type Recognizer interface {
	Start(onUtterance func(text string)) error
	Stop() error
}

// Synthesizer plays persona speech. PlayRemote consumes a prepared
// audio asset by URL; Speak falls back to local synthesis.
type Synthesizer interface {
	PlayRemote(ctx context.Context, url string) error
	Speak(ctx context.Context, text, voice string) error
	Cancel()
}
