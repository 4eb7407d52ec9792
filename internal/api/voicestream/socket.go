package voicestream

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/usecase/voice"
)

// Client to server frames. The first frame must be a "join" carrying
// the call id; after that, binary frames carry one recorded utterance
// each and "transcript" frames carry client-side recognized text.
type clientMessage struct {
	Type   string `json:"type"` // "join" | "transcript" | "end"
	CallID string `json:"call_id,omitempty"`
	Text   string `json:"text,omitempty"`
}

// Server to client frames: binary frames carry synthesized persona
// audio, text frames carry a serverMessage. "transcript" mirrors the
// accepted caller utterance; "persona_response" carries the persona
// line and, when available, a prepared audio asset URL.
type serverMessage struct {
	Type     string `json:"type"` // "transcript" | "persona_response" | "error" | "ended"
	Text     string `json:"text,omitempty"`
	AudioURL string `json:"audio_url,omitempty"`
	Message  string `json:"message,omitempty"`
}

// socket serializes writes to a websocket connection. Gorilla
// connections support one concurrent writer only.
type socket struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func newSocket(conn *websocket.Conn) *socket {
	return &socket{conn: conn}
}

func (s *socket) sendJSON(msg serverMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.TextMessage, payload)
}

func (s *socket) sendBinary(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.WriteMessage(websocket.BinaryMessage, data)
}

// streamSink forwards accepted voice turns into the validation flow
// conversation and mirrors them to the client. The flow write is
// authoritative; the mirror is best effort.
type streamSink struct {
	flow voice.TurnSink
	sock *socket
}

func (s *streamSink) AppendTurn(role entity.TurnRole, message string) error {
	msg := serverMessage{Type: "persona_response", Text: message}
	if role == entity.TurnRoleUser {
		msg = serverMessage{Type: "transcript", Text: message}
	}
	_ = s.sock.sendJSON(msg)
	return s.flow.AppendTurn(role, message)
}

// socketSynthesizer plays persona speech over the websocket. A remote
// audio asset is passed through as a URL; local synthesis streams the
// rendered bytes as a binary frame.
type socketSynthesizer struct {
	sock    *socket
	gateway GatewayConnector
}

func (p *socketSynthesizer) PlayRemote(ctx context.Context, url string) error {
	return p.sock.sendJSON(serverMessage{Type: "persona_response", AudioURL: url})
}

func (p *socketSynthesizer) Speak(ctx context.Context, text, voiceName string) error {
	audio, err := p.gateway.Synthesize(ctx, text, voiceName)
	if err != nil {
		return err
	}
	return p.sock.sendBinary(audio)
}

func (p *socketSynthesizer) Cancel() {}
