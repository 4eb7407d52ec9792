package voicestream

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stepone-ai/validation-backend/internal/config"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/pkg/logger"
	"github.com/stepone-ai/validation-backend/internal/pkg/response"
	"github.com/stepone-ai/validation-backend/internal/usecase/flow"
	"github.com/stepone-ai/validation-backend/internal/usecase/voice"
	"go.uber.org/zap"
)

const joinTimeout = 5 * time.Second

// Handler upgrades a validation session into a live voice interview
// over a websocket. The client joins with the call id, then streams
// recorded utterances (binary frames) or locally recognized text;
// persona replies come back as transcript events plus audio.
type Handler struct {
	registry *flow.Registry
	gateway  GatewayConnector
	cfg      config.VoiceConfig
	voiceFor func(persona entity.Persona) string
	upgrader websocket.Upgrader
}

func NewHandler(
	registry *flow.Registry,
	gateway GatewayConnector,
	cfg config.VoiceConfig,
	voiceFor func(persona entity.Persona) string,
) *Handler {
	return &Handler{
		registry: registry,
		gateway:  gateway,
		cfg:      cfg,
		voiceFor: voiceFor,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stream handles GET /voice-stream/{call_id} - live voice interview
func (h *Handler) Stream(w http.ResponseWriter, r *http.Request) {
	ctx := logger.WithAction(r.Context(), "VoiceStream")
	callID := chi.URLParam(r, "call_id")

	controller, err := h.registry.Get(callID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "validation session not found")
		return
	}

	snapshot := controller.Session()
	if snapshot.SelectedPersona == nil {
		response.Error(w, http.StatusConflict, "no persona selected for this session")
		return
	}
	persona, ok := snapshot.PersonaByName(*snapshot.SelectedPersona)
	if !ok {
		response.Error(w, http.StatusConflict, "selected persona is unknown")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		ctxzap.Error(ctx, "websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.cfg.MaxAudioFrameBytes > 0 {
		conn.SetReadLimit(h.cfg.MaxAudioFrameBytes)
	}

	sock := newSocket(conn)
	if !h.awaitJoin(ctx, sock, callID) {
		return
	}

	session := voice.NewSession(voice.Options{
		Idea:        snapshot.Idea,
		Persona:     *persona,
		Voice:       h.voiceFor(*persona),
		Config:      h.cfg,
		Synthesizer: &socketSynthesizer{sock: sock, gateway: h.gateway},
		Gateway:     h.gateway,
		Sink:        &streamSink{flow: controller, sock: sock},
		Logger:      ctxzap.Extract(ctx),
	})

	if err := session.Begin(ctx); err != nil {
		ctxzap.Error(ctx, "failed to begin voice session", zap.Error(err))
		_ = sock.sendJSON(serverMessage{Type: "error", Message: "failed to start voice session"})
		return
	}

	h.readLoop(ctx, sock, session)

	session.End(ctx)
	_ = sock.sendJSON(serverMessage{Type: "ended"})

	ctxzap.Info(ctx, "voice stream closed",
		zap.String("call_id", callID),
		zap.Int("turns", len(session.Transcript())),
	)
}

// awaitJoin reads the handshake frame. The join must carry the same
// call id as the URL.
func (h *Handler) awaitJoin(ctx context.Context, sock *socket, callID string) bool {
	sock.conn.SetReadDeadline(time.Now().Add(joinTimeout))
	defer sock.conn.SetReadDeadline(time.Time{})

	messageType, data, err := sock.conn.ReadMessage()
	if err != nil {
		ctxzap.Warn(ctx, "failed to read join frame", zap.Error(err))
		return false
	}

	var msg clientMessage
	if messageType != websocket.TextMessage || json.Unmarshal(data, &msg) != nil || msg.Type != "join" {
		_ = sock.sendJSON(serverMessage{Type: "error", Message: "first message must be a join"})
		return false
	}
	if msg.CallID != callID {
		_ = sock.sendJSON(serverMessage{Type: "error", Message: "join call_id does not match the stream"})
		return false
	}

	return true
}

// readLoop pumps client frames into the voice session until the peer
// disconnects or asks to end.
func (h *Handler) readLoop(ctx context.Context, sock *socket, session *voice.Session) {
	for {
		messageType, data, err := sock.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ctxzap.Warn(ctx, "websocket read failed", zap.Error(err))
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			session.HandleAudio(ctx, data)
		case websocket.TextMessage:
			var msg clientMessage
			if err := json.Unmarshal(data, &msg); err != nil {
				_ = sock.sendJSON(serverMessage{Type: "error", Message: "invalid message"})
				continue
			}
			switch msg.Type {
			case "transcript":
				session.HandleUtterance(ctx, msg.Text)
			case "end":
				return
			default:
				_ = sock.sendJSON(serverMessage{Type: "error", Message: "unknown message type"})
			}
		}
	}
}
