package voice

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stepone-ai/validation-backend/internal/config"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/pkg/fallback"
	"go.uber.org/zap"
)

type State string

const (
	StateIdle       State = "idle"
	StateGreeting   State = "greeting"
	StateListening  State = "listening"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
	StateEnded      State = "ended"
)

// fillerWords are dropped without a round trip when they arrive as a
// whole utterance.
var fillerWords = map[string]struct{}{
	"um": {}, "uh": {}, "hmm": {}, "huh": {},
	"ok": {}, "okay": {}, "yeah": {}, "yes": {}, "no": {},
}

// Session runs one spoken interview with a persona. All devices are
// capability interfaces acquired at Begin and released at End; End is
// reachable from every state and never leaks a device. At most one
// persona reply is in flight at a time.
type Session struct {
	mu    sync.Mutex
	state State

	idea    string
	persona entity.Persona
	voice   string
	cfg     config.VoiceConfig

	capture    CaptureDevice
	recognizer Recognizer
	synth      Synthesizer

	gateway   GatewayConnector
	sink      TurnSink
	responder *fallback.Responder
	logger    *zap.Logger

	turns         []entity.ConversationTurn
	lastUtterance string
	inFlight      bool
	captureHeld   bool
	silenceStop   chan struct{}
}

// Options collects the session wiring. Capture, Recognizer and
// Synthesizer are each optional; a session without a recognizer uses
// the raw-capture path with the timed silence cutoff.
type Options struct {
	Idea        string
	Persona     entity.Persona
	Voice       string
	Config      config.VoiceConfig
	Capture     CaptureDevice
	Recognizer  Recognizer
	Synthesizer Synthesizer
	Gateway     GatewayConnector
	Sink        TurnSink
	Logger      *zap.Logger
}

func NewSession(opts Options) *Session {
	return &Session{
		state:      StateIdle,
		idea:       opts.Idea,
		persona:    opts.Persona,
		voice:      opts.Voice,
		cfg:        opts.Config,
		capture:    opts.Capture,
		recognizer: opts.Recognizer,
		synth:      opts.Synthesizer,
		gateway:    opts.Gateway,
		sink:       opts.Sink,
		responder:  fallback.NewResponder(),
		logger:     opts.Logger,
	}
}

// State reports the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Begin acquires the capture device, speaks the greeting and starts
// listening. A failed acquire ends the session cleanly.
func (s *Session) Begin(ctx context.Context) error {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return entity.ErrVoiceSessionEnded
	}
	if s.state != StateIdle {
		s.mu.Unlock()
		return entity.NewValidationError("session already begun")
	}
	s.state = StateGreeting
	s.mu.Unlock()

	if s.capture != nil {
		if err := s.capture.Acquire(ctx); err != nil {
			s.End(ctx)
			return fmt.Errorf("acquire capture device: %w", err)
		}
		s.mu.Lock()
		s.captureHeld = true
		s.mu.Unlock()
	}

	greeting := fmt.Sprintf(
		"Hi, I'm %s, %s. Happy to talk about your idea, what would you like to ask me?",
		s.persona.Name, s.persona.Role,
	)
	s.recordTurn(entity.TurnRolePersona, greeting)

	ctxzap.Info(ctx, "voice session started",
		zap.String("persona", s.persona.Name),
		zap.String("voice", s.voice),
	)

	s.speak(ctx, greeting, "")

	return s.StartListening(ctx)
}

// StartListening arms the microphone. Calling it while already
// listening or processing is a no-op, so double-triggered UI events
// are harmless.
func (s *Session) StartListening(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case StateEnded:
		s.mu.Unlock()
		return entity.ErrVoiceSessionEnded
	case StateListening, StateProcessing:
		s.mu.Unlock()
		return nil
	case StateIdle:
		s.mu.Unlock()
		return entity.NewValidationError("session not begun")
	}
	s.state = StateListening

	if s.recognizer != nil {
		s.mu.Unlock()
		// The recognizer signals end of utterance itself; no timer.
		return s.recognizer.Start(func(text string) {
			s.HandleUtterance(context.Background(), text)
		})
	}

	var stop chan struct{}
	if s.capture != nil {
		stop = make(chan struct{})
		s.silenceStop = stop
	}
	s.mu.Unlock()

	if s.capture != nil {
		if err := s.capture.Start(); err != nil {
			return fmt.Errorf("start capture: %w", err)
		}
		go s.watchSilence(ctx, stop)
	}

	return nil
}

// watchSilence samples the input level and cuts the utterance after a
// continuous quiet window. Raw-capture path only.
func (s *Session) watchSilence(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(s.cfg.LevelSampleInterval)
	defer ticker.Stop()

	var quiet time.Duration
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if s.capture.Level() >= s.cfg.SilenceThreshold {
				quiet = 0
				continue
			}
			quiet += s.cfg.LevelSampleInterval
			if quiet >= s.cfg.SilenceWindow {
				s.finishCapture(ctx)
				return
			}
		}
	}
}

// finishCapture closes the current recording and hands the audio to
// transcription.
func (s *Session) finishCapture(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return
	}
	s.silenceStop = nil
	s.mu.Unlock()

	audio, err := s.capture.Stop()
	if err != nil {
		ctxzap.Error(ctx, "failed to stop capture", zap.Error(err))
		return
	}

	s.HandleAudio(ctx, audio)
}

// HandleAudio transcribes a finished utterance recording and feeds the
// text through the normal utterance path. A failed transcription asks
// the caller to repeat and goes back to listening.
func (s *Session) HandleAudio(ctx context.Context, audio []byte) {
	if len(audio) == 0 {
		s.rearmCapture(ctx)
		return
	}
	if s.cfg.MaxAudioFrameBytes > 0 && int64(len(audio)) > s.cfg.MaxAudioFrameBytes {
		ctxzap.Warn(ctx, "audio frame over size limit, dropped", zap.Int("size", len(audio)))
		s.rearmCapture(ctx)
		return
	}

	text, err := s.gateway.Transcribe(ctx, audio, "utterance.webm")
	if err != nil {
		ctxzap.Error(ctx, "transcription failed", zap.Error(err))
		s.sayAndListen(ctx, fallback.ClarifyingUtterance, "")
		return
	}

	s.HandleUtterance(ctx, text)
}

// HandleUtterance processes a completed caller utterance. Duplicates
// of the previous accepted utterance, inputs under the minimum length
// and bare filler words are dropped without a round trip. A failed
// persona reply degrades to the offline responder instead of erroring.
func (s *Session) HandleUtterance(ctx context.Context, text string) {
	text = strings.TrimSpace(text)

	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	if s.inFlight || s.state == StateProcessing {
		s.mu.Unlock()
		return
	}
	if s.shouldDropLocked(text) {
		s.mu.Unlock()
		ctxzap.Info(ctx, "utterance dropped", zap.Int("length", len(text)))
		s.rearmCapture(ctx)
		return
	}

	s.lastUtterance = text
	s.inFlight = true
	s.state = StateProcessing
	history := append([]entity.ConversationTurn(nil), s.turns...)
	s.mu.Unlock()

	s.recordTurn(entity.TurnRoleUser, text)

	reply, err := s.gateway.PersonaReply(ctx, &entity.PersonaReplyRequest{
		Idea:                s.idea,
		Persona:             s.persona,
		ConversationHistory: history,
		UserMessage:         text,
	})

	s.mu.Lock()
	s.inFlight = false
	if s.state == StateEnded {
		// The session ended while the reply was in flight.
		s.mu.Unlock()
		return
	}
	s.mu.Unlock()

	if err != nil {
		ctxzap.Error(ctx, "persona reply failed, degrading to offline responder", zap.Error(err))
		s.sayAndListen(ctx, s.responder.PersonaReply(text, s.persona), "")
		return
	}

	s.sayAndListen(ctx, reply.PersonaResponse, reply.PersonaAudioURL)
}

// shouldDropLocked applies the de-dup rules to an utterance.
func (s *Session) shouldDropLocked(text string) bool {
	if len([]rune(text)) < s.cfg.MinUtteranceLen {
		return true
	}

	lower := strings.ToLower(text)
	if lower == strings.ToLower(s.lastUtterance) && s.lastUtterance != "" {
		return true
	}

	if _, ok := fillerWords[strings.Trim(lower, ".!?,")]; ok {
		return true
	}

	return false
}

// rearmCapture restarts the raw-capture microphone after a dropped
// utterance. The listening state never left, so StartListening would
// no-op; this restarts the device and the silence watcher directly.
func (s *Session) rearmCapture(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateListening || s.capture == nil || s.recognizer != nil || s.silenceStop != nil {
		s.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	s.silenceStop = stop
	s.mu.Unlock()

	if err := s.capture.Start(); err != nil {
		ctxzap.Error(ctx, "failed to restart capture", zap.Error(err))
		return
	}
	go s.watchSilence(ctx, stop)
}

// sayAndListen records and speaks a persona line, then re-arms the
// microphone. Listening controls stay off for the whole speaking turn.
func (s *Session) sayAndListen(ctx context.Context, text, audioURL string) {
	s.mu.Lock()
	if s.state == StateEnded {
		s.mu.Unlock()
		return
	}
	s.state = StateSpeaking
	s.mu.Unlock()

	s.recordTurn(entity.TurnRolePersona, text)
	s.speak(ctx, text, audioURL)

	if err := s.StartListening(ctx); err != nil && err != entity.ErrVoiceSessionEnded {
		ctxzap.Error(ctx, "failed to resume listening", zap.Error(err))
	}
}

// speak plays the persona line, preferring a prepared remote asset
// over local synthesis. Playback failures are logged, never fatal.
func (s *Session) speak(ctx context.Context, text, audioURL string) {
	if s.synth == nil {
		return
	}

	if audioURL != "" {
		err := s.synth.PlayRemote(ctx, audioURL)
		if err == nil {
			return
		}
		ctxzap.Warn(ctx, "remote audio playback failed, synthesizing locally", zap.Error(err))
	}

	if err := s.synth.Speak(ctx, text, s.voice); err != nil {
		ctxzap.Error(ctx, "speech synthesis failed", zap.Error(err))
	}
}

// recordTurn appends to the session transcript and forwards to the
// shared conversation bucket when a sink is attached.
func (s *Session) recordTurn(role entity.TurnRole, message string) {
	s.mu.Lock()
	s.turns = append(s.turns, entity.ConversationTurn{Role: role, Message: message})
	s.mu.Unlock()

	if s.sink != nil {
		if err := s.sink.AppendTurn(role, message); err != nil {
			s.logger.Warn("failed to append turn to conversation",
				zap.String("role", string(role)),
				zap.Error(err),
			)
		}
	}
}

// Transcript returns a copy of the turns so far.
func (s *Session) Transcript() []entity.ConversationTurn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]entity.ConversationTurn(nil), s.turns...)
}

// End stops every device and timer and returns the final transcript.
// Reachable from any state; calling it again is a no-op. Replies still
// in flight when End runs are discarded on arrival.
func (s *Session) End(ctx context.Context) []entity.ConversationTurn {
	s.mu.Lock()
	if s.state == StateEnded {
		transcript := append([]entity.ConversationTurn(nil), s.turns...)
		s.mu.Unlock()
		return transcript
	}
	s.state = StateEnded

	if s.silenceStop != nil {
		close(s.silenceStop)
		s.silenceStop = nil
	}
	captureHeld := s.captureHeld
	s.captureHeld = false
	transcript := append([]entity.ConversationTurn(nil), s.turns...)
	s.mu.Unlock()

	if s.recognizer != nil {
		if err := s.recognizer.Stop(); err != nil {
			ctxzap.Warn(ctx, "failed to stop recognizer", zap.Error(err))
		}
	}

	if s.synth != nil {
		s.synth.Cancel()
	}

	if captureHeld {
		if _, err := s.capture.Stop(); err != nil {
			ctxzap.Warn(ctx, "failed to stop capture", zap.Error(err))
		}
		if err := s.capture.Release(); err != nil {
			ctxzap.Warn(ctx, "failed to release capture device", zap.Error(err))
		}
	}

	ctxzap.Info(ctx, "voice session ended",
		zap.String("persona", s.persona.Name),
		zap.Int("turn_count", len(transcript)),
	)

	return transcript
}
