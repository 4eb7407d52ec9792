package voice

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stepone-ai/validation-backend/internal/config"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"go.uber.org/zap"
)

type fakeVoiceGateway struct {
	mu         sync.Mutex
	replyCalls int
	reply      string
	replyErr   error
	transcript string

	// When set, PersonaReply blocks until released.
	entered  chan struct{}
	released chan struct{}
	// Signals each completed PersonaReply call.
	called chan struct{}
}

func (f *fakeVoiceGateway) PersonaReply(ctx context.Context, req *entity.PersonaReplyRequest) (*entity.PersonaReplyResponse, error) {
	f.mu.Lock()
	f.replyCalls++
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.released
	}
	if f.called != nil {
		defer func() { f.called <- struct{}{} }()
	}
	if f.replyErr != nil {
		return nil, f.replyErr
	}
	return &entity.PersonaReplyResponse{PersonaResponse: f.reply}, nil
}

func (f *fakeVoiceGateway) Transcribe(ctx context.Context, audioData []byte, filename string) (string, error) {
	return f.transcript, nil
}

func (f *fakeVoiceGateway) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.replyCalls
}

type fakeCapture struct {
	mu       sync.Mutex
	acquired bool
	started  bool
	stopped  bool
	released bool
	level    float64
	audio    []byte
}

func (f *fakeCapture) Acquire(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.acquired = true
	return nil
}

func (f *fakeCapture) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = true
	return nil
}

func (f *fakeCapture) Stop() ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return f.audio, nil
}

func (f *fakeCapture) Release() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = true
	return nil
}

func (f *fakeCapture) Level() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.level
}

type fakeRecognizer struct {
	mu      sync.Mutex
	started int
	stopped bool
}

func (f *fakeRecognizer) Start(onUtterance func(string)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started++
	return nil
}

func (f *fakeRecognizer) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return nil
}

type fakeSynth struct {
	mu        sync.Mutex
	spoken    []string
	remote    []string
	cancelled bool
}

func (f *fakeSynth) PlayRemote(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.remote = append(f.remote, url)
	return nil
}

func (f *fakeSynth) Speak(ctx context.Context, text, voice string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.spoken = append(f.spoken, text)
	return nil
}

func (f *fakeSynth) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = true
}

type fakeSink struct {
	mu    sync.Mutex
	turns []entity.ConversationTurn
}

func (f *fakeSink) AppendTurn(role entity.TurnRole, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.turns = append(f.turns, entity.ConversationTurn{Role: role, Message: message})
	return nil
}

func testVoiceConfig() config.VoiceConfig {
	return config.VoiceConfig{
		SilenceThreshold:    0.02,
		SilenceWindow:       4 * time.Second,
		LevelSampleInterval: 250 * time.Millisecond,
		MinUtteranceLen:     3,
	}
}

func testOptions(gateway GatewayConnector) Options {
	return Options{
		Idea:    "AI bookkeeping for freelancers",
		Persona: entity.Persona{Name: "Sarah Chen", Role: "Small Business Owner"},
		Voice:   "shimmer",
		Config:  testVoiceConfig(),
		Gateway: gateway,
		Logger:  zap.NewNop(),
	}
}

func TestSessionBegin(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeVoiceGateway{reply: "Sure."}
	recognizer := &fakeRecognizer{}
	synth := &fakeSynth{}

	opts := testOptions(gateway)
	opts.Recognizer = recognizer
	opts.Synthesizer = synth
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	if got := s.State(); got != StateListening {
		t.Fatalf("state after Begin = %s, want %s", got, StateListening)
	}

	transcript := s.Transcript()
	if len(transcript) != 1 || transcript[0].Role != entity.TurnRolePersona {
		t.Fatalf("transcript after Begin = %+v", transcript)
	}
	if !strings.Contains(transcript[0].Message, "Sarah Chen") {
		t.Errorf("greeting %q does not name the persona", transcript[0].Message)
	}
	if len(synth.spoken) != 1 {
		t.Errorf("greeting was not spoken, spoken = %v", synth.spoken)
	}

	if err := s.Begin(ctx); err == nil {
		t.Fatal("second Begin() should fail")
	}
}

func TestSessionStartListeningIdempotent(t *testing.T) {
	ctx := context.Background()
	recognizer := &fakeRecognizer{}

	opts := testOptions(&fakeVoiceGateway{reply: "Sure."})
	opts.Recognizer = recognizer
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	startsAfterBegin := recognizer.started

	if err := s.StartListening(ctx); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}
	if err := s.StartListening(ctx); err != nil {
		t.Fatalf("StartListening() error = %v", err)
	}

	if recognizer.started != startsAfterBegin {
		t.Fatalf("re-entrant StartListening restarted the recognizer: %d -> %d",
			startsAfterBegin, recognizer.started)
	}
}

func TestSessionUtteranceDedup(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		utterances []string
		wantCalls  int
	}{
		{"identical repeat dropped", []string{"tell me more", "tell me more"}, 1},
		{"case-insensitive repeat dropped", []string{"tell me more", "Tell Me More"}, 1},
		{"below minimum length dropped", []string{"hm"}, 0},
		{"filler dropped", []string{"okay.", "Hmm"}, 0},
		{"distinct utterances both sent", []string{"first question", "second question"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := &fakeVoiceGateway{reply: "Sure."}
			opts := testOptions(gateway)
			opts.Recognizer = &fakeRecognizer{}
			s := NewSession(opts)

			if err := s.Begin(ctx); err != nil {
				t.Fatalf("Begin() error = %v", err)
			}
			for _, u := range tt.utterances {
				s.HandleUtterance(ctx, u)
			}

			if got := gateway.calls(); got != tt.wantCalls {
				t.Fatalf("gateway calls = %d, want %d", got, tt.wantCalls)
			}
		})
	}
}

func TestSessionDegradedReply(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeVoiceGateway{
		replyErr: &entity.RemoteCallError{Message: "connection refused"},
	}
	synth := &fakeSynth{}

	opts := testOptions(gateway)
	opts.Recognizer = &fakeRecognizer{}
	opts.Synthesizer = synth
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	s.HandleUtterance(ctx, "what is your biggest pain point?")

	if got := s.State(); got != StateListening {
		t.Fatalf("state after degraded reply = %s, want %s", got, StateListening)
	}

	transcript := s.Transcript()
	// Greeting, user utterance, degraded persona reply.
	if len(transcript) != 3 {
		t.Fatalf("transcript = %+v", transcript)
	}
	last := transcript[len(transcript)-1]
	if last.Role != entity.TurnRolePersona || last.Message == "" {
		t.Fatalf("degraded reply turn = %+v", last)
	}
}

func TestSessionPrefersRemoteAudio(t *testing.T) {
	ctx := context.Background()
	synth := &fakeSynth{}

	opts := testOptions(&fakeVoiceGateway{reply: "Sure."})
	opts.Recognizer = &fakeRecognizer{}
	opts.Synthesizer = synth
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	s.speak(ctx, "Listen to this.", "https://cdn.example.com/audio/1.mp3")

	if len(synth.remote) != 1 {
		t.Fatalf("remote playback calls = %v", synth.remote)
	}
	// Greeting only; the remote asset replaced local synthesis.
	if len(synth.spoken) != 1 {
		t.Fatalf("local synthesis calls = %v", synth.spoken)
	}
}

func TestSessionEnd(t *testing.T) {
	ctx := context.Background()
	capture := &fakeCapture{}
	recognizer := &fakeRecognizer{}
	synth := &fakeSynth{}

	opts := testOptions(&fakeVoiceGateway{reply: "Sure."})
	opts.Capture = capture
	opts.Recognizer = recognizer
	opts.Synthesizer = synth
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	s.HandleUtterance(ctx, "thanks for your time")

	transcript := s.End(ctx)
	if len(transcript) != 3 {
		t.Fatalf("final transcript = %+v", transcript)
	}
	if got := s.State(); got != StateEnded {
		t.Fatalf("state after End = %s", got)
	}

	if !capture.stopped || !capture.released {
		t.Fatalf("capture not released: %+v", capture)
	}
	if !recognizer.stopped {
		t.Fatal("recognizer not stopped")
	}
	if !synth.cancelled {
		t.Fatal("synthesis not cancelled")
	}

	// End is idempotent and later input is ignored.
	if again := s.End(ctx); len(again) != len(transcript) {
		t.Fatalf("second End() transcript = %+v", again)
	}
	s.HandleUtterance(ctx, "one more question")
	if got := s.Transcript(); len(got) != 3 {
		t.Fatalf("transcript grew after End: %+v", got)
	}
}

func TestSessionDiscardsReplyAfterEnd(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeVoiceGateway{
		reply:    "Too late.",
		entered:  make(chan struct{}),
		released: make(chan struct{}),
		called:   make(chan struct{}, 1),
	}

	opts := testOptions(gateway)
	opts.Recognizer = &fakeRecognizer{}
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		s.HandleUtterance(ctx, "a question in flight")
		close(done)
	}()

	<-gateway.entered
	s.End(ctx)
	close(gateway.released)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("in-flight utterance never returned")
	}

	transcript := s.Transcript()
	for _, turn := range transcript {
		if turn.Message == "Too late." {
			t.Fatal("reply arriving after End was recorded")
		}
	}
}

func TestSessionSilenceCutoff(t *testing.T) {
	ctx := context.Background()
	gateway := &fakeVoiceGateway{
		reply:      "Sure.",
		transcript: "a spoken question",
		called:     make(chan struct{}, 1),
	}
	capture := &fakeCapture{level: 0.0, audio: []byte("pcm")}

	opts := testOptions(gateway)
	opts.Capture = capture
	opts.Config.SilenceWindow = 40 * time.Millisecond
	opts.Config.LevelSampleInterval = 10 * time.Millisecond
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}

	select {
	case <-gateway.called:
	case <-time.After(2 * time.Second):
		t.Fatal("silence cutoff never triggered a persona reply")
	}

	if !capture.stopped {
		t.Fatal("capture was not stopped by the silence cutoff")
	}
	s.End(ctx)
}

func TestSessionForwardsTurnsToSink(t *testing.T) {
	ctx := context.Background()
	sink := &fakeSink{}

	opts := testOptions(&fakeVoiceGateway{reply: "Sure."})
	opts.Recognizer = &fakeRecognizer{}
	opts.Sink = sink
	s := NewSession(opts)

	if err := s.Begin(ctx); err != nil {
		t.Fatalf("Begin() error = %v", err)
	}
	s.HandleUtterance(ctx, "how do you handle invoices today?")

	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.turns) != 3 {
		t.Fatalf("sink turns = %+v", sink.turns)
	}
	if sink.turns[1].Role != entity.TurnRoleUser {
		t.Fatalf("sink turn order = %+v", sink.turns)
	}
}
