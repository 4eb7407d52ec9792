package flow

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"go.uber.org/zap"
)

// founderSpeaker labels the user's side of a formatted transcript.
const founderSpeaker = "Founder"

// Controller drives one validation run through its steps: input,
// personas, interview, analysis, market, results. Transitions are
// strictly forward and progress only moves through the fixed
// checkpoints. Safe for concurrent use; a second trigger of an
// operation already in flight is rejected, not queued.
type Controller struct {
	mu      sync.Mutex
	session *entity.ValidationSession
	step    entity.FlowStep
	// Per-operation in-flight guards.
	generating bool
	sending    bool
	analyzing  bool
	marketing  bool

	gateway GatewayConnector
	store   ValidationStore
	logger  *zap.Logger
}

func NewController(userID string, gateway GatewayConnector, store ValidationStore, logger *zap.Logger) *Controller {
	now := time.Now().UTC()

	return &Controller{
		session: &entity.ValidationSession{
			ID:            uuid.New().String(),
			UserID:        userID,
			Conversations: make(map[string][]entity.ConversationTurn),
			Insights:      make(map[string]*entity.Insights),
			Status:        entity.ValidationStatusInProgress,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
		step:    entity.FlowStepInput,
		gateway: gateway,
		store:   store,
		logger:  logger,
	}
}

// SessionID returns the id assigned at construction.
func (c *Controller) SessionID() string {
	return c.session.ID
}

// State reports the current step and progress checkpoint.
func (c *Controller) State() entity.FlowStateResponse {
	c.mu.Lock()
	defer c.mu.Unlock()

	return entity.FlowStateResponse{
		SessionID: c.session.ID,
		Step:      c.step,
		Progress:  c.progressLocked(),
	}
}

// progressLocked maps the step to its checkpoint. Progress never
// interpolates between checkpoints.
func (c *Controller) progressLocked() float64 {
	switch c.step {
	case entity.FlowStepInput:
		return entity.ProgressStart
	case entity.FlowStepPersonas, entity.FlowStepInterview:
		return entity.ProgressPersonas
	case entity.FlowStepAnalysis:
		return entity.ProgressAnalysis
	default:
		return entity.ProgressComplete
	}
}

// Start accepts the idea and generates personas. Only valid at the
// input step; a blank idea is rejected before any remote call.
func (c *Controller) Start(ctx context.Context, idea, targetSegment string) ([]entity.Persona, error) {
	idea = strings.TrimSpace(idea)
	if idea == "" {
		return nil, entity.ErrEmptyIdea
	}

	c.mu.Lock()
	if c.step != entity.FlowStepInput {
		c.mu.Unlock()
		return nil, entity.ErrInvalidFlowStep
	}
	if c.generating {
		c.mu.Unlock()
		return nil, entity.ErrOperationInFlight
	}
	c.generating = true
	c.mu.Unlock()

	personas, err := c.gateway.GeneratePersonas(ctx, idea, targetSegment)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.generating = false

	if err != nil {
		return nil, fmt.Errorf("generate personas: %w", err)
	}

	c.session.Idea = idea
	c.session.Personas = personas
	c.session.UpdatedAt = time.Now().UTC()
	c.step = entity.FlowStepPersonas

	ctxzap.Info(ctx, "validation started",
		zap.String("session_id", c.session.ID),
		zap.Int("persona_count", len(personas)),
	)

	return personas, nil
}

// SelectPersona picks an interview target by index. Re-selection is
// allowed up to analysis; each persona keeps its own conversation
// bucket so switching back resumes where it left off.
func (c *Controller) SelectPersona(ctx context.Context, index int) (*entity.Persona, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch c.step {
	case entity.FlowStepPersonas, entity.FlowStepInterview, entity.FlowStepAnalysis:
	default:
		return nil, entity.ErrInvalidFlowStep
	}

	if index < 0 || index >= len(c.session.Personas) {
		return nil, entity.ErrInvalidPersonaIndex
	}

	persona := c.session.Personas[index]
	c.session.SelectedPersona = &persona.Name
	if _, ok := c.session.Conversations[persona.Name]; !ok {
		c.session.Conversations[persona.Name] = []entity.ConversationTurn{}
	}
	c.session.UpdatedAt = time.Now().UTC()
	c.step = entity.FlowStepInterview

	ctxzap.Info(ctx, "persona selected",
		zap.String("session_id", c.session.ID),
		zap.String("persona", persona.Name),
	)

	return &persona, nil
}

// SendMessage appends the founder's utterance and fetches the persona
// reply. The local append happens before the remote call, so a failed
// round trip still leaves the user's words in the transcript.
func (c *Controller) SendMessage(ctx context.Context, message string) (*entity.SendMessageResponse, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, entity.ErrEmptyUtterance
	}

	c.mu.Lock()
	if c.step != entity.FlowStepInterview {
		c.mu.Unlock()
		return nil, entity.ErrInvalidFlowStep
	}
	if c.session.SelectedPersona == nil {
		c.mu.Unlock()
		return nil, entity.ErrInterviewNotStarted
	}
	if c.sending {
		c.mu.Unlock()
		return nil, entity.ErrOperationInFlight
	}
	c.sending = true

	personaName := *c.session.SelectedPersona
	persona, _ := c.session.PersonaByName(personaName)

	history := c.session.Conversations[personaName]
	c.session.Conversations[personaName] = append(history, entity.ConversationTurn{
		Role:    entity.TurnRoleUser,
		Message: message,
	})
	c.session.UpdatedAt = time.Now().UTC()

	req := &entity.PersonaReplyRequest{
		Idea:                c.session.Idea,
		Persona:             *persona,
		ConversationHistory: append([]entity.ConversationTurn(nil), history...),
		UserMessage:         message,
	}
	c.mu.Unlock()

	reply, err := c.gateway.PersonaReply(ctx, req)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sending = false

	if err != nil {
		return nil, fmt.Errorf("persona reply: %w", err)
	}

	c.session.Conversations[personaName] = append(c.session.Conversations[personaName], entity.ConversationTurn{
		Role:    entity.TurnRolePersona,
		Message: reply.PersonaResponse,
	})
	c.session.UpdatedAt = time.Now().UTC()

	return &entity.SendMessageResponse{
		Turns:              append([]entity.ConversationTurn(nil), c.session.Conversations[personaName]...),
		SuggestedQuestions: reply.SuggestedQuestions,
	}, nil
}

// AppendTurn records an utterance produced outside the text path. The
// voice interview appends into the same per-persona bucket so a mixed
// text and voice interview reads as one transcript.
func (c *Controller) AppendTurn(role entity.TurnRole, message string) error {
	if err := role.Validate(); err != nil {
		return entity.NewValidationError("%v", err)
	}

	message = strings.TrimSpace(message)
	if message == "" {
		return entity.ErrEmptyUtterance
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != entity.FlowStepInterview {
		return entity.ErrInvalidFlowStep
	}
	if c.session.SelectedPersona == nil {
		return entity.ErrInterviewNotStarted
	}

	personaName := *c.session.SelectedPersona
	c.session.Conversations[personaName] = append(c.session.Conversations[personaName], entity.ConversationTurn{
		Role:    role,
		Message: message,
	})
	c.session.UpdatedAt = time.Now().UTC()

	return nil
}

// AnalyzeInterview runs the coaching analysis over the selected
// persona's transcript. An empty conversation short-circuits locally.
// The result is saved; a save failure is logged and never discards the
// computed insights.
func (c *Controller) AnalyzeInterview(ctx context.Context) (*entity.Insights, error) {
	c.mu.Lock()
	if c.step != entity.FlowStepInterview && c.step != entity.FlowStepAnalysis {
		c.mu.Unlock()
		return nil, entity.ErrInvalidFlowStep
	}
	if c.session.SelectedPersona == nil {
		c.mu.Unlock()
		return nil, entity.ErrInterviewNotStarted
	}
	if c.analyzing {
		c.mu.Unlock()
		return nil, entity.ErrOperationInFlight
	}

	personaName := *c.session.SelectedPersona
	turns := c.session.Conversations[personaName]
	if len(turns) == 0 {
		c.mu.Unlock()
		return nil, entity.ErrEmptyConversation
	}

	c.analyzing = true
	idea := c.session.Idea
	formatted := formatTranscript(personaName, turns)
	c.mu.Unlock()

	insights, err := c.gateway.AnalyzeConversation(ctx, idea, formatted)

	c.mu.Lock()
	c.analyzing = false

	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("analyze conversation: %w", err)
	}

	c.session.Insights[personaName] = insights
	c.session.UpdatedAt = time.Now().UTC()
	c.step = entity.FlowStepAnalysis
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	ctxzap.Info(ctx, "interview analyzed",
		zap.String("session_id", snapshot.ID),
		zap.String("persona", personaName),
		zap.Int("bias_count", len(insights.QuestionBiases)),
	)

	c.persist(ctx, snapshot)

	return insights, nil
}

// RunMarketAnalysis derives the market view for the idea and completes
// the validation. The follow-up save extends the analysis-time record.
func (c *Controller) RunMarketAnalysis(ctx context.Context) (*entity.MarketAnalysis, error) {
	c.mu.Lock()
	if c.step != entity.FlowStepAnalysis {
		c.mu.Unlock()
		return nil, entity.ErrInvalidFlowStep
	}
	if c.marketing {
		c.mu.Unlock()
		return nil, entity.ErrOperationInFlight
	}
	c.marketing = true
	idea := c.session.Idea
	c.mu.Unlock()

	analysis, err := c.gateway.AnalyzeMarket(ctx, idea)

	c.mu.Lock()
	c.marketing = false

	if err != nil {
		c.mu.Unlock()
		return nil, fmt.Errorf("analyze market: %w", err)
	}

	c.session.MarketAnalysis = analysis
	c.session.Status = entity.ValidationStatusCompleted
	c.session.UpdatedAt = time.Now().UTC()
	c.step = entity.FlowStepMarket
	snapshot := c.snapshotLocked()
	c.mu.Unlock()

	ctxzap.Info(ctx, "market analyzed",
		zap.String("session_id", snapshot.ID),
		zap.Int("competitor_count", len(analysis.CompetitorHeatmap)),
	)

	c.persist(ctx, snapshot)

	return analysis, nil
}

// Results assembles the final view. Entering it from the market step
// moves the flow to its terminal results step.
func (c *Controller) Results() (*entity.SessionResults, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.step != entity.FlowStepMarket && c.step != entity.FlowStepResults {
		return nil, entity.ErrInvalidFlowStep
	}
	c.step = entity.FlowStepResults

	insights := make(map[string]*entity.Insights, len(c.session.Insights))
	for name, ins := range c.session.Insights {
		insights[name] = ins
	}

	return &entity.SessionResults{
		Idea:           c.session.Idea,
		Insights:       insights,
		MarketAnalysis: c.session.MarketAnalysis,
	}, nil
}

// AllInsights returns the insights computed so far, keyed by persona.
func (c *Controller) AllInsights() map[string]*entity.Insights {
	c.mu.Lock()
	defer c.mu.Unlock()

	insights := make(map[string]*entity.Insights, len(c.session.Insights))
	for name, ins := range c.session.Insights {
		insights[name] = ins
	}

	return insights
}

// Session returns a deep-enough copy of the session for read-only
// consumers (export, persistence).
func (c *Controller) Session() *entity.ValidationSession {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() *entity.ValidationSession {
	snapshot := *c.session

	snapshot.Personas = append([]entity.Persona(nil), c.session.Personas...)

	snapshot.Conversations = make(map[string][]entity.ConversationTurn, len(c.session.Conversations))
	for name, turns := range c.session.Conversations {
		snapshot.Conversations[name] = append([]entity.ConversationTurn(nil), turns...)
	}

	snapshot.Insights = make(map[string]*entity.Insights, len(c.session.Insights))
	for name, ins := range c.session.Insights {
		snapshot.Insights[name] = ins
	}

	return &snapshot
}

// persist saves outside the lock. Failures are reported in the log
// only; in-memory results stand regardless.
func (c *Controller) persist(ctx context.Context, snapshot *entity.ValidationSession) {
	if err := c.store.Save(ctx, snapshot); err != nil {
		ctxzap.Error(ctx, "failed to persist validation session",
			zap.String("session_id", snapshot.ID),
			zap.Error(err),
		)
	}
}

// formatTranscript renders turns as "<Speaker>: <message>" lines with
// the user labeled Founder.
func formatTranscript(personaName string, turns []entity.ConversationTurn) []string {
	formatted := make([]string, 0, len(turns))
	for _, turn := range turns {
		speaker := personaName
		if turn.Role == entity.TurnRoleUser {
			speaker = founderSpeaker
		}
		formatted = append(formatted, fmt.Sprintf("%s: %s", speaker, turn.Message))
	}

	return formatted
}
