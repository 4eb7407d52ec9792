package gateway

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/stepone-ai/validation-backend/internal/config"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/integration/common"
	pkghttp "github.com/stepone-ai/validation-backend/pkg/http"
	"go.uber.org/zap"
)

// Connector wraps the AI gateway coordination service. Every downstream
// failure is normalized into entity.RemoteCallError at this boundary.
type Connector struct {
	config    config.GatewayConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
}

func NewConnector(
	cfg config.GatewayConnectorConfig,
	logger *zap.Logger,
) *Connector {
	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
	}
}

// GeneratePersonas generates 3-5 customer personas for an idea.
func (c *Connector) GeneratePersonas(ctx context.Context, idea, targetSegment string) ([]entity.Persona, error) {
	ctxzap.Info(ctx, "generating personas via gateway")

	req := &entity.GeneratePersonasRequest{Idea: idea, TargetSegment: targetSegment}

	var resp entity.GeneratePersonasResponse
	if err := c.do(ctx, c.config.PersonasEndpoint, req, &resp); err != nil {
		return nil, err
	}

	if err := validatePersonas(resp.Personas); err != nil {
		return nil, &entity.RemoteCallError{Status: http.StatusBadGateway, Message: err.Error()}
	}

	ctxzap.Info(ctx, "personas generated successfully", zap.Int("persona_count", len(resp.Personas)))

	return resp.Personas, nil
}

// PersonaReply asks the gateway for the persona's next interview turn.
// The full prior turn history travels with every call.
func (c *Connector) PersonaReply(ctx context.Context, req *entity.PersonaReplyRequest) (
	*entity.PersonaReplyResponse, error,
) {
	ctxzap.Info(ctx, "requesting persona reply via gateway",
		zap.String("persona", req.Persona.Name),
		zap.Int("history_len", len(req.ConversationHistory)),
	)

	var resp entity.PersonaReplyResponse
	if err := c.do(ctx, c.config.InterviewEndpoint, req, &resp); err != nil {
		return nil, err
	}

	if resp.PersonaResponse == "" {
		return nil, &entity.RemoteCallError{
			Status:  http.StatusBadGateway,
			Message: "invalid persona reply: empty persona_response field",
		}
	}

	ctxzap.Info(ctx, "persona reply received", zap.Int("response_length", len(resp.PersonaResponse)))

	return &resp, nil
}

// AnalyzeConversation runs the coaching analysis over a formatted
// transcript and returns the extracted insights.
func (c *Connector) AnalyzeConversation(ctx context.Context, idea string, conversation []string) (
	*entity.Insights, error,
) {
	ctxzap.Info(ctx, "analyzing conversation via gateway", zap.Int("turn_count", len(conversation)))

	req := &entity.AnalyzeConversationRequest{Idea: idea, Conversation: conversation}

	var resp entity.Insights
	if err := c.do(ctx, c.config.CoachEndpoint, req, &resp); err != nil {
		return nil, err
	}

	if resp.KeyInsights == nil {
		return nil, &entity.RemoteCallError{
			Status:  http.StatusBadGateway,
			Message: "invalid analysis response: missing key_insights field",
		}
	}

	ctxzap.Info(ctx, "conversation analyzed successfully",
		zap.Int("insight_count", len(resp.KeyInsights)),
		zap.Int("bias_count", len(resp.QuestionBiases)),
	)

	return &resp, nil
}

// AnalyzeMarket runs market research for an idea, independent of any
// persona or interview.
func (c *Connector) AnalyzeMarket(ctx context.Context, idea string) (*entity.MarketAnalysis, error) {
	ctxzap.Info(ctx, "analyzing market via gateway")

	req := &entity.AnalyzeMarketRequest{Idea: idea}

	var resp entity.MarketAnalysis
	if err := c.do(ctx, c.config.MarketEndpoint, req, &resp); err != nil {
		return nil, err
	}

	if len(resp.CompetitorHeatmap) == 0 && len(resp.Trends) == 0 {
		return nil, &entity.RemoteCallError{
			Status:  http.StatusBadGateway,
			Message: "invalid market response: empty heatmap and trends",
		}
	}
	for _, entry := range resp.CompetitorHeatmap {
		if entry.DifferentiationScore < 0 || entry.DifferentiationScore > 1 {
			return nil, &entity.RemoteCallError{
				Status:  http.StatusBadGateway,
				Message: fmt.Sprintf("invalid market response: differentiation_score %f out of range", entry.DifferentiationScore),
			}
		}
	}

	ctxzap.Info(ctx, "market analyzed successfully",
		zap.Int("competitor_count", len(resp.CompetitorHeatmap)),
		zap.Int("trend_count", len(resp.Trends)),
	)

	return &resp, nil
}

// Transcribe sends captured audio for speech-to-text.
func (c *Connector) Transcribe(ctx context.Context, audioData []byte, filename string) (string, error) {
	if len(audioData) == 0 {
		return "", entity.NewValidationError("empty audio data provided")
	}

	ctxzap.Info(ctx, "transcribing audio via gateway",
		zap.String("filename", filename),
		zap.Int("size", len(audioData)),
	)

	prepareBody := func(writer *multipart.Writer) error {
		part, err := writer.CreateFormFile("file", filename)
		if err != nil {
			return fmt.Errorf("create form file: %w", err)
		}

		if _, err := part.Write(audioData); err != nil {
			return fmt.Errorf("write file content: %w", err)
		}

		return nil
	}

	var resp entity.TranscribeResponse
	err := c.connector.DoMultipartRequest(ctx, http.MethodPost, c.config.TranscribeEndpoint, prepareBody, &resp)
	if err != nil {
		return "", normalizeErr(err)
	}

	if resp.Text == "" {
		return "", &entity.RemoteCallError{Status: http.StatusBadGateway, Message: "transcription is empty"}
	}

	ctxzap.Info(ctx, "audio transcribed successfully", zap.Int("transcription_length", len(resp.Text)))

	return resp.Text, nil
}

// Synthesize renders persona speech. Returns raw audio bytes.
func (c *Connector) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	ctxzap.Info(ctx, "synthesizing speech via gateway",
		zap.String("voice", voice),
		zap.Int("text_length", len(text)),
	)

	req := &entity.SynthesizeRequest{Input: text, Voice: voice}

	audio, err := c.connector.DoRawRequest(ctx, http.MethodPost, c.config.SynthesizeEndpoint, req)
	if err != nil {
		return nil, normalizeErr(err)
	}

	ctxzap.Info(ctx, "speech synthesized", zap.Int("audio_bytes", len(audio)))

	return audio, nil
}

// HealthCheck probes the gateway.
func (c *Connector) HealthCheck(ctx context.Context) error {
	if err := c.connector.DoRequest(ctx, http.MethodGet, c.config.HealthEndpoint, nil, nil); err != nil {
		return normalizeErr(err)
	}
	return nil
}

// do runs a JSON request with retries on transient failures.
func (c *Connector) do(ctx context.Context, endpoint string, reqBody, respBody any) error {
	opts := append(
		c.config.Retry.ToRetryOptions(),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.RetryIf(entity.IsRetryable),
	)

	return retry.Do(func() error {
		if err := c.connector.DoRequest(ctx, http.MethodPost, endpoint, reqBody, respBody); err != nil {
			return normalizeErr(err)
		}
		return nil
	}, opts...)
}

// normalizeErr translates pkg/http errors into the domain taxonomy.
func normalizeErr(err error) error {
	var httpErr *pkghttp.HTTPError
	if errors.As(err, &httpErr) {
		return &entity.RemoteCallError{Status: httpErr.StatusCode, Message: httpErr.Message}
	}

	var netErr *pkghttp.NetworkError
	if errors.As(err, &netErr) {
		return &entity.RemoteCallError{Message: netErr.Error()}
	}

	return &entity.RemoteCallError{Message: err.Error()}
}

func validatePersonas(personas []entity.Persona) error {
	if len(personas) == 0 {
		return fmt.Errorf("invalid persona response: empty persona list")
	}

	seen := make(map[string]struct{}, len(personas))
	for _, p := range personas {
		if p.Name == "" || p.Role == "" {
			return fmt.Errorf("invalid persona response: persona missing name or role")
		}
		if _, ok := seen[p.Name]; ok {
			return fmt.Errorf("invalid persona response: duplicate persona name %q", p.Name)
		}
		seen[p.Name] = struct{}{}
	}

	return nil
}

var femaleNames = []string{"sarah", "emma", "maria", "jennifer", "lisa", "anna", "kate", "amy", "rachel", "jessica"}
var maleNames = []string{"marcus", "john", "mike", "david", "alex", "chris", "james", "robert", "michael", "daniel"}

// VoiceForPersona maps a persona to a TTS voice by name and
// communication style.
func VoiceForPersona(persona entity.Persona) string {
	name := strings.ToLower(persona.Name)
	style := strings.ToLower(persona.CommunicationStyle)

	for _, n := range femaleNames {
		if strings.Contains(name, n) {
			switch {
			case strings.Contains(style, "professional") || strings.Contains(style, "formal"):
				return "shimmer"
			case strings.Contains(style, "creative") || strings.Contains(style, "friendly"):
				return "nova"
			default:
				return "alloy"
			}
		}
	}

	for _, n := range maleNames {
		if strings.Contains(name, n) {
			switch {
			case strings.Contains(style, "technical") || strings.Contains(style, "analytical"):
				return "echo"
			case strings.Contains(style, "casual") || strings.Contains(style, "friendly"):
				return "fable"
			default:
				return "onyx"
			}
		}
	}

	return "nova"
}
