package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stepone-ai/validation-backend/internal/entity"
	"github.com/stepone-ai/validation-backend/internal/usecase/flow"
	"go.uber.org/zap"
)

type fakeGateway struct{}

func (f *fakeGateway) GeneratePersonas(ctx context.Context, idea, targetSegment string) ([]entity.Persona, error) {
	return []entity.Persona{
		{Name: "Sarah Chen", Role: "Small Business Owner"},
		{Name: "Marcus Rodriguez", Role: "Engineering Manager"},
	}, nil
}

func (f *fakeGateway) PersonaReply(ctx context.Context, req *entity.PersonaReplyRequest) (*entity.PersonaReplyResponse, error) {
	return &entity.PersonaReplyResponse{PersonaResponse: "Tell me more."}, nil
}

func (f *fakeGateway) AnalyzeConversation(ctx context.Context, idea string, conversation []string) (*entity.Insights, error) {
	return &entity.Insights{KeyInsights: []string{"price sensitivity"}}, nil
}

func (f *fakeGateway) AnalyzeMarket(ctx context.Context, idea string) (*entity.MarketAnalysis, error) {
	return &entity.MarketAnalysis{
		CompetitorHeatmap: []entity.CompetitorEntry{{Competitor: "BigCo", Strength: "brand", Weakness: "price", DifferentiationScore: 0.6}},
		Trends:            []string{"remote work"},
	}, nil
}

type fakeStore struct{}

func (f *fakeStore) Save(ctx context.Context, session *entity.ValidationSession) error {
	return nil
}

type fakeCoach struct {
	stats *entity.UsageStats
}

func (f *fakeCoach) Stats(ctx context.Context, userID string) (*entity.UsageStats, error) {
	if userID == "" {
		return nil, entity.ErrMissingUserID
	}
	return f.stats, nil
}

func (f *fakeCoach) GenerateSession(ctx context.Context, userID string) (*entity.CoachingSession, error) {
	return &entity.CoachingSession{ID: "coach-1", UserID: userID, Type: "lesson"}, nil
}

func (f *fakeCoach) ListSessions(ctx context.Context, userID string, limit int) ([]*entity.CoachingSession, error) {
	return []*entity.CoachingSession{{ID: "coach-1", UserID: userID}}, nil
}

func (f *fakeCoach) CompleteSession(ctx context.Context, id string) error {
	if id == "missing" {
		return entity.ErrValidationNotFound
	}
	return nil
}

type fakeHistory struct {
	records []*entity.ValidationRecord
}

func (f *fakeHistory) Get(ctx context.Context, id string) (*entity.ValidationRecord, error) {
	for _, r := range f.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, entity.ErrValidationNotFound
}

func (f *fakeHistory) ListByUser(ctx context.Context, userID string, limit int) ([]*entity.ValidationRecord, error) {
	return f.records, nil
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	gw := &fakeGateway{}
	registry := flow.NewRegistry(time.Minute)
	newController := func(userID string) *flow.Controller {
		return flow.NewController(userID, gw, &fakeStore{}, zap.NewNop())
	}
	coach := &fakeCoach{stats: &entity.UsageStats{TotalValidations: 4, AverageValidationsPerMonth: 0.7}}
	history := &fakeHistory{records: []*entity.ValidationRecord{{ID: "rec-1", UserID: "user-1", Idea: "CRM"}}}

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(registry, newController, coach, history))
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestValidationEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// Start a validation run.
	resp := postJSON(t, srv.URL+"/validations", entity.StartValidationRequest{
		UserID: "user-1",
		Idea:   "CRM for freelancers",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", resp.StatusCode)
	}
	var started entity.StartValidationResponse
	decodeInto(t, resp, &started)
	if started.SessionID == "" || started.Step != entity.FlowStepPersonas {
		t.Fatalf("unexpected start response %+v", started)
	}
	if len(started.Personas) != 2 {
		t.Fatalf("expected 2 personas, got %d", len(started.Personas))
	}

	base := srv.URL + "/validations/" + started.SessionID

	// Select a persona and run the interview.
	resp = postJSON(t, base+"/persona", entity.SelectPersonaRequest{Index: 0})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select persona status = %d, want 200", resp.StatusCode)
	}
	var selected selectPersonaResponse
	decodeInto(t, resp, &selected)
	if selected.Persona.Name != "Sarah Chen" || selected.Step != entity.FlowStepInterview {
		t.Fatalf("unexpected select response %+v", selected)
	}

	resp = postJSON(t, base+"/messages", entity.SendMessageRequest{Message: "How do you track clients today?"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send message status = %d, want 200", resp.StatusCode)
	}
	var sent entity.SendMessageResponse
	decodeInto(t, resp, &sent)
	if len(sent.Turns) != 2 {
		t.Fatalf("expected 2 turns, got %d", len(sent.Turns))
	}

	// Analyze, then market, then results.
	resp = postJSON(t, base+"/analyze", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("analyze status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp = postJSON(t, base+"/market", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("market status = %d, want 200", resp.StatusCode)
	}
	resp.Body.Close()

	resp, err := http.Get(base + "/results")
	if err != nil {
		t.Fatalf("GET results: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d, want 200", resp.StatusCode)
	}
	var results entity.SessionResults
	decodeInto(t, resp, &results)
	if results.MarketAnalysis == nil || len(results.Insights) != 1 {
		t.Fatalf("unexpected results %+v", results)
	}

	// Export the report as markdown.
	resp, err = http.Get(base + "/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("export status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "markdown") {
		t.Errorf("export content type = %q", ct)
	}
	resp.Body.Close()
}

func TestStartValidationRejectsBadInput(t *testing.T) {
	srv := newTestServer(t)

	tests := []struct {
		name string
		body entity.StartValidationRequest
		want int
	}{
		{name: "missing user", body: entity.StartValidationRequest{Idea: "CRM"}, want: http.StatusBadRequest},
		{name: "empty idea", body: entity.StartValidationRequest{UserID: "user-1", Idea: "   "}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := postJSON(t, srv.URL+"/validations", tt.body)
			defer resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/validations/nope")
	if err != nil {
		t.Fatalf("GET state: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestOutOfOrderOperationsConflict(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/validations", entity.StartValidationRequest{UserID: "user-1", Idea: "CRM"})
	var started entity.StartValidationResponse
	decodeInto(t, resp, &started)
	base := srv.URL + "/validations/" + started.SessionID

	// Market analysis before the interview was analyzed.
	resp = postJSON(t, base+"/market", nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("market status = %d, want 409", resp.StatusCode)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/validations", entity.StartValidationRequest{UserID: "user-1", Idea: "CRM"})
	var started entity.StartValidationResponse
	decodeInto(t, resp, &started)

	got, err := http.Get(fmt.Sprintf("%s/validations/%s/export?format=csv", srv.URL, started.SessionID))
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer got.Body.Close()
	if got.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", got.StatusCode)
	}
}

func TestHistoryAndStats(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/validations?user_id=user-1")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	var history entity.HistoryResponse
	decodeInto(t, resp, &history)
	if len(history.Validations) != 1 || history.Validations[0].ID != "rec-1" {
		t.Fatalf("unexpected history %+v", history)
	}

	resp, err = http.Get(srv.URL + "/validations?user_id=")
	if err != nil {
		t.Fatalf("GET history: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("history without user_id = %d, want 400", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/stats?user_id=user-1")
	if err != nil {
		t.Fatalf("GET stats: %v", err)
	}
	var stats entity.UsageStats
	decodeInto(t, resp, &stats)
	if stats.TotalValidations != 4 || stats.AverageValidationsPerMonth != 0.7 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestCoachingEndpoints(t *testing.T) {
	srv := newTestServer(t)

	resp := postJSON(t, srv.URL+"/coaching", map[string]string{"user_id": "user-1"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("generate status = %d, want 201", resp.StatusCode)
	}
	var session entity.CoachingSession
	decodeInto(t, resp, &session)
	if session.ID != "coach-1" {
		t.Fatalf("unexpected session %+v", session)
	}

	resp = postJSON(t, srv.URL+"/coaching/coach-1/complete", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("complete status = %d, want 204", resp.StatusCode)
	}

	resp = postJSON(t, srv.URL+"/coaching/missing/complete", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("complete missing = %d, want 404", resp.StatusCode)
	}
}
