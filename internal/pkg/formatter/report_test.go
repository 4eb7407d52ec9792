package formatter

import (
	"strings"
	"testing"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

func sampleSession() *entity.ValidationSession {
	selected := "Sarah Chen"
	return &entity.ValidationSession{
		Idea:            "CRM for freelancers",
		SelectedPersona: &selected,
		Insights: map[string]*entity.Insights{
			"Sarah Chen": {
				KeyInsights:      []string{"Invoicing is the top pain"},
				PainPoints:       []string{"Manual invoicing", "Lost follow-ups", "Tax season chaos", "Tool overload"},
				KeyQuotes:        []string{"I spend Sundays on paperwork"},
				WillingnessToPay: "$20-30/month",
			},
		},
		MarketAnalysis: &entity.MarketAnalysis{
			CompetitorHeatmap: []entity.CompetitorEntry{
				{Competitor: "Acme CRM", Strength: "brand", DifferentiationScore: 0.4},
			},
			Trends: []string{"Rise of solo businesses"},
		},
	}
}

func TestBuildReport(t *testing.T) {
	report := BuildReport(sampleSession())

	for _, want := range []string{
		"CRM for freelancers - Validation Results",
		"Manual invoicing",
		"Acme CRM: brand (score 0.40)",
		"Rise of solo businesses",
		"I spend Sundays on paperwork",
		"Next Steps",
	} {
		if !strings.Contains(report, want) {
			t.Errorf("report missing %q:\n%s", want, report)
		}
	}
}

func TestBuildEmailTemplate(t *testing.T) {
	email := BuildEmailTemplate(sampleSession())

	if !strings.Contains(email, "Subject: Customer Discovery Insights for CRM for freelancers") {
		t.Errorf("email missing subject:\n%s", email)
	}
	if !strings.Contains(email, "$20-30/month") {
		t.Errorf("email missing willingness to pay:\n%s", email)
	}
	// Only the top three pain points make the email.
	if strings.Contains(email, "Tool overload") {
		t.Errorf("email should cap pain points at three:\n%s", email)
	}
}

func TestFormatterFactory(t *testing.T) {
	factory := NewFactory()

	for _, format := range []entity.ResultFormat{entity.FormatMarkdown, entity.FormatDOCX, entity.FormatPDF} {
		f, err := factory.Create(format)
		if err != nil {
			t.Fatalf("Create(%s) error = %v", format, err)
		}
		if f.ContentType() == "" || f.FileExtension() == "" {
			t.Errorf("formatter for %s has empty metadata", format)
		}
	}

	if _, err := factory.Create(entity.ResultFormat("csv")); err == nil {
		t.Fatal("Create(csv) should fail")
	}
}
