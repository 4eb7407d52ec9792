package formatter

import (
	"fmt"
	"strings"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

// BuildReport renders a validation session as a slide-style text body
// ready for any of the formatters.
func BuildReport(session *entity.ValidationSession) string {
	insights := primaryInsights(session)

	var b strings.Builder

	fmt.Fprintf(&b, "%s - Validation Results\n\n", session.Idea)

	if insights != nil && len(insights.PainPoints) > 0 {
		b.WriteString("Pain Points Discovered\n")
		for _, pain := range insights.PainPoints {
			fmt.Fprintf(&b, "- %s\n", pain)
		}
		b.WriteString("\n")
	}

	if insights != nil && len(insights.KeyInsights) > 0 {
		b.WriteString("Key Insights\n")
		for _, insight := range insights.KeyInsights {
			fmt.Fprintf(&b, "- %s\n", insight)
		}
		b.WriteString("\n")
	}

	if market := session.MarketAnalysis; market != nil {
		if len(market.CompetitorHeatmap) > 0 {
			b.WriteString("Competitor Landscape\n")
			for _, comp := range market.CompetitorHeatmap {
				fmt.Fprintf(&b, "- %s: %s (score %.2f)\n", comp.Competitor, comp.Strength, comp.DifferentiationScore)
			}
			b.WriteString("\n")
		}

		if len(market.Trends) > 0 {
			b.WriteString("Market Trends\n")
			for _, trend := range market.Trends {
				fmt.Fprintf(&b, "- %s\n", trend)
			}
			b.WriteString("\n")
		}
	}

	if insights != nil && len(insights.KeyQuotes) > 0 {
		b.WriteString("Key Customer Quotes\n")
		for _, quote := range insights.KeyQuotes {
			fmt.Fprintf(&b, "> %q\n", quote)
		}
		b.WriteString("\n")
	}

	b.WriteString("Next Steps\n")
	b.WriteString("- Validate findings with real customers\n")
	b.WriteString("- Build MVP focusing on top pain points\n")
	b.WriteString("- Monitor competitive landscape\n")

	return b.String()
}

// BuildEmailTemplate renders an outreach email summarizing the
// discovered insights for the idea.
func BuildEmailTemplate(session *entity.ValidationSession) string {
	insights := primaryInsights(session)

	var b strings.Builder

	fmt.Fprintf(&b, "Subject: Customer Discovery Insights for %s\n\n", session.Idea)
	b.WriteString("Hi [Name],\n\n")
	fmt.Fprintf(&b, "I've been working on %s and discovered some interesting insights through customer interviews:\n\n", session.Idea)

	if insights != nil && len(insights.PainPoints) > 0 {
		b.WriteString("Key Pain Points:\n")
		pains := insights.PainPoints
		if len(pains) > 3 {
			pains = pains[:3]
		}
		for _, pain := range pains {
			fmt.Fprintf(&b, "- %s\n", pain)
		}
		b.WriteString("\n")
	}

	if insights != nil && insights.WillingnessToPay != "" {
		fmt.Fprintf(&b, "Willingness to Pay: %s\n\n", insights.WillingnessToPay)
	}

	b.WriteString("I'd love to get your perspective on these findings. Would you be available for a quick 15-minute call this week to discuss?\n\n")
	b.WriteString("Best regards,\n[Your Name]\n")

	return b.String()
}

// primaryInsights picks the selected persona's insights, falling back
// to any computed set.
func primaryInsights(session *entity.ValidationSession) *entity.Insights {
	if session.Insights == nil {
		return nil
	}

	if session.SelectedPersona != nil {
		if insights, ok := session.Insights[*session.SelectedPersona]; ok {
			return insights
		}
	}

	for _, insights := range session.Insights {
		return insights
	}

	return nil
}
