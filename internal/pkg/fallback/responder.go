package fallback

import (
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/stepone-ai/validation-backend/internal/entity"
)

// ClarifyingUtterance is the scripted degraded-mode reply the voice
// session plays when the persona-response call fails mid-interview.
const ClarifyingUtterance = "I didn't catch that, could you repeat?"

// Responder produces context-free persona replies when every remote
// provider is unavailable. One strategy object instead of canned string
// arrays duplicated across call sites; replies are chosen
// deterministically from the matched category bucket.
type Responder struct{}

func NewResponder() *Responder {
	return &Responder{}
}

type category struct {
	match     func(string) bool
	responses func(persona entity.Persona) []string
}

func containsAny(s string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(s, p) {
			return true
		}
	}
	return false
}

var categories = []category{
	{
		// Leading questions get pushback, not agreement.
		match: func(s string) bool {
			return containsAny(s, "don't you think", "wouldn't you", "isn't it true", "surely you")
		},
		responses: func(entity.Persona) []string {
			return []string{
				"I mean, I'm not sure about that...",
				"Not necessarily, no.",
				"I guess it depends.",
				"That's not really how I see it.",
				"I'd need to know more specifics.",
			}
		},
	},
	{
		match: func(s string) bool {
			if len(strings.Fields(s)) >= 8 {
				return false
			}
			return containsAny(s, "what do you think", "how do you feel", "tell me about")
		},
		responses: func(entity.Persona) []string {
			return []string{
				"About what specifically?",
				"I mean, it's fine I guess.",
				"Can you be more specific?",
				"It depends on what you mean.",
				"I don't really have strong opinions on that.",
			}
		},
	},
	{
		match: func(s string) bool {
			return containsAny(s, "hello", "hi", "hey", "start")
		},
		responses: func(p entity.Persona) []string {
			return []string{
				fmt.Sprintf("Hi. I'm %s. What's this about?", p.Name),
				"Hey there. So what did you want to discuss?",
				"Hi. I don't have too much time, but what's up?",
				"Hello. You mentioned something about a startup idea?",
			}
		},
	},
	{
		match: func(s string) bool {
			return containsAny(s, "problem", "challenge", "pain", "frustration")
		},
		responses: func(p entity.Persona) []string {
			if len(p.PainPoints) > 0 {
				pain := p.PainPoints[0]
				return []string{
					fmt.Sprintf("Yeah, I deal with %s sometimes. Why?", pain),
					fmt.Sprintf("I mean, %s can be annoying. What about it?", pain),
					fmt.Sprintf("Sure, %s is a thing. Are you trying to solve that or something?", pain),
					fmt.Sprintf("I guess %s comes up. What's your angle?", pain),
				}
			}
			return []string{
				"I mean, there are always challenges. What specifically?",
				"Sure, work has its problems. What are you getting at?",
				"I guess there are some pain points. Why do you ask?",
				"Yeah, things could be better. What's this about?",
			}
		},
	},
	{
		match: func(s string) bool {
			return containsAny(s, "solution", "product", "feature", "app", "platform")
		},
		responses: func(entity.Persona) []string {
			return []string{
				"Okay... what does it do exactly?",
				"I've heard that before. How is this different?",
				"Sounds like a lot of other things out there.",
				"What makes you think people need this?",
				"I mean, maybe. Depends on how it works.",
			}
		},
	},
	{
		match: func(s string) bool {
			return containsAny(s, "price", "cost", "pay", "money", "expensive")
		},
		responses: func(entity.Persona) []string {
			return []string{
				"Depends what I'm getting for it.",
				"I'm not looking to spend money on random stuff.",
				"Price matters, but so does value. What's the value?",
				"I'd need to see if it's worth it first.",
				"How much are we talking?",
			}
		},
	},
	{
		match: func(s string) bool {
			return containsAny(s, "competitor", "alternative", "existing", "current")
		},
		responses: func(entity.Persona) []string {
			return []string{
				"Yeah, I use a few different tools already.",
				"There are options out there. What makes yours special?",
				"I've got my current setup. Why would I switch?",
				"Sure, there are alternatives. So what?",
				"I mean, the market's pretty crowded already.",
			}
		},
	},
}

var defaultResponses = []string{
	"I'm not sure I follow. Can you explain?",
	"Okay... and?",
	"I guess. What's your point?",
	"That's interesting I suppose. Where are you going with this?",
	"I mean, maybe. I'd need to understand more.",
	"Not sure about that. Can you be more specific?",
	"I don't really know enough to say.",
}

// PersonaReply picks a canned in-character reply for the user message.
// Selection within a bucket is deterministic for a given message.
func (r *Responder) PersonaReply(userMessage string, persona entity.Persona) string {
	lower := strings.ToLower(userMessage)

	for _, c := range categories {
		if c.match(lower) {
			return pick(c.responses(persona), userMessage)
		}
	}

	return pick(defaultResponses, userMessage)
}

// CoachingInsights is the fallback analysis used when the coaching
// analysis call fails outright.
func (r *Responder) CoachingInsights() entity.Insights {
	return entity.Insights{
		KeyInsights: []string{
			"Customer interview analysis temporarily unavailable",
			"Please review conversation for professional language",
			"Consider rephrasing any informal or inappropriate questions",
		},
		QuestionBiases: []entity.BiasFinding{},
	}
}

// MarketAnalysis is the fallback market report used when the market
// research call fails outright.
func (r *Responder) MarketAnalysis() entity.MarketAnalysis {
	return entity.MarketAnalysis{
		CompetitorHeatmap: []entity.CompetitorEntry{
			{
				Competitor:           "Generic Competitor 1",
				Strength:             "Established market presence",
				Weakness:             "Legacy technology",
				DifferentiationScore: 0.6,
			},
			{
				Competitor:           "Generic Competitor 2",
				Strength:             "Strong funding",
				Weakness:             "Poor user experience",
				DifferentiationScore: 0.7,
			},
		},
		Trends:            []string{"AI automation increasing", "Remote work tools growing", "User experience focus"},
		ValuePropositions: []string{"Time-saving automation", "Better user experience", "Cost-effective solution"},
	}
}

func pick(responses []string, key string) string {
	h := fnv.New32a()
	h.Write([]byte(key))
	return responses[int(h.Sum32())%len(responses)]
}
