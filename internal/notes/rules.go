package notes

import (
	"regexp"
	"strings"
)

// InsightType classifies what a lexical trigger extracted.
type InsightType string

const (
	TypeGoal      InsightType = "goal"
	TypeHabit     InsightType = "habit"
	TypeChallenge InsightType = "challenge"
	TypeValue     InsightType = "value"
	TypeLearning  InsightType = "learning"
)

// Insight is one extracted text fragment with its trigger's confidence.
type Insight struct {
	Type       InsightType `json:"type"`
	Content    string      `json:"content"`
	SourceNote string      `json:"source_note"`
	Confidence float64     `json:"confidence"`
}

// Rule is a lexical trigger: a pattern whose capture group yields the
// insight text. The rule set is plain data so it can be extended and
// tested independently of the extraction loop.
type Rule struct {
	Pattern    *regexp.Regexp
	Type       InsightType
	Confidence float64
	Group      int // capture group holding the insight text
	MinLen     int
	MaxLen     int
}

// DefaultRules is the standard trigger set.
var DefaultRules = buildDefaultRules()

func buildDefaultRules() []Rule {
	goal := func(expr string) Rule {
		return Rule{regexp.MustCompile(expr), TypeGoal, 0.7, 1, 5, 200}
	}
	habit := func(expr string, group int) Rule {
		return Rule{regexp.MustCompile(expr), TypeHabit, 0.6, group, 5, 150}
	}
	challenge := func(expr string) Rule {
		return Rule{regexp.MustCompile(expr), TypeChallenge, 0.65, 1, 5, 200}
	}
	value := func(expr string) Rule {
		return Rule{regexp.MustCompile(expr), TypeValue, 0.75, 1, 3, 100}
	}
	learning := func(expr string) Rule {
		return Rule{regexp.MustCompile(expr), TypeLearning, 0.8, 1, 10, 250}
	}

	return []Rule{
		goal(`(?i)\bgoals?:\s*(.+)`),
		goal(`(?i)\bi want to\s+(.+)`),
		goal(`(?i)\bi will\s+(.+)`),
		goal(`(?i)\bi'm going to\s+(.+)`),
		goal(`(?i)\bplan to\s+(.+)`),
		goal(`(?i)\baim(?:ing)? to\s+(.+)`),

		habit(`(?i)\bhabits?:\s*(.+)`, 1),
		habit(`(?i)\bdaily\s+(.+)`, 1),
		habit(`(?i)\bevery\s+(day|morning|evening|night)\s+(.+)`, 2),
		habit(`(?i)\broutines?:\s*(.+)`, 1),

		challenge(`(?i)\bchallenges?:\s*(.+)`),
		challenge(`(?i)\bstruggl(?:e|ing) with\s+(.+)`),
		challenge(`(?i)\bdifficulty?\s+(.+)`),
		challenge(`(?i)\bproblem:\s*(.+)`),
		challenge(`(?i)\bissue:\s*(.+)`),

		value(`(?i)\bvalues?:\s*(.+)`),
		value(`(?i)\bi believe in\s+(.+)`),
		value(`(?i)\bimportant to me:\s*(.+)`),
		value(`(?i)\bprinciples?:\s*(.+)`),

		learning(`(?i)\blearned:\s*(.+)`),
		learning(`(?i)\blearning:\s*(.+)`),
		learning(`(?i)\blesson:\s*(.+)`),
		learning(`(?i)\btakeaway:\s*(.+)`),
		learning(`(?i)\binsight:\s*(.+)`),
		learning(`(?i)\brealized that\s+(.+)`),
	}
}

var sentenceEndRe = regexp.MustCompile(`[.!?\n]`)

// ExtractFromText runs the rule set over one note's text and returns
// every qualifying insight. Matches are cut at the first sentence
// boundary and length-gated per rule.
func ExtractFromText(rules []Rule, content, sourceNote string) []Insight {
	var insights []Insight
	for _, rule := range rules {
		for _, m := range rule.Pattern.FindAllStringSubmatch(content, -1) {
			if rule.Group >= len(m) {
				continue
			}
			text := strings.TrimSpace(m[rule.Group])
			text = strings.TrimSpace(sentenceEndRe.Split(text, 2)[0])
			if len(text) <= rule.MinLen || len(text) >= rule.MaxLen {
				continue
			}
			insights = append(insights, Insight{
				Type:       rule.Type,
				Content:    text,
				SourceNote: sourceNote,
				Confidence: rule.Confidence,
			})
		}
	}
	return insights
}
