package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazybuddy/buddy/internal/logging"
	"github.com/lazybuddy/buddy/internal/notes"
	"github.com/lazybuddy/buddy/internal/vault"
)

const patternsFile = "patterns.json"

// Pattern type labels.
const (
	TypeTimeBased   = "time_based"
	TypeBehavioral  = "behavioral"
	TypeCorrelation = "correlation"
	TypeTrend       = "trend"
)

// Pattern is a detected regularity in temporal activity or recurring
// textual themes. DedupKey is a content hash of type, category, and
// description: re-running analysis never inserts a second record for the
// same recurring signal.
type Pattern struct {
	ID                string   `json:"id"`
	Type              string   `json:"type"`
	Category          string   `json:"category"`
	Description       string   `json:"description"`
	Confidence        float64  `json:"confidence"`
	Evidence          []string `json:"evidence"`
	DiscoveredAt      string   `json:"discovered_at"`
	Status            string   `json:"status"`
	ActionableInsight string   `json:"actionable_insight,omitempty"`
	DedupKey          string   `json:"dedup_key"`
}

// Document is the whole patterns.json file.
type Document struct {
	Version      string               `json:"version"`
	LastAnalysis string               `json:"last_analysis,omitempty"`
	Patterns     map[string][]Pattern `json:"patterns"`
	Insights     struct {
		Observations []string `json:"observations"`
	} `json:"insights"`
	Recommendations struct {
		BasedOnPatterns []string `json:"based_on_patterns"`
	} `json:"recommendations"`
}

func emptyDocument() *Document {
	doc := &Document{
		Version:  "1.0.0",
		Patterns: map[string][]Pattern{},
	}
	doc.Insights.Observations = []string{}
	doc.Recommendations.BasedOnPatterns = []string{}
	return doc
}

// Report is the outcome of a full analysis run.
type Report struct {
	Patterns        []Pattern `json:"patterns"`
	Insights        []string  `json:"insights"`
	Recommendations []string  `json:"recommendations"`
}

// Detector mines temporal and lexical regularities from the vault and
// persists them to its own pattern store. Like the metric store, every
// mutating call is a whole-document read-modify-write; the mutex keeps
// concurrent analysis runs and reads from interleaving mid-cycle.
type Detector struct {
	mu       sync.Mutex
	path     string
	vault    *vault.Vault
	analyzer *notes.Analyzer
	log      *logging.Logger
	now      func() time.Time

	// temporalSample bounds how many recently modified notes feed the
	// temporal analysis.
	temporalSample int
}

// NewDetector creates a Detector persisting to dir.
func NewDetector(dir string, v *vault.Vault, analyzer *notes.Analyzer, log *logging.Logger) *Detector {
	return &Detector{
		path:           filepath.Join(dir, patternsFile),
		vault:          v,
		analyzer:       analyzer,
		log:            log,
		now:            time.Now,
		temporalSample: 50,
	}
}

// SetClock overrides the detector's clock. Tests only.
func (d *Detector) SetClock(now func() time.Time) {
	d.now = now
}

// Load reads the pattern document, substituting an empty default when the
// file is missing or unreadable.
func (d *Detector) Load() *Document {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.load()
}

func (d *Detector) load() *Document {
	data, err := os.ReadFile(d.path)
	if err != nil {
		if !os.IsNotExist(err) {
			d.log.Error("PATTERN", "failed to load patterns", zap.Error(err))
		}
		return emptyDocument()
	}

	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		d.log.Error("PATTERN", "failed to parse patterns", zap.Error(err))
		return emptyDocument()
	}
	if doc.Patterns == nil {
		doc.Patterns = map[string][]Pattern{}
	}
	return &doc
}

// Save writes the whole pattern document, stamping last_analysis.
func (d *Detector) Save(doc *Document) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.save(doc)
}

func (d *Detector) save(doc *Document) error {
	doc.LastAnalysis = d.now().UTC().Format(time.RFC3339)

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		d.log.Error("PATTERN", "failed to create memory dir", zap.Error(err))
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(d.path, data, 0644); err != nil {
		d.log.Error("PATTERN", "failed to save patterns", zap.Error(err))
		return fmt.Errorf("save patterns: %w", err)
	}
	return nil
}

// DedupKey hashes the identifying content of a pattern.
func DedupKey(patternType, category, description string) string {
	sum := sha256.Sum256([]byte(patternType + "|" + category + "|" + description))
	return hex.EncodeToString(sum[:8])
}

func (d *Detector) newPattern(idPrefix, patternType, category, description string, confidence float64, evidence []string, insight string) Pattern {
	return Pattern{
		ID:                idPrefix + "_" + uuid.NewString(),
		Type:              patternType,
		Category:          category,
		Description:       description,
		Confidence:        confidence,
		Evidence:          evidence,
		DiscoveredAt:      d.now().UTC().Format(time.RFC3339),
		Status:            "observed",
		ActionableInsight: insight,
		DedupKey:          DedupKey(patternType, category, description),
	}
}

// categoryKey maps a pattern category to its hierarchical store key.
func categoryKey(category string) string {
	mapping := map[string]string{
		"daily":           "time_based.daily",
		"weekly":          "time_based.weekly",
		"monthly":         "time_based.monthly",
		"energy":          "energy",
		"mood":            "mood",
		"productivity":    "productivity",
		"habits":          "habits",
		"learning":        "learning",
		"decision_making": "decision_making",
	}
	if key, ok := mapping[category]; ok {
		return key
	}
	return "cross_domain.correlations"
}

func (doc *Document) hasKey(dedupKey string) bool {
	for _, patterns := range doc.Patterns {
		for i := range patterns {
			if patterns[i].DedupKey == dedupKey {
				return true
			}
		}
	}
	return false
}

// AddPattern persists one pattern under its hierarchical category key.
// A pattern whose dedup key already exists anywhere in the store is
// skipped silently.
func (d *Detector) AddPattern(p Pattern) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	doc := d.load()
	if doc.hasKey(p.DedupKey) {
		d.log.Debug("PATTERN", "skipping duplicate pattern", zap.String("description", p.Description))
		return nil
	}

	key := categoryKey(p.Category)
	doc.Patterns[key] = append(doc.Patterns[key], p)
	d.log.Pattern(p.Description, zap.Float64("confidence", p.Confidence))

	return d.save(doc)
}

var dayNames = []string{"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday"}

// AnalyzeTemporal buckets recent note creation times by day-of-week and
// hour-of-day and reports the busiest bucket of each when it holds at
// least three notes.
func (d *Detector) AnalyzeTemporal() []Pattern {
	d.log.Info("PATTERN", "analyzing temporal patterns")

	recent := d.vault.RecentNotes(d.temporalSample)

	dayCount := map[int]int{}
	hourCount := map[int]int{}
	for _, note := range recent {
		if note.Created.IsZero() {
			continue
		}
		dayCount[int(note.Created.Weekday())]++
		hourCount[note.Created.Hour()]++
	}

	var patterns []Pattern

	if day, count := topBucket(dayCount); count >= 3 {
		name := dayNames[day]
		patterns = append(patterns, d.newPattern(
			"temporal_day", TypeTimeBased, "weekly",
			fmt.Sprintf("Most active on %ss", name),
			0.7,
			[]string{fmt.Sprintf("%d notes created on %ss", count, name)},
			fmt.Sprintf("Consider scheduling important work or reflection on %ss", name),
		))
	}

	if hour, count := topBucket(hourCount); count >= 3 {
		patterns = append(patterns, d.newPattern(
			"temporal_hour", TypeTimeBased, "daily",
			fmt.Sprintf("Peak activity around %d:00", hour),
			0.65,
			[]string{fmt.Sprintf("%d notes created around %d:00", count, hour)},
			fmt.Sprintf("Your mind is active around %d:00 - good time for creative work", hour),
		))
	}

	return patterns
}

// topBucket returns the key with the highest count, lowest key winning
// ties so repeated runs are deterministic.
func topBucket(counts map[int]int) (int, int) {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	best, bestCount := -1, 0
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best, bestCount
}

// AnalyzeBehavioral groups extracted insights by type: three or more
// goals yield a recurring-theme pattern, two or more challenges yield a
// challenge pattern with literal examples.
func (d *Detector) AnalyzeBehavioral() []Pattern {
	d.log.Info("PATTERN", "analyzing behavioral patterns")

	byType := map[notes.InsightType][]notes.Insight{}
	for _, insight := range d.analyzer.ExtractInsights(nil) {
		byType[insight.Type] = append(byType[insight.Type], insight)
	}

	var patterns []Pattern

	if goals := byType[notes.TypeGoal]; len(goals) >= 3 {
		texts := make([]string, len(goals))
		for i, g := range goals {
			texts[i] = g.Content
		}
		if themes := notes.CommonThemes(texts); len(themes) > 0 {
			patterns = append(patterns, d.newPattern(
				"behavioral_goals", TypeBehavioral, "goals",
				fmt.Sprintf("Recurring goal themes: %s", strings.Join(themes, ", ")),
				0.75,
				firstN(texts, 5),
				"",
			))
		}
	}

	if challenges := byType[notes.TypeChallenge]; len(challenges) >= 2 {
		texts := make([]string, len(challenges))
		for i, c := range challenges {
			texts[i] = c.Content
		}
		patterns = append(patterns, d.newPattern(
			"behavioral_challenges", TypeBehavioral, "challenges",
			fmt.Sprintf("%d recurring challenges identified", len(challenges)),
			0.7,
			firstN(texts, 3),
			"These challenges might benefit from systematic approach or coaching",
		))
	}

	return patterns
}

// RunFullAnalysis runs temporal and behavioral analysis, persists the
// newly detected patterns (dedup keys keep recurring signals from piling
// up), and overwrites the flat observations and recommendations lists
// wholesale.
func (d *Detector) RunFullAnalysis() Report {
	d.log.Info("PATTERN", "running full pattern analysis")

	var patterns []Pattern
	patterns = append(patterns, d.AnalyzeTemporal()...)
	patterns = append(patterns, d.AnalyzeBehavioral()...)

	insights := make([]string, 0, len(patterns))
	recommendations := []string{}
	for _, p := range patterns {
		insights = append(insights, p.Description)
		if p.ActionableInsight != "" {
			recommendations = append(recommendations, p.ActionableInsight)
		}
	}

	d.mu.Lock()
	doc := d.load()
	for _, p := range patterns {
		if doc.hasKey(p.DedupKey) {
			continue
		}
		key := categoryKey(p.Category)
		doc.Patterns[key] = append(doc.Patterns[key], p)
	}
	doc.Insights.Observations = insights
	doc.Recommendations.BasedOnPatterns = recommendations
	err := d.save(doc)
	d.mu.Unlock()
	if err != nil {
		d.log.Error("PATTERN", "failed to persist analysis", zap.Error(err))
	}

	return Report{
		Patterns:        patterns,
		Insights:        insights,
		Recommendations: recommendations,
	}
}

// ConfirmedPatterns returns every stored pattern with confirmed status.
func (d *Detector) ConfirmedPatterns() []Pattern {
	doc := d.Load()
	var confirmed []Pattern
	for _, patterns := range doc.Patterns {
		for _, p := range patterns {
			if p.Status == "confirmed" {
				confirmed = append(confirmed, p)
			}
		}
	}
	return confirmed
}

// Summary renders a human-readable overview of the pattern store.
func (d *Detector) Summary() string {
	doc := d.Load()
	var lines []string
	lines = append(lines, "=== Pattern Summary ===", "")

	keys := make([]string, 0, len(doc.Patterns))
	for key := range doc.Patterns {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	total := 0
	for _, key := range keys {
		if n := len(doc.Patterns[key]); n > 0 {
			lines = append(lines, fmt.Sprintf("%s: %d patterns", key, n))
			total += n
		}
	}

	if total == 0 {
		lines = append(lines, "No patterns discovered yet. Run analysis to find patterns.")
	} else {
		lines = append(lines, "", fmt.Sprintf("Total: %d patterns identified", total))
	}

	if len(doc.Insights.Observations) > 0 {
		lines = append(lines, "", "=== Key Insights ===")
		for i, insight := range firstN(doc.Insights.Observations, 5) {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, insight))
		}
	}
	if len(doc.Recommendations.BasedOnPatterns) > 0 {
		lines = append(lines, "", "=== Recommendations ===")
		for i, rec := range firstN(doc.Recommendations.BasedOnPatterns, 3) {
			lines = append(lines, fmt.Sprintf("%d. %s", i+1, rec))
		}
	}
	if doc.LastAnalysis != "" {
		lines = append(lines, "", "Last analyzed: "+doc.LastAnalysis)
	}

	return strings.Join(lines, "\n")
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
