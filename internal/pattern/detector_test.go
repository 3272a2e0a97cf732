package pattern

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/lazybuddy/buddy/internal/logging"
	"github.com/lazybuddy/buddy/internal/notes"
	"github.com/lazybuddy/buddy/internal/vault"
)

func testDetector(t *testing.T) (*Detector, *vault.Vault) {
	t.Helper()
	v := vault.New(t.TempDir(), logging.Nop())
	analyzer := notes.NewAnalyzer(v, logging.Nop())
	return NewDetector(t.TempDir(), v, analyzer, logging.Nop()), v
}

func addNote(t *testing.T, v *vault.Vault, path, created, content string) {
	t.Helper()
	full := filepath.Join(v.Root(), path)
	text := content
	if created != "" {
		text = fmt.Sprintf("---\ncreated: %q\n---\n%s", created, content)
	}
	if err := os.WriteFile(full, []byte(text), 0644); err != nil {
		t.Fatalf("write note: %v", err)
	}
}

func TestDedupKeyStableAndDistinct(t *testing.T) {
	a := DedupKey(TypeTimeBased, "weekly", "Most active on Mondays")
	b := DedupKey(TypeTimeBased, "weekly", "Most active on Mondays")
	c := DedupKey(TypeTimeBased, "weekly", "Most active on Tuesdays")

	if a != b {
		t.Errorf("same content hashed differently: %s vs %s", a, b)
	}
	if a == c {
		t.Error("different descriptions share a dedup key")
	}
	if len(a) != 16 {
		t.Errorf("key length = %d, want 16 hex chars", len(a))
	}
}

func TestCategoryKey(t *testing.T) {
	tests := []struct {
		category string
		want     string
	}{
		{"daily", "time_based.daily"},
		{"weekly", "time_based.weekly"},
		{"habits", "habits"},
		{"goals", "cross_domain.correlations"},
		{"anything-else", "cross_domain.correlations"},
	}
	for _, tt := range tests {
		if got := categoryKey(tt.category); got != tt.want {
			t.Errorf("categoryKey(%q) = %q, want %q", tt.category, got, tt.want)
		}
	}
}

func TestAnalyzeTemporal(t *testing.T) {
	d, v := testDetector(t)
	// three Monday notes around 09:00, one Tuesday note
	addNote(t, v, "a.md", "2026-03-02 09:10", "first")
	addNote(t, v, "b.md", "2026-03-09 09:20", "second")
	addNote(t, v, "c.md", "2026-03-09 09:40", "third")
	addNote(t, v, "d.md", "2026-03-10 18:00", "other")

	patterns := d.AnalyzeTemporal()
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2: %+v", len(patterns), patterns)
	}

	day := patterns[0]
	if day.Description != "Most active on Mondays" {
		t.Errorf("day pattern = %q", day.Description)
	}
	if day.Confidence != 0.7 || day.Category != "weekly" {
		t.Errorf("day pattern = %+v", day)
	}
	if len(day.Evidence) != 1 || day.Evidence[0] != "3 notes created on Mondays" {
		t.Errorf("day evidence = %v", day.Evidence)
	}

	hour := patterns[1]
	if hour.Description != "Peak activity around 9:00" {
		t.Errorf("hour pattern = %q", hour.Description)
	}
	if hour.ActionableInsight != "Your mind is active around 9:00 - good time for creative work" {
		t.Errorf("hour insight = %q", hour.ActionableInsight)
	}
}

func TestAnalyzeTemporalNeedsThreeNotes(t *testing.T) {
	d, v := testDetector(t)
	addNote(t, v, "a.md", "2026-03-02 09:10", "first")
	addNote(t, v, "b.md", "2026-03-09 14:20", "second")

	if patterns := d.AnalyzeTemporal(); len(patterns) != 0 {
		t.Errorf("got %d patterns from 2 notes, want 0", len(patterns))
	}
}

func TestAnalyzeBehavioral(t *testing.T) {
	d, v := testDetector(t)
	addNote(t, v, "a.md", "", "I want to improve my writing craft.")
	addNote(t, v, "b.md", "", "Goal: improve my writing speed. Plan to improve my writing clarity.")
	addNote(t, v, "c.md", "", "Struggling with morning energy. Problem: too many meetings.")

	patterns := d.AnalyzeBehavioral()
	if len(patterns) != 2 {
		t.Fatalf("got %d patterns, want 2: %+v", len(patterns), patterns)
	}

	goals := patterns[0]
	if goals.Category != "goals" || !strings.HasPrefix(goals.Description, "Recurring goal themes: ") {
		t.Errorf("goals pattern = %+v", goals)
	}
	if !strings.Contains(goals.Description, "improve") || !strings.Contains(goals.Description, "writing") {
		t.Errorf("goal themes missing recurring words: %q", goals.Description)
	}

	challenges := patterns[1]
	if challenges.Description != "2 recurring challenges identified" {
		t.Errorf("challenges pattern = %q", challenges.Description)
	}
	if challenges.ActionableInsight != "These challenges might benefit from systematic approach or coaching" {
		t.Errorf("challenges insight = %q", challenges.ActionableInsight)
	}
	if len(challenges.Evidence) != 2 {
		t.Errorf("challenges evidence = %v", challenges.Evidence)
	}
}

func TestRunFullAnalysisDedupes(t *testing.T) {
	d, v := testDetector(t)
	addNote(t, v, "a.md", "2026-03-02 09:10", "first")
	addNote(t, v, "b.md", "2026-03-09 09:20", "second")
	addNote(t, v, "c.md", "2026-03-09 09:40", "third")

	first := d.RunFullAnalysis()
	if len(first.Patterns) != 2 {
		t.Fatalf("first run found %d patterns, want 2", len(first.Patterns))
	}

	stored := d.Load()
	if n := countPatterns(stored); n != 2 {
		t.Fatalf("stored %d patterns after first run, want 2", n)
	}

	// the same signals are detected again but not stored twice
	second := d.RunFullAnalysis()
	if len(second.Patterns) != 2 {
		t.Fatalf("second run found %d patterns, want 2", len(second.Patterns))
	}
	if n := countPatterns(d.Load()); n != 2 {
		t.Errorf("stored %d patterns after second run, want 2", n)
	}
}

func countPatterns(doc *Document) int {
	total := 0
	for _, patterns := range doc.Patterns {
		total += len(patterns)
	}
	return total
}

func TestRunFullAnalysisObservations(t *testing.T) {
	d, v := testDetector(t)
	addNote(t, v, "a.md", "2026-03-02 09:10", "first")
	addNote(t, v, "b.md", "2026-03-09 09:20", "second")
	addNote(t, v, "c.md", "2026-03-09 09:40", "third")

	report := d.RunFullAnalysis()
	if len(report.Insights) != len(report.Patterns) {
		t.Errorf("insights = %d, want one per pattern (%d)", len(report.Insights), len(report.Patterns))
	}

	doc := d.Load()
	if len(doc.Insights.Observations) != len(report.Insights) {
		t.Errorf("stored observations = %v", doc.Insights.Observations)
	}
	if doc.LastAnalysis == "" {
		t.Error("last analysis not stamped")
	}
}

// Scheduled runs and API reads share one detector. Meaningful under -race.
func TestConcurrentAnalysisAndReads(t *testing.T) {
	d, v := testDetector(t)
	addNote(t, v, "a.md", "2026-03-02 09:10", "first")
	addNote(t, v, "b.md", "2026-03-09 09:20", "second")
	addNote(t, v, "c.md", "2026-03-09 09:40", "third")

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			d.RunFullAnalysis()
		}()
		go func() {
			defer wg.Done()
			d.Load()
			d.Summary()
		}()
	}
	wg.Wait()

	if n := countPatterns(d.Load()); n != 2 {
		t.Errorf("stored %d patterns after concurrent runs, want 2", n)
	}
}

func TestSummaryEmpty(t *testing.T) {
	d, _ := testDetector(t)
	summary := d.Summary()
	if !strings.Contains(summary, "No patterns discovered yet") {
		t.Errorf("summary = %q", summary)
	}
}

func TestAddPatternSkipsDuplicates(t *testing.T) {
	d, _ := testDetector(t)

	p := d.newPattern("test", TypeBehavioral, "habits", "Writes every morning", 0.8, nil, "")
	if err := d.AddPattern(p); err != nil {
		t.Fatalf("AddPattern: %v", err)
	}
	if err := d.AddPattern(p); err != nil {
		t.Fatalf("AddPattern duplicate: %v", err)
	}

	doc := d.Load()
	if n := len(doc.Patterns["habits"]); n != 1 {
		t.Errorf("stored %d patterns, want 1", n)
	}
}
