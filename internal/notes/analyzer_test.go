package notes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lazybuddy/buddy/internal/logging"
	"github.com/lazybuddy/buddy/internal/vault"
)

func testAnalyzer(t *testing.T) (*Analyzer, *vault.Vault) {
	t.Helper()
	v := vault.New(t.TempDir(), logging.Nop())
	return NewAnalyzer(v, logging.Nop()), v
}

func addNote(t *testing.T, v *vault.Vault, path, content string) {
	t.Helper()
	full := filepath.Join(v.Root(), path)
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		t.Fatalf("write note: %v", err)
	}
}

func TestExtractInsightsAcrossVault(t *testing.T) {
	a, v := testAnalyzer(t)
	addNote(t, v, "goals.md", "I want to run a marathon this year.")
	addNote(t, v, "journal.md", "Struggling with staying focused after lunch.")

	insights := a.ExtractInsights(nil)
	if len(insights) != 2 {
		t.Fatalf("got %d insights, want 2: %+v", len(insights), insights)
	}
	if findInsight(insights, TypeGoal, "run a marathon this year") == nil {
		t.Errorf("goal missing from %+v", insights)
	}
	if findInsight(insights, TypeChallenge, "staying focused after lunch") == nil {
		t.Errorf("challenge missing from %+v", insights)
	}
}

func TestExtractThemes(t *testing.T) {
	a, v := testAnalyzer(t)
	addNote(t, v, "a.md", "about #running and #health")
	addNote(t, v, "b.md", "more #running")
	addNote(t, v, "c.md", "some #reading")

	themes := a.ExtractThemes(2)
	if len(themes) != 2 {
		t.Fatalf("got %d themes, want 2", len(themes))
	}
	if themes[0].Name != "#running" || themes[0].Frequency != 2 {
		t.Errorf("top theme = %+v, want #running x2", themes[0])
	}
	if len(themes[0].Notes) != 2 {
		t.Errorf("top theme notes = %v", themes[0].Notes)
	}
	// frequency ties rank alphabetically
	if themes[1].Name != "#health" {
		t.Errorf("second theme = %+v, want #health", themes[1])
	}
}

func TestKnowledgeGraph(t *testing.T) {
	a, v := testAnalyzer(t)
	addNote(t, v, "hub.md", "see [[projects]] and again [[projects]] plus [[health|my health]]")
	addNote(t, v, "projects.md", "no links here")

	g := a.KnowledgeGraph()

	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, want 2: %+v", len(g.Nodes), g.Nodes)
	}
	// AllNotes sorts paths, so hub.md comes first
	if g.Nodes[0].ID != "hub.md" || g.Nodes[0].Label != "hub" || g.Nodes[0].Type != "note" {
		t.Errorf("node[0] = %+v", g.Nodes[0])
	}
	if g.Nodes[1].ID != "projects.md" {
		t.Errorf("node[1] = %+v", g.Nodes[1])
	}

	if len(g.Edges) != 2 {
		t.Fatalf("got %d edges, want 2: %+v", len(g.Edges), g.Edges)
	}
	if e := g.Edges[0]; e.From != "hub.md" || e.To != "projects" || e.Weight != 2 {
		t.Errorf("repeated link edge = %+v, want weight 2", e)
	}
	if e := g.Edges[1]; e.To != "health" || e.Weight != 1 {
		t.Errorf("aliased link edge = %+v, want target health weight 1", e)
	}
}

func TestKnowledgeGraphEmptyVault(t *testing.T) {
	a, _ := testAnalyzer(t)

	g := a.KnowledgeGraph()
	if g.Nodes == nil || g.Edges == nil {
		t.Fatal("nodes and edges must encode as [], not null")
	}
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("graph not empty: %+v", g)
	}
}

func TestRecentActivity(t *testing.T) {
	a, v := testAnalyzer(t)
	addNote(t, v, "a.md", "today #running")
	addNote(t, v, "b.md", "today #health")

	act := a.RecentActivity(7)
	if act.NoteCount != 2 {
		t.Errorf("note count = %d, want 2", act.NoteCount)
	}
	if act.ActivityLevel != "low" {
		t.Errorf("activity level = %q, want low", act.ActivityLevel)
	}
	if len(act.FocusAreas) != 2 {
		t.Errorf("focus areas = %v", act.FocusAreas)
	}
}

func TestRelatedNotes(t *testing.T) {
	a, v := testAnalyzer(t)
	addNote(t, v, "marathon-training.md", "plan for the race #running")
	addNote(t, v, "groceries.md", "milk and eggs")
	addNote(t, v, "journal.md", "thought about marathon pacing, marathon fueling")

	got := a.RelatedNotes("marathon", 5)
	if len(got) != 2 {
		t.Fatalf("got %d notes, want 2: %+v", len(got), got)
	}
	// title match outscores content occurrences
	if got[0].Name != "marathon-training" {
		t.Errorf("top note = %q", got[0].Name)
	}
	if got[1].Name != "journal" {
		t.Errorf("second note = %q", got[1].Name)
	}
}
