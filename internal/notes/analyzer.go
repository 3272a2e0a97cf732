package notes

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/lazybuddy/buddy/internal/logging"
	"github.com/lazybuddy/buddy/internal/vault"
)

// Theme is a recurring tag across the vault.
type Theme struct {
	Name      string   `json:"name"`
	Frequency int      `json:"frequency"`
	Notes     []string `json:"notes"`
	Keywords  []string `json:"keywords"`
}

// Activity summarizes recent vault activity.
type Activity struct {
	NoteCount     int      `json:"note_count"`
	Themes        []string `json:"themes"`
	ActivityLevel string   `json:"activity_level"` // low, medium, high
	FocusAreas    []string `json:"focus_areas"`
}

// GraphNode is one note in the knowledge graph.
type GraphNode struct {
	ID    string `json:"id"` // note path
	Label string `json:"label"`
	Type  string `json:"type"`
}

// GraphEdge links a note to a wiki-link target; repeat links raise the
// weight.
type GraphEdge struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Weight int    `json:"weight"`
}

// Graph is the vault's note-link graph.
type Graph struct {
	Nodes []GraphNode `json:"nodes"`
	Edges []GraphEdge `json:"edges"`
}

// Analyzer extracts insights and themes from vault notes using the
// lexical rule table.
type Analyzer struct {
	vault *vault.Vault
	rules []Rule
	log   *logging.Logger
}

// NewAnalyzer creates an Analyzer over the vault with DefaultRules.
func NewAnalyzer(v *vault.Vault, log *logging.Logger) *Analyzer {
	return &Analyzer{vault: v, rules: DefaultRules, log: log}
}

// ExtractInsights runs the rule set over the given notes, or the whole
// vault when paths is nil.
func (a *Analyzer) ExtractInsights(paths []string) []Insight {
	a.log.Info("ANALYZER", "extracting insights from notes")

	if paths == nil {
		paths = a.vault.AllNotes()
	}

	var insights []Insight
	for _, path := range paths {
		note, err := a.vault.ReadNote(path)
		if err != nil {
			continue
		}
		insights = append(insights, ExtractFromText(a.rules, note.Content, note.Path)...)
	}
	return insights
}

// KnowledgeGraph builds the vault's link graph: one node per readable
// note, one edge per distinct wiki link, weighted by how often the note
// repeats the link. Edge targets need not resolve to existing notes.
func (a *Analyzer) KnowledgeGraph() Graph {
	a.log.Info("ANALYZER", "building knowledge graph")

	graph := Graph{Nodes: []GraphNode{}, Edges: []GraphEdge{}}
	for _, path := range a.vault.AllNotes() {
		note, err := a.vault.ReadNote(path)
		if err != nil {
			continue
		}
		graph.Nodes = append(graph.Nodes, GraphNode{ID: note.Path, Label: note.Name, Type: "note"})

		counts := vault.LinkCounts(note.Content)
		for _, target := range note.Links {
			weight := counts[target]
			if weight == 0 {
				weight = 1 // link sits in the frontmatter, not the body
			}
			graph.Edges = append(graph.Edges, GraphEdge{From: note.Path, To: target, Weight: weight})
		}
	}
	return graph
}

// ExtractThemes ranks tags across the vault by frequency.
func (a *Analyzer) ExtractThemes(limit int) []Theme {
	a.log.Info("ANALYZER", "extracting themes from vault")

	frequency := map[string]int{}
	notesByTag := map[string][]string{}
	for _, path := range a.vault.AllNotes() {
		note, err := a.vault.ReadNote(path)
		if err != nil {
			continue
		}
		for _, tag := range note.Tags {
			frequency[tag]++
			notesByTag[tag] = append(notesByTag[tag], path)
		}
	}

	themes := make([]Theme, 0, len(frequency))
	for tag, count := range frequency {
		themes = append(themes, Theme{
			Name:      tag,
			Frequency: count,
			Notes:     notesByTag[tag],
			Keywords:  []string{tag},
		})
	}

	sort.SliceStable(themes, func(i, j int) bool {
		if themes[i].Frequency != themes[j].Frequency {
			return themes[i].Frequency > themes[j].Frequency
		}
		return themes[i].Name < themes[j].Name
	})

	if limit > 0 && len(themes) > limit {
		themes = themes[:limit]
	}
	return themes
}

// RecentActivity summarizes note-taking over the trailing days.
func (a *Analyzer) RecentActivity(days int) Activity {
	cutoff := time.Now().AddDate(0, 0, -days)

	var count int
	tagSet := map[string]bool{}
	var tags []string
	for _, note := range a.vault.RecentNotes(100) {
		if note.Modified.Before(cutoff) {
			continue
		}
		count++
		for _, tag := range note.Tags {
			if !tagSet[tag] {
				tagSet[tag] = true
				tags = append(tags, tag)
			}
		}
	}

	level := "low"
	switch {
	case count > 20:
		level = "high"
	case count > 7:
		level = "medium"
	}

	return Activity{
		NoteCount:     count,
		Themes:        firstN(tags, 10),
		ActivityLevel: level,
		FocusAreas:    firstN(tags, 5),
	}
}

// RelatedNotes scores every note against the topic terms (title match 10,
// tag match 5, each content occurrence 1) and returns the top results.
func (a *Analyzer) RelatedNotes(topic string, limit int) []vault.Note {
	terms := strings.Fields(strings.ToLower(topic))

	type scored struct {
		note  vault.Note
		score int
	}
	var results []scored

	for _, path := range a.vault.AllNotes() {
		note, err := a.vault.ReadNote(path)
		if err != nil {
			continue
		}

		content := strings.ToLower(note.Content)
		name := strings.ToLower(note.Name)

		score := 0
		for _, term := range terms {
			if strings.Contains(name, term) {
				score += 10
			}
			for _, tag := range note.Tags {
				if strings.Contains(strings.ToLower(tag), term) {
					score += 5
				}
			}
			score += strings.Count(content, term)
		}
		if score > 0 {
			results = append(results, scored{*note, score})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].score > results[j].score
	})

	notes := make([]vault.Note, 0, limit)
	for i, r := range results {
		if limit > 0 && i >= limit {
			break
		}
		notes = append(notes, r.note)
	}
	return notes
}

var wordRe = regexp.MustCompile(`\w+`)

// CommonThemes finds words longer than four characters that recur across
// the texts, ranked by frequency, top five.
func CommonThemes(texts []string) []string {
	frequency := map[string]int{}
	var order []string
	for _, text := range texts {
		for _, word := range wordRe.FindAllString(strings.ToLower(text), -1) {
			if len(word) <= 4 {
				continue
			}
			if frequency[word] == 0 {
				order = append(order, word)
			}
			frequency[word]++
		}
	}

	var recurring []string
	for _, word := range order {
		if frequency[word] >= 2 {
			recurring = append(recurring, word)
		}
	}
	sort.SliceStable(recurring, func(i, j int) bool {
		return frequency[recurring[i]] > frequency[recurring[j]]
	})

	return firstN(recurring, 5)
}

func firstN(s []string, n int) []string {
	if len(s) > n {
		return s[:n]
	}
	return s
}
