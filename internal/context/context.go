package context

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/lazybuddy/buddy/internal/logging"
)

const (
	contextFile     = "personal-context.json"
	interactionFile = "interaction-history.json"
)

// Goal timeframes and habit/insight categories accepted by the typed
// helpers below.
var (
	GoalTimeframes    = []string{"immediate", "short_term", "medium_term", "long_term"}
	HabitCategories   = []string{"current", "building", "want_to_build"}
	InsightCategories = []string{"about_self", "learnings", "breakthroughs"}
)

// Context is the personal-context document. It is deliberately loose
// (nested maps) because the hosting assistant reads and writes free-form
// category/value pairs; the typed helpers cover the structured paths.
type Context map[string]any

// Manager owns the personal-context and interaction-history documents.
// Single writer, whole-document read-modify-write, like the other stores.
type Manager struct {
	contextPath     string
	interactionPath string
	log             *logging.Logger
	now             func() time.Time
}

// NewManager creates a Manager persisting under dir.
func NewManager(dir string, log *logging.Logger) *Manager {
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Error("CONTEXT", "failed to create memory dir", zap.Error(err))
	}
	return &Manager{
		contextPath:     filepath.Join(dir, contextFile),
		interactionPath: filepath.Join(dir, interactionFile),
		log:             log,
		now:             time.Now,
	}
}

// Load reads the context document, substituting an empty template when
// missing or unreadable.
func (m *Manager) Load() Context {
	data, err := os.ReadFile(m.contextPath)
	if err != nil {
		if !os.IsNotExist(err) {
			m.log.Error("CONTEXT", "failed to load context", zap.Error(err))
		}
		return emptyContext(m.now())
	}

	var ctx Context
	if err := json.Unmarshal(data, &ctx); err != nil {
		m.log.Error("CONTEXT", "failed to parse context", zap.Error(err))
		return emptyContext(m.now())
	}
	return ctx
}

// Save writes the context document, stamping last_updated.
func (m *Manager) Save(ctx Context) error {
	ctx["last_updated"] = m.now().UTC().Format(time.RFC3339)
	data, err := json.MarshalIndent(ctx, "", "  ")
	if err != nil {
		return fmt.Errorf("encode context: %w", err)
	}
	if err := os.WriteFile(m.contextPath, data, 0644); err != nil {
		m.log.Error("CONTEXT", "failed to save context", zap.Error(err))
		return fmt.Errorf("save context: %w", err)
	}
	return nil
}

func emptyContext(now time.Time) Context {
	return Context{
		"version":      "1.0.0",
		"last_updated": now.UTC().Format(time.RFC3339),
		"user": map[string]any{
			"name":     "User",
			"timezone": "UTC",
			"locale":   "en-US",
		},
		"identity": map[string]any{
			"core_values":      []any{},
			"principles":       []any{},
			"long_term_vision": "",
			"life_philosophy":  "",
		},
		"routines":           map[string]any{},
		"habits":             map[string]any{},
		"goals":              map[string]any{},
		"preferences":        map[string]any{},
		"life_domains":       map[string]any{},
		"patterns":           map[string]any{},
		"insights":           map[string]any{},
		"buddy_relationship": map[string]any{},
		"metadata":           map[string]any{},
	}
}

// GetField resolves a dot path ("identity.core_values") in the context,
// returning nil when any segment is missing.
func (m *Manager) GetField(path string) any {
	var current any = map[string]any(m.Load())
	for _, part := range strings.Split(path, ".") {
		node, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current, ok = node[part]
		if !ok {
			return nil
		}
	}
	return current
}

// UpdateField sets a dot path in the context, creating intermediate maps
// as needed, and persists the document.
func (m *Manager) UpdateField(path string, value any) error {
	ctx := m.Load()
	parts := strings.Split(path, ".")

	current := map[string]any(ctx)
	for _, part := range parts[:len(parts)-1] {
		next, ok := current[part].(map[string]any)
		if !ok {
			next = map[string]any{}
			current[part] = next
		}
		current = next
	}
	current[parts[len(parts)-1]] = value
	return m.Save(ctx)
}

func nestedMap(parent map[string]any, key string) map[string]any {
	if m, ok := parent[key].(map[string]any); ok {
		return m
	}
	m := map[string]any{}
	parent[key] = m
	return m
}

func nestedList(parent map[string]any, key string) []any {
	if l, ok := parent[key].([]any); ok {
		return l
	}
	return []any{}
}

// AddCoreValue appends a value to identity.core_values; a duplicate is a
// silent no-op.
func (m *Manager) AddCoreValue(value string) error {
	ctx := m.Load()
	identity := nestedMap(ctx, "identity")
	values := nestedList(identity, "core_values")

	for _, v := range values {
		if v == value {
			return nil
		}
	}
	identity["core_values"] = append(values, value)
	m.log.Learning("added core value: "+value, "")
	return m.Save(ctx)
}

// AddGoal files a goal under one of the four timeframes.
func (m *Manager) AddGoal(timeframe string, goal map[string]any) error {
	if !contains(GoalTimeframes, timeframe) {
		return fmt.Errorf("unknown goal timeframe: %s", timeframe)
	}

	ctx := m.Load()
	goals := nestedMap(ctx, "goals")
	slot := nestedMap(goals, timeframe)

	entry := map[string]any{
		"created_at": m.now().UTC().Format(time.RFC3339),
		"status":     "active",
	}
	for k, v := range goal {
		entry[k] = v
	}
	slot["items"] = append(nestedList(slot, "items"), entry)

	m.log.Learning(fmt.Sprintf("added %s goal", timeframe), "")
	return m.Save(ctx)
}

// AddHabit files a habit under current, building, or want_to_build.
func (m *Manager) AddHabit(category string, habit map[string]any) error {
	if !contains(HabitCategories, category) {
		return fmt.Errorf("unknown habit category: %s", category)
	}

	ctx := m.Load()
	habits := nestedMap(ctx, "habits")

	entry := map[string]any{
		"added_at": m.now().UTC().Format(time.RFC3339),
	}
	for k, v := range habit {
		entry[k] = v
	}
	habits[category] = append(nestedList(habits, category), entry)

	m.log.Learning("added habit to "+category, "")
	return m.Save(ctx)
}

// AddInsight records an insight about the user.
func (m *Manager) AddInsight(category, insight string) error {
	if !contains(InsightCategories, category) {
		return fmt.Errorf("unknown insight category: %s", category)
	}

	ctx := m.Load()
	insights := nestedMap(ctx, "insights")
	insights[category] = append(nestedList(insights, category), map[string]any{
		"content":   insight,
		"timestamp": m.now().UTC().Format(time.RFC3339),
	})

	m.log.Event("INSIGHT", insight)
	return m.Save(ctx)
}

// CompleteOnboarding marks onboarding done in metadata.
func (m *Manager) CompleteOnboarding() error {
	ctx := m.Load()
	metadata := nestedMap(ctx, "metadata")
	metadata["onboarding_completed"] = true
	metadata["onboarding_date"] = m.now().UTC().Format(time.RFC3339)
	m.log.Event("MILESTONE", "onboarding completed")
	return m.Save(ctx)
}

// RecordInteraction appends an interaction record to the history document
// and bumps the total counter.
func (m *Manager) RecordInteraction(interaction map[string]any) error {
	history := map[string]any{"interactions": []any{}}
	if data, err := os.ReadFile(m.interactionPath); err == nil {
		json.Unmarshal(data, &history)
	}

	entry := map[string]any{
		"timestamp": m.now().UTC().Format(time.RFC3339),
	}
	for k, v := range interaction {
		entry[k] = v
	}
	history["interactions"] = append(nestedList(history, "interactions"), entry)

	effectiveness := nestedMap(history, "effectiveness")
	total, _ := effectiveness["total_interactions"].(float64)
	effectiveness["total_interactions"] = total + 1

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode interaction history: %w", err)
	}
	if err := os.WriteFile(m.interactionPath, data, 0644); err != nil {
		m.log.Error("CONTEXT", "failed to record interaction", zap.Error(err))
		return fmt.Errorf("save interaction history: %w", err)
	}

	action, _ := interaction["type"].(string)
	if action == "" {
		action = "general"
	}
	m.log.Interaction(action)
	return nil
}

// Richness scores how filled-in the context is, 0-100.
func (m *Manager) Richness() int {
	ctx := m.Load()
	score := 0

	identity := nestedMap(ctx, "identity")
	coreValues := nestedList(identity, "core_values")
	if len(coreValues) > 0 {
		score += 5
	}
	if len(coreValues) >= 3 {
		score += 5
	}
	if s, _ := identity["long_term_vision"].(string); s != "" {
		score += 5
	}
	if s, _ := identity["life_philosophy"].(string); s != "" {
		score += 5
	}

	goals := nestedMap(ctx, "goals")
	totalGoals := 0
	for _, timeframe := range GoalTimeframes {
		slot := nestedMap(goals, timeframe)
		totalGoals += len(nestedList(slot, "items"))
	}
	score += capped(totalGoals*2, 20)

	habits := nestedMap(ctx, "habits")
	totalHabits := 0
	for _, category := range HabitCategories {
		totalHabits += len(nestedList(habits, category))
	}
	score += capped(totalHabits*3, 15)

	score += capped(len(nestedMap(ctx, "routines"))*5, 15)
	score += capped(len(nestedMap(ctx, "preferences"))*2, 10)
	score += capped(len(nestedMap(ctx, "life_domains"))*2, 10)

	insights := nestedMap(ctx, "insights")
	totalInsights := 0
	for _, category := range InsightCategories {
		totalInsights += len(nestedList(insights, category))
	}
	score += capped(totalInsights, 10)

	return capped(score, 100)
}

// Summary renders a human-readable context overview.
func (m *Manager) Summary() string {
	ctx := m.Load()
	var lines []string
	lines = append(lines, "=== Personal Context Summary ===", "")

	identity := nestedMap(ctx, "identity")
	if values := nestedList(identity, "core_values"); len(values) > 0 {
		strs := make([]string, len(values))
		for i, v := range values {
			strs[i] = fmt.Sprint(v)
		}
		lines = append(lines, "Core Values: "+strings.Join(strs, ", "))
	}

	goals := nestedMap(ctx, "goals")
	totalGoals := 0
	perTimeframe := map[string]int{}
	for _, timeframe := range GoalTimeframes {
		n := len(nestedList(nestedMap(goals, timeframe), "items"))
		perTimeframe[timeframe] = n
		totalGoals += n
	}
	if totalGoals > 0 {
		lines = append(lines, "", fmt.Sprintf("Goals: %d total", totalGoals))
		for _, timeframe := range GoalTimeframes {
			if perTimeframe[timeframe] > 0 {
				lines = append(lines, fmt.Sprintf("  - %s: %d", timeframe, perTimeframe[timeframe]))
			}
		}
	}

	habits := nestedMap(ctx, "habits")
	totalHabits := 0
	for _, category := range HabitCategories {
		totalHabits += len(nestedList(habits, category))
	}
	if totalHabits > 0 {
		lines = append(lines, "", fmt.Sprintf("Habits: %d total", totalHabits))
	}

	metadata := nestedMap(ctx, "metadata")
	onboarded, _ := metadata["onboarding_completed"].(bool)
	status := "Not started"
	if onboarded {
		status = "Complete"
	}
	lines = append(lines, "", "Onboarding: "+status)
	if updated, _ := ctx["last_updated"].(string); updated != "" {
		lines = append(lines, "Last updated: "+updated)
	}

	return strings.Join(lines, "\n")
}

func contains(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

func capped(v, max int) int {
	if v > max {
		return max
	}
	return v
}
