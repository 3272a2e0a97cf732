package metrics

import (
	"errors"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/lazybuddy/buddy/internal/logging"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(t.TempDir(), "Tester", logging.Nop())
}

func TestAddEntryAssignsIdentity(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 3, 10, 22, 30, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })

	entry, err := st.AddEntry(SystemHealth, map[string]any{"sleep_hours": 7.5})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if !strings.HasPrefix(entry.ID, "health_") {
		t.Errorf("entry ID = %q, want health_ prefix", entry.ID)
	}
	if entry.Date != "2026-03-10" {
		t.Errorf("entry date = %q, want 2026-03-10", entry.Date)
	}
	if !strings.HasPrefix(entry.Timestamp, entry.Date) {
		t.Errorf("timestamp %q does not begin with date %q", entry.Timestamp, entry.Date)
	}
	if got := st.TotalEntries(); got != 1 {
		t.Errorf("TotalEntries = %d, want 1", got)
	}
}

func TestAddEntryUnknownSystem(t *testing.T) {
	st := testStore(t)

	_, err := st.AddEntry("sleep", map[string]any{"hours": 8})
	if err == nil {
		t.Fatal("expected error for unknown system")
	}
	var unknownErr *UnknownSystemError
	if !errors.As(err, &unknownErr) {
		t.Fatalf("error type = %T, want *UnknownSystemError", err)
	}
	if got := st.TotalEntries(); got != 0 {
		t.Errorf("TotalEntries after rejected add = %d, want 0", got)
	}
}

func TestEntriesSurviveReload(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, "Tester", logging.Nop())
	if _, err := st.AddEntry(SystemMood, map[string]any{"valence": 4.0, "notes": "good day"}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	reopened := NewStore(dir, "Tester", logging.Nop())
	entries := reopened.GetEntries(SystemMood, Query{})
	if len(entries) != 1 {
		t.Fatalf("got %d entries after reload, want 1", len(entries))
	}
	if v, ok := entries[0].Float("valence"); !ok || v != 4.0 {
		t.Errorf("valence = %v (ok=%v), want 4", v, ok)
	}
	if entries[0].Fields["notes"] != "good day" {
		t.Errorf("notes = %v, want %q", entries[0].Fields["notes"], "good day")
	}
}

func TestCorruptDocumentFallsBackToEmpty(t *testing.T) {
	dir := t.TempDir()
	st := NewStore(dir, "Tester", logging.Nop())
	if err := os.WriteFile(st.Path(), []byte("{not json"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	reopened := NewStore(dir, "Tester", logging.Nop())
	if got := reopened.TotalEntries(); got != 0 {
		t.Errorf("TotalEntries from corrupt file = %d, want 0", got)
	}
	if _, err := reopened.AddEntry(SystemEnergy, map[string]any{"level": 3.0}); err != nil {
		t.Errorf("AddEntry after fallback: %v", err)
	}
}

func TestGetEntriesFilterSortPage(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })

	for day := 1; day <= 5; day++ {
		now = time.Date(2026, 3, day, 8, 0, 0, 0, time.UTC)
		if _, err := st.AddEntry(SystemEnergy, map[string]any{"level": float64(day)}); err != nil {
			t.Fatalf("AddEntry day %d: %v", day, err)
		}
	}

	all := st.GetEntries(SystemEnergy, Query{})
	if len(all) != 5 {
		t.Fatalf("got %d entries, want 5", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i-1].Timestamp < all[i].Timestamp {
			t.Errorf("entries not sorted newest first at %d: %s < %s", i, all[i-1].Timestamp, all[i].Timestamp)
		}
	}

	ranged := st.GetEntries(SystemEnergy, Query{StartDate: "2026-03-02", EndDate: "2026-03-04"})
	if len(ranged) != 3 {
		t.Fatalf("date range got %d entries, want 3", len(ranged))
	}
	if ranged[0].Date != "2026-03-04" || ranged[2].Date != "2026-03-02" {
		t.Errorf("range bounds = %s..%s, want 2026-03-04..2026-03-02", ranged[0].Date, ranged[2].Date)
	}

	paged := st.GetEntries(SystemEnergy, Query{Offset: 1, Limit: 2})
	if len(paged) != 2 {
		t.Fatalf("paged got %d entries, want 2", len(paged))
	}
	if paged[0].Date != "2026-03-04" {
		t.Errorf("paged[0].Date = %s, want 2026-03-04", paged[0].Date)
	}

	if got := st.GetEntries(SystemEnergy, Query{Offset: 10}); len(got) != 0 {
		t.Errorf("offset past end got %d entries, want 0", len(got))
	}
}

func TestTodayEntries(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 3, 9, 8, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })
	if _, err := st.AddEntry(SystemMood, map[string]any{"valence": 3.0}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	now = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	if _, err := st.AddEntry(SystemMood, map[string]any{"valence": 4.0}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}

	today := st.TodayEntries(SystemMood)
	if len(today) != 1 {
		t.Fatalf("got %d entries, want 1", len(today))
	}
	if today[0].Date != "2026-03-10" {
		t.Errorf("date = %s, want 2026-03-10", today[0].Date)
	}
}

func TestCalculateAverage(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })

	for i, hours := range []float64{8, 4, 9} {
		now = time.Date(2026, 3, 8+i, 12, 0, 0, 0, time.UTC)
		if _, err := st.AddEntry(SystemHealth, map[string]any{"sleep_hours": hours}); err != nil {
			t.Fatalf("AddEntry: %v", err)
		}
	}
	// non-numeric values are skipped, not averaged as zero
	if _, err := st.AddEntry(SystemHealth, map[string]any{"sleep_hours": "lots"}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	now = time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	avg, ok := st.CalculateAverage(SystemHealth, "sleep_hours", 7)
	if !ok {
		t.Fatal("CalculateAverage reported no data")
	}
	if avg != 7 {
		t.Errorf("avg = %v, want 7", avg)
	}

	if _, ok := st.CalculateAverage(SystemHealth, "steps", 7); ok {
		t.Error("expected ok=false for absent field")
	}
	if _, ok := st.CalculateAverage(SystemMoney, "amount", 7); ok {
		t.Error("expected ok=false for empty system")
	}
}

func TestConfirmCorrelationMovesRecord(t *testing.T) {
	st := testStore(t)

	c, err := st.AddCorrelation(Correlation{
		Systems:   []string{SystemHealth, SystemMood},
		Pattern:   "Better sleep correlates with better mood",
		Strength:  0.82,
		Direction: DirectionPositive,
		Status:    StatusObserved,
	})
	if err != nil {
		t.Fatalf("AddCorrelation: %v", err)
	}
	if c.ID == "" || c.DiscoveredAt == "" {
		t.Fatalf("correlation missing identity: %+v", c)
	}

	if err := st.ConfirmCorrelation(c.ID); err != nil {
		t.Fatalf("ConfirmCorrelation: %v", err)
	}
	if got := len(st.DiscoveredCorrelations()); got != 0 {
		t.Errorf("discovered after confirm = %d, want 0", got)
	}
	confirmed := st.ConfirmedCorrelations()
	if len(confirmed) != 1 {
		t.Fatalf("confirmed = %d, want 1", len(confirmed))
	}
	if confirmed[0].Status != StatusConfirmed {
		t.Errorf("status = %s, want %s", confirmed[0].Status, StatusConfirmed)
	}

	if err := st.ConfirmCorrelation("correlation_nope"); err == nil {
		t.Error("expected error confirming unknown id")
	}
}

func TestAddInsightValidatesPeriod(t *testing.T) {
	st := testStore(t)

	if err := st.AddInsight("weekly", "slept better this week"); err != nil {
		t.Fatalf("AddInsight weekly: %v", err)
	}
	if err := st.AddInsight("daily", "nope"); err == nil {
		t.Error("expected error for unknown period")
	}
}

// Exercises the paths the HTTP server and the analysis scheduler hit on
// the same instance. Meaningful under -race.
func TestConcurrentWritesAndReads(t *testing.T) {
	st := testStore(t)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if _, err := st.AddEntry(SystemHealth, map[string]any{"sleep_hours": 7.0}); err != nil {
					t.Errorf("AddEntry: %v", err)
				}
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				st.GetDashboard(7)
				st.GetEntries(SystemHealth, Query{Limit: 5})
				st.DiscoveredCorrelations()
			}
		}()
	}
	wg.Wait()

	if got := st.TotalEntries(); got != 40 {
		t.Errorf("TotalEntries = %d, want 40", got)
	}
}

func TestGetDashboard(t *testing.T) {
	st := testStore(t)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	st.SetClock(func() time.Time { return now })

	if _, err := st.AddEntry(SystemHealth, map[string]any{"sleep_hours": 8.0}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if _, err := st.AddEntry(SystemMood, map[string]any{"valence": 4.0}); err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if err := st.AddInsight("weekly", "steady week"); err != nil {
		t.Fatalf("AddInsight: %v", err)
	}

	d := st.GetDashboard(7)
	if d.Period != "Last 7 days" {
		t.Errorf("period = %q, want %q", d.Period, "Last 7 days")
	}
	if d.TotalEntries != 2 {
		t.Errorf("total entries = %d, want 2", d.TotalEntries)
	}
	if len(d.Systems) != len(Systems) {
		t.Errorf("system summaries = %d, want %d", len(d.Systems), len(Systems))
	}
	if d.Systems[SystemHealth].Latest == nil {
		t.Error("health summary missing latest entry")
	}
	if len(d.RecentInsights) != 1 {
		t.Errorf("recent insights = %d, want 1", len(d.RecentInsights))
	}
}
