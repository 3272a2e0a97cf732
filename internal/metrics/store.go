package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lazybuddy/buddy/internal/logging"
)

const metricsFile = "metrics.json"

// Store is the durable per-system log of dated observations, backed by a
// single human-readable JSON document. Every mutating call rewrites the
// whole document. The mutex covers the in-memory document so the server
// and the analysis scheduler can share one instance; the file itself
// still assumes a single writing process. Construct once and pass by
// reference.
type Store struct {
	mu   sync.Mutex
	path string
	log  *logging.Logger
	now  func() time.Time
	doc  *document
}

// NewStore opens (or initializes) the metrics document under dir. An
// unreadable or unparseable document is replaced by an empty default;
// storage problems are logged, never fatal.
func NewStore(dir, user string, log *logging.Logger) *Store {
	s := &Store{
		path: filepath.Join(dir, metricsFile),
		log:  log,
		now:  time.Now,
	}
	s.load(user)
	return s
}

// SetClock overrides the store's clock. Tests only.
func (s *Store) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Path returns the metrics document path.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) load(user string) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Error("METRICS", "failed to load metrics", zap.Error(err))
		}
		s.doc = emptyDocument(user)
		return
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		s.log.Error("METRICS", "failed to parse metrics", zap.Error(err))
		s.doc = emptyDocument(user)
		return
	}
	if doc.Systems == nil {
		doc.Systems = emptyDocument(user).Systems
	}
	s.doc = &doc
}

func (s *Store) save() error {
	s.doc.LastUpdated = s.timestamp()

	data, err := json.MarshalIndent(s.doc, "", "  ")
	if err != nil {
		s.log.Error("METRICS", "failed to encode metrics", zap.Error(err))
		return fmt.Errorf("encode metrics: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		s.log.Error("METRICS", "failed to create memory dir", zap.Error(err))
		return fmt.Errorf("create memory dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0644); err != nil {
		s.log.Error("METRICS", "failed to save metrics", zap.Error(err))
		return fmt.Errorf("save metrics: %w", err)
	}
	return nil
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(timestampLayout)
}

func (s *Store) today() string {
	return s.now().UTC().Format(dateLayout)
}

func generateID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// AddEntry appends an observation to one system's log. The entry gets a
// generated id, the current timestamp, and a date derived from it. The
// first entry ever recorded sets tracking_start_date; tracking_days is
// recomputed on every call.
func (s *Store) AddEntry(system string, fields map[string]any) (Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.doc.Systems[system]; !ok || !KnownSystem(system) {
		s.log.Error("METRICS", "unknown system", zap.String("system", system))
		return Entry{}, &UnknownSystemError{System: system}
	}

	entry := Entry{
		ID:        generateID(system),
		Timestamp: s.timestamp(),
		Date:      s.today(),
		System:    system,
		Fields:    fields,
	}

	sys := s.doc.Systems[system]
	sys.Entries = append(sys.Entries, entry)
	s.doc.Metadata.TotalEntries++

	if s.doc.Metadata.TrackingStartDate == "" {
		s.doc.Metadata.TrackingStartDate = entry.Date
	}
	if start, err := time.Parse(dateLayout, s.doc.Metadata.TrackingStartDate); err == nil {
		s.doc.Metadata.TrackingDays = int(s.now().UTC().Sub(start).Hours() / 24)
	}

	s.log.Event("TRACKING", "added entry",
		zap.String("system", system), zap.String("id", entry.ID))

	if err := s.save(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Query filters GetEntries. Date bounds are inclusive YYYY-MM-DD strings
// compared lexically, which is valid for zero-padded ISO dates.
type Query struct {
	Limit     int
	Offset    int
	StartDate string
	EndDate   string
}

// GetEntries returns one system's entries, date-filtered, sorted by
// timestamp descending, then offset/limit applied in that order. An
// unknown system yields nil.
func (s *Store) GetEntries(system string, q Query) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getEntries(system, q)
}

func (s *Store) getEntries(system string, q Query) []Entry {
	sys, ok := s.doc.Systems[system]
	if !ok {
		return nil
	}

	entries := make([]Entry, 0, len(sys.Entries))
	for _, e := range sys.Entries {
		if q.StartDate != "" && e.Date < q.StartDate {
			continue
		}
		if q.EndDate != "" && e.Date > q.EndDate {
			continue
		}
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp > entries[j].Timestamp
	})

	if q.Offset > 0 {
		if q.Offset >= len(entries) {
			return []Entry{}
		}
		entries = entries[q.Offset:]
	}
	if q.Limit > 0 && q.Limit < len(entries) {
		entries = entries[:q.Limit]
	}
	return entries
}

// TodayEntries returns the system's entries dated today.
func (s *Store) TodayEntries(system string) []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.today()
	return s.getEntries(system, Query{StartDate: today, EndDate: today})
}

// CalculateAverage computes the arithmetic mean of a numeric field over
// entries in the trailing days-day window. Entries lacking the field or
// holding a non-numeric value are ignored; ok=false when nothing numeric
// is found.
func (s *Store) CalculateAverage(system, field string, days int) (float64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now().UTC().AddDate(0, 0, -days).Format(dateLayout)
	entries := s.getEntries(system, Query{StartDate: start})

	var sum float64
	var count int
	for i := range entries {
		if v, ok := entries[i].Float(field); ok {
			sum += v
			count++
		}
	}
	if count == 0 {
		return 0, false
	}
	return sum / float64(count), true
}

// SystemSummary reports one system's entry count and per-day density over
// the trailing window.
func (s *Store) SystemSummary(system string, days int) Summary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.systemSummary(system, days)
}

func (s *Store) systemSummary(system string, days int) Summary {
	start := s.now().UTC().AddDate(0, 0, -days).Format(dateLayout)
	entries := s.getEntries(system, Query{StartDate: start})

	summary := Summary{
		System:        system,
		TotalEntries:  len(entries),
		EntriesPerDay: float64(len(entries)) / float64(days),
	}
	if len(entries) > 0 {
		summary.Latest = &entries[0]
	}
	return summary
}

// GetDashboard combines per-system summaries with the confirmed
// correlation count and the five most recent insights (weekly first,
// then monthly).
func (s *Store) GetDashboard(days int) Dashboard {
	s.mu.Lock()
	defer s.mu.Unlock()

	dashboard := Dashboard{
		Period:       fmt.Sprintf("Last %d days", days),
		GeneratedAt:  s.timestamp(),
		Systems:      make(map[string]Summary, len(Systems)),
		TrackingDays: s.doc.Metadata.TrackingDays,
		Correlations: len(s.doc.Correlations.Confirmed),
	}

	for _, system := range Systems {
		summary := s.systemSummary(system, days)
		dashboard.Systems[system] = summary
		dashboard.TotalEntries += summary.TotalEntries
	}

	recent := make([]Insight, 0, len(s.doc.Insights.Weekly)+len(s.doc.Insights.Monthly))
	recent = append(recent, s.doc.Insights.Weekly...)
	recent = append(recent, s.doc.Insights.Monthly...)
	if len(recent) > 5 {
		recent = recent[:5]
	}
	dashboard.RecentInsights = recent

	return dashboard
}

// AddCorrelation appends a discovered correlation, filling in id and
// discovery timestamp.
func (s *Store) AddCorrelation(c Correlation) (Correlation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.ID = generateID("correlation")
	c.DiscoveredAt = s.timestamp()

	s.doc.Correlations.Discovered = append(s.doc.Correlations.Discovered, c)
	s.log.Event("INSIGHT", "discovered correlation", zap.String("pattern", c.Pattern))

	if err := s.save(); err != nil {
		return Correlation{}, err
	}
	return c, nil
}

// ConfirmCorrelation moves (not copies) a discovered correlation into the
// confirmed set and marks its status confirmed. Confirming an unknown id
// fails without mutating anything.
func (s *Store) ConfirmCorrelation(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, c := range s.doc.Correlations.Discovered {
		if c.ID != id {
			continue
		}
		c.Status = StatusConfirmed
		s.doc.Correlations.Confirmed = append(s.doc.Correlations.Confirmed, c)
		s.doc.Correlations.Discovered = append(
			s.doc.Correlations.Discovered[:i], s.doc.Correlations.Discovered[i+1:]...)

		s.log.Event("INSIGHT", "confirmed correlation", zap.String("pattern", c.Pattern))
		return s.save()
	}
	return fmt.Errorf("correlation %s not found", id)
}

// DiscoveredCorrelations returns the provisional findings.
func (s *Store) DiscoveredCorrelations() []Correlation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Correlation(nil), s.doc.Correlations.Discovered...)
}

// ConfirmedCorrelations returns the explicitly accepted findings.
func (s *Store) ConfirmedCorrelations() []Correlation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Correlation(nil), s.doc.Correlations.Confirmed...)
}

// AddInsight records a weekly or monthly free-text insight.
func (s *Store) AddInsight(period, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	insight := Insight{Content: content, Timestamp: s.timestamp()}
	switch period {
	case "weekly":
		s.doc.Insights.Weekly = append(s.doc.Insights.Weekly, insight)
	case "monthly":
		s.doc.Insights.Monthly = append(s.doc.Insights.Monthly, insight)
	default:
		return fmt.Errorf("unknown insight period: %s", period)
	}
	s.log.Event("INSIGHT", period+" insight", zap.String("content", content))
	return s.save()
}

// MarkCorrelationAnalysis stamps the time of the last correlation run.
func (s *Store) MarkCorrelationAnalysis() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc.Metadata.LastCorrelationAnalysis = s.timestamp()
	return s.save()
}

// TrackingDays returns how many whole days the store has been tracking.
func (s *Store) TrackingDays() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Metadata.TrackingDays
}

// TotalEntries returns the global entry counter.
func (s *Store) TotalEntries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Metadata.TotalEntries
}
