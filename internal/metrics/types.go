package metrics

import (
	"encoding/json"
	"fmt"
)

// The five tracked life systems.
const (
	SystemHealth   = "health"
	SystemEnergy   = "energy"
	SystemMood     = "mood"
	SystemLearning = "learning"
	SystemMoney    = "money"
)

// Systems lists the known system categories in canonical order.
var Systems = []string{SystemHealth, SystemEnergy, SystemMood, SystemLearning, SystemMoney}

// KnownSystem reports whether s is one of the five tracked systems.
func KnownSystem(s string) bool {
	for _, known := range Systems {
		if s == known {
			return true
		}
	}
	return false
}

// Entry is a single dated observation in one system. Besides the four
// fixed keys every entry carries, systems add their own fields (health:
// sleep_hours, exercise{type,duration_minutes,intensity}; mood: valence,
// arousal; ...) which live in Fields and are flattened into the JSON
// object next to the fixed keys.
//
// Date is always the calendar-day prefix of Timestamp and is immutable
// once set: cross-system analysis joins on exact date-string equality.
type Entry struct {
	ID        string
	Timestamp string // fixed-width UTC, lexically sortable
	Date      string // YYYY-MM-DD
	System    string
	Fields    map[string]any
}

// timestampLayout is millisecond-precision UTC resembling the document's
// historical format. Fixed width keeps lexical order == chronological order.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

const dateLayout = "2006-01-02"

var fixedEntryKeys = map[string]bool{"id": true, "timestamp": true, "date": true, "system": true}

func (e Entry) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(e.Fields)+4)
	for k, v := range e.Fields {
		if fixedEntryKeys[k] {
			continue
		}
		m[k] = v
	}
	m["id"] = e.ID
	m["timestamp"] = e.Timestamp
	m["date"] = e.Date
	m["system"] = e.System
	return json.Marshal(m)
}

func (e *Entry) UnmarshalJSON(data []byte) error {
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.ID = stringKey(m, "id")
	e.Timestamp = stringKey(m, "timestamp")
	e.Date = stringKey(m, "date")
	e.System = stringKey(m, "system")
	for k := range fixedEntryKeys {
		delete(m, k)
	}
	e.Fields = m
	return nil
}

func stringKey(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// Float returns the named field as a number. Non-numeric and missing
// fields report ok=false.
func (e *Entry) Float(field string) (float64, bool) {
	v, ok := e.Fields[field]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Has reports whether the named field is present.
func (e *Entry) Has(field string) bool {
	_, ok := e.Fields[field]
	return ok
}

// Correlation direction labels.
const (
	DirectionPositive = "positive"
	DirectionNegative = "negative"
	DirectionComplex  = "complex"
)

// Correlation lifecycle states. Hypothesis and observed are assigned at
// discovery by a strength threshold; confirmed only by explicit action.
const (
	StatusHypothesis = "hypothesis"
	StatusObserved   = "observed"
	StatusConfirmed  = "confirmed"
)

// Correlation is a statistically-thresholded relationship between two
// systems' values. Discovered correlations are append-only; confirmation
// moves a record into the confirmed set.
type Correlation struct {
	ID           string   `json:"id"`
	Systems      []string `json:"systems"`
	Pattern      string   `json:"pattern"`
	Strength     float64  `json:"strength"`
	Direction    string   `json:"direction"`
	Evidence     []string `json:"evidence"`
	DiscoveredAt string   `json:"discovered_at"`
	Status       string   `json:"status"`
}

// Insight is a periodic free-text observation surfaced on the dashboard.
type Insight struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}

type systemLog struct {
	Enabled bool    `json:"enabled"`
	Entries []Entry `json:"entries"`
}

type correlationSet struct {
	Discovered []Correlation `json:"discovered"`
	Confirmed  []Correlation `json:"confirmed"`
}

type insightLog struct {
	Weekly  []Insight `json:"weekly"`
	Monthly []Insight `json:"monthly"`
}

type storeMetadata struct {
	TotalEntries            int    `json:"total_entries"`
	TrackingStartDate       string `json:"tracking_start_date,omitempty"`
	TrackingDays            int    `json:"tracking_days"`
	LastCorrelationAnalysis string `json:"last_correlation_analysis,omitempty"`
}

// document is the whole metrics.json file.
type document struct {
	Version      string                `json:"version"`
	LastUpdated  string                `json:"last_updated,omitempty"`
	User         string                `json:"user"`
	Systems      map[string]*systemLog `json:"systems"`
	Correlations correlationSet        `json:"correlations"`
	Insights     insightLog            `json:"insights"`
	Metadata     storeMetadata         `json:"metadata"`
}

func emptyDocument(user string) *document {
	systems := make(map[string]*systemLog, len(Systems))
	for _, s := range Systems {
		systems[s] = &systemLog{Enabled: true, Entries: []Entry{}}
	}
	return &document{
		Version: "1.0.0",
		User:    user,
		Systems: systems,
		Correlations: correlationSet{
			Discovered: []Correlation{},
			Confirmed:  []Correlation{},
		},
		Insights: insightLog{
			Weekly:  []Insight{},
			Monthly: []Insight{},
		},
	}
}

// Summary describes one system's activity over a trailing window.
type Summary struct {
	System        string  `json:"system"`
	TotalEntries  int     `json:"total_entries"`
	EntriesPerDay float64 `json:"entries_per_day"`
	Latest        *Entry  `json:"latest_entry"`
}

// Dashboard is the combined cross-system view.
type Dashboard struct {
	Period         string             `json:"period"`
	GeneratedAt    string             `json:"generated_at"`
	Systems        map[string]Summary `json:"systems"`
	TotalEntries   int                `json:"total_entries"`
	TrackingDays   int                `json:"tracking_days"`
	Correlations   int                `json:"correlations"`
	RecentInsights []Insight          `json:"recent_insights"`
}

// UnknownSystemError reports a system name outside the five tracked
// categories. Rejected before any mutation.
type UnknownSystemError struct {
	System string
}

func (e *UnknownSystemError) Error() string {
	return fmt.Sprintf("unknown system: %s", e.System)
}
