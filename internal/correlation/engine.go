package correlation

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/lazybuddy/buddy/internal/logging"
	"github.com/lazybuddy/buddy/internal/metrics"
)

// DefaultWindowDays is the trailing window pulled for each analysis run.
const DefaultWindowDays = 14

// observedThreshold decides the initial lifecycle status of a persisted
// correlation: above it the finding starts as observed, below as hypothesis.
const observedThreshold = 0.7

// Result is one qualified relationship emitted by a run, before it is
// persisted as a metrics.Correlation.
type Result struct {
	Systems   []string `json:"systems"`
	Pattern   string   `json:"pattern"`
	Strength  float64  `json:"strength"`
	Direction string   `json:"direction"`
	Evidence  []string `json:"evidence"`
}

// Engine runs the fixed set of cross-system analyses against the metric
// store and writes qualified correlations back into it.
type Engine struct {
	store         *metrics.Store
	log           *logging.Logger
	now           func() time.Time
	relationships []relationship
}

// New creates an Engine over the given store.
func New(store *metrics.Store, log *logging.Logger) *Engine {
	return &Engine{
		store:         store,
		log:           log,
		now:           time.Now,
		relationships: defaultRelationships(),
	}
}

// SetClock overrides the engine's clock. Tests only.
func (e *Engine) SetClock(now func() time.Time) {
	e.now = now
}

// Analyze pulls the trailing window of entries, runs every relationship
// in the table, persists each qualified result (status by strength), and
// stamps the analysis time. Pairs without enough aligned data yield no
// result; that is not an error.
func (e *Engine) Analyze(days int) []Result {
	if days <= 0 {
		days = DefaultWindowDays
	}
	e.log.Info("CORRELATION", "analyzing correlations", zap.Int("days", days))

	start := e.now().UTC().AddDate(0, 0, -days).Format("2006-01-02")
	entries := map[string][]metrics.Entry{}
	for _, system := range []string{
		metrics.SystemHealth, metrics.SystemEnergy, metrics.SystemMood, metrics.SystemLearning,
	} {
		entries[system] = e.store.GetEntries(system, metrics.Query{StartDate: start})
	}

	var results []Result
	for _, rel := range e.relationships {
		if len(entries[rel.systems[0]]) < minEntriesPerSystem || len(entries[rel.systems[1]]) < minEntriesPerSystem {
			continue
		}
		result := rel.analyze(entries[rel.systems[0]], entries[rel.systems[1]])
		if result != nil {
			results = append(results, *result)
		}
	}

	for _, r := range results {
		status := metrics.StatusHypothesis
		if r.Strength > observedThreshold {
			status = metrics.StatusObserved
		}
		if _, err := e.store.AddCorrelation(metrics.Correlation{
			Systems:   r.Systems,
			Pattern:   r.Pattern,
			Strength:  r.Strength,
			Direction: r.Direction,
			Evidence:  r.Evidence,
			Status:    status,
		}); err != nil {
			e.log.Error("CORRELATION", "failed to persist correlation",
				zap.String("pattern", r.Pattern), zap.Error(err))
		}
	}
	if err := e.store.MarkCorrelationAnalysis(); err != nil {
		e.log.Error("CORRELATION", "failed to stamp analysis time", zap.Error(err))
	}

	return results
}

// minEntriesPerSystem gates each relationship: both systems need at least
// this many raw entries in the window before alignment is attempted.
const minEntriesPerSystem = 3

// minCommonDates is the alignment floor for continuous pairs.
const minCommonDates = 3

type analysisKind int

const (
	continuous analysisKind = iota // Pearson over date-aligned value pairs
	presence                       // mean mood difference between present/absent days
)

// seriesFunc builds a date→value map from one system's entries.
type seriesFunc func(entries []metrics.Entry) map[string]float64

// relationship is one hand-specified cross-system analysis. The engine
// iterates a table of these: adding a relationship is a data change, not
// new control flow.
type relationship struct {
	systems   [2]string
	kind      analysisKind
	threshold float64 // |r| gate (continuous) or |mean difference| gate (presence)
	positive  string
	negative  string

	// continuous analysis
	x, y         seriesFunc
	pairEvidence func(x, y float64) string

	// presence analysis: label days where presentOn is true, compare mood
	// valence between labeled and unlabeled days.
	presentOn         func(entries []metrics.Entry) map[string]bool
	label             string
	minAbsent         int
	diffLine          bool
	allPresentPattern string // non-empty: fixed result when no absent days exist
}

func defaultRelationships() []relationship {
	return []relationship{
		{
			systems:   [2]string{metrics.SystemHealth, metrics.SystemEnergy},
			kind:      continuous,
			threshold: 0.4,
			positive:  "Better sleep leads to higher energy levels",
			negative:  "Longer sleep correlates with lower energy (might indicate oversleeping)",
			x:         nonZeroSeries("sleep_hours"),
			y:         averagedSeries("level"),
			pairEvidence: func(x, y float64) string {
				return fmt.Sprintf("%shrs sleep → %.1f/5 energy", trimFloat(x), y)
			},
		},
		{
			systems:   [2]string{metrics.SystemEnergy, metrics.SystemMood},
			kind:      continuous,
			threshold: 0.4,
			positive:  "Higher energy levels correlate with better mood",
			negative:  "Higher energy correlates with lower mood (might indicate anxiety)",
			x:         averagedSeries("level"),
			y:         nonZeroSeries("valence"),
			pairEvidence: func(x, y float64) string {
				return fmt.Sprintf("%.1f/5 energy → %s/5 mood", x, trimFloat(y))
			},
		},
		{
			systems:   [2]string{metrics.SystemHealth, metrics.SystemMood},
			kind:      presence,
			threshold: 0.5,
			positive:  "Exercise days show better mood",
			negative:  "Non-exercise days show better mood (rest might be needed)",
			presentOn: datesWithField("exercise"),
			label:     "exercise",
			minAbsent: 2,
			diffLine:  true,
		},
		{
			systems:           [2]string{metrics.SystemLearning, metrics.SystemMood},
			kind:              presence,
			threshold:         0.3,
			positive:          "Learning days correlate with better mood",
			negative:          "Non-learning days show better mood (might need balance)",
			presentOn:         datesWithEntries,
			label:             "learning",
			allPresentPattern: "Learning sessions consistently present on logged days",
		},
		{
			systems:   [2]string{metrics.SystemHealth, metrics.SystemMood},
			kind:      continuous,
			threshold: 0.4,
			positive:  "Better sleep correlates with better mood",
			negative:  "More sleep correlates with worse mood (might indicate depression or oversleeping)",
			x:         nonZeroSeries("sleep_hours"),
			y:         nonZeroSeries("valence"),
			pairEvidence: func(x, y float64) string {
				return fmt.Sprintf("%shrs sleep → %s/5 mood", trimFloat(x), trimFloat(y))
			},
		},
	}
}

func (rel *relationship) analyze(a, b []metrics.Entry) *Result {
	if rel.kind == continuous {
		return rel.analyzeContinuous(a, b)
	}
	return rel.analyzePresence(a, b)
}

func (rel *relationship) analyzeContinuous(a, b []metrics.Entry) *Result {
	xByDate := rel.x(a)
	yByDate := rel.y(b)

	dates := commonDates(xByDate, yByDate)
	if len(dates) < minCommonDates {
		return nil
	}

	xs := make([]float64, len(dates))
	ys := make([]float64, len(dates))
	for i, date := range dates {
		xs[i] = xByDate[date]
		ys[i] = yByDate[date]
	}

	r := pearson(xs, ys)
	if !meetsThreshold(r, rel.threshold) {
		return nil
	}

	evidence := make([]string, len(dates))
	for i := range dates {
		evidence[i] = rel.pairEvidence(xs[i], ys[i])
	}

	return &Result{
		Systems:   rel.systems[:],
		Pattern:   rel.phrase(r),
		Strength:  math.Abs(r),
		Direction: direction(r),
		Evidence:  evidence,
	}
}

func (rel *relationship) analyzePresence(a, mood []metrics.Entry) *Result {
	presentDates := rel.presentOn(a)
	moodByDate := nonZeroSeries("valence")(mood)

	var with, without []float64
	for date, valence := range moodByDate {
		if presentDates[date] {
			with = append(with, valence)
		} else {
			without = append(without, valence)
		}
	}

	if len(with) < 2 {
		return nil
	}
	if len(without) == 0 {
		if rel.allPresentPattern == "" {
			return nil
		}
		return &Result{
			Systems:   rel.systems[:],
			Pattern:   rel.allPresentPattern,
			Strength:  0.6,
			Direction: metrics.DirectionPositive,
			Evidence: []string{
				fmt.Sprintf("Learning present on all %d tracked days", len(with)),
			},
		}
	}
	if len(without) < rel.minAbsent {
		return nil
	}

	avgWith := mean(with)
	avgWithout := mean(without)
	difference := avgWith - avgWithout

	if !meetsThreshold(difference, rel.threshold) {
		return nil
	}

	evidence := []string{
		fmt.Sprintf("Avg mood with %s: %.1f/5", rel.label, avgWith),
		fmt.Sprintf("Avg mood without %s: %.1f/5", rel.label, avgWithout),
	}
	if rel.diffLine {
		evidence = append(evidence, fmt.Sprintf("Difference: %+.1f", difference))
	}

	return &Result{
		Systems:   rel.systems[:],
		Pattern:   rel.phrase(difference),
		Strength:  math.Min(math.Abs(difference)/2, 1),
		Direction: direction(difference),
		Evidence:  evidence,
	}
}

func (rel *relationship) phrase(statistic float64) string {
	if statistic > 0 {
		return rel.positive
	}
	return rel.negative
}

func direction(statistic float64) string {
	if statistic > 0 {
		return metrics.DirectionPositive
	}
	return metrics.DirectionNegative
}

// nonZeroSeries maps date → the field's value, skipping entries where the
// field is missing, non-numeric, or zero (an unset rating, not a reading).
// Later entries in slice order win for a repeated date.
func nonZeroSeries(field string) seriesFunc {
	return func(entries []metrics.Entry) map[string]float64 {
		byDate := make(map[string]float64)
		for i := range entries {
			if v, ok := entries[i].Float(field); ok && v != 0 {
				byDate[entries[i].Date] = v
			}
		}
		return byDate
	}
}

// averagedSeries maps date → mean of the field across same-day readings;
// systems logged several times a day are averaged before alignment.
func averagedSeries(field string) seriesFunc {
	return func(entries []metrics.Entry) map[string]float64 {
		sums := make(map[string]float64)
		counts := make(map[string]int)
		for i := range entries {
			if v, ok := entries[i].Float(field); ok {
				sums[entries[i].Date] += v
				counts[entries[i].Date]++
			}
		}
		byDate := make(map[string]float64, len(sums))
		for date, sum := range sums {
			byDate[date] = sum / float64(counts[date])
		}
		return byDate
	}
}

// datesWithField marks dates where any entry carries the named field.
func datesWithField(field string) func(entries []metrics.Entry) map[string]bool {
	return func(entries []metrics.Entry) map[string]bool {
		dates := make(map[string]bool)
		for i := range entries {
			if entries[i].Has(field) {
				dates[entries[i].Date] = true
			}
		}
		return dates
	}
}

// datesWithEntries marks every date that has at least one entry.
func datesWithEntries(entries []metrics.Entry) map[string]bool {
	dates := make(map[string]bool)
	for i := range entries {
		dates[entries[i].Date] = true
	}
	return dates
}

// commonDates intersects two date→value maps, sorted ascending so
// evidence order is deterministic.
func commonDates(x, y map[string]float64) []string {
	var dates []string
	for date := range x {
		if _, ok := y[date]; ok {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)
	return dates
}

// trimFloat formats a number the way the documents historically did:
// no trailing zeros (8 not 8.0, 7.5 stays 7.5).
func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
