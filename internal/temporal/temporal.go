// Package temporal finds patterns in how a journal changes over time.
//
// Three analyzers run over a read-only snapshot of entries and project
// mentions: mood cycles (weekday and time-of-day patterns, volatility,
// emotion streaks), project momentum (stalled, accelerating and consistent
// projects), and emotional triggers (words correlated with mood shifts).
//
// The analyzers are pure functions. Given the same snapshot and Config they
// produce identical reports, never mutate their inputs, and never write to
// the store. Sparse data degrades to a report with status
// "insufficient_data" and a reason, not an error: only an invalid request
// (a non-positive window) or a failing Source returns an error.
package temporal

import (
	"fmt"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
)

// dateLayout formats dates in reports.
const dateLayout = "2006-01-02"

// Entry is a read-only snapshot of one journal entry. Emotions may be empty
// when the entry carried no detectable emotion.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Content   string
	Emotions  emotion.Scores
}

// Mention is one project reference extracted from an entry.
type Mention struct {
	EntryID   int64
	Project   string
	Type      string
	Timestamp time.Time
}

// Source supplies the journal snapshot the analyzers run over. Bounds are
// inclusive. Implementations must not return rows outside [from, to].
type Source interface {
	EntriesBetween(from, to time.Time) ([]Entry, error)
	MentionsBetween(from, to time.Time) ([]Mention, error)
}

// Config tunes the analyzers. The zero value is usable: any zero field is
// replaced by its default before analysis.
type Config struct {
	// VolatilityThreshold is the population standard deviation above which
	// an emotion counts as volatile.
	VolatilityThreshold float64
	// StreakMinLength is the shortest run of same-dominant-emotion entries
	// reported as a streak.
	StreakMinLength int
	// MinEmotionEntries is how many emotion-bearing entries mood and
	// trigger analysis need before reporting anything.
	MinEmotionEntries int
	// StallGapDays is how many quiet days after the last mention mark a
	// project as stalled.
	StallGapDays int
	// BucketDays is the width of the activity buckets momentum counts
	// mentions into.
	BucketDays int
	// AccelMinMentions is the minimum recent-half mention count for a
	// project to register as accelerating.
	AccelMinMentions int
	// AccelGrowthRatio is the recent-half over earlier-half ratio at which
	// a project registers as accelerating.
	AccelGrowthRatio float64
	// ConsistencyMaxCV is the coefficient-of-variation ceiling under which
	// steady activity registers as consistent.
	ConsistencyMaxCV float64
	// MinTokenEntries is the number of distinct entries a word must appear
	// in before it is evaluated as a trigger.
	MinTokenEntries int
	// TriggerEffectThreshold is the absolute mood effect at which a word
	// counts as a positive or negative trigger.
	TriggerEffectThreshold float64
	// NeutralTopN caps how many frequent-but-neutral topics are reported.
	NeutralTopN int
	// DefaultWindowDays is the analysis window callers get when they pass
	// no explicit one.
	DefaultWindowDays int
}

// DefaultConfig returns the standard analyzer tuning.
func DefaultConfig() Config {
	return Config{
		VolatilityThreshold:    0.3,
		StreakMinLength:        3,
		MinEmotionEntries:      3,
		StallGapDays:           10,
		BucketDays:             7,
		AccelMinMentions:       3,
		AccelGrowthRatio:       1.5,
		ConsistencyMaxCV:       0.75,
		MinTokenEntries:        3,
		TriggerEffectThreshold: 0.1,
		NeutralTopN:            5,
		DefaultWindowDays:      90,
	}
}

// withDefaults fills zero fields so a partially set Config stays usable.
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.VolatilityThreshold <= 0 {
		c.VolatilityThreshold = d.VolatilityThreshold
	}
	if c.StreakMinLength <= 0 {
		c.StreakMinLength = d.StreakMinLength
	}
	if c.MinEmotionEntries <= 0 {
		c.MinEmotionEntries = d.MinEmotionEntries
	}
	if c.StallGapDays <= 0 {
		c.StallGapDays = d.StallGapDays
	}
	if c.BucketDays <= 0 {
		c.BucketDays = d.BucketDays
	}
	if c.AccelMinMentions <= 0 {
		c.AccelMinMentions = d.AccelMinMentions
	}
	if c.AccelGrowthRatio <= 0 {
		c.AccelGrowthRatio = d.AccelGrowthRatio
	}
	if c.ConsistencyMaxCV <= 0 {
		c.ConsistencyMaxCV = d.ConsistencyMaxCV
	}
	if c.MinTokenEntries <= 0 {
		c.MinTokenEntries = d.MinTokenEntries
	}
	if c.TriggerEffectThreshold <= 0 {
		c.TriggerEffectThreshold = d.TriggerEffectThreshold
	}
	if c.NeutralTopN <= 0 {
		c.NeutralTopN = d.NeutralTopN
	}
	if c.DefaultWindowDays <= 0 {
		c.DefaultWindowDays = d.DefaultWindowDays
	}
	return c
}

// Status tags every report so callers can tell "no signal" from "not enough
// data to look for one".
type Status string

const (
	StatusReady            Status = "ready"
	StatusInsufficientData Status = "insufficient_data"
)

// ValidationError reports a rejected analysis request, such as a
// non-positive window.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// Intelligence runs the temporal analyzers over a Source. Now is the clock
// used for window boundaries; tests override it for fixed output.
type Intelligence struct {
	Source Source
	Config Config
	Now    func() time.Time
}

// New creates an Intelligence with defaults filled in.
func New(src Source, cfg Config) *Intelligence {
	return &Intelligence{
		Source: src,
		Config: cfg.withDefaults(),
		Now:    time.Now,
	}
}

func (ti *Intelligence) clock() time.Time {
	if ti.Now != nil {
		return ti.Now()
	}
	return time.Now()
}

// Window resolves days to an inclusive [from, to] analysis window ending
// now. Zero or negative days is a validation error.
func (ti *Intelligence) Window(days int) (time.Time, time.Time, error) {
	if days <= 0 {
		return time.Time{}, time.Time{}, &ValidationError{
			Msg: fmt.Sprintf("window days must be positive, got %d", days),
		}
	}
	to := ti.clock()
	return to.AddDate(0, 0, -days), to, nil
}

// MoodCycles analyzes weekday and time-of-day mood patterns over the last
// days of entries.
func (ti *Intelligence) MoodCycles(days int) (*MoodCyclesResult, error) {
	from, to, err := ti.Window(days)
	if err != nil {
		return nil, err
	}
	entries, err := ti.Source.EntriesBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return detectMoodCycles(entries, ti.Config), nil
}

// ProjectMomentum classifies each project's mention trajectory over the
// last days.
func (ti *Intelligence) ProjectMomentum(days int) (*MomentumResult, error) {
	from, to, err := ti.Window(days)
	if err != nil {
		return nil, err
	}
	mentions, err := ti.Source.MentionsBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("load mentions: %w", err)
	}
	return trackMomentum(mentions, ti.Config, from, to), nil
}

// EmotionalTriggers mines words that correlate with mood shifts over the
// last days of entries.
func (ti *Intelligence) EmotionalTriggers(days int) (*TriggersResult, error) {
	from, to, err := ti.Window(days)
	if err != nil {
		return nil, err
	}
	entries, err := ti.Source.EntriesBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	return mineTriggers(entries, ti.Config), nil
}

// InsightsReport bundles all three analyses computed from one snapshot.
type InsightsReport struct {
	WindowDays        int               `json:"window_days"`
	GeneratedAt       time.Time         `json:"generated_at"`
	MoodCycles        *MoodCyclesResult `json:"mood_cycles"`
	ProjectMomentum   *MomentumResult   `json:"project_momentum"`
	EmotionalTriggers *TriggersResult   `json:"emotional_triggers"`
}

// Insights pulls the snapshot once and feeds every analyzer from it.
func (ti *Intelligence) Insights(days int) (*InsightsReport, error) {
	from, to, err := ti.Window(days)
	if err != nil {
		return nil, err
	}
	entries, err := ti.Source.EntriesBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	mentions, err := ti.Source.MentionsBetween(from, to)
	if err != nil {
		return nil, fmt.Errorf("load mentions: %w", err)
	}
	return &InsightsReport{
		WindowDays:        days,
		GeneratedAt:       to,
		MoodCycles:        detectMoodCycles(entries, ti.Config),
		ProjectMomentum:   trackMomentum(mentions, ti.Config, from, to),
		EmotionalTriggers: mineTriggers(entries, ti.Config),
	}, nil
}
