// Package analytics computes journaling statistics over the stored
// entries: writing streaks, a creative productivity score, and
// day-by-day mood patterns. Everything here is read-only.
package analytics

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// productivityWindow is the lookback, in days, graded by ProductivityScore.
const productivityWindow = 14

// Analytics reads the journal and derives statistics from it.
type Analytics struct {
	DB *store.DB

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// New returns an Analytics over db.
func New(db *store.DB) *Analytics {
	return &Analytics{DB: db}
}

func (a *Analytics) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

// Streak summarizes journaling regularity.
type Streak struct {
	Current         int    `json:"current_streak"`
	Longest         int    `json:"longest_streak"`
	TotalEntries    int    `json:"total_entries"`
	EntriesThisWeek int    `json:"entries_this_week"`
	LastEntryDate   string `json:"last_entry_date,omitempty"`
}

// WritingStreak computes the current and longest runs of consecutive
// days with at least one entry. The current streak survives a gap of
// zero days only: it must end today or yesterday.
func (a *Analytics) WritingStreak() (*Streak, error) {
	times, err := a.DB.EntryTimes()
	if err != nil {
		return nil, fmt.Errorf("writing streak: %w", err)
	}

	s := &Streak{TotalEntries: len(times)}
	if len(times) == 0 {
		return s, nil
	}

	now := a.now()
	weekStart := startOfWeek(now)
	for _, t := range times {
		if !t.Before(weekStart) {
			s.EntriesThisWeek++
		}
	}

	days := distinctDays(times)
	last := days[len(days)-1]
	s.LastEntryDate = last.date

	run := 1
	for i := 1; i < len(days); i++ {
		if days[i].num == days[i-1].num+1 {
			run++
		} else {
			run = 1
		}
		if run > s.Longest {
			s.Longest = run
		}
	}
	if s.Longest == 0 {
		s.Longest = 1
	}

	today := dayNumber(now)
	if last.num == today || last.num == today-1 {
		s.Current = 1
		for i := len(days) - 2; i >= 0; i-- {
			if days[i].num != days[i+1].num-1 {
				break
			}
			s.Current++
		}
	}
	return s, nil
}

// Productivity is a 0-100 grade of recent creative output.
type Productivity struct {
	Score           int     `json:"score"`
	CadencePoints   float64 `json:"cadence_points"`
	ProjectPoints   float64 `json:"project_points"`
	MoodPoints      float64 `json:"mood_points"`
	DaysWithEntries int     `json:"days_with_entries"`
	ActiveProjects  int     `json:"active_projects"`
	WindowDays      int     `json:"window_days"`
}

// ProductivityScore grades the last two weeks on a 0-100 scale:
//
//	cadence   0-40  days with at least one entry, out of the window
//	projects  0-30  distinct projects mentioned, full marks at 3
//	mood      0-30  mean positivity mapped from [-1, 1]
//
// A window with no entries scores zero. Entries without detected
// emotions grade as neutral mood (half marks).
func (a *Analytics) ProductivityScore() (*Productivity, error) {
	now := a.now()
	since := now.AddDate(0, 0, -productivityWindow)

	entries, err := a.DB.EntriesBetween(since, now)
	if err != nil {
		return nil, fmt.Errorf("productivity: %w", err)
	}
	p := &Productivity{WindowDays: productivityWindow}
	if len(entries) == 0 {
		return p, nil
	}

	seen := make(map[int]bool)
	var moods []float64
	for _, e := range entries {
		seen[dayNumber(e.Timestamp)] = true
		if len(e.Emotions) > 0 {
			moods = append(moods, e.Emotions.Composite())
		}
	}
	p.DaysWithEntries = len(seen)
	p.CadencePoints = round1(float64(p.DaysWithEntries) / productivityWindow * 40)

	projects, err := a.DB.ActiveProjects(since)
	if err != nil {
		return nil, fmt.Errorf("productivity: %w", err)
	}
	p.ActiveProjects = len(projects)
	active := float64(p.ActiveProjects)
	if active > 3 {
		active = 3
	}
	p.ProjectPoints = round1(active / 3 * 30)

	positivity := 0.0
	if len(moods) > 0 {
		positivity = mean(moods)
	}
	p.MoodPoints = round1((positivity + 1) / 2 * 30)

	p.Score = int(math.Round(p.CadencePoints + p.ProjectPoints + p.MoodPoints))
	return p, nil
}

// DayMood is one calendar day's averaged emotions.
type DayMood struct {
	Date       string             `json:"date"`
	Entries    int                `json:"entries"`
	Averages   map[string]float64 `json:"averages,omitempty"`
	Positivity float64            `json:"positivity"`
}

// MoodPatterns is a per-day mood timeline with an overall trend.
type MoodPatterns struct {
	WindowDays int       `json:"window_days"`
	Days       []DayMood `json:"days"`
	Trend      string    `json:"trend"`
	TrendSlope float64   `json:"trend_slope"`
}

// TemporalMoodPatterns averages emotions per calendar day over the last
// `days` days and fits a least-squares line through the daily positivity
// to label the window improving, declining, or stable. Days without
// entries are omitted rather than zero-filled.
func (a *Analytics) TemporalMoodPatterns(days int) (*MoodPatterns, error) {
	if days <= 0 {
		days = 30
	}
	now := a.now()
	since := now.AddDate(0, 0, -days)

	entries, err := a.DB.EntriesBetween(since, now)
	if err != nil {
		return nil, fmt.Errorf("mood patterns: %w", err)
	}

	type acc struct {
		num   int
		count int
		sums  map[emotion.Tag]float64
		tagN  map[emotion.Tag]int
		moods []float64
	}
	byDate := make(map[string]*acc)
	for _, e := range entries {
		key := e.Timestamp.Format("2006-01-02")
		bucket := byDate[key]
		if bucket == nil {
			bucket = &acc{
				num:  dayNumber(e.Timestamp),
				sums: make(map[emotion.Tag]float64),
				tagN: make(map[emotion.Tag]int),
			}
			byDate[key] = bucket
		}
		bucket.count++
		for tag, score := range e.Emotions {
			bucket.sums[tag] += score
			bucket.tagN[tag]++
		}
		if len(e.Emotions) > 0 {
			bucket.moods = append(bucket.moods, e.Emotions.Composite())
		}
	}

	out := &MoodPatterns{WindowDays: days, Trend: "stable"}
	dates := make([]string, 0, len(byDate))
	for d := range byDate {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var xs, ys []float64
	for _, date := range dates {
		bucket := byDate[date]
		dm := DayMood{Date: date, Entries: bucket.count}
		if len(bucket.sums) > 0 {
			dm.Averages = make(map[string]float64, len(bucket.sums))
			for tag, sum := range bucket.sums {
				dm.Averages[string(tag)] = round3(sum / float64(bucket.tagN[tag]))
			}
		}
		if len(bucket.moods) > 0 {
			dm.Positivity = round3(mean(bucket.moods))
			xs = append(xs, float64(bucket.num))
			ys = append(ys, dm.Positivity)
		}
		out.Days = append(out.Days, dm)
	}

	out.TrendSlope = round3(slope(xs, ys))
	switch {
	case out.TrendSlope > 0.01:
		out.Trend = "improving"
	case out.TrendSlope < -0.01:
		out.Trend = "declining"
	}
	return out, nil
}

// Project is an active project summarized for reports.
type Project struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Mentions     int    `json:"mentions"`
	FirstMention string `json:"first_mention"`
	LastMention  string `json:"last_mention"`
}

// Report bundles every analytics view into a single payload.
type Report struct {
	Streak       *Streak       `json:"streak"`
	Productivity *Productivity `json:"productivity"`
	Moods        *MoodPatterns `json:"moods"`
	Projects     []Project     `json:"projects"`
	GeneratedAt  time.Time     `json:"generated_at"`
}

// Comprehensive runs every analysis and returns them together. Moods
// cover the last 30 days, projects the last 90.
func (a *Analytics) Comprehensive() (*Report, error) {
	streak, err := a.WritingStreak()
	if err != nil {
		return nil, err
	}
	prod, err := a.ProductivityScore()
	if err != nil {
		return nil, err
	}
	moods, err := a.TemporalMoodPatterns(30)
	if err != nil {
		return nil, err
	}
	active, err := a.DB.ActiveProjects(a.now().AddDate(0, 0, -90))
	if err != nil {
		return nil, fmt.Errorf("comprehensive: %w", err)
	}
	projects := make([]Project, len(active))
	for i, p := range active {
		projects[i] = Project{
			Name:         p.Name,
			Type:         p.Type,
			Mentions:     p.Mentions,
			FirstMention: p.FirstMention.Format("2006-01-02"),
			LastMention:  p.LastMention.Format("2006-01-02"),
		}
	}
	return &Report{
		Streak:       streak,
		Productivity: prod,
		Moods:        moods,
		Projects:     projects,
		GeneratedAt:  a.now(),
	}, nil
}

type day struct {
	num  int
	date string
}

// distinctDays collapses timestamps to unique calendar days, ascending.
func distinctDays(times []time.Time) []day {
	seen := make(map[int]string)
	for _, t := range times {
		n := dayNumber(t)
		if _, ok := seen[n]; !ok {
			seen[n] = t.Format("2006-01-02")
		}
	}
	days := make([]day, 0, len(seen))
	for n, date := range seen {
		days = append(days, day{num: n, date: date})
	}
	sort.Slice(days, func(i, j int) bool { return days[i].num < days[j].num })
	return days
}

// dayNumber maps a wall-clock date to a count of days, so consecutive
// calendar days differ by exactly one regardless of DST.
func dayNumber(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// startOfWeek returns midnight of the Monday on or before t.
func startOfWeek(t time.Time) time.Time {
	idx := (int(t.Weekday()) + 6) % 7 // Monday = 0
	y, m, d := t.AddDate(0, 0, -idx).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// slope returns the least-squares slope of y over x, zero for fewer
// than two points or a degenerate x spread.
func slope(xs, ys []float64) float64 {
	if len(xs) < 2 || len(xs) != len(ys) {
		return 0
	}
	n := float64(len(xs))
	var sumX, sumY, sumXY, sumXX float64
	for i := range xs {
		sumX += xs[i]
		sumY += ys[i]
		sumXY += xs[i] * ys[i]
		sumXX += xs[i] * xs[i]
	}
	den := n*sumXX - sumX*sumX
	if den == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / den
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
