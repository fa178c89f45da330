package analytics

import (
	"testing"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// 2025-06-15 is a Sunday; the week starts Monday 2025-06-09.
var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

func testAnalytics(t *testing.T) (*Analytics, *store.DB) {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	a := New(db)
	a.Now = func() time.Time { return fixedNow }
	return a, db
}

func addEntry(t *testing.T, db *store.DB, ts time.Time, moods emotion.Scores) int64 {
	t.Helper()
	e := &store.Entry{Timestamp: ts, Content: "entry"}
	if err := db.CreateEntry(e); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	if moods != nil {
		if err := db.SaveMoods(e.ID, moods); err != nil {
			t.Fatalf("SaveMoods: %v", err)
		}
	}
	return e.ID
}

func onDay(day int) time.Time {
	return time.Date(2025, 6, day, 9, 0, 0, 0, time.Local)
}

func TestWritingStreakEmpty(t *testing.T) {
	a, _ := testAnalytics(t)
	s, err := a.WritingStreak()
	if err != nil {
		t.Fatalf("WritingStreak: %v", err)
	}
	if s.Current != 0 || s.Longest != 0 || s.TotalEntries != 0 {
		t.Errorf("empty journal: %+v", s)
	}
	if s.LastEntryDate != "" {
		t.Errorf("LastEntryDate = %q, want empty", s.LastEntryDate)
	}
}

func TestWritingStreakCurrent(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(1), nil)
	addEntry(t, db, onDay(13), nil)
	addEntry(t, db, onDay(14), nil)
	addEntry(t, db, onDay(15), nil)
	addEntry(t, db, onDay(15).Add(8*time.Hour), nil) // second entry same day

	s, err := a.WritingStreak()
	if err != nil {
		t.Fatalf("WritingStreak: %v", err)
	}
	if s.Current != 3 {
		t.Errorf("Current = %d, want 3", s.Current)
	}
	if s.Longest != 3 {
		t.Errorf("Longest = %d, want 3", s.Longest)
	}
	if s.TotalEntries != 5 {
		t.Errorf("TotalEntries = %d, want 5", s.TotalEntries)
	}
	if s.EntriesThisWeek != 4 {
		t.Errorf("EntriesThisWeek = %d, want 4", s.EntriesThisWeek)
	}
	if s.LastEntryDate != "2025-06-15" {
		t.Errorf("LastEntryDate = %q", s.LastEntryDate)
	}
}

func TestWritingStreakEndsYesterday(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(13), nil)
	addEntry(t, db, onDay(14), nil)

	s, err := a.WritingStreak()
	if err != nil {
		t.Fatalf("WritingStreak: %v", err)
	}
	if s.Current != 2 {
		t.Errorf("Current = %d, want 2 for a streak ending yesterday", s.Current)
	}
}

func TestWritingStreakBroken(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(8), nil)
	addEntry(t, db, onDay(9), nil)
	addEntry(t, db, onDay(10), nil)
	addEntry(t, db, onDay(11), nil)
	// Nothing since the 11th; today is the 15th.

	s, err := a.WritingStreak()
	if err != nil {
		t.Fatalf("WritingStreak: %v", err)
	}
	if s.Current != 0 {
		t.Errorf("Current = %d, want 0 after a 3-day gap", s.Current)
	}
	if s.Longest != 4 {
		t.Errorf("Longest = %d, want 4", s.Longest)
	}
}

func TestWritingStreakSingleEntry(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(2), nil)

	s, err := a.WritingStreak()
	if err != nil {
		t.Fatalf("WritingStreak: %v", err)
	}
	if s.Longest != 1 {
		t.Errorf("Longest = %d, want 1", s.Longest)
	}
	if s.Current != 0 {
		t.Errorf("Current = %d, want 0", s.Current)
	}
}

func TestProductivityScore(t *testing.T) {
	a, db := testAnalytics(t)
	// Seven distinct days inside the 14-day window, all joyful.
	for day := 5; day < 12; day++ {
		id := addEntry(t, db, onDay(day), emotion.Scores{emotion.Joy: 0.8})
		if day < 7 {
			err := db.ReplaceProjectMentions(id, onDay(day), []store.ProjectMention{
				{Name: "garden", Type: "personal"},
			})
			if err != nil {
				t.Fatalf("ReplaceProjectMentions: %v", err)
			}
		}
		if day == 8 {
			err := db.ReplaceProjectMentions(id, onDay(day), []store.ProjectMention{
				{Name: "novel", Type: "creative"},
			})
			if err != nil {
				t.Fatalf("ReplaceProjectMentions: %v", err)
			}
		}
	}

	p, err := a.ProductivityScore()
	if err != nil {
		t.Fatalf("ProductivityScore: %v", err)
	}
	if p.DaysWithEntries != 7 {
		t.Errorf("DaysWithEntries = %d, want 7", p.DaysWithEntries)
	}
	if p.CadencePoints != 20.0 {
		t.Errorf("CadencePoints = %v, want 20", p.CadencePoints)
	}
	if p.ActiveProjects != 2 {
		t.Errorf("ActiveProjects = %d, want 2", p.ActiveProjects)
	}
	if p.ProjectPoints != 20.0 {
		t.Errorf("ProjectPoints = %v, want 20", p.ProjectPoints)
	}
	// Composite of {joy: 0.8} is +0.8, mapped to (0.8+1)/2*30 = 27.
	if p.MoodPoints != 27.0 {
		t.Errorf("MoodPoints = %v, want 27", p.MoodPoints)
	}
	if p.Score != 67 {
		t.Errorf("Score = %d, want 67", p.Score)
	}
}

func TestProductivityScoreEmptyWindow(t *testing.T) {
	a, db := testAnalytics(t)
	// Old entry outside the 14-day window.
	addEntry(t, db, time.Date(2025, 1, 1, 9, 0, 0, 0, time.Local), emotion.Scores{emotion.Joy: 1})

	p, err := a.ProductivityScore()
	if err != nil {
		t.Fatalf("ProductivityScore: %v", err)
	}
	if p.Score != 0 {
		t.Errorf("Score = %d, want 0 for an empty window", p.Score)
	}
}

func TestProductivityScoreCapsProjects(t *testing.T) {
	a, db := testAnalytics(t)
	id := addEntry(t, db, onDay(14), nil)
	mentions := []store.ProjectMention{
		{Name: "a", Type: "personal"},
		{Name: "b", Type: "personal"},
		{Name: "c", Type: "personal"},
		{Name: "d", Type: "personal"},
	}
	if err := db.ReplaceProjectMentions(id, onDay(14), mentions); err != nil {
		t.Fatalf("ReplaceProjectMentions: %v", err)
	}

	p, err := a.ProductivityScore()
	if err != nil {
		t.Fatalf("ProductivityScore: %v", err)
	}
	if p.ActiveProjects != 4 {
		t.Errorf("ActiveProjects = %d, want 4", p.ActiveProjects)
	}
	if p.ProjectPoints != 30.0 {
		t.Errorf("ProjectPoints = %v, want 30 (capped)", p.ProjectPoints)
	}
}

func TestTemporalMoodPatternsTrend(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(12), emotion.Scores{emotion.Sadness: 0.5})
	addEntry(t, db, onDay(13), emotion.Scores{emotion.Joy: 0.5, emotion.Sadness: 0.5})
	addEntry(t, db, onDay(14), emotion.Scores{emotion.Joy: 0.5})

	mp, err := a.TemporalMoodPatterns(30)
	if err != nil {
		t.Fatalf("TemporalMoodPatterns: %v", err)
	}
	if len(mp.Days) != 3 {
		t.Fatalf("len(Days) = %d, want 3", len(mp.Days))
	}
	if mp.Days[0].Date != "2025-06-12" || mp.Days[2].Date != "2025-06-14" {
		t.Errorf("days out of order: %v, %v", mp.Days[0].Date, mp.Days[2].Date)
	}
	if mp.Days[0].Positivity != -0.5 {
		t.Errorf("day 1 positivity = %v, want -0.5", mp.Days[0].Positivity)
	}
	if mp.Days[1].Positivity != 0 {
		t.Errorf("day 2 positivity = %v, want 0", mp.Days[1].Positivity)
	}
	// Positivity climbs 0.5 per day.
	if mp.TrendSlope != 0.5 {
		t.Errorf("TrendSlope = %v, want 0.5", mp.TrendSlope)
	}
	if mp.Trend != "improving" {
		t.Errorf("Trend = %q, want improving", mp.Trend)
	}
}

func TestTemporalMoodPatternsAverages(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(10), emotion.Scores{emotion.Joy: 0.4})
	addEntry(t, db, onDay(10).Add(6*time.Hour), emotion.Scores{emotion.Joy: 0.8})

	mp, err := a.TemporalMoodPatterns(30)
	if err != nil {
		t.Fatalf("TemporalMoodPatterns: %v", err)
	}
	if len(mp.Days) != 1 {
		t.Fatalf("len(Days) = %d, want 1", len(mp.Days))
	}
	day := mp.Days[0]
	if day.Entries != 2 {
		t.Errorf("Entries = %d, want 2", day.Entries)
	}
	if got := day.Averages["joy"]; got != 0.6 {
		t.Errorf("joy average = %v, want 0.6", got)
	}
	if mp.Trend != "stable" {
		t.Errorf("Trend = %q, want stable for a single day", mp.Trend)
	}
}

func TestTemporalMoodPatternsDefaultWindow(t *testing.T) {
	a, _ := testAnalytics(t)
	mp, err := a.TemporalMoodPatterns(0)
	if err != nil {
		t.Fatalf("TemporalMoodPatterns: %v", err)
	}
	if mp.WindowDays != 30 {
		t.Errorf("WindowDays = %d, want 30", mp.WindowDays)
	}
}

func TestComprehensive(t *testing.T) {
	a, db := testAnalytics(t)
	addEntry(t, db, onDay(14), emotion.Scores{emotion.Joy: 0.9})

	r, err := a.Comprehensive()
	if err != nil {
		t.Fatalf("Comprehensive: %v", err)
	}
	if r.Streak == nil || r.Productivity == nil || r.Moods == nil {
		t.Fatal("missing report sections")
	}
	if !r.GeneratedAt.Equal(fixedNow) {
		t.Errorf("GeneratedAt = %v", r.GeneratedAt)
	}
	if r.Streak.TotalEntries != 1 {
		t.Errorf("TotalEntries = %d, want 1", r.Streak.TotalEntries)
	}
}

func TestDayNumberConsecutive(t *testing.T) {
	a := time.Date(2025, 2, 28, 23, 0, 0, 0, time.Local)
	b := time.Date(2025, 3, 1, 1, 0, 0, 0, time.Local)
	if dayNumber(b)-dayNumber(a) != 1 {
		t.Errorf("Feb 28 to Mar 1 should differ by one day")
	}
}

func TestStartOfWeek(t *testing.T) {
	got := startOfWeek(fixedNow)
	want := time.Date(2025, 6, 9, 0, 0, 0, 0, time.Local)
	if !got.Equal(want) {
		t.Errorf("startOfWeek = %v, want %v", got, want)
	}
	// A Monday is its own week start.
	mon := time.Date(2025, 6, 9, 15, 0, 0, 0, time.Local)
	if got := startOfWeek(mon); !got.Equal(want) {
		t.Errorf("startOfWeek(Monday) = %v, want %v", got, want)
	}
}

func TestSlope(t *testing.T) {
	if got := slope([]float64{1, 2, 3}, []float64{2, 4, 6}); got != 2 {
		t.Errorf("slope = %v, want 2", got)
	}
	if got := slope([]float64{1}, []float64{2}); got != 0 {
		t.Errorf("slope of one point = %v, want 0", got)
	}
	if got := slope([]float64{5, 5}, []float64{1, 2}); got != 0 {
		t.Errorf("slope with no x spread = %v, want 0", got)
	}
}
