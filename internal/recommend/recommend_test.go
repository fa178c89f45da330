package recommend

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/store"
)

var fixedNow = time.Date(2025, 6, 15, 9, 0, 0, 0, time.Local)

func TestPartOfDay(t *testing.T) {
	cases := []struct {
		hour int
		want string
	}{
		{6, "Good morning"},
		{11, "Good morning"},
		{12, "Good afternoon"},
		{16, "Good afternoon"},
		{17, "Good evening"},
		{20, "Good evening"},
		{21, "Up late"},
		{3, "Up late"},
	}
	for _, c := range cases {
		at := time.Date(2025, 6, 15, c.hour, 0, 0, 0, time.Local)
		if got := partOfDay(at); got != c.want {
			t.Errorf("partOfDay(%02d:00) = %q, want %q", c.hour, got, c.want)
		}
	}
}

func TestGreetingWithProject(t *testing.T) {
	in := Input{
		Now: fixedNow,
		Projects: []store.ProjectActivity{
			{Name: "garden", LastMention: fixedNow.Add(-24 * time.Hour)},
		},
	}
	s := Daily(in)
	if !strings.HasPrefix(s.Greeting, "Good morning!") {
		t.Errorf("greeting = %q", s.Greeting)
	}
	if !strings.Contains(s.Greeting, "garden") {
		t.Errorf("greeting should name the top project, got %q", s.Greeting)
	}
}

func TestGreetingEmptyJournal(t *testing.T) {
	s := Daily(Input{Now: fixedNow})
	want := "Good morning! Start capturing your thoughts and creative journey."
	if s.Greeting != want {
		t.Errorf("greeting = %q, want %q", s.Greeting, want)
	}
}

func TestProjectNudges(t *testing.T) {
	in := Input{
		Now: fixedNow,
		Projects: []store.ProjectActivity{
			{Name: "garden", LastMention: fixedNow.Add(-2 * 24 * time.Hour)},
			{Name: "novel", LastMention: fixedNow.Add(-10 * 24 * time.Hour)},
		},
	}
	s := Daily(in)
	if len(s.Projects) != 2 {
		t.Fatalf("len(Projects) = %d, want 2", len(s.Projects))
	}
	if !strings.Contains(s.Projects[0], "momentum") || !strings.Contains(s.Projects[0], "garden") {
		t.Errorf("active project nudge = %q", s.Projects[0])
	}
	if !strings.Contains(s.Projects[1], "10 days") || !strings.Contains(s.Projects[1], "novel") {
		t.Errorf("stalled project nudge = %q", s.Projects[1])
	}
}

func TestProjectNudgesCapped(t *testing.T) {
	in := Input{Now: fixedNow}
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		in.Projects = append(in.Projects, store.ProjectActivity{
			Name: name, LastMention: fixedNow.Add(-24 * time.Hour),
		})
	}
	if s := Daily(in); len(s.Projects) != 3 {
		t.Errorf("len(Projects) = %d, want 3", len(s.Projects))
	}
}

func TestCreativePromptTracksMood(t *testing.T) {
	upbeat := Daily(Input{Now: fixedNow, Mood: emotion.Scores{emotion.Joy: 0.8}})
	gentle := Daily(Input{Now: fixedNow, Mood: emotion.Scores{emotion.Sadness: 0.8}})
	steady := Daily(Input{Now: fixedNow})

	// June 15 is day 166 of 2025; 166 % 4 = 2.
	if upbeat.Creative[0] != upbeatPrompts[2] {
		t.Errorf("upbeat prompt = %q", upbeat.Creative[0])
	}
	if gentle.Creative[0] != gentlePrompts[2] {
		t.Errorf("gentle prompt = %q", gentle.Creative[0])
	}
	if steady.Creative[0] != steadyPrompts[2] {
		t.Errorf("steady prompt = %q", steady.Creative[0])
	}
}

func TestMediaSuggestions(t *testing.T) {
	bare := Daily(Input{Now: fixedNow})
	if len(bare.Media) != 1 {
		t.Fatalf("len(Media) = %d, want 1 with no mentions", len(bare.Media))
	}

	in := Input{
		Now: fixedNow,
		Media: []store.MediaMention{
			{Title: "The Matrix", Type: "watching", Timestamp: fixedNow.Add(-72 * time.Hour)},
			{Title: "Project Hail Mary", Type: "reading", Timestamp: fixedNow.Add(-24 * time.Hour)},
		},
	}
	s := Daily(in)
	if len(s.Media) != 2 {
		t.Fatalf("len(Media) = %d, want 2", len(s.Media))
	}
	// The newest mention wins regardless of slice order.
	if !strings.Contains(s.Media[0], "Project Hail Mary") {
		t.Errorf("media suggestion = %q", s.Media[0])
	}
}

func TestDailyDeterministic(t *testing.T) {
	in := Input{
		Now:  fixedNow,
		Mood: emotion.Scores{emotion.Joy: 0.6},
		Projects: []store.ProjectActivity{
			{Name: "garden", LastMention: fixedNow.Add(-24 * time.Hour)},
		},
	}
	a, b := Daily(in), Daily(in)
	if !reflect.DeepEqual(a, b) {
		t.Errorf("same input produced different suggestions:\n%+v\n%+v", a, b)
	}
}
