// Package recommend builds the daily greeting and its suggestion lists.
// Everything here is rule-based and deterministic: the same journal
// state on the same day produces the same suggestions. When an LLM
// provider is configured the server may rewrite the greeting line, but
// the suggestions always come from these rules.
package recommend

import (
	"fmt"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// stalledAfter is how long a project can go unmentioned before the
// daily nudge switches from momentum to pick-it-back-up.
const stalledAfter = 7 * 24 * time.Hour

// Input is the journal state the suggestions are derived from.
type Input struct {
	Now      time.Time
	Projects []store.ProjectActivity // active projects, most mentioned first
	Mood     emotion.Scores          // averaged recent scores, may be nil
	Media    []store.MediaMention    // recent media mentions, any order
}

// Suggestions is the daily-greeting payload.
type Suggestions struct {
	Greeting string   `json:"greeting"`
	Projects []string `json:"projects"`
	Creative []string `json:"creative"`
	Media    []string `json:"media"`
}

var upbeatPrompts = []string{
	"Riding a good streak. Write down what is fueling it while it is fresh.",
	"Good energy lately. Sketch an idea you have been saving for a better day.",
	"Things are looking up. Capture one thing you want to remember about this week.",
	"You sound upbeat. Start something small and new today.",
}

var gentlePrompts = []string{
	"Rough stretch lately. A short entry about one small good thing still counts.",
	"No pressure today. Describe where you are, nothing more.",
	"Heavy days deserve gentle pages. Write three sentences and stop there.",
	"Revisit an old entry from a better week and note what has changed.",
}

var steadyPrompts = []string{
	"Write about something ordinary that you would miss if it were gone.",
	"Describe today to a stranger in five sentences.",
	"Pick one moment from today and slow it down on the page.",
	"What is taking up space in your head right now? Put it down here.",
}

var mediaPrompts = []string{
	"Put on an album you have not heard in a year.",
	"Queue up something you have been meaning to watch.",
	"Read one chapter of anything tonight.",
	"Revisit a favorite and note whether it holds up.",
}

// Daily derives the greeting and suggestion lists from the input.
func Daily(in Input) *Suggestions {
	s := &Suggestions{Greeting: greeting(in)}

	for i, p := range in.Projects {
		if i == 3 {
			break
		}
		idle := in.Now.Sub(p.LastMention)
		if idle >= stalledAfter {
			days := int(idle.Hours() / 24)
			s.Projects = append(s.Projects,
				fmt.Sprintf("It has been %d days since you touched %s. Even a small step counts.", days, p.Name))
		} else {
			s.Projects = append(s.Projects,
				fmt.Sprintf("Keep the momentum going on %s.", p.Name))
		}
	}

	s.Creative = []string{pick(creativePrompts(in.Mood), in.Now)}

	if latest, ok := latestMedia(in.Media); ok {
		s.Media = append(s.Media,
			fmt.Sprintf("You mentioned %s recently. Maybe make time for it tonight.", latest.Title))
	}
	s.Media = append(s.Media, pick(mediaPrompts, in.Now))

	return s
}

// greeting builds the fallback greeting line, used verbatim when no LLM
// provider is available to rewrite it.
func greeting(in Input) string {
	base := partOfDay(in.Now)
	if len(in.Projects) > 0 {
		return fmt.Sprintf("%s! Ready to continue working on %s?", base, in.Projects[0].Name)
	}
	return base + "! Start capturing your thoughts and creative journey."
}

func partOfDay(t time.Time) string {
	h := t.Hour()
	switch {
	case h >= 5 && h < 12:
		return "Good morning"
	case h >= 12 && h < 17:
		return "Good afternoon"
	case h >= 17 && h < 21:
		return "Good evening"
	default:
		return "Up late"
	}
}

func creativePrompts(mood emotion.Scores) []string {
	switch p := mood.Composite(); {
	case p > 0.25:
		return upbeatPrompts
	case p < -0.25:
		return gentlePrompts
	default:
		return steadyPrompts
	}
}

// pick rotates through the list by day of year, so the prompt changes
// daily without randomness.
func pick(list []string, now time.Time) string {
	return list[now.YearDay()%len(list)]
}

func latestMedia(media []store.MediaMention) (store.MediaMention, bool) {
	if len(media) == 0 {
		return store.MediaMention{}, false
	}
	latest := media[0]
	for _, m := range media[1:] {
		if m.Timestamp.After(latest.Timestamp) {
			latest = m
		}
	}
	return latest, true
}
