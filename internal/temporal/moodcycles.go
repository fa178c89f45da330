package temporal

import (
	"fmt"
	"sort"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
)

// WeekdayMood is the averaged composite positivity for one weekday.
type WeekdayMood struct {
	Day       string  `json:"day"`
	Index     int     `json:"index"`
	Composite float64 `json:"composite"`
	Entries   int     `json:"entries"`
}

// VolatileEmotion flags an emotion whose observed scores swing widely.
type VolatileEmotion struct {
	Emotion      string  `json:"emotion"`
	StdDev       float64 `json:"std_dev"`
	Observations int     `json:"observations"`
}

// Streak is a run of consecutive entries sharing a dominant emotion.
type Streak struct {
	Emotion string `json:"emotion"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Length  int    `json:"length"`
}

// MoodCyclesResult is the mood cycle report for one analysis window.
type MoodCyclesResult struct {
	Status           Status                        `json:"status"`
	Reason           string                        `json:"reason,omitempty"`
	EntriesAnalyzed  int                           `json:"entries_analyzed"`
	BestDay          *WeekdayMood                  `json:"best_day,omitempty"`
	WorstDay         *WeekdayMood                  `json:"worst_day,omitempty"`
	WeekdayMoods     []WeekdayMood                 `json:"weekday_moods,omitempty"`
	TimeOfDayMoods   map[string]map[string]float64 `json:"time_of_day_moods,omitempty"`
	VolatileEmotions []VolatileEmotion             `json:"volatile_emotions,omitempty"`
	Streaks          []Streak                      `json:"streaks,omitempty"`
}

// detectMoodCycles builds the mood cycle report from a snapshot. Entries
// without emotion scores are excluded before any mood math runs.
func detectMoodCycles(entries []Entry, cfg Config) *MoodCyclesResult {
	cfg = cfg.withDefaults()
	scored := emotionBearing(entries)

	if len(scored) < cfg.MinEmotionEntries {
		return &MoodCyclesResult{
			Status:          StatusInsufficientData,
			Reason:          fmt.Sprintf("need at least %d entries with emotion scores, have %d", cfg.MinEmotionEntries, len(scored)),
			EntriesAnalyzed: len(scored),
		}
	}

	res := &MoodCyclesResult{Status: StatusReady, EntriesAnalyzed: len(scored)}
	res.WeekdayMoods, res.BestDay, res.WorstDay = weekdayMoods(scored)
	res.TimeOfDayMoods = daypartMoods(scored)
	res.VolatileEmotions = volatileEmotions(scored, cfg)
	res.Streaks = emotionStreaks(scored, cfg)
	return res
}

// emotionBearing filters to entries that carry emotion scores and sorts
// the copy chronologically. The caller's slice is never reordered.
func emotionBearing(entries []Entry) []Entry {
	scored := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if len(e.Emotions) > 0 {
			scored = append(scored, e)
		}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Timestamp.Equal(scored[j].Timestamp) {
			return scored[i].ID < scored[j].ID
		}
		return scored[i].Timestamp.Before(scored[j].Timestamp)
	})
	return scored
}

// weekdayMoods averages per-entry composites by weekday. Weekdays with no
// entries are left out. Ties for best or worst resolve to the lowest index.
func weekdayMoods(entries []Entry) ([]WeekdayMood, *WeekdayMood, *WeekdayMood) {
	var sums [7]float64
	var counts [7]int
	for _, e := range entries {
		idx := weekdayIndex(e.Timestamp)
		sums[idx] += e.Emotions.Composite()
		counts[idx]++
	}

	var moods []WeekdayMood
	for i := 0; i < 7; i++ {
		if counts[i] == 0 {
			continue
		}
		moods = append(moods, WeekdayMood{
			Day:       weekdayNames[i],
			Index:     i,
			Composite: round3(sums[i] / float64(counts[i])),
			Entries:   counts[i],
		})
	}
	if len(moods) == 0 {
		return nil, nil, nil
	}

	best, worst := moods[0], moods[0]
	for _, m := range moods[1:] {
		if m.Composite > best.Composite {
			best = m
		}
		if m.Composite < worst.Composite {
			worst = m
		}
	}
	return moods, &best, &worst
}

// daypartMoods averages each emotion's observed scores within each daypart.
// All four dayparts are present in the result; ones with no entries map to
// an empty set.
func daypartMoods(entries []Entry) map[string]map[string]float64 {
	sums := make(map[string]map[string]float64, 4)
	counts := make(map[string]map[string]int, 4)
	for _, part := range Dayparts {
		sums[part] = make(map[string]float64)
		counts[part] = make(map[string]int)
	}

	for _, e := range entries {
		part := Daypart(e.Timestamp)
		for tag, v := range e.Emotions {
			sums[part][string(tag)] += v
			counts[part][string(tag)]++
		}
	}

	out := make(map[string]map[string]float64, 4)
	for part, tagSums := range sums {
		out[part] = make(map[string]float64, len(tagSums))
		for tag, sum := range tagSums {
			out[part][tag] = round3(sum / float64(counts[part][tag]))
		}
	}
	return out
}

// volatileEmotions reports emotions whose score spread crosses the
// volatility threshold. An emotion needs at least two observations.
func volatileEmotions(entries []Entry, cfg Config) []VolatileEmotion {
	obs := make(map[emotion.Tag][]float64)
	for _, e := range entries {
		for tag, v := range e.Emotions {
			obs[tag] = append(obs[tag], v)
		}
	}

	var out []VolatileEmotion
	for tag, scores := range obs {
		if len(scores) < 2 {
			continue
		}
		sd := stdDev(scores)
		if sd > cfg.VolatilityThreshold {
			out = append(out, VolatileEmotion{
				Emotion:      string(tag),
				StdDev:       round3(sd),
				Observations: len(scores),
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StdDev != out[j].StdDev {
			return out[i].StdDev > out[j].StdDev
		}
		return out[i].Emotion < out[j].Emotion
	})
	return out
}

// emotionStreaks finds maximal runs of entries sharing a dominant emotion.
// Runs shorter than the configured minimum are not reported.
func emotionStreaks(entries []Entry, cfg Config) []Streak {
	type point struct {
		tag emotion.Tag
		ts  time.Time
	}
	var seq []point
	for _, e := range entries {
		if tag, ok := e.Emotions.Dominant(); ok {
			seq = append(seq, point{tag, e.Timestamp})
		}
	}

	var streaks []Streak
	for i := 0; i < len(seq); {
		j := i + 1
		for j < len(seq) && seq[j].tag == seq[i].tag {
			j++
		}
		if j-i >= cfg.StreakMinLength {
			streaks = append(streaks, Streak{
				Emotion: string(seq[i].tag),
				Start:   seq[i].ts.Format(dateLayout),
				End:     seq[j-1].ts.Format(dateLayout),
				Length:  j - i,
			})
		}
		i = j
	}
	return streaks
}
