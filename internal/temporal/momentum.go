package temporal

import (
	"fmt"
	"sort"
	"time"
)

// StalledProject is a project with prior activity that has gone quiet.
type StalledProject struct {
	Name                 string `json:"name"`
	DaysSinceLastMention int    `json:"days_since_last_mention"`
	TotalMentions        int    `json:"total_mentions"`
	LastMention          string `json:"last_mention"`
}

// AcceleratingProject is a project whose recent activity outpaces its
// earlier activity.
type AcceleratingProject struct {
	Name           string  `json:"name"`
	GrowthRatio    float64 `json:"growth_ratio"`
	RecentMentions int     `json:"recent_mentions"`
	TotalMentions  int     `json:"total_mentions"`
}

// ConsistentProject is a project mentioned at a steady rate.
type ConsistentProject struct {
	Name          string  `json:"name"`
	WeeklyAverage float64 `json:"weekly_average"`
	TotalMentions int     `json:"total_mentions"`
}

// MomentumResult is the project momentum report for one analysis window.
type MomentumResult struct {
	Status           Status                `json:"status"`
	Reason           string                `json:"reason,omitempty"`
	ProjectsTracked  int                   `json:"projects_tracked"`
	Stalled          []StalledProject      `json:"stalled,omitempty"`
	Accelerating     []AcceleratingProject `json:"accelerating,omitempty"`
	Consistent       []ConsistentProject   `json:"consistent,omitempty"`
	InsufficientData []string              `json:"insufficient_data,omitempty"`
	CommonStallDays  int                   `json:"common_stall_days,omitempty"`
	Observation      string                `json:"observation,omitempty"`
}

// trackMomentum classifies each project's mention trajectory within
// [from, to]. A project lands in at most one category; stall wins over the
// rate-based trends, and single-mention projects are set aside as carrying
// too little signal.
func trackMomentum(mentions []Mention, cfg Config, from, to time.Time) *MomentumResult {
	cfg = cfg.withDefaults()
	if len(mentions) == 0 {
		return &MomentumResult{
			Status: StatusInsufficientData,
			Reason: "no project mentions in window",
		}
	}

	byProject := make(map[string][]Mention)
	for _, m := range mentions {
		byProject[m.Project] = append(byProject[m.Project], m)
	}
	names := make([]string, 0, len(byProject))
	for name := range byProject {
		names = append(names, name)
	}
	sort.Strings(names)

	windowDays := int(to.Sub(from).Hours() / 24)
	nBuckets := (windowDays + cfg.BucketDays - 1) / cfg.BucketDays
	if nBuckets < 2 {
		nBuckets = 2
	}
	half := nBuckets / 2

	res := &MomentumResult{Status: StatusReady, ProjectsTracked: len(names)}
	var stallSpans []float64

	for _, name := range names {
		ms := byProject[name]
		sort.SliceStable(ms, func(i, j int) bool {
			return ms[i].Timestamp.Before(ms[j].Timestamp)
		})

		if len(ms) < 2 {
			res.InsufficientData = append(res.InsufficientData, name)
			continue
		}

		first := ms[0].Timestamp
		last := ms[len(ms)-1].Timestamp
		daysSinceLast := int(to.Sub(last).Hours() / 24)

		if daysSinceLast >= cfg.StallGapDays {
			res.Stalled = append(res.Stalled, StalledProject{
				Name:                 name,
				DaysSinceLastMention: daysSinceLast,
				TotalMentions:        len(ms),
				LastMention:          last.Format(dateLayout),
			})
			stallSpans = append(stallSpans, last.Sub(first).Hours()/24)
			continue
		}

		counts := make([]float64, nBuckets)
		for _, m := range ms {
			b := bucketIndex(from, m.Timestamp, cfg.BucketDays)
			if b >= nBuckets {
				b = nBuckets - 1
			}
			counts[b]++
		}
		var earlier, later float64
		for i, c := range counts {
			if i < half {
				earlier += c
			} else {
				later += c
			}
		}

		// With an empty earlier half the true ratio is unbounded; report
		// the recent count itself so the JSON stays finite.
		ratio := later
		if earlier > 0 {
			ratio = later / earlier
		}
		if later >= float64(cfg.AccelMinMentions) && ratio >= cfg.AccelGrowthRatio {
			res.Accelerating = append(res.Accelerating, AcceleratingProject{
				Name:           name,
				GrowthRatio:    round3(ratio),
				RecentMentions: int(later),
				TotalMentions:  len(ms),
			})
			continue
		}

		if cv := coefficientOfVariation(counts); cv < cfg.ConsistencyMaxCV && nonzeroCount(counts) >= 2 {
			res.Consistent = append(res.Consistent, ConsistentProject{
				Name:          name,
				WeeklyAverage: round3(mean(counts)),
				TotalMentions: len(ms),
			})
		}
	}

	sort.Slice(res.Stalled, func(i, j int) bool {
		if res.Stalled[i].DaysSinceLastMention != res.Stalled[j].DaysSinceLastMention {
			return res.Stalled[i].DaysSinceLastMention > res.Stalled[j].DaysSinceLastMention
		}
		return res.Stalled[i].Name < res.Stalled[j].Name
	})
	sort.Slice(res.Accelerating, func(i, j int) bool {
		if res.Accelerating[i].GrowthRatio != res.Accelerating[j].GrowthRatio {
			return res.Accelerating[i].GrowthRatio > res.Accelerating[j].GrowthRatio
		}
		return res.Accelerating[i].Name < res.Accelerating[j].Name
	})
	sort.Slice(res.Consistent, func(i, j int) bool {
		if res.Consistent[i].WeeklyAverage != res.Consistent[j].WeeklyAverage {
			return res.Consistent[i].WeeklyAverage > res.Consistent[j].WeeklyAverage
		}
		return res.Consistent[i].Name < res.Consistent[j].Name
	})

	if len(stallSpans) > 0 {
		res.CommonStallDays = int(median(stallSpans) + 0.5)
		if res.CommonStallDays > 0 {
			res.Observation = fmt.Sprintf("stalled projects typically ran about %d days before going quiet", res.CommonStallDays)
		}
	}
	return res
}

func nonzeroCount(xs []float64) int {
	n := 0
	for _, x := range xs {
		if x != 0 {
			n++
		}
	}
	return n
}
