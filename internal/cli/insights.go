package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/client"
	"github.com/wedsmoker/DiaryML/internal/store"
	"github.com/wedsmoker/DiaryML/internal/temporal"
)

var (
	insightsDays int
	insightsKind string
	insightsJSON bool
)

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Analyze mood cycles, project momentum and emotional triggers",
	Long:  "Run the temporal analyzers over the journal and print the report. Uses the running server when one is up and unlocked, otherwise reads the database directly.",
	RunE:  runInsights,
}

func init() {
	insightsCmd.Flags().IntVarP(&insightsDays, "days", "d", 0, "Analysis window in days (default 90)")
	insightsCmd.Flags().StringVarP(&insightsKind, "kind", "k", "all", "Section to show: mood, momentum, triggers or all")
	insightsCmd.Flags().BoolVar(&insightsJSON, "json", false, "Print the raw report as JSON")
}

// dbSource adapts the store to the temporal analyzers' Source for
// commands that bypass the server.
type dbSource struct {
	db *store.DB
}

func (d *dbSource) EntriesBetween(from, to time.Time) ([]temporal.Entry, error) {
	entries, err := d.db.EntriesBetween(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]temporal.Entry, len(entries))
	for i, e := range entries {
		out[i] = temporal.Entry{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Content:   e.Content,
			Emotions:  e.Emotions,
		}
	}
	return out, nil
}

func (d *dbSource) MentionsBetween(from, to time.Time) ([]temporal.Mention, error) {
	mentions, err := d.db.ProjectMentionsBetween(from, to)
	if err != nil {
		return nil, err
	}
	out := make([]temporal.Mention, len(mentions))
	for i, m := range mentions {
		out[i] = temporal.Mention{
			EntryID:   m.EntryID,
			Project:   m.Name,
			Type:      m.Type,
			Timestamp: m.Timestamp,
		}
	}
	return out, nil
}

func runInsights(cmd *cobra.Command, args []string) error {
	switch insightsKind {
	case "all", "mood", "momentum", "triggers":
	default:
		return fmt.Errorf("unknown kind %q (want mood, momentum, triggers or all)", insightsKind)
	}

	report, err := fetchInsights()
	if err != nil {
		return err
	}

	if insightsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(insightsSection(report))
	}

	fmt.Printf("## Insights (last %d days)\n\n", report.WindowDays)
	if insightsKind == "all" || insightsKind == "mood" {
		printMoodCycles(report.MoodCycles)
	}
	if insightsKind == "all" || insightsKind == "momentum" {
		printMomentum(report.ProjectMomentum)
	}
	if insightsKind == "all" || insightsKind == "triggers" {
		printTriggers(report.EmotionalTriggers)
	}
	return nil
}

// insightsSection narrows the report to the requested kind for JSON
// output. "all" returns the whole report.
func insightsSection(report *temporal.InsightsReport) any {
	switch insightsKind {
	case "mood":
		return report.MoodCycles
	case "momentum":
		return report.ProjectMomentum
	case "triggers":
		return report.EmotionalTriggers
	}
	return report
}

// fetchInsights prefers the running server so the report matches what the
// UI shows. A locked or absent server falls back to a direct read.
func fetchInsights() (*temporal.InsightsReport, error) {
	c := client.New()
	if c.Healthy() {
		path := "/api/insights"
		if insightsDays > 0 {
			path = fmt.Sprintf("/api/insights?days=%d", insightsDays)
		}
		data, err := c.Get(path)
		if err == nil {
			var report temporal.InsightsReport
			if jsonErr := json.Unmarshal(data, &report); jsonErr == nil {
				return &report, nil
			}
		}
		fmt.Fprintln(os.Stderr, "note: server did not answer; reading the database directly")
	}

	db, err := openDB()
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	ti := temporal.New(&dbSource{db: db}, temporal.Config{})
	days := insightsDays
	if days <= 0 {
		days = ti.Config.DefaultWindowDays
	}
	return ti.Insights(days)
}

func printMoodCycles(res *temporal.MoodCyclesResult) {
	fmt.Printf("Mood cycles: %s (%d entries analyzed)\n", res.Status, res.EntriesAnalyzed)
	if res.Status != temporal.StatusReady {
		fmt.Printf("  %s\n\n", res.Reason)
		return
	}
	if res.BestDay != nil {
		fmt.Printf("  best day:  %s (%+.2f)\n", res.BestDay.Day, res.BestDay.Composite)
	}
	if res.WorstDay != nil {
		fmt.Printf("  worst day: %s (%+.2f)\n", res.WorstDay.Day, res.WorstDay.Composite)
	}
	for _, v := range res.VolatileEmotions {
		fmt.Printf("  volatile:  %s (std dev %.2f over %d entries)\n", v.Emotion, v.StdDev, v.Observations)
	}
	for _, s := range res.Streaks {
		fmt.Printf("  streak:    %s %s to %s (%d entries)\n", s.Emotion, s.Start, s.End, s.Length)
	}
	fmt.Println()
}

func printMomentum(res *temporal.MomentumResult) {
	fmt.Printf("Project momentum: %s (%d projects tracked)\n", res.Status, res.ProjectsTracked)
	if res.Status != temporal.StatusReady {
		fmt.Printf("  %s\n\n", res.Reason)
		return
	}
	for _, p := range res.Accelerating {
		fmt.Printf("  accelerating: %s (%.1fx, %d recent mentions)\n", p.Name, p.GrowthRatio, p.RecentMentions)
	}
	for _, p := range res.Stalled {
		fmt.Printf("  stalled:      %s (%d days quiet, %d mentions)\n", p.Name, p.DaysSinceLastMention, p.TotalMentions)
	}
	for _, p := range res.Consistent {
		fmt.Printf("  consistent:   %s (%.1f mentions/week)\n", p.Name, p.WeeklyAverage)
	}
	if res.Observation != "" {
		fmt.Printf("  %s\n", res.Observation)
	}
	fmt.Println()
}

func printTriggers(res *temporal.TriggersResult) {
	fmt.Printf("Emotional triggers: %s (%d tokens evaluated)\n", res.Status, res.TokensEvaluated)
	if res.Status != temporal.StatusReady {
		fmt.Printf("  %s\n\n", res.Reason)
		return
	}
	for _, t := range res.PositiveTriggers {
		fmt.Printf("  positive: %s (%+.2f across %d entries)\n", t.Word, t.Effect, t.Entries)
	}
	for _, t := range res.NegativeTriggers {
		fmt.Printf("  negative: %s (%+.2f across %d entries)\n", t.Word, t.Effect, t.Entries)
	}
	for _, t := range res.NeutralTopics {
		fmt.Printf("  topic:    %s (%d entries)\n", t.Word, t.Entries)
	}
	fmt.Println()
}
