package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/export"
	"github.com/wedsmoker/DiaryML/internal/patterns"
	"github.com/wedsmoker/DiaryML/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import entries from a JSON Lines export",
	Long:  "Read a JSONL export and add every entry to the journal. Recorded moods are kept, entries without any get fresh mood detection, and project and media mentions are re-extracted either way.",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	records, skipped, err := export.ReadEntries(f)
	if err != nil {
		return err
	}

	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	imported := 0
	for _, rec := range records {
		ts, err := rec.Time()
		if err != nil {
			skipped++
			continue
		}

		entry := &store.Entry{Timestamp: ts, Content: rec.Content, ImagePath: rec.ImagePath}
		if err := db.CreateEntry(entry); err != nil {
			return fmt.Errorf("import entry: %w", err)
		}

		scores := make(emotion.Scores, len(rec.Moods))
		for tag, score := range rec.Moods {
			scores[emotion.Tag(tag)] = score
		}
		scores = scores.Sanitize()
		if len(scores) == 0 {
			scores = emotion.Detect(rec.Content)
		}
		if err := db.SaveMoods(entry.ID, scores); err != nil {
			return fmt.Errorf("import moods for entry %d: %w", entry.ID, err)
		}

		projects := patterns.ExtractProjects(rec.Content)
		pm := make([]store.ProjectMention, len(projects))
		for i, p := range projects {
			pm[i] = store.ProjectMention{Name: p.Name, Type: p.Type}
		}
		if err := db.ReplaceProjectMentions(entry.ID, ts, pm); err != nil {
			return fmt.Errorf("import mentions for entry %d: %w", entry.ID, err)
		}

		media := patterns.ExtractMedia(rec.Content)
		mm := make([]store.MediaMention, len(media))
		for i, m := range media {
			mm[i] = store.MediaMention{Title: m.Title, Type: m.Type}
		}
		if err := db.ReplaceMediaMentions(entry.ID, ts, mm); err != nil {
			return fmt.Errorf("import mentions for entry %d: %w", entry.ID, err)
		}
		imported++
	}

	fmt.Printf("imported %d entries", imported)
	if skipped > 0 {
		fmt.Printf(", skipped %d bad lines", skipped)
	}
	fmt.Println()
	return nil
}
