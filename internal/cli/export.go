package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/export"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export all entries as JSON Lines",
	Long:  "Write every entry with its moods and extracted mentions as JSONL, one entry per line, to the given file or stdout.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runExport,
}

func runExport(cmd *cobra.Command, args []string) error {
	db, err := openDB()
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer db.Close()

	var out io.Writer = os.Stdout
	var f *os.File
	if len(args) > 0 {
		f, err = os.Create(args[0])
		if err != nil {
			return fmt.Errorf("create export file: %w", err)
		}
		out = f
	}

	n, err := export.WriteEntries(out, db)
	if err != nil {
		if f != nil {
			f.Close()
		}
		return err
	}
	if f != nil {
		if err := f.Close(); err != nil {
			return fmt.Errorf("close export file: %w", err)
		}
	}

	fmt.Fprintf(os.Stderr, "exported %d entries\n", n)
	return nil
}
