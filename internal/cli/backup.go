package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/backup"
	"github.com/wedsmoker/DiaryML/internal/client"
	"github.com/wedsmoker/DiaryML/internal/config"
	"github.com/wedsmoker/DiaryML/internal/store"
)

var backupCmd = &cobra.Command{
	Use:   "backup [file]",
	Short: "Write a zip archive of the database and uploads",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	dbPath, uploadsDir, err := dataPaths(config.Load())
	if err != nil {
		return err
	}

	db, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	name := backup.ArchiveName(time.Now())
	if len(args) > 0 {
		name = args[0]
	}
	f, err := os.Create(name)
	if err != nil {
		return fmt.Errorf("create archive: %w", err)
	}
	if err := backup.WriteArchive(f, db, uploadsDir); err != nil {
		f.Close()
		os.Remove(name)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close archive: %w", err)
	}

	fmt.Printf("wrote %s\n", name)
	return nil
}

var restoreCmd = &cobra.Command{
	Use:   "restore <file>",
	Short: "Restore the journal from a backup archive",
	Long:  "Unpack a backup zip over the current database and uploads. The replaced files are stashed in backup_before_restore next to the database.",
	Args:  cobra.ExactArgs(1),
	RunE:  runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	dbPath, uploadsDir, err := dataPaths(config.Load())
	if err != nil {
		return err
	}

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat archive: %w", err)
	}

	if client.New().Healthy() {
		fmt.Fprintln(os.Stderr, "warning: a server is running; restart it after the restore")
	}

	if err := backup.Restore(f, info.Size(), dbPath, uploadsDir); err != nil {
		return err
	}

	fmt.Printf("restored from %s\n", args[0])
	fmt.Printf("previous data stashed in %s\n", filepath.Join(filepath.Dir(dbPath), "backup_before_restore"))
	return nil
}
