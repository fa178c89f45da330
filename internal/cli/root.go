package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/wedsmoker/DiaryML/internal/config"
	"github.com/wedsmoker/DiaryML/internal/store"
)

var rootCmd = &cobra.Command{
	Use:   "diaryml",
	Short: "Personal journal with temporal intelligence",
	Long:  "DiaryML is a private journaling backend that detects moods, tracks project momentum, and chats about your entries with a local or hosted language model. Single Go binary, data stays on your machine.",
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(insightsCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}

// dataPaths resolves the database path and uploads directory from cfg,
// falling back to the standard locations under the home directory.
func dataPaths(cfg config.Config) (dbPath, uploadsDir string, err error) {
	dbPath = cfg.Database.Path
	if dbPath == "" {
		dbPath, err = store.DefaultDBPath()
		if err != nil {
			return "", "", fmt.Errorf("resolve db path: %w", err)
		}
	}
	uploadsDir = cfg.Uploads.Dir
	if uploadsDir == "" {
		uploadsDir = filepath.Join(filepath.Dir(dbPath), "uploads")
	}
	return dbPath, uploadsDir, nil
}

// openDB is a helper that opens the database for CLI commands.
func openDB() (*store.DB, error) {
	dbPath, _, err := dataPaths(config.Load())
	if err != nil {
		return nil, err
	}
	return store.Open(dbPath)
}
