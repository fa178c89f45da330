package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/wedsmoker/DiaryML/internal/backup"
)

// maxRestoreBytes caps uploaded backup archives.
const maxRestoreBytes = 1 << 30

// handleBackup streams a zip of the database snapshot and uploads.
func (s *Server) handleBackup(w http.ResponseWriter, r *http.Request) {
	name := backup.ArchiveName(time.Now())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	if err := backup.WriteArchive(w, s.db, s.uploadsDir); err != nil {
		// Headers are already out, so the failure can only be logged.
		log.Printf("write backup: %v", err)
	}
}

// handleRestore replaces the live data with an uploaded archive. The
// swap lands on disk; a restart picks it up.
func (s *Server) handleRestore(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxRestoreBytes)

	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, `{"error":"backup file is required"}`, http.StatusBadRequest)
		return
	}
	defer file.Close()

	// Spool to disk so the zip reader can seek.
	tmp, err := os.CreateTemp("", "diaryml-restore-*.zip")
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	defer os.Remove(tmp.Name())
	defer tmp.Close()

	size, err := io.Copy(tmp, file)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	if err := backup.Restore(tmp, size, s.db.Path, s.uploadsDir); err != nil {
		if errors.Is(err, backup.ErrInvalidArchive) {
			http.Error(w, `{"error":"invalid backup file: diary.db not found"}`, http.StatusBadRequest)
			return
		}
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Backup restored successfully. Please restart the server.",
	})
}
