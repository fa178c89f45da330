package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-chi/chi/v5"
	_ "golang.org/x/image/webp"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/patterns"
	"github.com/wedsmoker/DiaryML/internal/store"
)

// maxUploadBytes caps multipart entry uploads, image included.
const maxUploadBytes = 32 << 20

// entryTimeLayout is the canonical timestamp format used on the wire.
const entryTimeLayout = "2006-01-02T15:04:05"

// entryPayload is the JSON shape of an entry across the API.
type entryPayload struct {
	ID        int64              `json:"id"`
	Timestamp string             `json:"timestamp"`
	Content   string             `json:"content"`
	ImagePath string             `json:"image_path,omitempty"`
	CreatedAt string             `json:"created_at"`
	UpdatedAt string             `json:"updated_at"`
	Moods     map[string]float64 `json:"moods,omitempty"`
}

func toPayload(e store.Entry) entryPayload {
	p := entryPayload{
		ID:        e.ID,
		Timestamp: e.Timestamp.Format(entryTimeLayout),
		Content:   e.Content,
		ImagePath: e.ImagePath,
		CreatedAt: e.CreatedAt.Format(entryTimeLayout),
		UpdatedAt: e.UpdatedAt.Format(entryTimeLayout),
	}
	if len(e.Emotions) > 0 {
		p.Moods = make(map[string]float64, len(e.Emotions))
		for tag, score := range e.Emotions {
			p.Moods[string(tag)] = score
		}
	}
	return p
}

func toPayloads(entries []store.Entry) []entryPayload {
	out := make([]entryPayload, len(entries))
	for i, e := range entries {
		out[i] = toPayload(e)
	}
	return out
}

// parseEntryTime accepts the timestamp formats clients actually send.
// An empty or unparseable value falls back to now.
func parseEntryTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Now()
	}
	layouts := []string{
		entryTimeLayout,
		time.RFC3339,
		"2006-01-02 15:04:05",
		"2006-01-02",
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t
		}
	}
	return time.Now()
}

// processEntry runs mood detection, pattern extraction and vector
// indexing for new or changed entry text. Failures in any one stage are
// logged and do not block the others.
func (s *Server) processEntry(ctx context.Context, e *store.Entry) (emotion.Scores, []patterns.ProjectMention) {
	scores := emotion.Detect(e.Content)
	if err := s.db.SaveMoods(e.ID, scores); err != nil {
		log.Printf("save moods for entry %d: %v", e.ID, err)
	}
	e.Emotions = scores

	projects := patterns.ExtractProjects(e.Content)
	pm := make([]store.ProjectMention, len(projects))
	for i, p := range projects {
		pm[i] = store.ProjectMention{Name: p.Name, Type: p.Type}
	}
	if err := s.db.ReplaceProjectMentions(e.ID, e.Timestamp, pm); err != nil {
		log.Printf("save project mentions for entry %d: %v", e.ID, err)
	}

	media := patterns.ExtractMedia(e.Content)
	mm := make([]store.MediaMention, len(media))
	for i, m := range media {
		mm[i] = store.MediaMention{Title: m.Title, Type: m.Type}
	}
	if err := s.db.ReplaceMediaMentions(e.ID, e.Timestamp, mm); err != nil {
		log.Printf("save media mentions for entry %d: %v", e.ID, err)
	}

	if s.index != nil {
		if err := s.index.IndexEntry(ctx, e); err != nil {
			log.Printf("index entry %d: %v", e.ID, err)
		}
	}
	return scores, projects
}

// handleCreateEntry accepts a multipart form with content, an optional
// timestamp and an optional image attachment.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusBadRequest)
		return
	}
	ts := parseEntryTime(r.FormValue("timestamp"))

	// Image first, so a bad upload never leaves a half-made entry.
	imagePath := ""
	if file, header, err := r.FormFile("image"); err == nil {
		defer file.Close()
		imagePath, err = s.saveImage(file, header.Filename, ts)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusBadRequest)
			return
		}
	}

	entry := &store.Entry{Timestamp: ts, Content: content, ImagePath: imagePath}
	if err := s.db.CreateEntry(entry); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	scores, projects := s.processEntry(r.Context(), entry)

	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"entry_id": entry.ID,
		"emotions": scores,
		"projects": names,
	})
}

// saveImage verifies the upload decodes as an image and writes it under
// the uploads directory as <unix ts>_<original name>.
func (s *Server) saveImage(file io.Reader, filename string, ts time.Time) (string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	if _, _, err := image.DecodeConfig(bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("unsupported image format")
	}

	name := filepath.Base(filename)
	if name == "." || name == string(filepath.Separator) || name == "" {
		name = "upload"
	}
	name = fmt.Sprintf("%d_%s", ts.Unix(), name)

	if err := os.MkdirAll(s.uploadsDir, 0o755); err != nil {
		return "", fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.uploadsDir, name), data, 0o644); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	return name, nil
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 10)
	if limit <= 0 {
		limit = 10
	}
	offset := queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	entries, err := s.db.RecentEntries(limit + offset)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if offset < len(entries) {
		entries = entries[offset:]
	} else {
		entries = nil
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"entries": toPayloads(entries)})
}

// entryID pulls the {entryID} route parameter. The second return is
// false after an error response has been written.
func entryID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "entryID"), 10, 64)
	if err != nil {
		http.Error(w, `{"error":"invalid entry id"}`, http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (s *Server) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := s.db.GetEntry(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, `{"error":"entry not found"}`, http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toPayload(*entry))
}

// handleUpdateEntry rewrites an entry's content and optionally moves its
// timestamp, then re-runs detection, extraction and indexing.
func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := s.db.GetEntry(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, `{"error":"entry not found"}`, http.StatusNotFound)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	content := strings.TrimSpace(r.FormValue("content"))
	if content == "" {
		http.Error(w, `{"error":"content is required"}`, http.StatusBadRequest)
		return
	}
	if err := s.db.UpdateEntryContent(id, content); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	entry.Content = content

	if raw := strings.TrimSpace(r.FormValue("timestamp")); raw != "" {
		ts := parseEntryTime(raw)
		if err := s.db.SetEntryTimestamp(id, ts); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		entry.Timestamp = ts
	}

	scores, projects := s.processEntry(r.Context(), entry)

	names := make([]string, len(projects))
	for i, p := range projects {
		names[i] = p.Name
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"entry_id": id,
		"emotions": scores,
		"projects": names,
	})
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := entryID(w, r)
	if !ok {
		return
	}
	entry, err := s.db.GetEntry(id)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if entry == nil {
		http.Error(w, `{"error":"entry not found"}`, http.StatusNotFound)
		return
	}

	if s.index != nil {
		if err := s.index.RemoveEntry(id); err != nil {
			log.Printf("remove entry %d from index: %v", id, err)
		}
	}
	if err := s.db.DeleteEntry(id); err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success": true,
		"message": "Entry deleted",
	})
}

// handleSearch filters entries by text query, date range and emotions.
// All parameters are optional; with none it returns recent entries.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	limit := queryInt(r, "limit", 50)
	if limit <= 0 {
		limit = 50
	}

	var start, end time.Time
	hasRange := false
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			start = t
			hasRange = true
		}
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		if t, err := time.ParseInLocation("2006-01-02", raw, time.Local); err == nil {
			// Inclusive of the whole end day.
			end = t.Add(24*time.Hour - time.Second)
			hasRange = true
		}
	}

	var tags []emotion.Tag
	if raw := r.URL.Query().Get("emotions"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			tag, ok := emotion.ParseTag(strings.ToLower(strings.TrimSpace(part)))
			if !ok {
				http.Error(w, `{"error":"unknown emotion: `+part+`"}`, http.StatusBadRequest)
				return
			}
			tags = append(tags, tag)
		}
	}

	var entries []store.Entry
	var err error
	switch {
	case q != "":
		// Over-fetch so post-filters still fill the page.
		fetch := limit
		if hasRange || len(tags) > 0 {
			fetch = limit * 4
		}
		entries, err = s.db.SearchEntries(q, fetch)
	case hasRange:
		if start.IsZero() {
			start = time.Date(1, 1, 1, 0, 0, 0, 0, time.Local)
		}
		if end.IsZero() {
			end = time.Date(9999, 12, 31, 23, 59, 59, 0, time.Local)
		}
		entries, err = s.db.EntriesBetween(start, end)
		// EntriesBetween is oldest first; search results are newest first.
		for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
			entries[i], entries[j] = entries[j], entries[i]
		}
	default:
		entries, err = s.db.RecentEntries(limit * 4)
	}
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	var results []store.Entry
	for _, e := range entries {
		if hasRange && q != "" {
			if !start.IsZero() && e.Timestamp.Before(start) {
				continue
			}
			if !end.IsZero() && e.Timestamp.After(end) {
				continue
			}
		}
		if len(tags) > 0 && !hasAnyEmotion(e.Emotions, tags) {
			continue
		}
		results = append(results, e)
		if len(results) >= limit {
			break
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"results": toPayloads(results),
		"count":   len(results),
	})
}

func hasAnyEmotion(scores emotion.Scores, tags []emotion.Tag) bool {
	for _, tag := range tags {
		if _, ok := scores[tag]; ok {
			return true
		}
	}
	return false
}
