package server

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
)

// syncDedupeWindow is how far either side of an uploaded entry's
// timestamp the sync looks for an existing near-identical entry before
// creating a new one. Retried uploads land inside it.
const syncDedupeWindow = time.Hour

type mobileSyncRequest struct {
	PendingEntries []mobilePendingEntry `json:"pending_entries"`
	LastSync       string               `json:"last_sync"`
}

type mobilePendingEntry struct {
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	MobileID  string `json:"mobile_id"`
}

type mobileSyncAck struct {
	ServerID int64  `json:"server_id"`
	MobileID string `json:"mobile_id"`
	Synced   bool   `json:"synced"`
}

type mobileSyncConflict struct {
	MobileID string `json:"mobile_id"`
	Error    string `json:"error"`
	Action   string `json:"action"`
}

// handleMobileSync is the bidirectional sync endpoint: uploads pending
// entries from the phone, downloads entries newer than last_sync.
func (s *Server) handleMobileSync(w http.ResponseWriter, r *http.Request) {
	var req mobileSyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid request body"}`, http.StatusBadRequest)
		return
	}

	acks := []mobileSyncAck{}
	conflicts := []mobileSyncConflict{}

	for _, pending := range req.PendingEntries {
		content := strings.TrimSpace(pending.Content)
		if content == "" {
			conflicts = append(conflicts, mobileSyncConflict{
				MobileID: pending.MobileID,
				Error:    "content is required",
				Action:   "retry",
			})
			continue
		}
		ts := parseEntryTime(pending.Timestamp)

		// A retried upload should map to the entry it already created.
		if dup, err := s.db.FindDuplicateEntry(ts, content, syncDedupeWindow); err == nil && dup != nil {
			acks = append(acks, mobileSyncAck{
				ServerID: dup.ID,
				MobileID: pending.MobileID,
				Synced:   true,
			})
			continue
		}

		entry := &store.Entry{Timestamp: ts, Content: content}
		if err := s.db.CreateEntry(entry); err != nil {
			conflicts = append(conflicts, mobileSyncConflict{
				MobileID: pending.MobileID,
				Error:    err.Error(),
				Action:   "retry",
			})
			continue
		}
		s.processEntry(r.Context(), entry)

		acks = append(acks, mobileSyncAck{
			ServerID: entry.ID,
			MobileID: pending.MobileID,
			Synced:   true,
		})
	}

	updated := []entryPayload{}
	if lastSync, ok := parseSyncTime(req.LastSync); ok {
		recent, err := s.db.RecentEntries(100)
		if err == nil {
			for _, e := range recent {
				if e.Timestamp.After(lastSync) {
					updated = append(updated, toPayload(e))
				}
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":           true,
		"new_entries":       acks,
		"updated_entries":   updated,
		"deleted_entry_ids": []int64{},
		"server_timestamp":  time.Now().Format(entryTimeLayout),
		"sync_conflicts":    conflicts,
	})
}

// parseSyncTime parses a client-supplied sync cursor. Unlike entry
// timestamps there is no sane fallback, so failures just skip the
// download half of the sync.
func parseSyncTime(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{entryTimeLayout, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.ParseInLocation(layout, raw, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// handleMobileRecent returns recent entries trimmed for mobile payloads.
func (s *Server) handleMobileRecent(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 20)
	if limit <= 0 {
		limit = 20
	}
	entries, err := s.db.RecentEntries(limit)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	out := make([]map[string]any, len(entries))
	for i, e := range entries {
		content := e.Content
		if len(content) > 200 {
			content = content[:200] + "..."
		}
		moods := map[string]float64{}
		for tag, score := range e.Emotions {
			moods[string(tag)] = score
		}
		out[i] = map[string]any{
			"id":        e.ID,
			"content":   content,
			"timestamp": e.Timestamp.Format(entryTimeLayout),
			"moods":     moods,
			"has_image": e.ImagePath != "",
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"entries": out,
		"count":   len(out),
	})
}

// handleMobileSummary returns the lightweight dashboard card: today's
// mood, streak, top projects and a one-line insight.
func (s *Server) handleMobileSummary(w http.ResponseWriter, r *http.Request) {
	moodToday := s.recentMoodContext()

	topEmotion := "neutral"
	best := -1.0
	for tag, score := range moodToday {
		if score > best || (score == best && tag < topEmotion) {
			best = score
			topEmotion = tag
		}
	}

	projects, err := s.db.ActiveProjects(time.Now().AddDate(0, 0, -90))
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	top := make([]string, 0, 3)
	for _, p := range projects {
		top = append(top, p.Name)
		if len(top) == 3 {
			break
		}
	}

	current := 0
	if streak, err := s.analytics.WritingStreak(); err == nil {
		current = streak.Current
	}

	since := ""
	if first, err := s.db.FirstEntryTime(); err == nil && first != nil {
		since = first.Format("2006-01-02")
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"mood_today":       moodToday,
		"top_emotion":      topEmotion,
		"streak":           current,
		"top_projects":     top,
		"journaling_since": since,
		"quick_insight":    "You've been feeling " + topEmotion + " lately. Keep it up! 🌟",
	})
}
