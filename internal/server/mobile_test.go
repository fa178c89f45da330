package server

import (
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestMobileSyncUploadsAndDedupes(t *testing.T) {
	srv, db := unlockedServer(t)
	ts := time.Now().Format(entryTimeLayout)

	w := doJSON(t, srv, "POST", "/api/mobile/sync", map[string]any{
		"pending_entries": []map[string]any{
			{"content": "Synced from the phone, feeling happy.", "timestamp": ts, "mobile_id": "m1"},
			{"content": "Synced from the phone, feeling happy.", "timestamp": ts, "mobile_id": "m2"},
			{"content": "", "mobile_id": "m3"},
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}

	acks := body["new_entries"].([]any)
	if len(acks) != 2 {
		t.Fatalf("new_entries = %d, want 2", len(acks))
	}
	first := acks[0].(map[string]any)
	second := acks[1].(map[string]any)
	if first["mobile_id"] != "m1" || second["mobile_id"] != "m2" {
		t.Errorf("acks = %v", acks)
	}
	// The retry maps to the entry the first upload created.
	if first["server_id"] != second["server_id"] {
		t.Errorf("server ids differ: %v vs %v", first["server_id"], second["server_id"])
	}

	conflicts := body["sync_conflicts"].([]any)
	if len(conflicts) != 1 {
		t.Fatalf("sync_conflicts = %d, want 1", len(conflicts))
	}
	conflict := conflicts[0].(map[string]any)
	if conflict["mobile_id"] != "m3" || conflict["action"] != "retry" {
		t.Errorf("conflict = %v", conflict)
	}

	// Exactly one entry landed, fully processed.
	count, err := db.EntryCount()
	if err != nil {
		t.Fatalf("EntryCount: %v", err)
	}
	if count != 1 {
		t.Errorf("EntryCount = %d, want 1", count)
	}
	entries, _ := db.RecentEntries(1)
	if len(entries) != 1 || len(entries[0].Emotions) == 0 {
		t.Errorf("synced entry missing moods: %+v", entries)
	}
}

func TestMobileSyncDownloadsSinceLastSync(t *testing.T) {
	srv, _ := unlockedServer(t)
	createEntry(t, srv, map[string]string{
		"content":   "Old entry.",
		"timestamp": "2025-01-01T10:00:00",
	})
	createEntry(t, srv, map[string]string{
		"content":   "New entry, feeling happy.",
		"timestamp": time.Now().Format(entryTimeLayout),
	})

	w := doJSON(t, srv, "POST", "/api/mobile/sync", map[string]any{
		"pending_entries": []map[string]any{},
		"last_sync":       "2025-06-01T00:00:00",
	})
	body := decode(t, w)

	updated := body["updated_entries"].([]any)
	if len(updated) != 1 {
		t.Fatalf("updated_entries = %d, want 1", len(updated))
	}
	entry := updated[0].(map[string]any)
	if !strings.Contains(entry["content"].(string), "New entry") {
		t.Errorf("updated entry = %v", entry["content"])
	}
	if body["server_timestamp"] == nil {
		t.Error("missing server_timestamp")
	}

	// Garbage cursor skips the download instead of failing the sync.
	w = doJSON(t, srv, "POST", "/api/mobile/sync", map[string]any{
		"last_sync": "not-a-time",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("garbage cursor: status = %d", w.Code)
	}
	if updated := decode(t, w)["updated_entries"].([]any); len(updated) != 0 {
		t.Errorf("updated_entries = %v, want none", updated)
	}
}

func TestMobileRecentTruncatesContent(t *testing.T) {
	srv, _ := unlockedServer(t)
	long := strings.Repeat("garden thoughts ", 20) // 320 chars
	createEntry(t, srv, map[string]string{"content": long})

	w := doJSON(t, srv, "GET", "/api/mobile/entries/recent", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["count"] != float64(1) {
		t.Fatalf("count = %v, want 1", body["count"])
	}
	entries := body["entries"].([]any)
	entry := entries[0].(map[string]any)
	content := entry["content"].(string)
	if len(content) != 203 || !strings.HasSuffix(content, "...") {
		t.Errorf("content len = %d (%q...), want 203 with ellipsis", len(content), content[:20])
	}
	if entry["has_image"] != false {
		t.Errorf("has_image = %v, want false", entry["has_image"])
	}
}

func TestMobileSummary(t *testing.T) {
	srv, _ := unlockedServer(t)
	createEntry(t, srv, map[string]string{
		"content": "Working on my garden today, feeling happy and proud.",
	})

	w := doJSON(t, srv, "GET", "/api/mobile/insights/summary", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if body["top_emotion"] != "joy" {
		t.Errorf("top_emotion = %v, want joy", body["top_emotion"])
	}
	if body["streak"].(float64) < 1 {
		t.Errorf("streak = %v, want at least 1", body["streak"])
	}
	projects := body["top_projects"].([]any)
	if len(projects) != 1 || projects[0] != "garden" {
		t.Errorf("top_projects = %v, want [garden]", projects)
	}
	insight := body["quick_insight"].(string)
	if !strings.Contains(insight, "joy") || !strings.Contains(insight, "Keep it up") {
		t.Errorf("quick_insight = %q", insight)
	}

	mood, ok := body["mood_today"].(map[string]any)
	if !ok || mood["joy"] == nil {
		t.Errorf("mood_today = %v, want joy average", body["mood_today"])
	}
}

func TestMobileSummaryEmptyJournal(t *testing.T) {
	srv, _ := unlockedServer(t)

	w := doJSON(t, srv, "GET", "/api/mobile/insights/summary", nil)
	body := decode(t, w)
	if body["top_emotion"] != "neutral" {
		t.Errorf("top_emotion = %v, want neutral", body["top_emotion"])
	}
	if body["streak"] != float64(0) {
		t.Errorf("streak = %v, want 0", body["streak"])
	}
	if projects := body["top_projects"].([]any); len(projects) != 0 {
		t.Errorf("top_projects = %v, want empty", projects)
	}
}
