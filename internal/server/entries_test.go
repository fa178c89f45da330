package server

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func createEntry(t *testing.T, srv *Server, fields map[string]string) int64 {
	t.Helper()
	w := doForm(t, srv, "POST", "/api/entries", fields)
	if w.Code != http.StatusOK {
		t.Fatalf("create entry: status = %d, body %s", w.Code, w.Body)
	}
	body := decode(t, w)
	id, ok := body["entry_id"].(float64)
	if !ok {
		t.Fatalf("entry_id missing in %v", body)
	}
	return int64(id)
}

func TestCreateEntryDetectsEverything(t *testing.T) {
	srv, _ := unlockedServer(t)

	w := doForm(t, srv, "POST", "/api/entries", map[string]string{
		"content":   "Working on my garden today, feeling happy and proud.",
		"timestamp": "2025-06-10T09:30:00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	body := decode(t, w)
	if body["success"] != true {
		t.Errorf("success = %v", body["success"])
	}

	emotions, ok := body["emotions"].(map[string]any)
	if !ok {
		t.Fatalf("emotions = %T", body["emotions"])
	}
	if _, ok := emotions["joy"]; !ok {
		t.Errorf("emotions = %v, want joy present", emotions)
	}

	projects, ok := body["projects"].([]any)
	if !ok || len(projects) == 0 {
		t.Fatalf("projects = %v, want garden", body["projects"])
	}
	if projects[0] != "garden" {
		t.Errorf("projects[0] = %v, want garden", projects[0])
	}
}

func TestCreateEntryRequiresContent(t *testing.T) {
	srv, _ := unlockedServer(t)
	w := doForm(t, srv, "POST", "/api/entries", map[string]string{"content": "   "})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestGetEntry(t *testing.T) {
	srv, _ := unlockedServer(t)
	id := createEntry(t, srv, map[string]string{
		"content":   "A quiet, happy evening.",
		"timestamp": "2025-06-10T20:00:00",
	})

	w := doJSON(t, srv, "GET", "/api/entries/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := decode(t, w)
	if int64(body["id"].(float64)) != id {
		t.Errorf("id = %v, want %d", body["id"], id)
	}
	if body["content"] != "A quiet, happy evening." {
		t.Errorf("content = %v", body["content"])
	}
	if body["timestamp"] != "2025-06-10T20:00:00" {
		t.Errorf("timestamp = %v", body["timestamp"])
	}
	if _, ok := body["moods"].(map[string]any); !ok {
		t.Errorf("moods = %v, want map", body["moods"])
	}

	if w := doJSON(t, srv, "GET", "/api/entries/999", nil); w.Code != http.StatusNotFound {
		t.Errorf("missing entry: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := doJSON(t, srv, "GET", "/api/entries/abc", nil); w.Code != http.StatusBadRequest {
		t.Errorf("bad id: status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestListEntriesNewestFirstWithOffset(t *testing.T) {
	srv, _ := unlockedServer(t)
	createEntry(t, srv, map[string]string{"content": "first entry", "timestamp": "2025-06-01T12:00:00"})
	createEntry(t, srv, map[string]string{"content": "second entry", "timestamp": "2025-06-02T12:00:00"})
	createEntry(t, srv, map[string]string{"content": "third entry", "timestamp": "2025-06-03T12:00:00"})

	w := doJSON(t, srv, "GET", "/api/entries?limit=2", nil)
	body := decode(t, w)
	entries := body["entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].(map[string]any)["content"] != "third entry" {
		t.Errorf("entries[0] = %v, want third entry", entries[0])
	}

	w = doJSON(t, srv, "GET", "/api/entries?limit=2&offset=2", nil)
	body = decode(t, w)
	entries = body["entries"].([]any)
	if len(entries) != 1 || entries[0].(map[string]any)["content"] != "first entry" {
		t.Errorf("offset page = %v, want just first entry", entries)
	}
}

func TestUpdateEntryRedetects(t *testing.T) {
	srv, db := unlockedServer(t)
	id := createEntry(t, srv, map[string]string{
		"content": "Working on my garden today, feeling happy.",
	})

	w := doForm(t, srv, "PUT", "/api/entries/1", map[string]string{
		"content":   "Made progress on my novel today, feeling sad and tired.",
		"timestamp": "2025-06-11T08:00:00",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body %s", w.Code, w.Body)
	}
	body := decode(t, w)
	emotions := body["emotions"].(map[string]any)
	if _, ok := emotions["sadness"]; !ok {
		t.Errorf("emotions = %v, want sadness after rewrite", emotions)
	}
	if _, ok := emotions["joy"]; ok {
		t.Errorf("emotions = %v, joy should be gone", emotions)
	}

	entry, err := db.GetEntry(id)
	if err != nil || entry == nil {
		t.Fatalf("GetEntry: %v, %v", entry, err)
	}
	if !strings.Contains(entry.Content, "novel") {
		t.Errorf("content = %q", entry.Content)
	}
	if got := entry.Timestamp.Format(entryTimeLayout); got != "2025-06-11T08:00:00" {
		t.Errorf("timestamp = %s", got)
	}

	// Mentions follow the new text.
	mentions, err := db.AllProjectMentions()
	if err != nil {
		t.Fatalf("AllProjectMentions: %v", err)
	}
	var names []string
	for _, m := range mentions[id] {
		names = append(names, m.Name)
	}
	if len(names) != 1 || names[0] != "novel" {
		t.Errorf("mentions = %v, want [novel]", names)
	}

	if w := doForm(t, srv, "PUT", "/api/entries/999", map[string]string{"content": "x"}); w.Code != http.StatusNotFound {
		t.Errorf("missing entry: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestDeleteEntry(t *testing.T) {
	srv, _ := unlockedServer(t)
	createEntry(t, srv, map[string]string{"content": "soon gone"})

	w := doJSON(t, srv, "DELETE", "/api/entries/1", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}
	body := decode(t, w)
	if body["message"] != "Entry deleted" {
		t.Errorf("message = %v", body["message"])
	}

	if w := doJSON(t, srv, "GET", "/api/entries/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("after delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if w := doJSON(t, srv, "DELETE", "/api/entries/1", nil); w.Code != http.StatusNotFound {
		t.Errorf("double delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestCreateEntryWithImage(t *testing.T) {
	srv, _ := unlockedServer(t)

	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var pngBytes bytes.Buffer
	if err := png.Encode(&pngBytes, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("content", "Photo from the happy garden.")
	mw.WriteField("timestamp", "2025-06-10T12:00:00")
	fw, err := mw.CreateFormFile("image", "flower.png")
	if err != nil {
		t.Fatal(err)
	}
	fw.Write(pngBytes.Bytes())
	mw.Close()

	req := httptest.NewRequest("POST", "/api/entries", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	w := doJSON(t, srv, "GET", "/api/entries/1", nil)
	body := decode(t, w)
	imagePath, _ := body["image_path"].(string)
	if !strings.HasSuffix(imagePath, "_flower.png") {
		t.Fatalf("image_path = %q, want ts_flower.png", imagePath)
	}

	saved := filepath.Join(srv.uploadsDir, imagePath)
	if _, err := os.Stat(saved); err != nil {
		t.Errorf("saved image: %v", err)
	}

	// Stored images are served under /uploads/.
	req = httptest.NewRequest("GET", "/uploads/"+imagePath, nil)
	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("serve upload: status = %d", rec.Code)
	}
}

func TestCreateEntryRejectsNonImage(t *testing.T) {
	srv, _ := unlockedServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("content", "Attaching something odd.")
	fw, _ := mw.CreateFormFile("image", "notes.txt")
	fw.Write([]byte("plain text, not pixels"))
	mw.Close()

	req := httptest.NewRequest("POST", "/api/entries", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestSearchFilters(t *testing.T) {
	srv, _ := unlockedServer(t)
	createEntry(t, srv, map[string]string{
		"content":   "Happy morning in the garden.",
		"timestamp": "2025-06-01T09:00:00",
	})
	createEntry(t, srv, map[string]string{
		"content":   "Sad rainy day, stayed inside.",
		"timestamp": "2025-06-05T19:00:00",
	})
	createEntry(t, srv, map[string]string{
		"content":   "Another garden afternoon, very happy.",
		"timestamp": "2025-06-20T15:00:00",
	})

	w := doJSON(t, srv, "GET", "/api/search?q=garden", nil)
	body := decode(t, w)
	if int(body["count"].(float64)) != 2 {
		t.Errorf("q=garden count = %v, want 2", body["count"])
	}

	w = doJSON(t, srv, "GET", "/api/search?q=garden&start_date=2025-06-10", nil)
	body = decode(t, w)
	if int(body["count"].(float64)) != 1 {
		t.Errorf("q+start count = %v, want 1", body["count"])
	}

	w = doJSON(t, srv, "GET", "/api/search?start_date=2025-06-01&end_date=2025-06-06", nil)
	body = decode(t, w)
	if int(body["count"].(float64)) != 2 {
		t.Errorf("range count = %v, want 2", body["count"])
	}
	results := body["results"].([]any)
	first := results[0].(map[string]any)
	if !strings.Contains(first["content"].(string), "Sad rainy") {
		t.Errorf("results[0] = %v, want newest first", first["content"])
	}

	w = doJSON(t, srv, "GET", "/api/search?emotions=sadness", nil)
	body = decode(t, w)
	if int(body["count"].(float64)) != 1 {
		t.Errorf("emotions count = %v, want 1", body["count"])
	}

	if w := doJSON(t, srv, "GET", "/api/search?emotions=bogus", nil); w.Code != http.StatusBadRequest {
		t.Errorf("unknown emotion: status = %d, want %d", w.Code, http.StatusBadRequest)
	}

	w = doJSON(t, srv, "GET", "/api/search?q=nothingmatches", nil)
	body = decode(t, w)
	if int(body["count"].(float64)) != 0 {
		t.Errorf("no-match count = %v, want 0", body["count"])
	}
}
