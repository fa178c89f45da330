// Package export round-trips the journal as JSON Lines: one entry per
// line with its moods and extracted mentions. The format is the
// plain-text escape hatch for the otherwise binary SQLite store.
package export

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
)

const timeLayout = "2006-01-02T15:04:05"

// readLayouts accepts timestamps from older exports and hand-edited files.
var readLayouts = []string{
	timeLayout,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Record is one exported entry, one JSON object per line.
type Record struct {
	Timestamp string             `json:"timestamp"`
	Content   string             `json:"content"`
	ImagePath string             `json:"image_path,omitempty"`
	Moods     map[string]float64 `json:"moods,omitempty"`
	Projects  []Mention          `json:"projects,omitempty"`
	Media     []Mention          `json:"media,omitempty"`
}

// Mention is an extracted project or media reference.
type Mention struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Time parses the record timestamp, trying the export layout first and
// a few tolerant fallbacks after.
func (r Record) Time() (time.Time, error) {
	var lastErr error
	for _, layout := range readLayouts {
		t, err := time.ParseInLocation(layout, r.Timestamp, time.Local)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("parse timestamp %q: %w", r.Timestamp, lastErr)
}

// WriteEntries streams every entry oldest-first as JSONL and returns
// the number of lines written.
func WriteEntries(w io.Writer, db *store.DB) (int, error) {
	entries, err := db.AllEntries()
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	projects, err := db.AllProjectMentions()
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	media, err := db.AllMediaMentions()
	if err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}

	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for _, e := range entries {
		rec := Record{
			Timestamp: e.Timestamp.Format(timeLayout),
			Content:   e.Content,
			ImagePath: e.ImagePath,
		}
		if len(e.Emotions) > 0 {
			rec.Moods = make(map[string]float64, len(e.Emotions))
			for tag, score := range e.Emotions {
				rec.Moods[string(tag)] = score
			}
		}
		for _, m := range projects[e.ID] {
			rec.Projects = append(rec.Projects, Mention{Name: m.Name, Type: m.Type})
		}
		for _, m := range media[e.ID] {
			rec.Media = append(rec.Media, Mention{Name: m.Title, Type: m.Type})
		}
		if err := enc.Encode(rec); err != nil {
			return 0, fmt.Errorf("export entry %d: %w", e.ID, err)
		}
	}
	if err := bw.Flush(); err != nil {
		return 0, fmt.Errorf("export: %w", err)
	}
	return len(entries), nil
}

// ReadEntries parses a JSONL export. Bad lines are counted and skipped
// rather than failing the read: a corrupted line should never block the
// rest of an import. A line is bad when it is not valid JSON, has no
// content, or carries an unparseable timestamp.
func ReadEntries(r io.Reader) (records []Record, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec Record
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}
		if rec.Content == "" {
			skipped++
			continue
		}
		if _, err := rec.Time(); err != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return records, skipped, fmt.Errorf("read export: %w", err)
	}
	return records, skipped, nil
}
