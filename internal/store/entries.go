package store

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
)

// ErrNotFound is returned by updates and deletes that matched no row.
var ErrNotFound = errors.New("store: not found")

// Entry is one journal entry. Emotions is nil until moods have been
// detected and saved for the entry.
type Entry struct {
	ID        int64
	Timestamp time.Time
	Content   string
	ImagePath string
	CreatedAt time.Time
	UpdatedAt time.Time
	Emotions  emotion.Scores
}

// CreateEntry inserts a new entry and sets e.ID. A zero Timestamp
// defaults to now.
func (db *DB) CreateEntry(e *Entry) error {
	now := time.Now()
	if e.Timestamp.IsZero() {
		e.Timestamp = now
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	res, err := db.Exec(`
		INSERT INTO entries (timestamp, content, image_path, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, formatTime(e.Timestamp), e.Content, nullString(e.ImagePath),
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("create entry: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create entry id: %w", err)
	}
	e.ID = id
	return nil
}

// GetEntry returns the entry with its moods, or nil if not found.
func (db *DB) GetEntry(id int64) (*Entry, error) {
	row := db.QueryRow(`
		SELECT id, timestamp, content, image_path, created_at, updated_at
		FROM entries WHERE id = ?
	`, id)

	e, err := scanEntry(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}

	entries := []Entry{*e}
	if err := db.attachMoods(entries); err != nil {
		return nil, err
	}
	return &entries[0], nil
}

// UpdateEntryContent replaces an entry's content and bumps updated_at.
func (db *DB) UpdateEntryContent(id int64, content string) error {
	res, err := db.Exec(`
		UPDATE entries SET content = ?, updated_at = ? WHERE id = ?
	`, content, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("update entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetEntryTimestamp moves an entry on the timeline.
func (db *DB) SetEntryTimestamp(id int64, ts time.Time) error {
	res, err := db.Exec(`
		UPDATE entries SET timestamp = ?, updated_at = ? WHERE id = ?
	`, formatTime(ts), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("set entry timestamp %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteEntry removes an entry. Moods, mentions and vectors cascade.
func (db *DB) DeleteEntry(id int64) error {
	res, err := db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// RecentEntries returns the newest entries with moods, newest first.
func (db *DB) RecentEntries(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.Query(`
		SELECT id, timestamp, content, image_path, created_at, updated_at
		FROM entries ORDER BY timestamp DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent entries: %w", err)
	}
	defer rows.Close()
	return db.collectEntries(rows)
}

// EntriesBetween returns entries with from <= timestamp <= to, oldest
// first, with moods attached. Rows with unparseable timestamps are
// skipped and counted rather than failing the whole read.
func (db *DB) EntriesBetween(from, to time.Time) ([]Entry, error) {
	rows, err := db.Query(`
		SELECT id, timestamp, content, image_path, created_at, updated_at
		FROM entries WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, id
	`, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("entries between: %w", err)
	}
	defer rows.Close()
	return db.collectEntries(rows)
}

// AllEntries returns every entry with moods, oldest first. Used by export.
func (db *DB) AllEntries() ([]Entry, error) {
	rows, err := db.Query(`
		SELECT id, timestamp, content, image_path, created_at, updated_at
		FROM entries ORDER BY timestamp, id
	`)
	if err != nil {
		return nil, fmt.Errorf("all entries: %w", err)
	}
	defer rows.Close()
	return db.collectEntries(rows)
}

// SearchEntries returns entries whose content contains query,
// case-insensitively, newest first.
func (db *DB) SearchEntries(query string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	pattern := "%" + escapeLike(query) + "%"
	rows, err := db.Query(`
		SELECT id, timestamp, content, image_path, created_at, updated_at
		FROM entries WHERE content LIKE ? ESCAPE '\'
		ORDER BY timestamp DESC, id DESC LIMIT ?
	`, pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("search entries: %w", err)
	}
	defer rows.Close()
	return db.collectEntries(rows)
}

// EntryCount returns the total number of entries.
func (db *DB) EntryCount() (int, error) {
	var n int
	err := db.QueryRow("SELECT COUNT(*) FROM entries").Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("entry count: %w", err)
	}
	return n, nil
}

// FirstEntryTime returns the timestamp of the oldest entry, or nil when
// the journal is empty.
func (db *DB) FirstEntryTime() (*time.Time, error) {
	var ts sql.NullString
	err := db.QueryRow("SELECT MIN(timestamp) FROM entries").Scan(&ts)
	if err != nil {
		return nil, fmt.Errorf("first entry time: %w", err)
	}
	if !ts.Valid {
		return nil, nil
	}
	t, err := parseTime(ts.String)
	if err != nil {
		return nil, fmt.Errorf("first entry time: %w", err)
	}
	return &t, nil
}

// EntryTimes returns every entry timestamp, oldest first. Rows whose
// timestamp cannot be parsed are skipped.
func (db *DB) EntryTimes() ([]time.Time, error) {
	rows, err := db.Query("SELECT timestamp FROM entries ORDER BY timestamp, id")
	if err != nil {
		return nil, fmt.Errorf("entry times: %w", err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan timestamp: %w", err)
		}
		t, err := parseTime(raw)
		if err != nil {
			continue
		}
		times = append(times, t)
	}
	return times, rows.Err()
}

// EntryContents returns the raw content of every entry, oldest first.
// Used to build the TF-IDF vocabulary for the fallback embedder.
func (db *DB) EntryContents() ([]string, error) {
	rows, err := db.Query("SELECT content FROM entries ORDER BY timestamp, id")
	if err != nil {
		return nil, fmt.Errorf("entry contents: %w", err)
	}
	defer rows.Close()

	var contents []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scan content: %w", err)
		}
		contents = append(contents, c)
	}
	return contents, rows.Err()
}

// SaveMoods replaces the stored emotion scores for an entry. Scores are
// sanitized first: unknown tags dropped, values clamped to [0, 1].
func (db *DB) SaveMoods(entryID int64, scores emotion.Scores) error {
	clean := scores.Sanitize()

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("save moods: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM moods WHERE entry_id = ?", entryID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear moods: %w", err)
	}
	for _, tag := range emotion.All {
		score, ok := clean[tag]
		if !ok {
			continue
		}
		if _, err := tx.Exec(
			"INSERT INTO moods (entry_id, emotion, score) VALUES (?, ?, ?)",
			entryID, string(tag), score,
		); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert mood %s: %w", tag, err)
		}
	}
	return tx.Commit()
}

// FindDuplicateEntry looks for an existing entry within window of ts whose
// content is near-identical to content. Returns nil when there is none.
// Used by mobile sync so retried uploads do not create duplicates.
func (db *DB) FindDuplicateEntry(ts time.Time, content string, window time.Duration) (*Entry, error) {
	candidates, err := db.EntriesBetween(ts.Add(-window), ts.Add(window))
	if err != nil {
		return nil, err
	}
	for i := range candidates {
		if nearIdentical(candidates[i].Content, content) {
			return &candidates[i], nil
		}
	}
	return nil, nil
}

// nearIdentical returns true if two strings are >95% similar by shared
// bigram ratio. Intentionally cheap, no embeddings at the store layer.
func nearIdentical(a, b string) bool {
	a = strings.TrimSpace(a)
	b = strings.TrimSpace(b)
	if a == b {
		return true
	}
	if a == "" || b == "" {
		return false
	}

	bigramsA := bigrams(a)
	bigramsB := bigrams(b)
	if len(bigramsA) == 0 || len(bigramsB) == 0 {
		return a == b
	}

	shared := 0
	for bg := range bigramsA {
		if bigramsB[bg] {
			shared++
		}
	}

	union := len(bigramsA) + len(bigramsB) - shared
	if union == 0 {
		return true
	}

	similarity := float64(shared) / float64(union) // Jaccard index
	return similarity > 0.95
}

func bigrams(s string) map[string]bool {
	if len(s) < 2 {
		return nil
	}
	m := make(map[string]bool, len(s)-1)
	for i := 0; i < len(s)-1; i++ {
		m[s[i:i+2]] = true
	}
	return m
}

// scanEntry reads one entries row. The scan argument lets it serve both
// QueryRow and Rows.
func scanEntry(scan func(...any) error) (*Entry, error) {
	var e Entry
	var ts, created, updated string
	var img sql.NullString

	if err := scan(&e.ID, &ts, &e.Content, &img, &created, &updated); err != nil {
		return nil, err
	}

	var err error
	if e.Timestamp, err = parseTime(ts); err != nil {
		return nil, err
	}
	if e.CreatedAt, err = parseTime(created); err != nil {
		return nil, err
	}
	if e.UpdatedAt, err = parseTime(updated); err != nil {
		return nil, err
	}
	e.ImagePath = img.String
	return &e, nil
}

// collectEntries drains rows, skipping malformed ones, then attaches moods.
func (db *DB) collectEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	skipped := 0
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			skipped++
			continue
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	if skipped > 0 {
		log.Printf("store: skipped %d malformed entry rows", skipped)
	}
	if err := db.attachMoods(entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// attachMoods fills Emotions for each entry in one query.
func (db *DB) attachMoods(entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}

	idx := make(map[int64]int, len(entries))
	args := make([]any, 0, len(entries))
	placeholders := make([]string, 0, len(entries))
	for i := range entries {
		idx[entries[i].ID] = i
		args = append(args, entries[i].ID)
		placeholders = append(placeholders, "?")
	}

	rows, err := db.Query(
		"SELECT entry_id, emotion, score FROM moods WHERE entry_id IN ("+
			strings.Join(placeholders, ",")+")", args...)
	if err != nil {
		return fmt.Errorf("attach moods: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var entryID int64
		var tag string
		var score float64
		if err := rows.Scan(&entryID, &tag, &score); err != nil {
			return fmt.Errorf("scan mood: %w", err)
		}
		i, ok := idx[entryID]
		if !ok {
			continue
		}
		if entries[i].Emotions == nil {
			entries[i].Emotions = emotion.Scores{}
		}
		entries[i].Emotions[emotion.Tag(tag)] = score
	}
	return rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// escapeLike escapes LIKE wildcards so user queries match literally.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
