package store

import (
	"fmt"
	"time"
)

// ProjectMention is one extracted project reference tied to an entry.
type ProjectMention struct {
	ID        int64
	EntryID   int64
	Name      string
	Type      string
	Timestamp time.Time
}

// MediaMention is one extracted media reference tied to an entry.
type MediaMention struct {
	ID        int64
	EntryID   int64
	Title     string
	Type      string
	Timestamp time.Time
}

// ProjectActivity aggregates mentions of one project.
type ProjectActivity struct {
	Name         string
	Type         string
	Mentions     int
	FirstMention time.Time
	LastMention  time.Time
}

// ReplaceProjectMentions rewrites the extracted project mentions for an
// entry. Called on create and again on every edit, so stale mentions from
// the previous text never linger.
func (db *DB) ReplaceProjectMentions(entryID int64, ts time.Time, mentions []ProjectMention) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("replace project mentions: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM project_mentions WHERE entry_id = ?", entryID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear project mentions: %w", err)
	}
	for _, m := range mentions {
		if _, err := tx.Exec(`
			INSERT INTO project_mentions (entry_id, project_name, project_type, timestamp)
			VALUES (?, ?, ?, ?)
		`, entryID, m.Name, m.Type, formatTime(ts)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert project mention %q: %w", m.Name, err)
		}
	}
	return tx.Commit()
}

// ReplaceMediaMentions rewrites the extracted media mentions for an entry.
func (db *DB) ReplaceMediaMentions(entryID int64, ts time.Time, mentions []MediaMention) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("replace media mentions: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM media_mentions WHERE entry_id = ?", entryID); err != nil {
		tx.Rollback()
		return fmt.Errorf("clear media mentions: %w", err)
	}
	for _, m := range mentions {
		if _, err := tx.Exec(`
			INSERT INTO media_mentions (entry_id, title, media_type, timestamp)
			VALUES (?, ?, ?, ?)
		`, entryID, m.Title, m.Type, formatTime(ts)); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert media mention %q: %w", m.Title, err)
		}
	}
	return tx.Commit()
}

// ProjectMentionsBetween returns project mentions with from <= timestamp <= to,
// oldest first.
func (db *DB) ProjectMentionsBetween(from, to time.Time) ([]ProjectMention, error) {
	rows, err := db.Query(`
		SELECT id, entry_id, project_name, project_type, timestamp
		FROM project_mentions WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, id
	`, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("project mentions between: %w", err)
	}
	defer rows.Close()

	var mentions []ProjectMention
	for rows.Next() {
		var m ProjectMention
		var ts string
		if err := rows.Scan(&m.ID, &m.EntryID, &m.Name, &m.Type, &ts); err != nil {
			return nil, fmt.Errorf("scan project mention: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// MediaMentionsBetween returns media mentions with from <= timestamp <= to,
// oldest first.
func (db *DB) MediaMentionsBetween(from, to time.Time) ([]MediaMention, error) {
	rows, err := db.Query(`
		SELECT id, entry_id, title, media_type, timestamp
		FROM media_mentions WHERE timestamp >= ? AND timestamp <= ?
		ORDER BY timestamp, id
	`, formatTime(from), formatTime(to))
	if err != nil {
		return nil, fmt.Errorf("media mentions between: %w", err)
	}
	defer rows.Close()

	var mentions []MediaMention
	for rows.Next() {
		var m MediaMention
		var ts string
		if err := rows.Scan(&m.ID, &m.EntryID, &m.Title, &m.Type, &ts); err != nil {
			return nil, fmt.Errorf("scan media mention: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions, rows.Err()
}

// AllProjectMentions returns every project mention grouped by entry.
func (db *DB) AllProjectMentions() (map[int64][]ProjectMention, error) {
	rows, err := db.Query(`
		SELECT id, entry_id, project_name, project_type, timestamp
		FROM project_mentions ORDER BY entry_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("all project mentions: %w", err)
	}
	defer rows.Close()

	byEntry := make(map[int64][]ProjectMention)
	for rows.Next() {
		var m ProjectMention
		var ts string
		if err := rows.Scan(&m.ID, &m.EntryID, &m.Name, &m.Type, &ts); err != nil {
			return nil, fmt.Errorf("scan project mention: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			continue
		}
		byEntry[m.EntryID] = append(byEntry[m.EntryID], m)
	}
	return byEntry, rows.Err()
}

// AllMediaMentions returns every media mention grouped by entry.
func (db *DB) AllMediaMentions() (map[int64][]MediaMention, error) {
	rows, err := db.Query(`
		SELECT id, entry_id, title, media_type, timestamp
		FROM media_mentions ORDER BY entry_id, id
	`)
	if err != nil {
		return nil, fmt.Errorf("all media mentions: %w", err)
	}
	defer rows.Close()

	byEntry := make(map[int64][]MediaMention)
	for rows.Next() {
		var m MediaMention
		var ts string
		if err := rows.Scan(&m.ID, &m.EntryID, &m.Title, &m.Type, &ts); err != nil {
			return nil, fmt.Errorf("scan media mention: %w", err)
		}
		if m.Timestamp, err = parseTime(ts); err != nil {
			continue
		}
		byEntry[m.EntryID] = append(byEntry[m.EntryID], m)
	}
	return byEntry, rows.Err()
}

// ActiveProjects aggregates project mentions since the given time, most
// mentioned first.
func (db *DB) ActiveProjects(since time.Time) ([]ProjectActivity, error) {
	rows, err := db.Query(`
		SELECT project_name, MAX(project_type), COUNT(*), MIN(timestamp), MAX(timestamp)
		FROM project_mentions WHERE timestamp >= ?
		GROUP BY project_name
		ORDER BY COUNT(*) DESC, project_name
	`, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("active projects: %w", err)
	}
	defer rows.Close()

	var projects []ProjectActivity
	for rows.Next() {
		var p ProjectActivity
		var first, last string
		if err := rows.Scan(&p.Name, &p.Type, &p.Mentions, &first, &last); err != nil {
			return nil, fmt.Errorf("scan project activity: %w", err)
		}
		if p.FirstMention, err = parseTime(first); err != nil {
			continue
		}
		if p.LastMention, err = parseTime(last); err != nil {
			continue
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
