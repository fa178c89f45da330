package store

import (
	"database/sql"
	"encoding/binary"
	"fmt"
	"math"
	"time"
)

// VectorRecord holds an embedding for an entry.
type VectorRecord struct {
	EntryID    int64
	Embedding  []float64
	Model      string
	Dimensions int
	CreatedAt  time.Time
}

// encodeEmbedding converts a []float64 to a binary BLOB (8 bytes per float64).
func encodeEmbedding(vec []float64) []byte {
	buf := make([]byte, len(vec)*8)
	for i, v := range vec {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

// decodeEmbedding converts a binary BLOB back to []float64.
func decodeEmbedding(buf []byte) []float64 {
	n := len(buf) / 8
	vec := make([]float64, n)
	for i := 0; i < n; i++ {
		vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return vec
}

// SaveVector stores or replaces the embedding for an entry.
func (db *DB) SaveVector(entryID int64, embedding []float64, model string) error {
	now := formatTime(time.Now())
	blob := encodeEmbedding(embedding)

	_, err := db.Exec(`
		INSERT INTO entry_vectors (entry_id, embedding, model, dimensions, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(entry_id) DO UPDATE SET embedding = ?, model = ?, dimensions = ?, created_at = ?
	`, entryID, blob, model, len(embedding), now,
		blob, model, len(embedding), now)
	if err != nil {
		return fmt.Errorf("save vector: %w", err)
	}
	return nil
}

// GetVector returns the embedding for an entry, or nil if not found.
func (db *DB) GetVector(entryID int64) (*VectorRecord, error) {
	var v VectorRecord
	var blob []byte
	var created string

	err := db.QueryRow(`
		SELECT entry_id, embedding, model, dimensions, created_at
		FROM entry_vectors WHERE entry_id = ?
	`, entryID).Scan(&v.EntryID, &blob, &v.Model, &v.Dimensions, &created)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get vector: %w", err)
	}
	if v.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("vector %d: %w", entryID, err)
	}
	v.Embedding = decodeEmbedding(blob)
	return &v, nil
}

// AllVectors returns all stored vector records.
func (db *DB) AllVectors() ([]VectorRecord, error) {
	rows, err := db.Query(`
		SELECT entry_id, embedding, model, dimensions, created_at
		FROM entry_vectors
	`)
	if err != nil {
		return nil, fmt.Errorf("all vectors: %w", err)
	}
	defer rows.Close()

	var records []VectorRecord
	for rows.Next() {
		var v VectorRecord
		var blob []byte
		var created string
		if err := rows.Scan(&v.EntryID, &blob, &v.Model, &v.Dimensions, &created); err != nil {
			return nil, fmt.Errorf("scan vector: %w", err)
		}
		if v.CreatedAt, err = parseTime(created); err != nil {
			continue
		}
		v.Embedding = decodeEmbedding(blob)
		records = append(records, v)
	}
	return records, rows.Err()
}

// DeleteVector removes the embedding for an entry.
func (db *DB) DeleteVector(entryID int64) error {
	_, err := db.Exec("DELETE FROM entry_vectors WHERE entry_id = ?", entryID)
	if err != nil {
		return fmt.Errorf("delete vector: %w", err)
	}
	return nil
}

// EntriesMissingVectors returns entries that have no stored embedding yet,
// oldest first. Moods are not attached; the indexer only needs content.
func (db *DB) EntriesMissingVectors(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.Query(`
		SELECT e.id, e.timestamp, e.content, e.image_path, e.created_at, e.updated_at
		FROM entries e
		LEFT JOIN entry_vectors v ON v.entry_id = e.id
		WHERE v.entry_id IS NULL
		ORDER BY e.id LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("entries missing vectors: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanEntry(rows.Scan)
		if err != nil {
			continue
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}
