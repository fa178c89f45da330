package store

import (
	"database/sql"
	"fmt"
)

// Meta keys used elsewhere in the app.
const (
	MetaPasswordHash = "password_hash"
	MetaTokenSecret  = "token_secret"
	MetaActiveModel  = "active_model"
)

// GetMeta returns the value for key. ok is false when the key is unset.
func (db *DB) GetMeta(key string) (value string, ok bool, err error) {
	err = db.QueryRow("SELECT value FROM meta WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, true, nil
}

// SetMeta stores or replaces the value for key.
func (db *DB) SetMeta(key, value string) error {
	_, err := db.Exec(`
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	if err != nil {
		return fmt.Errorf("set meta %q: %w", key, err)
	}
	return nil
}

// DeleteMeta removes a key. Missing keys are not an error.
func (db *DB) DeleteMeta(key string) error {
	_, err := db.Exec("DELETE FROM meta WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("delete meta %q: %w", key, err)
	}
	return nil
}
