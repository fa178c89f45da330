package rag

import (
	"context"
	"fmt"
	"log"
	"math"
	"sort"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
)

// recencyHalfLife controls how fast a retrieved entry's score fades with
// age. After 90 days an entry's weight is halved.
const recencyHalfLife = 90.0 // days

// Index keeps entry embeddings in sync with the journal and answers
// similarity queries over them.
type Index struct {
	DB       *store.DB
	Embedder Embedder
	Now      func() time.Time // nil means time.Now

	stopCh chan struct{}
}

// New creates an Index backed by db and emb.
func New(db *store.DB, emb Embedder) *Index {
	return &Index{
		DB:       db,
		Embedder: emb,
		stopCh:   make(chan struct{}),
	}
}

func (ix *Index) now() time.Time {
	if ix.Now != nil {
		return ix.Now()
	}
	return time.Now()
}

// IndexEntry embeds an entry's content and stores the vector.
func (ix *Index) IndexEntry(ctx context.Context, e *store.Entry) error {
	if ix.Embedder == nil {
		return fmt.Errorf("no embedder configured")
	}
	if e.Content == "" {
		return nil
	}

	vec, err := ix.Embedder.Embed(ctx, e.Content)
	if err != nil {
		return fmt.Errorf("embed entry %d: %w", e.ID, err)
	}
	return ix.DB.SaveVector(e.ID, vec, ix.Embedder.Model())
}

// RemoveEntry drops the stored vector for a deleted entry.
func (ix *Index) RemoveEntry(entryID int64) error {
	return ix.DB.DeleteVector(entryID)
}

// EmbedMissing embeds entries that have no vector yet, up to limit per
// call. Returns how many were embedded.
func (ix *Index) EmbedMissing(ctx context.Context, limit int) (int, error) {
	if ix.Embedder == nil {
		return 0, nil
	}

	entries, err := ix.DB.EntriesMissingVectors(limit)
	if err != nil {
		return 0, fmt.Errorf("find unembedded entries: %w", err)
	}

	embedded := 0
	for i := range entries {
		if err := ix.IndexEntry(ctx, &entries[i]); err != nil {
			log.Printf("embed missing: %v", err)
			continue
		}
		embedded++
	}
	return embedded, nil
}

// Reindex re-embeds every entry. Used after switching embedding models.
func (ix *Index) Reindex(ctx context.Context) (int, error) {
	if ix.Embedder == nil {
		return 0, fmt.Errorf("no embedder configured")
	}

	entries, err := ix.DB.AllEntries()
	if err != nil {
		return 0, fmt.Errorf("load entries: %w", err)
	}

	indexed := 0
	for i := range entries {
		if err := ix.IndexEntry(ctx, &entries[i]); err != nil {
			log.Printf("reindex: %v", err)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// ContextEntry is one retrieved entry with its retrieval scores.
type ContextEntry struct {
	EntryID      int64     `json:"entry_id"`
	Timestamp    time.Time `json:"timestamp"`
	Content      string    `json:"content"`
	DominantMood string    `json:"dominant_mood,omitempty"`
	Similarity   float64   `json:"similarity"`
	Score        float64   `json:"score"`
}

// ContextEntries returns the entries most relevant to query, best first.
// Score = cosine similarity x recency weight, where the weight halves
// every 90 days of entry age.
func (ix *Index) ContextEntries(ctx context.Context, query string, limit int) ([]ContextEntry, error) {
	if ix.Embedder == nil {
		return nil, fmt.Errorf("no embedder configured")
	}
	if limit <= 0 {
		limit = 5
	}

	queryVec, err := ix.Embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vectors, err := ix.DB.AllVectors()
	if err != nil {
		return nil, fmt.Errorf("load vectors: %w", err)
	}
	if len(vectors) == 0 {
		return nil, nil
	}

	entries, err := ix.DB.AllEntries()
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}
	byID := make(map[int64]*store.Entry, len(entries))
	for i := range entries {
		byID[entries[i].ID] = &entries[i]
	}

	now := ix.now()
	var results []ContextEntry
	for _, v := range vectors {
		e, ok := byID[v.EntryID]
		if !ok {
			continue
		}

		similarity := CosineSimilarity(queryVec, v.Embedding)
		if similarity <= 0 {
			continue
		}

		ageDays := now.Sub(e.Timestamp).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		score := similarity * math.Pow(0.5, ageDays/recencyHalfLife)

		ce := ContextEntry{
			EntryID:    e.ID,
			Timestamp:  e.Timestamp,
			Content:    e.Content,
			Similarity: similarity,
			Score:      score,
		}
		if tag, ok := e.Emotions.Dominant(); ok {
			ce.DominantMood = string(tag)
		}
		results = append(results, ce)
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].EntryID > results[j].EntryID
	})

	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// StartBackfill embeds any unembedded entries now and then periodically.
// Catches entries that were created while the embedder was unreachable.
func (ix *Index) StartBackfill(interval time.Duration) {
	run := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()
		if n, err := ix.EmbedMissing(ctx, 200); err != nil {
			log.Printf("backfill error: %v", err)
		} else if n > 0 {
			log.Printf("backfill: embedded %d entries", n)
		}
	}
	run()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				run()
			case <-ix.stopCh:
				return
			}
		}
	}()
}

// Stop shuts down the index's background goroutine.
func (ix *Index) Stop() {
	close(ix.stopCh)
}
