package rag

import (
	"context"
	"testing"
	"time"

	"github.com/wedsmoker/DiaryML/internal/emotion"
	"github.com/wedsmoker/DiaryML/internal/store"
)

func testIndex(t *testing.T, db *store.DB) *Index {
	t.Helper()
	emb, err := NewTFIDFEmbedder(db, 128)
	if err != nil {
		t.Fatalf("NewTFIDFEmbedder: %v", err)
	}
	return New(db, emb)
}

func TestIndexEntryAndRemove(t *testing.T) {
	db := testDB(t)
	e := addEntry(t, db, time.Now(), "Long ride through the hills on the new bike.")
	ix := testIndex(t, db)

	if err := ix.IndexEntry(context.Background(), e); err != nil {
		t.Fatalf("IndexEntry: %v", err)
	}
	vec, err := db.GetVector(e.ID)
	if err != nil {
		t.Fatalf("GetVector: %v", err)
	}
	if vec == nil {
		t.Fatal("no vector stored")
	}
	if vec.Model != "tfidf" {
		t.Errorf("Model = %q, want tfidf", vec.Model)
	}

	if err := ix.RemoveEntry(e.ID); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	vec, err = db.GetVector(e.ID)
	if err != nil {
		t.Fatalf("GetVector: %v", err)
	}
	if vec != nil {
		t.Error("vector still present after RemoveEntry")
	}
}

func TestEmbedMissing(t *testing.T) {
	db := testDB(t)
	addEntry(t, db, time.Now(), "Morning pages before the kids woke up.")
	addEntry(t, db, time.Now(), "Tried the new coffee place near the library.")
	ix := testIndex(t, db)

	n, err := ix.EmbedMissing(context.Background(), 10)
	if err != nil {
		t.Fatalf("EmbedMissing: %v", err)
	}
	if n != 2 {
		t.Errorf("embedded = %d, want 2", n)
	}

	n, err = ix.EmbedMissing(context.Background(), 10)
	if err != nil {
		t.Fatalf("EmbedMissing second: %v", err)
	}
	if n != 0 {
		t.Errorf("second pass embedded = %d, want 0", n)
	}
}

func TestContextEntriesRelevance(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	beach := addEntry(t, db, now.AddDate(0, 0, -1), "Beach day, the ocean waves were calm and warm.")
	addEntry(t, db, now.AddDate(0, 0, -2), "Deadline pressure at work, the office was stressful.")
	if err := db.SaveMoods(beach.ID, emotion.Scores{emotion.Joy: 0.9}); err != nil {
		t.Fatalf("SaveMoods: %v", err)
	}

	ix := testIndex(t, db)
	if _, err := ix.EmbedMissing(context.Background(), 10); err != nil {
		t.Fatalf("EmbedMissing: %v", err)
	}

	got, err := ix.ContextEntries(context.Background(), "ocean waves at the beach", 5)
	if err != nil {
		t.Fatalf("ContextEntries: %v", err)
	}
	if len(got) == 0 {
		t.Fatal("no context entries returned")
	}
	if got[0].EntryID != beach.ID {
		t.Errorf("top result entry %d, want the beach entry %d", got[0].EntryID, beach.ID)
	}
	if got[0].DominantMood != "joy" {
		t.Errorf("DominantMood = %q, want joy", got[0].DominantMood)
	}
	if got[0].Score <= 0 || got[0].Similarity <= 0 {
		t.Errorf("scores = %+v, want positive", got[0])
	}
}

func TestContextEntriesRecencyWeighting(t *testing.T) {
	db := testDB(t)
	fixed := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	recent := addEntry(t, db, fixed.AddDate(0, 0, -10), "Quiet morning walk in the park before breakfast.")
	old := addEntry(t, db, fixed.AddDate(0, 0, -300), "Quiet morning walk in the park before breakfast.")

	ix := testIndex(t, db)
	ix.Now = func() time.Time { return fixed }
	if _, err := ix.EmbedMissing(context.Background(), 10); err != nil {
		t.Fatalf("EmbedMissing: %v", err)
	}

	got, err := ix.ContextEntries(context.Background(), "morning walk in the park", 5)
	if err != nil {
		t.Fatalf("ContextEntries: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].EntryID != recent.ID || got[1].EntryID != old.ID {
		t.Errorf("order = [%d %d], want recent entry %d first", got[0].EntryID, got[1].EntryID, recent.ID)
	}
	if got[0].Score <= got[1].Score {
		t.Errorf("recent score %v not above old score %v", got[0].Score, got[1].Score)
	}
	// Same text, same similarity; only recency separates them
	if got[0].Similarity != got[1].Similarity {
		t.Errorf("similarities differ: %v vs %v", got[0].Similarity, got[1].Similarity)
	}
}

func TestContextEntriesLimit(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	for i := 0; i < 8; i++ {
		addEntry(t, db, now.AddDate(0, 0, -i), "Garden work again, weeding and watering the garden beds.")
	}

	ix := testIndex(t, db)
	if _, err := ix.EmbedMissing(context.Background(), 20); err != nil {
		t.Fatalf("EmbedMissing: %v", err)
	}

	got, err := ix.ContextEntries(context.Background(), "garden weeding", 3)
	if err != nil {
		t.Fatalf("ContextEntries: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("len = %d, want 3", len(got))
	}
}

func TestContextEntriesNoVectors(t *testing.T) {
	db := testDB(t)
	ix := testIndex(t, db)

	got, err := ix.ContextEntries(context.Background(), "anything", 5)
	if err != nil {
		t.Fatalf("ContextEntries: %v", err)
	}
	if got != nil {
		t.Errorf("got %v, want nil with no vectors", got)
	}
}
