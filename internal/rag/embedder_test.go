package rag

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/wedsmoker/DiaryML/internal/store"
)

func testDB(t *testing.T) *store.DB {
	t.Helper()
	db, err := store.OpenMemory()
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func addEntry(t *testing.T, db *store.DB, ts time.Time, content string) *store.Entry {
	t.Helper()
	e := &store.Entry{Timestamp: ts, Content: content}
	if err := db.CreateEntry(e); err != nil {
		t.Fatalf("CreateEntry: %v", err)
	}
	return e
}

func TestTokenize(t *testing.T) {
	got := tokenize("The quick-brown FOX, jumped! A 2nd time.")
	want := []string{"the", "quick-brown", "fox", "jumped", "2nd", "time"}
	if len(got) != len(want) {
		t.Fatalf("tokenize = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float64
		want float64
	}{
		{"identical", []float64{1, 2, 3}, []float64{1, 2, 3}, 1},
		{"orthogonal", []float64{1, 0}, []float64{0, 1}, 0},
		{"opposite", []float64{1, 0}, []float64{-1, 0}, -1},
		{"length mismatch", []float64{1, 2}, []float64{1, 2, 3}, 0},
		{"empty", nil, nil, 0},
		{"zero vector", []float64{0, 0}, []float64{1, 1}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	vec := []float64{3, 4}
	normalize(vec)
	if math.Abs(vec[0]-0.6) > 1e-9 || math.Abs(vec[1]-0.8) > 1e-9 {
		t.Errorf("normalize = %v, want [0.6 0.8]", vec)
	}

	zero := []float64{0, 0}
	normalize(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Errorf("normalize(zero) = %v, want unchanged", zero)
	}
}

func TestTFIDFEmbedder(t *testing.T) {
	db := testDB(t)
	now := time.Now()
	addEntry(t, db, now, "Beach day, the ocean waves were calm and warm.")
	addEntry(t, db, now, "Another beach walk along the ocean this evening.")
	addEntry(t, db, now, "Deadline pressure at work, the office was stressful.")

	emb, err := NewTFIDFEmbedder(db, 64)
	if err != nil {
		t.Fatalf("NewTFIDFEmbedder: %v", err)
	}
	if emb.Model() != "tfidf" {
		t.Errorf("Model = %q, want tfidf", emb.Model())
	}
	if emb.Dimensions() == 0 {
		t.Fatal("Dimensions = 0")
	}

	ctx := context.Background()
	beach, err := emb.Embed(ctx, "ocean waves at the beach")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	work, err := emb.Embed(ctx, "stressful office deadline")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	beachDoc, err := emb.Embed(ctx, "Beach day, the ocean waves were calm and warm.")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	simBeach := CosineSimilarity(beach, beachDoc)
	simWork := CosineSimilarity(work, beachDoc)
	if simBeach <= simWork {
		t.Errorf("beach query similarity %v <= work query similarity %v", simBeach, simWork)
	}
}

func TestTFIDFEmbedderEmptyCorpus(t *testing.T) {
	db := testDB(t)

	emb, err := NewTFIDFEmbedder(db, 64)
	if err != nil {
		t.Fatalf("NewTFIDFEmbedder: %v", err)
	}
	if emb.Dimensions() != 1 {
		t.Errorf("Dimensions = %d, want 1 for empty corpus", emb.Dimensions())
	}

	vec, err := emb.Embed(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(vec) != 1 {
		t.Errorf("len(vec) = %d, want 1", len(vec))
	}
}
