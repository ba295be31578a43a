package database

import (
	"math"
	"testing"

	"edu-chatbot-backend/models"
)

func TestCosineSimilarity(t *testing.T) {
	cases := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"both zero", []float32{0, 0}, []float32{0, 0}, 0},
	}
	for _, tc := range cases {
		got := cosineSimilarity(tc.a, tc.b)
		if math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCosineSimilarityScaleInvariant(t *testing.T) {
	a := []float32{1, 2, 3}
	scaled := []float32{10, 20, 30}
	got := cosineSimilarity(a, scaled)
	if math.Abs(got-1) > 1e-6 {
		t.Fatalf("scaled vectors should score 1, got %v", got)
	}
}

func TestRankTopKOrdering(t *testing.T) {
	query := []float32{1, 0}
	chunks := []models.Chunk{
		{Ordinal: 0, Text: "orthogonal", Vector: []float32{0, 1}},
		{Ordinal: 1, Text: "aligned", Vector: []float32{2, 0}},
		{Ordinal: 2, Text: "diagonal", Vector: []float32{1, 1}},
	}

	top := rankTopK(chunks, query, 2)
	if len(top) != 2 {
		t.Fatalf("expected 2 results, got %d", len(top))
	}
	if top[0].Text != "aligned" {
		t.Fatalf("best match = %q, want aligned", top[0].Text)
	}
	if top[1].Text != "diagonal" {
		t.Fatalf("second match = %q, want diagonal", top[1].Text)
	}
}

func TestRankTopKTiesByOrdinal(t *testing.T) {
	query := []float32{1, 0}
	chunks := []models.Chunk{
		{Ordinal: 3, Text: "later", Vector: []float32{1, 0}},
		{Ordinal: 1, Text: "earlier", Vector: []float32{1, 0}},
	}

	top := rankTopK(chunks, query, 2)
	if top[0].Text != "earlier" || top[1].Text != "later" {
		t.Fatalf("tie not broken by ordinal: %q then %q", top[0].Text, top[1].Text)
	}
}

func TestRankTopKFewerThanK(t *testing.T) {
	query := []float32{1}
	chunks := []models.Chunk{{Ordinal: 0, Vector: []float32{1}}}

	top := rankTopK(chunks, query, 5)
	if len(top) != 1 {
		t.Fatalf("expected 1 result, got %d", len(top))
	}
	if top := rankTopK(nil, query, 5); len(top) != 0 {
		t.Fatalf("expected no results for no chunks, got %d", len(top))
	}
}
