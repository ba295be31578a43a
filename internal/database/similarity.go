package database

import (
	"math"
	"sort"

	"edu-chatbot-backend/models"
)

// The similarity metric is cosine, fixed here for both indexing and
// query time. This file owns the only scoring function in the
// repository; retrieval never computes scores itself, which rules out
// metric drift between the two sides.

func cosineSimilarity(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, normA, normB float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankTopK scores chunks against the query vector and returns the best
// k, descending by similarity, ties broken by ascending ordinal so
// output is deterministic.
func rankTopK(chunks []models.Chunk, query []float32, k int) []models.ScoredChunk {
	scored := make([]models.ScoredChunk, 0, len(chunks))
	for _, chunk := range chunks {
		scored = append(scored, models.ScoredChunk{
			Chunk: chunk,
			Score: cosineSimilarity(chunk.Vector, query),
		})
	}

	sort.Slice(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Chunk.Ordinal < scored[j].Chunk.Ordinal
	})

	if k > 0 && len(scored) > k {
		scored = scored[:k]
	}
	return scored
}
