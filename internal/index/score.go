package index

import (
	"math"
	"sort"

	"finadvisor/internal/model"
)

// SearchResult is one ranked match. Score is cosine similarity shifted by
// +1.0 into [0, 2] so downstream consumers never see a negative score.
type SearchResult struct {
	Content  string  `json:"content"`
	SourceID string  `json:"source_id"`
	Score    float64 `json:"score"`
}

// cosineSimilarity returns the cosine of the angle between a and b.
// A zero vector (or mismatched lengths) yields 0 rather than NaN.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// rankEntries scores every entry against the query vector and returns at most
// topK results ordered by score descending, ties broken by insertion recency
// (most recent first). MySQL gives no stable secondary order on its own, so
// the tie-break is applied here.
func rankEntries(entries []model.VectorEntry, query []float32, topK int) []SearchResult {
	if topK <= 0 || len(entries) == 0 {
		return nil
	}

	type scored struct {
		entry model.VectorEntry
		score float64
	}
	ranked := make([]scored, len(entries))
	for i := range entries {
		ranked[i] = scored{
			entry: entries[i],
			score: cosineSimilarity(query, entries[i].EmbeddingVector()) + 1.0,
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		return ranked[i].entry.InsertedAt.After(ranked[j].entry.InsertedAt)
	})

	if topK > len(ranked) {
		topK = len(ranked)
	}
	results := make([]SearchResult, topK)
	for i := 0; i < topK; i++ {
		results[i] = SearchResult{
			Content:  ranked[i].entry.Content,
			SourceID: ranked[i].entry.SourceID,
			Score:    ranked[i].score,
		}
	}
	return results
}
