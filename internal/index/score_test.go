package index

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/model"
)

func entryWith(id, sourceID string, vec []float32, insertedAt time.Time) model.VectorEntry {
	e := model.VectorEntry{
		ID:         id,
		SourceID:   sourceID,
		Content:    "content of " + id,
		InsertedAt: insertedAt,
	}
	e.SetEmbedding(vec)
	return e
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)

	// zero vectors and mismatched lengths score 0, never NaN
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{1, 0, 0}))
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1, 0}))
}

func TestRankEntriesIdenticalVectorScoresTwo(t *testing.T) {
	now := time.Now()
	entries := []model.VectorEntry{
		entryWith("doc1:0", "doc1", []float32{3, 4}, now),
	}
	results := rankEntries(entries, []float32{3, 4}, 1)
	require.Len(t, results, 1)
	assert.Equal(t, "doc1", results[0].SourceID)
	assert.InDelta(t, 2.0, results[0].Score, 1e-9)
}

func TestRankEntriesOrderedByScoreDescending(t *testing.T) {
	now := time.Now()
	entries := []model.VectorEntry{
		entryWith("a:0", "a", []float32{0, 1}, now),
		entryWith("b:0", "b", []float32{1, 0}, now),
		entryWith("c:0", "c", []float32{1, 1}, now),
	}
	results := rankEntries(entries, []float32{1, 0}, 3)
	require.Len(t, results, 3)
	assert.Equal(t, "b", results[0].SourceID)
	assert.Equal(t, "c", results[1].SourceID)
	assert.Equal(t, "a", results[2].SourceID)
	for i := 1; i < len(results); i++ {
		assert.LessOrEqual(t, results[i].Score, results[i-1].Score)
	}
}

func TestRankEntriesRespectsTopK(t *testing.T) {
	now := time.Now()
	entries := []model.VectorEntry{
		entryWith("a:0", "a", []float32{1, 0}, now),
		entryWith("b:0", "b", []float32{0, 1}, now),
		entryWith("c:0", "c", []float32{1, 1}, now),
	}
	assert.Len(t, rankEntries(entries, []float32{1, 0}, 2), 2)
	assert.Len(t, rankEntries(entries, []float32{1, 0}, 10), 3)
	assert.Nil(t, rankEntries(entries, []float32{1, 0}, 0))
}

func TestRankEntriesTieBrokenByRecency(t *testing.T) {
	older := time.Now().Add(-time.Hour)
	newer := time.Now()
	entries := []model.VectorEntry{
		entryWith("old:0", "old", []float32{1, 0}, older),
		entryWith("new:0", "new", []float32{1, 0}, newer),
	}
	results := rankEntries(entries, []float32{1, 0}, 2)
	require.Len(t, results, 2)
	assert.Equal(t, "new", results[0].SourceID)
	assert.Equal(t, "old", results[1].SourceID)
}

func TestRankEntriesZeroQueryVector(t *testing.T) {
	entries := []model.VectorEntry{
		entryWith("a:0", "a", []float32{1, 0}, time.Now()),
	}
	results := rankEntries(entries, []float32{0, 0}, 1)
	require.Len(t, results, 1)
	assert.InDelta(t, 1.0, results[0].Score, 1e-9)
}

func TestRankEntriesEmpty(t *testing.T) {
	assert.Nil(t, rankEntries(nil, []float32{1, 0}, 5))
}
