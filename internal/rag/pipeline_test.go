package rag

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/index"
	"finadvisor/internal/model"
)

type fakeEmbedder struct {
	calls   []string
	vec     []float32
	err     error
	failAt  int // 1-based call number that errors; 0 = controlled by err only
	callNum int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.callNum++
	f.calls = append(f.calls, text)
	if f.err != nil && (f.failAt == 0 || f.callNum == f.failAt) {
		return nil, f.err
	}
	return f.vec, nil
}

type fakeIndex struct {
	inserted  []model.VectorEntry
	insertErr error
	failAt    int
	results   []index.SearchResult
	searchErr error
	lastTopK  int
}

func (f *fakeIndex) Insert(ctx context.Context, entry model.VectorEntry) error {
	if f.insertErr != nil && (f.failAt == 0 || len(f.inserted)+1 == f.failAt) {
		return f.insertErr
	}
	f.inserted = append(f.inserted, entry)
	return nil
}

func (f *fakeIndex) Search(ctx context.Context, query []float32, topK int) ([]index.SearchResult, error) {
	f.lastTopK = topK
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.results, nil
}

const ingestText = "Cats are mammals. Dogs are mammals too. Fish are not mammals."

func TestIngestPreservesChunkOrder(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	idx := &fakeIndex{}
	p := NewPipeline(embedder, idx, 30, 2)

	count, err := p.Ingest(context.Background(), "doc1", ingestText)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	require.Len(t, idx.inserted, 3)

	for i, entry := range idx.inserted {
		assert.Equal(t, i, entry.Ordinal)
		assert.Equal(t, "doc1", entry.SourceID)
		assert.Equal(t, model.EntryID("doc1", i), entry.ID)
		assert.Equal(t, embedder.calls[i], entry.Content)
	}
}

func TestIngestPropagatesEmbedErrorWithOrdinal(t *testing.T) {
	embedErr := errors.New("embedding service down")
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}, err: embedErr, failAt: 2}
	idx := &fakeIndex{}
	p := NewPipeline(embedder, idx, 30, 2)

	_, err := p.Ingest(context.Background(), "doc1", ingestText)
	require.ErrorIs(t, err, embedErr)
	assert.Contains(t, err.Error(), "chunk 1 of source doc1")
	// the chunk before the failure stays inserted
	assert.Len(t, idx.inserted, 1)
}

func TestIngestPropagatesInsertError(t *testing.T) {
	insertErr := errors.New("index unreachable")
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	idx := &fakeIndex{insertErr: insertErr, failAt: 2}
	p := NewPipeline(embedder, idx, 30, 2)

	_, err := p.Ingest(context.Background(), "doc1", ingestText)
	require.ErrorIs(t, err, insertErr)
	assert.Contains(t, err.Error(), "chunk 1 of source doc1")
	assert.Len(t, idx.inserted, 1)
}

func TestIngestInvalidChunkParamsSurface(t *testing.T) {
	// NewPipeline normalizes non-positive sizes, so drive Split directly
	_, err := Split("doc1", ingestText, -1, 0)
	assert.ErrorIs(t, err, ErrChunkParams)
}

func TestQueryUsesDefaultTopK(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	idx := &fakeIndex{results: []index.SearchResult{{Content: "c", SourceID: "doc1", Score: 2.0}}}
	p := NewPipeline(embedder, idx, 500, 50)

	results, err := p.Query(context.Background(), "what is a mammal?", 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultTopK, idx.lastTopK)
	assert.Len(t, results, 1)
}

func TestQueryEmptyIndexIsNotAnError(t *testing.T) {
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	idx := &fakeIndex{results: nil}
	p := NewPipeline(embedder, idx, 500, 50)

	results, err := p.Query(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestQueryPropagatesEmbedError(t *testing.T) {
	embedErr := errors.New("embedding service down")
	embedder := &fakeEmbedder{err: embedErr}
	p := NewPipeline(embedder, &fakeIndex{}, 500, 50)

	_, err := p.Query(context.Background(), "anything", 5)
	require.ErrorIs(t, err, embedErr)
	assert.Contains(t, err.Error(), "embed question")
}

func TestQueryPropagatesSearchError(t *testing.T) {
	searchErr := errors.New("index unreachable")
	embedder := &fakeEmbedder{vec: []float32{1, 0, 0}}
	p := NewPipeline(embedder, &fakeIndex{searchErr: searchErr}, 500, 50)

	_, err := p.Query(context.Background(), "anything", 5)
	require.ErrorIs(t, err, searchErr)
}
