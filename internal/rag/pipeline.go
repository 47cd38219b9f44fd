package rag

import (
	"context"
	"fmt"

	"finadvisor/internal/index"
	"finadvisor/internal/model"
)

// DefaultTopK is used when the caller does not supply a result limit.
const DefaultTopK = 3

// Embedder turns a text into a fixed-dimension vector via the embedding
// service.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Index is the vector store the pipeline writes to and searches.
type Index interface {
	Insert(ctx context.Context, entry model.VectorEntry) error
	Search(ctx context.Context, query []float32, topK int) ([]index.SearchResult, error)
}

// Pipeline orchestrates ingestion (chunk, embed, insert) and retrieval
// (embed query, search). Both collaborators are injected; the pipeline holds
// no global state.
type Pipeline struct {
	embedder  Embedder
	index     Index
	chunkSize int
	overlap   int
}

func NewPipeline(embedder Embedder, idx Index, chunkSize, overlap int) *Pipeline {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	return &Pipeline{
		embedder:  embedder,
		index:     idx,
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// Ingest chunks text and, chunk by chunk in original order, embeds and
// inserts. The first failing chunk aborts ingestion; entries written before
// the failure stay in the index, and the returned error names the failing
// ordinal so the caller can decide on retry or cleanup.
func (p *Pipeline) Ingest(ctx context.Context, sourceID, text string) (int, error) {
	chunks, err := Split(sourceID, text, p.chunkSize, p.overlap)
	if err != nil {
		return 0, fmt.Errorf("chunk source %s: %w", sourceID, err)
	}

	for _, chunk := range chunks {
		vec, err := p.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return 0, fmt.Errorf("embed chunk %d of source %s: %w", chunk.Ordinal, sourceID, err)
		}
		entry := model.VectorEntry{
			ID:       model.EntryID(chunk.SourceID, chunk.Ordinal),
			SourceID: chunk.SourceID,
			Ordinal:  chunk.Ordinal,
			Content:  chunk.Text,
		}
		entry.SetEmbedding(vec)
		if err := p.index.Insert(ctx, entry); err != nil {
			return 0, fmt.Errorf("index chunk %d of source %s: %w", chunk.Ordinal, sourceID, err)
		}
	}
	return len(chunks), nil
}

// Query embeds the question once and searches the index. Zero matches is a
// successful empty result, not an error; callers use it to produce a canned
// reply instead of invoking the answer generator.
func (p *Pipeline) Query(ctx context.Context, question string, topK int) ([]index.SearchResult, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	vec, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("embed question: %w", err)
	}
	results, err := p.index.Search(ctx, vec, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return results, nil
}
