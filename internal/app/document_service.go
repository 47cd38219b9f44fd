package app

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Ingestor is the ingestion half of the retrieval pipeline.
type Ingestor interface {
	Ingest(ctx context.Context, sourceID, text string) (int, error)
}

// SourceStore is the slice of the vector index the document service needs
// for listing and cascade deletion.
type SourceStore interface {
	DeleteBySource(ctx context.Context, sourceID string) error
	ListSources(ctx context.Context) (map[string]int, error)
}

type DocumentService struct {
	ingestor Ingestor
	store    SourceStore
}

func NewDocumentService(ingestor Ingestor, store SourceStore) *DocumentService {
	return &DocumentService{ingestor: ingestor, store: store}
}

// IngestResult reports what one ingestion produced.
type IngestResult struct {
	SourceID   string `json:"source_id"`
	ChunkCount int    `json:"chunk_count"`
}

// Ingest runs the retrieval pipeline over extracted text. An empty name gets
// a generated source id. A failing chunk aborts ingestion; entries written
// before the failure stay behind, and the error names the failing point.
func (s *DocumentService) Ingest(ctx context.Context, name, text string) (*IngestResult, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInvalidInput
	}
	sourceID := normalizeSourceID(name)

	count, err := s.ingestor.Ingest(ctx, sourceID, text)
	if err != nil {
		return nil, err
	}
	return &IngestResult{SourceID: sourceID, ChunkCount: count}, nil
}

// ListSources returns the entry count per ingested source.
func (s *DocumentService) ListSources(ctx context.Context) (map[string]int, error) {
	return s.store.ListSources(ctx)
}

// DeleteSource removes all index entries of the source. Unknown sources are
// a no-op.
func (s *DocumentService) DeleteSource(ctx context.Context, sourceID string) error {
	if strings.TrimSpace(sourceID) == "" {
		return ErrInvalidInput
	}
	return s.store.DeleteBySource(ctx, sourceID)
}

// normalizeSourceID turns a display name into a stable source id, generating
// one when the name is empty.
func normalizeSourceID(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.NewString()
	}
	return strings.Join(strings.Fields(name), "-")
}
