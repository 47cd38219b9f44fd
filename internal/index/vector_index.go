package index

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"finadvisor/internal/model"
)

var (
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	ErrIndexUnavailable  = errors.New("vector index unavailable")
)

// VectorIndex is a MySQL-backed store of embedded chunks with cosine
// similarity search. Scoring happens application-side after loading the
// candidate rows: MySQL cannot evaluate a similarity expression over the
// JSON-encoded vector column.
type VectorIndex struct {
	db        *gorm.DB
	dimension int
}

func NewVectorIndex(db *gorm.DB, dimension int) *VectorIndex {
	return &VectorIndex{db: db, dimension: dimension}
}

// Dimension returns the fixed vector dimension D all entries must have.
func (x *VectorIndex) Dimension() int {
	return x.dimension
}

// CreateSchema ensures the backing table exists. Idempotent and safe to call
// on every start; concurrent callers racing the creation both succeed because
// the DDL treats an existing table as success.
func (x *VectorIndex) CreateSchema(ctx context.Context) error {
	if err := x.db.WithContext(ctx).AutoMigrate(&model.VectorEntry{}); err != nil {
		return fmt.Errorf("%w: migrate vector entries: %v", ErrIndexUnavailable, err)
	}
	return nil
}

// Insert upserts one entry by id, so re-ingesting the same source and ordinal
// replaces the prior row instead of accumulating duplicates. Vectors whose
// length differs from the index dimension are rejected before touching the
// store.
func (x *VectorIndex) Insert(ctx context.Context, entry model.VectorEntry) error {
	vec := entry.EmbeddingVector()
	if len(vec) != x.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), x.dimension)
	}
	if entry.ID == "" {
		entry.ID = model.EntryID(entry.SourceID, entry.Ordinal)
	}
	err := x.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(&entry).Error
	if err != nil {
		return fmt.Errorf("%w: insert entry %s: %v", ErrIndexUnavailable, entry.ID, err)
	}
	return nil
}

// Search returns at most topK entries ranked by shifted cosine similarity.
// An empty index yields an empty result, not an error.
func (x *VectorIndex) Search(ctx context.Context, query []float32, topK int) ([]SearchResult, error) {
	if len(query) != x.dimension {
		return nil, fmt.Errorf("%w: query has %d, want %d", ErrDimensionMismatch, len(query), x.dimension)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("invalid topK %d", topK)
	}

	var entries []model.VectorEntry
	if err := x.db.WithContext(ctx).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("%w: load entries: %v", ErrIndexUnavailable, err)
	}
	return rankEntries(entries, query, topK), nil
}

// DeleteBySource removes every entry of the source. Deleting an unknown
// source is a no-op.
func (x *VectorIndex) DeleteBySource(ctx context.Context, sourceID string) error {
	err := x.db.WithContext(ctx).
		Where("source_id = ?", sourceID).
		Delete(&model.VectorEntry{}).Error
	if err != nil {
		return fmt.Errorf("%w: delete source %s: %v", ErrIndexUnavailable, sourceID, err)
	}
	return nil
}

// ListSources returns the entry count per source id.
func (x *VectorIndex) ListSources(ctx context.Context) (map[string]int, error) {
	var rows []struct {
		SourceID string
		Count    int
	}
	err := x.db.WithContext(ctx).
		Model(&model.VectorEntry{}).
		Select("source_id, COUNT(*) AS count").
		Group("source_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("%w: list sources: %v", ErrIndexUnavailable, err)
	}
	sources := make(map[string]int, len(rows))
	for _, row := range rows {
		sources[row.SourceID] = row.Count
	}
	return sources, nil
}
