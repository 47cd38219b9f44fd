package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// VectorEntry stores one indexed chunk and its embedding vector.
// Embedding is stored as a JSON array of float32 for portability.
type VectorEntry struct {
	ID         string    `gorm:"primaryKey;size:512" json:"id"`
	SourceID   string    `gorm:"size:256;not null;index" json:"source_id"`
	Ordinal    int       `gorm:"not null" json:"ordinal"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	Embedding  string    `gorm:"type:mediumtext;not null" json:"-"` // JSON array of float32
	InsertedAt time.Time `gorm:"autoCreateTime" json:"inserted_at"`
}

// EntryID derives the unique entry id from a source id and chunk ordinal.
func EntryID(sourceID string, ordinal int) string {
	return fmt.Sprintf("%s:%d", sourceID, ordinal)
}

// EmbeddingVector returns the parsed embedding slice; empty on parse error.
func (e *VectorEntry) EmbeddingVector() []float32 {
	if e.Embedding == "" {
		return nil
	}
	var v []float32
	_ = json.Unmarshal([]byte(e.Embedding), &v)
	return v
}

// SetEmbedding stores the vector as JSON.
func (e *VectorEntry) SetEmbedding(vec []float32) {
	if len(vec) == 0 {
		e.Embedding = "[]"
		return
	}
	b, _ := json.Marshal(vec)
	e.Embedding = string(b)
}
