package model

import "time"

// QueryLog records one answered question for offline inspection.
// Rows are written asynchronously by the query log worker.
type QueryLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Question   string    `gorm:"type:text;not null" json:"question"`
	Answer     string    `gorm:"type:text" json:"answer"`
	TopK       int       `json:"top_k"`
	Matches    int       `json:"matches"`
	DurationMs int64     `json:"duration_ms"`
	CreatedAt  time.Time `json:"created_at"`
}
