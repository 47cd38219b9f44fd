package model

import "time"

// PortfolioHolding is one position parsed from an uploaded portfolio CSV.
type PortfolioHolding struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Portfolio string    `gorm:"size:256;not null;index" json:"portfolio"`
	Symbol    string    `gorm:"size:32;not null" json:"symbol"`
	Name      string    `gorm:"size:256" json:"name"`
	Quantity  float64   `gorm:"not null" json:"quantity"`
	Price     float64   `gorm:"not null" json:"price"`
	Value     float64   `gorm:"not null" json:"value"`
	CreatedAt time.Time `json:"created_at"`
}
