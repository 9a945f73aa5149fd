package model

import (
	"time"
)

type Board struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"not null" json:"name"`
	Columns   []string  `gorm:"serializer:json" json:"columns"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ColumnPosition is one element of a batch column reorder.
type ColumnPosition struct {
	ID       string `json:"id"`
	Position int    `json:"position"`
}
