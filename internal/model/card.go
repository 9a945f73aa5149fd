package model

import (
	"time"
)

type Card struct {
	ID          string     `gorm:"primaryKey" json:"id"`
	BoardID     string     `gorm:"not null;index" json:"board"`
	ColumnID    string     `gorm:"not null" json:"column"`
	Title       string     `gorm:"not null" json:"title"`
	Description string     `json:"description"`
	Tags        []string   `gorm:"serializer:json" json:"tags"`
	DueDate     *time.Time `json:"dueDate"`
	Position    int        `gorm:"not null" json:"position"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`

	Comments []Comment `gorm:"foreignKey:CardID" json:"comments"`
}

// Comment is an append-only entry on a card. Stored as its own row so
// author and text can contain any characters.
type Comment struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CardID    string    `gorm:"not null;index" json:"-"`
	Author    string    `gorm:"not null" json:"author"`
	Text      string    `gorm:"not null" json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}
