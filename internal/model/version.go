package model

import (
	"time"
)

// CardVersion holds the JSON snapshot of a card's state immediately before
// an update. Rows are append-only and removed only when the card is deleted.
type CardVersion struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	CardID    string    `gorm:"not null;index" json:"cardId"`
	Snapshot  string    `gorm:"not null" json:"snapshot"`
	ChangedBy string    `gorm:"not null" json:"changedBy"`
	CreatedAt time.Time `json:"createdAt"`
}

// NoteVersion is the note counterpart of CardVersion.
type NoteVersion struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	NoteID    string    `gorm:"not null;index" json:"noteId"`
	Snapshot  string    `gorm:"not null" json:"snapshot"`
	ChangedBy string    `gorm:"not null" json:"changedBy"`
	CreatedAt time.Time `json:"createdAt"`
}
