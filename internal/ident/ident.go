package ident

import (
	"strings"

	"github.com/google/uuid"
)

// Entity ids are a typed prefix plus the leading hex of a random UUID.
// The prefix makes ids self-describing in logs and in the version tables.
const (
	BoardPrefix = "board-"
	CardPrefix  = "card-"
	NotePrefix  = "note-"
)

func NewBoardID() string {
	return newID(BoardPrefix, 8)
}

func NewCardID() string {
	return newID(CardPrefix, 12)
}

func NewNoteID() string {
	return newID(NotePrefix, 16)
}

func newID(prefix string, length int) string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return prefix + raw[:length]
}
