package realtime

import "encoding/json"

// Client-to-server events.
const (
	EventFetchBoards           = "fetchBoards"
	EventCreateBoard           = "createBoard"
	EventUpdateBoard           = "updateBoard"
	EventDeleteBoard           = "deleteBoard"
	EventUpdateColumnPositions = "updateColumnPositions"
	EventJoinBoard             = "joinBoard"
	EventLeaveBoard            = "leaveBoard"
	EventNewCard               = "newCard"
	EventUpdateCard            = "updateCard"
	EventDeleteCard            = "deleteCard"
	EventGetCard               = "getCard"
	EventAddComment            = "addComment"
	EventGetCardVersions       = "getCardVersions"
	EventFetchNotes            = "fetchNotes"
	EventCreateNote            = "createNote"
	EventUpdateNote            = "updateNote"
	EventGetNote               = "getNote"
	EventGetNoteVersions       = "getNoteVersions"
)

// Server-to-client events.
const (
	EventAck               = "ack"
	EventBoardUpdated      = "boardUpdated"
	EventBoardDataReceived = "boardDataReceived"
	EventCardAdded         = "cardAdded"
	EventCardUpdated       = "cardUpdated"
	EventCardRemoved       = "cardRemoved"
	EventCardDataReceived  = "cardDataReceived"
	EventNoteAdded         = "noteAdded"
	EventNoteUpdated       = "noteUpdated"
	EventNoteDataReceived  = "noteDataReceived"
)

// Ack statuses. Every mutation resolves to exactly one of these.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Envelope is one client-to-server message. Seq is echoed back on the ack
// so the client can match responses to requests.
type Envelope struct {
	Event string          `json:"event"`
	Seq   uint64          `json:"seq,omitempty"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ServerEvent is one server-to-client message.
type ServerEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// Ack is the tagged result of a mutation intent.
type Ack struct {
	Event  string `json:"event"`
	Seq    uint64 `json:"seq"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
	Data   any    `json:"data,omitempty"`
}

func OKAck(seq uint64, data any) Ack {
	return Ack{Event: EventAck, Seq: seq, Status: StatusOK, Data: data}
}

func ErrorAck(seq uint64, err error) Ack {
	return Ack{Event: EventAck, Seq: seq, Status: StatusError, Error: err.Error()}
}
