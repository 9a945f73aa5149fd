package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"syncboard/internal/ident"
	"syncboard/internal/model"
	"syncboard/internal/realtime"

	"github.com/go-playground/validator/v10"
)

// BoardGateway is the persistence contract for boards.
type BoardGateway interface {
	Create(ctx context.Context, board *model.Board) error
	GetAll(ctx context.Context) ([]model.Board, error)
	GetByID(ctx context.Context, id string) (*model.Board, error)
	Update(ctx context.Context, board *model.Board) error
	Delete(ctx context.Context, id string) error
	UpdateColumnPositions(ctx context.Context, boardID string, updates []model.ColumnPosition) error
}

// CardGateway is the persistence contract for cards and their history.
type CardGateway interface {
	Create(ctx context.Context, card *model.Card) error
	GetByID(ctx context.Context, id string) (*model.Card, error)
	GetByBoardID(ctx context.Context, boardID string) ([]model.Card, error)
	Update(ctx context.Context, card *model.Card, actor string) error
	Delete(ctx context.Context, id string) error
	AddComment(ctx context.Context, comment *model.Comment) error
	GetVersions(ctx context.Context, cardID string) ([]model.CardVersion, error)
}

// NoteGateway is the persistence contract for notes and their history.
type NoteGateway interface {
	Create(ctx context.Context, note *model.Note) error
	GetAll(ctx context.Context) ([]model.Note, error)
	GetByID(ctx context.Context, id string) (*model.Note, error)
	Update(ctx context.Context, note *model.Note, actor string) error
	GetVersions(ctx context.Context, noteID string) ([]model.NoteVersion, error)
}

// defaultColumns seeds a board created without an explicit column list.
var defaultColumns = []string{"todo", "in_progress", "review", "done"}

// SocketHandler validates mutation intents, applies them through the
// gateways and routes the outcome: an ack to the originator, a broadcast
// to the board's room. A failure in one session's mutation never reaches
// another session.
type SocketHandler struct {
	boards   BoardGateway
	cards    CardGateway
	notes    NoteGateway
	registry *realtime.Registry
	router   *realtime.Router
	validate *validator.Validate
}

func NewSocketHandler(boards BoardGateway, cards CardGateway, notes NoteGateway, registry *realtime.Registry, router *realtime.Router) *SocketHandler {
	return &SocketHandler{
		boards:   boards,
		cards:    cards,
		notes:    notes,
		registry: registry,
		router:   router,
		validate: validator.New(),
	}
}

// Serve registers the session and processes its messages until the
// connection drops, then clears every room membership it held.
func (h *SocketHandler) Serve(ctx context.Context, s *realtime.Session) {
	h.registry.Register(s)
	defer func() {
		h.registry.Disconnect(s)
		s.Close()
	}()

	s.ReadLoop(func(env realtime.Envelope) {
		h.Dispatch(ctx, s, env)
	})
}

// Dispatch routes one envelope to its operation. Panics are contained
// here so a bad payload cannot take the process down.
func (h *SocketHandler) Dispatch(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("❌ panic handling %s from session %s: %v", env.Event, s.ID, r)
			s.SendAck(realtime.ErrorAck(env.Seq, fmt.Errorf("internal error")))
		}
	}()

	switch env.Event {
	case realtime.EventFetchBoards:
		h.fetchBoards(ctx, s, env)
	case realtime.EventCreateBoard:
		h.createBoard(ctx, s, env)
	case realtime.EventUpdateBoard:
		h.updateBoard(ctx, s, env)
	case realtime.EventDeleteBoard:
		h.deleteBoard(ctx, s, env)
	case realtime.EventUpdateColumnPositions:
		h.updateColumnPositions(ctx, s, env)
	case realtime.EventJoinBoard:
		h.joinBoard(ctx, s, env)
	case realtime.EventLeaveBoard:
		h.leaveBoard(s, env)
	case realtime.EventNewCard:
		h.newCard(ctx, s, env)
	case realtime.EventUpdateCard:
		h.updateCard(ctx, s, env)
	case realtime.EventDeleteCard:
		h.deleteCard(ctx, s, env)
	case realtime.EventGetCard:
		h.getCard(ctx, s, env)
	case realtime.EventAddComment:
		h.addComment(ctx, s, env)
	case realtime.EventGetCardVersions:
		h.getCardVersions(ctx, s, env)
	case realtime.EventFetchNotes:
		h.fetchNotes(ctx, s, env)
	case realtime.EventCreateNote:
		h.createNote(ctx, s, env)
	case realtime.EventUpdateNote:
		h.updateNote(ctx, s, env)
	case realtime.EventGetNote:
		h.getNote(ctx, s, env)
	case realtime.EventGetNoteVersions:
		h.getNoteVersions(ctx, s, env)
	default:
		s.SendAck(realtime.ErrorAck(env.Seq, fmt.Errorf("unknown event %q", env.Event)))
	}
}

// bind decodes and validates a struct payload. A failure here is a
// validation error: nothing has touched the store yet.
func (h *SocketHandler) bind(data json.RawMessage, out any) error {
	if len(data) == 0 {
		return errors.New("missing payload")
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("malformed payload: %w", err)
	}
	return h.validate.Struct(out)
}

// bindID decodes a bare string payload (entity id).
func (h *SocketHandler) bindID(data json.RawMessage) (string, error) {
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		return "", fmt.Errorf("malformed payload: %w", err)
	}
	if id == "" {
		return "", errors.New("missing id")
	}
	return id, nil
}

func (h *SocketHandler) fail(s *realtime.Session, env realtime.Envelope, err error) {
	log.Printf("❌ %s from session %s failed: %v", env.Event, s.ID, err)
	s.SendAck(realtime.ErrorAck(env.Seq, err))
}

// Board operations

func (h *SocketHandler) fetchBoards(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	boards, err := h.boards.GetAll(ctx)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	s.SendAck(realtime.OKAck(env.Seq, boards))
}

type CreateBoardRequest struct {
	Name    string   `json:"name" validate:"required"`
	Columns []string `json:"columns"`
}

func (h *SocketHandler) createBoard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req CreateBoardRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	columns := req.Columns
	if len(columns) == 0 {
		columns = append([]string{}, defaultColumns...)
	}
	board := &model.Board{
		ID:      ident.NewBoardID(),
		Name:    req.Name,
		Columns: columns,
	}
	if err := h.boards.Create(ctx, board); err != nil {
		h.fail(s, env, err)
		return
	}
	// No boardAdded broadcast: clients refetch the board list.
	s.SendAck(realtime.OKAck(env.Seq, board))
}

type UpdateBoardRequest struct {
	ID      string   `json:"id" validate:"required"`
	Name    string   `json:"name" validate:"required"`
	Columns []string `json:"columns"`
}

func (h *SocketHandler) updateBoard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req UpdateBoardRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	board, err := h.boards.GetByID(ctx, req.ID)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	if board == nil {
		h.fail(s, env, fmt.Errorf("board %s not found", req.ID))
		return
	}

	board.Name = req.Name
	if req.Columns != nil {
		board.Columns = req.Columns
	}
	if err := h.boards.Update(ctx, board); err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, board))
	h.router.Broadcast(realtime.RoomForBoard(board.ID), realtime.EventBoardUpdated, board, s)
}

type DeleteRequest struct {
	ID string `json:"id" validate:"required"`
}

func (h *SocketHandler) deleteBoard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req DeleteRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}
	if err := h.boards.Delete(ctx, req.ID); err != nil {
		h.fail(s, env, err)
		return
	}
	s.SendAck(realtime.OKAck(env.Seq, nil))
}

type UpdateColumnPositionsRequest struct {
	BoardID   string                 `json:"boardId" validate:"required"`
	Positions []model.ColumnPosition `json:"positions" validate:"required,min=1"`
}

func (h *SocketHandler) updateColumnPositions(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req UpdateColumnPositionsRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	if err := h.boards.UpdateColumnPositions(ctx, req.BoardID, req.Positions); err != nil {
		h.fail(s, env, err)
		return
	}

	board, err := h.boards.GetByID(ctx, req.BoardID)
	if err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, board))
	h.router.Broadcast(realtime.RoomForBoard(req.BoardID), realtime.EventBoardUpdated, board, s)
}

// BoardData is the joinBoard preload: the board plus all of its cards.
type BoardData struct {
	Board *model.Board `json:"board"`
	Cards []model.Card `json:"cards"`
}

func (h *SocketHandler) joinBoard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	boardID, err := h.bindID(env.Data)
	if err != nil {
		log.Printf("❌ joinBoard from session %s: %v", s.ID, err)
		return
	}

	h.registry.Join(s, realtime.RoomForBoard(boardID))

	board, err := h.boards.GetByID(ctx, boardID)
	if err != nil {
		log.Printf("❌ joinBoard preload for %s: %v", boardID, err)
		return
	}
	cards, err := h.cards.GetByBoardID(ctx, boardID)
	if err != nil {
		log.Printf("❌ joinBoard preload for %s: %v", boardID, err)
		return
	}

	h.router.Emit(s, realtime.EventBoardDataReceived, BoardData{Board: board, Cards: cards})
}

func (h *SocketHandler) leaveBoard(s *realtime.Session, env realtime.Envelope) {
	boardID, err := h.bindID(env.Data)
	if err != nil {
		log.Printf("❌ leaveBoard from session %s: %v", s.ID, err)
		return
	}
	h.registry.Leave(s, realtime.RoomForBoard(boardID))
}

// Card operations

type NewCardRequest struct {
	Title       string     `json:"title" validate:"required"`
	Board       string     `json:"board" validate:"required"`
	Column      string     `json:"column" validate:"required"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"dueDate"`
	Position    int        `json:"position"`
}

func (h *SocketHandler) newCard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req NewCardRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	card := &model.Card{
		ID:          ident.NewCardID(),
		BoardID:     req.Board,
		ColumnID:    req.Column,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		DueDate:     req.DueDate,
		Position:    req.Position,
	}
	if err := h.cards.Create(ctx, card); err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, card))
	h.router.Broadcast(realtime.RoomForBoard(card.BoardID), realtime.EventCardAdded, card, s)
}

type UpdateCardRequest struct {
	ID          string     `json:"id" validate:"required"`
	Title       string     `json:"title" validate:"required"`
	Board       string     `json:"board" validate:"required"`
	Column      string     `json:"column" validate:"required"`
	Description string     `json:"description"`
	Tags        []string   `json:"tags"`
	DueDate     *time.Time `json:"dueDate"`
	Position    int        `json:"position"`
}

func (h *SocketHandler) updateCard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req UpdateCardRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	card := &model.Card{
		ID:          req.ID,
		BoardID:     req.Board,
		ColumnID:    req.Column,
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
		DueDate:     req.DueDate,
		Position:    req.Position,
	}
	if err := h.cards.Update(ctx, card, s.Actor); err != nil {
		h.fail(s, env, err)
		return
	}

	// Broadcast the canonical post-commit state, comments included.
	updated, err := h.cards.GetByID(ctx, card.ID)
	if err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, updated))
	h.router.Broadcast(realtime.RoomForBoard(req.Board), realtime.EventCardUpdated, updated, s)
}

func (h *SocketHandler) deleteCard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req DeleteRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	card, err := h.cards.GetByID(ctx, req.ID)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	if card == nil {
		h.fail(s, env, fmt.Errorf("card %s not found", req.ID))
		return
	}

	if err := h.cards.Delete(ctx, req.ID); err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, nil))
	h.router.Broadcast(realtime.RoomForBoard(card.BoardID), realtime.EventCardRemoved, DeleteRequest{ID: req.ID}, s)
}

func (h *SocketHandler) getCard(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	cardID, err := h.bindID(env.Data)
	if err != nil {
		log.Printf("❌ getCard from session %s: %v", s.ID, err)
		return
	}

	card, err := h.cards.GetByID(ctx, cardID)
	if err != nil {
		// No ack channel for this event: log and stay silent.
		log.Printf("❌ getCard %s: %v", cardID, err)
		return
	}
	h.router.Emit(s, realtime.EventCardDataReceived, card)
}

type AddCommentRequest struct {
	CardID string `json:"cardId" validate:"required"`
	Author string `json:"author"`
	Text   string `json:"text" validate:"required"`
}

func (h *SocketHandler) addComment(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req AddCommentRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	author := req.Author
	if author == "" {
		author = s.Actor
	}
	comment := &model.Comment{
		CardID: req.CardID,
		Author: author,
		Text:   req.Text,
	}
	if err := h.cards.AddComment(ctx, comment); err != nil {
		h.fail(s, env, err)
		return
	}

	card, err := h.cards.GetByID(ctx, req.CardID)
	if err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, card))
	if card != nil {
		h.router.Broadcast(realtime.RoomForBoard(card.BoardID), realtime.EventCardUpdated, card, s)
	}
}

func (h *SocketHandler) getCardVersions(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	cardID, err := h.bindID(env.Data)
	if err != nil {
		h.fail(s, env, err)
		return
	}

	versions, err := h.cards.GetVersions(ctx, cardID)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	s.SendAck(realtime.OKAck(env.Seq, versions))
}

// Note operations

func (h *SocketHandler) fetchNotes(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	notes, err := h.notes.GetAll(ctx)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	s.SendAck(realtime.OKAck(env.Seq, notes))
}

type CreateNoteRequest struct {
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (h *SocketHandler) createNote(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req CreateNoteRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	note := &model.Note{
		ID:          ident.NewNoteID(),
		Title:       req.Title,
		Description: req.Description,
		Tags:        req.Tags,
	}
	if err := h.notes.Create(ctx, note); err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, note))
	// Notes have no room: every connected session gets the event.
	h.router.BroadcastAll(realtime.EventNoteAdded, note, s)
}

type UpdateNoteRequest struct {
	ID          string   `json:"id" validate:"required"`
	Title       string   `json:"title" validate:"required"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

func (h *SocketHandler) updateNote(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	var req UpdateNoteRequest
	if err := h.bind(env.Data, &req); err != nil {
		h.fail(s, env, err)
		return
	}

	note, err := h.notes.GetByID(ctx, req.ID)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	if note == nil {
		h.fail(s, env, fmt.Errorf("note %s not found", req.ID))
		return
	}

	note.Title = req.Title
	note.Description = req.Description
	note.Tags = req.Tags
	if err := h.notes.Update(ctx, note, s.Actor); err != nil {
		h.fail(s, env, err)
		return
	}

	s.SendAck(realtime.OKAck(env.Seq, note))
	h.router.BroadcastAll(realtime.EventNoteUpdated, note, s)
}

func (h *SocketHandler) getNote(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	noteID, err := h.bindID(env.Data)
	if err != nil {
		log.Printf("❌ getNote from session %s: %v", s.ID, err)
		return
	}

	note, err := h.notes.GetByID(ctx, noteID)
	if err != nil {
		log.Printf("❌ getNote %s: %v", noteID, err)
		return
	}
	h.router.Emit(s, realtime.EventNoteDataReceived, note)
}

func (h *SocketHandler) getNoteVersions(ctx context.Context, s *realtime.Session, env realtime.Envelope) {
	noteID, err := h.bindID(env.Data)
	if err != nil {
		h.fail(s, env, err)
		return
	}

	versions, err := h.notes.GetVersions(ctx, noteID)
	if err != nil {
		h.fail(s, env, err)
		return
	}
	s.SendAck(realtime.OKAck(env.Seq, versions))
}
