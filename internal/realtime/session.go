package realtime

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// sendBufferSize bounds the per-session outbox. A session that cannot
	// drain this many events is dropped instead of blocking the router.
	sendBufferSize = 64

	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
	pongTimeout  = 60 * time.Second
)

// Session is one live connection. It exists only while the transport
// connection is open; room membership lives in the Registry.
type Session struct {
	ID    string
	Actor string

	conn *websocket.Conn
	send chan []byte

	mu     sync.Mutex
	closed bool
}

func NewSession(conn *websocket.Conn, actor string) *Session {
	return &Session{
		ID:    uuid.NewString(),
		Actor: actor,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
	}
}

// Send queues a server event for delivery. It never blocks: if the
// session's outbox is full the event is dropped and the session closed,
// since a stalled reader would otherwise stall every room it is in.
func (s *Session) Send(event string, payload any) {
	msg, err := json.Marshal(ServerEvent{Event: event, Data: payload})
	if err != nil {
		log.Printf("⚠️  marshal %s for session %s: %v", event, s.ID, err)
		return
	}
	s.enqueue(msg)
}

// SendAck queues an acknowledgment for a mutation intent.
func (s *Session) SendAck(ack Ack) {
	msg, err := json.Marshal(ack)
	if err != nil {
		log.Printf("⚠️  marshal ack for session %s: %v", s.ID, err)
		return
	}
	s.enqueue(msg)
}

func (s *Session) enqueue(msg []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- msg:
	default:
		log.Printf("⚠️  session %s outbox full, closing", s.ID)
		s.closeLocked()
	}
}

// Close shuts the outbox down. The write pump closes the connection once
// it drains.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
}

func (s *Session) closeLocked() {
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// Outgoing exposes the outbox. The write pump is its only consumer in
// production; tests read it directly.
func (s *Session) Outgoing() <-chan []byte {
	return s.send
}

// WritePump owns all writes to the connection: queued events plus pings
// on idle. It returns when the outbox is closed or a write fails.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-s.send:
			if !ok {
				s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadLoop decodes inbound envelopes and hands them to handle one at a
// time, so no two intents from the same connection are reordered. It
// returns when the connection drops.
func (s *Session) ReadLoop(handle func(Envelope)) {
	s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongTimeout))
		return nil
	})

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var env Envelope
		if err := json.Unmarshal(msg, &env); err != nil {
			log.Printf("⚠️  session %s sent malformed message: %v", s.ID, err)
			continue
		}
		handle(env)
	}
}
