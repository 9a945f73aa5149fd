package realtime

import (
	"sync"
)

// RoomForBoard derives the broadcast room for a board. Two clients viewing
// the same board always compute the same name.
func RoomForBoard(boardID string) string {
	return "board:" + boardID
}

// Registry tracks live sessions and their room memberships. Joining a room
// never implicitly leaves another; the client is responsible for leaving a
// board before joining the next one.
type Registry struct {
	mu       sync.RWMutex
	sessions map[*Session]map[string]struct{}
	rooms    map[string]map[*Session]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[*Session]map[string]struct{}),
		rooms:    make(map[string]map[*Session]struct{}),
	}
}

// Register adds a newly connected session with no memberships.
func (r *Registry) Register(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[s]; !ok {
		r.sessions[s] = make(map[string]struct{})
	}
}

func (r *Registry) Join(s *Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[s]; !ok {
		r.sessions[s] = make(map[string]struct{})
	}
	r.sessions[s][room] = struct{}{}

	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[*Session]struct{})
	}
	r.rooms[room][s] = struct{}{}
}

func (r *Registry) Leave(s *Session, room string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.leaveLocked(s, room)
}

func (r *Registry) leaveLocked(s *Session, room string) {
	if members, ok := r.rooms[room]; ok {
		delete(members, s)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
	if joined, ok := r.sessions[s]; ok {
		delete(joined, room)
	}
}

// MembersOf returns the sessions in a room, excluding except if non-nil.
func (r *Registry) MembersOf(room string, except *Session) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Session, 0, len(r.rooms[room]))
	for s := range r.rooms[room] {
		if s == except {
			continue
		}
		members = append(members, s)
	}
	return members
}

// All returns every registered session, excluding except if non-nil.
func (r *Registry) All(except *Session) []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessions := make([]*Session, 0, len(r.sessions))
	for s := range r.sessions {
		if s == except {
			continue
		}
		sessions = append(sessions, s)
	}
	return sessions
}

// Rooms returns the rooms a session has joined.
func (r *Registry) Rooms(s *Session) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]string, 0, len(r.sessions[s]))
	for room := range r.sessions[s] {
		rooms = append(rooms, room)
	}
	return rooms
}

// Disconnect removes the session from every room it joined and from the
// registry. Membership is transient; a reconnecting client re-announces
// interest.
func (r *Registry) Disconnect(s *Session) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for room := range r.sessions[s] {
		r.leaveLocked(s, room)
	}
	delete(r.sessions, s)
}
