package realtime

// Router fans events out to room members. Delivery is best-effort: a
// session with a full outbox is dropped by Send, never waited on.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Broadcast delivers an event to every session in the room. Pass the
// originating session as except to suppress the echo; the originator
// still gets its own ack separately.
func (r *Router) Broadcast(room, event string, payload any, except *Session) {
	for _, s := range r.registry.MembersOf(room, except) {
		s.Send(event, payload)
	}
}

// BroadcastAll delivers an event to every connected session. Notes are
// not board-scoped, so note events have no room to target.
func (r *Router) BroadcastAll(event string, payload any, except *Session) {
	for _, s := range r.registry.All(except) {
		s.Send(event, payload)
	}
}

// Emit delivers an event to a single session.
func (r *Router) Emit(s *Session, event string, payload any) {
	s.Send(event, payload)
}
