package realtime_test

import (
	"testing"

	"syncboard/internal/realtime"

	"github.com/stretchr/testify/assert"
)

func TestRoomForBoard_Deterministic(t *testing.T) {
	assert.Equal(t, realtime.RoomForBoard("board-1a2b3c4d"), realtime.RoomForBoard("board-1a2b3c4d"))
	assert.NotEqual(t, realtime.RoomForBoard("board-1a2b3c4d"), realtime.RoomForBoard("board-ffffffff"))
}

func TestRegistry_JoinAndMembers(t *testing.T) {
	registry := realtime.NewRegistry()
	a := realtime.NewSession(nil, "alice")
	b := realtime.NewSession(nil, "bob")

	room := realtime.RoomForBoard("board-1a2b3c4d")
	registry.Join(a, room)
	registry.Join(b, room)

	members := registry.MembersOf(room, nil)
	assert.Len(t, members, 2)

	members = registry.MembersOf(room, a)
	assert.Len(t, members, 1)
	assert.Same(t, b, members[0])
}

func TestRegistry_JoinDoesNotLeavePreviousRoom(t *testing.T) {
	registry := realtime.NewRegistry()
	a := realtime.NewSession(nil, "alice")

	roomX := realtime.RoomForBoard("board-x")
	roomY := realtime.RoomForBoard("board-y")
	registry.Join(a, roomX)
	registry.Join(a, roomY)

	assert.Len(t, registry.MembersOf(roomX, nil), 1)
	assert.Len(t, registry.MembersOf(roomY, nil), 1)
	assert.ElementsMatch(t, []string{roomX, roomY}, registry.Rooms(a))
}

func TestRegistry_Leave(t *testing.T) {
	registry := realtime.NewRegistry()
	a := realtime.NewSession(nil, "alice")

	room := realtime.RoomForBoard("board-1a2b3c4d")
	registry.Join(a, room)
	registry.Leave(a, room)

	assert.Empty(t, registry.MembersOf(room, nil))
	assert.Empty(t, registry.Rooms(a))
}

func TestRegistry_DisconnectClearsAllRooms(t *testing.T) {
	registry := realtime.NewRegistry()
	a := realtime.NewSession(nil, "alice")
	b := realtime.NewSession(nil, "bob")

	roomX := realtime.RoomForBoard("board-x")
	roomY := realtime.RoomForBoard("board-y")
	registry.Join(a, roomX)
	registry.Join(a, roomY)
	registry.Join(b, roomX)

	registry.Disconnect(a)

	assert.Empty(t, registry.Rooms(a))
	members := registry.MembersOf(roomX, nil)
	assert.Len(t, members, 1)
	assert.Same(t, b, members[0])
	assert.Empty(t, registry.MembersOf(roomY, nil))
}

func TestRegistry_AllExcludesGivenSession(t *testing.T) {
	registry := realtime.NewRegistry()
	a := realtime.NewSession(nil, "alice")
	b := realtime.NewSession(nil, "bob")

	registry.Register(a)
	registry.Register(b)

	assert.Len(t, registry.All(nil), 2)
	all := registry.All(a)
	assert.Len(t, all, 1)
	assert.Same(t, b, all[0])
}
