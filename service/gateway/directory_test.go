package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(connID, userID string) *Client {
	return &Client{ConnID: connID, UserID: userID}
}

func TestDirectoryRegisterSignalsOnline(t *testing.T) {
	d := NewSessionDirectory()

	a1 := newTestClient("c1", "alice")
	require.True(t, d.Register(a1), "first connection must signal became-online")

	a2 := newTestClient("c2", "alice")
	require.False(t, d.Register(a2), "second connection must not signal again")

	assert.Equal(t, 2, d.ConnCount("alice"))
	assert.Len(t, d.Lookup("alice"), 2)
}

func TestDirectoryDeregisterSignalsOfflineOnLastConn(t *testing.T) {
	d := NewSessionDirectory()
	d.Register(newTestClient("c1", "alice"))
	d.Register(newTestClient("c2", "alice"))

	_, offline := d.Deregister("c1")
	assert.False(t, offline, "one tab left, user still online")

	_, offline = d.Deregister("c2")
	assert.True(t, offline, "last connection gone, must signal became-offline")
	assert.Empty(t, d.Lookup("alice"))
}

func TestDirectoryDeregisterUnknownConnIsNoop(t *testing.T) {
	d := NewSessionDirectory()
	c, offline := d.Deregister("nope")
	assert.Nil(t, c)
	assert.False(t, offline)
}

func TestDirectoryDeregisterStripsRoomMembership(t *testing.T) {
	d := NewSessionDirectory()
	d.Register(newTestClient("c1", "alice"))
	d.Register(newTestClient("c2", "bob"))

	d.JoinRoom("room-1", "c1")
	d.JoinRoom("room-2", "c1")
	d.JoinRoom("room-1", "c2")
	require.Len(t, d.RoomMembers("room-1"), 2)

	d.Deregister("c1")
	assert.Len(t, d.RoomMembers("room-1"), 1, "alice must be gone from room-1")
	assert.Empty(t, d.RoomMembers("room-2"), "room-2 had only alice")
	assert.False(t, d.InRoom("room-1", "c1"))
}

func TestDirectoryLeaveRoomIdempotent(t *testing.T) {
	d := NewSessionDirectory()
	d.Register(newTestClient("c1", "alice"))

	// leaving a room never joined must be a no-op
	d.LeaveRoom("room-1", "c1")
	d.JoinRoom("room-1", "c1")
	d.LeaveRoom("room-1", "c1")
	d.LeaveRoom("room-1", "c1")
	assert.Empty(t, d.RoomMembers("room-1"))
}

func TestDirectoryJoinRoomRequiresRegistration(t *testing.T) {
	d := NewSessionDirectory()
	d.JoinRoom("room-1", "ghost")
	assert.Empty(t, d.RoomMembers("room-1"), "unregistered connections cannot join rooms")
}

func TestDirectoryAllExceptUser(t *testing.T) {
	d := NewSessionDirectory()
	d.Register(newTestClient("c1", "alice"))
	d.Register(newTestClient("c2", "alice"))
	d.Register(newTestClient("c3", "bob"))

	others := d.AllExceptUser("alice")
	require.Len(t, others, 1)
	assert.Equal(t, "bob", others[0].UserID)
	assert.Equal(t, 3, d.Len())
}
