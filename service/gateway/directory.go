package gateway

import (
	"sync"
)

// SessionDirectory is the in-memory source of truth for who is reachable.
// It holds three indexes: connID -> client, userID -> (connID -> client),
// roomID -> (connID -> client), plus the reverse room index needed to strip
// a connection from every room on deregistration. All operations are plain
// map work under one RWMutex; the directory does no I/O and never blocks.
//
// Constructed per server (injected, not a package global) so tests can
// build a fresh one.
type SessionDirectory struct {
	mu          sync.RWMutex
	byConn      map[string]*Client
	byUser      map[string]map[string]*Client
	byRoom      map[string]map[string]*Client
	roomsByConn map[string]map[string]struct{}
}

func NewSessionDirectory() *SessionDirectory {
	return &SessionDirectory{
		byConn:      make(map[string]*Client),
		byUser:      make(map[string]map[string]*Client),
		byRoom:      make(map[string]map[string]*Client),
		roomsByConn: make(map[string]map[string]struct{}),
	}
}

// Register adds an authenticated connection. Reports becameOnline when this
// is the user's first live connection (0 -> 1).
func (d *SessionDirectory) Register(c *Client) (becameOnline bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.byConn[c.ConnID] = c
	m := d.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		d.byUser[c.UserID] = m
		becameOnline = true
	}
	m[c.ConnID] = c
	return becameOnline
}

// Deregister removes the connection from the user index and from every room
// it joined. Reports becameOffline when the user's connection count reached
// zero. Unknown connIDs are a no-op.
func (d *SessionDirectory) Deregister(connID string) (c *Client, becameOffline bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.byConn[connID]
	if !ok {
		return nil, false
	}
	delete(d.byConn, connID)

	if m := d.byUser[c.UserID]; m != nil {
		delete(m, connID)
		if len(m) == 0 {
			delete(d.byUser, c.UserID)
			becameOffline = true
		}
	}

	// no dangling room membership
	for roomID := range d.roomsByConn[connID] {
		if rm := d.byRoom[roomID]; rm != nil {
			delete(rm, connID)
			if len(rm) == 0 {
				delete(d.byRoom, roomID)
			}
		}
	}
	delete(d.roomsByConn, connID)

	return c, becameOffline
}

// Lookup returns the user's live connections, possibly none.
func (d *SessionDirectory) Lookup(userID string) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	m := d.byUser[userID]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for _, c := range m {
		out = append(out, c)
	}
	return out
}

// Get returns the client for a connection ID, or nil.
func (d *SessionDirectory) Get(connID string) *Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.byConn[connID]
}

// ConnCount returns the user's live connection count.
func (d *SessionDirectory) ConnCount(userID string) int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byUser[userID])
}

// JoinRoom adds the connection to a room's delivery set. Joining twice is
// a no-op. Unknown connections are ignored: only registered (authenticated)
// connections can hold room membership.
func (d *SessionDirectory) JoinRoom(roomID, connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	c, ok := d.byConn[connID]
	if !ok {
		return
	}
	rm := d.byRoom[roomID]
	if rm == nil {
		rm = make(map[string]*Client)
		d.byRoom[roomID] = rm
	}
	rm[connID] = c

	rs := d.roomsByConn[connID]
	if rs == nil {
		rs = make(map[string]struct{})
		d.roomsByConn[connID] = rs
	}
	rs[roomID] = struct{}{}
}

// LeaveRoom removes the connection from a room. Leaving a room that was
// never joined is a no-op, not an error.
func (d *SessionDirectory) LeaveRoom(roomID, connID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if rm := d.byRoom[roomID]; rm != nil {
		delete(rm, connID)
		if len(rm) == 0 {
			delete(d.byRoom, roomID)
		}
	}
	if rs := d.roomsByConn[connID]; rs != nil {
		delete(rs, roomID)
		if len(rs) == 0 {
			delete(d.roomsByConn, connID)
		}
	}
}

// InRoom reports whether the connection currently holds room membership.
func (d *SessionDirectory) InRoom(roomID, connID string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.byRoom[roomID][connID]
	return ok
}

// RoomMembers returns the room's delivery set.
func (d *SessionDirectory) RoomMembers(roomID string) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	rm := d.byRoom[roomID]
	if len(rm) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(rm))
	for _, c := range rm {
		out = append(out, c)
	}
	return out
}

// AllExceptUser returns every connection not owned by userID; the presence
// broadcast audience.
func (d *SessionDirectory) AllExceptUser(userID string) []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Client, 0, len(d.byConn))
	for _, c := range d.byConn {
		if c.UserID != userID {
			out = append(out, c)
		}
	}
	return out
}

// All returns every tracked connection (liveness sweep, shutdown).
func (d *SessionDirectory) All() []*Client {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make([]*Client, 0, len(d.byConn))
	for _, c := range d.byConn {
		out = append(out, c)
	}
	return out
}

// Len is the total number of tracked connections.
func (d *SessionDirectory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byConn)
}
