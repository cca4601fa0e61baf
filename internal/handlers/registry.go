package handlers

import (
	"sync"

	"social-backend/internal/utils"

	"github.com/google/uuid"
)

// eventSink is the write side of a live connection. *websocket.Conn satisfies
// it; tests substitute a recording fake.
type eventSink interface {
	WriteJSON(v interface{}) error
}

// Client is one live connection: an identity plus a send capability. A user
// with several tabs open holds several Clients.
type Client struct {
	ID       string
	Username string

	mu   sync.Mutex
	conn eventSink
}

func NewClient(username string, conn eventSink) *Client {
	return &Client{ID: uuid.New().String(), Username: username, conn: conn}
}

// Send writes one event to the connection. The fiber websocket conn is not
// safe for concurrent writes, so writes are serialized per client.
func (c *Client) Send(event interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(event)
}

// Registry tracks live connections grouped by room and fans events out to
// them. It is the only cross-connection mutable state in the realtime core;
// all access goes through the mutex. Broadcasts take the same lock as
// membership changes, which serializes deliveries to a room in the order the
// events were raised.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]map[string]*Client
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[string]map[string]*Client)}
}

func (r *Registry) Join(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.rooms[room]; !ok {
		r.rooms[room] = make(map[string]*Client)
	}
	r.rooms[room][c.ID] = c
}

// Leave removes the client from the room. Safe to call for a client that
// never finished joining.
func (r *Registry) Leave(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if members, ok := r.rooms[room]; ok {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(r.rooms, room)
		}
	}
}

// Broadcast delivers event to every member of the room except excludeID (no
// exclusion when empty). Delivery is fire-and-forget per recipient: one
// failed write is logged and never aborts the rest.
func (r *Registry) Broadcast(room string, event interface{}, excludeID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, client := range r.rooms[room] {
		if id == excludeID {
			continue
		}
		if err := client.Send(event); err != nil {
			utils.LogError(err, "Broadcast")
		}
	}
}

// BroadcastExcludingUser delivers event to every member of the room except
// every connection belonging to username. Typing, read-receipt and presence
// notices use this so a user's other tabs never see their own events; chat
// messages do not, since those echo to the sender.
func (r *Registry) BroadcastExcludingUser(room string, event interface{}, username string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, client := range r.rooms[room] {
		if client.Username == username {
			continue
		}
		if err := client.Send(event); err != nil {
			utils.LogError(err, "BroadcastExcludingUser")
		}
	}
}

// MemberCount reports how many connections are currently joined to the room.
func (r *Registry) MemberCount(room string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms[room])
}
