package game

// Broadcaster is the small interface the Round controller uses to reach
// clients, passed in at construction instead of holding a pointer back to
// Room. It keeps the controllers free of any transport concern and easy to
// unit test with a fake.
type Broadcaster interface {
	// BroadcastAll sends msg to every connected client in the room.
	BroadcastAll(msg OutboundMessage)
	// BroadcastExcept sends msg to every connected client except sessionID.
	BroadcastExcept(sessionID string, msg OutboundMessage)
	// SendDirect sends msg to exactly one client, if still connected.
	SendDirect(sessionID string, msg OutboundMessage)
	// ClearCanvas wipes the room's stroke history and broadcasts the
	// clearCanvas notice to every client. It is its own method rather
	// than a plain BroadcastAll call because the stroke history is owned
	// by Room and the controllers may never touch it directly.
	ClearCanvas()
}
