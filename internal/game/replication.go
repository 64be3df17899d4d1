package game

// Snapshot builds the replicated-state message pushed to every client after
// each handled event. This is the only function that knows the wire shape
// of the authoritative model; everything else in this package works with
// plain GameState fields.
//
// GameState.currentWord is unexported and therefore never marshaled: the
// secret word reaches the drawer exclusively through the directed
// secretWord message, never through replicated state.
func Snapshot(state *GameState) OutboundMessage {
	return OutboundMessage{Type: "state", Data: state}
}
