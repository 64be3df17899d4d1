package game

import "errors"

// Sentinel errors returned by controller operations. None of these ever
// reach a client directly: Room translates the sender-visible ones into an
// `error` protocol message and drops the rest silently.
var (
	ErrTeamIndexOutOfRange = errors.New("game: team index out of range")
	ErrWordIndexOutOfRange = errors.New("game: word index out of range")
	ErrWrongPhase          = errors.New("game: message not allowed in current phase")
)

// DropReason classifies a silently-dropped message for logging. It never
// crosses the wire.
type DropReason string

const (
	DropWrongPhase  DropReason = "wrong-phase"
	DropWrongSender DropReason = "wrong-sender"
	DropBadPayload  DropReason = "bad-payload"
)
