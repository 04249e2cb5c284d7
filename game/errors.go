package game

import "errors"

// Registry errors
var (
	ErrAlreadyInRoom = errors.New("already-in-room")
	ErrRoomNotFound  = errors.New("room-not-found")
	ErrRoomFull      = errors.New("room-full")
	ErrNotInRoom     = errors.New("not-in-room")
)

// Roster errors
var (
	ErrDuplicatePlayer = errors.New("duplicate-player")
	ErrUnknownPlayer   = errors.New("unknown-player")
)

// Game errors
var (
	ErrNotEnoughPlayers     = errors.New("not-enough-players")
	ErrPlayersNotReady      = errors.New("players-not-ready")
	ErrAlreadyStarted       = errors.New("already-started")
	ErrGameNotActive        = errors.New("game-not-active")
	ErrClassificationFailed = errors.New("classification-failed")
	ErrNoColorsLeft         = errors.New("no-colors-left")

	// ErrStaleGuess marks a classification that completed after its game, room or
	// player went away. It is never shown to players.
	ErrStaleGuess = errors.New("stale-guess")
)

// Transport errors
var (
	ErrSendBufferFull    = errors.New("send-buffer-full")
	ErrSessionClosed     = errors.New("session-closed")
	ErrBadRequestFormat  = errors.New("bad-request-format")
	ErrUnknownEvent      = errors.New("unknown-event")
	ErrUnexpectedFailure = errors.New("unknown-error")
)

var publicErrors = []error{
	ErrAlreadyInRoom, ErrRoomNotFound, ErrRoomFull, ErrNotInRoom,
	ErrDuplicatePlayer, ErrUnknownPlayer,
	ErrNotEnoughPlayers, ErrPlayersNotReady, ErrAlreadyStarted, ErrGameNotActive,
	ErrClassificationFailed, ErrNoColorsLeft,
	ErrBadRequestFormat, ErrUnknownEvent,
}

// publicMessage maps err to the sentinel text a client is allowed to see.
func publicMessage(err error) string {
	for _, known := range publicErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return ErrUnexpectedFailure.Error()
}
