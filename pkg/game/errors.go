package game

import (
	"errors"

	"github.com/HackenWijaya/ChessHero/pkg/rules"
)

// Refusals returned by room operations. None of them leaves the room in a
// partially mutated state.
var (
	ErrInvalidRoomID = errors.New("invalid room id")
	ErrRoomNotFound  = errors.New("room not found")
	ErrInvalidSquare = rules.ErrInvalidSquare
	ErrIllegalMove   = rules.ErrIllegalMove
	ErrNotYourTurn   = errors.New("not your turn")
	ErrSpectator     = errors.New("spectators cannot act")
	ErrWrongStatus   = errors.New("game not in playing state")
	ErrNotEnded      = errors.New("game not ended")
	ErrSelfAccept    = errors.New("cannot accept own draw offer")
	ErrNoDrawOffer   = errors.New("no draw offer")
)

// InternalErrorText is sent for failures that are not a refusal
const InternalErrorText = "Internal error"

// ErrorText maps a room error to the message sent to clients. Unknown
// errors collapse to a generic text so internals never leak.
func ErrorText(err error) string {
	switch {
	case errors.Is(err, ErrInvalidRoomID):
		return "Invalid room id"
	case errors.Is(err, ErrRoomNotFound):
		return "Room not found"
	case errors.Is(err, ErrInvalidSquare):
		return "Invalid square"
	case errors.Is(err, ErrIllegalMove):
		return "Illegal move"
	case errors.Is(err, ErrNotYourTurn):
		return "Not your turn"
	case errors.Is(err, ErrSpectator):
		return "Spectators cannot move"
	case errors.Is(err, ErrWrongStatus):
		return "Game not in playing state"
	case errors.Is(err, ErrNotEnded):
		return "Game not ended"
	case errors.Is(err, ErrSelfAccept):
		return "Cannot accept your own draw offer"
	case errors.Is(err, ErrNoDrawOffer):
		return "No draw offer to accept"
	default:
		return InternalErrorText
	}
}
