package messages

import "github.com/HackenWijaya/ChessHero/pkg/chess"

// Server to client event names
const (
	EventLobbyState   = "lobby_state"
	EventJoined       = "joined"
	EventState        = "state"
	EventClock        = "clock"
	EventLeftRoom     = "left_room"
	EventErrorMessage = "error_message"
	EventAck          = "ack"
)

// OutboundMessage is how we wrap responses before sending
// them to the client
type OutboundMessage struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	Ack     *int64      `json:"ack,omitempty"`
}

// JoinedPayload tells a connection which seat it got
type JoinedPayload struct {
	RoomID string `json:"roomId"`
	Side   string `json:"side"` // "white", "black" or "spectator"
}

// ClocksPayload holds both remaining times in milliseconds
type ClocksPayload struct {
	White int64 `json:"white"`
	Black int64 `json:"black"`
}

// PlayersPayload tells which seats are occupied
type PlayersPayload struct {
	White bool `json:"white"`
	Black bool `json:"black"`
}

// ResultPayload is how a finished game ended. Winner is "w", "b" or "draw".
type ResultPayload struct {
	Reason string `json:"reason"`
	Winner string `json:"winner"`
}

// GameStatePayload is the full room snapshot pushed after every mutation
type GameStatePayload struct {
	ID            string         `json:"id"`
	FEN           string         `json:"fen"`
	Turn          chess.Color    `json:"turn"`
	Status        string         `json:"status"`
	Clocks        ClocksPayload  `json:"clocks"`
	Players       PlayersPayload `json:"players"`
	DrawOfferedBy *chess.Color   `json:"drawOfferedBy"`
	Result        *ResultPayload `json:"result"`
	Check         bool           `json:"check"`
}

// ClockUpdatePayload is the lightweight tick update
type ClockUpdatePayload struct {
	White  int64          `json:"white"`
	Black  int64          `json:"black"`
	Turn   chess.Color    `json:"turn"`
	Status string         `json:"status"`
	Result *ResultPayload `json:"result"`
}

// LobbyPlayers is the occupancy of a room as n/capacity
type LobbyPlayers struct {
	Joined   int `json:"joined"`
	Capacity int `json:"capacity"`
}

// LobbyRoom is one row of the lobby
type LobbyRoom struct {
	ID        string       `json:"id"`
	Status    string       `json:"status"`
	Players   LobbyPlayers `json:"players"`
	CreatedAt int64        `json:"createdAt"` // unix milliseconds
}

type ErrorPayload struct {
	Message string `json:"message"`
}

// LeftRoomPayload confirms an explicit leave
type LeftRoomPayload struct{}

// AckPayload is the ack body for events that only report success
type AckPayload struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

type CreateRoomAck struct {
	OK     bool   `json:"ok"`
	RoomID string `json:"roomId"`
}

// MoveTarget is one legal destination in a request_moves ack
type MoveTarget struct {
	To        string `json:"to"`
	Promotion bool   `json:"promotion"`
}

type MovesAck struct {
	OK     bool         `json:"ok"`
	Square string       `json:"square"`
	Moves  []MoveTarget `json:"moves"`
}

type StateAck struct {
	OK    bool             `json:"ok"`
	State GameStatePayload `json:"state"`
}

// Failure builds the negative ack body
func Failure(message string) AckPayload {
	return AckPayload{OK: false, Error: message}
}
