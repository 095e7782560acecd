package messages

import "encoding/json"

// Client to server event names
const (
	EventCreateRoom     = "create_room"
	EventJoin           = "join"
	EventLeaveRoom      = "leave_room"
	EventRequestMoves   = "request_moves"
	EventMove           = "move"
	EventOfferDraw      = "offer_draw"
	EventAcceptDraw     = "accept_draw"
	EventResign         = "resign"
	EventRequestRematch = "request_rematch"
	EventGetState       = "get_state"
)

// InboundMessage is the generic wrapper for messages coming from the client.
// The "event" field tells us the action; "payload" is the data we parse further.
// A client that wants a reply sets "ack" and receives exactly one ack frame
// carrying the same number.
type InboundMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
	Ack     *int64          `json:"ack,omitempty"`
}

// RoomPayload is the payload of every room-scoped event without extra data.
// RoomID may be empty, meaning the connection's current room.
type RoomPayload struct {
	RoomID string `json:"roomId"`
}

// RequestMovesPayload asks for the legal destinations from a square
type RequestMovesPayload struct {
	RoomID string `json:"roomId"`
	Square string `json:"square"`
}

// MakeMovePayload represents the payload for making a move during a game
type MakeMovePayload struct {
	RoomID    string `json:"roomId"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
}
