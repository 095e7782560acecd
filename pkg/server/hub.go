package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/HackenWijaya/ChessHero/pkg/game"
	"github.com/HackenWijaya/ChessHero/pkg/manager"
	"github.com/HackenWijaya/ChessHero/pkg/messages"
)

const (
	textUnknownEvent   = "Unknown event"
	textInvalidPayload = "Invalid payload"
)

var (
	errUnknownEvent   = errors.New("unknown event")
	errInvalidPayload = errors.New("invalid payload")
)

// Hub keeps track of all active connections and the rooms they watch. It
// registers and unregisters connections on its own goroutine and delivers
// outbound frames for the manager.
type Hub struct {
	mu          sync.RWMutex                      // protects the maps below
	connections map[string]*Connection            // Registered connections by id
	rooms       map[string]map[string]*Connection // room → subscribed connections

	register   chan *Connection // Incoming registration
	unregister chan *Connection // Incoming unregistration
	done       chan struct{}    // closed when Run returns

	manager *manager.Manager
	logger  *zap.Logger
}

// NewHub creates a new hub. The manager is attached with SetManager because
// the manager needs the hub as its broadcaster.
func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		connections: make(map[string]*Connection),
		rooms:       make(map[string]map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		done:        make(chan struct{}),
		logger:      logger,
	}
}

func (h *Hub) SetManager(m *manager.Manager) {
	h.manager = m
}

// Run is the main execution of the hub
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			h.Shutdown()
			return

		case conn := <-h.register:
			h.registerConnection(conn)

		case conn := <-h.unregister:
			h.unregisterConnection(conn)
		}
	}
}

func (h *Hub) Register(conn *Connection) {
	select {
	case h.register <- conn:
	case <-h.done:
		conn.close()
	}
}

func (h *Hub) Unregister(conn *Connection) {
	select {
	case h.unregister <- conn:
	case <-h.done:
	}
}

// Serve attaches an upgraded socket to the hub and starts its pumps
func (h *Hub) Serve(ws *websocket.Conn) *Connection {
	conn := NewConnection(ws, h, h.logger)
	go conn.WritePump()
	h.Register(conn)
	go conn.ReadPump()
	return conn
}

func (h *Hub) registerConnection(conn *Connection) {
	id := conn.ID.String()

	h.mu.Lock()
	h.connections[id] = conn
	count := len(h.connections)
	h.mu.Unlock()

	conn.logger.Info("connection registered", zap.Int("connections", count))
	h.manager.SendLobby(id)
}

func (h *Hub) unregisterConnection(conn *Connection) {
	id := conn.ID.String()

	h.mu.Lock()
	if _, ok := h.connections[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.connections, id)
	for roomID, subs := range h.rooms {
		delete(subs, id)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
	count := len(h.connections)
	h.mu.Unlock()

	conn.close()
	conn.logger.Info("connection unregistered", zap.Int("connections", count))
	h.manager.Disconnect(id)
}

// Shutdown closes every connection
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, conn := range h.connections {
		conn.close()
	}
	h.logger.Info("hub shut down", zap.Int("connections", len(h.connections)))
}

// Count returns the number of registered connections
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.connections)
}

func (h *Hub) Subscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conn, ok := h.connections[connID]
	if !ok {
		return
	}
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[string]*Connection)
	}
	h.rooms[roomID][connID] = conn
}

func (h *Hub) Unsubscribe(connID, roomID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if subs, ok := h.rooms[roomID]; ok {
		delete(subs, connID)
		if len(subs) == 0 {
			delete(h.rooms, roomID)
		}
	}
}

func (h *Hub) SendToConn(connID string, msg messages.OutboundMessage) {
	h.mu.RLock()
	conn, ok := h.connections[connID]
	h.mu.RUnlock()

	if ok {
		conn.SendJSON(msg)
	}
}

func (h *Hub) SendToRoom(roomID string, msg messages.OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("error marshaling JSON", zap.String("room_id", roomID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.rooms[roomID] {
		conn.sendBytes(data)
	}
}

func (h *Hub) SendToAll(msg messages.OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("error marshaling JSON", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, conn := range h.connections {
		conn.sendBytes(data)
	}
}

// handleInbound routes one client frame to the manager and reports the
// outcome to the sender only: as an ack frame when the client asked for
// one, otherwise failures as an error_message push.
func (h *Hub) handleInbound(conn *Connection, msg messages.InboundMessage) {
	reply, err := h.route(conn.ID.String(), msg)
	if err != nil {
		h.sendError(conn, msg, err)
		return
	}

	if msg.Ack != nil {
		conn.SendJSON(messages.OutboundMessage{Event: messages.EventAck, Ack: msg.Ack, Payload: reply})
	}
}

func (h *Hub) route(connID string, msg messages.InboundMessage) (interface{}, error) {
	ok := messages.AckPayload{OK: true}

	switch msg.Event {
	case messages.EventCreateRoom:
		id, err := h.manager.CreateRoom()
		if err != nil {
			return nil, err
		}
		return messages.CreateRoomAck{OK: true, RoomID: id}, nil

	case messages.EventJoin:
		var payload messages.RoomPayload
		if err := decode(msg.Payload, &payload); err != nil {
			return nil, err
		}
		return ok, h.manager.Join(connID, payload.RoomID)

	case messages.EventLeaveRoom:
		h.manager.Leave(connID)
		return ok, nil

	case messages.EventRequestMoves:
		var payload messages.RequestMovesPayload
		if err := decode(msg.Payload, &payload); err != nil {
			return nil, err
		}
		targets, err := h.manager.RequestMoves(connID, payload.RoomID, payload.Square)
		if err != nil {
			return nil, err
		}
		moves := make([]messages.MoveTarget, 0, len(targets))
		for _, t := range targets {
			moves = append(moves, messages.MoveTarget{To: t.To, Promotion: t.Promotion})
		}
		return messages.MovesAck{OK: true, Square: payload.Square, Moves: moves}, nil

	case messages.EventMove:
		var payload messages.MakeMovePayload
		if err := decode(msg.Payload, &payload); err != nil {
			return nil, err
		}
		return ok, h.manager.Move(connID, payload.RoomID, payload.From, payload.To, payload.Promotion)

	case messages.EventOfferDraw, messages.EventAcceptDraw, messages.EventResign, messages.EventRequestRematch:
		var payload messages.RoomPayload
		if err := decode(msg.Payload, &payload); err != nil {
			return nil, err
		}
		return ok, h.roomAction(msg.Event)(connID, payload.RoomID)

	case messages.EventGetState:
		var payload messages.RoomPayload
		if err := decode(msg.Payload, &payload); err != nil {
			return nil, err
		}
		state, err := h.manager.State(connID, payload.RoomID)
		if err != nil {
			return nil, err
		}
		return messages.StateAck{OK: true, State: state}, nil

	default:
		return nil, fmt.Errorf("%q: %w", msg.Event, errUnknownEvent)
	}
}

func (h *Hub) roomAction(event string) func(connID, roomID string) error {
	switch event {
	case messages.EventOfferDraw:
		return h.manager.OfferDraw
	case messages.EventAcceptDraw:
		return h.manager.AcceptDraw
	case messages.EventResign:
		return h.manager.Resign
	default:
		return h.manager.RequestRematch
	}
}

// decode unmarshals an optional payload; an absent payload leaves v zero.
func decode(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%v: %w", err, errInvalidPayload)
	}
	return nil
}

func errorText(err error) string {
	switch {
	case errors.Is(err, errUnknownEvent):
		return textUnknownEvent
	case errors.Is(err, errInvalidPayload):
		return textInvalidPayload
	default:
		return game.ErrorText(err)
	}
}

func (h *Hub) sendError(conn *Connection, msg messages.InboundMessage, err error) {
	text := errorText(err)
	if text == game.InternalErrorText {
		conn.logger.Error("request failed", zap.String("event", msg.Event), zap.Error(err))
	} else {
		conn.logger.Debug("request refused", zap.String("event", msg.Event), zap.Error(err))
	}

	if msg.Ack != nil {
		conn.SendJSON(messages.OutboundMessage{Event: messages.EventAck, Ack: msg.Ack, Payload: messages.Failure(text)})
		return
	}

	conn.SendJSON(messages.OutboundMessage{
		Event:   messages.EventErrorMessage,
		Payload: messages.ErrorPayload{Message: text},
	})
}
