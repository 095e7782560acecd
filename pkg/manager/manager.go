// Package manager dispatches session protocol actions onto rooms.
//
// Every handler locks exactly one room, mutates it, and enqueues the
// resulting frames for that room's subscribers before unlocking, so each
// subscriber sees a room's frames in mutation order. Domain events are
// published under the same lock so observers see them in that order too.
// Lobby refreshes run after the room lock is released.
package manager

import (
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/HackenWijaya/ChessHero/pkg/chess"
	"github.com/HackenWijaya/ChessHero/pkg/events"
	"github.com/HackenWijaya/ChessHero/pkg/game"
	"github.com/HackenWijaya/ChessHero/pkg/messages"
	"github.com/HackenWijaya/ChessHero/pkg/rules"
)

// Clock is the interface we use for time operations.
// In production, use clockwork.NewRealClock(). In tests, a FakeClock.
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) clockwork.Ticker
}

// Broadcaster delivers frames to connections. Sends must not block; they
// are called with a room lock held.
type Broadcaster interface {
	Subscribe(connID, roomID string)
	Unsubscribe(connID, roomID string)
	SendToConn(connID string, msg messages.OutboundMessage)
	SendToRoom(roomID string, msg messages.OutboundMessage)
	SendToAll(msg messages.OutboundMessage)
}

// Repository is the room registry
type Repository interface {
	Create() (*game.Room, error)
	GetOrCreate(id string) (*game.Room, bool)
	Get(id string) (*game.Room, error)
	List() []*game.Room
	Count() int
}

type Manager struct {
	rooms     Repository
	out       Broadcaster
	publisher *events.Publisher
	clock     Clock
	logger    *zap.Logger

	// sessions maps a connection to the room it is currently in
	sessionsMu sync.Mutex
	sessions   map[string]string

	lobbyMu sync.Mutex
}

// NewManager creates a dispatcher over the given registry
func NewManager(
	rooms Repository,
	out Broadcaster,
	publisher *events.Publisher,
	clock Clock,
	logger *zap.Logger,
) *Manager {
	return &Manager{
		rooms:     rooms,
		out:       out,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
		sessions:  make(map[string]string),
	}
}

func (m *Manager) currentRoom(connID string) string {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	return m.sessions[connID]
}

func (m *Manager) setRoom(connID, roomID string) {
	m.sessionsMu.Lock()
	defer m.sessionsMu.Unlock()
	if roomID == "" {
		delete(m.sessions, connID)
		return
	}
	m.sessions[connID] = roomID
}

// CurrentRoom returns the room the connection is in, if any
func (m *Manager) CurrentRoom(connID string) string {
	return m.currentRoom(connID)
}

// resolve finds the room an event targets. An empty id means the
// connection's current room.
func (m *Manager) resolve(connID, roomID string) (*game.Room, error) {
	if roomID == "" {
		roomID = m.currentRoom(connID)
		if roomID == "" {
			return nil, fmt.Errorf("no current room: %w", game.ErrRoomNotFound)
		}
	}
	id, err := game.NormalizeRoomID(roomID)
	if err != nil {
		return nil, err
	}
	return m.rooms.Get(id)
}

func (m *Manager) publish(eventType events.EventType, roomID string, payload interface{}) {
	m.publisher.Publish(events.Event{
		Type:    eventType,
		RoomID:  roomID,
		Time:    m.clock.Now(),
		Payload: payload,
	})
}

// publishEnded logs and publishes a game end. Caller holds the room lock.
func (m *Manager) publishEnded(room *game.Room, result game.Result) {
	m.logger.Info("game ended",
		zap.String("room_id", room.ID),
		zap.String("reason", string(result.Reason)),
		zap.String("winner", result.WinnerString()),
	)
	m.publish(events.EventGameEnded, room.ID, events.GameEndedPayload{
		Reason: string(result.Reason),
		Winner: result.WinnerString(),
	})
}

// sendState pushes the full snapshot to the room. Caller holds the room lock.
func (m *Manager) sendState(room *game.Room) {
	m.out.SendToRoom(room.ID, messages.OutboundMessage{
		Event:   messages.EventState,
		Payload: room.State(),
	})
}

// CreateRoom creates a room under a fresh code
func (m *Manager) CreateRoom() (string, error) {
	room, err := m.rooms.Create()
	if err != nil {
		return "", fmt.Errorf("create room: %w", err)
	}

	room.Lock()
	m.publish(events.EventRoomCreated, room.ID, nil)
	room.Unlock()

	m.broadcastLobby()
	return room.ID, nil
}

// Join seats the connection in a room, creating the room on first
// reference. A connection already in another room leaves it first.
func (m *Manager) Join(connID, rawRoomID string) error {
	id, err := game.NormalizeRoomID(rawRoomID)
	if err != nil {
		return err
	}

	if prev := m.currentRoom(connID); prev != "" && prev != id {
		m.vacate(connID, prev)
	}

	room, created := m.rooms.GetOrCreate(id)
	m.setRoom(connID, id)

	room.Lock()
	if created {
		m.publish(events.EventRoomCreated, id, nil)
	}
	m.out.Subscribe(connID, id)
	side := room.AssignSeat(connID)
	m.out.SendToConn(connID, messages.OutboundMessage{
		Event:   messages.EventJoined,
		Payload: messages.JoinedPayload{RoomID: id, Side: seatName(side)},
	})
	m.sendState(room)

	if side != chess.NoColor {
		m.publish(events.EventPlayerJoined, id, events.PlayerPayload{ConnectionID: connID, Side: side.Name()})
	}

	started := room.TryStart(m.clock.Now())
	if started {
		m.sendState(room)
		m.publish(events.EventGameStarted, id, nil)
	}
	room.Unlock()

	m.logger.Info("connection joined room",
		zap.String("room_id", id),
		zap.String("connection_id", connID),
		zap.String("side", seatName(side)),
	)
	if started {
		m.logger.Info("game started", zap.String("room_id", id))
	}

	m.broadcastLobby()
	return nil
}

func seatName(side chess.Color) string {
	if side == chess.NoColor {
		return "spectator"
	}
	return side.Name()
}

// vacate removes the connection from a room and tells the remaining
// subscribers. The session mapping is left to the caller.
func (m *Manager) vacate(connID, roomID string) {
	m.out.Unsubscribe(connID, roomID)

	room, err := m.rooms.Get(roomID)
	if err != nil {
		return
	}

	room.Lock()
	side := room.Vacate(connID)
	m.sendState(room)
	if side != chess.NoColor {
		m.publish(events.EventPlayerLeft, roomID, events.PlayerPayload{ConnectionID: connID, Side: side.Name()})
	}
	room.Unlock()

	m.logger.Info("connection left room",
		zap.String("room_id", roomID),
		zap.String("connection_id", connID),
		zap.String("side", seatName(side)),
	)
}

// Leave takes the connection out of its current room. It is a no-op for a
// connection that is not in a room.
func (m *Manager) Leave(connID string) {
	roomID := m.currentRoom(connID)
	if roomID == "" {
		return
	}

	m.vacate(connID, roomID)
	m.setRoom(connID, "")
	m.out.SendToConn(connID, messages.OutboundMessage{
		Event:   messages.EventLeftRoom,
		Payload: messages.LeftRoomPayload{},
	})
	m.broadcastLobby()
}

// Disconnect is Leave for a connection that is already gone
func (m *Manager) Disconnect(connID string) {
	roomID := m.currentRoom(connID)
	if roomID == "" {
		return
	}

	m.vacate(connID, roomID)
	m.setRoom(connID, "")
	m.broadcastLobby()
}

// RequestMoves lists the legal destinations from square
func (m *Manager) RequestMoves(connID, roomID, square string) ([]rules.Target, error) {
	room, err := m.resolve(connID, roomID)
	if err != nil {
		return nil, err
	}

	room.Lock()
	defer room.Unlock()
	return room.LegalMoves(square)
}

// Move plays a move for the connection's side
func (m *Manager) Move(connID, roomID, from, to, promotion string) error {
	room, err := m.resolve(connID, roomID)
	if err != nil {
		return err
	}

	room.Lock()
	before := room.Status()
	side := room.Seat(connID)
	err = room.Move(connID, from, to, promotion, m.clock.Now())
	ended := before == game.StatusPlaying && room.Status() == game.StatusEnded
	if err == nil || ended {
		m.sendState(room)
	}
	if err == nil {
		m.publish(events.EventMoveMade, room.ID, events.MovePayload{
			Side: string(side), From: from, To: to, Promotion: promotion, FEN: room.State().FEN,
		})
	}
	if ended {
		m.publishEnded(room, *room.Result())
	}
	clocks := room.Clocks()
	room.Unlock()

	if err == nil {
		m.logger.Debug("move played",
			zap.String("room_id", room.ID),
			zap.String("side", side.Name()),
			zap.String("move", from+to+promotion),
			zap.String("white_clock", chess.FormatClockTime(clocks.White)),
			zap.String("black_clock", chess.FormatClockTime(clocks.Black)),
		)
	}
	if ended {
		m.broadcastLobby()
	}
	return err
}

// OfferDraw opens a draw offer. A second offer while one is open is
// accepted silently and changes nothing.
func (m *Manager) OfferDraw(connID, roomID string) error {
	room, err := m.resolve(connID, roomID)
	if err != nil {
		return err
	}

	room.Lock()
	defer room.Unlock()

	changed, err := room.OfferDraw(connID)
	if err != nil {
		return err
	}
	if changed {
		m.sendState(room)
	}
	return nil
}

// AcceptDraw ends the game by agreement
func (m *Manager) AcceptDraw(connID, roomID string) error {
	return m.finish(connID, roomID, (*game.Room).AcceptDraw)
}

// Resign ends the game with the opponent as winner
func (m *Manager) Resign(connID, roomID string) error {
	return m.finish(connID, roomID, (*game.Room).Resign)
}

// finish runs an action that ends the game on success
func (m *Manager) finish(connID, roomID string, action func(*game.Room, string) error) error {
	room, err := m.resolve(connID, roomID)
	if err != nil {
		return err
	}

	room.Lock()
	if err := action(room, connID); err != nil {
		room.Unlock()
		return err
	}
	m.sendState(room)
	m.publishEnded(room, *room.Result())
	room.Unlock()

	m.broadcastLobby()
	return nil
}

// RequestRematch records a rematch vote; the second vote starts a new game
func (m *Manager) RequestRematch(connID, roomID string) error {
	room, err := m.resolve(connID, roomID)
	if err != nil {
		return err
	}

	room.Lock()
	started, err := room.VoteRematch(connID, m.clock.Now())
	if err != nil {
		room.Unlock()
		return err
	}
	m.sendState(room)
	if started {
		m.publish(events.EventGameStarted, room.ID, nil)
	}
	room.Unlock()

	if started {
		m.logger.Info("rematch started", zap.String("room_id", room.ID))
		m.broadcastLobby()
	}
	return nil
}

// State returns the room's current snapshot
func (m *Manager) State(connID, roomID string) (messages.GameStatePayload, error) {
	room, err := m.resolve(connID, roomID)
	if err != nil {
		return messages.GameStatePayload{}, err
	}

	room.Lock()
	defer room.Unlock()
	return room.State(), nil
}

// RoomCount returns the number of rooms in the registry
func (m *Manager) RoomCount() int {
	return m.rooms.Count()
}
