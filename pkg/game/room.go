// Package game holds the authoritative per-match record and its state
// machine: seats, lifecycle, clocks and draw/rematch negotiation.
//
// Room methods other than Lock and Unlock assume the caller holds the room
// lock for the whole operation, including any broadcast of the result.
package game

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/HackenWijaya/ChessHero/pkg/chess"
	"github.com/HackenWijaya/ChessHero/pkg/messages"
	"github.com/HackenWijaya/ChessHero/pkg/rules"
)

type Status string

const (
	StatusWaiting Status = "waiting"
	StatusPlaying Status = "playing"
	StatusEnded   Status = "ended"
)

// Reason is why a game ended
type Reason string

const (
	ReasonCheckmate            Reason = "checkmate"
	ReasonStalemate            Reason = "stalemate"
	ReasonInsufficientMaterial Reason = "insufficient_material"
	ReasonThreefoldRepetition  Reason = "threefold_repetition"
	ReasonFiftyMoveRule        Reason = "fifty_move_rule"
	ReasonDraw                 Reason = "draw"
	ReasonDrawAgreed           Reason = "draw_agreed"
	ReasonResignation          Reason = "resignation"
	ReasonTimeout              Reason = "timeout"
)

// Capacity is the number of playing seats in a room
const Capacity = 2

// Result records how a game ended. A NoColor winner means a draw.
type Result struct {
	Reason Reason
	Winner chess.Color
}

// WinnerString is the wire form of the winner: "w", "b" or "draw".
func (r Result) WinnerString() string {
	if r.Winner == chess.NoColor {
		return "draw"
	}
	return string(r.Winner)
}

var roomIDPattern = regexp.MustCompile(`^[A-Z0-9_-]{1,32}$`)

// NormalizeRoomID trims and upper-cases a user supplied room code
func NormalizeRoomID(raw string) (string, error) {
	id := strings.ToUpper(strings.TrimSpace(raw))
	if !roomIDPattern.MatchString(id) {
		return "", fmt.Errorf("%q: %w", raw, ErrInvalidRoomID)
	}
	return id, nil
}

// Room is one match's complete authoritative state
type Room struct {
	ID        string
	CreatedAt time.Time
	Seq       uint64

	mu sync.Mutex

	seats    map[chess.Color]string
	status   Status
	engine   rules.Engine
	position rules.Position
	clock    *chess.Clock

	drawOffer chess.Color
	rematch   map[chess.Color]bool
	result    *Result
}

// NewRoom creates a waiting room with a fresh position and full clocks
func NewRoom(id string, seq uint64, engine rules.Engine, initial time.Duration, now time.Time) *Room {
	return &Room{
		ID:        id,
		CreatedAt: now,
		Seq:       seq,
		seats:     make(map[chess.Color]string, Capacity),
		status:    StatusWaiting,
		engine:    engine,
		position:  engine.NewPosition(),
		clock:     chess.NewClock(initial, now),
		rematch:   make(map[chess.Color]bool, Capacity),
	}
}

func (r *Room) Lock()   { r.mu.Lock() }
func (r *Room) Unlock() { r.mu.Unlock() }

func (r *Room) Status() Status { return r.status }

// Result is nil unless the game has ended
func (r *Room) Result() *Result { return r.result }

// DrawOffer returns the side with an open draw offer, or NoColor
func (r *Room) DrawOffer() chess.Color { return r.drawOffer }

func (r *Room) Turn() chess.Color { return r.position.Turn() }

// Occupancy counts the occupied seats
func (r *Room) Occupancy() int { return len(r.seats) }

// Seat returns the side the connection occupies, or NoColor for spectators
func (r *Room) Seat(connID string) chess.Color {
	for side, occupant := range r.seats {
		if occupant == connID {
			return side
		}
	}
	return chess.NoColor
}

// AssignSeat gives the connection the first open seat, white first. A
// connection that is already seated keeps its seat. NoColor means the room is
// full and the connection spectates.
func (r *Room) AssignSeat(connID string) chess.Color {
	if side := r.Seat(connID); side != chess.NoColor {
		return side
	}
	for _, side := range []chess.Color{chess.White, chess.Black} {
		if _, taken := r.seats[side]; !taken {
			r.seats[side] = connID
			return side
		}
	}
	return chess.NoColor
}

// Vacate frees the connection's seat along with its draw offer and rematch
// vote. Status and result are kept.
func (r *Room) Vacate(connID string) chess.Color {
	side := r.Seat(connID)
	if side == chess.NoColor {
		return side
	}

	delete(r.seats, side)
	delete(r.rematch, side)
	if r.drawOffer == side {
		r.drawOffer = chess.NoColor
	}
	return side
}

// TryStart starts the game if the room is waiting and both seats are taken.
func (r *Room) TryStart(now time.Time) bool {
	if r.status != StatusWaiting || len(r.seats) < Capacity {
		return false
	}
	r.start(now)
	return true
}

func (r *Room) start(now time.Time) {
	r.position = r.engine.NewPosition()
	r.clock.Reset(now)
	r.status = StatusPlaying
	r.drawOffer = chess.NoColor
	r.result = nil
	clear(r.rematch)
}

func (r *Room) end(reason Reason, winner chess.Color) {
	r.status = StatusEnded
	r.result = &Result{Reason: reason, Winner: winner}
	r.drawOffer = chess.NoColor
	clear(r.rematch)
}

// reconcile charges the side to move and ends the game when its clock hits
// zero. It reports whether the game timed out.
func (r *Room) reconcile(now time.Time) bool {
	active := r.position.Turn()
	r.clock.Reconcile(active, now)
	if r.clock.IsTimeUp(active) {
		r.end(ReasonTimeout, active.Opp())
		return true
	}
	return false
}

// Tick reconciles the clock of a playing room. Rooms that are not playing,
// or whose clock has not advanced since the last reconciliation, are not
// touched and report ticked=false.
func (r *Room) Tick(now time.Time) (ticked, timedOut bool) {
	if r.status != StatusPlaying || !now.After(r.clock.LastTick()) {
		return false, false
	}
	return true, r.reconcile(now)
}

func (r *Room) seated(connID string) (chess.Color, error) {
	side := r.Seat(connID)
	if side == chess.NoColor {
		return side, ErrSpectator
	}
	return side, nil
}

// LegalMoves lists the legal destinations from square in the current position
func (r *Room) LegalMoves(square string) ([]rules.Target, error) {
	return r.position.LegalMoves(square)
}

// Move plays from-to for the connection's side.
//
// The mover's clock is charged before the move is validated, so an illegal
// move still costs the time that passed. If that charge flags the clock the
// game ends by timeout and the move is refused with ErrWrongStatus.
func (r *Room) Move(connID, from, to, promotion string, now time.Time) error {
	if r.status != StatusPlaying {
		return ErrWrongStatus
	}
	side, err := r.seated(connID)
	if err != nil {
		return err
	}
	if r.position.Turn() != side {
		return ErrNotYourTurn
	}

	if r.reconcile(now) {
		return fmt.Errorf("clock expired: %w", ErrWrongStatus)
	}

	if err := r.position.Apply(from, to, promotion); err != nil {
		return err
	}

	r.drawOffer = chess.NoColor
	r.evaluate(side)
	return nil
}

// evaluate ends the game on the first terminal condition that holds, in
// fixed precedence order.
func (r *Room) evaluate(mover chess.Color) {
	p := r.position
	switch {
	case p.Checkmate():
		r.end(ReasonCheckmate, mover)
	case p.Stalemate():
		r.end(ReasonStalemate, chess.NoColor)
	case p.InsufficientMaterial():
		r.end(ReasonInsufficientMaterial, chess.NoColor)
	case p.ThreefoldRepetition():
		r.end(ReasonThreefoldRepetition, chess.NoColor)
	case p.FiftyMoveDraw():
		r.end(ReasonFiftyMoveRule, chess.NoColor)
	case p.Draw():
		r.end(ReasonDraw, chess.NoColor)
	}
}

// OfferDraw opens a draw offer from the connection's side. Only the first
// open offer counts; later offers are ignored and report false.
func (r *Room) OfferDraw(connID string) (bool, error) {
	if r.status != StatusPlaying {
		return false, ErrWrongStatus
	}
	side, err := r.seated(connID)
	if err != nil {
		return false, err
	}
	if r.drawOffer != chess.NoColor {
		return false, nil
	}
	r.drawOffer = side
	return true, nil
}

// AcceptDraw ends the game by agreement. The offer must come from the other side.
func (r *Room) AcceptDraw(connID string) error {
	if r.status != StatusPlaying {
		return ErrWrongStatus
	}
	side, err := r.seated(connID)
	if err != nil {
		return err
	}
	switch r.drawOffer {
	case chess.NoColor:
		return ErrNoDrawOffer
	case side:
		return ErrSelfAccept
	}
	r.end(ReasonDrawAgreed, chess.NoColor)
	return nil
}

func (r *Room) Resign(connID string) error {
	if r.status != StatusPlaying {
		return ErrWrongStatus
	}
	side, err := r.seated(connID)
	if err != nil {
		return err
	}
	r.end(ReasonResignation, side.Opp())
	return nil
}

// VoteRematch records the connection's rematch vote and starts a new game
// once both sides have voted.
func (r *Room) VoteRematch(connID string, now time.Time) (started bool, err error) {
	if r.status != StatusEnded {
		return false, ErrNotEnded
	}
	side, err := r.seated(connID)
	if err != nil {
		return false, err
	}
	r.rematch[side] = true
	if r.rematch[chess.White] && r.rematch[chess.Black] {
		r.start(now)
		return true, nil
	}
	return false, nil
}

func (r *Room) Clocks() chess.Times { return r.clock.GetRemainingTime() }

func (r *Room) resultPayload() *messages.ResultPayload {
	if r.result == nil {
		return nil
	}
	return &messages.ResultPayload{Reason: string(r.result.Reason), Winner: r.result.WinnerString()}
}

// State renders the full snapshot sent to room subscribers
func (r *Room) State() messages.GameStatePayload {
	times := r.clock.GetRemainingTime()
	_, white := r.seats[chess.White]
	_, black := r.seats[chess.Black]

	state := messages.GameStatePayload{
		ID:      r.ID,
		FEN:     r.position.FEN(),
		Turn:    r.position.Turn(),
		Status:  string(r.status),
		Clocks:  messages.ClocksPayload{White: times.White, Black: times.Black},
		Players: messages.PlayersPayload{White: white, Black: black},
		Result:  r.resultPayload(),
		Check:   r.position.InCheck(),
	}
	if r.drawOffer != chess.NoColor {
		offer := r.drawOffer
		state.DrawOfferedBy = &offer
	}
	return state
}

// ClockUpdate renders the lightweight tick update
func (r *Room) ClockUpdate() messages.ClockUpdatePayload {
	times := r.clock.GetRemainingTime()
	return messages.ClockUpdatePayload{
		White:  times.White,
		Black:  times.Black,
		Turn:   r.position.Turn(),
		Status: string(r.status),
		Result: r.resultPayload(),
	}
}

// Summary renders the room's lobby row
func (r *Room) Summary() messages.LobbyRoom {
	return messages.LobbyRoom{
		ID:        r.ID,
		Status:    string(r.status),
		Players:   messages.LobbyPlayers{Joined: len(r.seats), Capacity: Capacity},
		CreatedAt: r.CreatedAt.UnixMilli(),
	}
}
