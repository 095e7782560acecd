package repository

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/HackenWijaya/ChessHero/pkg/game"
)

const (
	codeCharset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	codeLength  = 6

	// maxCodeAttempts bounds collision retries in Create
	maxCodeAttempts = 64
)

var ErrCodeSpaceExhausted = errors.New("could not generate a free room code")

// RoomFactory builds a new room for the given code and creation sequence
type RoomFactory func(id string, seq uint64) *game.Room

// GenerateCode returns a random room code from an unambiguous alphabet
func GenerateCode() (string, error) {
	code := make([]byte, codeLength)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", err
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// InMemoryRoomRepository is the process-wide registry of rooms. It owns every
// room for the life of the process.
type InMemoryRoomRepository struct {
	rooms    map[string]*game.Room
	seq      uint64
	mu       sync.RWMutex
	newRoom  RoomFactory
	generate func() (string, error)
	logger   *zap.Logger
}

// Option configures the repository
type Option func(*InMemoryRoomRepository)

// WithCodeGenerator replaces the random room code generator
func WithCodeGenerator(generate func() (string, error)) Option {
	return func(r *InMemoryRoomRepository) {
		r.generate = generate
	}
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository(newRoom RoomFactory, logger *zap.Logger, opts ...Option) *InMemoryRoomRepository {
	r := &InMemoryRoomRepository{
		rooms:    make(map[string]*game.Room),
		newRoom:  newRoom,
		generate: GenerateCode,
		logger:   logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// insert stores a new room under id. Must be called with the write lock held.
func (r *InMemoryRoomRepository) insert(id string) *game.Room {
	r.seq++
	room := r.newRoom(id, r.seq)
	r.rooms[id] = room
	r.logger.Info("room created", zap.String("room_id", id), zap.Uint64("seq", r.seq))
	return room
}

// Create creates a room under a fresh random code
func (r *InMemoryRoomRepository) Create() (*game.Room, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range maxCodeAttempts {
		code, err := r.generate()
		if err != nil {
			return nil, fmt.Errorf("generate room code: %w", err)
		}
		if _, taken := r.rooms[code]; taken {
			continue
		}
		return r.insert(code), nil
	}

	return nil, ErrCodeSpaceExhausted
}

// GetOrCreate returns the room for id, creating it on first reference. The
// id must already be normalized.
func (r *InMemoryRoomRepository) GetOrCreate(id string) (room *game.Room, created bool) {
	r.mu.RLock()
	room, ok := r.rooms[id]
	r.mu.RUnlock()
	if ok {
		return room, false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Another caller may have created it between the two locks.
	if room, ok := r.rooms[id]; ok {
		return room, false
	}
	return r.insert(id), true
}

// Get retrieves a room by id
func (r *InMemoryRoomRepository) Get(id string) (*game.Room, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[id]
	if !ok {
		return nil, fmt.Errorf("%q: %w", id, game.ErrRoomNotFound)
	}

	return room, nil
}

// List returns all rooms ordered by creation
func (r *InMemoryRoomRepository) List() []*game.Room {
	r.mu.RLock()
	rooms := make([]*game.Room, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, room)
	}
	r.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].Seq < rooms[j].Seq })
	return rooms
}

func (r *InMemoryRoomRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rooms)
}
