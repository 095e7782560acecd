package repository

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/HackenWijaya/ChessHero/pkg/game"
	"github.com/HackenWijaya/ChessHero/pkg/rules"
)

func newTestRepo(opts ...Option) *InMemoryRoomRepository {
	engine := rules.NewStandard()
	factory := func(id string, seq uint64) *game.Room {
		return game.NewRoom(id, seq, engine, time.Minute, time.Now())
	}
	return NewInMemoryRepository(factory, zap.NewNop(), opts...)
}

// sequence returns a generator yielding codes in order
func sequence(codes ...string) func() (string, error) {
	var i int
	return func() (string, error) {
		code := codes[i%len(codes)]
		i++
		return code, nil
	}
}

func TestGenerateCode(t *testing.T) {
	for range 100 {
		code, err := GenerateCode()
		require.NoError(t, err)
		require.Len(t, code, codeLength)
		for _, c := range code {
			assert.Contains(t, codeCharset, string(c))
		}
		_, err = game.NormalizeRoomID(code)
		assert.NoError(t, err)
	}
}

func TestRepository_CreateSkipsCollisions(t *testing.T) {
	repo := newTestRepo(WithCodeGenerator(sequence("AAAAAA", "AAAAAA", "BBBBBB")))

	first, err := repo.Create()
	require.NoError(t, err)
	second, err := repo.Create()
	require.NoError(t, err)

	assert.Equal(t, "AAAAAA", first.ID)
	assert.Equal(t, "BBBBBB", second.ID)
	assert.Equal(t, 2, repo.Count())
}

func TestRepository_CreateGivesUp(t *testing.T) {
	repo := newTestRepo(WithCodeGenerator(sequence("AAAAAA")))

	_, err := repo.Create()
	require.NoError(t, err)

	_, err = repo.Create()
	assert.ErrorIs(t, err, ErrCodeSpaceExhausted)
}

func TestRepository_CreatePropagatesGeneratorError(t *testing.T) {
	boom := errors.New("entropy")
	repo := newTestRepo(WithCodeGenerator(func() (string, error) { return "", boom }))

	_, err := repo.Create()
	assert.ErrorIs(t, err, boom)
}

func TestRepository_GetOrCreate(t *testing.T) {
	repo := newTestRepo()

	room, created := repo.GetOrCreate("ABC123")
	assert.True(t, created)
	assert.Equal(t, "ABC123", room.ID)

	again, created := repo.GetOrCreate("ABC123")
	assert.False(t, created)
	assert.Same(t, room, again)

	got, err := repo.Get("ABC123")
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = repo.Get("NOPE")
	assert.ErrorIs(t, err, game.ErrRoomNotFound)
}

func TestRepository_GetOrCreateConcurrent(t *testing.T) {
	repo := newTestRepo()

	var wg sync.WaitGroup
	rooms := make([]*game.Room, 16)
	for i := range rooms {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rooms[i], _ = repo.GetOrCreate("SAME")
		}(i)
	}
	wg.Wait()

	for _, room := range rooms {
		assert.Same(t, rooms[0], room)
	}
	assert.Equal(t, 1, repo.Count())
}

func TestRepository_ListOrderedByCreation(t *testing.T) {
	repo := newTestRepo()

	for _, id := range []string{"ZZZ", "AAA", "MMM"} {
		repo.GetOrCreate(id)
	}

	var ids []string
	for _, room := range repo.List() {
		ids = append(ids, room.ID)
	}
	assert.Equal(t, []string{"ZZZ", "AAA", "MMM"}, ids)
	assert.Empty(t, newTestRepo().List())
}
