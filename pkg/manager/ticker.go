package manager

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/HackenWijaya/ChessHero/pkg/game"
	"github.com/HackenWijaya/ChessHero/pkg/messages"
)

// Run drives the clock of every playing room until ctx is done
func (m *Manager) Run(ctx context.Context, interval time.Duration, workers int) {
	ticker := m.clock.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("clock ticker started",
		zap.Duration("interval", interval),
		zap.Int("workers", workers),
	)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("clock ticker stopped")
			return
		case <-ticker.Chan():
			m.TickOnce(ctx, workers)
		}
	}
}

// TickOnce reconciles every playing room once, spreading rooms over at most
// workers goroutines so a contended room does not delay the rest. The lobby
// is refreshed if any game timed out.
func (m *Manager) TickOnce(ctx context.Context, workers int) {
	rooms := m.rooms.List()
	if len(rooms) == 0 {
		return
	}
	workers = max(1, min(workers, len(rooms)))

	work := make(chan *game.Room)
	var (
		wg       sync.WaitGroup
		timedOut atomic.Bool
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for room := range work {
				if m.tickRoom(room) {
					timedOut.Store(true)
				}
			}
		}()
	}

feed:
	for _, room := range rooms {
		select {
		case work <- room:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	if timedOut.Load() {
		m.broadcastLobby()
	}
}

// tickRoom reconciles one room and reports whether its game timed out
func (m *Manager) tickRoom(room *game.Room) bool {
	room.Lock()
	ticked, timedOut := room.Tick(m.clock.Now())
	if ticked {
		m.out.SendToRoom(room.ID, messages.OutboundMessage{
			Event:   messages.EventClock,
			Payload: room.ClockUpdate(),
		})
	}
	if timedOut {
		m.publishEnded(room, *room.Result())
	}
	room.Unlock()

	return timedOut
}
