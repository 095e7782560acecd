package events

import (
	"sync"
	"sync/atomic"
	"time"
)

// EventType represents the type of event
type EventType string

// Define event types
const (
	EventRoomCreated  EventType = "room_created"
	EventPlayerJoined EventType = "player_joined"
	EventPlayerLeft   EventType = "player_left"
	EventGameStarted  EventType = "game_started"
	EventMoveMade     EventType = "move_made"
	EventGameEnded    EventType = "game_ended"

	allEvents EventType = "*"
)

// Event represents an event in the system
type Event struct {
	Type    EventType   `json:"type"`
	RoomID  string      `json:"roomId"`
	Time    time.Time   `json:"time"`
	Payload interface{} `json:"payload,omitempty"`
}

// PlayerPayload accompanies join and leave events
type PlayerPayload struct {
	ConnectionID string `json:"connectionId"`
	Side         string `json:"side"`
}

// MovePayload accompanies move events
type MovePayload struct {
	Side      string `json:"side"`
	From      string `json:"from"`
	To        string `json:"to"`
	Promotion string `json:"promotion,omitempty"`
	FEN       string `json:"fen"`
}

// GameEndedPayload accompanies game end events
type GameEndedPayload struct {
	Reason string `json:"reason"`
	Winner string `json:"winner"`
}

// Handler is a function that processes events
type Handler func(event Event)

// queueSize bounds the events buffered for one subscriber
const queueSize = 256

type subscription struct {
	handler Handler
	queue   chan Event
}

// Publisher is the central event publisher. Every subscriber receives events
// in publish order on its own goroutine; Publish never blocks, and events for
// a subscriber whose queue is full are dropped.
type Publisher struct {
	mu          sync.RWMutex
	subscribers map[EventType][]*subscription
	closed      bool

	wg      sync.WaitGroup
	dropped atomic.Int64
}

// NewPublisher creates a new event publisher
func NewPublisher() *Publisher {
	return &Publisher{
		subscribers: make(map[EventType][]*subscription),
	}
}

// Subscribe registers a handler for a specific event type
func (p *Publisher) Subscribe(eventType EventType, handler Handler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}

	sub := &subscription{handler: handler, queue: make(chan Event, queueSize)}
	p.subscribers[eventType] = append(p.subscribers[eventType], sub)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for event := range sub.queue {
			sub.handler(event)
		}
	}()
}

// SubscribeAll registers a handler for all event types
func (p *Publisher) SubscribeAll(handler Handler) {
	p.Subscribe(allEvents, handler)
}

// Publish queues an event for its subscribers and for "all events"
// handlers. It is safe to call with a room lock held.
func (p *Publisher) Publish(event Event) {
	if p == nil {
		return
	}

	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return
	}

	for _, sub := range p.subscribers[event.Type] {
		p.offer(sub, event)
	}
	for _, sub := range p.subscribers[allEvents] {
		p.offer(sub, event)
	}
}

func (p *Publisher) offer(sub *subscription, event Event) {
	select {
	case sub.queue <- event:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the number of events discarded because a subscriber fell
// behind.
func (p *Publisher) Dropped() int64 {
	if p == nil {
		return 0
	}
	return p.dropped.Load()
}

// Close stops accepting events and waits for subscribers to drain what
// is already queued.
func (p *Publisher) Close() {
	if p == nil {
		return
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	for _, subs := range p.subscribers {
		for _, sub := range subs {
			close(sub.queue)
		}
	}
	p.mu.Unlock()

	p.wg.Wait()
}
