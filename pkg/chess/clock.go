// Package chess defines the game entities shared by rooms: sides and clocks
package chess

import (
	"fmt"
	"time"
)

// Clock manages the chess clock for both players.
//
// A Clock is not safe for concurrent use; it is owned by a room and only
// touched while the room lock is held.
type Clock struct {
	whiteTimeMs int64
	blackTimeMs int64

	initialMs int64

	// lastTick is the instant up to which elapsed time has been charged.
	lastTick time.Time
}

// Times is a snapshot of both players' remaining time in milliseconds
type Times struct {
	White int64
	Black int64
}

// NewClock creates a new chess clock giving both sides the initial allowance
func NewClock(initial time.Duration, now time.Time) *Clock {
	c := &Clock{initialMs: initial.Milliseconds()}
	c.Reset(now)
	return c
}

// Reset gives both sides the initial allowance again and stamps now as the
// last reconciliation.
func (c *Clock) Reset(now time.Time) {
	c.whiteTimeMs = c.initialMs
	c.blackTimeMs = c.initialMs
	c.lastTick = now
}

// Reconcile charges the wall-clock time elapsed since the last reconciliation
// to the active color and returns the milliseconds charged.
//
// Elapsed time is truncated to whole milliseconds and lastTick advances by
// exactly that amount, so the sub-millisecond remainder is charged by the
// next call. Negative elapsed time (clock going backwards) charges nothing.
func (c *Clock) Reconcile(active Color, now time.Time) int64 {
	elapsed := now.Sub(c.lastTick).Milliseconds()
	if elapsed <= 0 {
		return 0
	}

	remaining := c.remaining(active) - elapsed
	if remaining <= 0 {
		remaining = 0
		c.lastTick = now
	} else {
		c.lastTick = c.lastTick.Add(time.Duration(elapsed) * time.Millisecond)
	}

	if active == White {
		c.whiteTimeMs = remaining
	} else {
		c.blackTimeMs = remaining
	}

	return elapsed
}

func (c *Clock) remaining(color Color) int64 {
	if color == White {
		return c.whiteTimeMs
	}
	return c.blackTimeMs
}

// GetRemainingTime returns the current remaining time for both players
func (c *Clock) GetRemainingTime() Times {
	return Times{White: c.whiteTimeMs, Black: c.blackTimeMs}
}

// IsTimeUp checks if a player has run out of time
func (c *Clock) IsTimeUp(color Color) bool {
	return c.remaining(color) <= 0
}

// LastTick returns the instant of the last reconciliation
func (c *Clock) LastTick() time.Time {
	return c.lastTick
}

// FormatClockTime formats a duration in milliseconds to a user-friendly string (e.g., "1:30")
func FormatClockTime(timeMs int64) string {
	if timeMs < 0 {
		timeMs = 0
	}

	totalSeconds := timeMs / 1000
	minutes := totalSeconds / 60
	seconds := totalSeconds % 60

	// For times less than 10 seconds, show decimal
	if timeMs < 10000 {
		tenths := (timeMs % 1000) / 100
		return fmt.Sprintf("%d.%d", totalSeconds, tenths)
	}

	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
