package chess

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewClock_GivesBothSidesInitialTime(t *testing.T) {
	c := NewClock(5*time.Minute, epoch)

	times := c.GetRemainingTime()
	assert.Equal(t, int64(300000), times.White)
	assert.Equal(t, int64(300000), times.Black)
	assert.Equal(t, epoch, c.LastTick())
}

func TestReconcile_ChargesOnlyActiveSide(t *testing.T) {
	c := NewClock(time.Minute, epoch)

	charged := c.Reconcile(White, epoch.Add(1500*time.Millisecond))

	assert.Equal(t, int64(1500), charged)
	assert.Equal(t, Times{White: 58500, Black: 60000}, c.GetRemainingTime())
	assert.Equal(t, epoch.Add(1500*time.Millisecond), c.LastTick())
}

func TestReconcile_CarriesSubMillisecondRemainder(t *testing.T) {
	c := NewClock(time.Minute, epoch)

	// 3 x 0.6ms: 0ms, 1ms (1.2 elapsed), 0ms (0.8 elapsed since)
	now := epoch
	var total int64
	for i := 0; i < 3; i++ {
		now = now.Add(600 * time.Microsecond)
		total += c.Reconcile(Black, now)
	}

	assert.Equal(t, int64(1), total)
	assert.Equal(t, int64(59999), c.GetRemainingTime().Black)

	// the remaining 0.8ms plus 0.2ms more makes one more millisecond
	now = now.Add(200 * time.Microsecond)
	assert.Equal(t, int64(1), c.Reconcile(Black, now))
	assert.Equal(t, int64(59998), c.GetRemainingTime().Black)
}

func TestReconcile_NeverCountsTheSameIntervalTwice(t *testing.T) {
	c := NewClock(time.Minute, epoch)
	now := epoch.Add(2 * time.Second)

	require.Equal(t, int64(2000), c.Reconcile(White, now))
	assert.Equal(t, int64(0), c.Reconcile(White, now))
	assert.Equal(t, int64(58000), c.GetRemainingTime().White)
}

func TestReconcile_FloorsAtZero(t *testing.T) {
	c := NewClock(time.Second, epoch)
	now := epoch.Add(5 * time.Second)

	c.Reconcile(Black, now)

	assert.Equal(t, int64(0), c.GetRemainingTime().Black)
	assert.True(t, c.IsTimeUp(Black))
	assert.False(t, c.IsTimeUp(White))
	assert.Equal(t, now, c.LastTick())
}

func TestReconcile_IgnoresBackwardsTime(t *testing.T) {
	c := NewClock(time.Minute, epoch)

	assert.Equal(t, int64(0), c.Reconcile(White, epoch.Add(-time.Second)))
	assert.Equal(t, int64(60000), c.GetRemainingTime().White)
	assert.Equal(t, epoch, c.LastTick())
}

func TestReset_RestoresInitialAllowance(t *testing.T) {
	c := NewClock(time.Minute, epoch)
	c.Reconcile(White, epoch.Add(10*time.Second))

	later := epoch.Add(time.Hour)
	c.Reset(later)

	assert.Equal(t, Times{White: 60000, Black: 60000}, c.GetRemainingTime())
	assert.Equal(t, later, c.LastTick())
}

func TestFormatClockTime(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{ms: 300000, want: "5:00"},
		{ms: 61000, want: "1:01"},
		{ms: 9500, want: "9.5"},
		{ms: 0, want: "0.0"},
		{ms: -20, want: "0.0"},
	}

	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatClockTime(tc.ms))
		})
	}
}

func TestColor(t *testing.T) {
	assert.Equal(t, Black, White.Opp())
	assert.Equal(t, White, Black.Opp())
	assert.Equal(t, "white", White.Name())
	assert.Equal(t, "black", Black.Name())
	assert.Equal(t, "", NoColor.Name())
	assert.True(t, White.Valid())
	assert.False(t, NoColor.Valid())
}
