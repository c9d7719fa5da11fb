package service

import (
	"context"
	"testing"
	"time"

	"userbot/internal/core/domain"
	"userbot/internal/core/registry"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTracker(t *testing.T, limit int) *UsageTracker {
	t.Helper()

	viper.Reset()
	viper.Set("limits.daily_invocations", limit)

	tracker, err := NewUsageTracker(1)
	require.NoError(t, err)

	return tracker
}

func TestNewUsageTracker(t *testing.T) {
	tracker := newTracker(t, 10)

	assert.NotNil(t, tracker.chats)
	assert.Equal(t, 10, tracker.dailyLimit)
	assert.Equal(t, int64(1), tracker.owner)
	assert.Len(t, tracker.cron.Entries(), 1)
}

func TestAllow(t *testing.T) {
	tracker := newTracker(t, 2)

	for range 2 {
		allowed, first := tracker.Allow(1)
		assert.True(t, allowed)
		assert.False(t, first)
	}

	allowed, first := tracker.Allow(1)
	assert.False(t, allowed)
	assert.True(t, first)

	allowed, first = tracker.Allow(1)
	assert.False(t, allowed)
	assert.False(t, first)

	allowed, _ = tracker.Allow(2)
	assert.True(t, allowed, "limits are per chat")

	tracker.Reset()
	allowed, _ = tracker.Allow(1)
	assert.True(t, allowed)
}

func TestAllowUnlimited(t *testing.T) {
	tracker := newTracker(t, 0)

	for range 100 {
		allowed, _ := tracker.Allow(1)
		require.True(t, allowed)
	}
}

func TestNextReset(t *testing.T) {
	tracker := newTracker(t, 1)

	reset := tracker.NextReset()
	assert.Equal(t, 0, reset.Hour())
	assert.Equal(t, 0, reset.Minute())
	assert.Equal(t, 0, reset.Second())
	assert.True(t, reset.After(time.Now()))
	assert.LessOrEqual(t, time.Until(reset), 24*time.Hour)
}

func TestUsageTracker_Middleware(t *testing.T) {
	tracker := newTracker(t, 1)
	mw := tracker.Middleware()
	sender := &mockSender{}

	foreign := &domain.Message{ID: 1, ChatID: 5, Sender: domain.User{ID: 9}}
	own := &domain.Message{ID: 2, ChatID: 5, Outgoing: true}
	owner := &domain.Message{ID: 3, ChatID: 5, Sender: domain.User{ID: 1}}

	run := func(msg *domain.Message, kind registry.Kind) bool {
		var called bool
		require.NoError(t, mw(context.Background(), invocation(msg, kind, sender), reached(&called)))
		return called
	}

	assert.True(t, run(foreign, registry.KindCommand))
	assert.False(t, run(foreign, registry.KindCommand))
	assert.False(t, run(foreign, registry.KindCommand))
	assert.True(t, run(own, registry.KindCommand), "own commands are not limited")
	assert.True(t, run(owner, registry.KindCommand), "the owner is not limited")
	assert.True(t, run(foreign, registry.KindShortcut), "only commands are limited")

	require.Len(t, sender.replies, 1)
	assert.Contains(t, sender.replies[0], "This chat has used up its 1 commands for today.")
}

func TestUsageTrackerRunStops(t *testing.T) {
	tracker := newTracker(t, 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		tracker.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("tracker did not stop")
	}
}
