package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	s := New(time.UTC, nil)
	err := s.Register(
		Job{Name: "lock", Schedule: "@every 1h", Run: func() {}},
		Job{Name: "generate", Schedule: "0 0 * * *", Run: func() {}},
	)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Entries())
}

func TestRegisterRejectsBadSchedule(t *testing.T) {
	s := New(time.UTC, nil)
	err := s.Register(Job{Name: "bad", Schedule: "every hour", Run: func() {}})
	assert.ErrorContains(t, err, "invalid schedule")

	err = s.Register(Job{Name: "empty", Schedule: "@every 1h"})
	assert.ErrorContains(t, err, "no function")
}

func TestRunStopsOnCancel(t *testing.T) {
	s := New(time.UTC, nil)
	var runs int32
	require.NoError(t, s.Register(Job{Name: "tick", Schedule: "@every 1s", Run: func() { atomic.AddInt32(&runs, 1) }}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) > 0 }, 3*time.Second, 50*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}
