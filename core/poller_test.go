package core

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPollerRunsImmediatelyAndOnTicks(t *testing.T) {
	var runs atomic.Int32
	p := NewPoller("test", 10*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return nil
	}, nil)

	p.Start(context.Background())
	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
	p.Stop()

	after := runs.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, runs.Load(), "poller kept running after Stop")
	p.Stop()
}

func TestPollerKeepsGoingAfterErrors(t *testing.T) {
	var runs atomic.Int32
	p := NewPoller("flaky", 5*time.Millisecond, func(context.Context) error {
		runs.Add(1)
		return errors.New("upstream down")
	}, nil)
	p.Start(context.Background())
	defer p.Stop()

	require.Eventually(t, func() bool { return runs.Load() >= 3 }, time.Second, 5*time.Millisecond)
}

func TestPollerStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPoller("ctx", time.Hour, func(context.Context) error { return nil }, nil)
	p.Start(ctx)
	cancel()

	select {
	case <-p.Done():
	case <-time.After(time.Second):
		t.Fatal("poller did not exit after cancel")
	}
}

func TestPollerStopWithoutStart(t *testing.T) {
	p := NewPoller("idle", 0, func(context.Context) error { return nil }, nil)
	assert.Nil(t, p.Done())
	p.Stop()
}
