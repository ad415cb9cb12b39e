package sse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitReachesSubscribersOfThatEvent(t *testing.T) {
	e := NewTotalsEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mine := e.Subscribe(ctx, 1)
	other := e.Subscribe(ctx, 2)

	e.Emit(TotalsUpdate{EventID: 1, Kind: "sale"})

	select {
	case u := <-mine:
		assert.Equal(t, "sale", u.Kind)
	case <-time.After(time.Second):
		t.Fatal("no update received")
	}
	assert.Len(t, other, 0)
}

func TestUnsubscribeOnCancel(t *testing.T) {
	e := NewTotalsEmitter()
	ctx, cancel := context.WithCancel(context.Background())

	ch := e.Subscribe(ctx, 5)
	require.Equal(t, 1, e.ClientCount(5))

	cancel()
	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, e.ClientCount(5))
}

func TestEmitDoesNotBlockOnSlowClient(t *testing.T) {
	e := NewTotalsEmitter()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.Subscribe(ctx, 1)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 50; i++ {
			e.Emit(TotalsUpdate{EventID: 1})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("emit blocked")
	}
}
