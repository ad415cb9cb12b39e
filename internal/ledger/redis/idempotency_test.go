package redis

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"ms-boxoffice/internal/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis starts an in-memory redis and a client bound to it.
func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	if err := client.Ping(context.Background()).Err(); err != nil {
		mr.Close()
		t.Fatalf("Failed to connect to miniredis: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return NewRedis(client, time.Hour, logger.NewNop()), mr
}

func TestReserveFirstCallerWins(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	status, body, err := r.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, Reserved, status)
	assert.Nil(t, body)
	assert.True(t, mr.Exists("sale_idem:abc"))
	assert.Equal(t, time.Hour, mr.TTL("sale_idem:abc"))

	status, _, err = r.Reserve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, InFlight, status)
}

func TestCompleteThenReplay(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	_, _, err := r.Reserve(ctx, "k1")
	require.NoError(t, err)
	require.NoError(t, r.Complete(ctx, "k1", map[string]int{"sale_id": 42}))

	status, body, err := r.Reserve(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, Replay, status)

	var got map[string]int
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, 42, got["sale_id"])
}

func TestReleaseAllowsRetry(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	_, _, err := r.Reserve(ctx, "k2")
	require.NoError(t, err)
	require.NoError(t, r.Release(ctx, "k2"))
	assert.False(t, mr.Exists("sale_idem:k2"))

	status, _, err := r.Reserve(ctx, "k2")
	require.NoError(t, err)
	assert.Equal(t, Reserved, status)
}

func TestReleaseKeepsCompletedResponse(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	_, _, _ = r.Reserve(ctx, "k3")
	require.NoError(t, r.Complete(ctx, "k3", "done"))
	require.NoError(t, r.Release(ctx, "k3"))
	assert.True(t, mr.Exists("sale_idem:k3"))
}

func TestReservationExpires(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()

	_, _, _ = r.Reserve(ctx, "k4")
	mr.FastForward(2 * time.Hour)

	status, _, err := r.Reserve(ctx, "k4")
	require.NoError(t, err)
	assert.Equal(t, Reserved, status)
}

func TestReserveConcurrent(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _, err := r.Reserve(ctx, "same")
			if err == nil && status == Reserved {
				mu.Lock()
				reserved++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, reserved)
}
